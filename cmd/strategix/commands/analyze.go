package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/Strategix/internal/advisory"
	"github.com/MikeSquared-Agency/Strategix/internal/config"
	"github.com/MikeSquared-Agency/Strategix/internal/engine"
	"github.com/MikeSquared-Agency/Strategix/internal/matrix"
	"github.com/MikeSquared-Agency/Strategix/internal/metrics"
)

var (
	analyzeInput    string
	analyzeFocal    string
	analyzeAdvisory bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a decision matrix file and print the report",
	Long: `Reads a decision matrix from a YAML or JSON file, runs the full analysis
and prints the report as JSON on stdout.`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeInput, "input", "i", "", "path to the matrix file (required)")
	analyzeCmd.Flags().StringVar(&analyzeFocal, "focal", "", "option to analyze as your product")
	analyzeCmd.Flags().BoolVar(&analyzeAdvisory, "advisory", false, "include the strategic advisory")

	analyzeCmd.MarkFlagRequired("input")
}

type analyzeOutput struct {
	Results  *engine.Report   `json:"results"`
	Advisory *advisory.Report `json:"advisory,omitempty"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	// Logs go to stderr so stdout stays a clean JSON document.
	logger, err := newLogger(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	in, err := readInput(analyzeInput)
	if err != nil {
		return err
	}
	if analyzeFocal != "" {
		in.YourProduct = analyzeFocal
	}

	m := metrics.NewMetrics(prometheus.NewRegistry())
	eng, err := engine.New(cfg.EngineOptions(), m, logger)
	if err != nil {
		return err
	}
	report, err := eng.Analyze(cmd.Context(), in)
	if err != nil {
		return err
	}

	out := analyzeOutput{Results: report}
	if analyzeAdvisory {
		adv, err := newAdvisor(cfg.Advisory, nil, logger).Generate(cmd.Context(), report)
		if err != nil {
			return err
		}
		out.Advisory = adv
	}
	return writeReport(cmd.OutOrStdout(), out)
}

// readInput parses a matrix file. JSON is accepted as YAML.
func readInput(path string) (matrix.Input, error) {
	var in matrix.Input
	data, err := os.ReadFile(path)
	if err != nil {
		return in, fmt.Errorf("read input: %w", err)
	}
	if err := yaml.Unmarshal(data, &in); err != nil {
		return in, fmt.Errorf("parse input: %w", err)
	}
	return in, nil
}

func writeReport(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
