package commands

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/Strategix/internal/advisory"
	"github.com/MikeSquared-Agency/Strategix/internal/config"
)

const Version = "0.1.0"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "strategix",
	Short: "Strategix - decision matrix and sensitivity analysis",
	Long: `Strategix scores competing options against weighted criteria, finds the
weight shifts that change the leader, and explains the result.`,
	Version:      Version,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
}

// newLogger builds the process logger from the logging section.
func newLogger(cfg config.LoggingConfig, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(cfg.Format) {
	case "json", "":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.Format)
	}
}

// newAdvisor wires the language model when enabled and keyed. Without it the
// deterministic advisory answers every request.
func newAdvisor(cfg config.AdvisoryConfig, onFallback func(error), logger *slog.Logger) *advisory.Advisor {
	if !cfg.Enabled {
		return advisory.NewAdvisor(nil, onFallback, logger)
	}
	caller, err := advisory.NewAnthropicCaller(cfg.APIKey(), cfg.Model)
	if err != nil {
		logger.Warn("advisory model unavailable, using deterministic advisory", "error", err)
		return advisory.NewAdvisor(nil, onFallback, logger)
	}
	return advisory.NewAdvisor(advisory.NewLLMGenerator(caller, logger), onFallback, logger)
}
