package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/Strategix/internal/confidence"
	"github.com/MikeSquared-Agency/Strategix/internal/engine"
	"github.com/MikeSquared-Agency/Strategix/internal/position"
	"github.com/MikeSquared-Agency/Strategix/internal/scenario"
	"github.com/MikeSquared-Agency/Strategix/internal/scoring"
	"github.com/MikeSquared-Agency/Strategix/internal/sensitivity"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Hermes    HermesConfig    `yaml:"hermes"`
	Engine    EngineConfig    `yaml:"engine"`
	Cache     CacheConfig     `yaml:"cache"`
	Advisory  AdvisoryConfig  `yaml:"advisory"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Port        int `yaml:"port"`
	MetricsPort int `yaml:"metrics_port"`
	// AllowedOrigins feeds CORS for the browser front end.
	AllowedOrigins []string `yaml:"allowed_origins"`
	// RequestsPerMinute caps analyses per client address; 0 disables it.
	RequestsPerMinute int `yaml:"requests_per_minute"`
}

type HermesConfig struct {
	URL string `yaml:"url"`
}

type EngineConfig struct {
	MarketShareAlpha  float64            `yaml:"market_share_alpha"`
	StrengthThreshold float64            `yaml:"strength_threshold"`
	InvestmentMargin  float64            `yaml:"investment_margin"`
	WeightFloor       float64            `yaml:"weight_floor"`
	WeightCeiling     float64            `yaml:"weight_ceiling"`
	SearchStep        float64            `yaml:"search_step"`
	ConfidenceWeights confidence.Weights `yaml:"confidence_weights"`
	Scenarios         []scenario.Preset  `yaml:"scenarios"`
}

type CacheConfig struct {
	Size int `yaml:"size"`
}

type AdvisoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `yaml:"api_key_env"`
}

// APIKey resolves the advisory API key from the environment.
func (a AdvisoryConfig) APIKey() string { return os.Getenv(a.APIKeyEnv) }

type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// EngineOptions converts the engine section into engine.Config.
func (c *Config) EngineOptions() engine.Config {
	return engine.Config{
		Alpha: c.Engine.MarketShareAlpha,
		Sensitivity: sensitivity.Options{
			Floor:   c.Engine.WeightFloor,
			Ceiling: c.Engine.WeightCeiling,
			Step:    c.Engine.SearchStep,
		},
		Position: position.Options{
			StrengthThreshold: c.Engine.StrengthThreshold,
			InvestmentMargin:  c.Engine.InvestmentMargin,
		},
		Confidence: c.Engine.ConfidenceWeights,
		Scenarios:  c.Engine.Scenarios,
		CacheSize:  c.Cache.Size,
	}
}

func Load(path string) (*Config, error) {
	search := sensitivity.DefaultOptions()
	pos := position.DefaultOptions()
	cfg := &Config{
		Server: ServerConfig{
			Port:              8700,
			MetricsPort:       8701,
			AllowedOrigins:    []string{"*"},
			RequestsPerMinute: 120,
		},
		Hermes: HermesConfig{
			URL: "nats://localhost:4222",
		},
		Engine: EngineConfig{
			MarketShareAlpha:  scoring.DefaultAlpha,
			StrengthThreshold: pos.StrengthThreshold,
			InvestmentMargin:  pos.InvestmentMargin,
			WeightFloor:       search.Floor,
			WeightCeiling:     search.Ceiling,
			SearchStep:        search.Step,
			ConfidenceWeights: confidence.DefaultWeights(),
		},
		Cache: CacheConfig{
			Size: 256,
		},
		Advisory: AdvisoryConfig{
			Enabled:   true,
			APIKeyEnv: "ANTHROPIC_API_KEY",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if len(cfg.Engine.Scenarios) == 0 {
		cfg.Engine.Scenarios = scenario.DefaultCatalogue()
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	e := c.Engine
	if e.MarketShareAlpha <= 0 {
		return fmt.Errorf("engine.market_share_alpha must be positive, got %g", e.MarketShareAlpha)
	}
	if e.WeightFloor < 0 || e.WeightCeiling > 1 || e.WeightFloor >= e.WeightCeiling {
		return fmt.Errorf("engine weight range [%g,%g] is invalid", e.WeightFloor, e.WeightCeiling)
	}
	if e.SearchStep <= 0 {
		return fmt.Errorf("engine.search_step must be positive, got %g", e.SearchStep)
	}
	if e.StrengthThreshold < 0 || e.InvestmentMargin < 0 {
		return fmt.Errorf("engine.strength_threshold and engine.investment_margin must be non-negative")
	}
	if err := e.ConfidenceWeights.Validate(); err != nil {
		return fmt.Errorf("engine.confidence_weights: %w", err)
	}
	if err := scenario.ValidateCatalogue(e.Scenarios); err != nil {
		return fmt.Errorf("engine.scenarios: %w", err)
	}
	if c.Cache.Size < 0 {
		return fmt.Errorf("cache.size must not be negative, got %d", c.Cache.Size)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("STRATEGIX_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("STRATEGIX_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("STRATEGIX_HERMES_URL"); v != "" {
		cfg.Hermes.URL = v
	}
	if v := os.Getenv("STRATEGIX_MARKET_SHARE_ALPHA"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Engine.MarketShareAlpha = f
		}
	}
	if v := os.Getenv("STRATEGIX_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Cache.Size = n
		}
	}
	if v := os.Getenv("STRATEGIX_ADVISORY_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Advisory.Enabled = b
		}
	}
	if v := os.Getenv("STRATEGIX_ADVISORY_MODEL"); v != "" {
		cfg.Advisory.Model = v
	}
	if v := os.Getenv("STRATEGIX_OTEL_ENDPOINT"); v != "" {
		cfg.Telemetry.OTLPEndpoint = v
	}
	if v := os.Getenv("STRATEGIX_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("STRATEGIX_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
