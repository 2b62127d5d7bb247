// Package config resolves runtime settings from defaults, an optional
// .env file and process environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every tunable the commands expose. Commands map flags onto
// these fields, so flag defaults follow the environment.
type Config struct {
	Symbol         string  `json:"symbol"`
	InitialCapital float64 `json:"initial_capital"`
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	DataDir        string  `json:"data_dir"`
	OutputDir      string  `json:"output_dir"`

	PostgresDSN   string `json:"postgres_dsn"`
	ClickhouseDSN string `json:"clickhouse_dsn"`
	UseMemory     bool   `json:"use_memory"`

	AIBaseURL       string        `json:"ai_base_url"`
	AIAPIKey        string        `json:"ai_api_key"`
	AIModel         string        `json:"ai_model"`
	AIMaxTokens     int           `json:"ai_max_tokens"`
	DecisionTimeout time.Duration `json:"decision_timeout"`
	RuleOnly        bool          `json:"rule_only"`

	BinanceBaseURL   string `json:"binance_base_url"`
	FearGreedBaseURL string `json:"fear_greed_base_url"`

	MetricsAddr string `json:"metrics_addr"`
	Verbose     bool   `json:"verbose"`
}

// DefaultConfig builds the baseline configuration, loads .env if present
// and applies environment overrides.
func DefaultConfig() *Config {
	currentDir, _ := os.Getwd()

	cfg := &Config{
		Symbol:         "BTCUSDT",
		InitialCapital: 10000,
		StartDate:      "2024-01-01",
		EndDate:        "2024-12-31",
		DataDir:        filepath.Join(currentDir, "data"),
		OutputDir:      filepath.Join(currentDir, "results"),

		UseMemory: false,

		AIModel:         "gemini-3-flash",
		AIMaxTokens:     0,
		DecisionTimeout: 300 * time.Second,
		RuleOnly:        false,

		BinanceBaseURL:   "https://data-api.binance.vision/api/v3",
		FearGreedBaseURL: "https://api.alternative.me",

		MetricsAddr: ":9090",
		Verbose:     false,
	}

	// Load environment variables from .env file
	_ = godotenv.Load()

	// Override with environment variables if they exist
	cfg.loadFromEnv()

	return cfg
}

func (c *Config) loadFromEnv() {
	if val := os.Getenv("SYMBOL"); val != "" {
		c.Symbol = val
	}
	if val := os.Getenv("INITIAL_CAPITAL"); val != "" {
		if capital, err := strconv.ParseFloat(val, 64); err == nil && capital > 0 {
			c.InitialCapital = capital
		}
	}
	if val := os.Getenv("START_DATE"); val != "" {
		c.StartDate = val
	}
	if val := os.Getenv("END_DATE"); val != "" {
		c.EndDate = val
	}
	if val := os.Getenv("DATA_DIR"); val != "" {
		c.DataDir = val
	}
	if val := os.Getenv("OUTPUT_DIR"); val != "" {
		c.OutputDir = val
	}

	if val := os.Getenv("POSTGRES_DSN"); val != "" {
		c.PostgresDSN = val
	}
	if val := os.Getenv("CLICKHOUSE_DSN"); val != "" {
		c.ClickhouseDSN = val
	}
	if val := os.Getenv("USE_MEMORY"); val != "" {
		if useMemory, err := strconv.ParseBool(val); err == nil {
			c.UseMemory = useMemory
		}
	}

	if val := os.Getenv("AI_BASE_URL"); val != "" {
		c.AIBaseURL = val
	}
	if val := os.Getenv("AI_API_KEY"); val != "" {
		c.AIAPIKey = val
	}
	if val := os.Getenv("AI_MODEL"); val != "" {
		c.AIModel = val
	}
	if val := os.Getenv("AI_MAX_TOKENS"); val != "" {
		if tokens, err := strconv.Atoi(val); err == nil && tokens >= 0 {
			c.AIMaxTokens = tokens
		}
	}
	if val := os.Getenv("DECISION_TIMEOUT"); val != "" {
		if timeout, err := time.ParseDuration(val); err == nil && timeout > 0 {
			c.DecisionTimeout = timeout
		}
	}
	if val := os.Getenv("RULE_ONLY"); val != "" {
		if ruleOnly, err := strconv.ParseBool(val); err == nil {
			c.RuleOnly = ruleOnly
		}
	}

	if val := os.Getenv("BINANCE_BASE_URL"); val != "" {
		c.BinanceBaseURL = val
	}
	if val := os.Getenv("FEAR_GREED_BASE_URL"); val != "" {
		c.FearGreedBaseURL = val
	}

	if val := os.Getenv("METRICS_ADDR"); val != "" {
		c.MetricsAddr = val
	}
	if val := os.Getenv("VERBOSE"); val != "" {
		if verbose, err := strconv.ParseBool(val); err == nil {
			c.Verbose = verbose
		}
	}
}

// EnsureDirectories creates the data and output directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.DataDir, c.OutputDir}
	for _, dir := range dirs {
		path := strings.TrimSpace(dir)
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", path, err)
		}
	}
	return nil
}
