// Package config holds the dashboard configuration: where results are read
// from, how the server binds, the bounds of the run form, the external
// backtest command and the notifier.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/tradedash/market"
	"github.com/rustyeddy/tradedash/results"
)

// Environment variables read by ApplyEnv.
const (
	EnvResultsDir  = "TRADEDASH_RESULTS_DIR"
	EnvHost        = "TRADEDASH_HOST"
	EnvPort        = "TRADEDASH_PORT"
	EnvBacktestCmd = "TRADEDASH_BACKTEST_CMD"
	EnvBotToken    = "TELEGRAM_BOT_TOKEN"
	EnvChatID      = "TELEGRAM_CHAT_ID"
)

// Config is the complete dashboard configuration
type Config struct {
	Results  ResultsConfig  `json:"results" yaml:"results"`
	Server   ServerConfig   `json:"server" yaml:"server"`
	UI       UIConfig       `json:"ui" yaml:"ui"`
	Backtest BacktestConfig `json:"backtest" yaml:"backtest"`
	Notify   NotifyConfig   `json:"notify" yaml:"notify"`
}

// ResultsConfig locates backtest artifacts
type ResultsConfig struct {
	// Dir defaults to $TEMP/trading_bot_results when empty.
	Dir         string `json:"dir,omitempty" yaml:"dir,omitempty"`
	WaitTimeout string `json:"wait_timeout" yaml:"wait_timeout"` // e.g. "10s"
}

// Directory returns Dir or the temp-directory fallback.
func (r ResultsConfig) Directory() string {
	if r.Dir == "" {
		return results.DefaultDir()
	}
	return r.Dir
}

// Wait converts WaitTimeout to a duration.
func (r ResultsConfig) Wait() (time.Duration, error) {
	if r.WaitTimeout == "" {
		return results.DefaultWait, nil
	}
	return time.ParseDuration(r.WaitTimeout)
}

// ServerConfig is the web server bind address
type ServerConfig struct {
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port"`
}

func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// UIConfig bounds the run form
type UIConfig struct {
	Symbols        []string `json:"symbols" yaml:"symbols"`
	Timeframes     []string `json:"timeframes" yaml:"timeframes"`
	MinCapital     float64  `json:"min_capital" yaml:"min_capital"`
	MaxCapital     float64  `json:"max_capital" yaml:"max_capital"`
	CapitalStep    float64  `json:"capital_step" yaml:"capital_step"`
	DefaultCapital float64  `json:"default_capital" yaml:"default_capital"`
	LookbackDays   int      `json:"lookback_days" yaml:"lookback_days"`
}

// BacktestConfig is the external engine invocation
type BacktestConfig struct {
	Command string   `json:"command,omitempty" yaml:"command,omitempty"`
	Args    []string `json:"args,omitempty" yaml:"args,omitempty"`
	WorkDir string   `json:"work_dir,omitempty" yaml:"work_dir,omitempty"`
}

// NotifyConfig contains notifier parameters
type NotifyConfig struct {
	Enabled           bool    `json:"enabled" yaml:"enabled"`
	Token             string  `json:"token,omitempty" yaml:"token,omitempty"`
	ChatID            string  `json:"chat_id,omitempty" yaml:"chat_id,omitempty"`
	APIURL            string  `json:"api_url,omitempty" yaml:"api_url,omitempty"`
	Transport         string  `json:"transport" yaml:"transport"` // "http" or "bot"
	OnRun             bool    `json:"on_run" yaml:"on_run"`
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
}

// LoadFromFile loads configuration from a file (YAML or JSON). Keys missing
// from the file keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Load reads .env files, then the config file at path (defaults when path
// is empty), then overlays the environment and validates the result.
func Load(path string) (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}

	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = LoadFromFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadDotEnv loads the given .env files (".env" when none are named) into
// the process environment. Missing files are not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overlays environment variables. Notifier credentials from the
// environment only fill values the file left empty.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvResultsDir); v != "" {
		c.Results.Dir = v
	}
	if v := os.Getenv(EnvHost); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPort, err)
		}
		c.Server.Port = port
	}
	if fields := strings.Fields(os.Getenv(EnvBacktestCmd)); len(fields) > 0 {
		c.Backtest.Command, c.Backtest.Args = fields[0], fields[1:]
	}
	if c.Notify.Token == "" {
		c.Notify.Token = os.Getenv(EnvBotToken)
	}
	if c.Notify.ChatID == "" {
		c.Notify.ChatID = os.Getenv(EnvChatID)
	}
	return nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if _, err := c.Results.Wait(); err != nil {
		return fmt.Errorf("results.wait_timeout: %w", err)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	ui := c.UI
	if len(ui.Symbols) == 0 {
		return fmt.Errorf("ui.symbols is required")
	}
	for _, s := range ui.Symbols {
		if !market.IsSymbol(s) {
			return fmt.Errorf("unknown symbol: %s", s)
		}
	}
	if len(ui.Timeframes) == 0 {
		return fmt.Errorf("ui.timeframes is required")
	}
	for _, tf := range ui.Timeframes {
		if _, err := market.TimeframeDuration(tf); err != nil {
			return err
		}
	}
	if ui.MinCapital <= 0 || ui.MaxCapital < ui.MinCapital {
		return fmt.Errorf("ui capital bounds must satisfy 0 < min_capital <= max_capital")
	}
	if ui.CapitalStep <= 0 {
		return fmt.Errorf("ui.capital_step must be positive")
	}
	if ui.DefaultCapital < ui.MinCapital || ui.DefaultCapital > ui.MaxCapital {
		return fmt.Errorf("ui.default_capital must be within the capital bounds")
	}
	if !decimal.NewFromFloat(ui.DefaultCapital).Mod(decimal.NewFromFloat(ui.CapitalStep)).IsZero() {
		return fmt.Errorf("ui.default_capital must be a multiple of capital_step")
	}
	if ui.LookbackDays <= 0 {
		return fmt.Errorf("ui.lookback_days must be positive")
	}

	switch c.Notify.Transport {
	case "", "http", "bot":
	default:
		return fmt.Errorf("notify.transport must be 'http' or 'bot'")
	}
	if c.Notify.RequestsPerSecond < 0 {
		return fmt.Errorf("notify.requests_per_second must not be negative")
	}
	if c.Notify.Enabled && (c.Notify.Token == "" || c.Notify.ChatID == "") {
		return fmt.Errorf("notify token and chat_id required when notify is enabled")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Results: ResultsConfig{
			WaitTimeout: "10s",
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8501,
		},
		UI: UIConfig{
			Symbols:        append([]string(nil), market.Symbols...),
			Timeframes:     append([]string(nil), market.Timeframes...),
			MinCapital:     100,
			MaxCapital:     100000,
			CapitalStep:    100,
			DefaultCapital: 1000,
			LookbackDays:   365,
		},
		Notify: NotifyConfig{
			Transport:         "http",
			RequestsPerSecond: 1,
		},
	}
}
