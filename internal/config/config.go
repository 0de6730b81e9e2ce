package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"fmp-archiver/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	API       APIConfig       `mapstructure:"api"`
	Storage   StorageConfig   `mapstructure:"storage"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Daemon    DaemonConfig    `mapstructure:"daemon"`
	Alerting  AlertingConfig  `mapstructure:"alerting"`
	Export    ExportConfig    `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// APIConfig covers FMP connectivity.
type APIConfig struct {
	Key            string        `mapstructure:"key"`
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// StorageConfig locates the partition store.
type StorageConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

// RateLimitConfig bounds the outbound call budget.
type RateLimitConfig struct {
	RequestsPerWindow int           `mapstructure:"requests_per_window"`
	Window            time.Duration `mapstructure:"window"`
	RequestsPerDay    int           `mapstructure:"requests_per_day"`
	PenaltyBase       time.Duration `mapstructure:"penalty_base"`
	PenaltyMax        time.Duration `mapstructure:"penalty_max"`
}

// FetchConfig sets fetch defaults that flags may override.
type FetchConfig struct {
	Tickers          []string      `mapstructure:"tickers"`
	Period           string        `mapstructure:"period"`
	Years            int           `mapstructure:"years"`
	IntradayInterval string        `mapstructure:"intraday_interval"`
	IntradayMaxSpan  time.Duration `mapstructure:"intraday_max_span"`
	MaxRetries       int           `mapstructure:"max_retries"`
	RetryInitial     time.Duration `mapstructure:"retry_initial"`
	RetryMax         time.Duration `mapstructure:"retry_max"`
}

// DaemonConfig governs the periodic refresh mode.
type DaemonConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	AlignToSlot  bool          `mapstructure:"align_to_slot"`
	StartupDelay time.Duration `mapstructure:"startup_delay"`
}

// AlertingConfig defines failure notification routing.
type AlertingConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig carries Telegram Bot API credentials.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := newViper(path)

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("FMPARCHIVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	return v
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "fmp-archiver")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("api.base_url", "https://financialmodelingprep.com/api/v3")
	v.SetDefault("api.request_timeout", "15s")
	v.SetDefault("api.user_agent", "fmp-archiver/1.0")

	v.SetDefault("storage.data_dir", "data")

	v.SetDefault("rate_limit.requests_per_window", 5)
	v.SetDefault("rate_limit.window", "1m")
	v.SetDefault("rate_limit.requests_per_day", 250)
	v.SetDefault("rate_limit.penalty_base", "12s")
	v.SetDefault("rate_limit.penalty_max", "5m")

	v.SetDefault("fetch.period", "annual")
	v.SetDefault("fetch.years", 10)
	v.SetDefault("fetch.intraday_interval", "1hour")
	v.SetDefault("fetch.intraday_max_span", "168h")
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.retry_initial", "2s")
	v.SetDefault("fetch.retry_max", "1m")

	v.SetDefault("daemon.interval", "24h")
	v.SetDefault("daemon.align_to_slot", true)
	v.SetDefault("daemon.startup_delay", "0s")

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("export.max_data_points", 100000)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Storage.DataDir == "" {
		return fmt.Errorf("storage.data_dir must be set")
	}
	if c.RateLimit.RequestsPerWindow <= 0 {
		return fmt.Errorf("rate_limit.requests_per_window must be greater than zero")
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate_limit.window must be greater than zero")
	}
	if c.RateLimit.RequestsPerDay < 0 {
		return fmt.Errorf("rate_limit.requests_per_day cannot be negative")
	}
	if c.Fetch.Period != "annual" && c.Fetch.Period != "quarter" {
		return fmt.Errorf("fetch.period must be annual or quarter, got %q", c.Fetch.Period)
	}
	if c.Fetch.Years <= 0 {
		return fmt.Errorf("fetch.years must be greater than zero")
	}
	if c.Fetch.IntradayMaxSpan <= 0 {
		return fmt.Errorf("fetch.intraday_max_span must be greater than zero")
	}
	if c.Daemon.Interval <= 0 {
		return fmt.Errorf("daemon.interval must be greater than zero")
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token must be set")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id must be set")
		}
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	return nil
}

// Set persists one key=value pair into the config file at path,
// preserving everything already there. The written file becomes the
// new source of truth for subsequent loads.
func Set(path, key, value string) error {
	if path == "" {
		path = "config.yaml"
	}
	if !strings.Contains(key, ".") {
		return fmt.Errorf("config key must be section-qualified, e.g. api.key")
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := readConfig(v); err != nil {
		return err
	}
	v.Set(key, value)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// MaskSecret hides all but the last four characters of a credential.
func MaskSecret(s string) string {
	if s == "" {
		return "(unset)"
	}
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
