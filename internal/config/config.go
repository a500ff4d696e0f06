package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/dgnsrekt/moneyflow/internal/nse"
)

type Config struct {
	NSE          NSEConfig      `mapstructure:"nse"`
	Download     DownloadConfig `mapstructure:"download"`
	Symbols      []string       `mapstructure:"symbols"`
	IndexSymbols []string       `mapstructure:"index_symbols"`
	LotSizes     map[string]int `mapstructure:"lot_sizes"`
	Report       ReportConfig   `mapstructure:"report"`
	Archive      ArchiveConfig  `mapstructure:"archive"`
	Output       OutputConfig   `mapstructure:"output"`
	Server       ServerConfig   `mapstructure:"server"`
	Logging      LoggingConfig  `mapstructure:"logging"`
}

type NSEConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	UserAgent  string `mapstructure:"user_agent"`
	Referer    string `mapstructure:"referer"`
	TimeoutSec int    `mapstructure:"timeout_sec"`
	RetryCount int    `mapstructure:"retry_count"`
	RetryDelay int    `mapstructure:"retry_delay_sec"`
}

type DownloadConfig struct {
	Workers       int `mapstructure:"workers"`
	RatePerSecond int `mapstructure:"rate_per_second"`
}

type ReportConfig struct {
	TopStrikes    int      `mapstructure:"top_strikes"`
	Levels        int      `mapstructure:"levels"`
	WeeklyExpiry  string   `mapstructure:"weekly_expiry"`
	DropUntraded  bool     `mapstructure:"drop_untraded"`
	PartialLevels bool     `mapstructure:"partial_levels"`
	Formats       []string `mapstructure:"formats"`
}

type ArchiveConfig struct {
	Directory string `mapstructure:"directory"`
}

type OutputConfig struct {
	Directory string `mapstructure:"directory"`
}

type LoggingConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Directory string `mapstructure:"directory"`
	Level     string `mapstructure:"level"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("nse.base_url", nse.DefaultBaseURL)
	v.SetDefault("nse.user_agent", nse.DefaultUserAgent)
	v.SetDefault("nse.referer", nse.DefaultReferer)
	v.SetDefault("nse.timeout_sec", 60)
	v.SetDefault("nse.retry_count", 3)
	v.SetDefault("nse.retry_delay_sec", 5)
	v.SetDefault("download.workers", 2)
	v.SetDefault("download.rate_per_second", 1)
	v.SetDefault("symbols", []string{"NIFTY", "BANKNIFTY"})
	v.SetDefault("index_symbols", DefaultIndexSymbols())
	v.SetDefault("report.top_strikes", 10)
	v.SetDefault("report.levels", 3)
	v.SetDefault("report.weekly_expiry", "thursday")
	v.SetDefault("report.drop_untraded", true)
	v.SetDefault("report.partial_levels", false)
	v.SetDefault("report.formats", []string{string(FormatXLSX)})
	v.SetDefault("archive.directory", "data")
	v.SetDefault("output.directory", "EOD_Report")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.cache_ttl_sec", 900)
	v.SetDefault("server.zstd", true)
	v.SetDefault("logging.enabled", false)
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.level", "info")

	// Environment variable support
	v.SetEnvPrefix("MONEYFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Load config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("default")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// normalize upper-cases symbols. Viper lower-cases map keys, so lot size
// overrides need it too.
func (c *Config) normalize() {
	c.Symbols = upperAll(c.Symbols)
	c.IndexSymbols = upperAll(c.IndexSymbols)

	lots := make(map[string]int, len(c.LotSizes))
	for symbol, size := range c.LotSizes {
		lots[strings.ToUpper(strings.TrimSpace(symbol))] = size
	}
	c.LotSizes = lots

	formats := make([]string, 0, len(c.Report.Formats))
	for _, f := range c.Report.Formats {
		formats = append(formats, strings.ToLower(strings.TrimSpace(f)))
	}
	c.Report.Formats = formats
}

func (c *Config) Validate() error {
	if c.Download.Workers < 1 {
		return fmt.Errorf("workers must be >= 1")
	}
	if c.Download.RatePerSecond < 1 {
		return fmt.Errorf("rate_per_second must be >= 1")
	}
	if c.Archive.Directory == "" {
		return fmt.Errorf("archive.directory is required")
	}
	if c.Output.Directory == "" {
		return fmt.Errorf("output.directory is required")
	}
	if err := c.Server.validate(); err != nil {
		return err
	}
	return ValidateReportConfig(c.Symbols, c.LotSizes, c.Report)
}

func upperAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
