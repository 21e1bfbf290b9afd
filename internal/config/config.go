package config

import (
	"errors"
	"io/fs"
	"net/url"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// FallbackAPIBase is used when no base URL is configured.
const FallbackAPIBase = "http://127.0.0.1:5000"

// Config holds the full application configuration.
type Config struct {
	API    APIConfig    `yaml:"api" mapstructure:"api"`
	Device DeviceConfig `yaml:"device" mapstructure:"device"`
	Output OutputConfig `yaml:"output" mapstructure:"output"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// APIConfig points at the scan analysis service.
type APIConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// DeviceConfig configures the local stand-ins for device capabilities.
type DeviceConfig struct {
	CameraSource string  `yaml:"camera_source" mapstructure:"camera_source"`
	LibraryDir   string  `yaml:"library_dir" mapstructure:"library_dir"`
	ScanRate     float64 `yaml:"scan_rate" mapstructure:"scan_rate"`
	ScanBurst    int     `yaml:"scan_burst" mapstructure:"scan_burst"`
}

// OutputConfig configures result rendering.
type OutputConfig struct {
	Format string `yaml:"format" mapstructure:"format"`
	Color  string `yaml:"color" mapstructure:"color"`
	Raw    bool   `yaml:"raw" mapstructure:"raw"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, config file and environment.
func Load() (*Config, error) {
	// .env is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("BITE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("api.base_url", "BITE_API_BASE_URL", "BITE_API_BASE"); err != nil {
		return nil, eris.Wrap(err, "config: bind api base env")
	}

	// Defaults
	v.SetDefault("api.base_url", FallbackAPIBase)
	v.SetDefault("device.camera_source", "")
	v.SetDefault("device.library_dir", "")
	v.SetDefault("device.scan_rate", 4.0)
	v.SetDefault("device.scan_burst", 1)
	v.SetDefault("output.format", "text")
	v.SetDefault("output.color", "auto")
	v.SetDefault("output.raw", false)
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	cfg.API.BaseURL = WithScheme(cfg.API.BaseURL)

	return &cfg, nil
}

// WithScheme returns base with an http:// scheme when it has none, and
// the fallback when it is blank.
func WithScheme(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return FallbackAPIBase
	}
	if strings.HasPrefix(base, "http") {
		return base
	}
	return "http://" + base
}

// Validate checks the settings a command needs. Mode is one of "api",
// "scan", "label" or "render".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "api", "scan", "label":
		u, err := url.Parse(c.API.BaseURL)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			errs = append(errs, "api.base_url must be an http(s) URL")
		}
	case "render":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if mode == "scan" && c.Device.ScanRate < 0 {
		errs = append(errs, "device.scan_rate must be >= 0")
	}
	if mode == "label" && c.Device.CameraSource == "" && c.Device.LibraryDir == "" {
		errs = append(errs, "device.camera_source or device.library_dir is required")
	}

	switch c.Output.Format {
	case "", "text", "json", "yaml":
	default:
		errs = append(errs, "output.format must be text, json or yaml")
	}
	switch c.Output.Color {
	case "", "auto", "always", "never":
	default:
		errs = append(errs, "output.color must be auto, always or never")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
