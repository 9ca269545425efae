// Package config loads and validates the server configuration from files,
// environment, and flags.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	stremerhttp "github.com/stremer/stremerd/http"
)

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct.
type Config struct {
	Server  ServerConfig           `mapstructure:"server"`
	Auth    AuthConfig             `mapstructure:"auth"`
	Storage StorageConfig          `mapstructure:"storage"`
	Camera  CameraConfig           `mapstructure:"camera"`
	CORS    stremerhttp.CORSConfig `mapstructure:"cors"`
	Log     LogConfig              `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port int `mapstructure:"port" validate:"required,min=1,max=65535"`
}

// AuthConfig holds the credential pair. With Enabled false the server is
// open to the LAN; with it true a login is required before any file or
// camera endpoint answers.
type AuthConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Username string `mapstructure:"username" validate:"required_with=Enabled"`
	Password string `mapstructure:"password"`
}

// StorageConfig selects the backend variant. A non-empty BasePath means the
// process holds broad storage access and uses the direct-path backend;
// otherwise the permission-tree backend serves the roots persisted in the
// database.
type StorageConfig struct {
	BasePath string `mapstructure:"base_path"`
	Database string `mapstructure:"database" validate:"required"`
}

// CameraConfig holds the runtime camera toggle and the capture command for
// the MJPEG pipe device. Command arguments may reference {exposure} and
// {sharpness}.
type CameraConfig struct {
	Enabled      bool     `mapstructure:"enabled"`
	BackCommand  []string `mapstructure:"back_command"`
	FrontCommand []string `mapstructure:"front_command"`
	ExposureMin  int      `mapstructure:"exposure_min"`
	ExposureMax  int      `mapstructure:"exposure_max"`
}

// LogConfig holds logging configuration. Format selects the handler: "text"
// for colorized terminal output, "json" for machine-readable lines.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=text json"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"port":      "server.port",
	"base-path": "storage.base_path",
	"db":        "storage.database",
	"camera":    "camera.enabled",
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)

	v.SetDefault("auth.enabled", false)

	v.SetDefault("storage.base_path", "")
	v.SetDefault("storage.database", "stremerd.db")

	v.SetDefault("camera.enabled", false)
	v.SetDefault("camera.exposure_min", -12)
	v.SetDefault("camera.exposure_max", 12)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults.
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	v.SetEnvPrefix("STREMER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		bindFlags(v, flags)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
