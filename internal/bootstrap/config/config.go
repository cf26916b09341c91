package config

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"verigate/internal/bootstrap/logging"
	"verigate/internal/errs"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Webhook   WebhookConfig   `mapstructure:"webhook"`
	Processor ProcessorConfig `mapstructure:"processor"`
	GitHub    GitHubConfig    `mapstructure:"github"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Projects  ProjectsConfig  `mapstructure:"projects"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type WebhookConfig struct {
	Addr   string `mapstructure:"addr"`
	Secret string `mapstructure:"secret"`
}

type ProcessorConfig struct {
	IntervalSeconds int `mapstructure:"interval_seconds"`
	MaxConcurrent   int `mapstructure:"max_concurrent"`
	BatchSize       int `mapstructure:"batch_size"`
}

// GitHubConfig selects the publisher auth mode: a personal access token, or a
// GitHub App installation when AppID/InstallationID/PrivateKeyFile are set.
type GitHubConfig struct {
	Token          string `mapstructure:"token"`
	AppID          int64  `mapstructure:"app_id"`
	InstallationID int64  `mapstructure:"installation_id"`
	PrivateKeyFile string `mapstructure:"private_key_file"`
	BaseURL        string `mapstructure:"base_url"`
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

type ProjectsConfig struct {
	File string `mapstructure:"file"`
}

func Load(ctx context.Context, configFile string) (Config, error) {
	if ctx == nil {
		return Config{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Config{}, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.config"))

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("VG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			// Keep default and env-backed config when no file is provided.
			logging.Warn(logCtx, "config file not found, fallback to defaults and env")
		} else {
			return Config{}, errs.Wrap(err, "read config")
		}
	} else {
		logging.Info(logCtx, "using config file", slog.String("path", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errs.Wrap(err, "unmarshal config")
	}

	if cfg.Database.DSN == "" {
		return Config{}, errors.New("database.dsn is required")
	}
	if cfg.Processor.IntervalSeconds <= 0 {
		return Config{}, errors.New("processor.interval_seconds must be positive")
	}
	if cfg.Processor.MaxConcurrent <= 0 {
		return Config{}, errors.New("processor.max_concurrent must be positive")
	}

	logging.Info(
		logCtx,
		"config loaded",
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
		slog.String("database_driver", cfg.Database.Driver),
		slog.String("projects_file", cfg.Projects.File),
	)

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "verigate")
	v.SetDefault("app.env", "local")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", ".verigate/state/verigate.sqlite")
	v.SetDefault("webhook.addr", ":8090")
	v.SetDefault("processor.interval_seconds", 30)
	v.SetDefault("processor.max_concurrent", 3)
	v.SetDefault("processor.batch_size", 10)
	v.SetDefault("nats.subject", "verigate.verdicts")
	v.SetDefault("projects.file", "configs/projects.toml")
}
