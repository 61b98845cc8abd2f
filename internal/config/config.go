package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	DB        DBConfig        `mapstructure:"db"`
	Data      DataConfig      `mapstructure:"data"`
	Artifacts ArtifactsConfig `mapstructure:"artifacts"`
	Reload    ReloadConfig    `mapstructure:"reload"`
	Train     TrainConfig     `mapstructure:"train"`
}

type ServerConfig struct {
	HTTPAddr     string  `mapstructure:"http_addr"`
	PredictRPS   float64 `mapstructure:"predict_rps"`
	PredictBurst int     `mapstructure:"predict_burst"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
	Output            string `mapstructure:"output"`
}

// DBConfig points at the optional Postgres match store. An empty DSN means
// match history is read from CSV files only.
type DBConfig struct {
	DSN  string `mapstructure:"dsn"`
	Save bool   `mapstructure:"save"`
}

type DataConfig struct {
	Dir string `mapstructure:"dir"`
}

type ArtifactsConfig struct {
	Dir string `mapstructure:"dir"`
}

// ReloadConfig drives snapshot reloads: on a cron schedule, on artifact file
// changes, or both.
type ReloadConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Schedule string        `mapstructure:"schedule"`
	Watch    bool          `mapstructure:"watch"`
	Debounce time.Duration `mapstructure:"debounce"`
}

type TrainConfig struct {
	TestFraction float64 `mapstructure:"test_fraction"`
	Seed         int64   `mapstructure:"seed"`
	Iterations   int     `mapstructure:"iterations"`
	LearningRate float64 `mapstructure:"learning_rate"`
	L2           float64 `mapstructure:"l2"`
}

// Load reads path (YAML) on top of the defaults; MP_-prefixed environment
// variables override both. An empty path loads defaults and environment only.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.predict_rps", 0)
	v.SetDefault("server.predict_burst", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("log.output", "stdout")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.save", false)
	v.SetDefault("data.dir", "data")
	v.SetDefault("artifacts.dir", "models")
	v.SetDefault("reload.enabled", false)
	v.SetDefault("reload.schedule", "0 */15 * * * *")
	v.SetDefault("reload.watch", false)
	v.SetDefault("reload.debounce", "2s")
	v.SetDefault("train.test_fraction", 0.2)
	v.SetDefault("train.seed", 42)
	v.SetDefault("train.iterations", 500)
	v.SetDefault("train.learning_rate", 0.1)
	v.SetDefault("train.l2", 1e-3)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
