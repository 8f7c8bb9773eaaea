package config

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

type Server struct {
	Addr string `mapstructure:"addr"`
}

type Mongo struct {
	URI      string        `mapstructure:"uri"`
	Database string        `mapstructure:"database"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type Lobby struct {
	QueueSize   int `mapstructure:"queue_size"`
	MailboxSize int `mapstructure:"mailbox_size"`
}

type Telemetry struct {
	// ISODates switches daily-log dates to YYYY-MM-DD so range queries
	// sort in calendar order. Off by default for wire compatibility
	// with the historical D-M-YYYY documents.
	ISODates bool `mapstructure:"iso_dates"`
}

type Log struct {
	Level string `mapstructure:"level"`
}

type Config struct {
	Server    Server    `mapstructure:"server"`
	Mongo     Mongo     `mapstructure:"mongo"`
	Lobby     Lobby     `mapstructure:"lobby"`
	Telemetry Telemetry `mapstructure:"telemetry"`
	Log       Log       `mapstructure:"log"`
}

// Load reads defaults, an optional config.yaml and ALPADRIVE_* env
// overrides. The file is watched so operators can see (in the logs)
// that a reload was picked up; running components keep the values they
// were built with.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.addr", ":7878")
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "alpadrive")
	v.SetDefault("mongo.timeout", 10*time.Second)
	v.SetDefault("lobby.queue_size", 1024)
	v.SetDefault("lobby.mailbox_size", 64)
	v.SetDefault("telemetry.iso_dates", false)
	v.SetDefault("log.level", "info")

	v.SetEnvPrefix("ALPADRIVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/alpadrive")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	} else {
		v.OnConfigChange(func(e fsnotify.Event) {
			slog.Info("config file changed", "file", e.Name, "op", e.Op.String())
		})
		v.WatchConfig()
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
