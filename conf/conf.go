// Package conf loads the process configuration from a yaml file and the
// environment. Environment variables use the TENANTGUARD_ prefix with
// underscores for nesting, e.g. TENANTGUARD_SERVER_PORT.
package conf

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/tenantguard/tenantguard/internal/log"
	"github.com/tenantguard/tenantguard/internal/metrics"
	"github.com/tenantguard/tenantguard/internal/policy"
	"github.com/tenantguard/tenantguard/internal/securedb"
	"github.com/tenantguard/tenantguard/internal/server"
	"github.com/tenantguard/tenantguard/internal/server/stats"
)

type Config struct {
	APIServer server.Config   `conf:"server" yaml:"server" json:"server"`
	DB        securedb.Config `conf:"db" yaml:"db" json:"db"`
	Log       log.Config      `conf:"log" yaml:"log" json:"log"`
	Policy    policy.Config   `conf:"policy" yaml:"policy" json:"policy"`
	Metrics   metrics.Config  `conf:"metrics" yaml:"metrics" json:"metrics"`
	Stats     stats.Config    `conf:"stats" yaml:"stats" json:"stats"`
}

// Load reads config.yaml from the working directory, /etc/tenantguard, or
// $HOME/.tenantguard, then applies environment overrides. A missing file is
// not an error; defaults plus environment are a valid configuration.
func Load() (Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/tenantguard")
	v.AddConfigPath("$HOME/.tenantguard")

	setDefaults(v)

	v.SetEnvPrefix("TENANTGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("conf: read config: %w", err)
		}
	}

	var cfg Config

	err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "conf"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	})
	if err != nil {
		return Config{}, fmt.Errorf("conf: unmarshal config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.name", "tenantguard")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.request_timeout", "30s")

	v.SetDefault("db.dialect", "sqlite3")
	v.SetDefault("db.dsn", "file:tenantguard.db?cache=shared&_fk=1")

	v.SetDefault("log.name", "tenantguard")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("policy.mode", "static")

	v.SetDefault("metrics.interval", "30s")

	v.SetDefault("stats.cron", "* * * * *")
}
