package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env             string        `mapstructure:"ENV"`
	Port            string        `mapstructure:"PORT"`
	DatabaseURL     string        `mapstructure:"DATABASE_URL"`
	RedisURL        string        `mapstructure:"REDIS_URL"`
	PredictURL      string        `mapstructure:"PREDICT_URL"`
	AdminKey        string        `mapstructure:"ADMIN_KEY"`
	CORSAllowed     string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	QueryTimeout    time.Duration `mapstructure:"QUERY_TIMEOUT"`
	CacheTTL        time.Duration `mapstructure:"CACHE_TTL"`
	WarehouseSchema string        `mapstructure:"WAREHOUSE_SCHEMA"`
	MasterTable     string        `mapstructure:"MASTER_INSIGHT_TABLE"`
	DummyTable      string        `mapstructure:"DUMMY_INSIGHT_TABLE"`
	Debug           bool          `mapstructure:"DEBUG"`
	OwnProductTerms string        `mapstructure:"OWN_PRODUCT_TERMS"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("QUERY_TIMEOUT", "30s")
	v.SetDefault("CACHE_TTL", "10m")
	v.SetDefault("WAREHOUSE_SCHEMA", "voicelens")
	v.SetDefault("MASTER_INSIGHT_TABLE", "master_insight")
	v.SetDefault("DUMMY_INSIGHT_TABLE", "dummy_insight")
	v.SetDefault("OWN_PRODUCT_TERMS", "voicelens")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// InsightTable returns the table name the dashboard reads from. The dummy
// table is only used when DEBUG is set; it falls back to the master table
// when no dummy is configured, so the result is never empty.
func (c Config) InsightTable() string {
	if c.Debug && c.DummyTable != "" {
		return c.DummyTable
	}
	return c.MasterTable
}

// OwnTerms returns the lower-cased exclusion set for competitor extraction.
func (c Config) OwnTerms() []string {
	var out []string
	for _, t := range strings.Split(c.OwnProductTerms, ",") {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
