package config

import (
	"errors"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var ErrMissingDBHost = errors.New("DB_HOST is not set")

type Config struct {
	DBHost        string `mapstructure:"db_host"`
	DBUser        string `mapstructure:"db_user"`
	DBPassword    string `mapstructure:"db_password"`
	DBName        string `mapstructure:"db_name"`
	DBPort        string `mapstructure:"db_port"`
	DBSSLMode     string `mapstructure:"db_sslmode"`
	AppPort       string `mapstructure:"app_port"`
	AppEnv        string `mapstructure:"app_env"`
	LogLevel      string `mapstructure:"log_level"`
	JWTSecret     string `mapstructure:"jwt_secret"`
	InternalKey   string `mapstructure:"internal_secret_key"`
	MigrationsDir string `mapstructure:"migrations_dir"`
}

var defaults = map[string]string{
	"db_host":             "",
	"db_user":             "postgres",
	"db_password":         "",
	"db_name":             "pos",
	"db_port":             "5432",
	"db_sslmode":          "disable",
	"app_port":            "8080",
	"app_env":             "development",
	"log_level":           "info",
	"jwt_secret":          "",
	"internal_secret_key": "",
	"migrations_dir":      "./migrations",
}

// LoadConfig reads .env (when present) and the process environment.
// Keys map to upper-case env vars, e.g. db_host -> DB_HOST.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.DBHost == "" {
		return nil, ErrMissingDBHost
	}

	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
