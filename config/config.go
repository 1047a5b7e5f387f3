package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/careaxis/clinic-api/internal/email"
	"github.com/careaxis/clinic-api/internal/middleware"
	"github.com/careaxis/clinic-api/internal/repository/postgres"
	"github.com/careaxis/clinic-api/pkg/auth"
	messagingredis "github.com/careaxis/clinic-api/pkg/messaging/redis"
)

type Config struct {
	Server    ServerConfig               `mapstructure:"server"`
	Database  postgres.Config            `mapstructure:"database"`
	JWT       JWTConfig                  `mapstructure:"jwt"`
	Redis     messagingredis.Config      `mapstructure:"redis"`
	Email     email.Config               `mapstructure:"email"`
	RateLimit middleware.RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig                  `mapstructure:"log"`
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

type JWTConfig struct {
	Secret             string `mapstructure:"secret"`
	RefreshSecret      string `mapstructure:"refresh_secret"`
	ExpiryMinutes      int    `mapstructure:"expiry_minutes"`
	RefreshExpiryHours int    `mapstructure:"refresh_expiry_hours"`
}

// AuthConfig converts the file representation into the token service config.
func (c JWTConfig) AuthConfig() auth.Config {
	return auth.Config{
		Secret:        c.Secret,
		RefreshSecret: c.RefreshSecret,
		AccessExpiry:  time.Duration(c.ExpiryMinutes) * time.Minute,
		RefreshExpiry: time.Duration(c.RefreshExpiryHours) * time.Hour,
	}
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetEnvPrefix("CLINIC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// A missing file is fine: environment variables cover everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.timeout_seconds", 30)

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.name", "clinic")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.migrations_path", "migrations")

	viper.SetDefault("jwt.expiry_minutes", 15)
	viper.SetDefault("jwt.refresh_expiry_hours", 168)

	viper.SetDefault("redis.url", "redis://localhost:6379")

	viper.SetDefault("rate_limit.requests_per_second", 20)
	viper.SetDefault("rate_limit.burst", 40)

	viper.SetDefault("log.level", "info")
}
