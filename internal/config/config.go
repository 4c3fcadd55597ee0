package config

import (
	"sync"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig
	Mongo  MongoConfig
	Redis  RedisConfig
}

var (
	configInstance *Config
	once           sync.Once
)

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type MongoConfig struct {
	URI      string
	Database string
}

type RedisConfig struct {
	// URL enables cross-instance room fan-out; empty keeps broadcasts
	// in-process.
	URL        string
	MaxRetries int
	PoolSize   int
}

func LoadConfig() (*Config, error) {
	once.Do(func() {
		viper.SetDefault("RESPONSE_PORT", "8080")
		viper.SetDefault("RESPONSE_READ_TIMEOUT", 30*time.Second)
		viper.SetDefault("RESPONSE_WRITE_TIMEOUT", 30*time.Second)
		viper.SetDefault("RESPONSE_IDLE_TIMEOUT", 60*time.Second)
		viper.SetDefault("MONGO_URI", "mongodb://localhost:27017")
		viper.SetDefault("MONGO_DB", "response")
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_MAX_RETRIES", 3)
		viper.SetDefault("REDIS_POOL_SIZE", 100)
		viper.AutomaticEnv()

		configInstance = &Config{
			Server: ServerConfig{
				Host:         viper.GetString("RESPONSE_HOST"),
				Port:         viper.GetString("RESPONSE_PORT"),
				ReadTimeout:  viper.GetDuration("RESPONSE_READ_TIMEOUT"),
				WriteTimeout: viper.GetDuration("RESPONSE_WRITE_TIMEOUT"),
				IdleTimeout:  viper.GetDuration("RESPONSE_IDLE_TIMEOUT"),
			},
			Mongo: MongoConfig{
				URI:      viper.GetString("MONGO_URI"),
				Database: viper.GetString("MONGO_DB"),
			},
			Redis: RedisConfig{
				URL:        viper.GetString("REDIS_URL"),
				MaxRetries: viper.GetInt("REDIS_MAX_RETRIES"),
				PoolSize:   viper.GetInt("REDIS_POOL_SIZE"),
			},
		}
	})

	return configInstance, nil
}
