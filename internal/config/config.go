/**
 * @description
 * This package handles the configuration management for the service. It uses the
 * Viper library to read configuration from environment variables, providing a
 * centralized and straightforward way to manage application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the funding-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort                   string `mapstructure:"SERVER_PORT"`
	DatabaseURL                  string `mapstructure:"DATABASE_URL"`
	RedisURL                     string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix         string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	RabbitMQURL                  string `mapstructure:"RABBITMQ_URL"`
	AuthJWKSURL                  string `mapstructure:"AUTH_JWKS_URL"`
	CloudinaryURL                string `mapstructure:"CLOUDINARY_URL"`
	CloudinaryUploadFolder       string `mapstructure:"CLOUDINARY_UPLOAD_FOLDER"`
	WithdrawalRateLimitPerMinute int    `mapstructure:"WITHDRAWAL_RATE_LIMIT_PER_MINUTE"`
	DefaultWithdrawalCurrency    string `mapstructure:"DEFAULT_WITHDRAWAL_CURRENCY"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "funding:rate_limit")
	viper.SetDefault("CLOUDINARY_UPLOAD_FOLDER", "funding/proofs")
	viper.SetDefault("WITHDRAWAL_RATE_LIMIT_PER_MINUTE", 10)
	viper.SetDefault("DEFAULT_WITHDRAWAL_CURRENCY", "USD")

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL", "REDIS_URL", "FUNDING_REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("AUTH_JWKS_URL")
	_ = viper.BindEnv("CLOUDINARY_URL")
	_ = viper.BindEnv("CLOUDINARY_UPLOAD_FOLDER")
	_ = viper.BindEnv("WITHDRAWAL_RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("DEFAULT_WITHDRAWAL_CURRENCY")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		// If the config file is not found, we can ignore the error.
		// For other errors, we should return them.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisRateLimitPrefix = strings.TrimSpace(config.RedisRateLimitPrefix)
	if config.RedisRateLimitPrefix == "" {
		config.RedisRateLimitPrefix = "funding:rate_limit"
	}
	config.CloudinaryURL = strings.TrimSpace(config.CloudinaryURL)
	config.CloudinaryUploadFolder = strings.TrimSpace(config.CloudinaryUploadFolder)
	if config.CloudinaryUploadFolder == "" {
		config.CloudinaryUploadFolder = "funding/proofs"
	}

	if config.WithdrawalRateLimitPerMinute < 0 {
		log.Printf("level=warn component=config msg=\"negative withdrawal rate limit configured; coercing to zero\" limit=%d", config.WithdrawalRateLimitPerMinute)
		config.WithdrawalRateLimitPerMinute = 0
	}

	config.DefaultWithdrawalCurrency = strings.ToUpper(strings.TrimSpace(config.DefaultWithdrawalCurrency))
	if config.DefaultWithdrawalCurrency == "" {
		config.DefaultWithdrawalCurrency = "USD"
	}

	return
}
