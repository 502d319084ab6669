/**
 * @description
 * This file handles the configuration management for the retention-service.
 * It uses the 'viper' library to load configuration from environment variables,
 * providing a centralized and consistent way to manage application settings.
 */
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	ServerPort  string `mapstructure:"SERVER_PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// WhopAPIKey may be empty: the simulation path never needs it, and the
	// live redemption path fails with a configuration error at call time.
	WhopAPIKey string `mapstructure:"WHOP_API_KEY"`
	WhopAPIURL string `mapstructure:"WHOP_API_URL"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (config Config, err error) {
	viper.SetDefault("SERVER_PORT", "8086")
	viper.SetDefault("WHOP_API_URL", "https://api.whop.com")
	viper.AutomaticEnv()

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("WHOP_API_KEY")
	_ = viper.BindEnv("WHOP_API_URL")

	if err = viper.Unmarshal(&config); err != nil {
		return
	}

	if config.DatabaseURL == "" {
		err = fmt.Errorf("DATABASE_URL is required")
	}
	return
}
