package config

import (
	"os"
	"time"

	"github.com/Veraticus/coorte/internal/gateway"
	"github.com/spf13/viper"
)

// LoadBackendConfig loads the analysis backend settings.
// It follows this precedence:
// 1. Viper configuration (from config file or COORTE_ env vars)
// 2. Direct environment variable COORTE_API_URL
// 3. Default values
func LoadBackendConfig() (*gateway.Config, error) {
	config := gateway.DefaultConfig()

	if v := viper.GetString("backend.url"); v != "" {
		config.BaseURL = v
	} else if v := os.Getenv("COORTE_API_URL"); v != "" {
		config.BaseURL = v
	}
	if v := viper.GetDuration("backend.timeout"); v > 0 {
		config.Timeout = v
	}
	if v := viper.GetString("backend.round"); v != "" {
		config.Round = v
	}
	if v := viper.GetString("backend.token"); v != "" {
		config.Token = v
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// DatabasePath returns the expanded local database path.
func DatabasePath() string {
	path := viper.GetString("database.path")
	if path == "" {
		path = DefaultDatabasePath
	}
	return ExpandPath(path)
}

// SetDefaults registers default values for every known key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("backend.url", gateway.DefaultBaseURL)
	v.SetDefault("backend.timeout", 120*time.Second)
	v.SetDefault("backend.round", "R1")
	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}
