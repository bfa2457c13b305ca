// Package config loads binary configuration with Viper.
//
// Values come from a YAML file, a .env file (godotenv) and the process
// environment, in increasing precedence. Environment variables are named
// after the mapstructure key path:
//
//	var cfg AppConfig
//	err := config.Load("consultctl", &cfg, config.WithConfigFile(path))
//	// api.base_url  <- API_BASE_URL
//	// api.timeout   <- API_TIMEOUT ("10s")
package config
