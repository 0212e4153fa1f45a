// Package config provides command line and configuration file handling
// for prometheus-dyson.
package config

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/nickrw/prometheus-dyson/internal/account"
)

// Config holds the command line settings.
type Config struct {
	Port              int
	ConfigFile        string
	LogLevel          string
	OnlyActiveDevices bool
}

var validLogLevels = []string{"DEBUG", "INFO", "WARNING", "ERROR"}

// Load parses the command line arguments (excluding the program name).
// Value validation is left to Validate.
func Load(args []string) (Config, error) {
	fs := pflag.NewFlagSet("prometheus-dyson", pflag.ContinueOnError)

	cfg := Config{}
	fs.IntVar(&cfg.Port, "port", 8091, "HTTP server port")
	fs.StringVar(&cfg.ConfigFile, "config", "config.ini", "Configuration file (INI format)")
	fs.StringVar(&cfg.LogLevel, "log_level", "INFO", "Logging level (DEBUG, INFO, WARNING, ERROR)")
	fs.BoolVar(&cfg.OnlyActiveDevices, "only_monitor_active_devices", true,
		"Only monitor devices marked as active in the Dyson API")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the parsed flags for consistency.
func (cfg Config) Validate() error {
	if !contains(validLogLevels, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s, valid options: %v", cfg.LogLevel, validLogLevels)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if cfg.ConfigFile == "" {
		return fmt.Errorf("config file path cannot be empty")
	}
	return nil
}

// Credentials is the content of the configuration file: the account
// credentials from the [Dyson Link] section and optional per-serial MQTT
// host overrides from the [Hosts] section.
type Credentials struct {
	Account account.Credentials
	Hosts   map[string]string
}

// ReadCredentials loads and validates the INI configuration file. A
// missing file or missing required key is an error; the caller treats it
// as fatal.
func ReadCredentials(path string) (Credentials, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("ini")

	if err := v.ReadInConfig(); err != nil {
		return Credentials{}, fmt.Errorf("could not read %q: %w", path, err)
	}

	creds := Credentials{
		Account: account.Credentials{
			Username: v.GetString("dyson link.username"),
			Password: v.GetString("dyson link.password"),
			Country:  v.GetString("dyson link.country"),
		},
		Hosts: v.GetStringMapString("hosts"),
	}

	required := map[string]string{
		"username": creds.Account.Username,
		"password": creds.Account.Password,
		"country":  creds.Account.Country,
	}
	for _, key := range []string{"username", "password", "country"} {
		if required[key] == "" {
			return Credentials{}, fmt.Errorf("required key missing in %q: [Dyson Link] %s", path, key)
		}
	}
	return creds, nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
