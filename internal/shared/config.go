package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API     APIConfig     `toml:"api"`
	Session SessionConfig `toml:"session"`
}

// APIConfig contains the ILAS backend location and endpoint paths.
type APIConfig struct {
	BaseURL        string  `toml:"base_url"`
	LoginPath      string  `toml:"login_path"`
	RegisterPath   string  `toml:"register_path"`
	MePath         string  `toml:"me_path"`
	RefreshPath    string  `toml:"refresh_path"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	RateLimit      float64 `toml:"rate_limit"` // requests per second, 0 disables throttling
}

// SessionConfig contains session persistence settings.
type SessionConfig struct {
	Path           string `toml:"path"`
	PollIntervalMS int    `toml:"poll_interval_ms"`
	MaxOpenConns   int    `toml:"max_open_conns"`
	MaxIdleConns   int    `toml:"max_idle_conns"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path,
// then applies environment overrides via [ApplyEnv]. A .env file in the working
// directory is loaded first when present.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingConfig, err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	ApplyEnv(&config)
	return &config, nil
}

// ApplyEnv overrides config fields from the environment. Recognized variables:
// ILAS_API_BASE, ILAS_SESSION_PATH. Values from a .env file (if one exists)
// are loaded without clobbering variables already set in the process.
func ApplyEnv(config *Config) {
	_ = godotenv.Load()

	if base := os.Getenv("ILAS_API_BASE"); base != "" {
		config.API.BaseURL = base
	}
	if path := os.Getenv("ILAS_SESSION_PATH"); path != "" {
		config.Session.Path = path
	}
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
