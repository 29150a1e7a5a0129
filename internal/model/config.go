package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// APIConfig holds settings for the TrueLog backend connection.
type APIConfig struct {
	// BaseURL is the root URL of the TrueLog REST API.
	BaseURL string `mapstructure:"base_url" yaml:"base_url" validate:"required,url"`

	// TimeoutSec is the per-request timeout in seconds.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec" validate:"gte=1"`
}

// NotificationsConfig holds notification polling preferences.
type NotificationsConfig struct {
	// PollIntervalSec is how often the unread counter is refreshed.
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec" validate:"gte=5"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API           APIConfig           `mapstructure:"api" yaml:"api"`
	Notifications NotificationsConfig `mapstructure:"notifications" yaml:"notifications"`
	Display       DisplayConfig       `mapstructure:"display" yaml:"display"`

	// DataDir is where the durable sqlite store and logs live.
	DataDir string `mapstructure:"data_dir" yaml:"data_dir" validate:"required"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/truelog/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "truelog", "config.yaml")
}

// defaultDataDir returns ~/.local/share/truelog, falling back to the
// working directory when the home directory cannot be resolved.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "truelog-data")
	}
	return filepath.Join(home, ".local", "share", "truelog")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		API: APIConfig{
			BaseURL:    "http://localhost:8080",
			TimeoutSec: 30,
		},
		Notifications: NotificationsConfig{
			PollIntervalSec: 30,
		},
		Display: DisplayConfig{
			Theme: "default",
		},
		DataDir: defaultDataDir(),
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration. The
// TRUELOG_API_URL environment variable overrides api.base_url in all cases.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	def := defaultAppConfig()
	v.SetDefault("api.base_url", def.API.BaseURL)
	v.SetDefault("api.timeout_sec", def.API.TimeoutSec)
	v.SetDefault("notifications.poll_interval_sec", def.Notifications.PollIntervalSec)
	v.SetDefault("display.theme", def.Display.Theme)
	v.SetDefault("data_dir", def.DataDir)

	if err := v.BindEnv("api.base_url", "TRUELOG_API_URL"); err != nil {
		return nil, fmt.Errorf("binding TRUELOG_API_URL: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return applyEnvAndValidate(v, def)
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return applyEnvAndValidate(v, def)
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// applyEnvAndValidate finishes loading when no config file exists: the env
// override still applies on top of the defaults.
func applyEnvAndValidate(v *viper.Viper, cfg *AppConfig) (*AppConfig, error) {
	if url := v.GetString("api.base_url"); url != "" {
		cfg.API.BaseURL = url
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration against its struct constraints.
func (c *AppConfig) Validate() error {
	return validator.New(validator.WithRequiredStructEnabled()).Struct(c)
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("api", cfg.API)
	v.Set("notifications", cfg.Notifications)
	v.Set("display", cfg.Display)
	v.Set("data_dir", cfg.DataDir)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
