package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"dropsense/internal/errors"
	"dropsense/internal/log"
	"dropsense/pkg/types"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the config file
const (
	EnvConfig = "DROPSENSE_CONFIG"
	EnvHelper = "DROPSENSE_HELPER"
	EnvDebug  = "DROPSENSE_DEBUG"
)

// DefaultReadyTimeout is how long the host waits for the helper's ready event
const DefaultReadyTimeout = 2 * time.Second

// Config represents the application configuration structure.
// It describes the helper process, the detection surface, the desktop drop
// source and the ambient logging and server settings.
type Config struct {
	Helper struct {
		Command      string        `yaml:"command"`       // Helper executable
		Args         []string      `yaml:"args"`          // Helper arguments
		ReadyTimeout time.Duration `yaml:"ready_timeout"` // Wait for the ready event
	} `yaml:"helper"`
	Surface struct {
		Screen struct {
			Width  float64 `yaml:"width"`
			Height float64 `yaml:"height"`
		} `yaml:"screen"`
		FileManagerBundleIDs []string `yaml:"file_manager_bundle_ids"` // Frontmost apps that count as the desktop
		FileManagerOwners    []string `yaml:"file_manager_owners"`     // Window owners that count as the desktop
	} `yaml:"surface"`
	Watch struct {
		Directories []string `yaml:"directories"` // Drop targets such as ~/Desktop
	} `yaml:"watch"`
	Log struct {
		Debug bool   `yaml:"debug"`
		JSON  bool   `yaml:"json"`
		File  string `yaml:"file"`
	} `yaml:"log"`
	Server struct {
		Address string `yaml:"address"`
	} `yaml:"server"`
}

// DefaultPath returns ~/.config/dropsense/config.yaml
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "dropsense", "config.yaml"), nil
}

// LoadConfig loads configuration from the default location, or from the
// file named by DROPSENSE_CONFIG. A .env file in the working directory is
// read first when present.
func LoadConfig() (*Config, error) {
	if err := LoadEnvFile(".env"); err != nil {
		log.LogWithError(err).Warn("Ignoring .env file")
	}

	configPath := os.Getenv(EnvConfig)
	if configPath == "" {
		var err error
		configPath, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return LoadConfigFile(configPath)
}

// LoadEnvFile adds the variables in path to the environment without
// overriding ones already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.NewConfigError("error reading env file", path, errors.InvalidConfig, err)
	}
	return nil
}

// LoadConfigFile loads configuration from a specific file path.
// If the file doesn't exist, returns default configuration.
func LoadConfigFile(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.NewConfigError("error reading config file", path, errors.InvalidConfig, err)
	}

	if err == nil {
		var tempCfg Config
		if err := yaml.Unmarshal(data, &tempCfg); err != nil {
			return nil, errors.NewConfigError("error parsing config file", path, errors.InvalidConfig, err)
		}
		cfg.merge(&tempCfg)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	return cfg, nil
}

// merge copies the fields set in other over the defaults
func (c *Config) merge(other *Config) {
	if other.Helper.Command != "" {
		c.Helper.Command = other.Helper.Command
	}
	if len(other.Helper.Args) > 0 {
		c.Helper.Args = other.Helper.Args
	}
	if other.Helper.ReadyTimeout != 0 {
		c.Helper.ReadyTimeout = other.Helper.ReadyTimeout
	}

	if other.Surface.Screen.Width != 0 {
		c.Surface.Screen.Width = other.Surface.Screen.Width
	}
	if other.Surface.Screen.Height != 0 {
		c.Surface.Screen.Height = other.Surface.Screen.Height
	}
	if len(other.Surface.FileManagerBundleIDs) > 0 {
		c.Surface.FileManagerBundleIDs = other.Surface.FileManagerBundleIDs
	}
	if len(other.Surface.FileManagerOwners) > 0 {
		c.Surface.FileManagerOwners = other.Surface.FileManagerOwners
	}

	if len(other.Watch.Directories) > 0 {
		c.Watch.Directories = other.Watch.Directories
	}

	c.Log.Debug = other.Log.Debug
	c.Log.JSON = other.Log.JSON
	if other.Log.File != "" {
		c.Log.File = other.Log.File
	}

	if other.Server.Address != "" {
		c.Server.Address = other.Server.Address
	}
}

func (c *Config) applyEnv() error {
	if helper := os.Getenv(EnvHelper); helper != "" {
		c.Helper.Command = helper
	}
	if debug := os.Getenv(EnvDebug); debug != "" {
		v, err := strconv.ParseBool(debug)
		if err != nil {
			return errors.NewConfigError("invalid boolean", EnvDebug, errors.InvalidConfig, err)
		}
		c.Log.Debug = v
	}
	return nil
}

// defaultConfig returns the default configuration. The helper defaults to
// this binary's own helper subcommand.
func defaultConfig() *Config {
	cfg := &Config{}

	cfg.Helper.Command = "dropsense"
	if exe, err := os.Executable(); err == nil {
		cfg.Helper.Command = exe
	}
	cfg.Helper.Args = []string{"helper"}
	cfg.Helper.ReadyTimeout = DefaultReadyTimeout

	cfg.Surface.Screen.Width = 1440
	cfg.Surface.Screen.Height = 900
	cfg.Surface.FileManagerBundleIDs = []string{"com.apple.finder"}
	cfg.Surface.FileManagerOwners = []string{"Finder"}

	cfg.Watch.Directories = []string{}

	cfg.Server.Address = "127.0.0.1:8765"

	return cfg
}

// SaveConfig saves the configuration to the specified file.
// It creates parent directories if they don't exist.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewFileError("failed to create config directory", filepath.Dir(path), errors.InvalidPath, err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.NewFileError("failed to write config file", path, errors.InvalidPath, err)
	}

	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.NewConfigError("nil config", "", errors.InvalidConfig, nil)
	}

	if c.Helper.Command == "" {
		return errors.NewConfigError("helper command is required", "helper.command", errors.InvalidConfig, nil)
	}
	if c.Helper.ReadyTimeout < 0 {
		return errors.NewConfigError("ready timeout must be >= 0", "helper.ready_timeout", errors.InvalidConfig, nil)
	}

	if c.Surface.Screen.Width <= 0 || c.Surface.Screen.Height <= 0 {
		return errors.NewConfigError("screen size must be positive", "surface.screen", errors.InvalidConfig, nil)
	}

	for i, dir := range c.Watch.Directories {
		if dir == "" {
			return errors.NewConfigError("watch directory "+strconv.Itoa(i)+" is empty", "watch.directories", errors.InvalidConfig, nil)
		}
	}

	return nil
}

// ScreenRect returns the configured screen frame with its origin at zero
func (c *Config) ScreenRect() types.Rect {
	return types.Rect{Width: c.Surface.Screen.Width, Height: c.Surface.Screen.Height}
}

// WatchDirectories returns the watch directories with a leading ~ expanded
func (c *Config) WatchDirectories() []string {
	home, _ := os.UserHomeDir()
	dirs := make([]string, 0, len(c.Watch.Directories))
	for _, dir := range c.Watch.Directories {
		if home != "" && (dir == "~" || len(dir) > 1 && dir[:2] == "~/") {
			dir = filepath.Join(home, dir[1:])
		}
		dirs = append(dirs, dir)
	}
	return dirs
}

// New creates a new configuration instance with default values.
func New() *Config {
	return defaultConfig()
}
