// Package config holds the toolchain's tunable constants, loaded from an
// optional TOML file with built-in defaults. Config.Machine is load-bearing:
// its fields are wired into the translator's variable allocation and the
// executor's device window and cycle cap, so Load rejects values that
// would make a run nonsensical rather than silently carrying them through.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// ConfigPathEnv names the environment variable that, when set, overrides
// GetConfigPath's platform-specific resolution entirely. Useful for tests
// and for running more than one toolchain configuration side by side.
const ConfigPathEnv = "CARP_CONFIG"

// Config represents the toolchain's configuration.
type Config struct {
	// Machine settings (§6 "Configured constants")
	Machine struct {
		DeviceCount    int `toml:"device_count"`
		InputAddress   int `toml:"input_address"`
		OutputAddress  int `toml:"output_address"`
		DataMemorySize int `toml:"data_memory_size"`
		MaxCycles      int `toml:"max_cycles"`
	} `toml:"machine"`

	// Translator settings
	Translator struct {
		SaveParsedSymbols bool `toml:"save_parsed_symbols"`
	} `toml:"translator"`

	// Debugger settings
	Debugger struct {
		HistorySize   int  `toml:"history_size"`
		ShowSource    bool `toml:"show_source"`
		ShowRegisters bool `toml:"show_registers"`
		ShowStack     bool `toml:"show_stack"`
	} `toml:"debugger"`

	// Display settings
	Display struct {
		ColorOutput  bool   `toml:"color_output"`
		WordsPerLine int    `toml:"words_per_line"`
		NumberFormat string `toml:"number_format"` // hex, dec
	} `toml:"display"`

	// Trace/log settings
	Trace struct {
		SaveLog    bool   `toml:"save_log"`
		OutputFile string `toml:"output_file"`
	} `toml:"trace"`
}

// DefaultConfig returns a configuration matching §6's configured constants.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Machine.DeviceCount = 16
	cfg.Machine.InputAddress = 1
	cfg.Machine.OutputAddress = 3
	cfg.Machine.DataMemorySize = 100
	cfg.Machine.MaxCycles = 1_000_000

	cfg.Translator.SaveParsedSymbols = false

	cfg.Debugger.HistorySize = 1000
	cfg.Debugger.ShowSource = true
	cfg.Debugger.ShowRegisters = true
	cfg.Debugger.ShowStack = true

	cfg.Display.ColorOutput = true
	cfg.Display.WordsPerLine = 8
	cfg.Display.NumberFormat = "dec"

	cfg.Trace.SaveLog = false
	cfg.Trace.OutputFile = "run.clog"

	return cfg
}

// GetConfigPath returns CARP_CONFIG's value if set, otherwise the
// platform-specific config file path.
func GetConfigPath() string {
	if override := os.Getenv(ConfigPathEnv); override != "" {
		return override
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "carp")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "carp")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// GetLogPath returns the platform-specific log directory path.
func GetLogPath() string {
	var logDir string

	switch runtime.GOOS {
	case "windows":
		logDir = os.Getenv("APPDATA")
		if logDir == "" {
			logDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		logDir = filepath.Join(logDir, "carp", "logs")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "logs"
		}
		logDir = filepath.Join(homeDir, ".local", "share", "carp", "logs")

	default:
		return "logs"
	}

	if err := os.MkdirAll(logDir, 0750); err != nil {
		return "logs"
	}

	return logDir
}

// Load loads configuration from the default config file.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from the specified file, falling back to
// defaults when the file does not exist. A file that parses but leaves the
// machine in a nonsensical state (a non-positive dimension, a device
// address outside its own device window, an unrecognized number format) is
// rejected rather than handed to the translator or executor.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate rejects Machine/Display values that would misconfigure the
// translator or executor. A zero max_cycles means "unbounded" and is left
// alone; only a negative one is rejected.
func (c *Config) validate() error {
	m := c.Machine
	switch {
	case m.DeviceCount <= 0:
		return fmt.Errorf("config: machine.device_count must be positive, got %d", m.DeviceCount)
	case m.DataMemorySize <= 0:
		return fmt.Errorf("config: machine.data_memory_size must be positive, got %d", m.DataMemorySize)
	case m.MaxCycles < 0:
		return fmt.Errorf("config: machine.max_cycles must not be negative, got %d", m.MaxCycles)
	case m.InputAddress < 0 || m.InputAddress >= m.DeviceCount:
		return fmt.Errorf("config: machine.input_address %d is outside the device window [0,%d)", m.InputAddress, m.DeviceCount)
	case m.OutputAddress < 0 || m.OutputAddress >= m.DeviceCount:
		return fmt.Errorf("config: machine.output_address %d is outside the device window [0,%d)", m.OutputAddress, m.DeviceCount)
	case m.InputAddress == m.OutputAddress:
		return fmt.Errorf("config: machine.input_address and machine.output_address must differ")
	}

	switch c.Display.NumberFormat {
	case "hex", "dec":
	default:
		return fmt.Errorf("config: display.number_format must be %q or %q, got %q", "hex", "dec", c.Display.NumberFormat)
	}
	return nil
}

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo validates and saves configuration to the specified file, refusing
// to write one that LoadFrom would turn around and reject.
func (c *Config) SaveTo(path string) error {
	if err := c.validate(); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil { // #nosec G304 -- user config file path
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
