// Package config loads the compiler's optional TOML configuration file.
// Every field has a sensible default, so a missing file behaves exactly
// like a compiler with the constants baked in.
//
// Grounded on lookbusy1344-arm_emulator/config/config.go's Load/LoadFrom/
// DefaultConfig shape, trimmed to the handful of knobs this compiler
// actually has: the origin address, the mangling prefix, the per-table
// symbol capacity, and the three fixed run-time stub addresses.
package config

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Config holds the tunables that are constants in a minimal build but a real
// compiler binary exposes for retargeting.
type Config struct {
	// Emitter settings
	Emitter struct {
		OriginAddress string `toml:"origin_address"`
		NamePrefix    string `toml:"name_prefix"`
	} `toml:"emitter"`

	// SymbolTable settings
	SymbolTable struct {
		ExternCapacity int `toml:"extern_capacity"`
		LocalCapacity  int `toml:"local_capacity"`
	} `toml:"symbol_table"`

	// Runtime settings: the fixed stub addresses the preamble jumps
	// through for the three runtime library stubs (character output,
	// string output, character input).
	Runtime struct {
		CharOutAddress string `toml:"char_out_address"`
		StrOutAddress  string `toml:"str_out_address"`
		CharInAddress  string `toml:"char_in_address"`
	} `toml:"runtime"`
}

// DefaultConfig returns the configuration a compiler with no config file
// present behaves as.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Emitter.OriginAddress = "$0400"
	cfg.Emitter.NamePrefix = "_"

	cfg.SymbolTable.ExternCapacity = 256
	cfg.SymbolTable.LocalCapacity = 256

	cfg.Runtime.CharOutAddress = "$FFF4"
	cfg.Runtime.StrOutAddress = "$FFF1"
	cfg.Runtime.CharInAddress = "$FFF7"

	return cfg
}

// Load loads configuration from "cc6809.toml" in the current directory,
// falling back to defaults if that file does not exist.
func Load() (*Config, error) {
	return LoadFrom("cc6809.toml")
}

// LoadFrom loads configuration from the given path, falling back to
// defaults if the file does not exist.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config file %q", path)
	}

	return cfg, nil
}
