// Package config handles gostackvm.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/krehermann/gostackvm/vm"
	"go.uber.org/zap"
)

const FileName = "gostackvm.toml"

type Config struct {
	VM  VMConfig  `toml:"vm"`
	Log LogConfig `toml:"log"`
	API APIConfig `toml:"api"`
}

// VMConfig caps the resources of a single run.
type VMConfig struct {
	MaxStack int    `toml:"max_stack"`
	MaxHeap  int    `toml:"max_heap"`
	MaxSteps uint64 `toml:"max_steps"` // 0 = unlimited
	Trace    bool   `toml:"trace"`
}

type LogConfig struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

type APIConfig struct {
	ListenAddr      string `toml:"listen_addr"`
	MaxProgramBytes int64  `toml:"max_program_bytes"`
	// step cap for programs run over http, overrides vm.max_steps when set
	MaxSteps uint64 `toml:"max_steps"`
}

func Default() *Config {
	return &Config{
		VM: VMConfig{
			MaxStack: vm.DefaultMaxStack,
			MaxHeap:  vm.DefaultMaxHeap,
		},
		Log: LogConfig{
			Level:       "info",
			Development: true,
		},
		API: APIConfig{
			ListenAddr:      ":8080",
			MaxProgramBytes: 1 << 20,
			MaxSteps:        1_000_000,
		},
	}
}

// Load reads the file at path over the defaults. Keys missing from the file
// keep their default value; unknown keys are an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	return Parse(string(data), path)
}

// Parse decodes TOML text over the defaults. name is used in errors.
func Parse(text, name string) (*Config, error) {
	c := Default()
	md, err := toml.Decode(text, c)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", name, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%s: unknown keys %s", name, strings.Join(keys, ", "))
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return c, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.VM.MaxStack <= 0 {
		errs = append(errs, fmt.Errorf("vm.max_stack must be positive, got %d", c.VM.MaxStack))
	}
	if c.VM.MaxHeap < 0 {
		errs = append(errs, fmt.Errorf("vm.max_heap must not be negative, got %d", c.VM.MaxHeap))
	}
	if c.API.MaxProgramBytes <= 0 {
		errs = append(errs, fmt.Errorf("api.max_program_bytes must be positive, got %d", c.API.MaxProgramBytes))
	}
	if _, err := zap.ParseAtomicLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	return errors.Join(errs...)
}

// Options turns the caps into VM options.
func (c VMConfig) Options() []vm.VMOpt {
	opts := []vm.VMOpt{
		vm.MaxStackOpt(c.MaxStack),
		vm.MaxHeapOpt(c.MaxHeap),
	}
	if c.MaxSteps > 0 {
		opts = append(opts, vm.MaxStepsOpt(c.MaxSteps))
	}
	return opts
}

// Build constructs the root logger.
func (c LogConfig) Build() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.Level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if c.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	return zc.Build()
}
