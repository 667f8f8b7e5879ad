package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults reproducing the sigmoid_lut.sv consumed by the RTL build
const (
	// DefaultSize is the number of table entries (2^17, one per 17-bit input code)
	DefaultSize = 1 << 17

	// DefaultDomainMin is the normalized input at index 0
	DefaultDomainMin = -6.0

	// DefaultDomainMax is the normalized input at index Size-1
	DefaultDomainMax = 6.0

	// DefaultScale is the quantized value of sigmoid = 1
	DefaultScale = 100

	// DefaultWidth is the bit width of each table entry
	DefaultWidth = 8

	DefaultPackageName = "sigmoid_package"
	DefaultTableName   = "sigmoid_lut"
	DefaultOutputPath  = "sigmoid_lut.sv"
)

// Config represents the generator configuration
type Config struct {
	// Size is the number of table entries (must be at least 2)
	Size int `yaml:"size"`

	// DomainMin is the normalized input mapped to the first index
	DomainMin float64 `yaml:"domainMin"`

	// DomainMax is the normalized input mapped to the last index
	DomainMax float64 `yaml:"domainMax"`

	// Scale multiplies the sigmoid value before rounding (output range is [0, Scale])
	Scale int `yaml:"scale"`

	// Width is the bit width of each entry in the generated package (1-32)
	Width int `yaml:"width"`

	// PackageName is the SystemVerilog package identifier
	PackageName string `yaml:"packageName"`

	// TableName is the SystemVerilog constant array identifier
	TableName string `yaml:"tableName"`

	// OutputPath is where the generated package is written, overwriting any existing file
	OutputPath string `yaml:"outputPath"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Size:        DefaultSize,
		DomainMin:   DefaultDomainMin,
		DomainMax:   DefaultDomainMax,
		Scale:       DefaultScale,
		Width:       DefaultWidth,
		PackageName: DefaultPackageName,
		TableName:   DefaultTableName,
		OutputPath:  DefaultOutputPath,
	}
}

// Load reads a YAML configuration file on top of the defaults.
// Keys missing from the file keep their default value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks that the configuration can produce a well-formed table
func (c *Config) Validate() error {
	var errs []error

	if c.Size < 2 {
		errs = append(errs, fmt.Errorf("size must be at least 2, got %d", c.Size))
	}
	if !(c.DomainMin < c.DomainMax) {
		errs = append(errs, fmt.Errorf("domainMin (%v) must be less than domainMax (%v)", c.DomainMin, c.DomainMax))
	}
	if c.Width < 1 || c.Width > 32 {
		errs = append(errs, fmt.Errorf("width must be between 1 and 32, got %d", c.Width))
	}
	if c.Scale <= 0 {
		errs = append(errs, fmt.Errorf("scale must be positive, got %d", c.Scale))
	} else if c.Width >= 1 && c.Width <= 32 && uint64(c.Scale) >= uint64(1)<<c.Width {
		errs = append(errs, fmt.Errorf("scale %d does not fit in %d bits", c.Scale, c.Width))
	}
	if c.PackageName == "" {
		errs = append(errs, errors.New("packageName must not be empty"))
	}
	if c.TableName == "" {
		errs = append(errs, errors.New("tableName must not be empty"))
	}
	if c.OutputPath == "" {
		errs = append(errs, errors.New("outputPath must not be empty"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
