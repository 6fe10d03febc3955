// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Physics    PhysicsConfig    `yaml:"physics"`
	Kernel     KernelConfig     `yaml:"kernel"`
	Octree     OctreeConfig     `yaml:"octree"`
	Integrator IntegratorConfig `yaml:"integrator"`
	Output     OutputConfig     `yaml:"output"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// PhysicsConfig holds gravitational and SPH physical constants.
type PhysicsConfig struct {
	G           float64 `yaml:"g"`
	Softening   float64 `yaml:"softening"`
	Theta       float64 `yaml:"theta"`
	GammaMinus1 float64 `yaml:"gamma_minus_1"`
}

// KernelConfig holds smoothing-kernel parameters.
type KernelConfig struct {
	SmoothingLength float64 `yaml:"smoothing_length"`
	TableSamples    int     `yaml:"table_samples"`
}

// OctreeConfig holds Barnes–Hut tree build parameters.
type OctreeConfig struct {
	LeafCapacity int `yaml:"leaf_capacity"`
	DepthLimit   int `yaml:"depth_limit"`
}

// IntegratorConfig holds leapfrog integration parameters.
type IntegratorConfig struct {
	DT       float64 `yaml:"dt"`
	TEnd     float64 `yaml:"t_end"`
	Parallel bool    `yaml:"parallel"`
	ChunkCount int   `yaml:"chunk_count"`
}

// OutputConfig holds run output parameters.
type OutputConfig struct {
	Dir                 string  `yaml:"dir"`
	DiagnosticsInterval int     `yaml:"diagnostics_interval"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
	PerfFlushInterval   int     `yaml:"perf_flush_interval"`
	NumParticles        int     `yaml:"num_particles"`
	DomainExtent        float64 `yaml:"domain_extent"`
	Seed                int64   `yaml:"seed"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	KernelNormFactor float64 // 1 / (pi * h^3), reused across density and force passes
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	h := c.Kernel.SmoothingLength
	c.Derived.KernelNormFactor = 1 / (math.Pi * h * h * h)
}

// WriteYAML marshals c and writes it to path, overwriting any existing file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
