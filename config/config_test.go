package config

import (
	"math"
	"testing"
)

func TestLoadEmbeddedDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Kernel.SmoothingLength != 10.0 {
		t.Errorf("SmoothingLength = %v, want 10.0", cfg.Kernel.SmoothingLength)
	}
	if cfg.Physics.Theta != 0.5 {
		t.Errorf("Theta = %v, want 0.5", cfg.Physics.Theta)
	}

	want := 1 / (math.Pi * 1000.0)
	if math.Abs(cfg.Derived.KernelNormFactor-want) > 1e-12 {
		t.Errorf("KernelNormFactor = %v, want %v", cfg.Derived.KernelNormFactor, want)
	}
}

func TestInitMustBeCalledBeforeCfg(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Cfg() before Init() should panic")
		}
		global = nil
	}()
	global = nil
	Cfg()
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	path := t.TempDir() + "/config.yaml"
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load(written config): %v", err)
	}
	if reloaded.Kernel.SmoothingLength != cfg.Kernel.SmoothingLength {
		t.Errorf("reloaded SmoothingLength = %v, want %v", reloaded.Kernel.SmoothingLength, cfg.Kernel.SmoothingLength)
	}
}
