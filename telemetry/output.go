package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/cvolger/nbodysph/config"
)

// OutputManager handles structured run output: a diagnostics CSV, a
// per-step-window performance CSV, and the config snapshot that produced
// them.
type OutputManager struct {
	dir            string
	diagnosticFile *os.File
	perfFile       *os.File

	diagnosticHeaderWritten bool
	perfHeaderWritten       bool
}

// NewOutputManager creates a new output manager and initializes the
// output directory. Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	diagnosticPath := filepath.Join(dir, "diagnostics.csv")
	f, err := os.Create(diagnosticPath)
	if err != nil {
		return nil, fmt.Errorf("creating diagnostics.csv: %w", err)
	}
	om.diagnosticFile = f

	perfPath := filepath.Join(dir, "perf.csv")
	f, err = os.Create(perfPath)
	if err != nil {
		om.diagnosticFile.Close()
		return nil, fmt.Errorf("creating perf.csv: %w", err)
	}
	om.perfFile = f

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	configPath := filepath.Join(om.dir, "config.yaml")
	return cfg.WriteYAML(configPath)
}

// WriteDiagnostics writes a diagnostics record to diagnostics.csv.
func (om *OutputManager) WriteDiagnostics(d Diagnostics) error {
	if om == nil {
		return nil
	}

	records := []Diagnostics{d}

	if !om.diagnosticHeaderWritten {
		if err := gocsv.Marshal(records, om.diagnosticFile); err != nil {
			return fmt.Errorf("writing diagnostics: %w", err)
		}
		om.diagnosticHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.diagnosticFile); err != nil {
			return fmt.Errorf("writing diagnostics: %w", err)
		}
	}

	return nil
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int32) error {
	if om == nil {
		return nil
	}

	csvRecord := stats.ToCSV(windowEnd)
	records := []PerfStatsCSV{csvRecord}

	if !om.perfHeaderWritten {
		if err := gocsv.Marshal(records, om.perfFile); err != nil {
			return fmt.Errorf("writing perf: %w", err)
		}
		om.perfHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.perfFile); err != nil {
			return fmt.Errorf("writing perf: %w", err)
		}
	}

	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error

	if om.diagnosticFile != nil {
		if err := om.diagnosticFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if om.perfFile != nil {
		if err := om.perfFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
