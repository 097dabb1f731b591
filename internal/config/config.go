// Package config holds the run configuration of the trainer CLI.
//
// A run starts from Default, is optionally overlaid with a YAML file and
// finally with explicitly set command line flags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Optimizer names accepted in Run.Optimizer.
const (
	SGD  = "sgd"
	Adam = "adam"
)

// Run configures one training run.
type Run struct {
	DataDir    string  `yaml:"data_dir"`
	Download   bool    `yaml:"download"`
	MaxSamples int     `yaml:"max_samples"`
	Epochs     int     `yaml:"epochs"`
	BatchSize  int     `yaml:"batch_size"`
	Optimizer  string  `yaml:"optimizer"`
	LR         float64 `yaml:"lr"`
	Momentum   float64 `yaml:"momentum"`
	Verbose    bool    `yaml:"verbose"`
	GPU        bool    `yaml:"gpu"`
	Seed       uint64  `yaml:"seed"`
}

// Default returns the settings of the CIFAR-10 entry point.
func Default() Run {
	return Run{
		DataDir:   "../data/",
		Download:  true,
		Epochs:    10,
		BatchSize: 32,
		Optimizer: SGD,
		LR:        0.01,
		Momentum:  0.9,
		GPU:       true,
	}
}

// Load reads a YAML file on top of Default. Unknown keys are rejected.
func Load(path string) (Run, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Run{}, fmt.Errorf("failed to read config: %w", err)
	}

	run := Default()
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&run); err != nil && !errors.Is(err, io.EOF) {
		return Run{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return run, run.Validate()
}

// Validate checks ranges and names.
func (r Run) Validate() error {
	var problems []string
	if r.Epochs <= 0 {
		problems = append(problems, fmt.Sprintf("epochs must be positive, got %d", r.Epochs))
	}
	if r.BatchSize <= 0 {
		problems = append(problems, fmt.Sprintf("batch_size must be positive, got %d", r.BatchSize))
	}
	if r.LR <= 0 {
		problems = append(problems, fmt.Sprintf("lr must be positive, got %g", r.LR))
	}
	if r.Momentum < 0 || r.Momentum >= 1 {
		problems = append(problems, fmt.Sprintf("momentum must be in [0, 1), got %g", r.Momentum))
	}
	if r.MaxSamples < 0 {
		problems = append(problems, fmt.Sprintf("max_samples must not be negative, got %d", r.MaxSamples))
	}
	switch r.Optimizer {
	case SGD, Adam:
	default:
		problems = append(problems, fmt.Sprintf("unknown optimizer %q (want %q or %q)", r.Optimizer, SGD, Adam))
	}
	if r.DataDir == "" {
		problems = append(problems, "data_dir must be set")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// YAML renders the run, for echoing the effective configuration.
func (r Run) YAML() string {
	out, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Sprintf("# failed to render config: %v\n", err)
	}
	return string(out)
}
