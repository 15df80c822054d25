// Package config loads agentcore configuration from YAML and manages the
// encrypted secrets file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ModelConfig selects the default model and sampling parameters.
type ModelConfig struct {
	DefaultModel string  `yaml:"default_model"`
	Temperature  float32 `yaml:"temperature"`
	MaxTokens    int     `yaml:"max_tokens"`
}

// ToolLoopConfig mirrors the tool loop's run bounds.
type ToolLoopConfig struct {
	MaxIterations            int  `yaml:"max_iterations"`
	MaxToolCallsPerIteration int  `yaml:"max_tool_calls_per_iteration"`
	ErrorThreshold           int  `yaml:"error_threshold"`
	EnableDoubleConfirmation bool `yaml:"enable_double_confirmation"`
	LoopDetectionThreshold   int  `yaml:"loop_detection_threshold"`
}

// ReasoningConfig mirrors the reasoning protocol's run bounds.
type ReasoningConfig struct {
	MaxSteps             int     `yaml:"max_steps"`
	QualityGateThreshold float64 `yaml:"quality_gate_threshold"`
	EnableAntiCriteria   bool    `yaml:"enable_anti_criteria"`
}

// GuardConfig configures the runtime enforcer.
type GuardConfig struct {
	AllowedCommands    []string `yaml:"allowed_commands"`
	ReadPaths          []string `yaml:"read_paths"`
	WritePaths         []string `yaml:"write_paths"`
	AllowedHosts       []string `yaml:"allowed_hosts"`
	MaxIterations      int      `yaml:"max_iterations"`
	MaxDurationSeconds int      `yaml:"max_duration_seconds"`
}

// MaxDuration returns the duration budget.
func (g GuardConfig) MaxDuration() time.Duration {
	return time.Duration(g.MaxDurationSeconds) * time.Second
}

// TraceConfig configures the observation store.
type TraceConfig struct {
	Path string `yaml:"path"`
}

// Config is the full agentcore configuration.
type Config struct {
	Model            ModelConfig     `yaml:"model"`
	ToolLoop         ToolLoopConfig  `yaml:"tool_loop"`
	Reasoning        ReasoningConfig `yaml:"reasoning"`
	Guard            GuardConfig     `yaml:"guard"`
	Trace            TraceConfig     `yaml:"trace"`
	MaxContextTokens int             `yaml:"max_context_tokens"`
}

// Default returns the platform default configuration.
func Default() Config {
	return Config{
		Model: ModelConfig{
			DefaultModel: "claude-sonnet-4-20250514",
			Temperature:  0.3,
			MaxTokens:    4096,
		},
		ToolLoop: ToolLoopConfig{
			MaxIterations:            10,
			MaxToolCallsPerIteration: 5,
			ErrorThreshold:           3,
			EnableDoubleConfirmation: true,
			LoopDetectionThreshold:   3,
		},
		Reasoning: ReasoningConfig{
			MaxSteps:             50,
			QualityGateThreshold: 0.5,
		},
		Guard: GuardConfig{
			MaxIterations:      100,
			MaxDurationSeconds: 1800,
		},
		Trace: TraceConfig{
			Path: "agentcore-trace.db",
		},
		MaxContextTokens: 32000,
	}
}

// Load reads the YAML config at path on top of the defaults. A missing file
// yields the defaults without error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}
