// Package config loads MoMo-Adam hyperparameters from YAML files.
//
// Example file:
//
//	learning_rate:
//	  kind: warmup_cosine
//	  init: 0.0
//	  peak: 1.0
//	  warmup_steps: 100
//	  total_steps: 1000
//	betas: [0.9, 0.999]
//	eps: 1.0e-8
//	lb: 0.0
//	weight_decay: 0.01
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/momo/internal/optim"
	"github.com/born-ml/momo/internal/schedule"
)

// Schedule kinds accepted in LearningRate.Kind.
const (
	KindConstant     = "constant"
	KindLinear       = "linear"
	KindCosine       = "cosine"
	KindWarmupCosine = "warmup_cosine"
	KindExponential  = "exponential"
)

// Hyperparams is the on-disk representation of MomoAdamConfig.
type Hyperparams struct {
	LearningRate  LearningRate `yaml:"learning_rate"`
	Betas         []float64    `yaml:"betas"`
	Eps           float64      `yaml:"eps"`
	LB            float64      `yaml:"lb"`
	WeightDecay   float64      `yaml:"weight_decay"`
	NormThreshold float64      `yaml:"norm_threshold"`
}

// LearningRate describes a constant learning rate or a stock schedule.
//
// Value is used by "constant"; the other fields are read by the schedule
// named in Kind.
type LearningRate struct {
	Kind        string  `yaml:"kind"`
	Value       float64 `yaml:"value"`
	Init        float64 `yaml:"init"`
	Peak        float64 `yaml:"peak"`
	End         float64 `yaml:"end"`
	Alpha       float64 `yaml:"alpha"`
	Rate        float64 `yaml:"rate"`
	Steps       int     `yaml:"steps"`
	WarmupSteps int     `yaml:"warmup_steps"`
	TotalSteps  int     `yaml:"total_steps"`
	Staircase   bool    `yaml:"staircase"`
}

// UnmarshalYAML accepts either a bare number (a constant learning rate) or a
// mapping with a schedule kind.
func (lr *LearningRate) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var v float64
		if err := node.Decode(&v); err != nil {
			return fmt.Errorf("learning_rate: %w", err)
		}
		*lr = LearningRate{Kind: KindConstant, Value: v}
		return nil
	}

	type plain LearningRate
	var raw plain
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("learning_rate: %w", err)
	}
	*lr = LearningRate(raw)
	return nil
}

// Load reads and parses a YAML hyperparameter file.
func Load(path string) (*Hyperparams, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML hyperparameters. Unknown fields are rejected.
func Parse(data []byte) (*Hyperparams, error) {
	var h Hyperparams
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&h); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if len(h.Betas) != 0 && len(h.Betas) != 2 {
		return nil, fmt.Errorf("betas must have exactly 2 values, got %d", len(h.Betas))
	}
	return &h, nil
}

// Schedule builds the learning rate described by lr.
// A zero-valued LearningRate yields the zero ScalarOrSchedule (use the default).
func (lr LearningRate) Schedule() (schedule.ScalarOrSchedule, error) {
	kind := lr.Kind
	if kind == "" {
		kind = KindConstant
	}

	switch kind {
	case KindConstant:
		return schedule.Constant(lr.Value), nil
	case KindLinear:
		return schedule.FromSchedule(schedule.LinearSchedule(lr.Init, lr.End, lr.Steps)), nil
	case KindCosine:
		return schedule.FromSchedule(schedule.CosineDecay(lr.Init, lr.Steps, lr.Alpha)), nil
	case KindWarmupCosine:
		return schedule.FromSchedule(schedule.WarmupCosineDecay(lr.Init, lr.Peak, lr.WarmupSteps, lr.TotalSteps, lr.End)), nil
	case KindExponential:
		return schedule.FromSchedule(schedule.ExponentialDecay(lr.Init, lr.Rate, lr.Steps, lr.Staircase)), nil
	default:
		return schedule.ScalarOrSchedule{}, fmt.Errorf("unknown learning rate kind %q", lr.Kind)
	}
}

// MomoAdamConfig converts h into an optimizer configuration.
// Fields left out of the file keep the optimizer defaults.
func (h *Hyperparams) MomoAdamConfig() (optim.MomoAdamConfig, error) {
	lr, err := h.LearningRate.Schedule()
	if err != nil {
		return optim.MomoAdamConfig{}, err
	}

	cfg := optim.MomoAdamConfig{
		LR:            lr,
		Eps:           h.Eps,
		LB:            h.LB,
		WeightDecay:   h.WeightDecay,
		NormThreshold: h.NormThreshold,
	}
	if len(h.Betas) == 2 {
		cfg.Betas = &[2]float64{h.Betas[0], h.Betas[1]}
	}
	return cfg, nil
}
