// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/born-ml/momo/internal/optim"
	"github.com/born-ml/momo/internal/schedule"
	"github.com/born-ml/momo/tree"
)

// Optimizer interface defines the common interface for stateful optimizers.
type Optimizer = optim.Optimizer

// MoMo-Adam

// MomoAdam represents the pure MoMo-Adam transformation.
type MomoAdam = optim.MomoAdam

// MomoAdamConfig contains configuration for MoMo-Adam.
type MomoAdamConfig = optim.MomoAdamConfig

// MomoAdamState is the state threaded between Update calls.
type MomoAdamState = optim.MomoAdamState

// StepInfo holds the scalars derived during one update.
type StepInfo = optim.StepInfo

// Momo represents the stateful MoMo-Adam optimizer.
type Momo = optim.Momo

// MachineEpsilon is the default degenerate-norm threshold (float32 epsilon).
const MachineEpsilon = optim.MachineEpsilon

// NewMomoAdam creates a MoMo-Adam transformation.
//
// Example:
//
//	opt, err := optim.NewMomoAdam(optim.MomoAdamConfig{
//	    LR:    optim.Constant(1.0),
//	    Betas: &[2]float64{0.9, 0.999},
//	    LB:    0,
//	})
func NewMomoAdam(config MomoAdamConfig) (*MomoAdam, error) {
	return optim.NewMomoAdam(config)
}

// NewMomo creates a stateful MoMo-Adam optimizer for params.
func NewMomo(params *tree.Tree, config MomoAdamConfig) (*Momo, error) {
	return optim.NewMomo(params, config)
}

// Loss returns a pointer to v, for passing a loss value to Update.
func Loss(v float64) *float64 {
	return optim.Loss(v)
}

// Errors

// ConfigurationError reports invalid configuration or update arguments.
type ConfigurationError = optim.ConfigurationError

// ErrConfiguration matches every *ConfigurationError via errors.Is.
var ErrConfiguration = optim.ErrConfiguration

// Learning rate schedules

// Schedule maps a step count to a learning rate.
type Schedule = schedule.Schedule

// ScalarOrSchedule is a learning rate that is either a constant or a Schedule.
type ScalarOrSchedule = schedule.ScalarOrSchedule

// Constant returns a fixed learning rate.
func Constant(v float64) ScalarOrSchedule {
	return schedule.Constant(v)
}

// FromSchedule wraps a Schedule as a learning rate.
func FromSchedule(fn Schedule) ScalarOrSchedule {
	return schedule.FromSchedule(fn)
}

// LinearSchedule interpolates from init to end over transitionSteps.
func LinearSchedule(init, end float64, transitionSteps int) Schedule {
	return schedule.LinearSchedule(init, end, transitionSteps)
}

// CosineDecay decays init towards alpha*init over decaySteps.
func CosineDecay(init float64, decaySteps int, alpha float64) Schedule {
	return schedule.CosineDecay(init, decaySteps, alpha)
}

// WarmupCosineDecay warms up linearly to peak, then decays to end by totalSteps.
func WarmupCosineDecay(init, peak float64, warmupSteps, totalSteps int, end float64) Schedule {
	return schedule.WarmupCosineDecay(init, peak, warmupSteps, totalSteps, end)
}

// ExponentialDecay returns init * rate^(count/transitionSteps).
func ExponentialDecay(init, rate float64, transitionSteps int, staircase bool) Schedule {
	return schedule.ExponentialDecay(init, rate, transitionSteps, staircase)
}
