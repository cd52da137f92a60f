// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides the MoMo-Adam optimizer.
//
// # Overview
//
// MoMo-Adam is Adam(W) with a Polyak-type step size. When a lower bound of the
// loss is known (zero for most tasks), the step size adapts on the fly and
// rarely needs tuning. The configured learning rate acts as an upper bound.
//
// This package contains:
//   - MomoAdam: pure Init/Update transformation over parameter trees
//   - Momo: stateful optimizer that owns its parameters
//   - Learning rate schedules (constant, linear, cosine, warmup-cosine, exponential)
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/momo/optim"
//	    "github.com/born-ml/momo/tree"
//	)
//
//	func train(params *tree.Tree) error {
//	    opt, err := optim.NewMomoAdam(optim.MomoAdamConfig{
//	        LR:          optim.Constant(1.0),
//	        WeightDecay: 0.01,
//	    })
//	    if err != nil {
//	        return err
//	    }
//	    state := opt.Init(params)
//
//	    for step := range 1000 {
//	        loss, grads := lossAndGrad(params)
//	        updates, next, err := opt.Update(grads, state, params, optim.Loss(loss))
//	        if err != nil {
//	            return err
//	        }
//	        params, _ = tree.Apply(params, updates)
//	        state = next
//	    }
//	    return nil
//	}
//
// # Stateful Optimizer
//
//	optimizer, err := optim.NewMomo(params, optim.MomoAdamConfig{})
//
//	for step := range 1000 {
//	    loss, grads := lossAndGrad(optimizer.Params())
//	    if err := optimizer.Step(grads, loss); err != nil {
//	        return err
//	    }
//	}
//
// # Errors
//
// Missing parameters, a missing loss value and mismatched tree structures
// are reported as *ConfigurationError, which matches ErrConfiguration via
// errors.Is. Numeric edge cases never fail: a vanishing momentum norm yields
// a zero adaptive step.
package optim
