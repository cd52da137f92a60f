// Package optim implements the MoMo-Adam optimizer.
//
// This package provides:
//   - MomoAdam: a pure Init/Update transformation over parameter trees
//   - Momo: a stateful wrapper that owns its parameters, in the style of Adam and SGD optimizers
//   - ConfigurationError: the single error kind reported for invalid inputs
//
// MoMo-Adam performs Adam(W) with a Polyak-type step size. The effective step
// is min(lr/bc1, <adaptive term>), where the adaptive term is computed from a
// running average of the loss and a known lower bound of the loss.
//
// Example usage:
//
//	opt, err := optim.NewMomoAdam(optim.MomoAdamConfig{
//	    LR:          schedule.Constant(1.0),
//	    WeightDecay: 0.01,
//	})
//	state := opt.Init(params)
//
//	for step := range steps {
//	    loss, grads := lossAndGrad(params)
//	    updates, next, err := opt.Update(grads, state, params, optim.Loss(loss))
//	    if err != nil {
//	        return err
//	    }
//	    params, _ = tree.Apply(params, updates)
//	    state = next
//	}
package optim

import "github.com/born-ml/momo/internal/tree"

// Optimizer is the interface of stateful optimizers that own their parameters.
//
// Implementations are not safe for concurrent use.
type Optimizer interface {
	// Step consumes the gradient and loss evaluated at the current parameters
	// and replaces the parameters with their updated values.
	Step(grads *tree.Tree, loss float64) error

	// Params returns the current parameters.
	Params() *tree.Tree

	// GetLR returns the learning rate the next step will use.
	GetLR() float64
}

// Loss returns a pointer to v, for passing a loss value to Update.
func Loss(v float64) *float64 {
	return &v
}
