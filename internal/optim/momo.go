package optim

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/born-ml/momo/internal/serialization"
	"github.com/born-ml/momo/internal/tree"
)

// State dict keys.
const (
	keyExpAvg   = "exp_avg"
	keyExpAvgSq = "exp_avg_sq"
	keyBarf     = "barf"
	keyGamma    = "gamma"
	keyCount    = "count"
	keyParams   = "params"
)

const maxExactCount = 1 << 53

// Momo is a stateful MoMo-Adam optimizer that owns its parameter tree.
//
// It threads MomoAdamState between steps so training loops can call Step
// the same way they would call Adam or SGD:
//
//	optimizer, err := optim.NewMomo(params, optim.MomoAdamConfig{WeightDecay: 1e-4})
//
//	for step := range steps {
//	    loss, grads := lossAndGrad(optimizer.Params())
//	    if err := optimizer.Step(grads, loss); err != nil {
//	        return err
//	    }
//	}
//
// Momo is not safe for concurrent use.
type Momo struct {
	opt    *MomoAdam
	params *tree.Tree
	state  *MomoAdamState
	last   StepInfo
}

// NewMomo creates a Momo optimizer for params.
//
// Returns a ConfigurationError if params is nil or the configuration is invalid.
func NewMomo(params *tree.Tree, config MomoAdamConfig) (*Momo, error) {
	if params == nil {
		return nil, configError(NoParamsMsg, nil)
	}
	opt, err := NewMomoAdam(config)
	if err != nil {
		return nil, err
	}
	return &Momo{
		opt:    opt,
		params: params,
		state:  opt.Init(params),
	}, nil
}

// Step applies one MoMo-Adam update using grads and the loss at the current
// parameters. On error the parameters and state are unchanged.
func (m *Momo) Step(grads *tree.Tree, loss float64) error {
	updates, next, info, err := m.opt.UpdateWithInfo(grads, m.state, m.params, Loss(loss))
	if err != nil {
		return err
	}
	params, err := tree.Apply(m.params, updates)
	if err != nil {
		return configError("update does not match parameters", err)
	}

	m.params = params
	m.state = next
	m.last = info
	return nil
}

// Params returns the current parameters.
func (m *Momo) Params() *tree.Tree {
	return m.params
}

// State returns the current optimizer state.
func (m *Momo) State() *MomoAdamState {
	return m.state
}

// GetLR returns the learning rate the next step resolves to.
func (m *Momo) GetLR() float64 {
	return m.opt.LearningRate(m.state.Count)
}

// GetTau returns the effective step size of the last step, or 0 before the first step.
func (m *Momo) GetTau() float64 {
	return m.last.Tau
}

// LastStep returns the scalars derived during the last step.
func (m *Momo) LastStep() StepInfo {
	return m.last
}

// GetTimestep returns the number of steps taken.
//
// Useful for monitoring optimizer state.
func (m *Momo) GetTimestep() int {
	return m.state.Count
}

// StateDict returns the optimizer state for serialization.
//
// State keys: "exp_avg", "exp_avg_sq" (trees mirroring the parameters) and
// "barf", "gamma", "count" (scalar leaves).
func (m *Momo) StateDict() map[string]*tree.Tree {
	return map[string]*tree.Tree{
		keyExpAvg:   m.state.ExpAvg.Clone(),
		keyExpAvgSq: m.state.ExpAvgSq.Clone(),
		keyBarf:     tree.Scalar(m.state.Barf),
		keyGamma:    tree.Scalar(m.state.Gamma),
		keyCount:    tree.Scalar(float64(m.state.Count)),
	}
}

// LoadStateDict restores optimizer state produced by StateDict.
//
// Returns an error if a key is missing, a moment tree does not match the
// parameters, exp_avg_sq has a negative entry, or the step count is not an
// integer in [0, 2^53).
func (m *Momo) LoadStateDict(stateDict map[string]*tree.Tree) error {
	moments := make(map[string]*tree.Tree, 2)
	for _, key := range []string{keyExpAvg, keyExpAvgSq} {
		t, exists := stateDict[key]
		if !exists || t == nil {
			return fmt.Errorf("missing %q in state dict", key)
		}
		if err := tree.CheckStructure(m.params, t); err != nil {
			return fmt.Errorf("%s does not match parameters: %w", key, err)
		}
		moments[key] = t.Clone()
	}
	if err := checkNonNegative(moments[keyExpAvgSq]); err != nil {
		return fmt.Errorf("%s: %w", keyExpAvgSq, err)
	}

	scalars := make(map[string]float64, 3)
	for _, key := range []string{keyBarf, keyGamma, keyCount} {
		t, exists := stateDict[key]
		if !exists || t == nil {
			return fmt.Errorf("missing %q in state dict", key)
		}
		v, err := t.Item()
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		scalars[key] = v
	}

	// Counts are stored as float64, which represents integers exactly up to 2^53.
	count := scalars[keyCount]
	if !(count >= 0 && count < maxExactCount) || count != math.Trunc(count) {
		return fmt.Errorf("invalid step count %v", count)
	}

	m.state = &MomoAdamState{
		ExpAvg:   moments[keyExpAvg],
		ExpAvgSq: moments[keyExpAvgSq],
		Barf:     scalars[keyBarf],
		Gamma:    scalars[keyGamma],
		Count:    int(count),
	}
	m.last = StepInfo{}
	return nil
}

// SaveCheckpoint writes the parameters and optimizer state to a SafeTensors file.
func (m *Momo) SaveCheckpoint(path string) error {
	metadata := map[string]string{
		"optimizer": "momo_adam",
		"step":      strconv.Itoa(m.state.Count),
	}
	trees := m.StateDict()
	trees[keyParams] = m.params.Clone()
	if err := serialization.WriteFile(path, trees, metadata); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint restores parameters and optimizer state written by
// SaveCheckpoint. The checkpoint must match the structure of the current
// parameters. On error the optimizer is unchanged.
func (m *Momo) LoadCheckpoint(path string) error {
	like := m.StateDict()
	like[keyParams] = m.params
	trees, _, err := serialization.ReadFile(path, like)
	if err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if err := m.LoadStateDict(trees); err != nil {
		return err
	}
	m.params = trees[keyParams]
	return nil
}

// checkNonNegative returns an error if any entry of t is negative or NaN.
func checkNonNegative(t *tree.Tree) error {
	var bad string
	t.Walk(func(path string, leaf *tree.Tree) {
		if bad != "" {
			return
		}
		for _, v := range leaf.Data() {
			if !(v >= 0) {
				bad = fmt.Sprintf("entry %v at %q must be non-negative", v, path)
				return
			}
		}
	})
	if bad != "" {
		return errors.New(bad)
	}
	return nil
}

var _ Optimizer = (*Momo)(nil)
