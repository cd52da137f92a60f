package optim

import (
	"fmt"
	"math"

	"github.com/born-ml/momo/internal/schedule"
	"github.com/born-ml/momo/internal/tree"
)

// MachineEpsilon is the single-precision machine epsilon (2^-23), the default
// threshold below which the weighted momentum norm counts as zero.
const MachineEpsilon = 0x1p-23

// MomoAdam implements MoMo-Adam ("MoMo: Momentum Models for Adaptive Learning
// Rates", Schaipp et al., 2023).
//
// MomoAdam is a pure transformation: Init builds a zero state for a parameter
// tree and Update maps (gradient, state, params, loss) to (update, new state)
// without modifying any argument. A MomoAdam value is immutable and safe for
// concurrent use.
//
// Update rule, with b1, b2 = Betas and t = count+1:
//
//	barf     = b1 * barf + (1-b1) * loss
//	m        = b1 * m + (1-b1) * g
//	v        = b2 * v + (1-b2) * g²
//	prec     = eps + sqrt(v / (1 - b2^t))
//	gamma    = b1 * gamma + (1-b1) * <g, p>
//	norm     = <m, m / prec>
//	t1       = max(0, (1+lr*wd) * (barf - (1-b1^t)*lb - gamma) + <m, p>) / norm
//	tau      = min(lr / (1-b1^t), t1)
//	update   = -(lr*wd)/(1+lr*wd) * p - tau * m / prec
//
// When norm is at or below NormThreshold, t1 is taken as 0 and only the
// weight-decay term remains.
type MomoAdam struct {
	lr            schedule.ScalarOrSchedule
	beta1         float64
	beta2         float64
	eps           float64
	lb            float64
	weightDecay   float64
	normThreshold float64
}

// MomoAdamConfig holds configuration for MomoAdam.
//
// Zero-valued fields take their defaults. Betas is a pointer so that a beta of
// exactly 0 (no averaging) can be requested; nil selects the defaults.
type MomoAdamConfig struct {
	LR            schedule.ScalarOrSchedule // Learning rate or schedule (default: constant 1.0)
	Betas         *[2]float64               // EMA coefficients, each in [0, 1) (default: [0.9, 0.999])
	Eps           float64                   // Stabilizer added to the preconditioner (default: 1e-8)
	LB            float64                   // Lower bound of the loss (default: 0)
	WeightDecay   float64                   // Decoupled weight decay, AdamW style (default: 0)
	NormThreshold float64                   // Degenerate momentum-norm threshold (default: MachineEpsilon)
}

// MomoAdamState is the optimizer state threaded between Update calls.
//
// States are values: Update returns a new state and never modifies the old one.
type MomoAdamState struct {
	ExpAvg   *tree.Tree // EMA of the gradient
	ExpAvgSq *tree.Tree // EMA of the squared gradient
	Barf     float64    // EMA of the loss
	Gamma    float64    // EMA of <gradient, params>
	Count    int        // Number of updates applied
}

// StepInfo holds the scalars derived during one update.
type StepInfo struct {
	Alpha           float64 // Learning rate resolved for this step
	Tau             float64 // Effective step size
	ExpAvgNorm      float64 // <m, m / prec>
	BiasCorrection1 float64 // 1 - b1^t
	BiasCorrection2 float64 // 1 - b2^t
}

// NewMomoAdam creates a MomoAdam transformation.
//
// Default hyperparameters:
//   - LR: 1.0 (MoMo is meant to be run with a large learning rate)
//   - Betas: [0.9, 0.999] (when nil)
//   - Eps: 1e-8
//   - LB: 0
//   - WeightDecay: 0
//   - NormThreshold: MachineEpsilon
//
// Returns a ConfigurationError if a value is out of range.
func NewMomoAdam(config MomoAdamConfig) (*MomoAdam, error) {
	// Set defaults
	if config.LR.IsZero() {
		config.LR = schedule.Constant(1.0)
	}
	betas := [2]float64{0.9, 0.999}
	if config.Betas != nil {
		betas = *config.Betas
	}
	config.Betas = &betas
	if config.Eps == 0 {
		config.Eps = 1e-8
	}
	if config.NormThreshold == 0 {
		config.NormThreshold = MachineEpsilon
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &MomoAdam{
		lr:            config.LR,
		beta1:         betas[0],
		beta2:         betas[1],
		eps:           config.Eps,
		lb:            config.LB,
		weightDecay:   config.WeightDecay,
		normThreshold: config.NormThreshold,
	}, nil
}

func (c MomoAdamConfig) validate() error {
	for i, b := range *c.Betas {
		if !(b >= 0 && b < 1) {
			return configError(fmt.Sprintf("beta%d must be in [0, 1), got %v", i+1, b), nil)
		}
	}
	if !(c.Eps > 0) {
		return configError(fmt.Sprintf("eps must be positive, got %v", c.Eps), nil)
	}
	if !(c.WeightDecay >= 0) {
		return configError(fmt.Sprintf("weight decay must be non-negative, got %v", c.WeightDecay), nil)
	}
	if !(c.NormThreshold > 0) {
		return configError(fmt.Sprintf("norm threshold must be positive, got %v", c.NormThreshold), nil)
	}
	if math.IsNaN(c.LB) {
		return configError("lower bound must be a number", nil)
	}
	if !c.LR.IsSchedule() && !(c.LR.At(0) > 0) {
		return configError(fmt.Sprintf("learning rate must be positive, got %v", c.LR.At(0)), nil)
	}
	return nil
}

// Config returns the resolved configuration, defaults included.
func (m *MomoAdam) Config() MomoAdamConfig {
	return MomoAdamConfig{
		LR:            m.lr,
		Betas:         &[2]float64{m.beta1, m.beta2},
		Eps:           m.eps,
		LB:            m.lb,
		WeightDecay:   m.weightDecay,
		NormThreshold: m.normThreshold,
	}
}

// LearningRate resolves the configured learning rate at the given step count.
func (m *MomoAdam) LearningRate(count int) float64 {
	return m.lr.At(count)
}

// Init returns the initial state for params: zero moments and Count 0.
func (m *MomoAdam) Init(params *tree.Tree) *MomoAdamState {
	return &MomoAdamState{
		ExpAvg:   tree.ZerosLike(params),
		ExpAvgSq: tree.ZerosLike(params),
	}
}

// Update computes one MoMo-Adam step.
//
// Parameters:
//   - updates: gradient of the loss at params
//   - state: state returned by Init or the previous Update
//   - params: current parameters (required)
//   - loss: loss evaluated at params (required)
//
// Returns the parameter update (to be added to params) and the new state.
// Missing params or loss, and trees whose structure does not match, produce a
// ConfigurationError; state is left untouched in every case.
func (m *MomoAdam) Update(
	updates *tree.Tree,
	state *MomoAdamState,
	params *tree.Tree,
	loss *float64,
) (*tree.Tree, *MomoAdamState, error) {
	pUpdate, next, _, err := m.UpdateWithInfo(updates, state, params, loss)
	return pUpdate, next, err
}

// UpdateWithInfo is Update that also reports the scalars derived during the step.
func (m *MomoAdam) UpdateWithInfo(
	updates *tree.Tree,
	state *MomoAdamState,
	params *tree.Tree,
	loss *float64,
) (*tree.Tree, *MomoAdamState, StepInfo, error) {
	if params == nil {
		return nil, nil, StepInfo{}, configError(NoParamsMsg, nil)
	}
	if loss == nil {
		return nil, nil, StepInfo{}, configError(NoLossMsg, nil)
	}
	if err := checkInputs(updates, state, params); err != nil {
		return nil, nil, StepInfo{}, err
	}

	beta1, beta2 := m.beta1, m.beta2
	count := state.Count
	alpha := m.lr.At(count)

	// Moving averages of the loss and the first two gradient moments.
	barf := beta1*state.Barf + (1-beta1)*(*loss)
	expAvg, err := tree.Map2(state.ExpAvg, updates, func(ea, g float64) float64 {
		return beta1*ea + (1-beta1)*g
	})
	if err != nil {
		return nil, nil, StepInfo{}, configError("gradient does not match state", err)
	}
	expAvgSq, err := tree.Map2(state.ExpAvgSq, updates, func(eas, g float64) float64 {
		return beta2*eas + (1-beta2)*g*g
	})
	if err != nil {
		return nil, nil, StepInfo{}, configError("gradient does not match state", err)
	}

	// Bias-corrected preconditioner and weighted momentum norm.
	bc2 := 1 - math.Pow(beta2, float64(count)+1)
	precond := tree.Map(expAvgSq, func(eas float64) float64 {
		return m.eps + math.Sqrt(eas/bc2)
	})
	expAvgWeighted, err := tree.Map2(expAvg, precond, func(ea, prec float64) float64 {
		return ea / prec
	})
	if err != nil {
		return nil, nil, StepInfo{}, configError("preconditioner does not match state", err)
	}
	expAvgNorm, err := tree.Vdot(expAvg, expAvgWeighted)
	if err != nil {
		return nil, nil, StepInfo{}, configError("preconditioner does not match state", err)
	}

	gradDotParams, err := tree.Vdot(updates, params)
	if err != nil {
		return nil, nil, StepInfo{}, configError("gradient does not match parameters", err)
	}
	gamma := beta1*state.Gamma + (1-beta1)*gradDotParams
	iprod, err := tree.Vdot(expAvg, params)
	if err != nil {
		return nil, nil, StepInfo{}, configError("state does not match parameters", err)
	}

	// Polyak step, capped by the bias-corrected learning rate.
	bc1 := 1 - math.Pow(beta1, float64(count)+1)
	var t1 float64
	if expAvgNorm > m.normThreshold {
		t1 = math.Max(0, (1+alpha*m.weightDecay)*(barf-bc1*m.lb-gamma)+iprod) / expAvgNorm
	}
	tau := math.Min(alpha/bc1, t1)

	decay := alpha * m.weightDecay / (1 + alpha*m.weightDecay)
	pUpdate, err := tree.AddScaled(tree.Scale(params, -decay), -tau, expAvgWeighted)
	if err != nil {
		return nil, nil, StepInfo{}, configError("state does not match parameters", err)
	}

	next := &MomoAdamState{
		ExpAvg:   expAvg,
		ExpAvgSq: expAvgSq,
		Barf:     barf,
		Gamma:    gamma,
		Count:    safeIncrement(count),
	}
	info := StepInfo{
		Alpha:           alpha,
		Tau:             tau,
		ExpAvgNorm:      expAvgNorm,
		BiasCorrection1: bc1,
		BiasCorrection2: bc2,
	}
	return pUpdate, next, info, nil
}

// checkInputs validates the trees passed to Update against each other.
func checkInputs(updates *tree.Tree, state *MomoAdamState, params *tree.Tree) error {
	if updates == nil {
		return configError("missing gradient", nil)
	}
	if state == nil || state.ExpAvg == nil || state.ExpAvgSq == nil {
		return configError("missing optimizer state", nil)
	}
	if state.Count < 0 {
		return configError(fmt.Sprintf("negative step count %d", state.Count), nil)
	}
	if err := tree.CheckStructure(params, updates); err != nil {
		return configError("gradient does not match parameters", err)
	}
	if err := tree.CheckStructure(params, state.ExpAvg); err != nil {
		return configError("first moment does not match parameters", err)
	}
	if err := tree.CheckStructure(params, state.ExpAvgSq); err != nil {
		return configError("second moment does not match parameters", err)
	}
	return nil
}

// safeIncrement returns count+1, saturating instead of overflowing.
func safeIncrement(count int) int {
	if count == math.MaxInt {
		return count
	}
	return count + 1
}
