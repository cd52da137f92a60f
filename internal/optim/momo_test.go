package optim_test

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/momo/internal/optim"
	"github.com/born-ml/momo/internal/schedule"
	"github.com/born-ml/momo/internal/tree"
)

// quadratic returns f(x) = 0.5 * ||x||² and its gradient x.
func quadratic(t *testing.T, x *tree.Tree) (float64, *tree.Tree) {
	t.Helper()
	sq, err := tree.Vdot(x, x)
	require.NoError(t, err)
	return 0.5 * sq, x.Clone()
}

func TestMomo_NilParams(t *testing.T) {
	_, err := optim.NewMomo(nil, optim.MomoAdamConfig{})
	assert.ErrorIs(t, err, optim.ErrConfiguration)
}

func TestMomo_StepMatchesUpdate(t *testing.T) {
	params := nestedParams(t)
	grads := nestedGrads(t)
	config := optim.MomoAdamConfig{WeightDecay: 0.05}

	optimizer, err := optim.NewMomo(params, config)
	require.NoError(t, err)
	require.NoError(t, optimizer.Step(grads, 0.8))

	opt := newOptimizer(t, config)
	update, state, err := opt.Update(grads, opt.Init(params), params, optim.Loss(0.8))
	require.NoError(t, err)
	want, err := tree.Apply(params, update)
	require.NoError(t, err)

	assert.Equal(t, leaves(want), leaves(optimizer.Params()))
	assert.Equal(t, state.Barf, optimizer.State().Barf)
	assert.Equal(t, 1, optimizer.GetTimestep())
	assert.Greater(t, optimizer.GetTau(), 0.0)
}

func TestMomo_StepErrorLeavesStateUnchanged(t *testing.T) {
	params := nestedParams(t)
	optimizer, err := optim.NewMomo(params, optim.MomoAdamConfig{})
	require.NoError(t, err)

	err = optimizer.Step(tree.Scalar(1), 1.0)
	assert.ErrorIs(t, err, optim.ErrConfiguration)
	assert.Equal(t, 0, optimizer.GetTimestep())
	assert.Same(t, params, optimizer.Params())
}

func TestMomo_GetLRFollowsSchedule(t *testing.T) {
	params := tree.FromSlice([]float64{1, 2})
	optimizer, err := optim.NewMomo(params, optim.MomoAdamConfig{
		LR: schedule.FromSchedule(schedule.LinearSchedule(1.0, 0.0, 4)),
	})
	require.NoError(t, err)

	assert.Equal(t, 1.0, optimizer.GetLR())
	require.NoError(t, optimizer.Step(tree.FromSlice([]float64{0.1, 0.2}), 2.5))
	assert.InDelta(t, 0.75, optimizer.GetLR(), 1e-12)
	assert.Equal(t, 1.0, optimizer.LastStep().Alpha)
}

// TestMomo_Convergence checks that MoMo-Adam minimizes f(x) = 0.5 * ||x||²
// with the exact lower bound of zero.
func TestMomo_Convergence(t *testing.T) {
	params := tree.FromSlice([]float64{3.0, -2.0, 0.5})
	optimizer, err := optim.NewMomo(params, optim.MomoAdamConfig{})
	require.NoError(t, err)

	initial, _ := quadratic(t, params)
	for i := 0; i < 300; i++ {
		loss, grads := quadratic(t, optimizer.Params())
		require.NoError(t, optimizer.Step(grads, loss))
	}

	final, _ := quadratic(t, optimizer.Params())
	assert.Less(t, final, initial/10, "loss should drop by an order of magnitude")
	assert.Equal(t, 300, optimizer.GetTimestep())
}

func TestMomo_StateDictRoundTrip(t *testing.T) {
	params := nestedParams(t)
	grads := nestedGrads(t)

	a, err := optim.NewMomo(params, optim.MomoAdamConfig{})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, a.Step(grads, 1.0/float64(i+1)))
	}

	b, err := optim.NewMomo(a.Params(), optim.MomoAdamConfig{})
	require.NoError(t, err)
	require.NoError(t, b.LoadStateDict(a.StateDict()))
	assert.Equal(t, 3, b.GetTimestep())

	// Both optimizers now take the same step.
	require.NoError(t, a.Step(grads, 0.2))
	require.NoError(t, b.Step(grads, 0.2))
	assert.Equal(t, leaves(a.Params()), leaves(b.Params()))
	assert.Equal(t, a.State().Gamma, b.State().Gamma)
}

func TestMomo_LoadStateDictErrors(t *testing.T) {
	params := nestedParams(t)
	optimizer, err := optim.NewMomo(params, optim.MomoAdamConfig{})
	require.NoError(t, err)

	valid := optimizer.StateDict()

	t.Run("missing key", func(t *testing.T) {
		dict := optimizer.StateDict()
		delete(dict, "gamma")
		assert.Error(t, optimizer.LoadStateDict(dict))
	})

	t.Run("shape mismatch", func(t *testing.T) {
		dict := optimizer.StateDict()
		dict["exp_avg"] = tree.FromSlice([]float64{1, 2, 3})
		err := optimizer.LoadStateDict(dict)
		require.Error(t, err)
		assert.ErrorIs(t, err, tree.ErrStructureMismatch)
	})

	t.Run("fractional count", func(t *testing.T) {
		dict := optimizer.StateDict()
		dict["count"] = tree.Scalar(1.5)
		assert.Error(t, optimizer.LoadStateDict(dict))
	})

	t.Run("non-scalar barf", func(t *testing.T) {
		dict := optimizer.StateDict()
		dict["barf"] = tree.FromSlice([]float64{1, 2})
		assert.ErrorIs(t, optimizer.LoadStateDict(dict), tree.ErrNotScalar)
	})

	t.Run("negative second moment", func(t *testing.T) {
		dict := optimizer.StateDict()
		dict["exp_avg_sq"] = tree.Map(dict["exp_avg_sq"], func(float64) float64 { return -1e-3 })
		assert.Error(t, optimizer.LoadStateDict(dict))
	})

	t.Run("count beyond exact float64 range", func(t *testing.T) {
		for _, count := range []float64{1 << 53, math.Pow(2, 63), math.Inf(1), math.NaN()} {
			dict := optimizer.StateDict()
			dict["count"] = tree.Scalar(count)
			assert.Error(t, optimizer.LoadStateDict(dict), "count %v", count)
		}
	})

	require.NoError(t, optimizer.LoadStateDict(valid))
	assert.Equal(t, 0, optimizer.GetTimestep())
}

func TestMomo_Checkpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "momo.safetensors")
	params := nestedParams(t)
	grads := nestedGrads(t)

	a, err := optim.NewMomo(params, optim.MomoAdamConfig{WeightDecay: 0.01})
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		require.NoError(t, a.Step(grads, 2.0/float64(i+1)))
	}
	require.NoError(t, a.SaveCheckpoint(path))

	b, err := optim.NewMomo(nestedParams(t), optim.MomoAdamConfig{WeightDecay: 0.01})
	require.NoError(t, err)
	require.NoError(t, b.LoadCheckpoint(path))

	assert.Equal(t, 4, b.GetTimestep())
	assert.Equal(t, leaves(a.Params()), leaves(b.Params()))
	assert.Equal(t, a.State().Barf, b.State().Barf)
	assert.Equal(t, leaves(a.State().ExpAvgSq), leaves(b.State().ExpAvgSq))

	other, err := optim.NewMomo(tree.Scalar(1), optim.MomoAdamConfig{})
	require.NoError(t, err)
	assert.Error(t, other.LoadCheckpoint(path))
	assert.Equal(t, 0, other.GetTimestep())
}
