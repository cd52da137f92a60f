package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/momo/internal/optim"
)

func TestLoad_WarmupCosine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "momo.yaml")
	content := `
learning_rate:
  kind: warmup_cosine
  init: 0.0
  peak: 1.0
  warmup_steps: 10
  total_steps: 110
betas: [0.95, 0.99]
eps: 1.0e-6
lb: -0.5
weight_decay: 0.01
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	h, err := Load(path)
	require.NoError(t, err)

	cfg, err := h.MomoAdamConfig()
	require.NoError(t, err)

	assert.Equal(t, &[2]float64{0.95, 0.99}, cfg.Betas)
	assert.Equal(t, 1e-6, cfg.Eps)
	assert.Equal(t, -0.5, cfg.LB)
	assert.Equal(t, 0.01, cfg.WeightDecay)
	assert.True(t, cfg.LR.IsSchedule())
	assert.Equal(t, 0.0, cfg.LR.At(0))
	assert.InDelta(t, 1.0, cfg.LR.At(10), 1e-12)

	_, err = optim.NewMomoAdam(cfg)
	assert.NoError(t, err)
}

func TestParse_ScalarLearningRate(t *testing.T) {
	h, err := Parse([]byte("learning_rate: 0.5\n"))
	require.NoError(t, err)

	cfg, err := h.MomoAdamConfig()
	require.NoError(t, err)
	assert.False(t, cfg.LR.IsSchedule())
	assert.Equal(t, 0.5, cfg.LR.At(100))
}

func TestParse_EmptyUsesDefaults(t *testing.T) {
	h, err := Parse(nil)
	require.NoError(t, err)

	cfg, err := h.MomoAdamConfig()
	require.NoError(t, err)

	opt, err := optim.NewMomoAdam(cfg)
	require.NoError(t, err)
	assert.Equal(t, 1.0, opt.LearningRate(0))
	assert.Equal(t, &[2]float64{0.9, 0.999}, opt.Config().Betas)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown field", "momentum: 0.9\n"},
		{"wrong betas length", "betas: [0.9]\n"},
		{"bad learning rate", "learning_rate: fast\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content))
			assert.Error(t, err)
		})
	}
}

func TestSchedule_UnknownKind(t *testing.T) {
	h, err := Parse([]byte("learning_rate:\n  kind: triangle\n"))
	require.NoError(t, err)

	_, err = h.MomoAdamConfig()
	assert.ErrorContains(t, err, "triangle")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParse_ZeroBetaIsKept(t *testing.T) {
	h, err := Parse([]byte("betas: [0.0, 0.999]\n"))
	require.NoError(t, err)

	cfg, err := h.MomoAdamConfig()
	require.NoError(t, err)
	assert.Equal(t, &[2]float64{0, 0.999}, cfg.Betas)

	opt, err := optim.NewMomoAdam(cfg)
	require.NoError(t, err)
	assert.Equal(t, &[2]float64{0, 0.999}, opt.Config().Betas)
}
