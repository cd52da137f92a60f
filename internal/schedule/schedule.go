// Package schedule resolves learning rates that are either constants or
// functions of the optimizer step count.
package schedule

import "math"

// Schedule maps a step count to a learning rate.
type Schedule func(count int) float64

// ScalarOrSchedule is a learning rate that is either a constant or a Schedule.
//
// The zero value is the constant 0 and is treated by optimizers as "unset".
type ScalarOrSchedule struct {
	value float64
	fn    Schedule
}

// Constant returns a fixed learning rate.
func Constant(v float64) ScalarOrSchedule {
	return ScalarOrSchedule{value: v}
}

// FromSchedule wraps a Schedule. A nil schedule yields the zero value.
func FromSchedule(fn Schedule) ScalarOrSchedule {
	return ScalarOrSchedule{fn: fn}
}

// IsSchedule reports whether the learning rate depends on the step count.
func (s ScalarOrSchedule) IsSchedule() bool {
	return s.fn != nil
}

// IsZero reports whether s is the unset zero value.
func (s ScalarOrSchedule) IsZero() bool {
	return s.fn == nil && s.value == 0
}

// At resolves the learning rate for the given step count.
func (s ScalarOrSchedule) At(count int) float64 {
	if s.fn != nil {
		return s.fn(count)
	}
	return s.value
}

// ConstantSchedule returns a Schedule that always yields v.
func ConstantSchedule(v float64) Schedule {
	return func(int) float64 { return v }
}

// LinearSchedule interpolates linearly from init to end over transitionSteps
// and holds end afterwards.
func LinearSchedule(init, end float64, transitionSteps int) Schedule {
	if transitionSteps <= 0 {
		return ConstantSchedule(init)
	}
	return func(count int) float64 {
		frac := clamp01(float64(count) / float64(transitionSteps))
		return init + frac*(end-init)
	}
}

// CosineDecay decays init towards alpha*init over decaySteps following half a
// cosine period, then holds alpha*init.
func CosineDecay(init float64, decaySteps int, alpha float64) Schedule {
	if decaySteps <= 0 {
		return ConstantSchedule(init)
	}
	return func(count int) float64 {
		progress := clamp01(float64(count) / float64(decaySteps))
		cosine := 0.5 * (1.0 + math.Cos(math.Pi*progress))
		return init * ((1-alpha)*cosine + alpha)
	}
}

// WarmupCosineDecay warms up linearly from init to peak over warmupSteps, then
// follows a cosine decay from peak to end until totalSteps.
func WarmupCosineDecay(init, peak float64, warmupSteps, totalSteps int, end float64) Schedule {
	warmup := LinearSchedule(init, peak, warmupSteps)
	decaySteps := totalSteps - warmupSteps
	return func(count int) float64 {
		if count < warmupSteps {
			return warmup(count)
		}
		if decaySteps <= 0 {
			return peak
		}
		progress := clamp01(float64(count-warmupSteps) / float64(decaySteps))
		return end + 0.5*(peak-end)*(1.0+math.Cos(math.Pi*progress))
	}
}

// ExponentialDecay returns init * rate^(count/transitionSteps).
// With staircase set the exponent is floored to an integer.
func ExponentialDecay(init, rate float64, transitionSteps int, staircase bool) Schedule {
	if transitionSteps <= 0 {
		return ConstantSchedule(init)
	}
	return func(count int) float64 {
		p := float64(count) / float64(transitionSteps)
		if staircase {
			p = math.Floor(p)
		}
		return init * math.Pow(rate, p)
	}
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
