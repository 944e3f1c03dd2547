package pose

import (
	"math"
	"sync"
)

// Draw samples the pose for index. Disabled axes keep the value found in
// current. Draw is a pure function: the same arguments always produce the
// same bits.
func Draw(index int32, axes Axes, mode SamplingMode, current Transform) Sample {
	rng := newXorshift128(index)

	draw := func(c AxisConfig, keep float32) float32 {
		if !c.Enabled {
			return keep
		}
		if mode == Gaussian {
			return gaussian(rng, c.Range)
		}
		return uniform(rng, c.Range)
	}

	// the order of the statements below is part of the reproducibility contract
	s := Sample{}
	s.Position.X = draw(axes.Position.X, current.Position.X)
	s.Position.Y = draw(axes.Position.Y, current.Position.Y)
	s.Position.Z = draw(axes.Position.Z, current.Position.Z)

	s.Scale.X = draw(axes.Scale.X, current.Scale.X)
	s.Scale.Y = draw(axes.Scale.Y, current.Scale.Y)
	s.Scale.Z = draw(axes.Scale.Z, current.Scale.Z)

	s.Rotation.X = draw(axes.Rotation.X, current.Rotation.X)
	s.Rotation.Y = draw(axes.Rotation.Y, current.Rotation.Y)
	s.Rotation.Z = draw(axes.Rotation.Z, current.Rotation.Z)

	return s
}

// uniform maps one draw onto [min, max)
func uniform(rng *xorshift128, r Range) float32 {
	u := rng.value()
	if r.Max <= r.Min {
		return r.Min
	}

	v := lerp(r, u)

	// rounding of min + span*u can land on max for wide ranges
	if v >= r.Max {
		v = math.Nextafter32(r.Max, r.Min)
	}
	return v
}

// gaussian maps two draws onto [min, max] using one branch of Box-Muller
func gaussian(rng *xorshift128, r Range) float32 {
	u1 := rng.value()
	u2 := rng.value()

	// u1 == 0 gives an infinite magnitude: z is +-Inf, or NaN when the sine is 0
	lg := float32(math.Log(float64(u1)))
	mag := float32(math.Sqrt(float64(-2 * lg)))
	angle := float32(2 * math.Pi * float64(u2))
	z := float32(mag * float32(math.Sin(float64(angle))))

	unit := float32(z/2) + 0.5
	switch {
	case math.IsNaN(float64(unit)):
		unit = 0.5
	case unit < 0:
		unit = 0
	case unit > 1:
		unit = 1
	}

	if r.Max <= r.Min {
		return r.Min
	}
	return lerp(r, unit)
}

// lerp returns min + (max-min)*unit clamped to [min, max]. Spans that do not
// fit into a float32 are computed in float64.
func lerp(r Range, unit float32) float32 {
	var v float32
	if span := r.Max - r.Min; !math.IsInf(float64(span), 0) {
		v = float32(unit*span) + r.Min
	} else {
		v = float32(float64(r.Min) + (float64(r.Max)-float64(r.Min))*float64(unit))
	}

	if v < r.Min {
		v = r.Min
	} else if v > r.Max {
		v = r.Max
	}
	return v
}

// --------------------------------------------------------------------------
// Sampler (owns the live transform)
// --------------------------------------------------------------------------

// Sampler owns the live transform of the target object and applies sampled
// poses to it. It is used from the dispatcher goroutine; the mutex only guards
// readers such as the status server.
type Sampler struct {
	mu      sync.RWMutex
	axes    Axes
	mode    SamplingMode
	initial Transform
	current Transform
}

// NewSampler creates a sampler whose live transform starts at initial
func NewSampler(axes Axes, mode SamplingMode, initial Transform) *Sampler {
	return &Sampler{
		axes:    axes,
		mode:    mode,
		initial: initial,
		current: initial,
	}
}

// Apply samples index against the live transform and replaces the live
// transform with the result
func (s *Sampler) Apply(index int32) Sample {
	s.mu.Lock()
	defer s.mu.Unlock()

	sample := Draw(index, s.axes, s.mode, s.current)
	s.current = sample.Transform()
	return sample
}

// Preview samples index against the initial transform without touching the
// live state
func (s *Sampler) Preview(index int32) Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Draw(index, s.axes, s.mode, s.initial)
}

// Current returns the live transform
func (s *Sampler) Current() Transform {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Mode returns the sampling mode
func (s *Sampler) Mode() SamplingMode {
	return s.mode
}

// Axes returns the axis configuration
func (s *Sampler) Axes() Axes {
	return s.axes
}
