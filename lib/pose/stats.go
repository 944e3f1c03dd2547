package pose

import "math"

// ----------------------------------------------------------------------------
// Statistics over sampled poses
// ----------------------------------------------------------------------------

// Stats summarizes a series of values of one axis
type Stats struct {
	Mean         float64 `json:"mean" yaml:"mean"`
	StdDeviation float64 `json:"std_deviation" yaml:"std_deviation"`
	Min          float64 `json:"min" yaml:"min"`
	Max          float64 `json:"max" yaml:"max"`
	// AtBounds is the share of values equal to the configured min or max
	AtBounds float64 `json:"at_bounds" yaml:"at_bounds"`
}

// NewStats computes mean, population standard deviation, min and max of values
func NewStats(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}

	// initialize min and max with the first value
	min := values[0]
	max := values[0]

	var sum float64
	for _, v := range values {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	mean := sum / float64(len(values))

	var sumSquaredDiffs float64
	for _, v := range values {
		diff := v - mean
		sumSquaredDiffs += diff * diff
	}

	return Stats{
		Mean:         mean,
		StdDeviation: math.Sqrt(sumSquaredDiffs / float64(len(values))),
		Min:          min,
		Max:          max,
	}
}

// Summary holds the statistics of every axis
type Summary struct {
	Count    int              `json:"count" yaml:"count"`
	Mode     SamplingMode     `json:"mode" yaml:"mode"`
	Position map[string]Stats `json:"position" yaml:"position"`
	Scale    map[string]Stats `json:"scale" yaml:"scale"`
	Rotation map[string]Stats `json:"rotation" yaml:"rotation"`
}

// Summarize samples count consecutive indices starting at from against the
// given transform and returns per-axis statistics. Disabled axes report the
// constant value of current. The window ends at the largest index, so
// Count can be smaller than count.
func Summarize(from int32, count int, axes Axes, mode SamplingMode, current Transform) Summary {
	if remaining := int64(math.MaxInt32) - int64(from) + 1; int64(count) > remaining {
		count = int(remaining)
	}
	if count < 0 {
		count = 0
	}
	samples := make([]Sample, 0, count)
	for i := 0; i < count; i++ {
		samples = append(samples, Draw(from+int32(i), axes, mode, current))
	}

	component := func(get func(Sample) Vec3, cfg AxisTriple) map[string]Stats {
		xs := make([]float64, len(samples))
		ys := make([]float64, len(samples))
		zs := make([]float64, len(samples))
		for i, s := range samples {
			v := get(s)
			xs[i], ys[i], zs[i] = float64(v.X), float64(v.Y), float64(v.Z)
		}
		return map[string]Stats{
			"x": withBounds(NewStats(xs), xs, cfg.X),
			"y": withBounds(NewStats(ys), ys, cfg.Y),
			"z": withBounds(NewStats(zs), zs, cfg.Z),
		}
	}

	return Summary{
		Count:    len(samples),
		Mode:     mode,
		Position: component(func(s Sample) Vec3 { return s.Position }, axes.Position),
		Scale:    component(func(s Sample) Vec3 { return s.Scale }, axes.Scale),
		Rotation: component(func(s Sample) Vec3 { return s.Rotation }, axes.Rotation),
	}
}

// withBounds fills in the share of values sitting exactly on a range bound
func withBounds(s Stats, values []float64, cfg AxisConfig) Stats {
	if !cfg.Enabled || len(values) == 0 {
		return s
	}
	lo, hi := float64(cfg.Range.Min), float64(cfg.Range.Max)
	hits := 0
	for _, v := range values {
		if v == lo || v == hi {
			hits++
		}
	}
	s.AtBounds = float64(hits) / float64(len(values))
	return s
}
