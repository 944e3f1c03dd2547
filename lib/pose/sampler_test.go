package pose

import (
	"math"
	"testing"
)

func allAxes(r Range) Axes {
	c := AxisConfig{Enabled: true, Range: r}
	t := AxisTriple{X: c, Y: c, Z: c}
	return Axes{Position: t, Rotation: t, Scale: t}
}

func TestDrawDeterminism(t *testing.T) {
	axes := allAxes(Range{Min: -10, Max: 10})

	for _, mode := range []SamplingMode{Uniform, Gaussian} {
		t.Run(mode.String(), func(t *testing.T) {
			for _, index := range []int32{0, 1, 42, 1000, math.MaxInt32} {
				a := Draw(index, axes, mode, IdentityTransform())
				b := Draw(index, axes, mode, IdentityTransform())
				if a != b {
					t.Errorf("index %d: got different samples %+v and %+v", index, a, b)
				}
			}
		})
	}
}

func TestDrawDiffersBetweenIndices(t *testing.T) {
	axes := allAxes(Range{Min: -10, Max: 10})
	seen := make(map[Sample]int32)
	for index := int32(0); index < 100; index++ {
		s := Draw(index, axes, Uniform, IdentityTransform())
		if prev, ok := seen[s]; ok {
			t.Fatalf("index %d produced the same sample as index %d", index, prev)
		}
		seen[s] = index
	}
}

func TestSamplerApplyIsStateless(t *testing.T) {
	axes := allAxes(Range{Min: 0, Max: 5})
	sampler := NewSampler(axes, Uniform, IdentityTransform())

	first := sampler.Apply(42)
	sampler.Apply(7)
	sampler.Apply(1234)
	again := sampler.Apply(42)

	if first != again {
		t.Errorf("expected identical samples for index 42, got %+v and %+v", first, again)
	}
	if sampler.Current() != again.Transform() {
		t.Errorf("live transform %+v does not match last sample %+v", sampler.Current(), again)
	}
}

func TestDisabledAxesKeepCurrentValue(t *testing.T) {
	axes := Axes{}
	axes.Position.Y = AxisConfig{Enabled: true, Range: Range{Min: 1, Max: 2}}

	current := Transform{
		Position: Vec3{X: 3, Y: 99, Z: -4},
		Scale:    Vec3{X: 2, Y: 2, Z: 2},
		Rotation: Vec3{X: 10, Y: 20, Z: 30},
	}

	s := Draw(5, axes, Uniform, current)
	if s.Position.X != 3 || s.Position.Z != -4 {
		t.Errorf("disabled position axes changed: %+v", s.Position)
	}
	if s.Scale != current.Scale || s.Rotation != current.Rotation {
		t.Errorf("disabled components changed: %+v", s)
	}
	if s.Position.Y < 1 || s.Position.Y >= 2 {
		t.Errorf("enabled axis out of range: %v", s.Position.Y)
	}
}

func TestDrawOrder(t *testing.T) {
	r := Range{Min: -3, Max: 7}

	// every axis that is enabled alone consumes the first draw of the generator
	only := func(set func(a *Axes)) Sample {
		a := Axes{}
		set(&a)
		return Draw(42, a, Uniform, Transform{})
	}
	c := AxisConfig{Enabled: true, Range: r}

	px := only(func(a *Axes) { a.Position.X = c }).Position.X
	sx := only(func(a *Axes) { a.Scale.X = c }).Scale.X
	rz := only(func(a *Axes) { a.Rotation.Z = c }).Rotation.Z
	if px != sx || px != rz {
		t.Errorf("expected the first draw for every single axis, got %v %v %v", px, sx, rz)
	}

	// with position.x and scale.x enabled, scale.x gets the second draw
	both := Draw(42, Axes{Position: AxisTriple{X: c}, Scale: AxisTriple{X: c}}, Uniform, Transform{})
	if both.Position.X != px {
		t.Errorf("position.x should keep the first draw: %v != %v", both.Position.X, px)
	}
	rotFirst := Draw(42, Axes{Scale: AxisTriple{X: c}, Rotation: AxisTriple{X: c}}, Uniform, Transform{})
	if both.Scale.X != rotFirst.Rotation.X {
		t.Errorf("second draw mismatch: scale.x %v, rotation.x %v", both.Scale.X, rotFirst.Rotation.X)
	}
}

func TestAxisIndependenceOfLaterAxes(t *testing.T) {
	c := AxisConfig{Enabled: true, Range: Range{Min: 0, Max: 1}}
	base := Axes{Position: AxisTriple{X: c, Y: c}}
	withRotation := base
	withRotation.Rotation.Z = c

	for index := int32(0); index < 50; index++ {
		a := Draw(index, base, Gaussian, Transform{})
		b := Draw(index, withRotation, Gaussian, Transform{})
		if a.Position != b.Position {
			t.Fatalf("index %d: enabling a later axis changed earlier values", index)
		}
	}
}

func TestRangeContainment(t *testing.T) {
	ranges := []Range{
		{Min: -10, Max: 10},
		{Min: 0, Max: 1},
		{Min: 0.5, Max: 0.5000001},
		{Min: -1e6, Max: 1e6},
		{Min: 0, Max: 360},
		{Min: -3e38, Max: 3e38},
		{Min: -math.MaxFloat32, Max: math.MaxFloat32},
	}

	for _, r := range ranges {
		axes := allAxes(r)
		for index := int32(0); index < 5000; index++ {
			u := Draw(index, axes, Uniform, Transform{})
			g := Draw(index, axes, Gaussian, Transform{})
			for _, v := range []float32{u.Position.X, u.Scale.Y, u.Rotation.Z} {
				if math.IsNaN(float64(v)) || v < r.Min || v >= r.Max {
					t.Fatalf("uniform value %v outside [%v, %v)", v, r.Min, r.Max)
				}
			}
			for _, v := range []float32{g.Position.X, g.Scale.Y, g.Rotation.Z} {
				if math.IsNaN(float64(v)) || v < r.Min || v > r.Max {
					t.Fatalf("gaussian value %v outside [%v, %v]", v, r.Min, r.Max)
				}
			}
		}
	}
}

func TestEmptyRangeYieldsMin(t *testing.T) {
	axes := allAxes(Range{Min: 2.5, Max: 2.5})
	for _, mode := range []SamplingMode{Uniform, Gaussian} {
		s := Draw(9, axes, mode, Transform{})
		if s.Position.X != 2.5 || s.Rotation.Z != 2.5 {
			t.Errorf("%s: expected 2.5, got %+v", mode, s)
		}
	}
}

func TestGaussianIsClippedAtBounds(t *testing.T) {
	axes := allAxes(Range{Min: -10, Max: 10})
	summary := Summarize(0, 20000, axes, Gaussian, Transform{})

	x := summary.Position["x"]
	if x.AtBounds < 0.2 || x.AtBounds > 0.45 {
		t.Errorf("expected roughly a third of the values on a bound, got %v", x.AtBounds)
	}
	if math.Abs(x.Mean) > 0.5 {
		t.Errorf("expected mean close to 0, got %v", x.Mean)
	}

	uniform := Summarize(0, 20000, axes, Uniform, Transform{}).Position["x"]
	if uniform.AtBounds > 0.01 {
		t.Errorf("uniform values should almost never hit a bound, got %v", uniform.AtBounds)
	}
}

func TestValueInUnitInterval(t *testing.T) {
	for seed := int32(-5); seed < 5; seed++ {
		rng := newXorshift128(seed)
		for i := 0; i < 1000; i++ {
			v := rng.value()
			if v < 0 || v >= 1 {
				t.Fatalf("seed %d: value %v outside [0, 1)", seed, v)
			}
		}
	}
}

func TestAxesValidate(t *testing.T) {
	axes := allAxes(Range{Min: 0, Max: 1})
	if err := axes.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	axes.Scale.Y.Range = Range{Min: 2, Max: 1}
	if err := axes.Validate(); err == nil {
		t.Fatal("expected an error for min > max")
	}

	inf := float32(math.Inf(1))
	nan := float32(math.NaN())
	for _, r := range []Range{{Min: -inf, Max: 0}, {Min: 0, Max: inf}, {Min: nan, Max: 1}, {Min: 0, Max: nan}} {
		axes := allAxes(Range{Min: 0, Max: 1})
		axes.Rotation.X.Range = r
		if err := axes.Validate(); err == nil {
			t.Errorf("expected an error for non finite range [%v, %v]", r.Min, r.Max)
		}
	}
}

func TestGaussianTransform(t *testing.T) {
	r := Range{Min: -10, Max: 10}
	axes := allAxes(r)

	for index := int32(0); index < 1000; index++ {
		rng := newXorshift128(index)
		u1, u2 := rng.value(), rng.value()
		if u1 == 0 {
			continue
		}

		z := math.Sqrt(-2*math.Log(float64(u1))) * math.Sin(2*math.Pi*float64(u2))
		unit := math.Min(math.Max(z/2+0.5, 0), 1)
		want := float64(r.Min) + float64(r.Max-r.Min)*unit

		got := Draw(index, axes, Gaussian, Transform{}).Position.X
		if math.Abs(float64(got)-want) > 1e-3 {
			t.Fatalf("index %d: got %v, want %v (u1=%v, u2=%v)", index, got, want, u1, u2)
		}
	}
}

func TestGaussianZeroDraw(t *testing.T) {
	r := Range{Min: -2, Max: 2}

	// u1 = 0 and u2 = 0: the sine is 0, the value is the middle of the range
	if v := gaussian(&xorshift128{}, r); v != 0 {
		t.Errorf("expected the midpoint 0, got %v", v)
	}

	// u1 = 0 and a small positive u2: an infinite magnitude clamps to max
	for y := uint32(1); y <= 64; y++ {
		if v := gaussian(&xorshift128{y: y}, r); v != r.Max {
			t.Fatalf("y=%d: expected %v, got %v", y, r.Max, v)
		}
	}
}

func TestParseSamplingMode(t *testing.T) {
	tests := map[string]struct {
		want    SamplingMode
		wantErr bool
	}{
		"uniform":  {Uniform, false},
		"Gaussian": {Gaussian, false},
		" normal ": {Gaussian, false},
		"":         {Uniform, false},
		"poisson":  {Uniform, true},
	}

	for in, tc := range tests {
		t.Run(in, func(t *testing.T) {
			got, err := ParseSamplingMode(in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("unexpected error state: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}
