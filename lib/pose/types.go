package pose

import (
	"fmt"
	"math"
	"strings"
)

// --------------------------------------------------------------------------
// Vectors and transforms
// --------------------------------------------------------------------------

// Vec3 is a three component float32 vector
type Vec3 struct {
	X float32 `json:"x" yaml:"x"`
	Y float32 `json:"y" yaml:"y"`
	Z float32 `json:"z" yaml:"z"`
}

// Transform is the live placement of the target object.
// Rotation is given in Euler degrees.
type Transform struct {
	Position Vec3 `json:"position" yaml:"position"`
	Scale    Vec3 `json:"scale" yaml:"scale"`
	Rotation Vec3 `json:"rotation" yaml:"rotation"`
}

// IdentityTransform returns a transform at the origin with unit scale and no rotation
func IdentityTransform() Transform {
	return Transform{Scale: Vec3{X: 1, Y: 1, Z: 1}}
}

// Sample is the result of sampling one index. The field order is the order in
// which the values are serialized on the wire (position, scale, rotation).
type Sample struct {
	Position Vec3 `json:"position"`
	Scale    Vec3 `json:"scale"`
	Rotation Vec3 `json:"rotation"`
}

// Transform converts the sample back into a transform
func (s Sample) Transform() Transform {
	return Transform{Position: s.Position, Scale: s.Scale, Rotation: s.Rotation}
}

// --------------------------------------------------------------------------
// Axis configuration
// --------------------------------------------------------------------------

// Range is a closed interval [Min, Max]
type Range struct {
	Min float32 `json:"min" yaml:"min"`
	Max float32 `json:"max" yaml:"max"`
}

// AxisConfig configures the randomization of a single axis
type AxisConfig struct {
	Enabled bool  `json:"enabled" yaml:"enabled"`
	Range   Range `json:"range" yaml:"range"`
}

// AxisTriple groups the x, y and z axis of one transform component
type AxisTriple struct {
	X AxisConfig `json:"x" yaml:"x"`
	Y AxisConfig `json:"y" yaml:"y"`
	Z AxisConfig `json:"z" yaml:"z"`
}

// Axes holds the configuration of all nine axes
type Axes struct {
	Position AxisTriple `json:"position" yaml:"position"`
	Rotation AxisTriple `json:"rotation" yaml:"rotation"`
	Scale    AxisTriple `json:"scale" yaml:"scale"`
}

// Validate checks that every range has finite bounds with min <= max
func (a Axes) Validate() error {
	check := func(name string, c AxisConfig) error {
		if !finite(c.Range.Min) || !finite(c.Range.Max) {
			return fmt.Errorf("axis %s: bounds must be finite, got [%v, %v]", name, c.Range.Min, c.Range.Max)
		}
		if c.Range.Min > c.Range.Max {
			return fmt.Errorf("axis %s: min %v is greater than max %v", name, c.Range.Min, c.Range.Max)
		}
		return nil
	}

	for _, axis := range []struct {
		name string
		cfg  AxisConfig
	}{
		{"position.x", a.Position.X}, {"position.y", a.Position.Y}, {"position.z", a.Position.Z},
		{"rotation.x", a.Rotation.X}, {"rotation.y", a.Rotation.Y}, {"rotation.z", a.Rotation.Z},
		{"scale.x", a.Scale.X}, {"scale.y", a.Scale.Y}, {"scale.z", a.Scale.Z},
	} {
		if err := check(axis.name, axis.cfg); err != nil {
			return err
		}
	}
	return nil
}

func finite(v float32) bool {
	return !math.IsNaN(float64(v)) && !math.IsInf(float64(v), 0)
}

// --------------------------------------------------------------------------
// Sampling mode
// --------------------------------------------------------------------------

// SamplingMode selects the distribution used for every enabled axis
type SamplingMode int

const (
	Uniform SamplingMode = iota
	Gaussian
)

// String returns the lower case name of the mode
func (m SamplingMode) String() string {
	switch m {
	case Uniform:
		return "uniform"
	case Gaussian:
		return "gaussian"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// ParseSamplingMode parses "uniform" or "gaussian" (case insensitive)
func ParseSamplingMode(s string) (SamplingMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "uniform", "":
		return Uniform, nil
	case "gaussian", "normal":
		return Gaussian, nil
	default:
		return Uniform, fmt.Errorf("invalid sampling mode: %q (expected uniform or gaussian)", s)
	}
}

// MarshalText implements encoding.TextMarshaler
func (m SamplingMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (m *SamplingMode) UnmarshalText(text []byte) error {
	mode, err := ParseSamplingMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}
