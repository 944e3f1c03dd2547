package serializer

import (
	"math"
	"strings"
	"testing"

	"github.com/ValentinKolb/synthd/lib/pose"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() IPoseSerializer{
	"JSON":   NewJSONSerializer,
	"Binary": NewBinarySerializer,
}

func testSamples() []pose.Sample {
	axes := pose.Axes{}
	c := pose.AxisConfig{Enabled: true, Range: pose.Range{Min: -100, Max: 100}}
	axes.Position = pose.AxisTriple{X: c, Y: c, Z: c}
	axes.Rotation = pose.AxisTriple{X: c, Y: c, Z: c}

	samples := []pose.Sample{
		{},
		{Scale: pose.Vec3{X: 1, Y: 1, Z: 1}},
		{Position: pose.Vec3{X: math.MaxFloat32, Y: -math.SmallestNonzeroFloat32, Z: 0.1}},
	}
	for i := int32(0); i < 20; i++ {
		samples = append(samples, pose.Draw(i, axes, pose.Gaussian, pose.IdentityTransform()))
	}
	return samples
}

// TestSerializerRoundTrip tests that samples survive a round trip bit for bit
func TestSerializerRoundTrip(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			s := factory()
			for i, sample := range testSamples() {
				data, err := s.Serialize(sample)
				if err != nil {
					t.Fatalf("sample %d: serialize failed: %v", i, err)
				}
				var got pose.Sample
				if err := s.Deserialize(data, &got); err != nil {
					t.Fatalf("sample %d: deserialize failed: %v", i, err)
				}
				if got != sample {
					t.Errorf("sample %d: got %+v, want %+v", i, got, sample)
				}
			}
		})
	}
}

func TestJSONFieldOrder(t *testing.T) {
	data, err := NewJSONSerializer().Serialize(pose.Sample{
		Position: pose.Vec3{X: 1, Y: 2, Z: 3},
		Scale:    pose.Vec3{X: 1, Y: 1, Z: 1},
		Rotation: pose.Vec3{X: 0, Y: 90.5, Z: 0},
	})
	if err != nil {
		t.Fatal(err)
	}

	want := `{"position":{"x":1,"y":2,"z":3},"scale":{"x":1,"y":1,"z":1},"rotation":{"x":0,"y":90.5,"z":0}}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}
	if strings.Index(string(data), "scale") > strings.Index(string(data), "rotation") {
		t.Error("scale must be serialized before rotation")
	}
}

func TestBinaryInvalidLength(t *testing.T) {
	var s pose.Sample
	if err := NewBinarySerializer().Deserialize(make([]byte, 10), &s); err == nil {
		t.Error("expected an error for a short record")
	}
}

func TestNew(t *testing.T) {
	for _, name := range []string{"json", "binary", "bin"} {
		if _, ok := New(name); !ok {
			t.Errorf("serializer %q not found", name)
		}
	}
	if _, ok := New("gob"); ok {
		t.Error("gob should not be available")
	}
}
