package scene

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ValentinKolb/synthd/lib/pose"
)

const sampleScene = `
mode: gaussian
initial:
  position: {x: 0, y: 1, z: 0}
  scale: {x: 2, y: 2, z: 2}
  rotation: {x: 0, y: 0, z: 0}
axes:
  position:
    x: {enabled: true, range: {min: -1, max: 1}}
  rotation:
    y: {enabled: true, range: {min: 0, max: 360}}
cameras:
  - {name: front, width: 64, height: 48}
  - {name: front_depth, depth_only: true, width: 64, height: 48}
backend: solid
`

func TestParse(t *testing.T) {
	s, err := Parse([]byte(sampleScene))
	if err != nil {
		t.Fatal(err)
	}

	if s.Mode != pose.Gaussian {
		t.Errorf("mode: got %v", s.Mode)
	}
	if s.Initial.Scale.X != 2 || s.Initial.Position.Y != 1 {
		t.Errorf("initial transform: %+v", s.Initial)
	}
	if !s.Axes.Position.X.Enabled || s.Axes.Position.X.Range.Min != -1 {
		t.Errorf("position.x: %+v", s.Axes.Position.X)
	}
	if s.Axes.Position.Y.Enabled {
		t.Error("position.y should be disabled")
	}
	if len(s.Cameras) != 2 || !s.Cameras[1].DepthOnly || s.Cameras[1].Name != "front_depth" {
		t.Errorf("cameras: %+v", s.Cameras)
	}
	if s.Backend != "solid" {
		t.Errorf("backend: %q", s.Backend)
	}
}

func TestParseDefaults(t *testing.T) {
	s, err := Parse([]byte("cameras: []\n"))
	if err != nil {
		t.Fatal(err)
	}
	if s.Initial != pose.IdentityTransform() {
		t.Errorf("expected identity transform, got %+v", s.Initial)
	}
	if s.Backend != "wireframe" || s.Mode != pose.Uniform {
		t.Errorf("unexpected defaults: %+v", s)
	}
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"min greater than max": "axes:\n  scale:\n    z: {enabled: true, range: {min: 3, max: 1}}\n",
		"unknown mode":         "mode: poisson\n",
		"unknown key":          "colour: red\n",
		"duplicate camera":     "cameras:\n  - {name: a, width: 1, height: 1}\n  - {name: a, width: 1, height: 1}\n",
		"empty camera name":    "cameras:\n  - {width: 1, height: 1}\n",
		"zero sized camera":    "cameras:\n  - {name: a, width: 0, height: 1}\n",
		"unknown backend":      "backend: raytracer\n",
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(doc)); err == nil {
				t.Errorf("expected an error for %q", doc)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	if err := os.WriteFile(path, []byte(sampleScene), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Cameras) != 2 {
		t.Errorf("expected 2 cameras, got %d", len(s.Cameras))
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}

	def, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if err := def.Validate(); err != nil {
		t.Errorf("built in scene is invalid: %v", err)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	data, err := Default().Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "mode: uniform") {
		t.Errorf("mode not rendered as text:\n%s", data)
	}

	s, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if s.Axes != Default().Axes || len(s.Cameras) != len(Default().Cameras) {
		t.Error("scene changed after a marshal round trip")
	}
}
