// Package scene loads the YAML scene description: sampling mode, initial
// transform, axis ranges, cameras and capture backend.
package scene

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ValentinKolb/synthd/lib/capture"
	"github.com/ValentinKolb/synthd/lib/pose"
	"github.com/lni/dragonboat/v4/logger"
	"gopkg.in/yaml.v3"
)

var Logger = logger.GetLogger("scene")

// Scene is the complete configuration of the simulated scene
type Scene struct {
	Mode    pose.SamplingMode `json:"mode" yaml:"mode"`
	Initial pose.Transform    `json:"initial" yaml:"initial"`
	Axes    pose.Axes         `json:"axes" yaml:"axes"`
	Cameras []capture.Camera  `json:"cameras" yaml:"cameras"`
	Backend string            `json:"backend" yaml:"backend"`
}

// Default returns the built in scene: one color and one depth camera, the
// position randomized within half a unit and a free rotation around every axis
func Default() Scene {
	pos := pose.AxisConfig{Enabled: true, Range: pose.Range{Min: -0.5, Max: 0.5}}
	rot := pose.AxisConfig{Enabled: true, Range: pose.Range{Min: 0, Max: 360}}
	fixed := pose.AxisConfig{Range: pose.Range{Min: 1, Max: 1}}

	return Scene{
		Mode:    pose.Uniform,
		Initial: pose.IdentityTransform(),
		Axes: pose.Axes{
			Position: pose.AxisTriple{X: pos, Y: pos, Z: pos},
			Rotation: pose.AxisTriple{X: rot, Y: rot, Z: rot},
			Scale:    pose.AxisTriple{X: fixed, Y: fixed, Z: fixed},
		},
		Cameras: []capture.Camera{
			{Name: "rgb", Width: 320, Height: 240},
			{Name: "depth", DepthOnly: true, Width: 320, Height: 240},
		},
		Backend: capture.BackendWireframe,
	}
}

// Load reads and validates the scene file at path. An empty path returns the
// built in scene.
func Load(path string) (Scene, error) {
	if path == "" {
		Logger.Infof("No scene file given, using the built in scene")
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Scene{}, fmt.Errorf("error reading scene file '%s': %w", path, err)
	}

	s, err := Parse(data)
	if err != nil {
		return Scene{}, fmt.Errorf("error parsing scene file '%s': %w", path, err)
	}

	Logger.Infof("Loaded scene from %s: %d cameras, %s sampling, backend %s",
		path, len(s.Cameras), s.Mode, s.Backend)
	return s, nil
}

// Parse decodes a YAML scene and validates it. Unknown keys are rejected.
// Keys that are missing keep an identity initial transform and the
// wireframe backend.
func Parse(data []byte) (Scene, error) {
	s := Scene{
		Initial: pose.IdentityTransform(),
		Backend: capture.BackendWireframe,
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return Scene{}, err
	}

	if err := s.Validate(); err != nil {
		return Scene{}, err
	}
	return s, nil
}

// Validate checks ranges, cameras and the backend name
func (s Scene) Validate() error {
	if err := s.Axes.Validate(); err != nil {
		return err
	}

	seen := make(map[string]bool, len(s.Cameras))
	for i, cam := range s.Cameras {
		if cam.Name == "" {
			return fmt.Errorf("camera %d: name must not be empty", i)
		}
		if seen[cam.Name] {
			return fmt.Errorf("camera %q: duplicate name", cam.Name)
		}
		seen[cam.Name] = true
		if cam.Width <= 0 || cam.Height <= 0 {
			return fmt.Errorf("camera %q: width and height must be positive", cam.Name)
		}
	}

	if _, ok := capture.Lookup(s.Backend); !ok {
		return fmt.Errorf("unknown capture backend %q (available: %v)", s.Backend, capture.Backends())
	}
	return nil
}

// Marshal renders the scene as YAML
func (s Scene) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}
