package capture

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"github.com/ValentinKolb/synthd/lib/pose"
)

// Solid fills the frame with a single color derived from the pose. It is the
// cheapest backend and mainly used by tests and load experiments.
type Solid struct {
	enc *Encoder
}

// NewSolid creates the solid color backend
func NewSolid() *Solid {
	return &Solid{enc: NewEncoder(png.BestSpeed)}
}

func (s *Solid) Name() string { return BackendSolid }

func (s *Solid) Capture(cam Camera, _, _ int, t pose.Transform) ([]byte, error) {
	if cam.Width <= 0 || cam.Height <= 0 {
		return nil, fmt.Errorf("camera %q: invalid frame size %dx%d", cam.Name, cam.Width, cam.Height)
	}

	frame := image.NewRGBA(image.Rect(0, 0, cam.Width, cam.Height))
	fill(frame, PoseColor(t))
	return s.enc.Encode(frame, cam.DepthOnly)
}

// PoseColor maps position to red, green and blue and ignores the rest
func PoseColor(t pose.Transform) color.RGBA {
	channel := func(v float32) uint8 {
		f := math.Mod(math.Abs(float64(v)), 1)
		return uint8(math.Round(f * 255))
	}
	return color.RGBA{
		R: channel(t.Position.X),
		G: channel(t.Position.Y),
		B: channel(t.Position.Z),
		A: 255,
	}
}
