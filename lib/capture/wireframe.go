package capture

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"github.com/ValentinKolb/synthd/lib/pose"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	BackendWireframe = "wireframe"
	BackendSolid     = "solid"
)

// ring geometry of the virtual cameras
const (
	ringRadius   = 4.0
	ringHeight   = 1.5
	fieldOfView  = 60.0 // vertical, degrees
	nearPlane    = 0.05
	depthRange   = 10.0
	maxPixelSpan = 1 << 15
)

var (
	background = color.RGBA{R: 24, G: 24, B: 32, A: 255}
	edgeColors = [3]color.RGBA{
		{R: 230, G: 80, B: 60, A: 255},  // edges along x
		{R: 90, G: 210, B: 90, A: 255},  // edges along y
		{R: 70, G: 130, B: 240, A: 255}, // edges along z
	}
)

// --------------------------------------------------------------------------
// Wireframe backend
// --------------------------------------------------------------------------

// Wireframe renders the edges of a unit cube placed by the pose. The cameras
// sit on a ring around the origin and look at it.
type Wireframe struct {
	enc *Encoder
}

// NewWireframe creates the wireframe backend
func NewWireframe() *Wireframe {
	return &Wireframe{enc: NewEncoder(png.BestSpeed)}
}

func (w *Wireframe) Name() string { return BackendWireframe }

func (w *Wireframe) Capture(cam Camera, index, count int, t pose.Transform) ([]byte, error) {
	if cam.Width <= 0 || cam.Height <= 0 {
		return nil, fmt.Errorf("camera %q: invalid frame size %dx%d", cam.Name, cam.Width, cam.Height)
	}

	frame := image.NewRGBA(image.Rect(0, 0, cam.Width, cam.Height))
	if !cam.DepthOnly {
		fill(frame, background)
	} else {
		fill(frame, color.RGBA{A: 255})
	}

	cv := newView(cam, index, count)
	verts := cubeVertices(t)

	for i := 0; i < 8; i++ {
		for axis, bit := range []int{1, 2, 4} {
			if i&bit != 0 {
				continue
			}
			a, okA := cv.project(verts[i])
			b, okB := cv.project(verts[i|bit])
			if !okA || !okB {
				continue
			}
			if cam.DepthOnly {
				drawLine(frame, a, b, nil)
			} else {
				c := edgeColors[axis]
				drawLine(frame, a, b, &c)
			}
		}
	}

	return w.enc.Encode(frame, cam.DepthOnly)
}

// cubeVertices returns the corners of the unit cube transformed by t.
// Vertex i has bit 0 set for +x, bit 1 for +y and bit 2 for +z.
func cubeVertices(t pose.Transform) [8]mgl64.Vec3 {
	rot := rotation(t.Rotation)
	pos := mgl64.Vec3{float64(t.Position.X), float64(t.Position.Y), float64(t.Position.Z)}

	var out [8]mgl64.Vec3
	for i := range out {
		local := mgl64.Vec3{-0.5, -0.5, -0.5}
		for axis := 0; axis < 3; axis++ {
			if i&(1<<axis) != 0 {
				local[axis] = 0.5
			}
		}
		scaled := mgl64.Vec3{
			local[0] * float64(t.Scale.X),
			local[1] * float64(t.Scale.Y),
			local[2] * float64(t.Scale.Z),
		}
		out[i] = rot.Mul3x1(scaled).Add(pos)
	}
	return out
}

// rotation builds the matrix for Euler angles in degrees, applied around z
// first, then x, then y
func rotation(deg pose.Vec3) mgl64.Mat3 {
	rx := mgl64.Rotate3DX(mgl64.DegToRad(float64(deg.X)))
	ry := mgl64.Rotate3DY(mgl64.DegToRad(float64(deg.Y)))
	rz := mgl64.Rotate3DZ(mgl64.DegToRad(float64(deg.Z)))
	return ry.Mul3(rx).Mul3(rz)
}

// --------------------------------------------------------------------------
// Camera projection
// --------------------------------------------------------------------------

type view struct {
	modelview, projection mgl64.Mat4
	width, height         int
}

type point struct {
	x, y  int
	depth float64
}

// newView places camera index of count on the ring, looking at the origin
func newView(cam Camera, index, count int) view {
	if count <= 0 {
		count = 1
	}
	angle := 2 * math.Pi * float64(index) / float64(count)
	eye := mgl64.Vec3{ringRadius * math.Sin(angle), ringHeight, -ringRadius * math.Cos(angle)}
	aspect := float64(cam.Width) / float64(cam.Height)

	return view{
		modelview:  mgl64.LookAtV(eye, mgl64.Vec3{}, mgl64.Vec3{0, 1, 0}),
		projection: mgl64.Perspective(mgl64.DegToRad(fieldOfView), aspect, nearPlane, nearPlane+depthRange),
		width:      cam.Width,
		height:     cam.Height,
	}
}

// project maps a world point to pixel coordinates with y pointing down.
// Points behind the near plane or far outside the frame are rejected.
func (v view) project(p mgl64.Vec3) (point, bool) {
	depth := -v.modelview.Mul4x1(p.Vec4(1)).Z()
	if depth < nearPlane {
		return point{}, false
	}
	win := mgl64.Project(p, v.modelview, v.projection, 0, 0, v.width, v.height)
	x, y := win.X(), float64(v.height)-win.Y()
	if math.Abs(x) > maxPixelSpan || math.Abs(y) > maxPixelSpan {
		return point{}, false
	}
	return point{x: int(math.Round(x)), y: int(math.Round(y)), depth: depth}, true
}

// --------------------------------------------------------------------------
// Rasterization helpers
// --------------------------------------------------------------------------

func fill(img *image.RGBA, c color.RGBA) {
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
}

// depthColor encodes the distance to the camera in the red channel, near is bright
func depthColor(depth float64) color.RGBA {
	v := 1 - (depth-nearPlane)/depthRange
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	r := uint8(math.Round(v * 255))
	return color.RGBA{R: r, G: r, B: r, A: 255}
}

// drawLine draws a line with Bresenham's algorithm. A nil color draws the
// interpolated depth instead.
func drawLine(img *image.RGBA, a, b point, c *color.RGBA) {
	dx := abs(b.x - a.x)
	dy := -abs(b.y - a.y)
	sx, sy := 1, 1
	if a.x > b.x {
		sx = -1
	}
	if a.y > b.y {
		sy = -1
	}
	steps := max(dx, -dy)
	errTerm := dx + dy
	x, y := a.x, a.y
	bounds := img.Bounds()

	for i := 0; ; i++ {
		if (image.Point{X: x, Y: y}).In(bounds) {
			if c != nil {
				img.SetRGBA(x, y, *c)
			} else {
				f := 0.0
				if steps > 0 {
					f = float64(i) / float64(steps)
				}
				img.SetRGBA(x, y, depthColor(a.depth+(b.depth-a.depth)*f))
			}
		}
		if x == b.x && y == b.y {
			return
		}
		e2 := 2 * errTerm
		if e2 >= dy {
			errTerm += dy
			x += sx
		}
		if e2 <= dx {
			errTerm += dx
			y += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
