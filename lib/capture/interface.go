package capture

import (
	"fmt"
	"sort"

	"github.com/ValentinKolb/synthd/lib/pose"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("capture")

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// Camera describes one capture camera
type Camera struct {
	Name      string `json:"name" yaml:"name"`
	DepthOnly bool   `json:"depth_only" yaml:"depth_only"`
	Width     int    `json:"width" yaml:"width"`
	Height    int    `json:"height" yaml:"height"`
}

// ICapturePipeline renders the scene as seen by one camera and returns the
// encoded image bytes (PNG). Implementations are called from the dispatcher
// goroutine only.
type ICapturePipeline interface {
	// Capture renders the target object placed at t through cam.
	// index is the position of cam in the declared camera list and count the
	// length of that list.
	Capture(cam Camera, index, count int, t pose.Transform) ([]byte, error)
	// Name returns the registered backend name
	Name() string
}

// Factory creates a capture pipeline
type Factory func() ICapturePipeline

// --------------------------------------------------------------------------
// Backend registry
// --------------------------------------------------------------------------

var registry = xsync.NewMapOf[string, Factory]()

// Register makes a backend available under name. A second registration under
// the same name replaces the first.
func Register(name string, factory Factory) {
	registry.Store(name, factory)
}

// Lookup returns the factory registered under name
func Lookup(name string) (Factory, bool) {
	return registry.Load(name)
}

// New creates the backend registered under name
func New(name string) (ICapturePipeline, error) {
	f, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown capture backend %q (available: %v)", name, Backends())
	}
	return f(), nil
}

// Backends returns the sorted names of all registered backends
func Backends() []string {
	names := make([]string, 0, registry.Size())
	registry.Range(func(name string, _ Factory) bool {
		names = append(names, name)
		return true
	})
	sort.Strings(names)
	return names
}

func init() {
	Register(BackendWireframe, func() ICapturePipeline { return NewWireframe() })
	Register(BackendSolid, func() ICapturePipeline { return NewSolid() })
}
