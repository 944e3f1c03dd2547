package status

import (
	"context"
	"errors"
	"io"
	"strconv"
	"time"

	"github.com/ValentinKolb/synthd/lib/pose"
	"github.com/ValentinKolb/synthd/lib/scene"
	"github.com/ValentinKolb/synthd/rpc/server"
	vm "github.com/VictoriaMetrics/metrics"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("status")

// maxSummaryCount limits the number of indices sampled by one stats request
const maxSummaryCount = 100_000

// IStatusSource is the part of the stream server the status server reads from
type IStatusSource interface {
	Stats() server.Stats
	WritePrometheus(w io.Writer)
	Sampler() *pose.Sampler
	Scene() scene.Scene
}

// StatusServer is a read only HTTP view on a running stream server
type StatusServer struct {
	app    *fiber.App
	source IStatusSource
}

// NewStatusServer creates the HTTP app and registers all routes
func NewStatusServer(source IStatusSource) *StatusServer {
	app := fiber.New(fiber.Config{
		AppName:               "synthd status",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	app.Use(recover.New())
	app.Use(loggerMiddleware)

	s := &StatusServer{app: app, source: source}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})
	app.Get("/metrics", s.handleMetrics)

	api := app.Group("/api/v1")
	api.Get("/stats", s.handleStats)
	api.Get("/scene", s.handleScene)
	api.Get("/pose/summary", s.handleSummary)
	api.Get("/pose/:index", s.handlePose)

	return s
}

// App returns the fiber app, mainly for tests
func (s *StatusServer) App() *fiber.App {
	return s.app
}

// Serve listens on endpoint until ctx is cancelled
func (s *StatusServer) Serve(ctx context.Context, endpoint string) error {
	errCh := make(chan error, 1)
	go func() {
		Logger.Infof("Starting status server on %s", endpoint)
		errCh <- s.app.Listen(endpoint)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
		return err
	}
	Logger.Infof("Status server stopped")
	return nil
}

// --------------------------------------------------------------------------
// Handlers
// --------------------------------------------------------------------------

// handleMetrics writes the process wide series followed by the series of the
// stream server
func (s *StatusServer) handleMetrics(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/plain; version=0.0.4")
	w := c.Response().BodyWriter()
	vm.WritePrometheus(w, true)
	s.source.WritePrometheus(w)
	return nil
}

func (s *StatusServer) handleStats(c *fiber.Ctx) error {
	return c.JSON(s.source.Stats())
}

func (s *StatusServer) handleScene(c *fiber.Ctx) error {
	data, err := s.source.Scene().Marshal()
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "application/x-yaml")
	return c.Send(data)
}

// handlePose samples an index against the initial transform. The live
// transform of the stream server is not changed.
func (s *StatusServer) handlePose(c *fiber.Ctx) error {
	index, err := server.ParseIndex(c.Params("index"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	sampler := s.source.Sampler()
	return c.JSON(fiber.Map{
		"index": index,
		"mode":  sampler.Mode().String(),
		"pose":  sampler.Preview(index),
	})
}

// handleSummary returns axis statistics over count consecutive indices
func (s *StatusServer) handleSummary(c *fiber.Ctx) error {
	from, err := server.ParseIndex(c.Query("from", "0"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	count, err := strconv.Atoi(c.Query("count", "1000"))
	if err != nil || count <= 0 || count > maxSummaryCount {
		return fiber.NewError(fiber.StatusBadRequest, "count must be between 1 and "+strconv.Itoa(maxSummaryCount))
	}

	sc := s.source.Scene()
	return c.JSON(pose.Summarize(from, count, sc.Axes, sc.Mode, sc.Initial))
}

// --------------------------------------------------------------------------
// Middleware and errors
// --------------------------------------------------------------------------

// loggerMiddleware logs every request at debug level
func loggerMiddleware(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	Logger.Debugf("%s %s => %d took %s", c.Method(), c.Path(), c.Response().StatusCode(), time.Since(start))
	return err
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
