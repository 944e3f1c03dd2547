package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/ValentinKolb/synthd/lib/capture"
	"github.com/ValentinKolb/synthd/lib/pose"
	"github.com/ValentinKolb/synthd/lib/queue"
	"github.com/ValentinKolb/synthd/lib/scene"
	"github.com/ValentinKolb/synthd/rpc/common"
	"github.com/ValentinKolb/synthd/rpc/serializer"
	"github.com/ValentinKolb/synthd/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("server")

// Server ties the listener, the command queue and the dispatcher together
type Server struct {
	config     common.ServerConfig
	scene      scene.Scene
	transport  transport.IServerTransport
	queue      *queue.Queue[Command]
	sampler    *pose.Sampler
	pipeline   capture.ICapturePipeline
	dispatcher *Dispatcher
	metrics    *serverMetrics

	bound boundAddr
}

// boundAddr guards the bound address, which is read by the status server
type boundAddr struct {
	mu   sync.RWMutex
	addr net.Addr
}

// NewServer creates a stream server for the scene. The transport is not bound
// until Bind or Serve is called.
//
// Usage:
//
//	s, err := server.NewServer(config, scene.Default(), tcp.NewTCPServerTransport())
//	if err != nil {
//		return err
//	}
//	if err := s.Serve(ctx); err != nil {
//		return err
//	}
func NewServer(config common.ServerConfig, sc scene.Scene, t transport.IServerTransport) (*Server, error) {
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scene: %w", err)
	}
	pipeline, err := capture.New(sc.Backend)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:    config,
		scene:     sc,
		transport: t,
		queue:     queue.New[Command](queue.Options{MaxPending: config.MaxPending}),
		sampler:   pose.NewSampler(sc.Axes, sc.Mode, sc.Initial),
		pipeline:  pipeline,
	}
	s.metrics = newServerMetrics(
		func() float64 { return float64(s.queue.Len()) },
		func() float64 {
			if t.Slot().Load() != nil {
				return 1
			}
			return 0
		},
	)
	s.dispatcher = &Dispatcher{
		sampler:      s.sampler,
		pipeline:     pipeline,
		cameras:      sc.Cameras,
		serializer:   serializer.NewJSONSerializer(),
		slot:         t.Slot(),
		queue:        s.queue,
		writeTimeout: config.WriteTimeout,
		metrics:      s.metrics,
	}

	t.RegisterHandler(s.enqueue)

	Logger.Infof("Created stream server with %d camera(s) and the %s backend", len(sc.Cameras), pipeline.Name())
	Logger.Infof(config.String())
	return s, nil
}

// enqueue is called by the transport for every receive
func (s *Server) enqueue(session *transport.Session, cmd string) {
	if !s.queue.Push(&Command{Text: cmd, Session: session.ID, Received: time.Now()}) {
		s.metrics.rejected.Inc()
		Logger.Warningf("Command %q from session %s was not queued", cmd, session.ShortID())
	}
}

// Bind binds the listener and returns its address. Serve binds on its own if
// Bind was not called before.
func (s *Server) Bind() (net.Addr, error) {
	addr, err := s.transport.Bind(s.config)
	if err != nil {
		return nil, err
	}
	s.bound.mu.Lock()
	s.bound.addr = addr
	s.bound.mu.Unlock()
	return addr, nil
}

// Addr returns the bound address or nil
func (s *Server) Addr() net.Addr {
	s.bound.mu.RLock()
	defer s.bound.mu.RUnlock()
	return s.bound.addr
}

// Serve runs the listener and the dispatcher until ctx is cancelled or the
// listener fails. Pending commands are discarded on shutdown.
func (s *Server) Serve(ctx context.Context) error {
	if s.Addr() == nil {
		if _, err := s.Bind(); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.dispatcher.Run(ctx); err != nil {
			Logger.Errorf("Dispatcher stopped: %v", err)
		}
	}()

	Logger.Infof("Stream server listening on %s", s.Addr())
	err := s.transport.Serve(ctx)

	cancel()
	s.queue.Close()
	wg.Wait()

	discarded := 0
	for range s.queue.Recv() {
		discarded++
	}
	if discarded > 0 {
		Logger.Warningf("Discarded %d pending command(s) on shutdown", discarded)
	}

	stats := s.Stats()
	Logger.Infof("Stream server stopped: commands=%d malformed=%d unanswered=%d rejected=%d write_errors=%d serialize_errors=%d capture_errors=%d",
		stats.Commands, stats.Malformed, stats.Unanswered, stats.Rejected, stats.WriteErrors, stats.SerializeErrors, stats.CaptureErrors)
	s.metrics.close()

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Stats returns a snapshot of the counters and timers
func (s *Server) Stats() Stats {
	stats := s.metrics.snapshot()
	stats.QueueLength = s.queue.Len()
	if session := s.transport.Slot().Load(); session != nil {
		stats.Connected = true
		stats.Session = session.ID
	}
	return stats
}

// WritePrometheus writes the series of this server in Prometheus text format
func (s *Server) WritePrometheus(w io.Writer) {
	s.metrics.writePrometheus(w)
}

// Sampler returns the pose sampler of the server
func (s *Server) Sampler() *pose.Sampler {
	return s.sampler
}

// Scene returns the scene the server was created with
func (s *Server) Scene() scene.Scene {
	return s.scene
}
