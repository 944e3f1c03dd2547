package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/ValentinKolb/synthd/lib/capture"
	"github.com/ValentinKolb/synthd/lib/pose"
	"github.com/ValentinKolb/synthd/lib/queue"
	"github.com/ValentinKolb/synthd/lib/scene"
	"github.com/ValentinKolb/synthd/rpc/common"
	"github.com/ValentinKolb/synthd/rpc/framing"
	"github.com/ValentinKolb/synthd/rpc/serializer"
	"github.com/ValentinKolb/synthd/rpc/transport"
	"github.com/ValentinKolb/synthd/rpc/transport/tcp"
)

// echoPipeline returns the camera name as image and fails for cameras named "broken"
type echoPipeline struct{}

func (echoPipeline) Capture(cam capture.Camera, _, _ int, _ pose.Transform) ([]byte, error) {
	if cam.Name == "broken" {
		return nil, errors.New("render failed")
	}
	return []byte(cam.Name), nil
}

func (echoPipeline) Name() string { return "echo" }

func init() {
	capture.Register("echo", func() capture.ICapturePipeline { return echoPipeline{} })
}

func testScene(cameras ...string) scene.Scene {
	sc := scene.Default()
	sc.Backend = "echo"
	sc.Cameras = nil
	for _, name := range cameras {
		sc.Cameras = append(sc.Cameras, capture.Camera{Name: name, Width: 4, Height: 4})
	}
	return sc
}

// expectedResponse builds the bytes the server sends for index, sampled
// against current
func expectedResponse(t *testing.T, sc scene.Scene, index int32, current pose.Transform, images ...string) []byte {
	t.Helper()
	sample := pose.Draw(index, sc.Axes, sc.Mode, current)
	doc, err := serializer.NewJSONSerializer().Serialize(sample)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	framing.WritePayload(&buf, framing.TagJSON, doc)
	framing.WriteMarker(&buf, framing.MarkerStartCameras)
	framing.WriteUint32(&buf, uint32(len(images)))
	for _, img := range images {
		framing.WritePayload(&buf, framing.TagImage, []byte(img))
	}
	framing.WriteMarker(&buf, framing.MarkerEndCameras)
	framing.WriteMarker(&buf, framing.MarkerEOT)
	return buf.Bytes()
}

func startServer(t *testing.T, sc scene.Scene) (*Server, net.Addr, context.CancelFunc, chan error) {
	t.Helper()
	cfg := common.DefaultServerConfig()
	cfg.Transport.Endpoint = "127.0.0.1:0"

	s, err := NewServer(cfg, sc, tcp.NewTCPServerTransport())
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	addr, err := s.Bind()
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()
	return s, addr, cancel, done
}

func readN(t *testing.T, conn net.Conn, n int) []byte {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	buf := make([]byte, n)
	if _, err := io.ReadFull(conn, buf); err != nil {
		t.Fatalf("reading %d bytes: %v", n, err)
	}
	return buf
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// --------------------------------------------------------------------------
// End to end over TCP
// --------------------------------------------------------------------------

func TestServeResponseBytes(t *testing.T) {
	sc := testScene("rgb", "depth")
	_, addr, cancel, done := startServer(t, sc)
	defer cancel()

	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("42")); err != nil {
		t.Fatal(err)
	}

	want := expectedResponse(t, sc, 42, sc.Initial, "rgb", "depth")
	got := readN(t, conn, len(want))
	if !bytes.Equal(got, want) {
		t.Fatalf("response mismatch\n got: %q\nwant: %q", got, want)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestServeSequentialCommandsChainTransforms(t *testing.T) {
	sc := testScene("rgb")
	s, addr, cancel, _ := startServer(t, sc)
	defer cancel()

	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	current := sc.Initial
	for _, index := range []int32{3, 1, 3} {
		if _, err := conn.Write([]byte(strconv.Itoa(int(index)) + "\n")); err != nil {
			t.Fatal(err)
		}
		want := expectedResponse(t, sc, index, current, "rgb")
		got := readN(t, conn, len(want))
		if !bytes.Equal(got, want) {
			t.Fatalf("index %d: response mismatch", index)
		}
		current = pose.Draw(index, sc.Axes, sc.Mode, current).Transform()
	}

	if s.Sampler().Current() != current {
		t.Errorf("live transform %+v, want %+v", s.Sampler().Current(), current)
	}
	if stats := s.Stats(); stats.Commands != 3 || !stats.Connected {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestServeMalformedCommandIsDropped(t *testing.T) {
	sc := testScene("rgb")
	s, addr, cancel, _ := startServer(t, sc)
	defer cancel()

	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	conn.Write([]byte("abc"))
	waitFor(t, "malformed command", func() bool { return s.Stats().Malformed == 1 })

	// the connection stays usable and the live transform is untouched
	conn.Write([]byte("5"))
	want := expectedResponse(t, sc, 5, sc.Initial, "rgb")
	if got := readN(t, conn, len(want)); !bytes.Equal(got, want) {
		t.Fatal("response after malformed command does not match")
	}
}

func TestNewServerRejectsInvalidScene(t *testing.T) {
	sc := testScene("rgb")
	sc.Backend = "does-not-exist"
	if _, err := NewServer(common.DefaultServerConfig(), sc, tcp.NewTCPServerTransport()); err == nil {
		t.Error("expected an error for an unknown backend")
	}
}

// --------------------------------------------------------------------------
// Dispatcher
// --------------------------------------------------------------------------

func newTestDispatcher(sc scene.Scene) (*Dispatcher, *transport.ConnSlot) {
	slot := &transport.ConnSlot{}
	q := queue.New[Command](queue.Options{})
	return &Dispatcher{
		sampler:    pose.NewSampler(sc.Axes, sc.Mode, sc.Initial),
		pipeline:   echoPipeline{},
		cameras:    sc.Cameras,
		serializer: serializer.NewJSONSerializer(),
		slot:       slot,
		queue:      q,
		metrics:    newServerMetrics(func() float64 { return 0 }, func() float64 { return 0 }),
	}, slot
}

func TestProcessWithoutClientStillAppliesPose(t *testing.T) {
	sc := testScene("rgb")
	d, _ := newTestDispatcher(sc)
	defer d.metrics.close()

	d.Process(&Command{Text: "9"})

	want := pose.Draw(9, sc.Axes, sc.Mode, sc.Initial).Transform()
	if got := d.sampler.Current(); got != want {
		t.Errorf("live transform %+v, want %+v", got, want)
	}
	if d.metrics.skipped.Get() != 1 {
		t.Errorf("expected one unanswered command, got %d", d.metrics.skipped.Get())
	}
}

func TestProcessCaptureErrorSendsEmptyImage(t *testing.T) {
	sc := testScene("rgb", "broken", "depth")
	d, slot := newTestDispatcher(sc)
	defer d.metrics.close()

	serverEnd, clientEnd := net.Pipe()
	defer clientEnd.Close()
	session := transport.NewSession(serverEnd)
	slot.Swap(session)

	want := expectedResponse(t, sc, 7, sc.Initial, "rgb", "", "depth")
	go d.Process(&Command{Text: "7"})

	if got := readN(t, clientEnd, len(want)); !bytes.Equal(got, want) {
		t.Fatalf("response mismatch\n got: %q\nwant: %q", got, want)
	}
	waitFor(t, "capture error count", func() bool { return d.metrics.captureErrors.Get() == 1 })
	if slot.Load() != session {
		t.Error("a capture error must not drop the session")
	}
}

func TestProcessWriteFailureClearsSlot(t *testing.T) {
	sc := testScene("rgb")
	d, slot := newTestDispatcher(sc)
	defer d.metrics.close()

	serverEnd, clientEnd := net.Pipe()
	clientEnd.Close()
	slot.Swap(transport.NewSession(serverEnd))

	d.Process(&Command{Text: "1"})

	if slot.Load() != nil {
		t.Error("the session should be removed after a failed write")
	}
	if d.metrics.writeErrors.Get() != 1 {
		t.Errorf("expected one write error, got %d", d.metrics.writeErrors.Get())
	}
	// the pose is applied before the write
	want := pose.Draw(1, sc.Axes, sc.Mode, sc.Initial).Transform()
	if d.sampler.Current() != want {
		t.Error("the pose should be applied even when the write fails")
	}
}

func TestRunProcessesInOrder(t *testing.T) {
	sc := testScene("rgb")
	d, _ := newTestDispatcher(sc)
	defer d.metrics.close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	current := sc.Initial
	for _, index := range []int32{4, 8, 15, 16, 23, 42} {
		d.queue.Push(&Command{Text: strconv.Itoa(int(index))})
		current = pose.Draw(index, sc.Axes, sc.Mode, current).Transform()
	}
	waitFor(t, "all commands", func() bool { return d.metrics.commands.Get() == 6 })

	if d.sampler.Current() != current {
		t.Error("commands were not applied in arrival order")
	}

	cancel()
	d.queue.Close()
	if err := <-done; err != nil {
		t.Errorf("Run returned %v", err)
	}
}

func TestRunAnswersBacklogInOrder(t *testing.T) {
	sc := testScene("rgb")
	d, slot := newTestDispatcher(sc)
	defer d.metrics.close()

	serverEnd, clientEnd := net.Pipe()
	defer clientEnd.Close()
	slot.Swap(transport.NewSession(serverEnd))

	// the commands are queued before the dispatcher wakes up for the first time
	var want []byte
	current := sc.Initial
	for _, index := range []int32{3, 1, 2} {
		if !d.queue.Push(&Command{Text: strconv.Itoa(int(index))}) {
			t.Fatalf("push of %d failed", index)
		}
		want = append(want, expectedResponse(t, sc, index, current, "rgb")...)
		current = pose.Draw(index, sc.Axes, sc.Mode, current).Transform()
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	if got := readN(t, clientEnd, len(want)); !bytes.Equal(got, want) {
		t.Fatalf("backlog responses out of order\n got: %q\nwant: %q", got, want)
	}

	cancel()
	d.queue.Close()
	if err := <-done; err != nil {
		t.Errorf("Run returned %v", err)
	}
}

func TestProcessWideRangesAnswer(t *testing.T) {
	sc := testScene("rgb")
	sc.Mode = pose.Gaussian
	wide := pose.AxisConfig{Enabled: true, Range: pose.Range{Min: -math.MaxFloat32, Max: math.MaxFloat32}}
	sc.Axes.Position = pose.AxisTriple{X: wide, Y: wide, Z: wide}
	sc.Axes.Rotation = pose.AxisTriple{X: wide, Y: wide, Z: wide}
	sc.Axes.Scale = pose.AxisTriple{X: wide, Y: wide, Z: wide}

	d, slot := newTestDispatcher(sc)
	defer d.metrics.close()

	serverEnd, clientEnd := net.Pipe()
	defer clientEnd.Close()
	session := transport.NewSession(serverEnd)
	slot.Swap(session)

	current := sc.Initial
	for index := int32(0); index < 20; index++ {
		want := expectedResponse(t, sc, index, current, "rgb")
		go d.Process(&Command{Text: strconv.Itoa(int(index))})
		if got := readN(t, clientEnd, len(want)); !bytes.Equal(got, want) {
			t.Fatalf("index %d: response mismatch\n got: %q\nwant: %q", index, got, want)
		}
		current = pose.Draw(index, sc.Axes, sc.Mode, current).Transform()
	}

	waitFor(t, "all commands", func() bool { return d.metrics.commands.Get() == 20 })
	if slot.Load() != session {
		t.Error("the session should survive wide ranges")
	}
	if n := d.metrics.writeErrors.Get() + d.metrics.serializeErrors.Get(); n != 0 {
		t.Errorf("expected no errors, got %d", n)
	}
}

// failingSerializer rejects every sample
type failingSerializer struct{ serializer.IPoseSerializer }

func (failingSerializer) Serialize(pose.Sample) ([]byte, error) {
	return nil, errors.New("unsupported value")
}

func TestProcessSerializeErrorKeepsSession(t *testing.T) {
	sc := testScene("rgb")
	d, slot := newTestDispatcher(sc)
	defer d.metrics.close()
	d.serializer = failingSerializer{}

	serverEnd, clientEnd := net.Pipe()
	defer clientEnd.Close()
	session := transport.NewSession(serverEnd)
	slot.Swap(session)

	// nothing is written, so Process does not block on the pipe
	d.Process(&Command{Text: "5"})

	if slot.Load() != session {
		t.Error("a serialization failure must not drop the session")
	}
	if d.metrics.serializeErrors.Get() != 1 || d.metrics.writeErrors.Get() != 0 {
		t.Errorf("expected one serialize error and no write error, got %d and %d",
			d.metrics.serializeErrors.Get(), d.metrics.writeErrors.Get())
	}
	want := pose.Draw(5, sc.Axes, sc.Mode, sc.Initial).Transform()
	if d.sampler.Current() != want {
		t.Error("the pose should be applied even when it cannot be serialized")
	}
}

func TestParseIndex(t *testing.T) {
	valid := map[string]int32{
		"0":          0,
		"42":         42,
		" 42\n":      42,
		"\t7\r\n":    7,
		"+3":         3,
		"2147483647": 2147483647,
	}
	for in, want := range valid {
		got, err := ParseIndex(in)
		if err != nil || got != want {
			t.Errorf("ParseIndex(%q) = %d, %v; want %d", in, got, err, want)
		}
	}

	for _, in := range []string{"", "abc", "-1", "4 2", "2147483648", "1.5", "0x10"} {
		if _, err := ParseIndex(in); !errors.Is(err, ErrMalformedCommand) {
			t.Errorf("ParseIndex(%q) should fail with ErrMalformedCommand, got %v", in, err)
		}
	}
}
