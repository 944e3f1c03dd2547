package server

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ValentinKolb/synthd/lib/capture"
	"github.com/ValentinKolb/synthd/lib/pose"
	"github.com/ValentinKolb/synthd/lib/queue"
	"github.com/ValentinKolb/synthd/rpc/framing"
	"github.com/ValentinKolb/synthd/rpc/serializer"
	"github.com/ValentinKolb/synthd/rpc/transport"
)

// ErrMalformedCommand is returned by ParseIndex for text that is not a valid index
var ErrMalformedCommand = errors.New("malformed command")

// Command is the text of one receive together with the session it arrived on
type Command struct {
	Text     string
	Session  string
	Received time.Time
}

// asciiSpace is the set of characters trimmed from a command
const asciiSpace = " \t\r\n\v\f"

// ParseIndex parses a command into a pose index. Leading and trailing ASCII
// whitespace is ignored; anything but a base 10 integer in [0, 2^31-1] is
// rejected.
func ParseIndex(text string) (int32, error) {
	trimmed := strings.Trim(text, asciiSpace)
	n, err := strconv.ParseInt(trimmed, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a 32 bit integer", ErrMalformedCommand, trimmed)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: negative index %d", ErrMalformedCommand, n)
	}
	return int32(n), nil
}

// --------------------------------------------------------------------------
// Dispatcher
// --------------------------------------------------------------------------

// Dispatcher owns the sampler, the capture pipeline and every write to the
// client. It runs on a single goroutine and handles one command at a time.
type Dispatcher struct {
	sampler      *pose.Sampler
	pipeline     capture.ICapturePipeline
	cameras      []capture.Camera
	serializer   serializer.IPoseSerializer
	slot         *transport.ConnSlot
	queue        *queue.Queue[Command]
	writeTimeout time.Duration
	metrics      *serverMetrics
}

// Run consumes commands until ctx is cancelled or the queue is closed and
// drained. Each wake-up processes every command that is immediately available.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd, ok := <-d.queue.Recv():
			if !ok {
				return nil
			}
			d.Process(cmd)

			for ctx.Err() == nil {
				next, ok := d.queue.TryPop()
				if !ok {
					break
				}
				d.Process(next)
			}
			d.metrics.ticks.Inc()
		}
	}
}

// Process handles one command: sample the pose, then answer on the active
// session if there is one
func (d *Dispatcher) Process(cmd *Command) {
	start := time.Now()
	d.metrics.commands.Inc()
	d.metrics.commandMeter.Mark(1)

	index, err := ParseIndex(cmd.Text)
	if err != nil {
		d.metrics.malformed.Inc()
		Logger.Warningf("Dropping command from session %s: %v", shortID(cmd.Session), err)
		return
	}

	// the session is loaded once and used for every stage of this command
	session := d.slot.Load()

	poseStart := time.Now()
	sample := d.sampler.Apply(index)
	d.metrics.since(StagePose, poseStart)

	if session == nil {
		d.metrics.skipped.Inc()
		Logger.Debugf("No client connected, pose %d applied without response", index)
		return
	}

	// a pose that cannot be encoded is dropped, the stream itself is still intact
	poseJSON, err := d.serializer.Serialize(sample)
	if err != nil {
		d.metrics.serializeErrors.Inc()
		Logger.Errorf("Failed to serialize pose %d, no response sent: %v", index, err)
		return
	}

	if err := d.respond(session, index, sample, poseJSON); err != nil {
		d.metrics.writeErrors.Inc()
		Logger.Errorf("Failed to send response for index %d to session %s: %v", index, session.ShortID(), err)
		d.slot.Clear(session)
		_ = session.Close()
		return
	}

	d.metrics.since(StageCommand, start)
	d.metrics.commandTime.UpdateDuration(start)
	Logger.Debugf("Answered index %d on session %s in %s", index, session.ShortID(), time.Since(start))
}

// respond writes the complete response for one command. The first failing
// write aborts the response.
func (d *Dispatcher) respond(session *transport.Session, index int32, sample pose.Sample, poseJSON []byte) error {
	conn := session.Conn
	if d.writeTimeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(d.writeTimeout)); err != nil {
			return fmt.Errorf("failed to set write deadline: %w", err)
		}
		defer conn.SetWriteDeadline(time.Time{})
	}

	writeStart := time.Now()
	if err := framing.WritePayload(conn, framing.TagJSON, poseJSON); err != nil {
		return fmt.Errorf("pose payload: %w", err)
	}
	if err := framing.WriteMarker(conn, framing.MarkerStartCameras); err != nil {
		return fmt.Errorf("camera start marker: %w", err)
	}
	if err := framing.WriteUint32(conn, uint32(len(d.cameras))); err != nil {
		return fmt.Errorf("camera count: %w", err)
	}
	d.metrics.since(StageWrite, writeStart)

	transform := sample.Transform()
	for i, cam := range d.cameras {
		captureStart := time.Now()
		img, err := d.pipeline.Capture(cam, i, len(d.cameras), transform)
		d.metrics.since(StageCapture, captureStart)
		if err != nil {
			// keep the declared camera count, the client receives an empty image
			d.metrics.captureErrors.Inc()
			Logger.Errorf("Capture of camera %q failed for index %d: %v", cam.Name, index, err)
			img = nil
		} else {
			d.metrics.imageBytes.Update(float64(len(img)))
			d.metrics.imageSizes.AddSample(len(img))
		}

		writeStart = time.Now()
		if err := framing.WritePayload(conn, framing.TagImage, img); err != nil {
			return fmt.Errorf("image of camera %q: %w", cam.Name, err)
		}
		d.metrics.since(StageWrite, writeStart)
	}

	writeStart = time.Now()
	if err := framing.WriteMarker(conn, framing.MarkerEndCameras); err != nil {
		return fmt.Errorf("camera end marker: %w", err)
	}
	if err := framing.WriteMarker(conn, framing.MarkerEOT); err != nil {
		return fmt.Errorf("end of transmission marker: %w", err)
	}
	d.metrics.since(StageWrite, writeStart)
	return nil
}

func shortID(id string) string {
	if len(id) < 8 {
		return id
	}
	return id[:8]
}
