package capture

import (
	"bytes"
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tablevox/agent/errors"
	"github.com/tablevox/agent/internal/infrastructure/audio"
)

// State is the capture engine state
type State string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
	StatePaused    State = "paused"
	StateStopped   State = "stopped"
)

// Payload is the finalized result of one capture session. It is produced
// exactly once per session, by Stop.
type Payload struct {
	TableID  string
	Audio    []byte // WAV container, ready for upload
	Duration int    // elapsed seconds at time of stop
}

// Engine owns the audio input device and drives the capture state machine
// idle -> recording -> (paused <-> recording)* -> stopped. The device is held
// exclusively between Start and Stop and is always released outside
// recording/paused, including on abnormal device termination.
type Engine struct {
	device   audio.Device
	logger   *zap.Logger
	interval time.Duration

	mu       sync.Mutex
	state    State
	starting bool
	stopping bool
	tableID  string

	pcm        bytes.Buffer
	lastFrame  []byte
	elapsed    time.Duration
	segmentAt  time.Time
	cancelRead context.CancelFunc
	readerDone chan struct{}

	levels  chan float64
	ampStop chan struct{}

	payload *Payload
}

// NewEngine creates a capture engine around the given input device.
// amplitudeInterval is the fixed period of the visualization sample stream.
func NewEngine(device audio.Device, amplitudeInterval time.Duration, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		device:   device,
		logger:   logger,
		interval: amplitudeInterval,
		state:    StateIdle,
		levels:   make(chan float64, 16),
	}
}

// State returns the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Levels is the live amplitude stream for visualization. Samples are emitted
// at a fixed interval while recording and not paused; slow consumers miss
// samples rather than blocking capture.
func (e *Engine) Levels() <-chan float64 {
	return e.levels
}

// Duration returns the elapsed recording time so far, excluding paused spans.
func (e *Engine) Duration() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.elapsedLocked()
}

func (e *Engine) elapsedLocked() time.Duration {
	d := e.elapsed
	if e.state == StateRecording {
		d += time.Since(e.segmentAt)
	}
	return d
}

// Start acquires the input device and begins recording for the given table.
// A call received while a start is already in flight, or while the device is
// already active, is a no-op. Fails with DeviceUnavailable when the device
// cannot be acquired.
func (e *Engine) Start(ctx context.Context, tableID string) error {
	e.mu.Lock()
	if e.starting || e.state == StateRecording || e.state == StatePaused {
		e.mu.Unlock()
		return nil
	}
	if e.state == StateStopped {
		e.mu.Unlock()
		return errors.ErrInvalidCaptureState("start", string(StateStopped))
	}
	if tableID == "" {
		e.mu.Unlock()
		return errors.ErrInvalidArgument("tableId is required before capture starts")
	}
	e.starting = true
	e.mu.Unlock()

	// The session outlives the start request: the device stream runs on an
	// engine-owned context, so the caller's context only gates acquisition.
	if err := ctx.Err(); err != nil {
		e.mu.Lock()
		e.starting = false
		e.mu.Unlock()
		return errors.ErrDeviceUnavailable(err)
	}
	readCtx, cancel := context.WithCancel(context.Background())
	frames, err := e.device.Open(readCtx)
	if err != nil {
		cancel()
		e.device.Close()
		e.mu.Lock()
		e.starting = false
		e.mu.Unlock()
		return errors.ErrDeviceUnavailable(err)
	}

	e.mu.Lock()
	e.starting = false
	e.state = StateRecording
	e.tableID = tableID
	e.pcm.Reset()
	e.lastFrame = nil
	e.elapsed = 0
	e.segmentAt = time.Now()
	e.cancelRead = cancel
	e.readerDone = make(chan struct{})
	e.ampStop = make(chan struct{})
	e.mu.Unlock()

	go e.readFrames(readCtx, frames)
	go e.sampleAmplitude()

	e.logger.Info("capture started", zap.String("table_id", tableID))
	return nil
}

// readFrames drains the device into the PCM buffer. Frames arriving while
// paused are dropped so the finalized payload only contains recorded spans.
func (e *Engine) readFrames(ctx context.Context, frames <-chan []byte) {
	defer close(e.readerDone)
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-frames:
			if !ok {
				// Device died underneath us. Release the handle so no
				// open device survives outside recording/paused.
				e.mu.Lock()
				abnormal := e.state == StateRecording || e.state == StatePaused
				e.mu.Unlock()
				if abnormal {
					e.logger.Warn("input device stream ended unexpectedly")
					e.device.Close()
				}
				return
			}
			e.mu.Lock()
			if e.state == StateRecording {
				e.pcm.Write(frame)
				e.lastFrame = frame
			}
			e.mu.Unlock()
		}
	}
}

// sampleAmplitude emits one level sample per interval while the engine is
// recording and not paused. The loop is cancelled on every exit path.
func (e *Engine) sampleAmplitude() {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-e.ampStop:
			return
		case <-ticker.C:
			e.mu.Lock()
			armed := e.state == StateRecording
			frame := e.lastFrame
			e.mu.Unlock()
			if !armed {
				continue
			}
			select {
			case e.levels <- audio.RMS(frame):
			default:
			}
		}
	}
}

// Pause halts the duration counter and the amplitude stream. No-op unless
// recording.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateRecording {
		return
	}
	e.elapsed += time.Since(e.segmentAt)
	e.state = StatePaused
}

// Resume continues a paused session. No-op unless paused.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StatePaused {
		return
	}
	e.segmentAt = time.Now()
	e.state = StateRecording
}

// Stop finalizes the encoded audio into a single payload, releases the
// device and returns the payload. The only point at which a recording entity
// may be created. Idempotent: a duplicate call while a stop is in flight, or
// after the session ended, returns nil.
func (e *Engine) Stop(ctx context.Context) (*Payload, error) {
	e.mu.Lock()
	if e.stopping || (e.state != StateRecording && e.state != StatePaused) {
		e.mu.Unlock()
		return nil, nil
	}
	e.stopping = true
	if e.state == StateRecording {
		e.elapsed += time.Since(e.segmentAt)
	}
	e.state = StateStopped
	cancel := e.cancelRead
	done := e.readerDone
	ampStop := e.ampStop
	e.mu.Unlock()

	close(ampStop)
	cancel()
	select {
	case <-done:
	case <-ctx.Done():
	}
	if err := e.device.Close(); err != nil {
		e.logger.Warn("device close failed", zap.Error(err))
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	payload := &Payload{
		TableID:  e.tableID,
		Audio:    audio.EncodeWAV(e.pcm.Bytes(), e.device.SampleRate()),
		Duration: int(e.elapsed.Round(time.Second) / time.Second),
	}
	e.payload = payload
	e.stopping = false

	e.logger.Info("capture stopped",
		zap.String("table_id", e.tableID),
		zap.Int("duration_s", payload.Duration),
		zap.Int("audio_bytes", len(payload.Audio)),
	)
	return payload, nil
}

// Payload returns the finalized payload of a stopped session that has not
// been consumed yet. Nil in every other state.
func (e *Engine) Payload() *Payload {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateStopped {
		return nil
	}
	return e.payload
}

// Reset discards the finalized payload and returns to idle.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateStopped {
		return
	}
	e.payload = nil
	e.pcm.Reset()
	e.lastFrame = nil
	e.elapsed = 0
	e.tableID = ""
	e.state = StateIdle
}

// Close tears the engine down from any state, releasing the device and
// cancelling the amplitude loop.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.state == StateRecording || e.state == StatePaused {
		if e.cancelRead != nil {
			e.cancelRead()
		}
		if e.ampStop != nil {
			close(e.ampStop)
			e.ampStop = nil
		}
		e.state = StateIdle
	}
	e.mu.Unlock()
	return e.device.Close()
}
