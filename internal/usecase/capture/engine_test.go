package capture

import (
	"context"
	"encoding/binary"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	stdErrors "errors"

	apperrors "github.com/tablevox/agent/errors"
)

// fakeDevice streams a fixed tone and counts open handles so tests can
// verify exclusive acquisition and guaranteed release.
type fakeDevice struct {
	mu        sync.Mutex
	openCount int32
	opens     int32
	failOpen  bool
	frames    chan []byte
	stop      chan struct{}
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{}
}

func (d *fakeDevice) SampleRate() int { return 16000 }

func (d *fakeDevice) Open(ctx context.Context) (<-chan []byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failOpen {
		return nil, stdErrors.New("permission denied")
	}
	atomic.AddInt32(&d.openCount, 1)
	atomic.AddInt32(&d.opens, 1)
	d.frames = make(chan []byte)
	d.stop = make(chan struct{})

	frame := make([]byte, 320)
	for i := 0; i < len(frame); i += 2 {
		binary.LittleEndian.PutUint16(frame[i:i+2], uint16(int16(8000)))
	}

	go func(out chan []byte, stop chan struct{}) {
		defer close(out)
		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case out <- frame:
				time.Sleep(time.Millisecond)
			}
		}
	}(d.frames, d.stop)

	return d.frames, nil
}

func (d *fakeDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop != nil {
		select {
		case <-d.stop:
		default:
			close(d.stop)
		}
		d.stop = nil
		atomic.AddInt32(&d.openCount, -1)
	}
	return nil
}

func (d *fakeDevice) held() bool { return atomic.LoadInt32(&d.openCount) > 0 }

func TestStart_DeviceUnavailable(t *testing.T) {
	dev := newFakeDevice()
	dev.failOpen = true
	e := NewEngine(dev, 10*time.Millisecond, nil)

	err := e.Start(context.Background(), "A3")
	if err == nil {
		t.Fatal("expected error")
	}
	var appErr apperrors.AppError
	if !stdErrors.As(err, &appErr) || appErr.Code != apperrors.ErrorCode_DEVICE_UNAVAILABLE {
		t.Fatalf("expected DEVICE_UNAVAILABLE, got %v", err)
	}
	if e.State() != StateIdle {
		t.Fatalf("expected idle after failed start, got %s", e.State())
	}
}

func TestStart_RequiresTableID(t *testing.T) {
	e := NewEngine(newFakeDevice(), 10*time.Millisecond, nil)
	if err := e.Start(context.Background(), ""); err == nil {
		t.Fatal("expected error for missing table id")
	}
}

func TestStart_IdempotentWhileActive(t *testing.T) {
	dev := newFakeDevice()
	e := NewEngine(dev, 10*time.Millisecond, nil)
	defer e.Close()

	if err := e.Start(context.Background(), "A3"); err != nil {
		t.Fatalf("start: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	before := e.Duration()

	// second start must not acquire a second handle or reset the counter
	if err := e.Start(context.Background(), "B7"); err != nil {
		t.Fatalf("re-entrant start: %v", err)
	}
	if atomic.LoadInt32(&dev.opens) != 1 {
		t.Fatalf("expected a single device acquisition, got %d", dev.opens)
	}
	time.Sleep(10 * time.Millisecond)
	if e.Duration() < before {
		t.Fatal("duration counter was reset by re-entrant start")
	}
}

func TestStart_SessionOutlivesStartContext(t *testing.T) {
	dev := newFakeDevice()
	e := NewEngine(dev, 10*time.Millisecond, nil)
	defer e.Close()

	ctx, cancel := context.WithCancel(context.Background())
	if err := e.Start(ctx, "A3"); err != nil {
		t.Fatalf("start: %v", err)
	}
	// the start request ends the moment the handler returns; the session
	// must keep recording on the device regardless
	cancel()
	time.Sleep(30 * time.Millisecond)

	if e.State() != StateRecording {
		t.Fatalf("expected recording after the start request ended, got %s", e.State())
	}
	if !dev.held() {
		t.Fatal("device must stay held after the start request ends")
	}

	payload, err := e.Stop(context.Background())
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if payload == nil || len(payload.Audio) == 0 {
		t.Fatal("expected audio captured past the start request lifetime")
	}
	if dev.held() {
		t.Fatal("device must be released after stop")
	}
}

func TestStart_RejectsCancelledContext(t *testing.T) {
	dev := newFakeDevice()
	e := NewEngine(dev, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := e.Start(ctx, "A3"); err == nil {
		t.Fatal("expected error for a cancelled start context")
	}
	if e.State() != StateIdle {
		t.Fatalf("expected idle, got %s", e.State())
	}
	if dev.held() {
		t.Fatal("device must not be acquired")
	}
}

func TestStop_ProducesOnePayloadAndReleasesDevice(t *testing.T) {
	dev := newFakeDevice()
	e := NewEngine(dev, 10*time.Millisecond, nil)

	if err := e.Start(context.Background(), "A3"); err != nil {
		t.Fatalf("start: %v", err)
	}
	time.Sleep(30 * time.Millisecond)

	first, err := e.Stop(context.Background())
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if first == nil || len(first.Audio) == 0 {
		t.Fatal("expected a finalized payload")
	}
	if first.TableID != "A3" {
		t.Fatalf("expected table A3, got %s", first.TableID)
	}

	second, err := e.Stop(context.Background())
	if err != nil {
		t.Fatalf("duplicate stop: %v", err)
	}
	if second != nil {
		t.Fatal("duplicate stop must not produce a second payload")
	}
	if dev.held() {
		t.Fatal("device must be released after stop")
	}
}

func TestStop_ConcurrentDuplicates(t *testing.T) {
	dev := newFakeDevice()
	e := NewEngine(dev, 10*time.Millisecond, nil)

	if err := e.Start(context.Background(), "A3"); err != nil {
		t.Fatalf("start: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	var wg sync.WaitGroup
	var payloads int32
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, _ := e.Stop(context.Background())
			if p != nil {
				atomic.AddInt32(&payloads, 1)
			}
		}()
	}
	wg.Wait()
	if payloads != 1 {
		t.Fatalf("expected exactly one payload, got %d", payloads)
	}
}

func TestPauseResume_Gating(t *testing.T) {
	dev := newFakeDevice()
	e := NewEngine(dev, 5*time.Millisecond, nil)
	defer e.Close()

	// pause/resume outside their valid states are no-ops
	e.Pause()
	e.Resume()
	if e.State() != StateIdle {
		t.Fatalf("expected idle, got %s", e.State())
	}

	if err := e.Start(context.Background(), "A3"); err != nil {
		t.Fatalf("start: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	e.Pause()
	if e.State() != StatePaused {
		t.Fatalf("expected paused, got %s", e.State())
	}
	frozen := e.Duration()
	time.Sleep(20 * time.Millisecond)
	if e.Duration() != frozen {
		t.Fatal("duration counter must halt while paused")
	}

	// amplitude stream is halted too: let any in-flight tick land,
	// drain, then expect silence
	time.Sleep(15 * time.Millisecond)
	for len(e.Levels()) > 0 {
		<-e.Levels()
	}
	time.Sleep(30 * time.Millisecond)
	if len(e.Levels()) != 0 {
		t.Fatal("amplitude stream must halt while paused")
	}

	e.Resume()
	if e.State() != StateRecording {
		t.Fatalf("expected recording, got %s", e.State())
	}
	time.Sleep(20 * time.Millisecond)
	if e.Duration() <= frozen {
		t.Fatal("duration counter must resume")
	}
}

func TestLevels_EmitWhileRecording(t *testing.T) {
	dev := newFakeDevice()
	e := NewEngine(dev, 5*time.Millisecond, nil)
	defer e.Close()

	if err := e.Start(context.Background(), "A3"); err != nil {
		t.Fatalf("start: %v", err)
	}

	select {
	case level := <-e.Levels():
		if level <= 0 {
			t.Fatalf("expected positive amplitude, got %f", level)
		}
	case <-time.After(time.Second):
		t.Fatal("no amplitude sample emitted")
	}
}

func TestReset_ReturnsToIdle(t *testing.T) {
	dev := newFakeDevice()
	e := NewEngine(dev, 10*time.Millisecond, nil)

	if err := e.Start(context.Background(), "A3"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := e.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	e.Reset()
	if e.State() != StateIdle {
		t.Fatalf("expected idle after reset, got %s", e.State())
	}

	// a fresh session is possible again
	if err := e.Start(context.Background(), "B7"); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if _, err := e.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if dev.held() {
		t.Fatal("device must be released")
	}
}
