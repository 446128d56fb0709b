package audio

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"sync"
)

const frameSize = 3200 // bytes per frame: 100ms of s16le mono at 16kHz

// FFmpegDevice captures PCM from the system microphone through an ffmpeg
// subprocess. The process writes raw s16le mono samples to stdout, which are
// chunked into frames for the capture engine.
type FFmpegDevice struct {
	deviceName string
	sampleRate int

	mu  sync.Mutex
	cmd *exec.Cmd
}

// NewFFmpegDevice creates a device reading from the named system input.
func NewFFmpegDevice(deviceName string, sampleRate int) *FFmpegDevice {
	return &FFmpegDevice{deviceName: deviceName, sampleRate: sampleRate}
}

// SampleRate returns the configured PCM sample rate.
func (d *FFmpegDevice) SampleRate() int {
	return d.sampleRate
}

// Open spawns ffmpeg against the system input. Fails when the binary is
// missing, the device does not exist, or access is denied.
func (d *FFmpegDevice) Open(ctx context.Context) (<-chan []byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cmd != nil {
		return nil, fmt.Errorf("device already open")
	}

	format := "alsa"
	if runtime.GOOS == "darwin" {
		format = "avfoundation"
	}

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-hide_banner", "-loglevel", "quiet",
		"-f", format, "-i", d.deviceName,
		"-ac", "1", "-ar", fmt.Sprintf("%d", d.sampleRate),
		"-f", "s16le", "-")

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start: %w", err)
	}
	d.cmd = cmd

	frames := make(chan []byte)
	go func() {
		defer close(frames)
		defer cmd.Wait()
		for {
			buf := make([]byte, frameSize)
			n, err := io.ReadFull(stdout, buf)
			if n > 0 {
				select {
				case frames <- buf[:n]:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()

	return frames, nil
}

// Close kills the ffmpeg process, releasing the microphone.
func (d *FFmpegDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cmd == nil {
		return nil
	}
	cmd := d.cmd
	d.cmd = nil

	if cmd.Process != nil {
		return cmd.Process.Kill()
	}
	return nil
}
