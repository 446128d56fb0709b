package audio

import "context"

// Device is an exclusive audio input source. Open acquires the device and
// starts delivering frames of 16-bit little-endian PCM on the returned
// channel; Close releases it. Only one component may hold the device at a
// time, and it must always be released when capture is not active.
type Device interface {
	// Open acquires the input device and starts streaming PCM frames.
	// The channel is closed when the device stops producing, whether by
	// Close or by an underlying failure.
	Open(ctx context.Context) (<-chan []byte, error)

	// Close releases the device. Safe to call more than once.
	Close() error

	// SampleRate returns the PCM sample rate in Hz.
	SampleRate() int
}
