package audio

import (
	"bytes"
	"encoding/binary"
	"math"
)

// EncodeWAV wraps raw s16le mono PCM in a WAV container, entirely in memory.
func EncodeWAV(pcm []byte, sampleRate int) []byte {
	var buf bytes.Buffer

	dataLen := uint32(len(pcm))
	byteRate := uint32(sampleRate * 2) // mono, 16-bit

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, byteRate)
	binary.Write(&buf, binary.LittleEndian, uint16(2))  // block align
	binary.Write(&buf, binary.LittleEndian, uint16(16)) // bits per sample

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, dataLen)
	buf.Write(pcm)

	return buf.Bytes()
}

// RMS computes the root-mean-square amplitude of an s16le PCM frame,
// normalized to 0..1. Used for the live level visualization.
func RMS(frame []byte) float64 {
	if len(frame) < 2 {
		return 0
	}
	var sum float64
	n := len(frame) / 2
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(frame[i*2 : i*2+2]))
		f := float64(s) / 32768.0
		sum += f * f
	}
	return math.Sqrt(sum / float64(n))
}
