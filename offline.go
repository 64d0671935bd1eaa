package aria

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/lydianlab/aria/internal/sequencer"
)

// ErrUnboundedRender reports an attempt to render a sustaining sequence to
// completion; use RenderDuration for a fixed window instead.
var ErrUnboundedRender = errors.New("cannot fully render an unbounded sequence")

// RenderSamples renders notes to a mono buffer, to completion. The sequence
// must be bounded (no sustaining note).
func RenderSamples(notes []sequencer.Note, sampleRate int) ([]float32, error) {
	total, bounded := TotalSamples(notes)
	if !bounded {
		return nil, ErrUnboundedRender
	}
	seq, err := sequencer.New(notes, sampleRate)
	if err != nil {
		return nil, err
	}
	out := make([]float32, 0, total)
	for {
		v, ok := seq.NextSample()
		if !ok {
			break
		}
		out = append(out, v)
	}
	return out, nil
}

// RenderDuration renders a fixed window of seconds, padding with silence if
// the sequence ends early. Valid for sustaining sequences.
func RenderDuration(notes []sequencer.Note, sampleRate int, seconds float64) ([]float32, error) {
	seq, err := sequencer.New(notes, sampleRate)
	if err != nil {
		return nil, err
	}
	out := make([]float32, int(float64(sampleRate)*seconds))
	for i := range out {
		v, ok := seq.NextSample()
		if !ok {
			break
		}
		out[i] = v
	}
	return out, nil
}

// EncodeWAVFloat32LE wraps samples in a RIFF/WAVE container with format
// tag 3 (IEEE float), little endian.
func EncodeWAVFloat32LE(samples []float32, sampleRate int, channels int) []byte {
	dataSize := len(samples) * 4
	byteRate := sampleRate * channels * 4
	blockAlign := channels * 4
	chunkSize := 36 + dataSize
	out := make([]byte, 44+dataSize)
	copy(out[0:], []byte("RIFF"))
	binary.LittleEndian.PutUint32(out[4:], uint32(chunkSize))
	copy(out[8:], []byte("WAVE"))
	copy(out[12:], []byte("fmt "))
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 3)
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], 32)
	copy(out[36:], []byte("data"))
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[44+i*4:], math.Float32bits(s))
	}
	return out
}
