// Package audio is the device-facing collaborator: it adapts a pull-based
// sample source to the ebiten audio context and owns stream lifecycle.
// Everything that may block or lock lives here, outside the core.
package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// SampleSource produces interleaved stereo float32 frames. Process must fill
// dst completely, padding with silence once the source has nothing left.
type SampleSource interface {
	Process(dst []float32)
}

// FinishingSource is a SampleSource that can signal end of playback. Once
// Finished reports true the stream returns io.EOF and the device player
// stops on its own.
type FinishingSource interface {
	SampleSource
	Finished() bool
}

// StreamReader adapts a SampleSource to the io.Reader of little-endian
// float32 bytes that the ebiten context consumes. The mutex guards the
// scratch buffer against re-entrant reads from the device layer; the source
// itself is only ever called from here.
type StreamReader struct {
	mu     sync.Mutex
	source SampleSource
	buf    []float32
}

func NewStreamReader(source SampleSource) *StreamReader {
	return &StreamReader{source: source}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frames := len(p) / 8 // 2 channels x 4 bytes
	if frames == 0 {
		return 0, nil
	}
	need := frames * 2
	if cap(r.buf) < need {
		r.buf = make([]float32, need)
	}
	r.buf = r.buf[:need]
	r.source.Process(r.buf)
	for i, s := range r.buf {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(s))
	}
	n := frames * 8
	if fs, ok := r.source.(FinishingSource); ok && fs.Finished() {
		return n, io.EOF
	}
	return n, nil
}

func (r *StreamReader) Close() error { return nil }

// Player drives one stream on the shared audio context.
type Player struct {
	player     *ebitaudio.Player
	reader     io.ReadCloser
	sampleRate int
}

// The ebiten audio context is process-wide and fixed to one sample rate for
// the life of the process.
var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
	audioSampleRate  int
)

func sharedAudioContext(sampleRate int) (*ebitaudio.Context, error) {
	audioContextOnce.Do(func() {
		audioSampleRate = sampleRate
		audioContext = ebitaudio.NewContext(sampleRate)
	})
	if audioSampleRate != sampleRate {
		return nil, fmt.Errorf("audio context already open at %d Hz (requested %d Hz)", audioSampleRate, sampleRate)
	}
	return audioContext, nil
}

// NewPlayer opens a device player over source at the given rate. The OS
// default output device is used; device selection is not exposed.
func NewPlayer(sampleRate int, source SampleSource) (*Player, error) {
	ctx, err := sharedAudioContext(sampleRate)
	if err != nil {
		return nil, err
	}
	reader := NewStreamReader(source)
	pl, err := ctx.NewPlayerF32(reader)
	if err != nil {
		return nil, err
	}
	return &Player{
		player:     pl,
		reader:     reader,
		sampleRate: sampleRate,
	}, nil
}

func (p *Player) Play()           { p.player.Play() }
func (p *Player) Pause()          { p.player.Pause() }
func (p *Player) IsPlaying() bool { return p.player.IsPlaying() }

// Position returns the playback position the listener actually hears.
func (p *Player) Position() time.Duration {
	return p.player.Position()
}

// PositionSamples is Position converted to whole samples at the stream rate.
func (p *Player) PositionSamples() int64 {
	return int64(p.player.Position().Seconds() * float64(p.sampleRate))
}

func (p *Player) Stop() error {
	p.player.Pause()
	p.player.Close()
	return p.reader.Close()
}
