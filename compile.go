// Package aria compiles textual note tokens into timed sine notes and plays
// them through the default audio device, one sample at a time.
package aria

import (
	"fmt"

	"github.com/lydianlab/aria/internal/notation"
	"github.com/lydianlab/aria/internal/pitch"
	"github.com/lydianlab/aria/internal/sequencer"
	"github.com/lydianlab/aria/internal/tempo"
)

// Config carries the playback-independent compile settings. Zero values are
// replaced by the defaults.
type Config struct {
	// Tempo in beats per minute; a quarter note is one beat.
	Tempo int
	// Tuning is the reference pitch for A4 in Hz.
	Tuning float64
	// SampleRate the notes are compiled against.
	SampleRate int
	// Fermata holds the final note until playback is stopped.
	Fermata bool
}

// DefaultConfig returns 120 BPM, A4 = 440 Hz, 48 kHz.
func DefaultConfig() Config {
	return Config{Tempo: 120, Tuning: 440, SampleRate: 48000}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Tempo == 0 {
		c.Tempo = def.Tempo
	}
	if c.Tuning == 0 {
		c.Tuning = def.Tuning
	}
	if c.SampleRate == 0 {
		c.SampleRate = def.SampleRate
	}
	return c
}

// Compile resolves tokens into sequencer notes. All fallible work happens
// here, before any audio: pitch and duration resolution, the Nyquist check,
// dynamics. The first bad token wins and its text is in the error. An empty
// result is not an error; sequencing zero notes is.
func Compile(tokens []string, cfg Config) ([]sequencer.Note, error) {
	cfg = cfg.withDefaults()
	parsed, err := notation.Parse(tokens)
	if err != nil {
		return nil, err
	}
	notes := make([]sequencer.Note, 0, len(parsed.Notes))
	for _, n := range parsed.Notes {
		base, err := tempo.NoteDuration(n.Value, cfg.Tempo)
		if err != nil {
			return nil, fmt.Errorf("note %q: %w", n.Token, err)
		}
		d := tempo.Dot(base, n.Dots)
		frequency := 0.0
		if n.Pitch != nil {
			frequency, err = pitch.Frequency(n.Pitch.Letter, n.Pitch.Sharps, n.Pitch.Flats, n.Pitch.Octave, cfg.Tuning)
			if err != nil {
				return nil, fmt.Errorf("note %q: %w", n.Token, err)
			}
		}
		note, err := sequencer.NewNote(frequency, n.Amplitude, d, cfg.SampleRate)
		if err != nil {
			return nil, fmt.Errorf("note %q: %w", n.Token, err)
		}
		notes = append(notes, note)
	}
	if cfg.Fermata && len(notes) > 0 {
		notes[len(notes)-1] = notes[len(notes)-1].Sustained()
	}
	return notes, nil
}

// TotalSamples sums the note durations. bounded is false when any note
// sustains, in which case the sum covers only the notes before it matters.
func TotalSamples(notes []sequencer.Note) (total uint64, bounded bool) {
	bounded = true
	for _, n := range notes {
		if n.Samples == 0 {
			bounded = false
			continue
		}
		total += n.Samples
	}
	return total, bounded
}

// IndexAtSample returns the index of the note sounding at an absolute sample
// position. A sustaining note swallows every later position; past the end of
// a bounded sequence the result is len(notes).
func IndexAtSample(notes []sequencer.Note, pos uint64) int {
	for i, n := range notes {
		if n.Samples == 0 || pos < n.Samples {
			return i
		}
		pos -= n.Samples
	}
	return len(notes)
}
