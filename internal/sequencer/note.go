package sequencer

import (
	"errors"
	"fmt"
	"time"

	"github.com/lydianlab/aria/internal/tempo"
)

// ErrNyquistExceeded reports a note frequency above half the sample rate.
var ErrNyquistExceeded = errors.New("frequency exceeds the Nyquist limit")

// ErrEmptySequence reports an attempt to sequence zero notes.
var ErrEmptySequence = errors.New("note sequence is empty")

// Note is the unit the sequencer consumes: a frequency in Hz (0 means rest),
// a linear gain in [0, 1], and a duration in samples. Samples == 0 is the
// sustain sentinel: the note holds until playback is stopped externally.
type Note struct {
	Frequency float64
	Amplitude float64
	Samples   uint64
}

// NewNote builds a note of duration d at the given sample rate. Frequencies
// above sampleRate/2 cannot be represented and fail with ErrNyquistExceeded;
// exactly sampleRate/2 passes, and rests (frequency 0) always pass.
func NewNote(frequency, amplitude float64, d time.Duration, sampleRate int) (Note, error) {
	nyquist := float64(sampleRate) / 2
	if frequency > nyquist {
		return Note{}, fmt.Errorf("%w: %g Hz at %d Hz sample rate (limit %g Hz)",
			ErrNyquistExceeded, frequency, sampleRate, nyquist)
	}
	return Note{
		Frequency: frequency,
		Amplitude: amplitude,
		Samples:   tempo.Samples(d, sampleRate),
	}, nil
}

// Sustained returns a copy of n that holds indefinitely.
func (n Note) Sustained() Note {
	n.Samples = 0
	return n
}
