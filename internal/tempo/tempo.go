// Package tempo converts note values and dots, at a tempo, into wall-clock
// durations and sample counts.
package tempo

import (
	"errors"
	"fmt"
	"time"
)

// ErrBadNoteValue reports a note value that is not a power of two.
var ErrBadNoteValue = errors.New("note value must be a power of two")

// ErrBadTempo reports a non-positive tempo.
var ErrBadTempo = errors.New("tempo must be positive")

// NoteDuration returns the undotted duration of a note. A quarter note
// (value 4) is one beat, lasting 60000/bpm milliseconds; a value-v note
// lasts 4/v beats. The product is truncated to whole milliseconds, but never
// below one: a zero duration is the sustain sentinel downstream, and a
// finite request must stay finite (bpm x value > 240000 truncates to 0 ms
// otherwise).
func NoteDuration(value, bpm int) (time.Duration, error) {
	if bpm <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrBadTempo, bpm)
	}
	if value <= 0 || value&(value-1) != 0 {
		return 0, fmt.Errorf("%w: %d", ErrBadNoteValue, value)
	}
	beatMillis := 60.0 * 1000.0 / float64(bpm)
	millis := uint64(beatMillis * 4.0 / float64(value))
	if millis == 0 {
		millis = 1
	}
	return time.Duration(millis) * time.Millisecond, nil
}

// Dot extends d by successive halvings: one dot adds d/2, a second adds d/4,
// and so on. Sub-millisecond precision is kept here; only the undotted base
// is truncated.
func Dot(d time.Duration, dots int) time.Duration {
	total := d
	part := d
	for i := 0; i < dots; i++ {
		part /= 2
		total += part
	}
	return total
}

// Samples converts a duration to a sample count. The multiplication happens
// before the division so short notes do not truncate to zero samples; a
// non-zero duration always yields at least one sample, since zero is the
// sustain sentinel.
func Samples(d time.Duration, sampleRate int) uint64 {
	samples := uint64(sampleRate) * uint64(d.Milliseconds()) / 1000
	if samples == 0 && d > 0 {
		return 1
	}
	return samples
}
