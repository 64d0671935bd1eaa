// Package pitch resolves symbolic pitches (letter, accidentals, octave) to
// frequencies in twelve-tone equal temperament around a tunable reference.
package pitch

import (
	"errors"
	"fmt"
	"math"
)

// ReferenceOctave is the octave the tuning reference lives in (A4).
const ReferenceOctave = 4

// OctaveUnset marks an absent octave number; it resolves to ReferenceOctave.
const OctaveUnset = -1

// ErrUnknownNote reports a note letter outside a-g.
var ErrUnknownNote = errors.New("unknown note")

// Semitone distance from A in the same octave.
var semitones = map[byte]int{
	'c': -9, 'd': -7, 'e': -5, 'f': -4, 'g': -2, 'a': 0, 'b': 2,
}

// Offset returns the total semitone distance from the tuning reference.
// Letters are case insensitive. Accidental counts are unbounded; each sharp
// raises and each flat lowers by one semitone.
func Offset(letter byte, sharps, flats, octave int) (int, error) {
	if letter >= 'A' && letter <= 'Z' {
		letter += 'a' - 'A'
	}
	base, ok := semitones[letter]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownNote, string(letter))
	}
	if octave == OctaveUnset {
		octave = ReferenceOctave
	}
	return base + sharps - flats + 12*(octave-ReferenceOctave), nil
}

// Frequency returns the pitch frequency in Hz for the given tuning reference
// (the frequency of A in the reference octave, conventionally 440).
func Frequency(letter byte, sharps, flats, octave int, tuning float64) (float64, error) {
	offset, err := Offset(letter, sharps, flats, octave)
	if err != nil {
		return 0, err
	}
	return tuning * math.Pow(2, float64(offset)/12), nil
}

// Key returns the MIDI key number (A4 = 69), clamped to the 0-127 range.
func Key(letter byte, sharps, flats, octave int) (uint8, error) {
	offset, err := Offset(letter, sharps, flats, octave)
	if err != nil {
		return 0, err
	}
	key := 69 + offset
	if key < 0 {
		key = 0
	}
	if key > 127 {
		key = 127
	}
	return uint8(key), nil
}
