// Package notation parses note tokens and dynamic markings.
//
// One token is either a dynamic marking (ppp..fff) or a note spec:
//
//	[letter][accidentals][octave][':'value]['.'dots]
//
// Every part is optional. A token without a letter is a rest; the empty
// token is a quarter rest. Dynamics are sticky: a marking sets the amplitude
// for every following note until the next marking.
package notation

import (
	"errors"
	"fmt"

	"github.com/lydianlab/aria/internal/pitch"
)

// ErrInvalidToken reports a token that does not fit the note grammar.
var ErrInvalidToken = errors.New("invalid note token")

// DefaultAmplitude applies until the first dynamic marking.
const DefaultAmplitude = 0.5

// DefaultValue is the note value used when a token carries none (a quarter).
const DefaultValue = 4

// maxDots caps trailing dots per the grammar.
const maxDots = 4

// Dynamic markings from softest to loudest; marking i maps to amplitude
// (i+1)/8.
var dynamics = []string{"ppp", "pp", "p", "mp", "mf", "f", "ff", "fff"}

// Pitch is the symbolic pitch part of a parsed note.
type Pitch struct {
	Letter byte // lowercased a-g
	Sharps int
	Flats  int
	Octave int // pitch.OctaveUnset when the token carries no octave
}

// Note is one parsed note token. A nil Pitch is a rest.
type Note struct {
	Token     string // the source token, for error reporting
	Pitch     *Pitch
	Value     int
	Dots      int
	Amplitude float64
}

// Sequence is an ordered list of parsed notes. Dynamics have already been
// folded into each note's amplitude.
type Sequence struct {
	Notes []Note
}

// IsDynamic reports whether a token is a dynamic marking and, if so, the
// amplitude it sets. Checked before note parsing, so a bare "f" is forte;
// to play the pitch F, write "f4" or "f:4".
func IsDynamic(token string) (float64, bool) {
	for i, d := range dynamics {
		if token == d {
			return float64(i+1) / float64(len(dynamics)), true
		}
	}
	return 0, false
}

// Parse parses a token list into a sequence. Dynamic markings produce no
// note of their own; they set the amplitude of everything that follows.
func Parse(tokens []string) (*Sequence, error) {
	amplitude := DefaultAmplitude
	seq := &Sequence{Notes: make([]Note, 0, len(tokens))}
	for _, token := range tokens {
		if a, ok := IsDynamic(token); ok {
			amplitude = a
			continue
		}
		note, err := ParseNote(token, amplitude)
		if err != nil {
			return nil, err
		}
		seq.Notes = append(seq.Notes, note)
	}
	return seq, nil
}

// ParseNote parses a single note token at the given amplitude.
func ParseNote(token string, amplitude float64) (Note, error) {
	note := Note{Token: token, Value: DefaultValue, Amplitude: amplitude}
	i := 0
	if i < len(token) && isNoteLetter(token[i]) {
		p := &Pitch{Letter: lower(token[i]), Octave: pitch.OctaveUnset}
		note.Pitch = p
		i++
		p.Sharps, p.Flats, i = scanAccidentals(token, i)
		if octave, next, ok := scanNumber(token, i); ok {
			p.Octave = octave
			i = next
		}
	} else {
		// A rest may still carry (ignored) accidental and octave parts.
		_, _, i = scanAccidentals(token, i)
		_, i, _ = scanNumber(token, i)
	}
	if i < len(token) && token[i] == ':' {
		value, next, ok := scanValue(token, i+1)
		if !ok {
			return Note{}, fmt.Errorf("%w: %q", ErrInvalidToken, token)
		}
		note.Value = value
		i = next
	}
	dots, i := scanDots(token, i)
	if dots > maxDots || i != len(token) {
		return Note{}, fmt.Errorf("%w: %q", ErrInvalidToken, token)
	}
	note.Dots = dots
	return note, nil
}

func isNoteLetter(ch byte) bool {
	l := lower(ch)
	return l >= 'a' && l <= 'g'
}

func lower(ch byte) byte {
	if ch >= 'A' && ch <= 'Z' {
		return ch + 'a' - 'A'
	}
	return ch
}

func scanAccidentals(s string, i int) (sharps, flats, next int) {
	for i < len(s) {
		switch s[i] {
		case '#':
			sharps++
		case 'b':
			flats++
		default:
			return sharps, flats, i
		}
		i++
	}
	return sharps, flats, i
}

func scanNumber(s string, i int) (value, next int, ok bool) {
	start := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		value = value*10 + int(s[i]-'0')
		i++
	}
	return value, i, i > start
}

// scanValue reads the 1-2 digit note value after the colon. Validity of the
// value itself (power of two) is the duration resolver's concern.
func scanValue(s string, i int) (value, next int, ok bool) {
	start := i
	for i < len(s) && i-start < 2 && s[i] >= '0' && s[i] <= '9' {
		value = value*10 + int(s[i]-'0')
		i++
	}
	return value, i, i > start
}

func scanDots(s string, i int) (dots, next int) {
	for i < len(s) && s[i] == '.' {
		dots++
		i++
	}
	return dots, i
}
