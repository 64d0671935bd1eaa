// Package midifile exports a parsed sequence as a format-0 Standard MIDI
// File. Playback concerns (tuning, fermata) have no SMF meaning and are not
// represented; the exporter writes notated values only.
package midifile

import (
	"io"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/lydianlab/aria/internal/notation"
	"github.com/lydianlab/aria/internal/pitch"
)

// TicksPerQuarter is the SMF time resolution. 960 divides evenly by every
// power-of-two value up to 64 and by the dot halvings, so tick arithmetic
// stays exact.
const TicksPerQuarter = 960

// Write encodes seq as a single-track SMF at the given tempo. Rests produce
// no events of their own; their ticks accumulate into the next note-on
// delta. Velocity is the note amplitude scaled to the MIDI range.
func Write(w io.Writer, seq *notation.Sequence, tempo int) error {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(TicksPerQuarter)

	var tr smf.Track
	tr.Add(0, smf.MetaTempo(float64(tempo)))
	delta := uint32(0)
	for _, n := range seq.Notes {
		ticks := noteTicks(n.Value, n.Dots)
		if n.Pitch == nil {
			delta += ticks
			continue
		}
		key, err := pitch.Key(n.Pitch.Letter, n.Pitch.Sharps, n.Pitch.Flats, n.Pitch.Octave)
		if err != nil {
			return err
		}
		velocity := uint8(n.Amplitude * 127)
		tr.Add(delta, midi.NoteOn(0, key, velocity))
		tr.Add(ticks, midi.NoteOff(0, key))
		delta = 0
	}
	tr.Close(0)
	if err := s.Add(tr); err != nil {
		return err
	}
	_, err := s.WriteTo(w)
	return err
}

// noteTicks converts a note value plus dots to ticks; each dot adds half of
// the previously added amount.
func noteTicks(value, dots int) uint32 {
	base := uint32(TicksPerQuarter * 4 / value)
	ticks := base
	part := base
	for i := 0; i < dots; i++ {
		part /= 2
		ticks += part
	}
	return ticks
}
