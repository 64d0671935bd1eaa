// Package sequencer walks an ordered list of notes one sample at a time,
// synthesizing a phase-continuous sine for each pull.
package sequencer

import "math"

// Sequencer is a single-voice scheduler. It owns its note list and is driven
// entirely by NextSample pulls; it never sleeps, allocates, or locks, so it is
// safe to call from a real-time audio callback. A Sequencer must be used from
// one goroutine at a time.
type Sequencer struct {
	notes      []Note
	sampleRate int
	index      int
	exhausted  bool

	// pos counts samples emitted for the current note; reset on advance.
	pos uint64
	// phase is the oscillator position the sine argument derives from. It is
	// never reset between notes: on a frequency change it is rescaled so the
	// waveform continues from the same amplitude, which is what keeps note
	// boundaries click-free.
	phase uint32
}

// New builds a sequencer over notes. The slice is copied; the caller may
// reuse it. At least one note is required.
func New(notes []Note, sampleRate int) (*Sequencer, error) {
	if len(notes) == 0 {
		return nil, ErrEmptySequence
	}
	return &Sequencer{
		notes:      append([]Note(nil), notes...),
		sampleRate: sampleRate,
	}, nil
}

// Done reports whether the sequence has been fully consumed. It is meant for
// tests and offline rendering; the audio path uses the NextSample ok result.
func (s *Sequencer) Done() bool { return s.exhausted }

// NextSample produces the next sample. ok is false once the sequence is
// exhausted, and stays false on every later pull. A note of n samples yields
// exactly n samples; a sustaining note (Samples == 0) never expires.
func (s *Sequencer) NextSample() (sample float32, ok bool) {
	if s.exhausted {
		return 0, false
	}
	note := &s.notes[s.index]
	outgoing := note.Frequency
	if note.Samples != 0 && s.pos >= note.Samples {
		s.pos = 0
		s.index++
		if s.index == len(s.notes) {
			s.exhausted = true
			return 0, false
		}
		note = &s.notes[s.index]
	}
	s.pos++

	phase := s.phase
	if note.Frequency == outgoing {
		s.phase++ // wraps at 2^32; the sine is periodic, so that is harmless
	} else {
		phase = rescalePhase(phase, outgoing, note.Frequency)
		s.phase = phase
	}
	t := float64(phase) / float64(s.sampleRate)
	return float32(note.Amplitude * math.Sin(2*math.Pi*note.Frequency*t)), true
}

// rescalePhase maps a phase position under the outgoing frequency to the
// position under the incoming one that produces the same sine value, keeping
// the waveform continuous across the boundary (in amplitude, not slope).
func rescalePhase(phase uint32, outgoing, incoming float64) uint32 {
	if incoming == 0 {
		// Into a rest: the output is zero regardless of phase.
		return phase
	}
	scaled := math.Round(float64(phase) * outgoing / incoming)
	if math.IsNaN(scaled) || math.IsInf(scaled, 0) {
		return 0
	}
	// Reduce in float64 before narrowing; converting an out-of-range float
	// to an unsigned integer is not defined for uint32.
	scaled = math.Mod(scaled, 1<<32)
	return uint32(scaled)
}
