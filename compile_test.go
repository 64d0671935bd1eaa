package aria

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/lydianlab/aria/internal/notation"
	"github.com/lydianlab/aria/internal/sequencer"
	"github.com/lydianlab/aria/internal/tempo"
)

func TestCompileSingleNoteFixture(t *testing.T) {
	notes, err := Compile([]string{"a"}, DefaultConfig())
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	if len(notes) != 1 {
		t.Fatalf("expected 1 note, got %d", len(notes))
	}
	n := notes[0]
	if n.Frequency != 440 {
		t.Fatalf("expected 440 Hz, got %v", n.Frequency)
	}
	if n.Samples != 24000 {
		t.Fatalf("expected 24000 samples (500ms at 48kHz), got %d", n.Samples)
	}
	if n.Amplitude != notation.DefaultAmplitude {
		t.Fatalf("expected default amplitude %v, got %v", notation.DefaultAmplitude, n.Amplitude)
	}
}

func TestCompileZeroConfigUsesDefaults(t *testing.T) {
	notes, err := Compile([]string{"a"}, Config{})
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	if notes[0].Frequency != 440 || notes[0].Samples != 24000 {
		t.Fatalf("expected defaults applied, got %+v", notes[0])
	}
}

func TestCompileRestAndDynamics(t *testing.T) {
	notes, err := Compile([]string{"fff", "a", ":4", "pp", "c5:8"}, DefaultConfig())
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	if len(notes) != 3 {
		t.Fatalf("expected 3 notes, got %d", len(notes))
	}
	if notes[0].Amplitude != 1 {
		t.Fatalf("expected fff amplitude 1, got %v", notes[0].Amplitude)
	}
	if notes[1].Frequency != 0 {
		t.Fatalf("expected a rest, got %v Hz", notes[1].Frequency)
	}
	if notes[2].Amplitude != 0.25 {
		t.Fatalf("expected pp amplitude 0.25, got %v", notes[2].Amplitude)
	}
	if notes[2].Samples != 12000 {
		t.Fatalf("expected eighth note of 12000 samples, got %d", notes[2].Samples)
	}
}

func TestCompileTuningAffectsFrequency(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tuning = 432
	notes, err := Compile([]string{"a"}, cfg)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	if notes[0].Frequency != 432 {
		t.Fatalf("expected 432 Hz, got %v", notes[0].Frequency)
	}
}

func TestCompileFermataSustainsLastNote(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Fermata = true
	notes, err := Compile([]string{"a", "b", "c"}, cfg)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	if notes[0].Samples == 0 || notes[1].Samples == 0 {
		t.Fatalf("expected only the last note sustained")
	}
	if notes[2].Samples != 0 {
		t.Fatalf("expected last note sustained, got %d samples", notes[2].Samples)
	}
}

func TestCompileErrorsCarryTokenText(t *testing.T) {
	cases := []struct {
		tokens []string
		target error
	}{
		{[]string{"a", "b:3"}, tempo.ErrBadNoteValue},
		{[]string{"a", "xyz"}, notation.ErrInvalidToken},
	}
	for _, tc := range cases {
		_, err := Compile(tc.tokens, DefaultConfig())
		if !errors.Is(err, tc.target) {
			t.Fatalf("tokens %v: expected %v, got %v", tc.tokens, tc.target, err)
		}
		if !strings.Contains(err.Error(), tc.tokens[1]) {
			t.Fatalf("tokens %v: expected the bad token in %q", tc.tokens, err)
		}
	}
}

func TestCompileNyquistViolation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SampleRate = 800
	// a5 = 880 Hz > 400 Hz Nyquist limit at an 800 Hz rate.
	_, err := Compile([]string{"a5"}, cfg)
	if !errors.Is(err, sequencer.ErrNyquistExceeded) {
		t.Fatalf("expected ErrNyquistExceeded, got %v", err)
	}
}

func TestCompileEmptyInputIsNotAnError(t *testing.T) {
	notes, err := Compile(nil, DefaultConfig())
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	if len(notes) != 0 {
		t.Fatalf("expected no notes, got %d", len(notes))
	}
	// Sequencing the empty result is where the failure surfaces.
	if _, err := sequencer.New(notes, 48000); !errors.Is(err, sequencer.ErrEmptySequence) {
		t.Fatalf("expected ErrEmptySequence, got %v", err)
	}
}

func TestCompileRoundTripThroughSequencer(t *testing.T) {
	notes, err := Compile([]string{"a:8"}, DefaultConfig())
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	seq, err := sequencer.New(notes, 48000)
	if err != nil {
		t.Fatalf("new sequencer: %v", err)
	}
	for i := uint64(0); i < notes[0].Samples; i++ {
		if _, ok := seq.NextSample(); !ok {
			t.Fatalf("stream ended early at sample %d of %d", i, notes[0].Samples)
		}
	}
	if _, ok := seq.NextSample(); ok {
		t.Fatalf("expected end of stream after %d samples", notes[0].Samples)
	}
}

func TestCompileExtremeTempoStaysFinite(t *testing.T) {
	// A 64th note at 4000 BPM lasts under a millisecond; truncation must not
	// turn it into the sustain sentinel, or playback would never end.
	cfg := DefaultConfig()
	cfg.Tempo = 4000
	notes, err := Compile([]string{"a:64"}, cfg)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	if notes[0].Samples == 0 {
		t.Fatalf("expected a finite note, got the sustain sentinel")
	}
	seq, err := sequencer.New(notes, cfg.SampleRate)
	if err != nil {
		t.Fatalf("new sequencer: %v", err)
	}
	for i := uint64(0); i < notes[0].Samples; i++ {
		if _, ok := seq.NextSample(); !ok {
			t.Fatalf("stream ended early at sample %d", i)
		}
	}
	if _, ok := seq.NextSample(); ok {
		t.Fatalf("expected the sequence to terminate")
	}
	if _, bounded := TotalSamples(notes); !bounded {
		t.Fatalf("expected a bounded sequence")
	}
}

func TestTotalSamples(t *testing.T) {
	notes := []sequencer.Note{
		{Frequency: 440, Amplitude: 1, Samples: 100},
		{Frequency: 0, Amplitude: 1, Samples: 50},
	}
	total, bounded := TotalSamples(notes)
	if !bounded || total != 150 {
		t.Fatalf("expected (150, true), got (%d, %v)", total, bounded)
	}
	notes[1].Samples = 0
	if _, bounded := TotalSamples(notes); bounded {
		t.Fatalf("expected a sustaining sequence to be unbounded")
	}
}

func TestIndexAtSample(t *testing.T) {
	notes := []sequencer.Note{
		{Samples: 100},
		{Samples: 50},
		{Samples: 25},
	}
	cases := []struct {
		pos  uint64
		want int
	}{
		{0, 0}, {99, 0}, {100, 1}, {149, 1}, {150, 2}, {174, 2}, {175, 3}, {1000, 3},
	}
	for _, tc := range cases {
		if got := IndexAtSample(notes, tc.pos); got != tc.want {
			t.Fatalf("pos %d: expected index %d, got %d", tc.pos, tc.want, got)
		}
	}
	// A sustaining middle note swallows everything after it.
	notes[1].Samples = 0
	if got := IndexAtSample(notes, 1_000_000); got != 1 {
		t.Fatalf("expected sustain to pin the index at 1, got %d", got)
	}
}

func TestDottedQuarterIsExactlyOneAndAHalf(t *testing.T) {
	plain, err := Compile([]string{"a"}, DefaultConfig())
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	dotted, err := Compile([]string{"a."}, DefaultConfig())
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	if got, want := dotted[0].Samples, plain[0].Samples*3/2; got != want {
		t.Fatalf("expected dotted quarter of %d samples, got %d", want, got)
	}
}

func TestCompileOctaveDoubling(t *testing.T) {
	lo, err := Compile([]string{"a4"}, DefaultConfig())
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	hi, err := Compile([]string{"a5"}, DefaultConfig())
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	if math.Abs(hi[0].Frequency-2*lo[0].Frequency) > 1e-9 {
		t.Fatalf("expected doubling, got %v and %v", lo[0].Frequency, hi[0].Frequency)
	}
}
