package aria

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	intaudio "github.com/lydianlab/aria/internal/audio"
	intseq "github.com/lydianlab/aria/internal/sequencer"
)

// PlaybackEventKind identifies playback lifecycle events.
type PlaybackEventKind int

const (
	EventPlaybackEnded PlaybackEventKind = iota
)

// PlaybackEvent is delivered on the Watch() channel.
type PlaybackEvent struct {
	Kind PlaybackEventKind
}

// How often the completion flag is polled once playback starts.
const finishPollInterval = 50 * time.Millisecond

type PlayerOption func(*playerConfig)

type playerConfig struct {
	logger    *zap.Logger
	sampleTap func([]float32)
}

func defaultPlayerConfig() playerConfig {
	return playerConfig{logger: zap.NewNop()}
}

// WithLogger attaches a logger for lifecycle diagnostics. The sample path
// never logs.
func WithLogger(logger *zap.Logger) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.logger = logger
	}
}

// WithSampleTap installs a callback invoked with each rendered stereo
// buffer. The callback runs on the audio thread; keep work brief and
// non-blocking.
func WithSampleTap(tap func([]float32)) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.sampleTap = tap
	}
}

// Player owns the device sink and drives one note sequence at a time.
type Player struct {
	mu         sync.Mutex
	sampleRate int
	logger     *zap.Logger
	sampleTap  func([]float32)
	audio      *intaudio.Player
	done       chan struct{}
	watchStop  chan struct{}
	eventCh    chan PlaybackEvent
	eventChMu  sync.Mutex
}

// noteSource wraps a sequencer as a stereo SampleSource. It owns the only
// mutable state shared with the rest of the player: the finished flag,
// written once when the sequence exhausts.
type noteSource struct {
	seq      *intseq.Sequencer
	tap      func([]float32)
	finished atomic.Bool
}

func (s *noteSource) Process(dst []float32) {
	for i := 0; i+1 < len(dst); i += 2 {
		v, ok := s.seq.NextSample()
		if !ok {
			s.finished.Store(true)
			v = 0
		}
		dst[i], dst[i+1] = v, v
	}
	if s.tap != nil {
		s.tap(dst)
	}
}

func (s *noteSource) Finished() bool {
	return s.finished.Load()
}

// NewPlayer builds a player for the given output rate. The audio device is
// not touched until Play.
func NewPlayer(sampleRate int, opts ...PlayerOption) (*Player, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	cfg := defaultPlayerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.logger.Info("player ready", zap.Int("sampleRate", sampleRate))
	return &Player{
		sampleRate: sampleRate,
		logger:     cfg.logger,
		sampleTap:  cfg.sampleTap,
	}, nil
}

// Play starts playback of notes on the default output device. Each call
// builds a fresh sequencer, so oscillator phase never leaks between runs.
// Starting while already playing replaces the running sequence.
func (p *Player) Play(notes []intseq.Note) error {
	seq, err := intseq.New(notes, p.sampleRate)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Signal any existing Wait() that the previous playback was replaced.
	if p.done != nil {
		close(p.done)
	}
	p.done = make(chan struct{})
	if p.watchStop != nil {
		close(p.watchStop)
	}
	p.watchStop = make(chan struct{})

	source := &noteSource{seq: seq, tap: p.sampleTap}
	backend, err := intaudio.NewPlayer(p.sampleRate, source)
	if err != nil {
		return err
	}
	if p.audio != nil {
		_ = p.audio.Stop()
	}
	p.audio = backend
	backend.Play()
	go p.watchFinished(source, p.watchStop)

	total, bounded := TotalSamples(notes)
	p.logger.Info("playback started",
		zap.Int("notes", len(notes)),
		zap.Int("sampleRate", p.sampleRate),
		zap.Uint64("totalSamples", total),
		zap.Bool("bounded", bounded))
	return nil
}

// PlayTokens compiles tokens with cfg and plays the result.
func (p *Player) PlayTokens(tokens []string, cfg Config) error {
	notes, err := Compile(tokens, cfg)
	if err != nil {
		return err
	}
	return p.Play(notes)
}

// watchFinished polls the source's completion flag off the audio thread and
// fans out the done channel and event when the sequence exhausts.
func (p *Player) watchFinished(source *noteSource, stop <-chan struct{}) {
	ticker := time.NewTicker(finishPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if source.Finished() {
				p.logger.Info("playback ended")
				p.sendEvent(PlaybackEvent{Kind: EventPlaybackEnded})
				p.signalDone()
				return
			}
		}
	}
}

func (p *Player) sendEvent(ev PlaybackEvent) {
	p.eventChMu.Lock()
	ch := p.eventCh
	p.eventChMu.Unlock()
	if ch != nil {
		select {
		case ch <- ev:
		default:
			// Channel full; drop the event.
		}
	}
}

func (p *Player) signalDone() {
	p.mu.Lock()
	done := p.done
	p.done = nil
	p.mu.Unlock()
	if done != nil {
		close(done)
	}
}

func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio != nil {
		p.audio.Pause()
	}
}

func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio != nil {
		p.audio.Play()
	}
}

// Stop ends playback and releases the device player. Safe to call when
// nothing is playing.
func (p *Player) Stop() error {
	p.mu.Lock()
	if p.audio == nil {
		p.mu.Unlock()
		return nil
	}
	err := p.audio.Stop()
	p.audio = nil
	if p.watchStop != nil {
		close(p.watchStop)
		p.watchStop = nil
	}
	done := p.done
	p.done = nil
	p.mu.Unlock()
	p.logger.Info("playback stopped")
	p.sendEvent(PlaybackEvent{Kind: EventPlaybackEnded})
	if done != nil {
		close(done)
	}
	return err
}

// Wait blocks until the current playback ends or is stopped. A sustaining
// final note never ends on its own; pair it with Stop. Returns immediately
// when nothing is playing.
func (p *Player) Wait() {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Watch returns a channel receiving playback events. The channel is
// buffered (cap 8) and events are dropped when it is full; only the most
// recent Watch channel receives events. Call Watch before Play.
func (p *Player) Watch() <-chan PlaybackEvent {
	ch := make(chan PlaybackEvent, 8)
	p.eventChMu.Lock()
	p.eventCh = ch
	p.eventChMu.Unlock()
	return ch
}

// PlaybackPosition returns the sample position the listener actually hears,
// or 0 when nothing is playing.
func (p *Player) PlaybackPosition() int64 {
	p.mu.Lock()
	a := p.audio
	p.mu.Unlock()
	if a == nil {
		return 0
	}
	return a.PositionSamples()
}
