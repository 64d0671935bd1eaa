// Command aria-tui plays a token sequence with a terminal playback monitor:
// a progress bar, the token list with the sounding note highlighted, and the
// tempo and tuning in use. Press q to stop, Enter to release a fermata.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/lydianlab/aria"
	"github.com/lydianlab/aria/internal/notation"
	"github.com/lydianlab/aria/internal/sequencer"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	currentStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213"))
	playedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	barStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

const (
	barWidth   = 40
	sampleRate = 48000
)

type tickMsg time.Time

type endedMsg struct{}

type model struct {
	player     *aria.Player
	events     <-chan aria.PlaybackEvent
	notes      []sequencer.Note
	noteTokens []string // tokens that produced notes, dynamics folded away
	tempo      int
	tuning     float64
	fermata    bool
	total      uint64
	bounded    bool
	pos        int64
	quitting   bool
}

func tick() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func listenForEnd(events <-chan aria.PlaybackEvent) tea.Cmd {
	return func() tea.Msg {
		for ev := range events {
			if ev.Kind == aria.EventPlaybackEnded {
				return endedMsg{}
			}
		}
		return endedMsg{}
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(tick(), listenForEnd(m.events))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			m.player.Stop()
			return m, tea.Quit
		case "enter":
			if m.fermata {
				m.player.Stop()
			}
		}
	case tickMsg:
		m.pos = m.player.PlaybackPosition()
		return m, tick()
	case endedMsg:
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("aria"))
	b.WriteString(labelStyle.Render(fmt.Sprintf("  %d bpm, A4 = %g Hz\n\n", m.tempo, m.tuning)))

	pos := uint64(0)
	if m.pos > 0 {
		pos = uint64(m.pos)
	}
	b.WriteString(m.renderBar(pos))
	b.WriteString("\n\n")
	b.WriteString(m.renderTokens(pos))
	b.WriteString("\n\n")
	if m.fermata {
		b.WriteString(helpStyle.Render("enter: release fermata   q: quit"))
	} else {
		b.WriteString(helpStyle.Render("q: quit"))
	}
	b.WriteString("\n")
	return b.String()
}

func (m model) renderBar(pos uint64) string {
	if !m.bounded {
		elapsed := time.Duration(pos) * time.Second / sampleRate
		return barStyle.Render(fmt.Sprintf("%7.1fs", elapsed.Seconds())) +
			labelStyle.Render("  (sustaining)")
	}
	filled := 0
	if m.total > 0 {
		filled = int(pos * barWidth / m.total)
		if filled > barWidth {
			filled = barWidth
		}
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
	percent := uint64(0)
	if m.total > 0 {
		percent = pos * 100 / m.total
		if percent > 100 {
			percent = 100
		}
	}
	return barStyle.Render(bar) + labelStyle.Render(fmt.Sprintf(" %3d%%", percent))
}

func (m model) renderTokens(pos uint64) string {
	current := aria.IndexAtSample(m.notes, pos)
	parts := make([]string, len(m.noteTokens))
	for i, token := range m.noteTokens {
		display := token
		if display == "" {
			display = "·"
		}
		switch {
		case i == current:
			parts[i] = currentStyle.Render(display)
		case i < current:
			parts[i] = playedStyle.Render(display)
		default:
			parts[i] = display
		}
	}
	return strings.Join(parts, " ")
}

func main() {
	var (
		tempoBPM = flag.Int("tempo", 120, "tempo in beats per minute")
		tuning   = flag.Float64("tuning", 440.0, "reference pitch for A4 in Hz")
		fermata  = flag.Bool("fermata", false, "hold the last note until released")
	)
	flag.Parse()
	tokens := flag.Args()
	if len(tokens) == 0 {
		fmt.Fprintln(os.Stderr, "usage: aria-tui [flags] token ...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	logger := zap.NewNop()
	cfg := aria.Config{Tempo: *tempoBPM, Tuning: *tuning, Fermata: *fermata}
	notes, err := aria.Compile(tokens, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if len(notes) == 0 {
		fmt.Fprintln(os.Stderr, "no notes in sequence")
		os.Exit(1)
	}

	noteTokens := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, ok := notation.IsDynamic(token); !ok {
			noteTokens = append(noteTokens, token)
		}
	}

	pl, err := aria.NewPlayer(sampleRate, aria.WithLogger(logger))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	events := pl.Watch()
	if err := pl.Play(notes); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	total, bounded := aria.TotalSamples(notes)
	m := model{
		player:     pl,
		events:     events,
		notes:      notes,
		noteTokens: noteTokens,
		tempo:      *tempoBPM,
		tuning:     *tuning,
		fermata:    *fermata,
		total:      total,
		bounded:    bounded,
	}
	if _, err := tea.NewProgram(m).Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	pl.Stop()
}
