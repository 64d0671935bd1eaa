// Command aria plays a sequence of note tokens through the default audio
// device, or renders them to WAV and MIDI files.
//
// Tokens follow [letter][accidentals][octave][':'value]['.'dots], e.g.
// "c#4:8.."; a token without a letter is a rest, and the markings ppp..fff
// set the loudness of everything after them.
//
//	aria -tempo 100 e5 d# e5 d# e5 b4 d5 c5 a4
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	"go.uber.org/zap"

	"github.com/lydianlab/aria"
	"github.com/lydianlab/aria/internal/midifile"
	"github.com/lydianlab/aria/internal/notation"
	"github.com/lydianlab/aria/internal/sequencer"
)

func main() {
	var (
		tempoBPM   = flag.Int("tempo", 120, "tempo in beats per minute")
		tuning     = flag.Float64("tuning", 440.0, "reference pitch for A4 in Hz")
		sampleRate = flag.Int("sample-rate", 48000, "output sample rate")
		fermata    = flag.Bool("fermata", false, "hold the last note until Enter is pressed")
		wavPath    = flag.String("wav", "", "render to a WAV file instead of playing")
		midPath    = flag.String("mid", "", "also export the sequence as a standard MIDI file")
		verbose    = flag.Bool("verbose", false, "verbose logging")
	)
	flag.Parse()
	tokens := flag.Args()
	if len(tokens) == 0 {
		fmt.Fprintln(os.Stderr, "usage: aria [flags] token ...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	logger := newLogger(*verbose)
	defer logger.Sync()

	cfg := aria.Config{
		Tempo:      *tempoBPM,
		Tuning:     *tuning,
		SampleRate: *sampleRate,
		Fermata:    *fermata,
	}
	notes, err := aria.Compile(tokens, cfg)
	if err != nil {
		logger.Fatal("compile failed", zap.Error(err))
	}
	if len(notes) == 0 {
		logger.Fatal("no notes in sequence")
	}

	if *midPath != "" {
		if err := exportMIDI(*midPath, tokens, *tempoBPM); err != nil {
			logger.Fatal("midi export failed", zap.Error(err))
		}
		fmt.Printf("wrote %s\n", *midPath)
	}

	if *wavPath != "" {
		if *fermata {
			logger.Fatal("cannot render a fermata to a file; it never ends")
		}
		if err := exportWAV(*wavPath, notes, *sampleRate); err != nil {
			logger.Fatal("wav export failed", zap.Error(err))
		}
		return
	}

	pl, err := aria.NewPlayer(*sampleRate, aria.WithLogger(logger))
	if err != nil {
		logger.Fatal("player setup failed", zap.Error(err))
	}
	if err := pl.Play(notes); err != nil {
		logger.Fatal("playback failed", zap.Error(err))
	}
	if *fermata {
		fmt.Println("Press Enter to stop playback...")
		bufio.NewReader(os.Stdin).ReadString('\n')
		pl.Stop()
	} else {
		pl.Wait()
		fmt.Println("playback completed")
	}
}

func exportMIDI(path string, tokens []string, tempoBPM int) error {
	seq, err := notation.Parse(tokens)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return midifile.Write(f, seq, tempoBPM)
}

func exportWAV(path string, notes []sequencer.Note, sampleRate int) error {
	samples, err := aria.RenderSamples(notes, sampleRate)
	if err != nil {
		return err
	}
	data := aria.EncodeWAVFloat32LE(samples, sampleRate, 1)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}
	length := time.Duration(len(samples)) * time.Second / time.Duration(sampleRate)
	fmt.Printf("wrote %s (%s, %s)\n", path,
		humanize.Bytes(uint64(len(data))),
		durafmt.Parse(length).LimitFirstN(2))
	return nil
}

func newLogger(verbose bool) *zap.Logger {
	if verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		return logger
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}
