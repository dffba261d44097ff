package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/cbegin/impsynth-go"
	intaudio "github.com/cbegin/impsynth-go/internal/audio"
)

var logger = slog.Default()

// initLogger installs a text handler on stderr as the default logger, so
// log.* output goes through it too.
func initLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	})
	logger = slog.New(h)
	slog.SetDefault(logger)
}

func main() {
	var (
		configPath = flag.String("config", "", "path to a JSON song config")
		seed       = flag.Uint64("seed", 0, "random seed (overrides config and IMPSYNTH_SEED)")
		bpm        = flag.Float64("bpm", 0, "tempo in beats per minute (overrides config)")
		backend    = flag.String("backend", "ebiten", "audio backend: ebiten|oto|beep")
		seconds    = flag.Float64("seconds", 0, "stop after N seconds (0 = until the tempo ramp stops time)")
		outPath    = flag.String("out", "", "render to a 16-bit WAV file instead of playing")
		raw        = flag.Bool("raw", false, "stream raw s16le stereo PCM to stdout")
		volume     = flag.Float64("volume", 1.0, "master volume scalar (0..1)")
		debug      = flag.Bool("debug", false, "verbose logging")
	)
	flag.Parse()
	initLogger(*debug)

	cfg, err := resolveConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "seed":
			cfg.Seed = *seed
		case "bpm":
			cfg.BPM = *bpm
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	switch {
	case *outPath != "":
		err = renderWAV(cfg, *outPath, *seconds)
	case *raw:
		err = streamRaw(cfg, *seconds)
	default:
		err = play(cfg, *backend, *volume, *seconds)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func resolveConfig(path string) (impsynth.Config, error) {
	cfg := impsynth.DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = impsynth.LoadConfig(path); err != nil {
			return cfg, err
		}
	}
	return cfg, impsynth.ApplyEnv(&cfg)
}

// renderLength picks how much to render offline. Without -seconds the
// song runs until the tempo ramp has stopped time.
func renderLength(cfg impsynth.Config, seconds float64) (float64, error) {
	if seconds > 0 {
		return seconds, nil
	}
	if !cfg.Ramp.Enabled() {
		return 0, errors.New("-seconds is required when the config has no tempo ramp")
	}
	return cfg.Ramp.Start + cfg.Ramp.Duration + 1, nil
}

func renderWAV(cfg impsynth.Config, path string, seconds float64) error {
	secs, err := renderLength(cfg, seconds)
	if err != nil {
		return err
	}
	start := time.Now()
	samples, err := impsynth.RenderSamples(cfg, secs)
	if err != nil {
		return err
	}
	if err := impsynth.WriteWAV(path, samples, cfg.SampleRate); err != nil {
		return err
	}
	logger.Info("rendered",
		"path", path,
		"seed", cfg.Seed,
		"seconds", float64(len(samples)/2)/float64(cfg.SampleRate),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

func streamRaw(cfg impsynth.Config, seconds float64) error {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("refusing to write raw PCM to a terminal; redirect stdout")
	}
	w := bufio.NewWriterSize(os.Stdout, 64<<10)
	n, err := impsynth.WritePCM(w, cfg, seconds)
	if ferr := w.Flush(); err == nil {
		err = ferr
	}
	logger.Debug("stream ended", "bytes", n)
	return err
}

func play(cfg impsynth.Config, backendName string, volume float64, seconds float64) error {
	backend, err := intaudio.ParseBackend(backendName)
	if err != nil {
		return fmt.Errorf("invalid -backend: %w", err)
	}
	pl, err := impsynth.NewPlayer(cfg, impsynth.WithBackend(backend), impsynth.WithLogger(logger))
	if err != nil {
		return err
	}
	pl.SetMasterVolume(volume)
	ch := pl.Watch()
	if err := pl.Play(); err != nil {
		return err
	}
	logger.Info("playing", "seed", cfg.Seed, "bpm", cfg.BPM, "backend", backend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if seconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(seconds*float64(time.Second)))
		defer cancel()
	}
	go func() {
		<-ctx.Done()
		pl.Stop()
	}()
	var clips atomic.Int64
	go func() {
		for ev := range ch {
			if ev.Kind == impsynth.EventClipped {
				clips.Add(int64(ev.Clips))
			}
		}
	}()
	err = pl.Wait()
	pl.Stop()
	logger.Info("playback completed", "clipped_samples", clips.Load())
	return err
}
