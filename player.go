package impsynth

import (
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	intaudio "github.com/cbegin/impsynth-go/internal/audio"
	"github.com/cbegin/impsynth-go/internal/effects"
	intseq "github.com/cbegin/impsynth-go/internal/sequencer"
)

// PlaybackEvent carries playback events from Watch().
type PlaybackEvent struct {
	Kind  int // EventPlaybackEnded, EventClipped or EventFailed
	Clips int
	Err   error
}

const (
	EventPlaybackEnded int = iota
	EventClipped
	EventFailed
)

type PlayerOption func(*playerConfig)

type playerConfig struct {
	backend   intaudio.Backend
	logger    *slog.Logger
	sampleTap func([]int16)
}

func defaultPlayerConfig() playerConfig {
	return playerConfig{backend: intaudio.BackendEbiten, logger: slog.Default()}
}

// WithBackend selects the host audio library.
func WithBackend(backend intaudio.Backend) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.backend = backend
	}
}

// WithLogger sets the logger for clip warnings and lifecycle messages.
func WithLogger(logger *slog.Logger) PlayerOption {
	return func(cfg *playerConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithSampleTap installs a callback invoked with each generated stereo buffer.
// The callback runs on the audio thread; keep work brief and non-blocking.
func WithSampleTap(tap func([]int16)) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.sampleTap = tap
	}
}

type Player struct {
	mu        sync.Mutex
	cfg       Config
	backend   intaudio.Backend
	logger    *slog.Logger
	sampleTap func([]int16)
	volume    atomic.Uint64 // math.Float64bits
	source    *songSource
	audio     intaudio.Output
	done      chan struct{}
	eventCh   chan PlaybackEvent
	eventChMu sync.Mutex
}

// songSource wraps a song and implements SampleSource + FinishingSource.
// Per-buffer bookkeeping (clip reports, voice counts) happens here, never
// per sample.
type songSource struct {
	song    *intseq.Song
	bus     *effects.Chain
	player  *Player
	logger  *slog.Logger
	done    chan struct{}
	dropped int
	voices  [intseq.NumSynths]atomic.Int32
	err     atomic.Pointer[error]
	ended   atomic.Bool
}

// onSongEvent runs on the audio goroutine when the song reports an event.
func (w *songSource) onSongEvent(kind intseq.EventKind) {
	if kind != intseq.EventPlaybackEnded {
		return
	}
	w.ended.Store(true)
	w.logger.Debug("tempo ramp stopped time")
	w.player.sendEvent(PlaybackEvent{Kind: EventPlaybackEnded})
	go w.player.finish(w.done)
}

func (w *songSource) Process(dst []int16) error {
	if err := w.song.Process(dst); err != nil {
		if w.err.CompareAndSwap(nil, &err) {
			w.logger.Error("render failed", "err", err)
			w.player.sendEvent(PlaybackEvent{Kind: EventFailed, Err: err})
			go w.player.finish(w.done)
		}
		return err
	}
	clips := w.song.TakeClips() + w.bus.ApplyInt16(dst)
	if vol := w.player.MasterVolume(); vol != 1 {
		for i, s := range dst {
			dst[i] = int16(math.Round(float64(s) * vol))
		}
	}
	if clips > 0 {
		w.logger.Warn("clipping", "samples", clips, "frames", len(dst)/2)
		w.player.sendEvent(PlaybackEvent{Kind: EventClipped, Clips: clips})
	}
	if d := w.song.Dropped(); d != w.dropped {
		w.logger.Debug("voices saturated", "dropped", d-w.dropped)
		w.dropped = d
	}
	for i := range w.voices {
		syn, _ := w.song.Synth(i)
		w.voices[i].Store(int32(syn.ActiveVoices()))
	}
	return nil
}

func (w *songSource) Finished() bool {
	return w.song.Finished()
}

func (w *songSource) Err() error {
	if p := w.err.Load(); p != nil {
		return *p
	}
	return nil
}

// NewPlayer validates cfg. No audio device is opened until Play.
func NewPlayer(cfg Config, opts ...PlayerOption) (*Player, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pc := defaultPlayerConfig()
	for _, opt := range opts {
		opt(&pc)
	}
	p := &Player{
		cfg:       cfg,
		backend:   pc.backend,
		logger:    pc.logger,
		sampleTap: pc.sampleTap,
	}
	p.volume.Store(math.Float64bits(1))
	return p, nil
}

// Config returns the configuration songs are built from.
func (p *Player) Config() Config {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg
}

// Play starts a new song from the player's config, replacing any current
// playback.
func (p *Player) Play() error {
	return p.PlaySeed(p.Config().Seed)
}

// PlaySeed starts a new song with the given seed.
func (p *Player) PlaySeed(seed uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	cfg := p.cfg
	cfg.Seed = seed
	done := make(chan struct{})
	src := &songSource{bus: cfg.newBus(), player: p, logger: p.logger, done: done}
	song, err := cfg.NewSong(src.onSongEvent)
	if err != nil {
		return err
	}
	src.song = song

	backend, err := intaudio.Open(p.backend, cfg.SampleRate, src, intaudio.Tap(p.sampleTap))
	if err != nil {
		return err
	}
	if p.audio != nil {
		_ = p.audio.Stop()
	}
	// Signal any existing Wait() that the previous playback was replaced
	if p.done != nil {
		close(p.done)
	}
	p.done = done
	p.cfg = cfg
	p.audio = backend
	p.source = src
	p.logger.Debug("playback started", "backend", p.backend, "seed", seed, "sample_rate", cfg.SampleRate)
	p.audio.Play()
	return nil
}

func (p *Player) sendEvent(ev PlaybackEvent) {
	p.eventChMu.Lock()
	ch := p.eventCh
	p.eventChMu.Unlock()
	if ch != nil {
		select {
		case ch <- ev:
		default:
			// Channel full or closed; drop event
		}
	}
}

// finish closes done if it still belongs to the current playback. The
// audio goroutine calls it for its own song, which may already have been
// replaced.
func (p *Player) finish(done chan struct{}) {
	p.mu.Lock()
	if done == nil || p.done != done {
		p.mu.Unlock()
		return
	}
	p.done = nil
	p.mu.Unlock()
	close(done)
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

// IsPlaying reports whether audio is currently being pulled.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.audio != nil && p.audio.IsPlaying()
}

func (p *Player) Stop() error {
	p.mu.Lock()
	if p.audio == nil {
		p.mu.Unlock()
		return nil
	}
	err := p.audio.Stop()
	p.audio = nil
	done := p.done
	p.done = nil
	reported := p.source != nil && p.source.ended.Load()
	p.mu.Unlock()
	p.logger.Debug("playback stopped")
	if done != nil {
		// The song reports its own ending; Stop only reports cutting it short.
		if !reported {
			p.sendEvent(PlaybackEvent{Kind: EventPlaybackEnded})
		}
		close(done)
	}
	return err
}

// Wait blocks until the current playback ends: the tempo ramp stopped time,
// Stop was called, or rendering failed. It returns the render error, if
// any. Without a tempo ramp, Wait blocks until Stop.
func (p *Player) Wait() error {
	p.mu.Lock()
	done := p.done
	src := p.source
	p.mu.Unlock()
	if done != nil {
		<-done
	}
	if src != nil {
		return src.Err()
	}
	return nil
}

// Watch returns a channel that receives playback events. Events are sent when:
//   - EventPlaybackEnded: time stopped or Stop was called
//   - EventClipped: a buffer clipped (Clips set)
//   - EventFailed: rendering hit a fatal error (Err set)
//
// The channel is buffered (cap 8); receive in a goroutine to avoid blocking the sequencer.
// Only the most recent Watch() channel receives events; call Watch before Play.
func (p *Player) Watch() <-chan PlaybackEvent {
	ch := make(chan PlaybackEvent, 8)
	p.eventChMu.Lock()
	p.eventCh = ch
	p.eventChMu.Unlock()
	return ch
}

// PlaybackPosition returns how many frames the listener has heard of the
// current song, or -1 when the backend cannot report it.
func (p *Player) PlaybackPosition() int64 {
	p.mu.Lock()
	out, sr := p.audio, p.cfg.SampleRate
	p.mu.Unlock()
	pos, ok := out.(interface{ Position() time.Duration })
	if !ok {
		return -1
	}
	return int64(pos.Position().Seconds() * float64(sr))
}

// VoiceActivity returns the number of sounding voices per synth as of the
// last rendered buffer.
func (p *Player) VoiceActivity() [intseq.NumSynths]int {
	var out [intseq.NumSynths]int
	p.mu.Lock()
	src := p.source
	p.mu.Unlock()
	if src == nil {
		return out
	}
	for i := range out {
		out[i] = int(src.voices[i].Load())
	}
	return out
}

// SetMasterVolume sets runtime volume scalar. 1.0 is default.
func (p *Player) SetMasterVolume(volume float64) {
	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}
	p.volume.Store(math.Float64bits(volume))
}

func (p *Player) MasterVolume() float64 {
	return math.Float64frombits(p.volume.Load())
}
