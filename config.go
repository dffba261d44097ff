package impsynth

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"strconv"

	"github.com/cbegin/impsynth-go/internal/effects"
	"github.com/cbegin/impsynth-go/internal/lfo"
	"github.com/cbegin/impsynth-go/internal/queue"
	"github.com/cbegin/impsynth-go/internal/sequencer"
	"github.com/cbegin/impsynth-go/internal/synth"
	"github.com/cbegin/impsynth-go/internal/timebase"
	"github.com/cbegin/impsynth-go/internal/wavetable"
)

var ErrInvalidConfig = errors.New("impsynth: invalid config")

// VibratoConfig is a synth's pitch LFO. Amp is the deviation in Hz.
type VibratoConfig struct {
	Amp      float64 `json:"amp"`
	Freq     float64 `json:"freq"`
	Waveform string  `json:"waveform,omitempty"`
}

// SynthConfig describes one timbre. Harmonics, when set, overrides the
// named preset.
type SynthConfig struct {
	Preset    string        `json:"preset"`
	Harmonics []float64     `json:"harmonics,omitempty"`
	ADSR      synth.ADSR    `json:"adsr"`
	Vibrato   VibratoConfig `json:"vibrato"`
}

// UnmarshalJSON decodes over DefaultSynthConfig, so a config file only
// needs to name the fields it changes.
func (sc *SynthConfig) UnmarshalJSON(b []byte) error {
	type plain SynthConfig
	p := plain(DefaultSynthConfig())
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return err
	}
	*sc = SynthConfig(p)
	return nil
}

// InstrumentConfig activates one instrument. Intervals, when set, override
// the named scale.
type InstrumentConfig struct {
	Synth     int    `json:"synth"`
	Scale     string `json:"scale"`
	Root      string `json:"root"`
	Intervals []int  `json:"intervals,omitempty"`
}

// DelayConfig is a feedback echo on the master bus.
type DelayConfig struct {
	Ms       float64 `json:"ms"`
	Feedback float64 `json:"feedback"`
	Cross    float64 `json:"cross"`
	Wet      float64 `json:"wet"`
}

// ReverbConfig is a room reverb on the master bus.
type ReverbConfig struct {
	Room     float64 `json:"room"`
	Feedback float64 `json:"feedback"`
	Wet      float64 `json:"wet"`
}

// EffectsConfig is the optional master bus, applied delay first. Both
// stages are off when nil.
type EffectsConfig struct {
	Delay  *DelayConfig  `json:"delay,omitempty"`
	Reverb *ReverbConfig `json:"reverb,omitempty"`
}

// UnmarshalJSON decodes over a pentatonic A instrument on synth 0. Every
// entry starts from the same defaults, whatever its position in the list.
func (ic *InstrumentConfig) UnmarshalJSON(b []byte) error {
	type plain InstrumentConfig
	p := plain{Scale: "pentatonic", Root: "A"}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return err
	}
	*ic = InstrumentConfig(p)
	return nil
}

// Config is everything needed to build a Song. Synth pool slot i uses
// Synths[i % len(Synths)].
type Config struct {
	SampleRate   int                `json:"sample_rate"`
	Seed         uint64             `json:"seed"`
	BPM          float64            `json:"bpm"`
	MaxSubdivExp int                `json:"max_subdiv_exp"`
	Ramp         timebase.TempoRamp `json:"ramp"`
	Synths       []SynthConfig      `json:"synths"`
	Instruments  []InstrumentConfig `json:"instruments"`
	Effects      EffectsConfig      `json:"effects"`
}

// DefaultSynthConfig is the violin patch every synth starts with.
func DefaultSynthConfig() SynthConfig {
	return SynthConfig{
		Preset:  "violin",
		ADSR:    synth.DefaultADSR(),
		Vibrato: VibratoConfig{Amp: .5, Freq: 3, Waveform: "sine"},
	}
}

// DefaultConfig returns four pentatonic instruments in A on their own
// violin synths at 130 bpm, slowing to a stop after five seconds.
func DefaultConfig() Config {
	cfg := Config{
		SampleRate:   timebase.DefaultSampleRate,
		BPM:          sequencer.DefaultBPM,
		MaxSubdivExp: sequencer.DefaultMaxSubdivExp,
		Ramp:         sequencer.DefaultOptions().Ramp,
		Synths:       []SynthConfig{DefaultSynthConfig()},
	}
	for i := 0; i < 4; i++ {
		cfg.Instruments = append(cfg.Instruments, InstrumentConfig{Synth: i, Scale: "pentatonic", Root: "A"})
	}
	return cfg
}

// LoadConfig reads a JSON config file over the defaults. Unknown fields
// are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides cfg from IMPSYNTH_SEED, IMPSYNTH_BPM and
// IMPSYNTH_SAMPLE_RATE when they are set.
func ApplyEnv(cfg *Config) error {
	if v := os.Getenv("IMPSYNTH_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: IMPSYNTH_SEED: %w", ErrInvalidConfig, err)
		}
		cfg.Seed = seed
	}
	if v := os.Getenv("IMPSYNTH_BPM"); v != "" {
		bpm, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: IMPSYNTH_BPM: %w", ErrInvalidConfig, err)
		}
		cfg.BPM = bpm
	}
	if v := os.Getenv("IMPSYNTH_SAMPLE_RATE"); v != "" {
		sr, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: IMPSYNTH_SAMPLE_RATE: %w", ErrInvalidConfig, err)
		}
		cfg.SampleRate = sr
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// Validate checks every setting that would otherwise fail while
// rendering.
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return invalid("sample rate %d", c.SampleRate)
	}
	if c.BPM <= 0 {
		return invalid("bpm %v", c.BPM)
	}
	if c.MaxSubdivExp < 0 || c.MaxSubdivExp > 3 || sequencer.WorstCaseBatch(c.MaxSubdivExp) > queue.Capacity {
		return invalid("max_subdiv_exp %d overflows a %d byte queue", c.MaxSubdivExp, queue.Capacity)
	}
	if c.Ramp.Duration < 0 || c.Ramp.Start < 0 || c.Ramp.Target < 0 {
		return invalid("ramp %+v", c.Ramp)
	}
	if len(c.Synths) == 0 || len(c.Synths) > sequencer.NumSynths {
		return invalid("%d synths, want 1..%d", len(c.Synths), sequencer.NumSynths)
	}
	for i, sc := range c.Synths {
		if err := sc.validate(); err != nil {
			return fmt.Errorf("synth %d: %w", i, err)
		}
	}
	if len(c.Instruments) > sequencer.NumInstruments {
		return invalid("%d instruments, at most %d", len(c.Instruments), sequencer.NumInstruments)
	}
	for i, ic := range c.Instruments {
		if ic.Synth < 0 || ic.Synth >= sequencer.NumSynths {
			return invalid("instrument %d: synth %d out of range", i, ic.Synth)
		}
		if _, err := ic.scale(); err != nil {
			return fmt.Errorf("%w: instrument %d: %w", ErrInvalidConfig, i, err)
		}
	}
	return c.Effects.validate()
}

func (ec EffectsConfig) validate() error {
	unit := func(v float64) bool { return v >= 0 && v <= 1 }
	if d := ec.Delay; d != nil && (d.Ms <= 0 || !unit(d.Feedback) || !unit(d.Cross) || !unit(d.Wet)) {
		return invalid("delay %+v", *d)
	}
	if r := ec.Reverb; r != nil && (!unit(r.Room) || !unit(r.Feedback) || !unit(r.Wet)) {
		return invalid("reverb %+v", *r)
	}
	return nil
}

// newBus builds the master effects chain, or nil when none is configured.
func (c Config) newBus() *effects.Chain {
	var chain *effects.Chain
	add := func(e effects.Effector) {
		if chain == nil {
			chain = effects.NewChain()
		}
		chain.Add(e)
	}
	if d := c.Effects.Delay; d != nil {
		add(effects.NewDelay(c.SampleRate, d.Ms, d.Feedback, d.Cross, d.Wet))
	}
	if r := c.Effects.Reverb; r != nil {
		add(effects.NewReverb(c.SampleRate, r.Room, r.Feedback, r.Wet))
	}
	return chain
}

func (sc SynthConfig) validate() error {
	if len(sc.Harmonics) > 0 {
		if _, err := wavetable.New(sc.Harmonics); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	} else if _, err := wavetable.Preset(sc.Preset, rand.New(rand.NewPCG(0, 0))); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := sc.ADSR.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := lfo.ParseWaveform(sc.Vibrato.Waveform); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func (ic InstrumentConfig) scale() (sequencer.Scale, error) {
	root := 0
	if ic.Root != "" {
		pc, err := sequencer.ParsePitchClass(ic.Root)
		if err != nil {
			return sequencer.Scale{}, err
		}
		root = pc
	}
	if len(ic.Intervals) > 0 {
		sc := sequencer.Scale{Root: root, Intervals: ic.Intervals}
		return sc, sc.Validate()
	}
	return sequencer.NamedScale(ic.Scale, root)
}

// NewSong validates c and builds a ready-to-render song seeded with
// c.Seed. onEvent may be nil.
func (c Config) NewSong(onEvent func(sequencer.EventKind)) (*sequencer.Song, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewPCG(c.Seed, c.Seed))
	song, err := sequencer.New(c.SampleRate, rng, sequencer.Options{
		BPM:          c.BPM,
		Ramp:         c.Ramp,
		MaxSubdivExp: c.MaxSubdivExp,
		OnEvent:      onEvent,
	})
	if err != nil {
		return nil, err
	}
	for i := 0; i < sequencer.NumSynths; i++ {
		sc := c.Synths[i%len(c.Synths)]
		table, err := sc.table(rng)
		if err != nil {
			return nil, err
		}
		wave, _ := lfo.ParseWaveform(sc.Vibrato.Waveform)
		var vib lfo.LFO
		vib.Set(sc.Vibrato.Amp, sc.Vibrato.Freq, wave)
		syn, _ := song.Synth(i)
		syn.Init(table, sc.ADSR, vib)
	}
	for i, ic := range c.Instruments {
		scale, _ := ic.scale()
		if err := song.Activate(i, ic.Synth, scale); err != nil {
			return nil, err
		}
	}
	return song, nil
}

func (sc SynthConfig) table(rng *rand.Rand) (*wavetable.HarmonicsWavetable, error) {
	if len(sc.Harmonics) > 0 {
		return wavetable.New(sc.Harmonics)
	}
	return wavetable.Preset(sc.Preset, rng)
}
