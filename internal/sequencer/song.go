package sequencer

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/cbegin/impsynth-go/internal/lfo"
	"github.com/cbegin/impsynth-go/internal/queue"
	"github.com/cbegin/impsynth-go/internal/synth"
	"github.com/cbegin/impsynth-go/internal/timebase"
)

const (
	NumInstruments = 64
	NumSynths      = 16

	DefaultBPM = 130

	// MaxEventsPerFrame caps how many tokens one instrument may dispatch in
	// a single sample. Remaining due tokens run on the next sample.
	MaxEventsPerFrame = 16

	// SlideFraction is the share of a SLIDE's duration spent gliding.
	SlideFraction = 0.25
)

var ErrIndex = errors.New("sequencer: index out of range")

// EventKind identifies song lifecycle events.
type EventKind int

const (
	// EventPlaybackEnded fires once, on the sample where time freezes.
	EventPlaybackEnded EventKind = iota
	// EventVoiceDropped fires when a STRIKE or SLIDE found no free voice.
	EventVoiceDropped
	// EventBatchGenerated fires each time an instrument's queue is refilled.
	EventBatchGenerated
)

type Options struct {
	BPM          float64
	Ramp         timebase.TempoRamp
	MaxSubdivExp int
	// OnEvent runs on the render goroutine and must not block.
	OnEvent func(EventKind)
}

// DefaultOptions returns the stock tempo with the slow-down ending.
func DefaultOptions() Options {
	return Options{
		BPM:          DefaultBPM,
		Ramp:         timebase.TempoRamp{Start: 5, Duration: 3, Target: 0},
		MaxSubdivExp: DefaultMaxSubdivExp,
	}
}

// Song renders a procedurally composed piece one sample at a time. All of
// its storage is allocated up front; RenderFrame and Process do not
// allocate.
type Song struct {
	tb          *timebase.TimeBase
	synths      [NumSynths]synth.Synth
	instruments [NumInstruments]Instrument
	rng         *rand.Rand
	gen         *Generator
	bpm         float64
	ramp        timebase.TempoRamp
	onEvent     func(EventKind)

	clips   int
	dropped int
	ended   bool
	err     error
}

// New returns a song with every synth set to a sine with the default
// envelope and every instrument inactive.
func New(sampleRate int, rng *rand.Rand, opts Options) (*Song, error) {
	if rng == nil {
		return nil, errors.New("sequencer: nil random source")
	}
	if opts.BPM <= 0 {
		return nil, fmt.Errorf("sequencer: bpm must be positive, got %v", opts.BPM)
	}
	gen, err := NewGenerator(opts.MaxSubdivExp)
	if err != nil {
		return nil, err
	}
	s := &Song{
		tb:      timebase.New(sampleRate),
		rng:     rng,
		gen:     gen,
		bpm:     opts.BPM,
		ramp:    opts.Ramp,
		onEvent: opts.OnEvent,
	}
	for i := range s.synths {
		s.synths[i].Init(nil, synth.DefaultADSR(), lfo.LFO{})
	}
	return s, nil
}

// Synth returns pool slot i for configuration before rendering starts.
func (s *Song) Synth(i int) (*synth.Synth, error) {
	if i < 0 || i >= NumSynths {
		return nil, fmt.Errorf("%w: synth %d", ErrIndex, i)
	}
	return &s.synths[i], nil
}

// Instrument returns pool slot i.
func (s *Song) Instrument(i int) (*Instrument, error) {
	if i < 0 || i >= NumInstruments {
		return nil, fmt.Errorf("%w: instrument %d", ErrIndex, i)
	}
	return &s.instruments[i], nil
}

// Activate turns instrument i on, playing synth synthIdx in scale sc. Its
// queue is emptied so the first sample generates a fresh batch.
func (s *Song) Activate(i, synthIdx int, sc Scale) error {
	in, err := s.Instrument(i)
	if err != nil {
		return err
	}
	if synthIdx < 0 || synthIdx >= NumSynths {
		return fmt.Errorf("%w: synth %d", ErrIndex, synthIdx)
	}
	if err := sc.Validate(); err != nil {
		return err
	}
	in.reset()
	in.synth = synthIdx
	in.scale = Scale{Root: sc.Root, Intervals: append([]int(nil), sc.Intervals...)}
	in.active = true
	return nil
}

// Deactivate stops instrument i from dispatching and releases the note it
// is still holding, if any. A note it already released is left alone, even
// when another instrument sounds the same pitch on the same synth.
func (s *Song) Deactivate(i int) error {
	in, err := s.Instrument(i)
	if err != nil {
		return err
	}
	if !in.active {
		return nil
	}
	in.active = false
	if in.held > 0 {
		s.synths[in.synth].Release(in.held, s.tb)
	}
	in.reset()
	return nil
}

func (s *Song) TimeBase() *timebase.TimeBase { return s.tb }
func (s *Song) BPM() float64                 { return s.bpm }
func (s *Song) Err() error                   { return s.err }
func (s *Song) Dropped() int                 { return s.dropped }

// SetBPM changes the tempo of tokens dispatched from now on.
func (s *Song) SetBPM(bpm float64) error {
	if bpm <= 0 {
		return fmt.Errorf("sequencer: bpm must be positive, got %v", bpm)
	}
	s.bpm = bpm
	return nil
}

// Finished reports whether the tempo ramp has brought time to a stop.
func (s *Song) Finished() bool {
	return s.tb.Frozen()
}

// TakeClips returns the number of clipped samples since the last call.
func (s *Song) TakeClips() int {
	n := s.clips
	s.clips = 0
	return n
}

// ActiveVoices counts sounding voices across the synth pool.
func (s *Song) ActiveVoices() int {
	n := 0
	for i := range s.synths {
		n += s.synths[i].ActiveVoices()
	}
	return n
}

// RenderFrame produces one stereo sample. After the first fatal error the
// song stays silent and keeps returning that error.
func (s *Song) RenderFrame() (l, r int16, err error) {
	if s.err != nil {
		return 0, 0, s.err
	}
	tb := s.tb
	dt := tb.ScaledDeltaTime()

	for i := range s.instruments {
		in := &s.instruments[i]
		if !in.active {
			continue
		}
		if err := s.drain(in); err != nil {
			s.err = fmt.Errorf("instrument %d: %w", i, err)
			return 0, 0, s.err
		}
		in.countdown -= dt
	}

	// Each synth is mixed once even when several instruments share it, so
	// its voices advance by exactly one sample.
	var sum float64
	for i := range s.synths {
		sum += s.synths[i].Mix(tb)
		s.synths[i].AdvanceLFO(dt)
	}

	s.ramp.Apply(tb)

	if sum > 1 {
		sum = 1
		s.clips++
	} else if sum < -1 {
		sum = -1
		s.clips++
	}
	v := int16(sum * 32767)
	tb.Tick()

	if !s.ended && s.Finished() {
		s.ended = true
		s.emit(EventPlaybackEnded)
	}
	return v, v, nil
}

// Process fills dst with interleaved stereo frames. On error the rest of
// dst is zeroed.
func (s *Song) Process(dst []int16) error {
	frames := len(dst) / 2
	for f := 0; f < frames; f++ {
		l, r, err := s.RenderFrame()
		if err != nil {
			clear(dst[f*2:])
			return err
		}
		dst[f*2] = l
		dst[f*2+1] = r
	}
	return nil
}

func (s *Song) drain(in *Instrument) error {
	for n := 0; in.countdown <= 0 && n < MaxEventsPerFrame; n++ {
		if in.queue.State() == queue.Empty {
			if err := s.gen.Fill(&in.queue, in.scale, s.rng); err != nil {
				return err
			}
			s.emit(EventBatchGenerated)
		}
		if err := s.dispatch(in); err != nil {
			return err
		}
	}
	return nil
}

func (s *Song) dispatch(in *Instrument) error {
	b, err := in.queue.Read()
	if err != nil {
		return err
	}
	op := Op(b)
	var args [3]byte
	n := op.Len() - 1
	if n < 0 {
		return fmt.Errorf("%w: opcode %d", ErrBadToken, b)
	}
	for i := 0; i < n; i++ {
		if args[i], err = in.queue.Read(); err != nil {
			return fmt.Errorf("%w: %v after %d of %d bytes: %w", ErrTruncatedToken, op, i, n, err)
		}
	}

	syn := &s.synths[in.synth]
	switch op {
	case OpStrike, OpSlide:
		dur, err := Duration(args[1], args[2], s.bpm)
		if err != nil {
			return err
		}
		freq := NoteFreq(args[0])
		var ok bool
		if op == OpSlide {
			ok = syn.Slide(in.lastFreq, freq, s.tb, dur*SlideFraction)
		} else {
			ok = syn.Strike(freq, s.tb, 0, timebase.ShapeNone)
		}
		if ok {
			in.lastFreq, in.held = freq, freq
		} else {
			s.dropped++
			s.emit(EventVoiceDropped)
		}
		in.countdown = dur
	case OpRelease:
		freq := NoteFreq(args[0])
		syn.Release(freq, s.tb)
		if in.held == freq {
			in.held = 0
		}
	case OpWait:
		dur, err := Duration(args[0], args[1], s.bpm)
		if err != nil {
			return err
		}
		in.countdown = dur
	}
	return nil
}

func (s *Song) emit(k EventKind) {
	if s.onEvent != nil {
		s.onEvent(k)
	}
}
