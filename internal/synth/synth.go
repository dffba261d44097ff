package synth

import (
	"github.com/cbegin/impsynth-go/internal/lfo"
	"github.com/cbegin/impsynth-go/internal/timebase"
	"github.com/cbegin/impsynth-go/internal/wavetable"
)

// NumVoices is the fixed polyphony of a Synth.
const NumVoices = 32

// Synth is a fixed pool of voices sharing one timbre: wavetable, envelope
// and vibrato. Several instruments may drive the same Synth.
type Synth struct {
	Wavetable *wavetable.HarmonicsWavetable
	ADSR      ADSR
	Vibrato   lfo.LFO
	Voices    [NumVoices]Voice
}

// New returns a synth with every voice Off.
func New(table *wavetable.HarmonicsWavetable, env ADSR, vibrato lfo.LFO) *Synth {
	s := &Synth{}
	s.Init(table, env, vibrato)
	return s
}

// Init (re)configures s in place and silences every voice.
func (s *Synth) Init(table *wavetable.HarmonicsWavetable, env ADSR, vibrato lfo.LFO) {
	if table == nil {
		table = wavetable.Sine()
	}
	s.Wavetable = table
	s.ADSR = env
	s.Vibrato = vibrato
	for i := range s.Voices {
		s.Voices[i] = newVoice()
	}
}

func (s *Synth) freeVoice() *Voice {
	for i := range s.Voices {
		if s.Voices[i].state == VoiceOff {
			return &s.Voices[i]
		}
	}
	return nil
}

// Strike starts freq on the first Off voice. It returns false when every
// voice is busy; the note is then dropped.
func (s *Synth) Strike(freq float64, tb *timebase.TimeBase, glide float64, shape timebase.Shape) bool {
	v := s.freeVoice()
	if v == nil {
		return false
	}
	v.Strike(freq, tb, glide, shape)
	return true
}

// Slide starts a note on the first Off voice that glides linearly from
// `from` to `to` over glide seconds.
func (s *Synth) Slide(from, to float64, tb *timebase.TimeBase, glide float64) bool {
	v := s.freeVoice()
	if v == nil {
		return false
	}
	if from > 0 {
		v.Retune(from, tb)
	}
	v.Strike(to, tb, glide, timebase.ShapeLinear)
	return true
}

// Release moves the first On voice targeting freq into its release. It
// returns false if no such voice exists.
func (s *Synth) Release(freq float64, tb *timebase.TimeBase) bool {
	for i := range s.Voices {
		v := &s.Voices[i]
		if v.state == VoiceOn && v.frequency.Target() == freq {
			v.Release(tb)
			return true
		}
	}
	return false
}

// Mix returns the summed output of all sounding voices and then advances
// each of them by one sample.
func (s *Synth) Mix(tb *timebase.TimeBase) float64 {
	var sum float64
	for i := range s.Voices {
		v := &s.Voices[i]
		if v.state == VoiceOff {
			continue
		}
		sum += v.Sample(s, tb)
		v.ProceedPhase(s, tb)
	}
	return sum
}

// AdvanceLFO moves the vibrato phase forward by dt.
func (s *Synth) AdvanceLFO(dt float64) {
	s.Vibrato.Advance(dt)
}

// ActiveVoices counts voices that are not Off.
func (s *Synth) ActiveVoices() int {
	n := 0
	for i := range s.Voices {
		if s.Voices[i].state != VoiceOff {
			n++
		}
	}
	return n
}

// Silence turns every voice Off immediately.
func (s *Synth) Silence() {
	for i := range s.Voices {
		s.Voices[i].state = VoiceOff
	}
}
