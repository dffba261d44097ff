package synth

import (
	"fmt"
	"math"

	"github.com/cbegin/impsynth-go/internal/timebase"
)

// VoiceState is a voice's position in its note lifecycle.
type VoiceState int

const (
	VoiceOff VoiceState = iota
	VoiceOn
	VoiceReleasing
)

func (s VoiceState) String() string {
	switch s {
	case VoiceOff:
		return "off"
	case VoiceOn:
		return "on"
	case VoiceReleasing:
		return "releasing"
	}
	return fmt.Sprintf("VoiceState(%d)", int(s))
}

// DefaultVoiceGain is the static gain each voice applies to its output.
const DefaultVoiceGain = .25

// Voice is one sounding note. A voice belongs to exactly one Synth slot and
// only ever touches its own fields.
type Voice struct {
	state           VoiceState
	lastStrikeTime  float64
	lastReleaseTime float64
	frequency       timebase.Interpolated
	phase           float64
	vol             float64
}

func newVoice() Voice {
	return Voice{vol: DefaultVoiceGain}
}

// Strike starts (or retargets) a note. The frequency glides from wherever it
// currently is. Striking an On voice keeps its envelope position, so a
// re-strike is a legato pitch change; an Off or Releasing voice restarts
// its attack at the current song time.
func (v *Voice) Strike(freq float64, tb *timebase.TimeBase, glide float64, shape timebase.Shape) {
	v.frequency.Set(freq, tb, glide, shape)
	if v.state != VoiceOn {
		v.lastStrikeTime = tb.ScaledTime()
	}
	v.state = VoiceOn
}

// Retune jumps the frequency to freq without a glide.
func (v *Voice) Retune(freq float64, tb *timebase.TimeBase) {
	v.frequency.Set(freq, tb, 0, timebase.ShapeNone)
}

// Release starts the release segment. The frequency is left alone.
func (v *Voice) Release(tb *timebase.TimeBase) {
	v.lastReleaseTime = tb.ScaledTime()
	v.state = VoiceReleasing
}

// ProceedPhase advances the oscillator by one sample and retires the voice
// once its release has run out.
func (v *Voice) ProceedPhase(s *Synth, tb *timebase.TimeBase) {
	v.phase += tb.ScaledDeltaTime() * (s.Vibrato.Value() + v.frequency.Get(tb))
	if v.phase < 0 || v.phase >= 1 {
		v.phase -= math.Floor(v.phase)
	}
	if v.state == VoiceReleasing && tb.ScaledTime()-v.lastReleaseTime > s.ADSR.ReleaseDuration {
		v.state = VoiceOff
	}
}

// Sample returns the voice's output for the current sample.
func (v *Voice) Sample(s *Synth, tb *timebase.TimeBase) float64 {
	env := s.ADSR.Sample(v.state, v.lastStrikeTime, v.lastReleaseTime, tb.ScaledTime())
	return env * v.vol * s.Wavetable.Sample(v.phase)
}

func (v *Voice) State() VoiceState                       { return v.state }
func (v *Voice) Phase() float64                          { return v.phase }
func (v *Voice) Gain() float64                           { return v.vol }
func (v *Voice) LastStrikeTime() float64                 { return v.lastStrikeTime }
func (v *Voice) LastReleaseTime() float64                { return v.lastReleaseTime }
func (v *Voice) TargetFrequency() float64                { return v.frequency.Target() }
func (v *Voice) Frequency(tb *timebase.TimeBase) float64 { return v.frequency.Get(tb) }

// SetGain changes the voice's static gain.
func (v *Voice) SetGain(g float64) { v.vol = g }
