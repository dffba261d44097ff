package synth

import (
	"errors"
	"fmt"

	"github.com/cbegin/impsynth-go/internal/timebase"
)

var ErrNegativeDuration = errors.New("synth: negative envelope duration")

// ADSR describes an attack/decay/sustain/release envelope. It holds no
// per-voice state: amplitude is a pure function of the voice's lifecycle
// state and its strike and release timestamps.
type ADSR struct {
	AttackDuration  float64 `json:"attack"`
	DecayDuration   float64 `json:"decay"`
	ReleaseDuration float64 `json:"release"`

	AttackAmplitude  float64 `json:"attack_level"`
	SustainAmplitude float64 `json:"sustain_level"`

	AttackShape  timebase.Shape `json:"attack_shape"`
	DecayShape   timebase.Shape `json:"decay_shape"`
	ReleaseShape timebase.Shape `json:"release_shape"`
}

// DefaultADSR returns the envelope of the stock string patch.
func DefaultADSR() ADSR {
	return ADSR{
		AttackDuration:   .068,
		DecayDuration:    .814,
		ReleaseDuration:  .045,
		AttackAmplitude:  .7,
		SustainAmplitude: .5,
		AttackShape:      timebase.ShapeCosine,
		DecayShape:       timebase.ShapeCosine,
		ReleaseShape:     timebase.ShapeCosine,
	}
}

func (a ADSR) Validate() error {
	if a.AttackDuration < 0 || a.DecayDuration < 0 || a.ReleaseDuration < 0 {
		return fmt.Errorf("%w: attack=%v decay=%v release=%v", ErrNegativeDuration, a.AttackDuration, a.DecayDuration, a.ReleaseDuration)
	}
	for _, s := range [...]timebase.Shape{a.AttackShape, a.DecayShape, a.ReleaseShape} {
		if !s.Valid() {
			return fmt.Errorf("synth: unsupported envelope shape %v", s)
		}
	}
	return nil
}

// Sample returns the envelope amplitude at song time now.
//
// A releasing voice fades from the amplitude it had at the instant of
// release, recomputed here from the On branch, so cutting a note short in
// its attack or decay does not jump to the sustain level.
func (a *ADSR) Sample(state VoiceState, lastStrike, lastRelease, now float64) float64 {
	switch state {
	case VoiceOff:
		return 0
	case VoiceOn:
		d := now - lastStrike
		if d < a.AttackDuration {
			t := d / a.AttackDuration
			if t < 0 {
				t = 0
			}
			return timebase.Interpolate(0, a.AttackAmplitude, t, a.AttackShape)
		}
		if d < a.AttackDuration+a.DecayDuration {
			return timebase.Interpolate(a.AttackAmplitude, a.SustainAmplitude, (d-a.AttackDuration)/a.DecayDuration, a.DecayShape)
		}
		return a.SustainAmplitude
	case VoiceReleasing:
		d := now - lastRelease
		if d < a.ReleaseDuration {
			from := a.Sample(VoiceOn, lastStrike, lastRelease, lastRelease)
			return timebase.Interpolate(from, 0, d/a.ReleaseDuration, a.ReleaseShape)
		}
		return 0
	}
	panic(fmt.Sprintf("synth: envelope reached unhandled voice state %d", int(state)))
}
