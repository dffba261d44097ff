package synth

import (
	"math"
	"testing"

	"github.com/cbegin/impsynth-go/internal/timebase"
)

func linearADSR() ADSR {
	return ADSR{
		AttackDuration:   0.1,
		DecayDuration:    0.2,
		ReleaseDuration:  0.3,
		AttackAmplitude:  1.0,
		SustainAmplitude: 0.5,
		AttackShape:      timebase.ShapeLinear,
		DecayShape:       timebase.ShapeLinear,
		ReleaseShape:     timebase.ShapeLinear,
	}
}

func TestADSROffIsSilent(t *testing.T) {
	a := DefaultADSR()
	for _, now := range []float64{0, 0.01, 1, 100} {
		if got := a.Sample(VoiceOff, 0, 0, now); got != 0 {
			t.Fatalf("Off amplitude at %v = %v, want 0", now, got)
		}
	}
}

func TestADSROnSegments(t *testing.T) {
	a := linearADSR()
	cases := []struct {
		name string
		now  float64
		want float64
	}{
		{"strike instant", 1.0, 0},
		{"mid attack", 1.05, 0.5},
		{"attack peak", 1.1, 1.0},
		{"mid decay", 1.2, 0.75},
		{"sustain", 1.3, 0.5},
		{"long sustain", 10, 0.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := a.Sample(VoiceOn, 1.0, 0, tc.now)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("On amplitude at %v = %v, want %v", tc.now, got, tc.want)
			}
		})
	}
}

func TestADSRZeroSegmentsGoStraightToSustain(t *testing.T) {
	a := ADSR{SustainAmplitude: 0.8, ReleaseDuration: 0.1, ReleaseShape: timebase.ShapeLinear}
	got := a.Sample(VoiceOn, 0, 0, 0)
	if got != 0.8 || math.IsNaN(got) {
		t.Fatalf("zero attack/decay amplitude = %v, want 0.8", got)
	}
}

func TestADSRReleaseIsContinuousAtReleaseInstant(t *testing.T) {
	strike := 2.0
	for _, shape := range []timebase.Shape{timebase.ShapeLinear, timebase.ShapeCosine} {
		a := linearADSR()
		a.AttackShape, a.DecayShape, a.ReleaseShape = shape, shape, shape
		for _, offset := range []float64{0.01, 0.05, 0.099, 0.15, 0.25, 0.5} {
			release := strike + offset
			on := a.Sample(VoiceOn, strike, release, release)
			rel := a.Sample(VoiceReleasing, strike, release, release)
			if math.Abs(on-rel) > 1e-12 {
				t.Errorf("%v release at +%v: On=%v Releasing=%v", shape, offset, on, rel)
			}
		}
	}
}

func TestADSRReleaseFadesToZero(t *testing.T) {
	a := linearADSR()
	strike, release := 0.0, 1.0
	prev := a.Sample(VoiceReleasing, strike, release, release)
	for now := release; now < release+0.3; now += 0.01 {
		got := a.Sample(VoiceReleasing, strike, release, now)
		if got > prev+1e-12 {
			t.Fatalf("release rose at %v: %v > %v", now, got, prev)
		}
		prev = got
	}
	if got := a.Sample(VoiceReleasing, strike, release, release+0.3); got != 0 {
		t.Fatalf("amplitude after release = %v, want 0", got)
	}
}

func TestADSRReleaseMidAttackStartsFromAttackLevel(t *testing.T) {
	a := linearADSR()
	// Released half-way through the attack: the fade starts at 0.5, not the sustain level.
	got := a.Sample(VoiceReleasing, 0, 0.05, 0.05+0.15)
	if math.Abs(got-0.25) > 1e-9 {
		t.Fatalf("mid-release amplitude = %v, want 0.25", got)
	}
}

func TestADSRUnknownStatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unhandled voice state")
		}
	}()
	a := DefaultADSR()
	a.Sample(VoiceState(9), 0, 0, 0)
}

func TestADSRValidate(t *testing.T) {
	if err := DefaultADSR().Validate(); err != nil {
		t.Fatalf("default envelope invalid: %v", err)
	}
	bad := DefaultADSR()
	bad.DecayDuration = -1
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for negative decay")
	}
	bad = DefaultADSR()
	bad.ReleaseShape = timebase.Shape(7)
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for unknown shape")
	}
}
