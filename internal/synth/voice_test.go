package synth

import (
	"math"
	"testing"

	"github.com/cbegin/impsynth-go/internal/lfo"
	"github.com/cbegin/impsynth-go/internal/timebase"
	"github.com/cbegin/impsynth-go/internal/wavetable"
)

func newTestSynth() *Synth {
	return New(wavetable.Sine(), linearADSR(), lfo.LFO{})
}

func TestVoiceLifecycle(t *testing.T) {
	s := newTestSynth()
	tb := timebase.New(1000)
	v := &s.Voices[0]

	if v.State() != VoiceOff {
		t.Fatalf("new voice state = %v, want off", v.State())
	}
	for i := 0; i < 10; i++ {
		tb.Tick()
	}
	v.Strike(440, tb, 0, timebase.ShapeNone)
	if v.State() != VoiceOn {
		t.Fatalf("state after strike = %v, want on", v.State())
	}
	if v.LastStrikeTime() != tb.ScaledTime() {
		t.Fatalf("strike time = %v, want %v", v.LastStrikeTime(), tb.ScaledTime())
	}
	if v.TargetFrequency() != 440 {
		t.Fatalf("target frequency = %v, want 440", v.TargetFrequency())
	}

	v.Release(tb)
	if v.State() != VoiceReleasing {
		t.Fatalf("state after release = %v, want releasing", v.State())
	}
	if v.TargetFrequency() != 440 {
		t.Fatal("release must not touch frequency")
	}

	// Release duration is 0.3s = 300 samples at 1 kHz.
	for i := 0; i < 300; i++ {
		v.ProceedPhase(s, tb)
		tb.Tick()
		if v.State() == VoiceOff {
			t.Fatalf("voice retired early after %d samples", i)
		}
	}
	for i := 0; i < 3 && v.State() != VoiceOff; i++ {
		tb.Tick()
		v.ProceedPhase(s, tb)
	}
	if v.State() != VoiceOff {
		t.Fatalf("voice should be off after release, got %v", v.State())
	}
}

func TestVoicePhaseStaysInUnitRange(t *testing.T) {
	s := newTestSynth()
	s.Vibrato.Set(30, 5, lfo.WaveSine)
	tb := timebase.New(44100)
	v := &s.Voices[0]
	v.Strike(12000, tb, 0, timebase.ShapeNone)
	for i := 0; i < 5000; i++ {
		v.ProceedPhase(s, tb)
		s.AdvanceLFO(tb.ScaledDeltaTime())
		tb.Tick()
		if p := v.Phase(); p < 0 || p >= 1 {
			t.Fatalf("phase out of range at %d: %v", i, p)
		}
	}
}

func TestVoicePhaseAdvancesByFrequency(t *testing.T) {
	s := newTestSynth()
	tb := timebase.New(1000)
	v := &s.Voices[0]
	v.Strike(100, tb, 0, timebase.ShapeNone)
	v.ProceedPhase(s, tb)
	if math.Abs(v.Phase()-0.1) > 1e-12 {
		t.Fatalf("phase after one sample = %v, want 0.1", v.Phase())
	}
}

func TestVoiceRestrikeWhileOnIsLegato(t *testing.T) {
	s := newTestSynth()
	tb := timebase.New(1000)
	v := &s.Voices[0]
	v.Strike(220, tb, 0, timebase.ShapeNone)
	strikeTime := v.LastStrikeTime()
	for i := 0; i < 50; i++ {
		tb.Tick()
	}
	before := v.Frequency(tb)
	v.Strike(330, tb, 0.1, timebase.ShapeLinear)
	if v.LastStrikeTime() != strikeTime {
		t.Fatalf("legato strike reset the envelope: %v -> %v", strikeTime, v.LastStrikeTime())
	}
	if got := v.Frequency(tb); got != before {
		t.Fatalf("frequency jumped on re-strike: %v -> %v", before, got)
	}
}

func TestVoiceRestrikeWhileReleasingRestartsAttack(t *testing.T) {
	s := newTestSynth()
	tb := timebase.New(1000)
	v := &s.Voices[0]
	v.Strike(220, tb, 0, timebase.ShapeNone)
	tb.Tick()
	v.Release(tb)
	tb.Tick()
	v.Strike(220, tb, 0, timebase.ShapeNone)
	if v.State() != VoiceOn || v.LastStrikeTime() != tb.ScaledTime() {
		t.Fatalf("re-strike from release: state=%v strike=%v now=%v", v.State(), v.LastStrikeTime(), tb.ScaledTime())
	}
}

func TestVoiceSampleScalesByEnvelopeAndGain(t *testing.T) {
	s := newTestSynth()
	tb := timebase.New(1000)
	v := &s.Voices[0]
	v.Strike(250, tb, 0, timebase.ShapeNone)
	// Sustain is reached after 0.3s; phase 0.25 of a sine is its peak.
	for i := 0; i < 301; i++ {
		v.ProceedPhase(s, tb)
		tb.Tick()
	}
	for math.Abs(v.Phase()-0.25) > 1e-9 {
		v.ProceedPhase(s, tb)
		tb.Tick()
	}
	want := 0.5 * DefaultVoiceGain
	if got := v.Sample(s, tb); math.Abs(got-want) > 1e-6 {
		t.Fatalf("sample at sine peak = %v, want %v", got, want)
	}
}
