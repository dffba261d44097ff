package lfo

import (
	"fmt"
	"math"
)

// Waveform selects the modulation shape.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveTriangle
	WaveSquare
	WaveSaw
)

// ParseWaveform maps a config name to a Waveform.
func ParseWaveform(name string) (Waveform, error) {
	switch name {
	case "sine", "":
		return WaveSine, nil
	case "triangle":
		return WaveTriangle, nil
	case "square":
		return WaveSquare, nil
	case "saw":
		return WaveSaw, nil
	}
	return WaveSine, fmt.Errorf("lfo: unknown waveform %q", name)
}

// LFO is a vibrato source shared by every voice of a synth. Its phase
// accumulates song time and wraps once per second; the modulation rate is
// applied when the phase is read.
type LFO struct {
	amp      float64 // output amplitude, in Hz of pitch deviation
	freq     float64 // modulation rate in Hz
	waveform Waveform
	phase    float64 // [0, 1)
}

// Set configures the LFO. Unknown waveforms fall back to sine.
func (l *LFO) Set(amp, freq float64, waveform Waveform) {
	l.amp = amp
	l.freq = freq
	if waveform < WaveSine || waveform > WaveSaw {
		waveform = WaveSine
	}
	l.waveform = waveform
}

// Value returns the current deviation in [-amp, +amp]. It does not advance.
func (l *LFO) Value() float64 {
	if l.amp == 0 || l.freq == 0 {
		return 0
	}
	x := l.phase * l.freq
	var v float64
	switch l.waveform {
	case WaveTriangle:
		x -= math.Floor(x)
		if x < 0.5 {
			v = 4.0*x - 1.0
		} else {
			v = 3.0 - 4.0*x
		}
	case WaveSquare:
		x -= math.Floor(x)
		if x < 0.5 {
			v = 1.0
		} else {
			v = -1.0
		}
	case WaveSaw:
		x -= math.Floor(x)
		v = 1.0 - 2.0*x
	default:
		v = math.Sin(2 * math.Pi * x)
	}
	return v * l.amp
}

// Advance moves the phase forward by dt seconds of song time.
func (l *LFO) Advance(dt float64) {
	l.phase += dt
	if l.phase >= 1 {
		l.phase -= math.Floor(l.phase)
	}
}

// Active returns true if the LFO has non-zero amplitude and rate.
func (l *LFO) Active() bool {
	return l.amp != 0 && l.freq != 0
}

func (l *LFO) Phase() float64 { return l.phase }

// Reset zeros the LFO phase.
func (l *LFO) Reset() {
	l.phase = 0
}
