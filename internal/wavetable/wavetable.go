package wavetable

import (
	"errors"
	"math"
)

const twoPi = math.Pi * 2

// TableSize is the number of cells in one period.
const TableSize = 1024

var (
	ErrNoHarmonics       = errors.New("wavetable: no harmonics")
	ErrNegativeHarmonic  = errors.New("wavetable: negative harmonic amplitude")
	ErrNonFiniteHarmonic = errors.New("wavetable: harmonic amplitude is not finite")
	ErrSilentHarmonics   = errors.New("wavetable: harmonic amplitudes sum to zero")
)

// HarmonicsWavetable holds one period of an additive waveform. It is built
// once and only read afterwards, so a table may be shared between synths.
type HarmonicsWavetable struct {
	buf [TableSize]float64
}

// New builds a table from harmonic amplitudes h, where h[k] scales the
// (k+1)-th partial. Amplitudes are normalised to sum to 1.
func New(harmonics []float64) (*HarmonicsWavetable, error) {
	if len(harmonics) == 0 {
		return nil, ErrNoHarmonics
	}
	var sum float64
	for _, amp := range harmonics {
		if math.IsNaN(amp) || math.IsInf(amp, 0) {
			return nil, ErrNonFiniteHarmonic
		}
		if amp < 0 {
			return nil, ErrNegativeHarmonic
		}
		sum += amp
	}
	if math.IsInf(sum, 0) {
		return nil, ErrNonFiniteHarmonic
	}
	if sum == 0 {
		return nil, ErrSilentHarmonics
	}
	norm := 1 / sum

	w := &HarmonicsWavetable{}
	const c = twoPi / TableSize
	for i := 0; i < TableSize; i++ {
		var v float64
		for k, amp := range harmonics {
			if amp == 0 {
				continue
			}
			v += norm * amp * math.Sin(c*float64(i)*float64(k+1))
		}
		w.buf[i] = v
	}
	return w, nil
}

// Sample reads the table at phase, where one period spans [0, 1). Phase is
// wrapped first; neighbouring cells are linearly interpolated.
func (w *HarmonicsWavetable) Sample(phase float64) float64 {
	phase -= math.Floor(phase)
	ixf := phase * TableSize
	base := math.Floor(ixf)
	frac := ixf - base
	i0 := int(base) % TableSize
	i1 := (i0 + 1) % TableSize
	return w.buf[i0]*(1-frac) + w.buf[i1]*frac
}

// Cell returns the raw table value at index i, wrapping out-of-range indices.
func (w *HarmonicsWavetable) Cell(i int) float64 {
	i %= TableSize
	if i < 0 {
		i += TableSize
	}
	return w.buf[i]
}
