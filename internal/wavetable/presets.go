package wavetable

import (
	"fmt"
	"math/rand/v2"
)

// ViolinHarmonics is a bowed-string-like spectrum.
var ViolinHarmonics = []float64{1, .75, .65, .55, .5, .45, .4, .35, .3, .25, .25, .2}

// Sine returns a pure fundamental.
func Sine() *HarmonicsWavetable {
	w, _ := New([]float64{1})
	return w
}

// Violin returns a table built from ViolinHarmonics.
func Violin() *HarmonicsWavetable {
	w, _ := New(ViolinHarmonics)
	return w
}

// RandomHarmonics draws n amplitudes of the form (r%5)/(k+1)^2 with r from
// rng. The fundamental is forced non-zero so the table is never silent.
func RandomHarmonics(rng *rand.Rand, n int) []float64 {
	if n <= 0 {
		n = 1
	}
	h := make([]float64, n)
	for i := range h {
		div := float64(i + 1)
		h[i] = float64(rng.IntN(5)) / (div * div)
	}
	if h[0] == 0 {
		h[0] = 1
	}
	return h
}

// Random builds a table from RandomHarmonics.
func Random(rng *rand.Rand, n int) *HarmonicsWavetable {
	w, _ := New(RandomHarmonics(rng, n))
	return w
}

// Preset resolves a named preset. "random" draws from rng.
func Preset(name string, rng *rand.Rand) (*HarmonicsWavetable, error) {
	switch name {
	case "sine":
		return Sine(), nil
	case "violin", "":
		return Violin(), nil
	case "random":
		if rng == nil {
			return nil, fmt.Errorf("wavetable: preset %q needs a random source", name)
		}
		return Random(rng, 32), nil
	default:
		return nil, fmt.Errorf("wavetable: unknown preset %q", name)
	}
}
