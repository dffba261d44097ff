package sequencer

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
)

var ErrBadScale = errors.New("sequencer: invalid scale")

// Scale is a root pitch class and the ascending intervals, in semitones
// from the root, that belong to it.
type Scale struct {
	Root      int   `json:"root"`
	Intervals []int `json:"intervals"`
}

var (
	PentatonicIntervals    = []int{0, 2, 5, 7, 10}
	MajorIntervals         = []int{0, 2, 4, 5, 7, 9, 11}
	HarmonicMinorIntervals = []int{0, 2, 3, 5, 7, 8, 11}
)

// NamedScale returns the built-in scale called name rooted at root.
func NamedScale(name string, root int) (Scale, error) {
	var ivs []int
	switch strings.ToLower(name) {
	case "", "pentatonic", "penta":
		ivs = PentatonicIntervals
	case "major":
		ivs = MajorIntervals
	case "harmonic_minor", "harmonic-minor", "harmonicminor":
		ivs = HarmonicMinorIntervals
	default:
		return Scale{}, fmt.Errorf("%w: unknown scale %q", ErrBadScale, name)
	}
	sc := Scale{Root: root, Intervals: append([]int(nil), ivs...)}
	return sc, sc.Validate()
}

// Validate checks that the root is a pitch class and the intervals are
// distinct, ascending and within one octave.
func (sc Scale) Validate() error {
	if sc.Root < 0 || sc.Root > 11 {
		return fmt.Errorf("%w: root %d", ErrBadScale, sc.Root)
	}
	if len(sc.Intervals) == 0 {
		return fmt.Errorf("%w: no intervals", ErrBadScale)
	}
	prev := -1
	for _, iv := range sc.Intervals {
		if iv <= prev || iv > 11 {
			return fmt.Errorf("%w: intervals %v", ErrBadScale, sc.Intervals)
		}
		prev = iv
	}
	return nil
}

func (sc Scale) rootRel(note int) int {
	return ((note-sc.Root)%12 + 12) % 12
}

// Ascend returns the nearest scale tone strictly above note. Past the top
// interval it wraps to the root of the next octave.
func (sc Scale) Ascend(note int) int {
	rel := sc.rootRel(note)
	for _, iv := range sc.Intervals {
		if iv > rel {
			return note + iv - rel
		}
	}
	return note + 12 - rel
}

// Descend returns the nearest scale tone strictly below note. Below the
// first interval it wraps to the top interval of the octave beneath.
func (sc Scale) Descend(note int) int {
	rel := sc.rootRel(note)
	for i := len(sc.Intervals) - 1; i >= 0; i-- {
		if iv := sc.Intervals[i]; iv < rel {
			return note + iv - rel
		}
	}
	return note + sc.Intervals[len(sc.Intervals)-1] - 12 - rel
}

// Random returns the pitch class of a uniformly chosen scale tone.
func (sc Scale) Random(rng *rand.Rand) int {
	return (sc.Root + sc.Intervals[rng.IntN(len(sc.Intervals))]) % 12
}
