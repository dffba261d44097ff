package sequencer

import (
	"fmt"
	"math"
	"strings"
)

// NumNotes is the size of the MIDI note range.
const NumNotes = 128

var noteFreqs = func() (t [NumNotes]float64) {
	for n := range t {
		t[n] = 440 * math.Pow(2, float64(n-69)/12)
	}
	return t
}()

var pitchNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteFreq returns the equal-tempered frequency of a MIDI note (A4 = 69 =
// 440 Hz). Notes past the table are folded down by octaves.
func NoteFreq(note byte) float64 {
	return noteFreqs[FoldNote(int(note))]
}

// FoldNote moves n by whole octaves into the MIDI range.
func FoldNote(n int) byte {
	for n < 0 {
		n += 12
	}
	for n >= NumNotes {
		n -= 12
	}
	return byte(n)
}

// NoteName formats a MIDI note as pitch class and octave, e.g. "A4".
func NoteName(note byte) string {
	return fmt.Sprintf("%s%d", pitchNames[note%12], int(note)/12-1)
}

// ParsePitchClass accepts a pitch name such as "A", "c#" or "Bb" and returns
// its pitch class 0..11.
func ParsePitchClass(name string) (int, error) {
	s := strings.TrimSpace(name)
	if s == "" {
		return 0, fmt.Errorf("sequencer: empty pitch name")
	}
	base := strings.IndexByte("C D EF G A B", strings.ToUpper(s[:1])[0])
	if base < 0 {
		return 0, fmt.Errorf("sequencer: unknown pitch %q", name)
	}
	pc := base
	for _, r := range s[1:] {
		switch r {
		case '#':
			pc++
		case 'b':
			pc--
		default:
			return 0, fmt.Errorf("sequencer: unknown pitch %q", name)
		}
	}
	return ((pc % 12) + 12) % 12, nil
}
