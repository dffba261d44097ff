package sequencer

import (
	"errors"
	"fmt"
)

// Op is the first byte of every token in an instrument's event queue.
//
//	OpStrike  note wait div   start a note, wait wait/div of a bar
//	OpRelease note            release the first sounding voice on note
//	OpWait    wait div        rest for wait/div of a bar
//	OpSlide   note wait div   like OpStrike, gliding from the previous note
type Op byte

const (
	OpStrike Op = iota
	OpRelease
	OpWait
	OpSlide
)

var (
	ErrBadToken       = errors.New("sequencer: unknown token")
	ErrTruncatedToken = errors.New("sequencer: truncated token")
	ErrZeroDuration   = errors.New("sequencer: zero wait duration")
)

func (o Op) String() string {
	switch o {
	case OpStrike:
		return "STRIKE"
	case OpRelease:
		return "RELEASE"
	case OpWait:
		return "WAIT"
	case OpSlide:
		return "SLIDE"
	}
	return fmt.Sprintf("Op(%d)", byte(o))
}

// Len returns the encoded size of the token including the opcode, or 0 for
// an unknown opcode.
func (o Op) Len() int {
	switch o {
	case OpStrike, OpSlide:
		return 4
	case OpRelease:
		return 2
	case OpWait:
		return 3
	}
	return 0
}

// Duration converts a wait/div note length into seconds at bpm, counting
// four beats to the bar: 60 * (wait*4/div) / bpm.
func Duration(wait, div byte, bpm float64) (float64, error) {
	if wait == 0 || div == 0 {
		return 0, fmt.Errorf("%w: %d/%d", ErrZeroDuration, wait, div)
	}
	beats := float64(wait) * 4 / float64(div)
	return 60 * beats / bpm, nil
}
