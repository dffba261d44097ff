package sequencer

import (
	"fmt"
	"math/rand/v2"

	"github.com/cbegin/impsynth-go/internal/queue"
)

// DefaultMaxSubdivExp bounds subdivisions to 1, 2 or 4 per level.
const DefaultMaxSubdivExp = 2

// ErrBatchOverflow means a generated batch did not fit in an instrument's
// queue. It wraps queue.ErrQueueFull.
var ErrBatchOverflow = fmt.Errorf("sequencer: batch overflow: %w", queue.ErrQueueFull)

// stepLen is the largest number of bytes one generated step can take: a
// STRIKE or SLIDE followed by its RELEASE.
var stepLen = OpStrike.Len() + OpRelease.Len()

// WorstCaseBatch returns the largest batch Fill can produce for maxExp:
// 2^maxExp subdivisions of 2^maxExp steps each.
func WorstCaseBatch(maxExp int) int {
	n := 1 << maxExp
	return n * n * stepLen
}

// Generator writes random scale-bound phrases into empty event queues. It
// reuses one scratch buffer and never allocates while filling.
type Generator struct {
	maxExp  int
	scratch [queue.Capacity]byte
}

// NewGenerator returns a generator whose worst-case batch fits an empty
// queue.
func NewGenerator(maxSubdivExp int) (*Generator, error) {
	if maxSubdivExp < 0 {
		return nil, fmt.Errorf("sequencer: negative subdivision exponent %d", maxSubdivExp)
	}
	if maxSubdivExp > 3 || WorstCaseBatch(maxSubdivExp) > queue.Capacity {
		return nil, fmt.Errorf("%w: subdivision exponent %d needs %d bytes, queue holds %d",
			ErrBatchOverflow, maxSubdivExp, WorstCaseBatch(maxSubdivExp), queue.Capacity)
	}
	return &Generator{maxExp: maxSubdivExp}, nil
}

// MaxSubdivExp returns the exponent the generator was built with.
func (g *Generator) MaxSubdivExp() int { return g.maxExp }

// Fill generates one batch for sc and writes it to q in a single Write.
//
// The bar is split into 2^k subdivisions. Each is, with equal odds, either
// one note in the upper register or a phrase of 2^j steps walking up or
// down the scale from the current note. A phrase step strikes the next
// scale tone three times in four and rests otherwise; a step that follows
// a sounding step slides into its note instead of striking it.
func (g *Generator) Fill(q *queue.Queue, sc Scale, rng *rand.Rand) error {
	buf := g.scratch[:0]
	subdiv := 1 << rng.IntN(g.maxExp+1)
	note := sc.Random(rng) + 12*(3+rng.IntN(2))

	for i := 0; i < subdiv; i++ {
		if rng.IntN(2) == 1 {
			subdiv2 := 1 << rng.IntN(g.maxExp+1)
			ascend := rng.IntN(2) == 0
			div := byte(subdiv * subdiv2)
			legato := false
			for j := 0; j < subdiv2; j++ {
				if rng.IntN(4) != 0 {
					if ascend {
						note = sc.Ascend(note)
					} else {
						note = sc.Descend(note)
					}
					note = int(FoldNote(note))
					op := OpStrike
					if legato {
						op = OpSlide
					}
					buf = append(buf, byte(op), byte(note), 1, div, byte(OpRelease), byte(note))
					legato = true
				} else {
					buf = append(buf, byte(OpWait), 1, div)
					legato = false
				}
			}
			continue
		}
		note = sc.Random(rng) + 12*(4+rng.IntN(2))
		buf = append(buf, byte(OpStrike), byte(note), 1, byte(subdiv), byte(OpRelease), byte(note))
	}

	if err := q.Write(buf...); err != nil {
		return fmt.Errorf("%w: %d byte batch, %d free", ErrBatchOverflow, len(buf), q.Free())
	}
	return nil
}
