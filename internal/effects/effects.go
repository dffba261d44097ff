// Package effects is an optional stereo bus applied after the song has been
// rendered and quantized.
package effects

import "math"

// Effector processes one stereo frame.
type Effector interface {
	Process(l, r float64) (float64, float64)
	Reset()
}

// Chain applies a sequence of effects in order.
type Chain struct {
	effects []Effector
}

func NewChain(effects ...Effector) *Chain {
	return &Chain{effects: effects}
}

func (c *Chain) Process(l, r float64) (float64, float64) {
	for _, e := range c.effects {
		l, r = e.Process(l, r)
	}
	return l, r
}

func (c *Chain) Reset() {
	for _, e := range c.effects {
		e.Reset()
	}
}

func (c *Chain) Add(e Effector) {
	c.effects = append(c.effects, e)
}

// Len returns the number of effects in the chain.
func (c *Chain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.effects)
}

// ApplyInt16 runs interleaved stereo PCM through the chain in place and
// returns how many samples had to be clipped back into range. A nil or
// empty chain leaves buf untouched.
func (c *Chain) ApplyInt16(buf []int16) (clipped int) {
	if c.Len() == 0 {
		return 0
	}
	for i := 0; i+1 < len(buf); i += 2 {
		l, r := c.Process(float64(buf[i])/32767, float64(buf[i+1])/32767)
		var cl, cr bool
		buf[i], cl = quantize(l)
		buf[i+1], cr = quantize(r)
		if cl {
			clipped++
		}
		if cr {
			clipped++
		}
	}
	return clipped
}

func quantize(v float64) (int16, bool) {
	switch {
	case v > 1:
		return 32767, true
	case v < -1:
		return -32767, true
	}
	return int16(math.Round(v * 32767)), false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
