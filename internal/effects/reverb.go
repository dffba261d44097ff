package effects

// Reverb is a Schroeder reverberator: four parallel combs feeding two
// allpass stages, summed to mono and mixed back into both channels.
type Reverb struct {
	combs   [4]delayLine
	allpass [2]delayLine
	wet     float64
}

type delayLine struct {
	buf []float64
	pos int
	fb  float64
}

// NewReverb creates a reverb. roomSize (0..1) scales the delay lengths,
// feedback (0..0.95) sets the decay and wet is the mix.
func NewReverb(sampleRate int, roomSize, feedback, wet float64) *Reverb {
	base := max(10, int(float64(sampleRate)*clamp(roomSize, 0, 1)*0.05))
	fb := clamp(feedback, 0, 0.95)
	r := &Reverb{wet: clamp(wet, 0, 1)}
	// Mutually prime-ish ratios keep the combs from reinforcing each other.
	combLens := [4]int{base, base * 1117 / 1000, base * 1271 / 1000, base * 1437 / 1000}
	for i := range r.combs {
		r.combs[i] = delayLine{buf: make([]float64, combLens[i]), fb: fb}
	}
	apLens := [2]int{base * 347 / 1000, base * 213 / 1000}
	for i := range r.allpass {
		r.allpass[i] = delayLine{buf: make([]float64, max(apLens[i], 1)), fb: 0.5}
	}
	return r
}

func (r *Reverb) Process(l, r2 float64) (float64, float64) {
	mono := (l + r2) * 0.5
	var out float64
	for i := range r.combs {
		out += r.combs[i].comb(mono)
	}
	out *= 0.25
	for i := range r.allpass {
		out = r.allpass[i].allpass(out)
	}
	return mix(l, out, r.wet), mix(r2, out, r.wet)
}

func (r *Reverb) Reset() {
	for i := range r.combs {
		r.combs[i].reset()
	}
	for i := range r.allpass {
		r.allpass[i].reset()
	}
}

// tap returns the oldest sample, the one write is about to replace.
func (d *delayLine) tap() float64 {
	return d.buf[d.pos]
}

func (d *delayLine) write(v float64) {
	d.buf[d.pos] = v
	d.pos++
	if d.pos >= len(d.buf) {
		d.pos = 0
	}
}

func (d *delayLine) comb(in float64) float64 {
	out := d.tap()
	d.write(in + out*d.fb)
	return out
}

func (d *delayLine) allpass(in float64) float64 {
	out := d.tap()
	d.write(in + out*d.fb)
	return out - in
}

func (d *delayLine) reset() {
	clear(d.buf)
	d.pos = 0
}
