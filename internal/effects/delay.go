package effects

// Delay is a stereo echo. Cross moves feedback between channels, so at 1
// the repeats ping-pong.
type Delay struct {
	left, right delayLine
	feedback    float64
	cross       float64
	wet         float64
}

// NewDelay returns a delay of delayMs milliseconds. feedback is capped at
// 0.95; cross and wet are clamped to 0..1.
func NewDelay(sampleRate int, delayMs, feedback, cross, wet float64) *Delay {
	n := max(1, int(delayMs*float64(sampleRate)/1000.0))
	return &Delay{
		left:     delayLine{buf: make([]float64, n)},
		right:    delayLine{buf: make([]float64, n)},
		feedback: clamp(feedback, 0, 0.95),
		cross:    clamp(cross, 0, 1),
		wet:      clamp(wet, 0, 1),
	}
}

func (d *Delay) Process(l, r float64) (float64, float64) {
	echoL, echoR := d.left.tap(), d.right.tap()
	keep, swap := d.feedback*(1-d.cross), d.feedback*d.cross
	d.left.write(l + echoL*keep + echoR*swap)
	d.right.write(r + echoR*keep + echoL*swap)
	return mix(l, echoL, d.wet), mix(r, echoR, d.wet)
}

func (d *Delay) Reset() {
	d.left.reset()
	d.right.reset()
}

func mix(dry, wet, amount float64) float64 {
	return dry*(1-amount) + wet*amount
}
