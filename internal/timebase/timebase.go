package timebase

// DefaultSampleRate is the render rate used when none is configured.
const DefaultSampleRate = 44100

// FreezeEpsilon is the time scale at or below which musical time counts as
// stopped.
const FreezeEpsilon = 1.1920929e-07

// TimeBase tracks wall time and tempo-warped musical time for one song.
// It is advanced exactly once per rendered sample.
type TimeBase struct {
	sampleRate      int
	sampleDuration  float64
	absoluteTime    float64
	scaledTime      float64
	scaledDeltaTime float64
	timeScale       float64
}

// New returns a time base at zero with a time scale of 1.
func New(sampleRate int) *TimeBase {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	tb := &TimeBase{}
	tb.init(sampleRate)
	return tb
}

func (tb *TimeBase) init(sampleRate int) {
	tb.sampleRate = sampleRate
	tb.sampleDuration = 1.0 / float64(sampleRate)
	tb.absoluteTime = 0
	tb.scaledTime = 0
	tb.timeScale = 1
	tb.scaledDeltaTime = tb.sampleDuration
}

// Reset rewinds both clocks to zero and restores a time scale of 1.
func (tb *TimeBase) Reset() {
	tb.init(tb.sampleRate)
}

func (tb *TimeBase) SampleRate() int          { return tb.sampleRate }
func (tb *TimeBase) SampleDuration() float64  { return tb.sampleDuration }
func (tb *TimeBase) AbsoluteTime() float64    { return tb.absoluteTime }
func (tb *TimeBase) ScaledTime() float64      { return tb.scaledTime }
func (tb *TimeBase) ScaledDeltaTime() float64 { return tb.scaledDeltaTime }
func (tb *TimeBase) TimeScale() float64       { return tb.timeScale }

// SetTimeScale changes the tempo multiplier. Elapsed scaled time is not
// rescaled; only subsequent ticks are affected. Negative scales clamp to 0.
func (tb *TimeBase) SetTimeScale(scale float64) {
	if scale < 0 {
		scale = 0
	}
	tb.timeScale = scale
	tb.scaledDeltaTime = scale * tb.sampleDuration
}

// Frozen reports whether the time scale has dropped to (nearly) zero.
func (tb *TimeBase) Frozen() bool {
	return tb.timeScale <= FreezeEpsilon
}

// Tick advances both clocks by one sample period.
func (tb *TimeBase) Tick() {
	tb.absoluteTime += tb.sampleDuration
	tb.scaledTime += tb.scaledDeltaTime
}
