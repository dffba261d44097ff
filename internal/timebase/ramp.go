package timebase

// TempoRamp is a one-shot cosine ease of the time scale from 1 to Target,
// starting at an absolute time. A zero Duration disables it.
type TempoRamp struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	Target   float64 `json:"target"`
}

// Enabled reports whether the ramp will ever change the time scale.
func (r TempoRamp) Enabled() bool {
	return r.Duration > 0
}

// Scale returns the time scale for absolute time now. ok is false before the
// ramp starts, when the current scale should be left alone.
func (r TempoRamp) Scale(now float64) (scale float64, ok bool) {
	if !r.Enabled() || now <= r.Start {
		return 1, false
	}
	t := (now - r.Start) / r.Duration
	if t > 1 {
		t = 1
	}
	return Cerp(1, r.Target, t), true
}

// Apply updates tb's time scale for its current absolute time.
func (r TempoRamp) Apply(tb *TimeBase) {
	if s, ok := r.Scale(tb.AbsoluteTime()); ok {
		tb.SetTimeScale(s)
	}
}
