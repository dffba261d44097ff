package timebase

// DurationEpsilon is the shortest transition treated as non-instant.
const DurationEpsilon = 2.220446049250313e-16

// Interpolated is a scalar that glides toward a target over scaled time.
// Set and Get must be given the same TimeBase.
type Interpolated struct {
	prev     float64
	target   float64
	start    float64
	duration float64
	shape    Shape
}

// NewInterpolated returns a value resting at v.
func NewInterpolated(v float64) Interpolated {
	return Interpolated{prev: v, target: v}
}

// Set retargets the value. The current output becomes the new starting
// point, so Get is continuous across the call.
func (iv *Interpolated) Set(target float64, tb *TimeBase, duration float64, shape Shape) {
	iv.prev = iv.Get(tb)
	iv.target = target
	iv.start = tb.ScaledTime()
	iv.duration = duration
	iv.shape = shape
}

// Get returns the value at the time base's current scaled time.
func (iv *Interpolated) Get(tb *TimeBase) float64 {
	t := 1.0
	if iv.duration >= DurationEpsilon {
		t = (tb.ScaledTime() - iv.start) / iv.duration
	}
	return Interpolate(iv.prev, iv.target, t, iv.shape)
}

// Target returns the value being approached.
func (iv *Interpolated) Target() float64 {
	return iv.target
}
