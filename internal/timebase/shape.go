package timebase

import (
	"fmt"
	"math"
)

// Shape selects how a value moves between two endpoints.
type Shape int

const (
	ShapeNone Shape = iota
	ShapeLinear
	ShapeCosine
)

func (s Shape) String() string {
	switch s {
	case ShapeNone:
		return "none"
	case ShapeLinear:
		return "linear"
	case ShapeCosine:
		return "cosine"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}

// ParseShape maps a config name to a Shape.
func ParseShape(name string) (Shape, error) {
	switch name {
	case "none", "":
		return ShapeNone, nil
	case "linear":
		return ShapeLinear, nil
	case "cosine", "cos":
		return ShapeCosine, nil
	default:
		return ShapeNone, fmt.Errorf("unknown interpolation shape %q", name)
	}
}

// Valid reports whether s is one of the defined shapes.
func (s Shape) Valid() bool {
	return s >= ShapeNone && s <= ShapeCosine
}

func (s Shape) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("unknown interpolation shape %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Shape) UnmarshalText(b []byte) error {
	v, err := ParseShape(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Lerp is the precise form (1-t)*a + t*b, exact at both ends.
func Lerp(a, b, t float64) float64 {
	return (1-t)*a + t*b
}

// Cerp eases between a and b with a half cosine.
func Cerp(a, b, t float64) float64 {
	return Lerp(a, b, 0.5-0.5*math.Cos(t*math.Pi))
}

// Clamp bounds v to the range spanned by a and b, in either order.
func Clamp(a, b, v float64) float64 {
	if a <= b {
		if v > b {
			return b
		}
		if v < a {
			return a
		}
		return v
	}
	if v < b {
		return b
	}
	if v > a {
		return a
	}
	return v
}

// Interpolate blends from a to b at position t, clamped to [0, 1], so the
// result holds at b once t passes 1. An unknown shape is a programming
// error and panics.
func Interpolate(a, b, t float64, shape Shape) float64 {
	t = Clamp(0, 1, t)
	switch shape {
	case ShapeNone:
		return b
	case ShapeLinear:
		return Clamp(a, b, Lerp(a, b, t))
	case ShapeCosine:
		return Clamp(a, b, Cerp(a, b, t))
	default:
		panic(fmt.Sprintf("timebase: unsupported interpolation shape %d", int(shape)))
	}
}
