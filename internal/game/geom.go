package game

import "math"

// Vec2 is a point or displacement on the virtual screen.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Scale returns v * k.
func (v Vec2) Scale(k float64) Vec2 { return Vec2{v.X * k, v.Y * k} }

// Len returns the euclidean length of v.
func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

// Dist returns the distance between two points.
func Dist(a, b Vec2) float64 { return b.Sub(a).Len() }

// MoveToward returns from shifted toward to by at most step units.
// It never overshoots: when the target is closer than step, the target is returned.
func MoveToward(from, to Vec2, step float64) Vec2 {
	d := to.Sub(from)
	dist := d.Len()
	if dist <= step || dist == 0 {
		return to
	}
	return from.Add(d.Scale(step / dist))
}

// Box is an axis-aligned bounding box described by its centre and half extents.
type Box struct {
	Center Vec2
	HalfW  float64
	HalfH  float64
}

// SquareBox returns a square box of the given side centred on c.
func SquareBox(c Vec2, side float64) Box {
	return Box{Center: c, HalfW: side / 2, HalfH: side / 2}
}

func (b Box) Left() float64   { return b.Center.X - b.HalfW }
func (b Box) Right() float64  { return b.Center.X + b.HalfW }
func (b Box) Top() float64    { return b.Center.Y - b.HalfH }
func (b Box) Bottom() float64 { return b.Center.Y + b.HalfH }

// Overlaps reports whether both the X and Y intervals of a and b intersect.
// Touching edges count as overlap. Overlaps(a, b) == Overlaps(b, a).
func Overlaps(a, b Box) bool {
	return overlapX(a, b) && overlapY(a, b)
}

func overlapX(a, b Box) bool {
	return a.Right() >= b.Left() && a.Left() <= b.Right()
}

func overlapY(a, b Box) bool {
	return a.Bottom() >= b.Top() && a.Top() <= b.Bottom()
}

// Contains reports whether p lies inside b, edges included.
func (b Box) Contains(p Vec2) bool {
	if p.Y < b.Top() || p.Y > b.Bottom() {
		return false
	}
	if p.X < b.Left() || p.X > b.Right() {
		return false
	}
	return true
}
