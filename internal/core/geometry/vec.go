package geometry

import "math"

// Vec2 is a point or direction on the simulation ground plane.
type Vec2 struct {
	X float64 `msgpack:"x" yaml:"x"`
	Z float64 `msgpack:"z" yaml:"z"`
}

func V(x, z float64) Vec2 { return Vec2{X: x, Z: z} }

// FromHeading returns the unit vector for heading theta (radians).
func FromHeading(theta float64) Vec2 {
	return Vec2{X: math.Cos(theta), Z: math.Sin(theta)}
}

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Z + o.Z} }
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Z - o.Z} }
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Z * s} }
func (v Vec2) Dot(o Vec2) float64 { return v.X*o.X + v.Z*o.Z }
func (v Vec2) Cross(o Vec2) float64 { return v.X*o.Z - v.Z*o.X }
func (v Vec2) LenSq() float64 { return v.X*v.X + v.Z*v.Z }
func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Z) }
func (v Vec2) Dist(o Vec2) float64 { return v.Sub(o).Len() }
func (v Vec2) IsZero() bool { return v.X == 0 && v.Z == 0 }
func (v Vec2) Lerp(o Vec2, t float64) Vec2 { return v.Add(o.Sub(v).Scale(t)) }

// Normalize returns the unit vector of v, or the zero vector when v is zero.
func (v Vec2) Normalize() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Z / l}
}

// Heading returns the angle of v in radians.
func (v Vec2) Heading() float64 { return math.Atan2(v.Z, v.X) }

// Rotate rotates v counterclockwise by theta radians.
func (v Vec2) Rotate(theta float64) Vec2 {
	s, c := math.Sincos(theta)
	return Vec2{v.X*c - v.Z*s, v.X*s + v.Z*c}
}

// NormalizeAngle maps a into (-Pi, Pi].
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a > math.Pi {
		a -= 2 * math.Pi
	} else if a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
