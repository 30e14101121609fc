package geometry

import "math"

// Spacing is the gap left between two shapes after an overlap is resolved so
// they do not re-collide on the next tick.
const Spacing = 0.1

type Kind uint8

const (
	KindCircle Kind = iota + 1
	KindSegment
	KindRectangle
	KindCone
)

func (k Kind) String() string {
	switch k {
	case KindCircle:
		return "circle"
	case KindSegment:
		return "segment"
	case KindRectangle:
		return "rectangle"
	case KindCone:
		return "cone"
	default:
		return "unknown"
	}
}

// Shape is a bounding shape anchored at an owner position. The set of shapes
// is closed: Circle, Segment, Rectangle and Cone.
type Shape interface {
	Kind() Kind
	// Bounds returns the axis-aligned box of the shape placed at pos.
	Bounds(pos Vec2) AABB

	sealed()
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max Vec2
}

func (b AABB) Intersects(o AABB) bool {
	return b.Min.X <= o.Max.X && o.Min.X <= b.Max.X &&
		b.Min.Z <= o.Max.Z && o.Min.Z <= b.Max.Z
}

func (b AABB) Contains(p Vec2) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X && p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

func (b AABB) Translate(d Vec2) AABB {
	return AABB{Min: b.Min.Add(d), Max: b.Max.Add(d)}
}

func boundsOf(points ...Vec2) AABB {
	b := AABB{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		b.Min.X = math.Min(b.Min.X, p.X)
		b.Min.Z = math.Min(b.Min.Z, p.Z)
		b.Max.X = math.Max(b.Max.X, p.X)
		b.Max.Z = math.Max(b.Max.Z, p.Z)
	}
	return b
}

type Circle struct {
	Radius float64
}

func NewCircle(radius float64) *Circle { return &Circle{Radius: radius} }

func (*Circle) Kind() Kind { return KindCircle }
func (*Circle) sealed() {}

func (c *Circle) Bounds(pos Vec2) AABB {
	r := Vec2{c.Radius, c.Radius}
	return AABB{Min: pos.Sub(r), Max: pos.Add(r)}
}

// Segment is a line segment with endpoints relative to its owner position.
// Normal is a unit vector and marks the side a resolved circle is pushed to.
type Segment struct {
	P1, P2 Vec2
	Normal Vec2
}

// NewSegment builds a segment and normalizes its normal. A zero normal is
// replaced by the left-hand perpendicular of P1->P2.
func NewSegment(p1, p2, normal Vec2) *Segment {
	n := normal.Normalize()
	if n.IsZero() {
		d := p2.Sub(p1)
		n = Vec2{-d.Z, d.X}.Normalize()
	}
	return &Segment{P1: p1, P2: p2, Normal: n}
}

func (*Segment) Kind() Kind { return KindSegment }
func (*Segment) sealed() {}

func (s *Segment) Bounds(pos Vec2) AABB {
	return boundsOf(pos.Add(s.P1), pos.Add(s.P2))
}

// At returns the segment translated to world coordinates.
func (s *Segment) At(pos Vec2) Segment {
	return Segment{P1: pos.Add(s.P1), P2: pos.Add(s.P2), Normal: s.Normal}
}

// Rectangle is centered on its owner position. Width runs along X and Height
// along Z before Rotation is applied.
type Rectangle struct {
	Width, Height, Rotation float64

	corners [4]Vec2
	sides   [4]Segment
	aabb    AABB
}

// NewRectangle derives the corners, sides (with outward normals) and bounds of
// a rectangle once. They are never recomputed.
func NewRectangle(width, height, rotation float64) *Rectangle {
	hw, hh := width/2, height/2
	r := &Rectangle{Width: width, Height: height, Rotation: rotation}

	local := [4]Vec2{{-hw, -hh}, {hw, -hh}, {hw, hh}, {-hw, hh}}
	normals := [4]Vec2{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}
	for i := range local {
		r.corners[i] = local[i].Rotate(rotation)
	}
	for i := range r.sides {
		r.sides[i] = Segment{
			P1:     r.corners[i],
			P2:     r.corners[(i+1)%4],
			Normal: normals[i].Rotate(rotation),
		}
	}
	r.aabb = boundsOf(r.corners[:]...)
	return r
}

func (*Rectangle) Kind() Kind { return KindRectangle }
func (*Rectangle) sealed() {}

func (r *Rectangle) Bounds(pos Vec2) AABB { return r.aabb.Translate(pos) }

// Sides returns the four sides in counterclockwise order. Side i ends at the
// corner where side i+1 starts.
func (r *Rectangle) Sides() [4]Segment { return r.sides }

func (r *Rectangle) Corners() [4]Vec2 { return r.corners }

// Cone is a circular sector around its owner position spanning
// Orientation-Angle/2 .. Orientation+Angle/2.
type Cone struct {
	Radius      float64
	Orientation float64
	Angle       float64
}

func NewCone(radius, orientation, angle float64) *Cone {
	return &Cone{Radius: radius, Orientation: orientation, Angle: angle}
}

func (*Cone) Kind() Kind { return KindCone }
func (*Cone) sealed() {}

func (c *Cone) Bounds(pos Vec2) AABB {
	r := Vec2{c.Radius, c.Radius}
	return AABB{Min: pos.Sub(r), Max: pos.Add(r)}
}
