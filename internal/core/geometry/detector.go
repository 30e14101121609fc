package geometry

import (
	"fmt"
	"math"
)

func unsupported(a, b Shape) error {
	return fmt.Errorf("%w: %s vs %s", ErrUnsupportedShapePair, kindOf(a), kindOf(b))
}

func kindOf(s Shape) Kind {
	if s == nil {
		return 0
	}
	return s.Kind()
}

// Overlap reports whether shape a placed at pa intersects shape b placed at
// pb. It panics with ErrUnsupportedShapePair for pairs without an algorithm,
// and with ErrInvalidGeometricState when a circle is found embedded in a
// rectangle it is being tested against.
func Overlap(a Shape, pa Vec2, b Shape, pb Vec2) bool {
	switch sa := a.(type) {
	case *Circle:
		switch sb := b.(type) {
		case *Circle:
			return pa.Dist(pb) <= sa.Radius+sb.Radius
		case *Segment:
			return circleSegmentOverlap(sa, pa, sb, pb)
		case *Rectangle:
			return circleRectangleOverlap(sa, pa, sb, pb, false)
		case *Cone:
			return coneCircleOverlap(sb, pb, pa)
		}
	case *Segment:
		if sb, ok := b.(*Circle); ok {
			return circleSegmentOverlap(sb, pb, sa, pa)
		}
	case *Rectangle:
		if sb, ok := b.(*Circle); ok {
			return circleRectangleOverlap(sb, pb, sa, pa, true)
		}
	case *Cone:
		if _, ok := b.(*Circle); ok {
			return coneCircleOverlap(sa, pa, pb)
		}
	}
	panic(unsupported(a, b))
}

// Resolve returns the translation that moves circle a from newPa out of b,
// leaving Spacing between them. ok is false when they do not overlap.
// oldPa is the mover's position before the displacement being resolved.
func Resolve(a Shape, newPa, oldPa Vec2, b Shape, pb Vec2) (Vec2, bool) {
	c, isCircle := a.(*Circle)
	if !isCircle {
		panic(unsupported(a, b))
	}
	switch sb := b.(type) {
	case *Circle:
		return resolveCircleCircle(c, newPa, oldPa, sb, pb)
	case *Segment:
		return resolveCircleSegment(c, newPa, oldPa, sb, pb)
	case *Rectangle:
		return resolveCircleRectangle(c, newPa, oldPa, sb, pb)
	}
	panic(unsupported(a, b))
}

// Swept reports whether the world-space path crosses shape b placed at pb.
// It catches movers whose displacement in one tick exceeds an obstacle's size.
func Swept(b Shape, pb Vec2, path Segment) bool {
	switch sb := b.(type) {
	case *Circle:
		return pathCrossesCircle(path.P1, path.P2, pb, sb.Radius)
	case *Segment:
		return segmentsIntersect(path, sb.At(pb))
	case *Rectangle:
		for _, side := range sb.sides {
			if segmentsIntersect(path, side.At(pb)) {
				return true
			}
		}
		return false
	}
	panic(unsupported(b, &path))
}

func in01(u float64) bool { return u >= 0 && u <= 1 }

// segmentRoots solves |p1 + u(p2-p1) - center| = r for u. n is the number of
// real roots; u1 >= u2.
func segmentRoots(p1, p2, center Vec2, r float64) (u1, u2 float64, n int) {
	d := p2.Sub(p1)
	l := p1.Sub(center)
	a := d.Dot(d)
	b := 2 * d.Dot(l)
	c := l.Dot(l) - r*r
	if a == 0 {
		return 0, 0, 0
	}
	disc := b*b - 4*a*c
	switch {
	case disc < 0:
		return 0, 0, 0
	case disc == 0:
		u := -b / (2 * a)
		return u, u, 1
	}
	sq := math.Sqrt(disc)
	return (-b + sq) / (2 * a), (-b - sq) / (2 * a), 2
}

func circleSegmentOverlap(c *Circle, pc Vec2, s *Segment, ps Vec2) bool {
	p1, p2 := ps.Add(s.P1), ps.Add(s.P2)
	if p1 == p2 {
		return p1.Dist(pc) <= c.Radius
	}
	u1, u2, n := segmentRoots(p1, p2, pc, c.Radius)
	switch n {
	case 0:
		return false
	case 1:
		return in01(u1)
	}
	// Roots on both sides of [0,1]: the segment lies wholly inside.
	return in01(u1) || in01(u2) || (u2 < 0 && u1 > 1)
}

func resolveCircleSegment(c *Circle, newPa, oldPa Vec2, s *Segment, ps Vec2) (Vec2, bool) {
	if !circleSegmentOverlap(c, newPa, s, ps) {
		return Vec2{}, false
	}
	p1, p2 := ps.Add(s.P1), ps.Add(s.P2)
	u1, u2, n := segmentRoots(p1, p2, newPa, c.Radius)
	mid := p1
	if n > 0 {
		lo, hi := math.Max(math.Min(u1, u2), 0), math.Min(math.Max(u1, u2), 1)
		mid = p1.Lerp(p2, (lo+hi)/2)
	}

	normal := s.Normal
	if oldPa.Sub(mid).Dot(normal) < 0 {
		normal = normal.Scale(-1)
	}
	resolved := mid.Add(normal.Scale(c.Radius + Spacing))
	return resolved.Sub(newPa), true
}

func resolveCircleCircle(a *Circle, newPa, oldPa Vec2, b *Circle, pb Vec2) (Vec2, bool) {
	reach := a.Radius + b.Radius
	if newPa.Dist(pb) > reach {
		return Vec2{}, false
	}
	dir := newPa.Sub(pb).Normalize()
	if dir.IsZero() {
		dir = oldPa.Sub(pb).Normalize()
	}
	if dir.IsZero() {
		dir = Vec2{1, 0}
	}
	resolved := pb.Add(dir.Scale(reach + Spacing))
	return resolved.Sub(newPa), true
}

// region classifies p against the outward half-planes of r placed at pr. It
// returns the indices of the active faces and the signed distance to every
// face.
func region(r *Rectangle, pr, p Vec2) (active []int, dist [4]float64) {
	for i, side := range r.sides {
		dist[i] = p.Sub(pr.Add(side.P1)).Dot(side.Normal)
		if dist[i] > 0 {
			active = append(active, i)
		}
	}
	return active, dist
}

// cornerOf returns the corner shared by two adjacent active faces.
func cornerOf(r *Rectangle, pr Vec2, i, j int) Vec2 {
	if (i+1)%4 == j {
		return pr.Add(r.sides[i].P2)
	}
	return pr.Add(r.sides[j].P2)
}

func circleRectangleOverlap(c *Circle, pc Vec2, r *Rectangle, pr Vec2, inside bool) bool {
	active, dist := region(r, pr, pc)
	switch len(active) {
	case 0:
		if inside {
			return true
		}
		panic(fmt.Errorf("%w: circle center inside rectangle", ErrInvalidGeometricState))
	case 1:
		return dist[active[0]] <= c.Radius
	case 2:
		return pc.Dist(cornerOf(r, pr, active[0], active[1])) <= c.Radius
	}
	panic(fmt.Errorf("%w: %d active faces", ErrInvalidGeometricState, len(active)))
}

func resolveCircleRectangle(c *Circle, newPa, oldPa Vec2, r *Rectangle, pr Vec2) (Vec2, bool) {
	active, dist := region(r, pr, newPa)
	switch len(active) {
	case 1:
		i := active[0]
		if dist[i] > c.Radius {
			return Vec2{}, false
		}
		return r.sides[i].Normal.Scale(c.Radius - dist[i] + Spacing), true
	case 2:
		corner := cornerOf(r, pr, active[0], active[1])
		off := newPa.Sub(corner)
		d := off.Len()
		if d > c.Radius {
			return Vec2{}, false
		}
		dir := off.Normalize()
		if dir.IsZero() {
			dir = r.sides[active[0]].Normal.Add(r.sides[active[1]].Normal).Normalize()
		}
		return dir.Scale(c.Radius - d + Spacing), true
	case 0:
		// Center went inside: push out through the face the mover came from
		// that needs the smallest correction.
		oldActive, _ := region(r, pr, oldPa)
		if len(oldActive) == 0 {
			panic(fmt.Errorf("%w: mover started embedded in rectangle", ErrInvalidGeometricState))
		}
		best := oldActive[0]
		for _, i := range oldActive[1:] {
			if dist[i] > dist[best] {
				best = i
			}
		}
		return r.sides[best].Normal.Scale(c.Radius - dist[best] + Spacing), true
	}
	panic(fmt.Errorf("%w: %d active faces", ErrInvalidGeometricState, len(active)))
}

// coneCircleOverlap treats the target as a point: its radius widens neither
// the radial nor the angular gate.
func coneCircleOverlap(c *Cone, pc, target Vec2) bool {
	off := target.Sub(pc)
	d := off.Len()
	if d > c.Radius {
		return false
	}
	if d == 0 {
		return true
	}
	return math.Abs(NormalizeAngle(off.Heading()-c.Orientation)) <= c.Angle/2
}

func pathCrossesCircle(p1, p2, center Vec2, r float64) bool {
	if p1 == p2 {
		return false
	}
	u1, u2, n := segmentRoots(p1, p2, center, r)
	return n > 0 && (in01(u1) || in01(u2))
}

// segmentsIntersect is the parametric two-segment test. Parallel segments never
// intersect.
func segmentsIntersect(a, b Segment) bool {
	da := a.P2.Sub(a.P1)
	db := b.P2.Sub(b.P1)
	denom := db.Z*da.X - db.X*da.Z
	if denom == 0 {
		return false
	}
	off := a.P1.Sub(b.P1)
	ua := (db.X*off.Z - db.Z*off.X) / denom
	ub := (da.X*off.Z - da.Z*off.X) / denom
	return in01(ua) && in01(ub)
}
