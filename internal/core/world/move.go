package world

import (
	"maps"

	"github.com/zeusync/arena/internal/core/geometry"
)

// Move displaces obj by d, resolving collisions against every other shaped
// object. Overlaps with impassable objects are resolved into a slide along the
// obstacle. A path that jumps across an impassable object without ending in it
// aborts the move and leaves obj where it was.
func (w *World) Move(obj Object, d geometry.Vec2) {
	if e := obj.Base(); !e.inWorld || e.world != w {
		return
	}
	w.move(obj, d, nil, nil)
}

func (w *World) move(obj Object, d geometry.Vec2, handled map[ObjectID]struct{}, collided []Object) {
	e := obj.Base()
	oldPos := e.position
	newPos := oldPos.Add(d)

	if !d.IsZero() && e.shape != nil {
		path := geometry.Segment{P1: oldPos, P2: newPos}
		for _, o := range w.Objects() {
			ob := o.Base()
			if ob == e || ob.shape == nil || !ob.inWorld {
				continue
			}
			if _, ok := handled[ob.id]; ok {
				continue
			}

			swept := geometry.Swept(ob.shape, ob.position, path)
			v, overlap := geometry.Resolve(e.shape, newPos, oldPos, ob.shape, ob.position)

			if swept && !overlap {
				if !ob.passable {
					fireCollide(obj, o)
					return
				}
				collided = appendOnce(collided, o)
				continue
			}
			if !overlap {
				continue
			}

			collided = appendOnce(collided, o)
			if !ob.passable {
				next := maps.Clone(handled)
				if next == nil {
					next = make(map[ObjectID]struct{}, 1)
				}
				next[ob.id] = struct{}{}
				w.move(obj, d.Add(v), next, collided)
				return
			}
		}
	}

	e.SetPosition(newPos)
	for _, o := range collided {
		if !e.inWorld {
			return
		}
		fireCollide(obj, o)
	}
}

func fireCollide(mover, other Object) {
	mover.Collide(other)
	other.Collide(mover)
}

func appendOnce(list []Object, o Object) []Object {
	for _, x := range list {
		if x == o {
			return list
		}
	}
	return append(list, o)
}
