package sim

import (
	"slices"

	"github.com/zeusync/arena/internal/core/world"
)

type deltaKey struct {
	object world.ObjectID
	kind   world.DeltaKind
}

// Coalesce keeps only the last position, rotation, moving, force and status
// change of every object. Surviving deltas keep their relative order; every
// other kind is kept as is.
func Coalesce(deltas []world.Delta) []world.Delta {
	seen := make(map[deltaKey]struct{}, len(deltas))
	out := make([]world.Delta, 0, len(deltas))
	for i := len(deltas) - 1; i >= 0; i-- {
		d := deltas[i]
		switch d.Kind {
		case world.DeltaPositionChanged, world.DeltaRotationChanged, world.DeltaMovingChanged,
			world.DeltaForceChanged, world.DeltaStatusChanged:
			k := deltaKey{d.Object, d.Kind}
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
		case world.DeltaObjectRemoved, world.DeltaObjectAdded:
			// changes from before a removal or re-entry are stale
			for _, kind := range []world.DeltaKind{
				world.DeltaPositionChanged, world.DeltaRotationChanged, world.DeltaMovingChanged,
				world.DeltaForceChanged, world.DeltaStatusChanged,
			} {
				seen[deltaKey{d.Object, kind}] = struct{}{}
			}
		}
		out = append(out, d)
	}
	slices.Reverse(out)
	return out
}
