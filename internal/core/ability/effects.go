package ability

import (
	"math"

	"github.com/zeusync/arena/internal/core/geometry"
	"github.com/zeusync/arena/internal/core/world"
)

// playersIn returns the players other than the owner touching shape at pos.
func playersIn(owner *world.Player, shape geometry.Shape, pos geometry.Vec2) []*world.Player {
	hits := owner.World().GetColliders(shape, pos, world.KindPlayer, owner)
	out := make([]*world.Player, 0, len(hits))
	for _, h := range hits {
		if p, ok := h.(*world.Player); ok {
			out = append(out, p)
		}
	}
	return out
}

// strike damages every player touching shape at pos on the master and
// returns the players hit.
func strike(b *base, shape geometry.Shape, pos geometry.Vec2, damage float64) []*world.Player {
	hits := playersIn(b.owner, shape, pos)
	if b.master() {
		for _, p := range hits {
			p.ApplyDamage(damage, b.owner, b.info.ID)
		}
	}
	return hits
}

// forwardCone is a cone anchored at the owner facing its rotation.
func forwardCone(owner *world.Player, radius, angle float64) *geometry.Cone {
	return geometry.NewCone(radius, owner.Rotation(), angle)
}

// teleport moves the owner forward by distance in samples equal steps. Every
// step is probed first and the teleport stops at the first step that would
// touch a wall. Players met on the way are passed to onPlayer. It returns the
// number of steps taken.
func teleport(owner *world.Player, distance float64, samples int, onPlayer func(*world.Player)) int {
	w := owner.World()
	step := distance / float64(samples)
	taken := 0
	for i := 0; i < samples && owner.InWorld(); i++ {
		heading := geometry.FromHeading(owner.Rotation())
		sample := owner.Position().Add(heading.Scale(step))

		blocked := false
		for _, o := range w.GetColliders(owner.Shape(), sample, 0, owner) {
			switch c := o.(type) {
			case *world.Player:
				if onPlayer != nil {
					onPlayer(c)
				}
			case *world.Projectile:
			default:
				blocked = true
			}
		}
		if blocked {
			break
		}
		w.Move(owner, sample.Sub(owner.Position()))
		taken++
	}

	w.Record(world.Delta{
		Kind:     world.DeltaTeleported,
		Object:   owner.ID(),
		Position: owner.Position(),
	})
	owner.Teleported.Fire(owner)
	return taken
}

func nearest(from geometry.Vec2, players []*world.Player) *world.Player {
	var best *world.Player
	bestDist := math.Inf(1)
	for _, p := range players {
		if d := p.Position().Sub(from).LenSq(); d < bestDist {
			best, bestDist = p, d
		}
	}
	return best
}
