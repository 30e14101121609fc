package world

import "github.com/zeusync/arena/internal/core/geometry"

// DeltaKind identifies an observable state change.
type DeltaKind uint8

const (
	DeltaObjectAdded DeltaKind = iota + 1
	DeltaObjectRemoved
	DeltaPositionChanged
	DeltaRotationChanged
	DeltaMovingChanged
	DeltaForceChanged
	DeltaStatusChanged
	DeltaAbilityUsed
	DeltaScoreChanged
	DeltaTeleported
)

func (k DeltaKind) String() string {
	switch k {
	case DeltaObjectAdded:
		return "object_added"
	case DeltaObjectRemoved:
		return "object_removed"
	case DeltaPositionChanged:
		return "position_changed"
	case DeltaRotationChanged:
		return "rotation_changed"
	case DeltaMovingChanged:
		return "moving_changed"
	case DeltaForceChanged:
		return "force_changed"
	case DeltaStatusChanged:
		return "status_changed"
	case DeltaAbilityUsed:
		return "ability_used"
	case DeltaScoreChanged:
		return "score_changed"
	case DeltaTeleported:
		return "teleported"
	default:
		return "unknown"
	}
}

// Delta is one state change recorded by the world during a tick. Only the
// fields relevant to Kind are set.
type Delta struct {
	Kind   DeltaKind `msgpack:"k"`
	Object ObjectID  `msgpack:"o"`
	Time   float64   `msgpack:"t"`

	Position  geometry.Vec2 `msgpack:"p"`
	Rotation  float64       `msgpack:"r,omitempty"`
	Moving    bool          `msgpack:"m,omitempty"`
	Direction float64       `msgpack:"d,omitempty"`
	Force     geometry.Vec2 `msgpack:"f"`
	Health    float64       `msgpack:"h,omitempty"`
	Power     float64       `msgpack:"w,omitempty"`
	Score     int           `msgpack:"s,omitempty"`
	Ability   AbilityID     `msgpack:"a,omitempty"`
	Source    ObjectID      `msgpack:"src,omitempty"`

	// Set on DeltaObjectAdded.
	ObjectKind Kind        `msgpack:"ok,omitempty"`
	Element    ElementKind `msgpack:"e,omitempty"`
	Name       string      `msgpack:"n,omitempty"`
	Radius     float64     `msgpack:"rad,omitempty"`
}
