package sim

import "github.com/zeusync/arena/internal/core/world"

// IntentKind selects what an Intent changes.
type IntentKind uint8

const (
	// IntentMove starts or stops running in Direction relative to the
	// player's rotation.
	IntentMove IntentKind = iota + 1
	// IntentRotate turns the player to face Rotation.
	IntentRotate
	// IntentAbility requests Ability, or the ability in Slot (1..4) when
	// Ability is zero.
	IntentAbility
)

func (k IntentKind) String() string {
	switch k {
	case IntentMove:
		return "move"
	case IntentRotate:
		return "rotate"
	case IntentAbility:
		return "ability"
	default:
		return "unknown"
	}
}

// Intent is one player input applied between ticks.
type Intent struct {
	Player world.ObjectID `msgpack:"p"`
	Kind   IntentKind     `msgpack:"k"`

	Moving    bool            `msgpack:"m,omitempty"`
	Direction float64         `msgpack:"d,omitempty"`
	Rotation  float64         `msgpack:"r,omitempty"`
	Ability   world.AbilityID `msgpack:"a,omitempty"`
	Slot      int             `msgpack:"s,omitempty"`
}
