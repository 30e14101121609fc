// Package protocol is the wire format between the game server and its
// clients: msgpack frames carried in websocket binary messages.
package protocol

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/zeusync/arena/internal/core/sim"
	"github.com/zeusync/arena/internal/core/world"
)

var (
	ErrUnknownFrame = errors.New("unknown frame type")
	ErrMalformed    = errors.New("malformed frame")
)

type FrameType uint8

const (
	// FrameJoin is sent once by a client to enter the arena.
	FrameJoin FrameType = iota + 1
	// FrameWelcome answers a join with the player id and a snapshot.
	FrameWelcome
	// FrameIntent carries one player input.
	FrameIntent
	// FrameDeltas carries the changes of one tick.
	FrameDeltas
	// FrameChecksum carries the authoritative state hash of a tick.
	FrameChecksum
	// FrameError reports a rejected request.
	FrameError
)

func (t FrameType) String() string {
	switch t {
	case FrameJoin:
		return "join"
	case FrameWelcome:
		return "welcome"
	case FrameIntent:
		return "intent"
	case FrameDeltas:
		return "deltas"
	case FrameChecksum:
		return "checksum"
	case FrameError:
		return "error"
	default:
		return fmt.Sprintf("frame(%d)", uint8(t))
	}
}

func (t FrameType) valid() bool { return t >= FrameJoin && t <= FrameError }

// Frame is the envelope of every message.
type Frame struct {
	Type    FrameType          `msgpack:"t"`
	Payload msgpack.RawMessage `msgpack:"p"`
}

type Join struct {
	Name    string `msgpack:"name"`
	Element string `msgpack:"element"`
}

type Welcome struct {
	Player   world.ObjectID `msgpack:"player"`
	Tick     uint64         `msgpack:"tick"`
	TickRate int            `msgpack:"tick_rate"`
	Snapshot []world.Delta  `msgpack:"snapshot"`
}

// Intent is sim.Intent on the wire. The server overrides Player with the
// sender's id.
type Intent = sim.Intent

type Deltas struct {
	Tick   uint64        `msgpack:"tick"`
	Time   float64       `msgpack:"time"`
	Deltas []world.Delta `msgpack:"deltas"`
}

type Checksum struct {
	Tick uint64 `msgpack:"tick"`
	Sum  uint64 `msgpack:"sum"`
}

type Error struct {
	Message string `msgpack:"message"`
}

// Codec turns typed payloads into frames and back.
type Codec interface {
	Encode(t FrameType, payload any) ([]byte, error)
	Decode(data []byte) (Frame, error)
}

// MsgpackCodec is the default Codec.
type MsgpackCodec struct{}

func (MsgpackCodec) Encode(t FrameType, payload any) ([]byte, error) {
	if !t.valid() {
		return nil, fmt.Errorf("encode %s: %w", t, ErrUnknownFrame)
	}
	raw, err := msgpack.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", t, err)
	}
	return msgpack.Marshal(&Frame{Type: t, Payload: raw})
}

func (MsgpackCodec) Decode(data []byte) (Frame, error) {
	var f Frame
	if err := msgpack.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if !f.Type.valid() {
		return Frame{}, fmt.Errorf("decode %s: %w", f.Type, ErrUnknownFrame)
	}
	return f, nil
}

// Into decodes the payload of f into v.
func (f Frame) Into(v any) error {
	if err := msgpack.Unmarshal(f.Payload, v); err != nil {
		return fmt.Errorf("%s payload: %w: %w", f.Type, ErrMalformed, err)
	}
	return nil
}

// Encode uses the default codec.
func Encode(t FrameType, payload any) ([]byte, error) { return MsgpackCodec{}.Encode(t, payload) }

// Decode uses the default codec.
func Decode(data []byte) (Frame, error) { return MsgpackCodec{}.Decode(data) }
