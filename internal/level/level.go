// Package level loads arena layouts: segment walls, rectangular pillars and
// spawn points.
package level

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/arena/internal/core/geometry"
	"github.com/zeusync/arena/internal/core/world"
)

var ErrInvalidLevel = errors.New("invalid level")

// Point is a YAML-friendly [x, z] pair.
type Point [2]float64

func (p Point) Vec() geometry.Vec2 { return geometry.V(p[0], p[1]) }

type Wall struct {
	P1     Point `yaml:"p1"`
	P2     Point `yaml:"p2"`
	Normal Point `yaml:"normal"`
}

type Pillar struct {
	Position Point   `yaml:"position"`
	Width    float64 `yaml:"width"`
	Height   float64 `yaml:"height"`
	Rotation float64 `yaml:"rotation,omitempty"`
}

// Level describes an arena. Wall endpoints are absolute; the normal points
// into the playable side.
type Level struct {
	Name    string   `yaml:"name"`
	Walls   []Wall   `yaml:"walls"`
	Pillars []Pillar `yaml:"pillars,omitempty"`
	Spawns  []Point  `yaml:"spawns,omitempty"`
}

// LoadYAML decodes and validates a level. Unknown keys are rejected.
func LoadYAML(r io.Reader) (*Level, error) {
	var l Level
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&l); err != nil {
		return nil, fmt.Errorf("decode level: %w: %w", ErrInvalidLevel, err)
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

func LoadFile(path string) (*Level, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open level: %w", err)
	}
	defer func() { _ = f.Close() }()
	return LoadYAML(f)
}

func (l *Level) Validate() error {
	for i, w := range l.Walls {
		if w.P1 == w.P2 {
			return fmt.Errorf("wall %d has zero length: %w", i, ErrInvalidLevel)
		}
		if w.Normal.Vec().IsZero() {
			return fmt.Errorf("wall %d has no normal: %w", i, ErrInvalidLevel)
		}
	}
	for i, p := range l.Pillars {
		if p.Width <= 0 || p.Height <= 0 {
			return fmt.Errorf("pillar %d has size %vx%v: %w", i, p.Width, p.Height, ErrInvalidLevel)
		}
	}
	return nil
}

// SpawnPoints returns the spawn points as vectors.
func (l *Level) SpawnPoints() []geometry.Vec2 {
	out := make([]geometry.Vec2, 0, len(l.Spawns))
	for _, s := range l.Spawns {
		out = append(out, s.Vec())
	}
	return out
}

// Build adds the walls and pillars to w and returns them in level order.
// Each wall is placed at its first endpoint.
func (l *Level) Build(w *world.World) []*world.Wall {
	out := make([]*world.Wall, 0, len(l.Walls)+len(l.Pillars))
	for _, wl := range l.Walls {
		origin := wl.P1.Vec()
		seg := geometry.NewSegment(geometry.Vec2{}, wl.P2.Vec().Sub(origin), wl.Normal.Vec())
		out = append(out, world.NewWall(seg, origin))
	}
	for _, p := range l.Pillars {
		out = append(out, world.NewWall(geometry.NewRectangle(p.Width, p.Height, p.Rotation), p.Position.Vec()))
	}
	for _, wl := range out {
		w.Add(wl)
	}
	return out
}

// Square returns a closed square arena of the given side centered on the
// origin with one spawn point per quadrant.
func Square(side float64) *Level {
	h := side / 2
	q := side / 4
	return &Level{
		Name: "square",
		Walls: []Wall{
			{P1: Point{-h, -h}, P2: Point{h, -h}, Normal: Point{0, 1}},
			{P1: Point{h, -h}, P2: Point{h, h}, Normal: Point{-1, 0}},
			{P1: Point{h, h}, P2: Point{-h, h}, Normal: Point{0, -1}},
			{P1: Point{-h, h}, P2: Point{-h, -h}, Normal: Point{1, 0}},
		},
		Spawns: []Point{{-q, -q}, {q, q}, {q, -q}, {-q, q}},
	}
}
