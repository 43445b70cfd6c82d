package sim

import (
	"cmp"
	"slices"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/currents/components"
	"github.com/pthm-cable/currents/flow"
)

// DrifterState is a snapshot of one tracer.
type DrifterState struct {
	ID  uint32  `csv:"id"`
	Age float64 `csv:"age"`
	X   float64 `csv:"x"`
	Y   float64 `csv:"y"`
	U   float64 `csv:"u"`
	V   float64 `csv:"v"`
}

// DrifterSystem advects passive tracers through the current.
type DrifterSystem struct {
	world  *ecs.World
	mapper *ecs.Map3[components.Position, components.Velocity, components.Drifter]
	filter *ecs.Filter3[components.Position, components.Velocity, components.Drifter]
	nextID uint32

	removeBuf []ecs.Entity
}

// NewDrifterSystem creates a drifter system backed by its own ECS world.
func NewDrifterSystem() *DrifterSystem {
	world := ecs.NewWorld()
	return &DrifterSystem{
		world:  world,
		mapper: ecs.NewMap3[components.Position, components.Velocity, components.Drifter](world),
		filter: ecs.NewFilter3[components.Position, components.Velocity, components.Drifter](world),
	}
}

// Spawn releases one tracer at p.
func (s *DrifterSystem) Spawn(p r2.Vec, field *flow.Field) {
	v := field.VelocityAt(p)
	pos := components.Position{X: p.X, Y: p.Y}
	vel := components.Velocity{X: v.X, Y: v.Y}
	d := components.Drifter{ID: s.nextID}
	s.nextID++
	s.mapper.NewEntity(&pos, &vel, &d)
}

// Update moves every tracer by one explicit Euler step of dt and removes
// tracers that left the domain. It returns how many tracers were advected,
// one field evaluation each, and how many of those were removed.
func (s *DrifterSystem) Update(field *flow.Field, dt float64) (advanced, removed int) {
	sc := field.Scenario()
	s.removeBuf = s.removeBuf[:0]

	query := s.filter.Query()
	for query.Next() {
		pos, vel, d := query.Get()
		v := field.VelocityAt(r2.Vec{X: pos.X, Y: pos.Y})
		vel.X, vel.Y = v.X, v.Y
		pos.X += v.X * dt
		pos.Y += v.Y * dt
		d.Age += dt
		advanced++

		if !sc.InBounds(r2.Vec{X: pos.X, Y: pos.Y}) {
			s.removeBuf = append(s.removeBuf, query.Entity())
		}
	}

	// The world is locked while a query is open.
	for _, e := range s.removeBuf {
		s.world.RemoveEntity(e)
	}
	return advanced, len(s.removeBuf)
}

// Clear removes every tracer.
func (s *DrifterSystem) Clear() {
	s.removeBuf = s.removeBuf[:0]
	query := s.filter.Query()
	for query.Next() {
		s.removeBuf = append(s.removeBuf, query.Entity())
	}
	for _, e := range s.removeBuf {
		s.world.RemoveEntity(e)
	}
	s.removeBuf = s.removeBuf[:0]
}

// Snapshot returns every tracer in ID order.
func (s *DrifterSystem) Snapshot() []DrifterState {
	var out []DrifterState
	query := s.filter.Query()
	for query.Next() {
		pos, vel, d := query.Get()
		out = append(out, DrifterState{ID: d.ID, Age: d.Age, X: pos.X, Y: pos.Y, U: vel.X, V: vel.Y})
	}
	slices.SortFunc(out, func(a, b DrifterState) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// Count returns the number of live tracers.
func (s *DrifterSystem) Count() int {
	query := s.filter.Query()
	n := query.Count()
	query.Close()
	return n
}
