// Package components defines ECS components for the simulation.
package components

// Position represents an entity's world position.
type Position struct {
	X, Y float64
}

// Velocity represents an entity's velocity over ground.
type Velocity struct {
	X, Y float64
}

// Drifter marks a passive tracer carried by the current.
type Drifter struct {
	ID  uint32
	Age float64 // Seconds since release
}
