package physics

import "github.com/topplegame/topple/internal/model"

// Transform is a block's position and rotation as reported by the engine
type Transform struct {
	Position model.Vec2
	Angle    float64 // radians
}

// Material describes how a rigid body behaves in the simulation
type Material struct {
	Density     float64
	Restitution float64
	Friction    float64
}

// DefaultMaterial returns the material used for ordinary tower blocks
func DefaultMaterial() Material {
	return Material{
		Density:     1.0,
		Restitution: 0.1,
		Friction:    0.3,
	}
}

// Boundary is the call surface of the external physics engine. Game
// logic consumes this interface and never touches the engine directly.
// Every call may fail and may be slow; callers treat results as
// untrusted and must not assume a particular engine implementation.
type Boundary interface {
	// CreateBlock materializes a single rectangular rigid body and
	// returns its id
	CreateBlock(pos model.Vec2, size model.Vec2, angle float64, mat Material, isStatic bool) (model.BlockID, error)

	// CreateTetromino materializes the constituent blocks of a piece
	// shape. The first id returned is the piece's primary block.
	CreateTetromino(kind model.TetrominoKind, pos model.Vec2, scale, angle float64, mat Material) ([]model.BlockID, error)

	// RemoveBlock releases a block. It reports whether the engine knew
	// the id.
	RemoveBlock(id model.BlockID) bool

	// GetTransform reads a block's current position and angle
	GetTransform(id model.BlockID) (Transform, error)

	// SetPosition teleports a block
	SetPosition(id model.BlockID, pos model.Vec2) error

	// SetAngle rotates a block in place
	SetAngle(id model.BlockID, angle float64) error

	// CheckCollision reports whether two blocks are currently in contact
	CheckCollision(a, b model.BlockID) (bool, error)

	// ApplyExplosion pushes every block near center away from it
	ApplyExplosion(center model.Vec2, radius, force float64) error

	// ApplyWind applies a directional impulse across the whole field
	ApplyWind(direction model.Vec2, strength float64) error

	// Advance steps the simulation by dt seconds. Driven by its own
	// fixed-rate loop, independent of the game tick.
	Advance(dt float64) error

	// Close releases the engine and every block it still holds
	Close() error
}
