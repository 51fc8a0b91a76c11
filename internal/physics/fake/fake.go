package fake

import (
	"fmt"
	"sync"

	"github.com/topplegame/topple/internal/model"
	"github.com/topplegame/topple/internal/physics"
)

// Cell offsets composing each tetromino, in block units relative to the
// spawn position. The first offset is the piece's primary cell.
var tetrominoCells = map[model.TetrominoKind][]model.Vec2{
	model.TetrominoI: {{X: -0.5, Y: 0}, {X: -1.5, Y: 0}, {X: 0.5, Y: 0}, {X: 1.5, Y: 0}},
	model.TetrominoJ: {{X: 0, Y: 0}, {X: -1, Y: 0}, {X: -1, Y: 1}, {X: 1, Y: 0}},
	model.TetrominoL: {{X: 0, Y: 0}, {X: -1, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}},
	model.TetrominoO: {{X: -0.5, Y: -0.5}, {X: 0.5, Y: -0.5}, {X: -0.5, Y: 0.5}, {X: 0.5, Y: 0.5}},
	model.TetrominoS: {{X: 0, Y: 0}, {X: -1, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}},
	model.TetrominoT: {{X: 0, Y: 0}, {X: -1, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}},
	model.TetrominoZ: {{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: -1, Y: 1}},
}

type block struct {
	pos      model.Vec2
	size     model.Vec2
	angle    float64
	material physics.Material
	isStatic bool
}

// Explosion records one ApplyExplosion call
type Explosion struct {
	Center model.Vec2
	Radius float64
	Force  float64
}

// Wind records one ApplyWind call
type Wind struct {
	Direction model.Vec2
	Strength  float64
}

// CollisionCheck records one CheckCollision call
type CollisionCheck struct {
	A model.BlockID
	B model.BlockID
}

// Boundary is an in-memory physics engine stand-in. Blocks are kept as
// axis-aligned boxes that stay where they are put; collision is AABB
// overlap with rotation ignored. Deterministic and dependency-free, it
// backs tests and engine-less deployments.
type Boundary struct {
	mu     sync.Mutex
	blocks map[model.BlockID]*block
	nextID model.BlockID

	steps      int
	explosion  []Explosion
	wind       []Wind
	collisions []CollisionCheck
	closed     bool

	// Error injection for failure-path tests. When set, the matching
	// operation fails with the given error.
	CreateErr    error
	TransformErr error
	CollisionErr error
	EffectErr    error

	// EmptyComposite makes CreateTetromino succeed with zero blocks
	EmptyComposite bool
}

// Ensure Boundary implements the physics contract
var _ physics.Boundary = (*Boundary)(nil)

// New creates an empty fake boundary
func New() *Boundary {
	return &Boundary{
		blocks: make(map[model.BlockID]*block),
	}
}

// CreateBlock adds a single box to the store
func (b *Boundary) CreateBlock(pos model.Vec2, size model.Vec2, angle float64, mat physics.Material, isStatic bool) (model.BlockID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.CreateErr != nil {
		return 0, b.CreateErr
	}

	b.nextID++
	b.blocks[b.nextID] = &block{
		pos:      pos,
		size:     size,
		angle:    angle,
		material: mat,
		isStatic: isStatic,
	}
	return b.nextID, nil
}

// CreateTetromino adds the shape's four cells as unit boxes
func (b *Boundary) CreateTetromino(kind model.TetrominoKind, pos model.Vec2, scale, angle float64, mat physics.Material) ([]model.BlockID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.CreateErr != nil {
		return nil, b.CreateErr
	}
	if b.EmptyComposite {
		return nil, nil
	}

	cells, ok := tetrominoCells[kind]
	if !ok {
		return nil, fmt.Errorf("unknown tetromino kind %q", kind)
	}

	ids := make([]model.BlockID, 0, len(cells))
	for _, cell := range cells {
		b.nextID++
		b.blocks[b.nextID] = &block{
			pos:      model.Vec2{X: pos.X + cell.X*scale, Y: pos.Y + cell.Y*scale},
			size:     model.Vec2{X: scale, Y: scale},
			angle:    angle,
			material: mat,
		}
		ids = append(ids, b.nextID)
	}
	return ids, nil
}

// RemoveBlock deletes a block, reporting whether it existed
func (b *Boundary) RemoveBlock(id model.BlockID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.blocks[id]; !ok {
		return false
	}
	delete(b.blocks, id)
	return true
}

// GetTransform reads a block's position and angle
func (b *Boundary) GetTransform(id model.BlockID) (physics.Transform, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.TransformErr != nil {
		return physics.Transform{}, b.TransformErr
	}

	blk, ok := b.blocks[id]
	if !ok {
		return physics.Transform{}, fmt.Errorf("block %d not found", id)
	}
	return physics.Transform{Position: blk.pos, Angle: blk.angle}, nil
}

// SetPosition moves a block
func (b *Boundary) SetPosition(id model.BlockID, pos model.Vec2) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.TransformErr != nil {
		return b.TransformErr
	}

	blk, ok := b.blocks[id]
	if !ok {
		return fmt.Errorf("block %d not found", id)
	}
	blk.pos = pos
	return nil
}

// SetAngle rotates a block
func (b *Boundary) SetAngle(id model.BlockID, angle float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.TransformErr != nil {
		return b.TransformErr
	}

	blk, ok := b.blocks[id]
	if !ok {
		return fmt.Errorf("block %d not found", id)
	}
	blk.angle = angle
	return nil
}

// CheckCollision reports AABB overlap between two blocks, recording
// the checked pair
func (b *Boundary) CheckCollision(idA, idB model.BlockID) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.CollisionErr != nil {
		return false, b.CollisionErr
	}
	b.collisions = append(b.collisions, CollisionCheck{A: idA, B: idB})

	blkA, ok := b.blocks[idA]
	if !ok {
		return false, fmt.Errorf("block %d not found", idA)
	}
	blkB, ok := b.blocks[idB]
	if !ok {
		return false, fmt.Errorf("block %d not found", idB)
	}

	return overlap1D(blkA.pos.X, blkA.size.X, blkB.pos.X, blkB.size.X) &&
		overlap1D(blkA.pos.Y, blkA.size.Y, blkB.pos.Y, blkB.size.Y), nil
}

func overlap1D(centerA, sizeA, centerB, sizeB float64) bool {
	halfA := sizeA / 2
	halfB := sizeB / 2
	return centerA-halfA < centerB+halfB && centerB-halfB < centerA+halfA
}

// ApplyExplosion records the call and nudges non-static blocks inside
// the radius directly away from the center
func (b *Boundary) ApplyExplosion(center model.Vec2, radius, force float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.EffectErr != nil {
		return b.EffectErr
	}

	b.explosion = append(b.explosion, Explosion{Center: center, Radius: radius, Force: force})
	for _, blk := range b.blocks {
		if blk.isStatic {
			continue
		}
		dx := blk.pos.X - center.X
		dy := blk.pos.Y - center.Y
		if dx*dx+dy*dy > radius*radius {
			continue
		}
		// Displacement proportional to force, just enough that tests can
		// observe the effect landed
		blk.pos.X += sign(dx) * force * 0.01
		blk.pos.Y += sign(dy) * force * 0.01
	}
	return nil
}

// ApplyWind records the call and shifts non-static blocks along the
// wind direction
func (b *Boundary) ApplyWind(direction model.Vec2, strength float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.EffectErr != nil {
		return b.EffectErr
	}

	b.wind = append(b.wind, Wind{Direction: direction, Strength: strength})
	for _, blk := range b.blocks {
		if blk.isStatic {
			continue
		}
		blk.pos.X += direction.X * strength * 0.01
		blk.pos.Y += direction.Y * strength * 0.01
	}
	return nil
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// Advance counts a simulation step. Blocks are kinematic here, so
// nothing moves on its own.
func (b *Boundary) Advance(dt float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.steps++
	return nil
}

// Close empties the store
func (b *Boundary) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blocks = make(map[model.BlockID]*block)
	b.closed = true
	return nil
}

// BlockCount returns how many blocks the store currently holds
func (b *Boundary) BlockCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.blocks)
}

// Steps returns how many times Advance has been called
func (b *Boundary) Steps() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.steps
}

// Explosions returns the recorded ApplyExplosion calls
func (b *Boundary) Explosions() []Explosion {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Explosion, len(b.explosion))
	copy(out, b.explosion)
	return out
}

// Winds returns the recorded ApplyWind calls
func (b *Boundary) Winds() []Wind {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Wind, len(b.wind))
	copy(out, b.wind)
	return out
}

// CollisionChecks returns the recorded CheckCollision calls
func (b *Boundary) CollisionChecks() []CollisionCheck {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]CollisionCheck, len(b.collisions))
	copy(out, b.collisions)
	return out
}

// Closed reports whether Close has been called
func (b *Boundary) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
