package native

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/topplegame/topple/internal/model"
	"github.com/topplegame/topple/internal/physics"
)

// Config holds native engine load and simulation settings
type Config struct {
	// LibraryPath is the path to the engine shared library
	LibraryPath string

	Gravity       model.Vec2
	Iterations    int
	FixedTimeStep float64
}

// DefaultConfig returns the engine defaults
func DefaultConfig() Config {
	return Config{
		Gravity:       model.Vec2{X: 0, Y: -9.8},
		Iterations:    10,
		FixedTimeStep: 1.0 / 60.0,
	}
}

// C ABI of the engine library. Out-parameters are passed as raw
// pointers; status returns are 0 for success, negative for failure.
type engineABI struct {
	create          func(gravityX, gravityY float64, iterations int32, fixedTimeStep float64) uintptr
	destroy         func(engine uintptr)
	createBlock     func(engine uintptr, x, y, width, height, angle, density, restitution, friction float64, isStatic int32) uint64
	createTetromino func(engine uintptr, kind int32, x, y, scale, angle, density, restitution, friction float64, outIDs unsafe.Pointer, maxIDs int32) int32
	removeBlock     func(engine uintptr, id uint64) int32
	getTransform    func(engine uintptr, id uint64, outX, outY, outAngle unsafe.Pointer) int32
	setPosition     func(engine uintptr, id uint64, x, y float64) int32
	setAngle        func(engine uintptr, id uint64, angle float64) int32
	checkCollision  func(engine uintptr, a, b uint64) int32
	applyExplosion  func(engine uintptr, x, y, radius, force float64) int32
	applyWind       func(engine uintptr, directionX, directionY, strength float64) int32
	update          func(engine uintptr, dt float64)
}

// Engine drives a physics engine loaded from a shared library. Calls
// are serialized with a mutex because the engine ABI is single-threaded.
type Engine struct {
	mu     sync.Mutex
	lib    uintptr
	engine uintptr
	abi    engineABI
	closed bool
}

// Ensure Engine implements the physics contract
var _ physics.Boundary = (*Engine)(nil)

// New loads the engine library from cfg.LibraryPath, binds its symbols
// and creates an engine instance
func New(cfg Config) (*Engine, error) {
	if cfg.LibraryPath == "" {
		return nil, fmt.Errorf("physics library path is required")
	}

	lib, err := purego.Dlopen(cfg.LibraryPath, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("load physics library %s: %w", cfg.LibraryPath, err)
	}

	e := &Engine{lib: lib}
	if err := e.bind(); err != nil {
		_ = purego.Dlclose(lib)
		return nil, err
	}

	e.engine = e.abi.create(cfg.Gravity.X, cfg.Gravity.Y, int32(cfg.Iterations), cfg.FixedTimeStep)
	if e.engine == 0 {
		_ = purego.Dlclose(lib)
		return nil, fmt.Errorf("physics_engine_create returned null")
	}

	return e, nil
}

// bind resolves every engine symbol, failing up front on the first
// missing one rather than panicking mid-game
func (e *Engine) bind() error {
	symbols := []struct {
		name string
		fptr any
	}{
		{"physics_engine_create", &e.abi.create},
		{"physics_engine_destroy", &e.abi.destroy},
		{"physics_create_block", &e.abi.createBlock},
		{"physics_create_tetromino", &e.abi.createTetromino},
		{"physics_remove_block", &e.abi.removeBlock},
		{"physics_get_transform", &e.abi.getTransform},
		{"physics_set_position", &e.abi.setPosition},
		{"physics_set_angle", &e.abi.setAngle},
		{"physics_check_collision", &e.abi.checkCollision},
		{"physics_apply_explosion", &e.abi.applyExplosion},
		{"physics_apply_wind", &e.abi.applyWind},
		{"physics_update", &e.abi.update},
	}

	for _, sym := range symbols {
		if _, err := purego.Dlsym(e.lib, sym.name); err != nil {
			return fmt.Errorf("resolve symbol %s: %w", sym.name, err)
		}
		purego.RegisterLibFunc(sym.fptr, e.lib, sym.name)
	}
	return nil
}

func tetrominoCode(kind model.TetrominoKind) (int32, bool) {
	for i, k := range model.TetrominoKinds {
		if k == kind {
			return int32(i), true
		}
	}
	return 0, false
}

// CreateBlock materializes a single rigid body
func (e *Engine) CreateBlock(pos model.Vec2, size model.Vec2, angle float64, mat physics.Material, isStatic bool) (model.BlockID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return 0, fmt.Errorf("physics engine is closed")
	}

	var staticFlag int32
	if isStatic {
		staticFlag = 1
	}

	id := e.abi.createBlock(e.engine, pos.X, pos.Y, size.X, size.Y, angle, mat.Density, mat.Restitution, mat.Friction, staticFlag)
	if id == 0 {
		return 0, fmt.Errorf("engine rejected block creation")
	}
	return model.BlockID(id), nil
}

// CreateTetromino materializes a piece shape's constituent blocks
func (e *Engine) CreateTetromino(kind model.TetrominoKind, pos model.Vec2, scale, angle float64, mat physics.Material) ([]model.BlockID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, fmt.Errorf("physics engine is closed")
	}

	code, ok := tetrominoCode(kind)
	if !ok {
		return nil, fmt.Errorf("unknown tetromino kind %q", kind)
	}

	// Tetromino shapes are at most 4 cells, leave headroom for engines
	// that split cells into multiple bodies
	buf := make([]uint64, 16)
	n := e.abi.createTetromino(e.engine, code, pos.X, pos.Y, scale, angle, mat.Density, mat.Restitution, mat.Friction, unsafe.Pointer(&buf[0]), int32(len(buf)))
	if n < 0 {
		return nil, fmt.Errorf("engine rejected tetromino creation (code %d)", n)
	}

	ids := make([]model.BlockID, 0, n)
	for i := int32(0); i < n; i++ {
		ids = append(ids, model.BlockID(buf[i]))
	}
	return ids, nil
}

// RemoveBlock releases a block
func (e *Engine) RemoveBlock(id model.BlockID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	return e.abi.removeBlock(e.engine, uint64(id)) == 0
}

// GetTransform reads a block's position and angle
func (e *Engine) GetTransform(id model.BlockID) (physics.Transform, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return physics.Transform{}, fmt.Errorf("physics engine is closed")
	}

	var x, y, angle float64
	rc := e.abi.getTransform(e.engine, uint64(id), unsafe.Pointer(&x), unsafe.Pointer(&y), unsafe.Pointer(&angle))
	if rc != 0 {
		return physics.Transform{}, fmt.Errorf("get transform for block %d failed (code %d)", id, rc)
	}
	return physics.Transform{Position: model.Vec2{X: x, Y: y}, Angle: angle}, nil
}

// SetPosition teleports a block
func (e *Engine) SetPosition(id model.BlockID, pos model.Vec2) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return fmt.Errorf("physics engine is closed")
	}

	if rc := e.abi.setPosition(e.engine, uint64(id), pos.X, pos.Y); rc != 0 {
		return fmt.Errorf("set position for block %d failed (code %d)", id, rc)
	}
	return nil
}

// SetAngle rotates a block in place
func (e *Engine) SetAngle(id model.BlockID, angle float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return fmt.Errorf("physics engine is closed")
	}

	if rc := e.abi.setAngle(e.engine, uint64(id), angle); rc != 0 {
		return fmt.Errorf("set angle for block %d failed (code %d)", id, rc)
	}
	return nil
}

// CheckCollision reports whether two blocks are in contact
func (e *Engine) CheckCollision(a, b model.BlockID) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false, fmt.Errorf("physics engine is closed")
	}

	rc := e.abi.checkCollision(e.engine, uint64(a), uint64(b))
	if rc < 0 {
		return false, fmt.Errorf("collision check %d/%d failed (code %d)", a, b, rc)
	}
	return rc == 1, nil
}

// ApplyExplosion pushes nearby blocks away from center
func (e *Engine) ApplyExplosion(center model.Vec2, radius, force float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return fmt.Errorf("physics engine is closed")
	}

	if rc := e.abi.applyExplosion(e.engine, center.X, center.Y, radius, force); rc != 0 {
		return fmt.Errorf("apply explosion failed (code %d)", rc)
	}
	return nil
}

// ApplyWind applies a directional impulse across the field
func (e *Engine) ApplyWind(direction model.Vec2, strength float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return fmt.Errorf("physics engine is closed")
	}

	if rc := e.abi.applyWind(e.engine, direction.X, direction.Y, strength); rc != 0 {
		return fmt.Errorf("apply wind failed (code %d)", rc)
	}
	return nil
}

// Advance steps the simulation by dt seconds
func (e *Engine) Advance(dt float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return fmt.Errorf("physics engine is closed")
	}

	e.abi.update(e.engine, dt)
	return nil
}

// Close destroys the engine instance and unloads the library. Safe to
// call twice.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true

	e.abi.destroy(e.engine)
	if err := purego.Dlclose(e.lib); err != nil {
		return fmt.Errorf("unload physics library: %w", err)
	}
	return nil
}
