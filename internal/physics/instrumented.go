package physics

import (
	"time"

	"github.com/topplegame/topple/internal/metrics"
	"github.com/topplegame/topple/internal/model"
)

// instrumented wraps a Boundary and records per-call durations
type instrumented struct {
	next Boundary
	m    *metrics.Metrics
}

// Instrument returns a Boundary that forwards to next and observes the
// duration of every call
func Instrument(next Boundary, m *metrics.Metrics) Boundary {
	return &instrumented{next: next, m: m}
}

var _ Boundary = (*instrumented)(nil)

func (i *instrumented) CreateBlock(pos model.Vec2, size model.Vec2, angle float64, mat Material, isStatic bool) (model.BlockID, error) {
	defer i.observe("create_block", time.Now())
	return i.next.CreateBlock(pos, size, angle, mat, isStatic)
}

func (i *instrumented) CreateTetromino(kind model.TetrominoKind, pos model.Vec2, scale, angle float64, mat Material) ([]model.BlockID, error) {
	defer i.observe("create_tetromino", time.Now())
	return i.next.CreateTetromino(kind, pos, scale, angle, mat)
}

func (i *instrumented) RemoveBlock(id model.BlockID) bool {
	defer i.observe("remove_block", time.Now())
	return i.next.RemoveBlock(id)
}

func (i *instrumented) GetTransform(id model.BlockID) (Transform, error) {
	defer i.observe("get_transform", time.Now())
	return i.next.GetTransform(id)
}

func (i *instrumented) SetPosition(id model.BlockID, pos model.Vec2) error {
	defer i.observe("set_position", time.Now())
	return i.next.SetPosition(id, pos)
}

func (i *instrumented) SetAngle(id model.BlockID, angle float64) error {
	defer i.observe("set_angle", time.Now())
	return i.next.SetAngle(id, angle)
}

func (i *instrumented) CheckCollision(a, b model.BlockID) (bool, error) {
	defer i.observe("check_collision", time.Now())
	return i.next.CheckCollision(a, b)
}

func (i *instrumented) ApplyExplosion(center model.Vec2, radius, force float64) error {
	defer i.observe("apply_explosion", time.Now())
	return i.next.ApplyExplosion(center, radius, force)
}

func (i *instrumented) ApplyWind(direction model.Vec2, strength float64) error {
	defer i.observe("apply_wind", time.Now())
	return i.next.ApplyWind(direction, strength)
}

func (i *instrumented) Advance(dt float64) error {
	defer i.observe("advance", time.Now())
	return i.next.Advance(dt)
}

func (i *instrumented) Close() error {
	return i.next.Close()
}

func (i *instrumented) observe(op string, start time.Time) {
	i.m.ObservePhysics(op, time.Since(start))
}
