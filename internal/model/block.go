package model

// BlockID identifies a rigid body inside the physics engine.
// Zero is never a valid id and means "no block".
type BlockID uint64

// Vec2 is a 2D position or direction in field coordinates
type Vec2 struct {
	X float64
	Y float64
}

// TetrominoKind is one of the seven canonical piece shapes
type TetrominoKind string

const (
	TetrominoI TetrominoKind = "I"
	TetrominoJ TetrominoKind = "J"
	TetrominoL TetrominoKind = "L"
	TetrominoO TetrominoKind = "O"
	TetrominoS TetrominoKind = "S"
	TetrominoT TetrominoKind = "T"
	TetrominoZ TetrominoKind = "Z"
)

// TetrominoKinds lists every spawnable shape, in spawn-picker order
var TetrominoKinds = []TetrominoKind{
	TetrominoI,
	TetrominoJ,
	TetrominoL,
	TetrominoO,
	TetrominoS,
	TetrominoT,
	TetrominoZ,
}
