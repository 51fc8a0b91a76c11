package model

import "errors"

// Common errors used across the application
var (
	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrServerFull      = errors.New("session capacity exceeded")
	ErrMissingSession  = errors.New("no session bound to connection")
	ErrUnauthorized    = errors.New("not authorized")

	// Game errors
	ErrGameNotFound   = errors.New("game not found")
	ErrGameFull       = errors.New("game is full")
	ErrInvalidState   = errors.New("operation not allowed in current game state")
	ErrNoCurrentBlock = errors.New("no current block is active")

	// Player errors
	ErrPlayerNotFound = errors.New("player not found")
	ErrBlockNotFound  = errors.New("block not found")

	// Spell errors
	ErrSpellNotFound     = errors.New("spell not found")
	ErrInsufficientScore = errors.New("insufficient score to cast spell")
	ErrInvalidTarget     = errors.New("invalid spell target")

	// Physics boundary errors
	ErrPhysics = errors.New("physics operation failed")

	// Protocol errors
	ErrProtocol = errors.New("malformed message")
)
