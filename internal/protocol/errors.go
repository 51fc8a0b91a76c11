package protocol

import (
	"errors"

	"github.com/topplegame/topple/internal/model"
)

// ErrorData is the payload of an Error message
type ErrorData struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Wire error codes
const (
	CodeSessionNotFound   = "SESSION_NOT_FOUND"
	CodeServerFull        = "SERVER_FULL"
	CodeMissingSession    = "MISSING_SESSION"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeGameNotFound      = "GAME_NOT_FOUND"
	CodeGameFull          = "GAME_FULL"
	CodeInvalidState      = "INVALID_STATE"
	CodeNoCurrentBlock    = "NO_CURRENT_BLOCK"
	CodePlayerNotFound    = "PLAYER_NOT_FOUND"
	CodeBlockNotFound     = "BLOCK_NOT_FOUND"
	CodeSpellNotFound     = "SPELL_NOT_FOUND"
	CodeInsufficientScore = "INSUFFICIENT_SCORE"
	CodeInvalidTarget     = "INVALID_TARGET"
	CodePhysicsFailure    = "PHYSICS_FAILURE"
	CodeProtocolError     = "PROTOCOL_ERROR"
	CodeInternalError     = "INTERNAL_ERROR"
)

// WireError converts an error into the payload of an Error message.
// The message keeps the underlying error text; the code gives clients
// something stable to switch on.
func WireError(err error) ErrorData {
	return ErrorData{Error: err.Error(), Code: codeFor(err)}
}

func codeFor(err error) string {
	switch {
	case errors.Is(err, model.ErrSessionNotFound):
		return CodeSessionNotFound
	case errors.Is(err, model.ErrServerFull):
		return CodeServerFull
	case errors.Is(err, model.ErrMissingSession):
		return CodeMissingSession
	case errors.Is(err, model.ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, model.ErrGameNotFound):
		return CodeGameNotFound
	case errors.Is(err, model.ErrGameFull):
		return CodeGameFull
	case errors.Is(err, model.ErrInvalidState):
		return CodeInvalidState
	case errors.Is(err, model.ErrNoCurrentBlock):
		return CodeNoCurrentBlock
	case errors.Is(err, model.ErrPlayerNotFound):
		return CodePlayerNotFound
	case errors.Is(err, model.ErrBlockNotFound):
		return CodeBlockNotFound
	case errors.Is(err, model.ErrSpellNotFound):
		return CodeSpellNotFound
	case errors.Is(err, model.ErrInsufficientScore):
		return CodeInsufficientScore
	case errors.Is(err, model.ErrInvalidTarget):
		return CodeInvalidTarget
	case errors.Is(err, model.ErrPhysics):
		return CodePhysicsFailure
	case errors.Is(err, model.ErrProtocol):
		return CodeProtocolError
	default:
		return CodeInternalError
	}
}
