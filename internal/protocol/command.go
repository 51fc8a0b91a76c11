package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/topplegame/topple/internal/model"
)

// Command is the closed set of decoded client requests. Every message
// type a client may send decodes to exactly one of these.
type Command interface {
	isCommand()
}

// AuthCommand requests a session for a named user
type AuthCommand struct {
	UserName   string
	Role       model.UserRole
	AdminToken string
}

// CreateGameCommand allocates a new game
type CreateGameCommand struct {
	GameName   string
	GameType   model.GameType
	Difficulty model.Difficulty
}

// JoinGameCommand binds the session to a game
type JoinGameCommand struct {
	GameID model.GameID
}

// LeaveGameCommand unbinds the session from its game
type LeaveGameCommand struct{}

// StartGameCommand starts the session's game
type StartGameCommand struct{}

// PauseGameCommand pauses the session's game
type PauseGameCommand struct{}

// ResumeGameCommand resumes the session's game
type ResumeGameCommand struct{}

// FinishGameCommand finishes the session's game, optionally naming a winner
type FinishGameCommand struct {
	WinnerID model.PlayerID
}

// SpawnBlockCommand drops a new tetromino for the session's player
type SpawnBlockCommand struct{}

// MoveBlockCommand nudges the player's current block
type MoveBlockCommand struct {
	Direction model.Vec2
}

// RotateBlockCommand turns the player's current block
type RotateBlockCommand struct {
	AngleDelta float64
}

// CastSpellCommand casts a spell, optionally at a target player
type CastSpellCommand struct {
	SpellID  string
	TargetID model.PlayerID
}

// ChatCommand relays a chat line to the session's game
type ChatCommand struct {
	Message string
}

// PingCommand checks liveness. Valid without a session.
type PingCommand struct{}

func (AuthCommand) isCommand()        {}
func (CreateGameCommand) isCommand()  {}
func (JoinGameCommand) isCommand()    {}
func (LeaveGameCommand) isCommand()   {}
func (StartGameCommand) isCommand()   {}
func (PauseGameCommand) isCommand()   {}
func (ResumeGameCommand) isCommand()  {}
func (FinishGameCommand) isCommand()  {}
func (SpawnBlockCommand) isCommand()  {}
func (MoveBlockCommand) isCommand()   {}
func (RotateBlockCommand) isCommand() {}
func (CastSpellCommand) isCommand()   {}
func (ChatCommand) isCommand()        {}
func (PingCommand) isCommand()        {}

// Decode parses a raw frame into its envelope and validated command.
// All failures wrap model.ErrProtocol; the caller decides whether to
// answer with an Error message or drop the frame.
func Decode(raw []byte) (Envelope, Command, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, nil, fmt.Errorf("%w: %v", model.ErrProtocol, err)
	}
	cmd, err := decodeCommand(env)
	if err != nil {
		return env, nil, err
	}
	return env, cmd, nil
}

func decodeCommand(env Envelope) (Command, error) {
	switch env.MessageType {
	case MessageTypeAuth:
		var d struct {
			UserName   string `json:"user_name"`
			Role       string `json:"role"`
			AdminToken string `json:"admin_token"`
		}
		if err := unmarshalData(env, &d); err != nil {
			return nil, err
		}
		if d.UserName == "" {
			return nil, missingField(env.MessageType, "user_name")
		}
		role, ok := model.ParseUserRole(d.Role)
		if !ok {
			return nil, badField(env.MessageType, "role", d.Role)
		}
		return AuthCommand{UserName: d.UserName, Role: role, AdminToken: d.AdminToken}, nil

	case MessageTypeCreateGame:
		var d struct {
			GameName   string `json:"game_name"`
			GameType   string `json:"game_type"`
			Difficulty string `json:"difficulty"`
		}
		if err := unmarshalData(env, &d); err != nil {
			return nil, err
		}
		if d.GameName == "" {
			return nil, missingField(env.MessageType, "game_name")
		}
		gameType, ok := model.ParseGameType(d.GameType)
		if !ok {
			return nil, badField(env.MessageType, "game_type", d.GameType)
		}
		difficulty, ok := model.ParseDifficulty(d.Difficulty)
		if !ok {
			return nil, badField(env.MessageType, "difficulty", d.Difficulty)
		}
		return CreateGameCommand{GameName: d.GameName, GameType: gameType, Difficulty: difficulty}, nil

	case MessageTypeJoinGame:
		var d struct {
			GameID string `json:"game_id"`
		}
		if err := unmarshalData(env, &d); err != nil {
			return nil, err
		}
		if d.GameID == "" {
			return nil, missingField(env.MessageType, "game_id")
		}
		return JoinGameCommand{GameID: model.GameID(d.GameID)}, nil

	case MessageTypeLeaveGame:
		return LeaveGameCommand{}, nil

	case MessageTypeStartGame:
		return StartGameCommand{}, nil

	case MessageTypePauseGame:
		return PauseGameCommand{}, nil

	case MessageTypeResumeGame:
		return ResumeGameCommand{}, nil

	case MessageTypeFinishGame:
		var d struct {
			WinnerID string `json:"winner_id"`
		}
		if err := unmarshalData(env, &d); err != nil {
			return nil, err
		}
		return FinishGameCommand{WinnerID: model.PlayerID(d.WinnerID)}, nil

	case MessageTypeSpawnBlock:
		return SpawnBlockCommand{}, nil

	case MessageTypeMoveBlock:
		var d struct {
			DirectionX *float64 `json:"direction_x"`
			DirectionY *float64 `json:"direction_y"`
		}
		if err := unmarshalData(env, &d); err != nil {
			return nil, err
		}
		if d.DirectionX == nil {
			return nil, missingField(env.MessageType, "direction_x")
		}
		if d.DirectionY == nil {
			return nil, missingField(env.MessageType, "direction_y")
		}
		return MoveBlockCommand{Direction: model.Vec2{X: *d.DirectionX, Y: *d.DirectionY}}, nil

	case MessageTypeRotateBlock:
		var d struct {
			AngleDelta *float64 `json:"angle_delta"`
		}
		if err := unmarshalData(env, &d); err != nil {
			return nil, err
		}
		if d.AngleDelta == nil {
			return nil, missingField(env.MessageType, "angle_delta")
		}
		return RotateBlockCommand{AngleDelta: *d.AngleDelta}, nil

	case MessageTypeCastSpell:
		var d struct {
			SpellID  string `json:"spell_id"`
			TargetID string `json:"target_id"`
		}
		if err := unmarshalData(env, &d); err != nil {
			return nil, err
		}
		if d.SpellID == "" {
			return nil, missingField(env.MessageType, "spell_id")
		}
		return CastSpellCommand{SpellID: d.SpellID, TargetID: model.PlayerID(d.TargetID)}, nil

	case MessageTypeChat:
		var d struct {
			Message string `json:"message"`
		}
		if err := unmarshalData(env, &d); err != nil {
			return nil, err
		}
		if d.Message == "" {
			return nil, missingField(env.MessageType, "message")
		}
		return ChatCommand{Message: d.Message}, nil

	case MessageTypePing:
		return PingCommand{}, nil

	default:
		return nil, fmt.Errorf("%w: unknown message type %q", model.ErrProtocol, env.MessageType)
	}
}

func unmarshalData(env Envelope, out any) error {
	if len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: bad %s data: %v", model.ErrProtocol, env.MessageType, err)
	}
	return nil
}

func missingField(t MessageType, field string) error {
	return fmt.Errorf("%w: %s requires %s", model.ErrProtocol, t, field)
}

func badField(t MessageType, field, value string) error {
	return fmt.Errorf("%w: %s has invalid %s %q", model.ErrProtocol, t, field, value)
}
