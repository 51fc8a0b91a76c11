package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/topplegame/topple/internal/model"
)

// MessageType identifies a wire message. Values match the envelope's
// message_type field.
type MessageType string

// Client-originated message types. Each is echoed back as the type of
// its acknowledgement.
const (
	MessageTypeAuth        MessageType = "Auth"
	MessageTypeCreateGame  MessageType = "CreateGame"
	MessageTypeJoinGame    MessageType = "JoinGame"
	MessageTypeLeaveGame   MessageType = "LeaveGame"
	MessageTypeStartGame   MessageType = "StartGame"
	MessageTypePauseGame   MessageType = "PauseGame"
	MessageTypeResumeGame  MessageType = "ResumeGame"
	MessageTypeFinishGame  MessageType = "FinishGame"
	MessageTypeSpawnBlock  MessageType = "SpawnBlock"
	MessageTypeMoveBlock   MessageType = "MoveBlock"
	MessageTypeRotateBlock MessageType = "RotateBlock"
	MessageTypeCastSpell   MessageType = "CastSpell"
	MessageTypeChat        MessageType = "Chat"
	MessageTypePing        MessageType = "Ping"
)

// Server-originated message types
const (
	MessageTypeGameState    MessageType = "GameState"
	MessageTypePlayerJoined MessageType = "PlayerJoined"
	MessageTypePlayerLeft   MessageType = "PlayerLeft"
	MessageTypeSpellUsed    MessageType = "SpellUsed"
	MessageTypeChatMessage  MessageType = "ChatMessage"
	MessageTypeError        MessageType = "Error"
	MessageTypePong         MessageType = "Pong"
)

// Envelope is the wire frame every message travels in. SessionID is
// null until the connection has authenticated.
type Envelope struct {
	MessageType MessageType      `json:"message_type"`
	MessageID   string           `json:"message_id"`
	SessionID   *model.SessionID `json:"session_id"`
	Data        json.RawMessage  `json:"data"`
	Timestamp   int64            `json:"timestamp"`
}

// Session returns the bound session id, or empty if none
func (e Envelope) Session() model.SessionID {
	if e.SessionID == nil {
		return ""
	}
	return *e.SessionID
}

// NewEnvelope builds an outbound envelope around data. An empty
// sessionID serializes as null.
func NewEnvelope(t MessageType, messageID string, sessionID model.SessionID, ts time.Time, data any) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s data: %w", t, err)
	}

	env := Envelope{
		MessageType: t,
		MessageID:   messageID,
		Data:        raw,
		Timestamp:   ts.Unix(),
	}
	if sessionID != "" {
		env.SessionID = &sessionID
	}
	return env, nil
}

// Marshal serializes the envelope for the wire
func (e Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// WelcomeData greets a freshly opened connection
type WelcomeData struct {
	Message      string `json:"message"`
	ConnectionID string `json:"connection_id"`
}

// AckData acknowledges an operation with no result payload
type AckData struct {
	Success bool `json:"success"`
}

// AuthAckData acknowledges authentication
type AuthAckData struct {
	Success   bool            `json:"success"`
	SessionID model.SessionID `json:"session_id"`
	UserID    model.UserID    `json:"user_id"`
}

// GameCreatedData acknowledges game creation
type GameCreatedData struct {
	Success bool         `json:"success"`
	GameID  model.GameID `json:"game_id"`
}

// GameJoinedData acknowledges joining a game
type GameJoinedData struct {
	Success bool         `json:"success"`
	GameID  model.GameID `json:"game_id"`
}

// BlockSpawnedData acknowledges a spawn with the primary block id
type BlockSpawnedData struct {
	Success bool          `json:"success"`
	BlockID model.BlockID `json:"block_id"`
}

// GameStateData carries a full game snapshot broadcast
type GameStateData struct {
	Game GameSnapshot `json:"game"`
}

// PlayerJoinedData notifies a game's members of a new player
type PlayerJoinedData struct {
	PlayerID   model.PlayerID `json:"player_id"`
	PlayerName string         `json:"player_name"`
}

// PlayerLeftData notifies a game's members of a departure
type PlayerLeftData struct {
	PlayerID model.PlayerID `json:"player_id"`
}

// SpellUsedData notifies a game's members of a cast
type SpellUsedData struct {
	SpellID   string          `json:"spell_id"`
	SpellType model.SpellKind `json:"spell_type"`
	CasterID  model.PlayerID  `json:"caster_id"`
	TargetID  model.PlayerID  `json:"target_id,omitempty"`
}

// ChatMessageData relays a chat line to a game's members
type ChatMessageData struct {
	PlayerID model.PlayerID `json:"player_id"`
	Message  string         `json:"message"`
}

// PongData answers a ping
type PongData struct{}
