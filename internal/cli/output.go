package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/topplegame/topple/internal/api/response"
	"github.com/topplegame/topple/internal/model"
	"github.com/topplegame/topple/internal/protocol"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

// PrintEvent renders one server envelope for the watch stream
func (o *Output) PrintEvent(env protocol.Envelope) {
	if o.format == "json" {
		data, _ := json.Marshal(env)
		fmt.Println(string(data))
		return
	}
	o.printEventText(env)
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.Health:
		o.printHealth(v)
	case response.Diagnostics:
		o.printDiagnostics(v)
	case GameCreateResult:
		o.printGameCreate(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// GameCreateResult is what the create command reports
type GameCreateResult struct {
	GameID     model.GameID    `json:"game_id"`
	Name       string          `json:"name"`
	GameType   string          `json:"game_type"`
	Difficulty string          `json:"difficulty"`
	SessionID  model.SessionID `json:"session_id"`
}

func (o *Output) printHealth(h response.Health) {
	fmt.Printf("Status: %s\n", h.Status)
	fmt.Printf("Version: %s\n", h.Version)
}

func (o *Output) printDiagnostics(d response.Diagnostics) {
	fmt.Printf("Status: %s\n", d.Status)
	fmt.Printf("Version: %s\n", d.Version)
	fmt.Printf("Uptime: %s\n", time.Duration(d.UptimeSeconds)*time.Second)
	fmt.Printf("Sessions: %d\n", d.Sessions)
	fmt.Printf("Games: %d\n", d.Games)
	fmt.Printf("Connections: %d\n", d.Connections)
	fmt.Printf("Goroutines: %d\n", d.Goroutines)
}

func (o *Output) printGameCreate(g GameCreateResult) {
	fmt.Printf("Game: %s\n", g.GameID)
	fmt.Printf("Name: %s\n", g.Name)
	fmt.Printf("Type: %s\n", g.GameType)
	fmt.Printf("Difficulty: %s\n", g.Difficulty)
	fmt.Printf("Session: %s\n", g.SessionID)
}

func (o *Output) printEventText(env protocol.Envelope) {
	stamp := time.Unix(env.Timestamp, 0).Format("15:04:05")

	switch env.MessageType {
	case protocol.MessageTypeGameState:
		var data protocol.GameStateData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			break
		}
		o.printGameStateEvent(stamp, data.Game)
		return
	case protocol.MessageTypePlayerJoined:
		var data protocol.PlayerJoinedData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			break
		}
		fmt.Printf("%s  player joined: %s (%s)\n", stamp, data.PlayerName, data.PlayerID)
		return
	case protocol.MessageTypePlayerLeft:
		var data protocol.PlayerLeftData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			break
		}
		fmt.Printf("%s  player left: %s\n", stamp, data.PlayerID)
		return
	case protocol.MessageTypeSpellUsed:
		var data protocol.SpellUsedData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			break
		}
		if data.TargetID != "" {
			fmt.Printf("%s  spell: %s by %s on %s\n", stamp, data.SpellType, data.CasterID, data.TargetID)
		} else {
			fmt.Printf("%s  spell: %s by %s\n", stamp, data.SpellType, data.CasterID)
		}
		return
	case protocol.MessageTypeChatMessage:
		var data protocol.ChatMessageData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			break
		}
		fmt.Printf("%s  chat %s: %s\n", stamp, data.PlayerID, data.Message)
		return
	}

	fmt.Printf("%s  %s: %s\n", stamp, env.MessageType, string(env.Data))
}

func (o *Output) printGameStateEvent(stamp string, game protocol.GameSnapshot) {
	fmt.Printf("%s  game %s [%s]", stamp, game.ID, game.State)

	ids := make([]model.PlayerID, 0, len(game.Players))
	for id := range game.Players {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		p := game.Players[id]
		fmt.Printf("  %s: height %.1f score %d", p.Name, p.TowerHeight, p.Score)
	}
	if game.WinnerID != nil {
		fmt.Printf("  winner: %s", *game.WinnerID)
	}
	fmt.Println()
}
