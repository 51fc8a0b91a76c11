package protocol

import (
	"time"

	"github.com/topplegame/topple/internal/model"
)

// GameSnapshot is the wire form of a game, broadcast in GameState
// messages. Nullable fields serialize as JSON null so clients can
// distinguish "absent" from zero values.
type GameSnapshot struct {
	ID            model.GameID                      `json:"id"`
	Name          string                            `json:"name"`
	GameType      model.GameType                    `json:"game_type"`
	State         model.GameState                   `json:"state"`
	Difficulty    model.Difficulty                  `json:"difficulty"`
	Players       map[model.PlayerID]PlayerSnapshot `json:"players"`
	MaxPlayers    int                               `json:"max_players"`
	FieldWidth    float64                           `json:"field_width"`
	FieldHeight   float64                           `json:"field_height"`
	FloorBlockIDs []model.BlockID                   `json:"floor_block_ids"`
	CurrentBlock  *model.BlockID                    `json:"current_block_id"`
	NextBlockType *model.TetrominoKind              `json:"next_block_type"`
	WinnerID      *model.PlayerID                   `json:"winner_id"`
	CreatedAt     time.Time                         `json:"created_at"`
	StartedAt     *time.Time                        `json:"started_at"`
	FinishedAt    *time.Time                        `json:"finished_at"`
}

// PlayerSnapshot is the wire form of a roster entry
type PlayerSnapshot struct {
	ID              model.PlayerID        `json:"id"`
	Name            string                `json:"name"`
	Score           int                   `json:"score"`
	TowerHeight     float64               `json:"tower_height"`
	BlocksPlaced    int                   `json:"blocks_placed"`
	BlocksDestroyed int                   `json:"blocks_destroyed"`
	AvailableSpells []SpellSnapshot       `json:"available_spells"`
	ActiveSpells    []ActiveSpellSnapshot `json:"active_spells"`
	BlockIDs        []model.BlockID       `json:"block_ids"`
	JoinedAt        time.Time             `json:"joined_at"`
}

// SpellSnapshot is the wire form of a spell. Duration is in seconds.
type SpellSnapshot struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	SpellType   model.SpellKind `json:"spell_type"`
	Description string          `json:"description"`
	Duration    float64         `json:"duration"`
	Cost        int             `json:"cost"`
}

// ActiveSpellSnapshot is a spell currently in effect
type ActiveSpellSnapshot struct {
	Spell     SpellSnapshot `json:"spell"`
	ExpiresAt time.Time     `json:"expires_at"`
}

// FromGame converts a game into its wire form
func FromGame(g *model.Game) GameSnapshot {
	snap := GameSnapshot{
		ID:            g.ID,
		Name:          g.Name,
		GameType:      g.Type,
		State:         g.State,
		Difficulty:    g.Difficulty,
		Players:       make(map[model.PlayerID]PlayerSnapshot, len(g.Players)),
		MaxPlayers:    g.MaxPlayers,
		FieldWidth:    g.FieldWidth,
		FieldHeight:   g.FieldHeight,
		FloorBlockIDs: append([]model.BlockID{}, g.FloorBlockIDs...),
		CreatedAt:     g.CreatedAt,
		StartedAt:     g.StartedAt,
		FinishedAt:    g.FinishedAt,
	}
	for id, p := range g.Players {
		snap.Players[id] = playerSnapshot(p)
	}
	if g.CurrentBlockID != 0 {
		id := g.CurrentBlockID
		snap.CurrentBlock = &id
	}
	if g.NextBlockKind != "" {
		kind := g.NextBlockKind
		snap.NextBlockType = &kind
	}
	if g.WinnerID != "" {
		winner := g.WinnerID
		snap.WinnerID = &winner
	}
	return snap
}

func playerSnapshot(p *model.Player) PlayerSnapshot {
	snap := PlayerSnapshot{
		ID:              p.ID,
		Name:            p.Name,
		Score:           p.Score,
		TowerHeight:     p.TowerHeight,
		BlocksPlaced:    p.BlocksPlaced,
		BlocksDestroyed: p.BlocksDestroyed,
		AvailableSpells: make([]SpellSnapshot, 0, len(p.AvailableSpells)),
		ActiveSpells:    make([]ActiveSpellSnapshot, 0, len(p.ActiveSpells)),
		BlockIDs:        append([]model.BlockID{}, p.OwnedBlockIDs...),
		JoinedAt:        p.JoinedAt,
	}
	for _, sp := range p.AvailableSpells {
		snap.AvailableSpells = append(snap.AvailableSpells, spellSnapshot(sp))
	}
	for _, as := range p.ActiveSpells {
		snap.ActiveSpells = append(snap.ActiveSpells, ActiveSpellSnapshot{
			Spell:     spellSnapshot(as.Spell),
			ExpiresAt: as.ExpiresAt,
		})
	}
	return snap
}

func spellSnapshot(sp model.Spell) SpellSnapshot {
	return SpellSnapshot{
		ID:          sp.ID,
		Name:        sp.Name,
		SpellType:   sp.Kind,
		Description: sp.Description,
		Duration:    sp.Duration.Seconds(),
		Cost:        sp.Cost,
	}
}
