package model

import (
	"sort"
	"time"
)

// GameID uniquely identifies a game
type GameID string

// GameType selects the win-condition rules for a game
type GameType string

const (
	GameTypeRace     GameType = "race"     // First tower to reach the field height wins
	GameTypeSurvival GameType = "survival" // Last tower standing wins
	GameTypePuzzle   GameType = "puzzle"   // Free build, no win evaluation
)

// ParseGameType converts a wire string to a GameType
func ParseGameType(s string) (GameType, bool) {
	switch GameType(s) {
	case GameTypeRace, GameTypeSurvival, GameTypePuzzle:
		return GameType(s), true
	default:
		return "", false
	}
}

// GameState represents the current phase of a game's state machine
type GameState string

const (
	GameStateWaiting  GameState = "waiting"  // Accepting players, not yet started
	GameStateRunning  GameState = "running"  // Tick loop advancing the game
	GameStatePaused   GameState = "paused"   // Started but temporarily halted
	GameStateFinished GameState = "finished" // Terminal
)

// Difficulty tunes spawn cadence and physics material client-side
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyExpert Difficulty = "expert"
)

// ParseDifficulty converts a wire string to a Difficulty
func ParseDifficulty(s string) (Difficulty, bool) {
	switch Difficulty(s) {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyExpert:
		return Difficulty(s), true
	default:
		return "", false
	}
}

// Game is one match instance. The game manager is the only writer; all
// mutation happens under the game table's per-entry lock.
type Game struct {
	ID         GameID
	Name       string
	Type       GameType
	State      GameState
	Difficulty Difficulty

	Players    map[PlayerID]*Player
	MaxPlayers int

	// Field dimensions in block units
	FieldWidth  float64
	FieldHeight float64

	// Physics bookkeeping
	FloorBlockIDs  []BlockID
	CurrentBlockID BlockID       // 0 when no piece is falling
	NextBlockKind  TetrominoKind // empty when nothing is queued

	// Survival mode only wins once the game has ever held two or more
	// players, even if some have since left
	HadRivals bool

	WinnerID PlayerID // empty until a winner is decided

	CreatedAt  time.Time
	StartedAt  *time.Time
	FinishedAt *time.Time
	UpdatedAt  time.Time
}

// IsFull reports whether the roster has reached MaxPlayers
func (g *Game) IsFull() bool {
	return len(g.Players) >= g.MaxPlayers
}

// Player returns the roster entry for the given id, or nil
func (g *Game) Player(id PlayerID) *Player {
	return g.Players[id]
}

// SortedPlayerIDs returns the roster ids in lexicographic order.
// Win-condition evaluation iterates this so tie-breaks are deterministic.
func (g *Game) SortedPlayerIDs() []PlayerID {
	ids := make([]PlayerID, 0, len(g.Players))
	for id := range g.Players {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Clone returns a deep copy of the game. Managers hand out clones so
// callers never observe in-place mutation.
func (g *Game) Clone() *Game {
	cp := *g
	cp.Players = make(map[PlayerID]*Player, len(g.Players))
	for id, p := range g.Players {
		cp.Players[id] = p.Clone()
	}
	cp.FloorBlockIDs = append([]BlockID(nil), g.FloorBlockIDs...)
	if g.StartedAt != nil {
		t := *g.StartedAt
		cp.StartedAt = &t
	}
	if g.FinishedAt != nil {
		t := *g.FinishedAt
		cp.FinishedAt = &t
	}
	return &cp
}

// AllBlockIDs returns the floor blocks, every player-owned block, and the
// current block, deduplicated. Used for whole-game cleanup.
func (g *Game) AllBlockIDs() []BlockID {
	seen := make(map[BlockID]bool)
	var ids []BlockID
	add := func(id BlockID) {
		if id != 0 && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, id := range g.FloorBlockIDs {
		add(id)
	}
	for _, pid := range g.SortedPlayerIDs() {
		for _, id := range g.Players[pid].OwnedBlockIDs {
			add(id)
		}
	}
	add(g.CurrentBlockID)
	return ids
}
