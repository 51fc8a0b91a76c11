package model

import "time"

// PlayerID identifies a participant within a game.
// It is always equal to the joining user's UserID, so removing a player
// after a session ends never needs a separate lookup table.
type PlayerID = UserID

// Player is a per-game participant and its tower bookkeeping
type Player struct {
	ID              PlayerID
	Name            string
	Score           int
	TowerHeight     float64
	BlocksPlaced    int
	BlocksDestroyed int
	AvailableSpells []Spell
	ActiveSpells    []ActiveSpell
	OwnedBlockIDs   []BlockID
	JoinedAt        time.Time
}

// HasBlock reports whether the player owns the given physics block
func (p *Player) HasBlock(id BlockID) bool {
	for _, b := range p.OwnedBlockIDs {
		if b == id {
			return true
		}
	}
	return false
}

// FindAvailableSpell returns the index of the named spell in the
// available list, or -1 if the player does not hold it
func (p *Player) FindAvailableSpell(spellID string) int {
	for i := range p.AvailableSpells {
		if p.AvailableSpells[i].ID == spellID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the player
func (p *Player) Clone() *Player {
	cp := *p
	cp.AvailableSpells = append([]Spell(nil), p.AvailableSpells...)
	cp.ActiveSpells = append([]ActiveSpell(nil), p.ActiveSpells...)
	cp.OwnedBlockIDs = append([]BlockID(nil), p.OwnedBlockIDs...)
	return &cp
}
