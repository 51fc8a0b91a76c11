package model

import "time"

// SpellKind separates self-beneficial spells from hostile ones
type SpellKind string

const (
	SpellLight SpellKind = "light"
	SpellDark  SpellKind = "dark"
)

// Spell is an immutable catalog entry. Casting one consumes it from the
// player's available list and activates a timed instance.
type Spell struct {
	ID          string
	Name        string
	Kind        SpellKind
	Description string
	Duration    time.Duration
	Cost        int
}

// RequiresTarget reports whether the spell acts on another player.
// Dark spells hinder an opponent; light spells apply to the caster.
func (sp Spell) RequiresTarget() bool {
	return sp.Kind == SpellDark
}

// ActiveSpell is a cast spell counting down to expiry
type ActiveSpell struct {
	Spell     Spell
	ExpiresAt time.Time
}

// Spell catalog. IDs are stable wire identifiers; durations and costs
// balance light utility against dark disruption.
var (
	SpellReinforce  = Spell{ID: "reinforce", Name: "Reinforce", Kind: SpellLight, Description: "Hardens your most recent blocks against knocks", Duration: 10 * time.Second, Cost: 30}
	SpellStabilize  = Spell{ID: "stabilize", Name: "Stabilize", Kind: SpellLight, Description: "Damps wobble across your whole tower", Duration: 8 * time.Second, Cost: 25}
	SpellEnlarge    = Spell{ID: "enlarge", Name: "Enlarge", Kind: SpellLight, Description: "Grows your next block", Duration: 6 * time.Second, Cost: 20}
	SpellShrink     = Spell{ID: "shrink", Name: "Shrink", Kind: SpellLight, Description: "Shrinks your next block for precise placement", Duration: 6 * time.Second, Cost: 20}
	SpellLevitate   = Spell{ID: "levitate", Name: "Levitate", Kind: SpellLight, Description: "Slows your current block's fall", Duration: 5 * time.Second, Cost: 15}
	SpellEarthquake = Spell{ID: "earthquake", Name: "Earthquake", Kind: SpellDark, Description: "Shakes the target's tower at its base", Duration: 3 * time.Second, Cost: 50}
	SpellWind       = Spell{ID: "wind", Name: "Wind", Kind: SpellDark, Description: "Blows a gust across the target's field", Duration: 4 * time.Second, Cost: 35}
	SpellSlippery   = Spell{ID: "slippery", Name: "Slippery", Kind: SpellDark, Description: "Makes the target's blocks lose grip", Duration: 8 * time.Second, Cost: 30}
	SpellConfusion  = Spell{ID: "confusion", Name: "Confusion", Kind: SpellDark, Description: "Reverses the target's movement controls", Duration: 6 * time.Second, Cost: 40}
	SpellAccelerate = Spell{ID: "accelerate", Name: "Accelerate", Kind: SpellDark, Description: "Speeds up the target's falling block", Duration: 5 * time.Second, Cost: 25}
)

// SpellCatalog lists every castable spell
var SpellCatalog = []Spell{
	SpellReinforce,
	SpellStabilize,
	SpellEnlarge,
	SpellShrink,
	SpellLevitate,
	SpellEarthquake,
	SpellWind,
	SpellSlippery,
	SpellConfusion,
	SpellAccelerate,
}

// SpellByID looks up a catalog spell by its wire identifier
func SpellByID(id string) (Spell, bool) {
	for _, sp := range SpellCatalog {
		if sp.ID == id {
			return sp, true
		}
	}
	return Spell{}, false
}

// DefaultLoadout returns the spells granted to a player on joining a
// game: one of each catalog entry
func DefaultLoadout() []Spell {
	loadout := make([]Spell, len(SpellCatalog))
	copy(loadout, SpellCatalog)
	return loadout
}
