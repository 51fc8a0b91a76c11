package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"time"

	"github.com/topplegame/topple/internal/config"
	"github.com/topplegame/topple/internal/dependencies/clock"
	"github.com/topplegame/topple/internal/dependencies/random"
	"github.com/topplegame/topple/internal/metrics"
	"github.com/topplegame/topple/internal/model"
	"github.com/topplegame/topple/internal/physics"
	"github.com/topplegame/topple/internal/storage"
)

// Dark spell effect tuning
const (
	earthquakeRadius = 5.0
	earthquakeForce  = 50.0
	windStrength     = 30.0
)

const eventBuffer = 64

// Event is emitted when the tick loop finishes a game, so connected
// clients hear about it without having asked.
type Event struct {
	GameID model.GameID
	Game   *model.Game // clone taken after the change
}

// Manager owns the game table and the game state machine. All mutation
// of a game happens under its table entry's lock, including the physics
// calls the mutation depends on, so concurrent operations on one game
// are serialized while other games proceed.
type Manager struct {
	cfg      config.Game
	boundary physics.Boundary
	games    *storage.Table[model.GameID, *model.Game]
	clock    clock.Clock
	random   random.Random
	metrics  *metrics.Metrics
	logger   *slog.Logger
	events   chan Event
}

// NewManager creates a game manager on top of the given physics boundary
func NewManager(
	cfg config.Game,
	boundary physics.Boundary,
	clock clock.Clock,
	random random.Random,
	metrics *metrics.Metrics,
	logger *slog.Logger,
) *Manager {
	return &Manager{
		cfg:      cfg,
		boundary: boundary,
		games:    storage.NewTable[model.GameID, *model.Game](model.ErrGameNotFound),
		clock:    clock,
		random:   random,
		metrics:  metrics,
		logger:   logger,
		events:   make(chan Event, eventBuffer),
	}
}

// CreateGame allocates a new game in the waiting state. The floor is
// materialized in the physics engine before the game becomes visible;
// if that fails the game is never created.
func (m *Manager) CreateGame(ctx context.Context, name string, gameType model.GameType, difficulty model.Difficulty) (*model.Game, error) {
	now := m.clock.Now()
	gameID := model.GameID(m.random.UUID())

	floorID, err := m.boundary.CreateBlock(
		model.Vec2{X: 0, Y: -10},
		model.Vec2{X: m.cfg.FieldWidth * 1.5, Y: 1},
		0,
		physics.DefaultMaterial(),
		true,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: create floor: %v", model.ErrPhysics, err)
	}

	game := &model.Game{
		ID:            gameID,
		Name:          name,
		Type:          gameType,
		State:         model.GameStateWaiting,
		Difficulty:    difficulty,
		Players:       make(map[model.PlayerID]*model.Player),
		MaxPlayers:    m.cfg.MaxPlayers,
		FieldWidth:    m.cfg.FieldWidth,
		FieldHeight:   m.cfg.FieldHeight,
		FloorBlockIDs: []model.BlockID{floorID},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if !m.games.Insert(gameID, game) {
		m.boundary.RemoveBlock(floorID)
		return nil, fmt.Errorf("game id collision: %s", gameID)
	}

	m.metrics.GamesOpened.Inc()
	m.metrics.ActiveGames.Inc()
	m.logger.Info("game created",
		slog.String("game_id", string(gameID)),
		slog.String("game_type", string(gameType)),
		slog.String("difficulty", string(difficulty)),
	)

	return game.Clone(), nil
}

// GetGame returns a copy of the game with the given id
func (m *Manager) GetGame(ctx context.Context, gameID model.GameID) (*model.Game, error) {
	var snapshot *model.Game
	err := m.games.Do(gameID, func(g *model.Game) error {
		snapshot = g.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// ListGames returns copies of all games, oldest first
func (m *Manager) ListGames(ctx context.Context) []*model.Game {
	games := make([]*model.Game, 0, m.games.Len())
	for _, id := range m.games.Keys() {
		var snapshot *model.Game
		if err := m.games.Do(id, func(g *model.Game) error {
			snapshot = g.Clone()
			return nil
		}); err != nil {
			continue
		}
		games = append(games, snapshot)
	}
	sort.Slice(games, func(i, j int) bool {
		if games[i].CreatedAt.Equal(games[j].CreatedAt) {
			return games[i].ID < games[j].ID
		}
		return games[i].CreatedAt.Before(games[j].CreatedAt)
	})
	return games
}

// Count returns the number of live games
func (m *Manager) Count() int {
	return m.games.Len()
}

// DeleteGame removes a game and releases all of its physics blocks.
// Exactly one caller wins the removal; block cleanup is best-effort.
func (m *Manager) DeleteGame(ctx context.Context, gameID model.GameID) error {
	game, ok := m.games.Remove(gameID)
	if !ok {
		return model.ErrGameNotFound
	}

	released := 0
	for _, blockID := range game.AllBlockIDs() {
		if m.boundary.RemoveBlock(blockID) {
			released++
		} else {
			m.logger.Warn("block release failed",
				slog.String("game_id", string(gameID)),
				slog.Uint64("block_id", uint64(blockID)),
			)
		}
	}

	m.metrics.ActiveGames.Dec()
	m.logger.Info("game deleted",
		slog.String("game_id", string(gameID)),
		slog.Int("blocks_released", released),
	)
	return nil
}

// AddPlayer adds a player to a waiting game. Adding a player who is
// already in the game is a no-op. A full roster is never mutated.
func (m *Manager) AddPlayer(ctx context.Context, gameID model.GameID, playerID model.PlayerID, name string) error {
	now := m.clock.Now()
	err := m.games.Do(gameID, func(g *model.Game) error {
		if g.Player(playerID) != nil {
			return nil
		}
		if g.State != model.GameStateWaiting {
			return model.ErrInvalidState
		}
		if g.IsFull() {
			return model.ErrGameFull
		}

		g.Players[playerID] = &model.Player{
			ID:              playerID,
			Name:            name,
			AvailableSpells: model.DefaultLoadout(),
			JoinedAt:        now,
		}
		if len(g.Players) >= 2 {
			g.HadRivals = true
		}
		g.UpdatedAt = now
		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Info("player joined game",
		slog.String("game_id", string(gameID)),
		slog.String("player_id", string(playerID)),
	)
	return nil
}

// RemovePlayer takes a player out of a game and releases their blocks.
// Removing a player who is not in the game is a no-op.
func (m *Manager) RemovePlayer(ctx context.Context, gameID model.GameID, playerID model.PlayerID) error {
	removed := false
	err := m.games.Do(gameID, func(g *model.Game) error {
		player := g.Player(playerID)
		if player == nil {
			return nil
		}

		for _, blockID := range player.OwnedBlockIDs {
			if blockID == g.CurrentBlockID {
				g.CurrentBlockID = 0
			}
			if !m.boundary.RemoveBlock(blockID) {
				m.logger.Warn("block release failed",
					slog.String("game_id", string(gameID)),
					slog.Uint64("block_id", uint64(blockID)),
				)
			}
		}

		delete(g.Players, playerID)
		g.UpdatedAt = m.clock.Now()
		removed = true
		return nil
	})
	if err != nil {
		return err
	}

	if removed {
		m.logger.Info("player left game",
			slog.String("game_id", string(gameID)),
			slog.String("player_id", string(playerID)),
		)
	}
	return nil
}

// StartGame moves a waiting game with at least one player to running
func (m *Manager) StartGame(ctx context.Context, gameID model.GameID) error {
	now := m.clock.Now()
	err := m.games.Do(gameID, func(g *model.Game) error {
		if g.State != model.GameStateWaiting || len(g.Players) == 0 {
			return model.ErrInvalidState
		}
		g.State = model.GameStateRunning
		g.StartedAt = &now
		g.UpdatedAt = now
		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Info("game started", slog.String("game_id", string(gameID)))
	return nil
}

// PauseGame halts a running game
func (m *Manager) PauseGame(ctx context.Context, gameID model.GameID) error {
	err := m.games.Do(gameID, func(g *model.Game) error {
		if g.State != model.GameStateRunning {
			return model.ErrInvalidState
		}
		g.State = model.GameStatePaused
		g.UpdatedAt = m.clock.Now()
		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Info("game paused", slog.String("game_id", string(gameID)))
	return nil
}

// ResumeGame continues a paused game
func (m *Manager) ResumeGame(ctx context.Context, gameID model.GameID) error {
	err := m.games.Do(gameID, func(g *model.Game) error {
		if g.State != model.GameStatePaused {
			return model.ErrInvalidState
		}
		g.State = model.GameStateRunning
		g.UpdatedAt = m.clock.Now()
		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Info("game resumed", slog.String("game_id", string(gameID)))
	return nil
}

// FinishGame ends a game, optionally recording a winner. The winner, if
// given, must be in the roster.
func (m *Manager) FinishGame(ctx context.Context, gameID model.GameID, winnerID model.PlayerID) error {
	now := m.clock.Now()
	return m.games.Do(gameID, func(g *model.Game) error {
		if g.State == model.GameStateFinished {
			return model.ErrInvalidState
		}
		if winnerID != "" && g.Player(winnerID) == nil {
			return model.ErrInvalidTarget
		}
		m.finishLocked(g, winnerID, now)
		return nil
	})
}

// finishLocked moves a game to finished. Callers hold the entry lock.
func (m *Manager) finishLocked(g *model.Game, winnerID model.PlayerID, now time.Time) {
	g.State = model.GameStateFinished
	g.WinnerID = winnerID
	g.FinishedAt = &now
	g.UpdatedAt = now

	m.metrics.GamesWon.WithLabelValues(string(g.Type)).Inc()
	m.logger.Info("game finished",
		slog.String("game_id", string(g.ID)),
		slog.String("winner_id", string(winnerID)),
	)
}

// SpawnTetrisBlock drops a fresh piece for a player in a running game.
// The piece shape comes from the game's queued next block when one is
// set; the next block is re-rolled either way. The returned id is the
// piece's primary block.
func (m *Manager) SpawnTetrisBlock(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (model.BlockID, error) {
	now := m.clock.Now()
	var (
		blockID model.BlockID
		kind    model.TetrominoKind
	)
	err := m.games.Do(gameID, func(g *model.Game) error {
		if g.State != model.GameStateRunning {
			return model.ErrInvalidState
		}
		player := g.Player(playerID)
		if player == nil {
			return model.ErrPlayerNotFound
		}

		kind = g.NextBlockKind
		if kind == "" {
			kind = model.TetrominoKinds[m.random.Intn(len(model.TetrominoKinds))]
		}
		g.NextBlockKind = model.TetrominoKinds[m.random.Intn(len(model.TetrominoKinds))]

		spawnPos := model.Vec2{X: 0, Y: g.FieldHeight - 2}
		ids, err := m.boundary.CreateTetromino(kind, spawnPos, 1, 0, physics.DefaultMaterial())
		if err != nil {
			return fmt.Errorf("%w: spawn %s: %v", model.ErrPhysics, kind, err)
		}
		if len(ids) == 0 {
			return fmt.Errorf("%w: spawn %s produced no blocks", model.ErrPhysics, kind)
		}

		g.CurrentBlockID = ids[0]
		for _, id := range ids {
			player.OwnedBlockIDs = append(player.OwnedBlockIDs, id)
			player.BlocksPlaced++
		}
		g.UpdatedAt = now
		blockID = ids[0]
		return nil
	})
	if err != nil {
		return 0, err
	}

	m.logger.Info("block spawned",
		slog.String("game_id", string(gameID)),
		slog.String("player_id", string(playerID)),
		slog.String("kind", string(kind)),
		slog.Uint64("block_id", uint64(blockID)),
	)
	return blockID, nil
}

// MoveCurrentBlock nudges the game's falling piece by the given delta
func (m *Manager) MoveCurrentBlock(ctx context.Context, gameID model.GameID, direction model.Vec2) error {
	return m.games.Do(gameID, func(g *model.Game) error {
		if g.State != model.GameStateRunning {
			return model.ErrInvalidState
		}
		if g.CurrentBlockID == 0 {
			return model.ErrNoCurrentBlock
		}

		transform, err := m.boundary.GetTransform(g.CurrentBlockID)
		if err != nil {
			return fmt.Errorf("%w: read transform: %v", model.ErrPhysics, err)
		}
		pos := model.Vec2{
			X: transform.Position.X + direction.X,
			Y: transform.Position.Y + direction.Y,
		}
		if err := m.boundary.SetPosition(g.CurrentBlockID, pos); err != nil {
			return fmt.Errorf("%w: move block: %v", model.ErrPhysics, err)
		}
		g.UpdatedAt = m.clock.Now()
		return nil
	})
}

// RotateCurrentBlock turns the game's falling piece by the given angle
func (m *Manager) RotateCurrentBlock(ctx context.Context, gameID model.GameID, angleDelta float64) error {
	return m.games.Do(gameID, func(g *model.Game) error {
		if g.State != model.GameStateRunning {
			return model.ErrInvalidState
		}
		if g.CurrentBlockID == 0 {
			return model.ErrNoCurrentBlock
		}

		transform, err := m.boundary.GetTransform(g.CurrentBlockID)
		if err != nil {
			return fmt.Errorf("%w: read transform: %v", model.ErrPhysics, err)
		}
		if err := m.boundary.SetAngle(g.CurrentBlockID, transform.Angle+angleDelta); err != nil {
			return fmt.Errorf("%w: rotate block: %v", model.ErrPhysics, err)
		}
		g.UpdatedAt = m.clock.Now()
		return nil
	})
}

// CastSpell spends one of the caster's available spells. Validation is
// complete before anything is mutated, so a failed cast leaves the
// caster exactly as it found them. Dark spells require a target other
// than the caster and apply a physics effect against that target.
func (m *Manager) CastSpell(ctx context.Context, gameID model.GameID, casterID model.PlayerID, spellID string, targetID model.PlayerID) error {
	now := m.clock.Now()
	var kind model.SpellKind
	err := m.games.Do(gameID, func(g *model.Game) error {
		if g.State != model.GameStateRunning {
			return model.ErrInvalidState
		}
		caster := g.Player(casterID)
		if caster == nil {
			return model.ErrPlayerNotFound
		}

		spellIdx := -1
		for i, sp := range caster.AvailableSpells {
			if sp.ID == spellID {
				spellIdx = i
				break
			}
		}
		if spellIdx < 0 {
			return model.ErrSpellNotFound
		}
		spell := caster.AvailableSpells[spellIdx]

		if caster.Score < spell.Cost {
			return model.ErrInsufficientScore
		}

		var target *model.Player
		if spell.RequiresTarget() {
			if targetID == "" || targetID == casterID {
				return model.ErrInvalidTarget
			}
			target = g.Player(targetID)
			if target == nil {
				return model.ErrInvalidTarget
			}
		} else if targetID != "" && g.Player(targetID) == nil {
			return model.ErrInvalidTarget
		}

		caster.AvailableSpells = append(caster.AvailableSpells[:spellIdx], caster.AvailableSpells[spellIdx+1:]...)
		caster.Score -= spell.Cost
		caster.ActiveSpells = append(caster.ActiveSpells, model.ActiveSpell{
			Spell:     spell,
			ExpiresAt: now.Add(spell.Duration),
		})
		if target != nil {
			m.applyDarkEffect(g, spell, target)
		}

		kind = spell.Kind
		g.UpdatedAt = now
		return nil
	})
	if err != nil {
		return err
	}

	m.metrics.SpellsCast.WithLabelValues(spellID).Inc()
	m.logger.Info("spell cast",
		slog.String("game_id", string(gameID)),
		slog.String("caster_id", string(casterID)),
		slog.String("spell_id", spellID),
		slog.String("spell_type", string(kind)),
		slog.String("target_id", string(targetID)),
	)
	return nil
}

// applyDarkEffect translates a dark spell into engine forces against
// the target's tower. Effect failures are logged and swallowed; the
// cast itself has already succeeded.
func (m *Manager) applyDarkEffect(g *model.Game, spell model.Spell, target *model.Player) {
	switch spell.ID {
	case model.SpellEarthquake.ID:
		if len(target.OwnedBlockIDs) == 0 {
			return
		}
		newest := target.OwnedBlockIDs[len(target.OwnedBlockIDs)-1]
		transform, err := m.boundary.GetTransform(newest)
		if err != nil {
			m.logger.Warn("earthquake target read failed",
				slog.String("game_id", string(g.ID)),
				slog.String("error", err.Error()),
			)
			return
		}
		if err := m.boundary.ApplyExplosion(transform.Position, earthquakeRadius, earthquakeForce); err != nil {
			m.logger.Warn("earthquake effect failed",
				slog.String("game_id", string(g.ID)),
				slog.String("error", err.Error()),
			)
		}
	case model.SpellWind.ID:
		if err := m.boundary.ApplyWind(model.Vec2{X: 1}, windStrength); err != nil {
			m.logger.Warn("wind effect failed",
				slog.String("game_id", string(g.ID)),
				slog.String("error", err.Error()),
			)
		}
	default:
		// Remaining dark spells act through the client reading the
		// target's active spell list
		m.logger.Debug("spell has no engine effect",
			slog.String("game_id", string(g.ID)),
			slog.String("spell_id", spell.ID),
		)
	}
}

// SetPlayerScore records a player's reported score
func (m *Manager) SetPlayerScore(ctx context.Context, gameID model.GameID, playerID model.PlayerID, score int) error {
	return m.games.Do(gameID, func(g *model.Game) error {
		player := g.Player(playerID)
		if player == nil {
			return model.ErrPlayerNotFound
		}
		player.Score = score
		g.UpdatedAt = m.clock.Now()
		return nil
	})
}

// SetPlayerTowerHeight records a player's reported tower height
func (m *Manager) SetPlayerTowerHeight(ctx context.Context, gameID model.GameID, playerID model.PlayerID, height float64) error {
	return m.games.Do(gameID, func(g *model.Game) error {
		player := g.Player(playerID)
		if player == nil {
			return model.ErrPlayerNotFound
		}
		player.TowerHeight = height
		g.UpdatedAt = m.clock.Now()
		return nil
	})
}

// RemovePlayerBlock releases one placed block and credits the removal
// to the owner's destroyed count. Unlike the bulk release on player
// removal, a physics failure here fails the operation, since removing
// the block is the whole point.
func (m *Manager) RemovePlayerBlock(ctx context.Context, gameID model.GameID, playerID model.PlayerID, blockID model.BlockID) error {
	return m.games.Do(gameID, func(g *model.Game) error {
		player := g.Player(playerID)
		if player == nil {
			return model.ErrPlayerNotFound
		}
		i := slices.Index(player.OwnedBlockIDs, blockID)
		if i < 0 {
			return fmt.Errorf("%w: block %d is not owned by %s", model.ErrBlockNotFound, blockID, playerID)
		}
		if !m.boundary.RemoveBlock(blockID) {
			return fmt.Errorf("%w: remove block %d", model.ErrPhysics, blockID)
		}
		player.OwnedBlockIDs = slices.Delete(player.OwnedBlockIDs, i, i+1)
		player.BlocksDestroyed++
		if g.CurrentBlockID == blockID {
			g.CurrentBlockID = 0
		}
		g.UpdatedAt = m.clock.Now()
		return nil
	})
}

// Tick advances every running game once: expired spells are dropped,
// the falling piece is probed for contacts, and win conditions are
// evaluated. A game finishing emits an Event.
func (m *Manager) Tick(ctx context.Context) {
	now := m.clock.Now()
	for _, gameID := range m.games.Keys() {
		var finished *model.Game
		err := m.games.Do(gameID, func(g *model.Game) error {
			if g.State != model.GameStateRunning {
				return nil
			}
			m.expireSpells(g, now)
			m.probeCollisions(g)
			if winnerID, won := m.evaluateWin(g); won {
				m.finishLocked(g, winnerID, now)
				finished = g.Clone()
			}
			return nil
		})
		if err != nil {
			// Removed between the key snapshot and the visit
			continue
		}
		if finished != nil {
			m.emit(Event{GameID: gameID, Game: finished})
		}
	}
}

// expireSpells drops active spells whose duration has elapsed
func (m *Manager) expireSpells(g *model.Game, now time.Time) {
	for _, player := range g.Players {
		kept := player.ActiveSpells[:0]
		for _, active := range player.ActiveSpells {
			if active.ExpiresAt.After(now) {
				kept = append(kept, active)
			}
		}
		player.ActiveSpells = kept
	}
}

// probeCollisions checks the falling piece against every other placed
// block and the floor, its owner's tower included. Contacts only feed
// debug logging for now; landing resolution lives client-side.
func (m *Manager) probeCollisions(g *model.Game) {
	current := g.CurrentBlockID
	if current == 0 {
		return
	}

	probe := func(other model.BlockID) {
		hit, err := m.boundary.CheckCollision(current, other)
		if err != nil {
			m.logger.Debug("collision probe failed",
				slog.String("game_id", string(g.ID)),
				slog.Uint64("block_id", uint64(other)),
				slog.String("error", err.Error()),
			)
			return
		}
		if hit {
			m.logger.Debug("block contact",
				slog.String("game_id", string(g.ID)),
				slog.Uint64("current_block_id", uint64(current)),
				slog.Uint64("block_id", uint64(other)),
			)
		}
	}

	for _, playerID := range g.SortedPlayerIDs() {
		for _, blockID := range g.Players[playerID].OwnedBlockIDs {
			if blockID == current {
				continue
			}
			probe(blockID)
		}
	}
	for _, blockID := range g.FloorBlockIDs {
		probe(blockID)
	}
}

// evaluateWin reports the winner demanded by the game's type, if any.
// Race rewards the first tower to reach the field height, ties broken
// by player id order. Survival rewards the one player whose tower still
// stands while every rival's is down, once the game has ever had
// rivals. Puzzle games never finish on their own.
func (m *Manager) evaluateWin(g *model.Game) (model.PlayerID, bool) {
	switch g.Type {
	case model.GameTypeRace:
		for _, playerID := range g.SortedPlayerIDs() {
			if g.Players[playerID].TowerHeight >= g.FieldHeight {
				return playerID, true
			}
		}
	case model.GameTypeSurvival:
		if !g.HadRivals {
			return "", false
		}
		var standing model.PlayerID
		count := 0
		for _, playerID := range g.SortedPlayerIDs() {
			if g.Players[playerID].TowerHeight > 0 {
				standing = playerID
				count++
			}
		}
		if count == 1 {
			return standing, true
		}
	}
	return "", false
}

// RunTickLoop drives Tick at the given interval until ctx is done
func (m *Manager) RunTickLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.logger.Info("tick loop started", slog.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("tick loop stopped")
			return
		case <-ticker.C:
			start := time.Now()
			m.Tick(ctx)
			m.metrics.ObserveTick(time.Since(start))
		}
	}
}

// Events is the stream of tick-driven game changes. The channel is
// never closed; it drops events rather than block the tick loop.
func (m *Manager) Events() <-chan Event {
	return m.events
}

func (m *Manager) emit(event Event) {
	select {
	case m.events <- event:
	default:
		m.logger.Warn("game event dropped", slog.String("game_id", string(event.GameID)))
	}
}

// Shutdown deletes every game, releasing all physics blocks
func (m *Manager) Shutdown(ctx context.Context) error {
	for _, gameID := range m.games.Keys() {
		if err := m.DeleteGame(ctx, gameID); err != nil && !errors.Is(err, model.ErrGameNotFound) {
			m.logger.Warn("game cleanup failed",
				slog.String("game_id", string(gameID)),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

// Interface for dependency injection
type ManagerInterface interface {
	CreateGame(ctx context.Context, name string, gameType model.GameType, difficulty model.Difficulty) (*model.Game, error)
	GetGame(ctx context.Context, gameID model.GameID) (*model.Game, error)
	ListGames(ctx context.Context) []*model.Game
	Count() int
	DeleteGame(ctx context.Context, gameID model.GameID) error
	AddPlayer(ctx context.Context, gameID model.GameID, playerID model.PlayerID, name string) error
	RemovePlayer(ctx context.Context, gameID model.GameID, playerID model.PlayerID) error
	StartGame(ctx context.Context, gameID model.GameID) error
	PauseGame(ctx context.Context, gameID model.GameID) error
	ResumeGame(ctx context.Context, gameID model.GameID) error
	FinishGame(ctx context.Context, gameID model.GameID, winnerID model.PlayerID) error
	SpawnTetrisBlock(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (model.BlockID, error)
	MoveCurrentBlock(ctx context.Context, gameID model.GameID, direction model.Vec2) error
	RotateCurrentBlock(ctx context.Context, gameID model.GameID, angleDelta float64) error
	CastSpell(ctx context.Context, gameID model.GameID, casterID model.PlayerID, spellID string, targetID model.PlayerID) error
	SetPlayerScore(ctx context.Context, gameID model.GameID, playerID model.PlayerID, score int) error
	SetPlayerTowerHeight(ctx context.Context, gameID model.GameID, playerID model.PlayerID, height float64) error
	RemovePlayerBlock(ctx context.Context, gameID model.GameID, playerID model.PlayerID, blockID model.BlockID) error
	Tick(ctx context.Context)
	Events() <-chan Event
	Shutdown(ctx context.Context) error
}

var _ ManagerInterface = (*Manager)(nil)
