package game

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/topplegame/topple/internal/config"
	"github.com/topplegame/topple/internal/dependencies/mocks"
	"github.com/topplegame/topple/internal/metrics"
	"github.com/topplegame/topple/internal/model"
	"github.com/topplegame/topple/internal/physics/fake"
	"github.com/topplegame/topple/internal/testutil"
)

type ManagerSuite struct {
	suite.Suite
	boundary *fake.Boundary
	clock    *mocks.MockClock
	random   *mocks.MockRandom
	manager  *Manager
	ctx      context.Context
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

func (s *ManagerSuite) SetupTest() {
	s.boundary = fake.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.manager = NewManager(
		config.Default().Game,
		s.boundary,
		s.clock,
		s.random,
		metrics.NewNop(),
		testutil.NopLogger(),
	)
	s.ctx = context.Background()
}

func (s *ManagerSuite) createGame(gameType model.GameType) *model.Game {
	game, err := s.manager.CreateGame(s.ctx, "test game", gameType, model.DifficultyMedium)
	s.Require().NoError(err)
	return game
}

func (s *ManagerSuite) createRunningGame(gameType model.GameType, players ...model.PlayerID) *model.Game {
	game := s.createGame(gameType)
	for _, playerID := range players {
		s.Require().NoError(s.manager.AddPlayer(s.ctx, game.ID, playerID, string(playerID)))
	}
	s.Require().NoError(s.manager.StartGame(s.ctx, game.ID))
	return game
}

func (s *ManagerSuite) getGame(gameID model.GameID) *model.Game {
	game, err := s.manager.GetGame(s.ctx, gameID)
	s.Require().NoError(err)
	return game
}

// CreateGame tests

func (s *ManagerSuite) TestCreateGameSucceeds() {
	game := s.createGame(model.GameTypeRace)

	s.NotEmpty(game.ID)
	s.Equal("test game", game.Name)
	s.Equal(model.GameTypeRace, game.Type)
	s.Equal(model.GameStateWaiting, game.State)
	s.Equal(model.DifficultyMedium, game.Difficulty)
	s.Equal(4, game.MaxPlayers)
	s.Equal(10.0, game.FieldWidth)
	s.Equal(20.0, game.FieldHeight)
	s.Len(game.FloorBlockIDs, 1)
	s.Equal(s.clock.CurrentTime, game.CreatedAt)
	s.Nil(game.StartedAt)

	s.Equal(1, s.boundary.BlockCount())
	s.Equal(1, s.manager.Count())
}

func (s *ManagerSuite) TestCreateGameFloorFailureAborts() {
	s.boundary.CreateErr = assert.AnError

	_, err := s.manager.CreateGame(s.ctx, "doomed", model.GameTypeRace, model.DifficultyEasy)
	s.ErrorIs(err, model.ErrPhysics)

	s.Equal(0, s.manager.Count())
	s.Equal(0, s.boundary.BlockCount())
}

func (s *ManagerSuite) TestGetGameReturnsCopy() {
	game := s.createGame(model.GameTypeRace)

	first := s.getGame(game.ID)
	first.Name = "mutated"

	second := s.getGame(game.ID)
	s.Equal("test game", second.Name)
}

func (s *ManagerSuite) TestGetGameMissing() {
	_, err := s.manager.GetGame(s.ctx, "nope")
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *ManagerSuite) TestListGamesOldestFirst() {
	first := s.createGame(model.GameTypeRace)
	s.clock.Advance(time.Minute)
	second := s.createGame(model.GameTypeSurvival)

	games := s.manager.ListGames(s.ctx)
	s.Require().Len(games, 2)
	s.Equal(first.ID, games[0].ID)
	s.Equal(second.ID, games[1].ID)
}

// DeleteGame tests

func (s *ManagerSuite) TestDeleteGameReleasesBlocks() {
	game := s.createRunningGame(model.GameTypeRace, "p-1")
	_, err := s.manager.SpawnTetrisBlock(s.ctx, game.ID, "p-1")
	s.Require().NoError(err)
	s.Equal(5, s.boundary.BlockCount()) // floor plus four piece blocks

	s.Require().NoError(s.manager.DeleteGame(s.ctx, game.ID))

	s.Equal(0, s.boundary.BlockCount())
	s.Equal(0, s.manager.Count())
}

func (s *ManagerSuite) TestDeleteGameExactlyOnce() {
	game := s.createGame(model.GameTypeRace)

	s.Require().NoError(s.manager.DeleteGame(s.ctx, game.ID))
	err := s.manager.DeleteGame(s.ctx, game.ID)
	s.ErrorIs(err, model.ErrGameNotFound)
}

// AddPlayer tests

func (s *ManagerSuite) TestAddPlayerSucceeds() {
	game := s.createGame(model.GameTypeRace)

	s.Require().NoError(s.manager.AddPlayer(s.ctx, game.ID, "p-1", "alice"))

	updated := s.getGame(game.ID)
	s.Require().Contains(updated.Players, model.PlayerID("p-1"))
	player := updated.Players["p-1"]
	s.Equal("alice", player.Name)
	s.Equal(0, player.Score)
	s.Len(player.AvailableSpells, len(model.SpellCatalog))
	s.Equal(s.clock.CurrentTime, player.JoinedAt)
	s.False(updated.HadRivals)
}

func (s *ManagerSuite) TestAddPlayerIdempotent() {
	game := s.createGame(model.GameTypeRace)
	s.Require().NoError(s.manager.AddPlayer(s.ctx, game.ID, "p-1", "alice"))

	err := s.manager.AddPlayer(s.ctx, game.ID, "p-1", "alice again")
	s.NoError(err)

	updated := s.getGame(game.ID)
	s.Len(updated.Players, 1)
	s.Equal("alice", updated.Players["p-1"].Name)
}

func (s *ManagerSuite) TestAddPlayerFullGameNeverMutatesRoster() {
	game := s.createGame(model.GameTypeRace)
	for _, playerID := range []model.PlayerID{"p-1", "p-2", "p-3", "p-4"} {
		s.Require().NoError(s.manager.AddPlayer(s.ctx, game.ID, playerID, string(playerID)))
	}

	err := s.manager.AddPlayer(s.ctx, game.ID, "p-5", "late")
	s.ErrorIs(err, model.ErrGameFull)

	updated := s.getGame(game.ID)
	s.Len(updated.Players, 4)
	s.NotContains(updated.Players, model.PlayerID("p-5"))
}

func (s *ManagerSuite) TestAddPlayerAfterStartFails() {
	game := s.createRunningGame(model.GameTypeRace, "p-1")

	err := s.manager.AddPlayer(s.ctx, game.ID, "p-2", "late")
	s.ErrorIs(err, model.ErrInvalidState)
}

func (s *ManagerSuite) TestAddPlayerSetsHadRivals() {
	game := s.createGame(model.GameTypeSurvival)
	s.Require().NoError(s.manager.AddPlayer(s.ctx, game.ID, "p-1", "alice"))
	s.False(s.getGame(game.ID).HadRivals)

	s.Require().NoError(s.manager.AddPlayer(s.ctx, game.ID, "p-2", "bob"))
	s.True(s.getGame(game.ID).HadRivals)

	s.Require().NoError(s.manager.RemovePlayer(s.ctx, game.ID, "p-2"))
	s.True(s.getGame(game.ID).HadRivals)
}

// RemovePlayer tests

func (s *ManagerSuite) TestRemovePlayerReleasesBlocks() {
	game := s.createRunningGame(model.GameTypeRace, "p-1")
	_, err := s.manager.SpawnTetrisBlock(s.ctx, game.ID, "p-1")
	s.Require().NoError(err)

	s.Require().NoError(s.manager.RemovePlayer(s.ctx, game.ID, "p-1"))

	updated := s.getGame(game.ID)
	s.Empty(updated.Players)
	s.Zero(updated.CurrentBlockID)
	s.Equal(1, s.boundary.BlockCount()) // only the floor remains
}

func (s *ManagerSuite) TestRemovePlayerAbsentIsNoop() {
	game := s.createGame(model.GameTypeRace)
	s.NoError(s.manager.RemovePlayer(s.ctx, game.ID, "ghost"))
}

// State machine tests

func (s *ManagerSuite) TestFreshGameOnlyStarts() {
	game := s.createGame(model.GameTypeRace)
	s.Require().NoError(s.manager.AddPlayer(s.ctx, game.ID, "p-1", "alice"))

	s.ErrorIs(s.manager.PauseGame(s.ctx, game.ID), model.ErrInvalidState)
	s.ErrorIs(s.manager.ResumeGame(s.ctx, game.ID), model.ErrInvalidState)

	s.Require().NoError(s.manager.StartGame(s.ctx, game.ID))

	updated := s.getGame(game.ID)
	s.Equal(model.GameStateRunning, updated.State)
	s.Require().NotNil(updated.StartedAt)
	s.Equal(s.clock.CurrentTime, *updated.StartedAt)
}

func (s *ManagerSuite) TestStartRequiresPlayers() {
	game := s.createGame(model.GameTypeRace)
	s.ErrorIs(s.manager.StartGame(s.ctx, game.ID), model.ErrInvalidState)
}

func (s *ManagerSuite) TestPauseBlocksPlayThenResume() {
	game := s.createRunningGame(model.GameTypeRace, "p-1")

	s.Require().NoError(s.manager.PauseGame(s.ctx, game.ID))
	_, err := s.manager.SpawnTetrisBlock(s.ctx, game.ID, "p-1")
	s.ErrorIs(err, model.ErrInvalidState)

	s.Require().NoError(s.manager.ResumeGame(s.ctx, game.ID))
	_, err = s.manager.SpawnTetrisBlock(s.ctx, game.ID, "p-1")
	s.NoError(err)
}

func (s *ManagerSuite) TestFinishedGameRejectsMutation() {
	game := s.createRunningGame(model.GameTypeRace, "p-1")
	s.Require().NoError(s.manager.FinishGame(s.ctx, game.ID, "p-1"))

	s.ErrorIs(s.manager.StartGame(s.ctx, game.ID), model.ErrInvalidState)
	s.ErrorIs(s.manager.PauseGame(s.ctx, game.ID), model.ErrInvalidState)
	s.ErrorIs(s.manager.ResumeGame(s.ctx, game.ID), model.ErrInvalidState)
	s.ErrorIs(s.manager.FinishGame(s.ctx, game.ID, ""), model.ErrInvalidState)
	_, err := s.manager.SpawnTetrisBlock(s.ctx, game.ID, "p-1")
	s.ErrorIs(err, model.ErrInvalidState)
	s.ErrorIs(s.manager.CastSpell(s.ctx, game.ID, "p-1", "reinforce", ""), model.ErrInvalidState)

	updated := s.getGame(game.ID)
	s.Equal(model.GameStateFinished, updated.State)
	s.Equal(model.PlayerID("p-1"), updated.WinnerID)
	s.Require().NotNil(updated.FinishedAt)
}

func (s *ManagerSuite) TestFinishValidatesWinner() {
	game := s.createRunningGame(model.GameTypeRace, "p-1")

	err := s.manager.FinishGame(s.ctx, game.ID, "stranger")
	s.ErrorIs(err, model.ErrInvalidTarget)
	s.Equal(model.GameStateRunning, s.getGame(game.ID).State)

	s.NoError(s.manager.FinishGame(s.ctx, game.ID, ""))
	s.Empty(s.getGame(game.ID).WinnerID)
}

// Spawn tests

func (s *ManagerSuite) TestSpawnCreatesPiece() {
	game := s.createRunningGame(model.GameTypeRace, "p-1")

	blockID, err := s.manager.SpawnTetrisBlock(s.ctx, game.ID, "p-1")
	s.Require().NoError(err)
	s.NotZero(blockID)

	updated := s.getGame(game.ID)
	s.Equal(blockID, updated.CurrentBlockID)
	s.NotEmpty(updated.NextBlockKind)

	player := updated.Players["p-1"]
	s.Len(player.OwnedBlockIDs, 4)
	s.Equal(4, player.BlocksPlaced)
	s.Equal(blockID, player.OwnedBlockIDs[0])

	transform, err := s.boundary.GetTransform(blockID)
	s.Require().NoError(err)
	s.Equal(model.Vec2{X: 0, Y: 18}, transform.Position)
}

func (s *ManagerSuite) TestSpawnUsesQueuedKindAndRerolls() {
	game := s.createRunningGame(model.GameTypeRace, "p-1")
	s.random.QueueIntn(1, 2)

	_, err := s.manager.SpawnTetrisBlock(s.ctx, game.ID, "p-1")
	s.Require().NoError(err)
	s.Equal(model.TetrominoKinds[2], s.getGame(game.ID).NextBlockKind)

	// Second spawn consumes the queued kind and rolls a fresh next
	_, err = s.manager.SpawnTetrisBlock(s.ctx, game.ID, "p-1")
	s.Require().NoError(err)
	s.Equal(model.TetrominoKinds[0], s.getGame(game.ID).NextBlockKind)
}

func (s *ManagerSuite) TestSpawnFailureLeavesGameUntouched() {
	game := s.createRunningGame(model.GameTypeRace, "p-1")
	s.boundary.CreateErr = assert.AnError

	_, err := s.manager.SpawnTetrisBlock(s.ctx, game.ID, "p-1")
	s.ErrorIs(err, model.ErrPhysics)

	updated := s.getGame(game.ID)
	s.Zero(updated.CurrentBlockID)
	s.Equal(0, updated.Players["p-1"].BlocksPlaced)
}

func (s *ManagerSuite) TestSpawnEmptyResultIsPhysicsFailure() {
	game := s.createRunningGame(model.GameTypeRace, "p-1")
	s.boundary.EmptyComposite = true

	_, err := s.manager.SpawnTetrisBlock(s.ctx, game.ID, "p-1")
	s.ErrorIs(err, model.ErrPhysics)
}

func (s *ManagerSuite) TestSpawnUnknownPlayer() {
	game := s.createRunningGame(model.GameTypeRace, "p-1")

	_, err := s.manager.SpawnTetrisBlock(s.ctx, game.ID, "ghost")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// Move and rotate tests

func (s *ManagerSuite) TestMoveCurrentBlock() {
	game := s.createRunningGame(model.GameTypeRace, "p-1")
	blockID, err := s.manager.SpawnTetrisBlock(s.ctx, game.ID, "p-1")
	s.Require().NoError(err)

	s.Require().NoError(s.manager.MoveCurrentBlock(s.ctx, game.ID, model.Vec2{X: 1, Y: -0.5}))

	transform, err := s.boundary.GetTransform(blockID)
	s.Require().NoError(err)
	s.Equal(model.Vec2{X: 1, Y: 17.5}, transform.Position)
}

func (s *ManagerSuite) TestRotateCurrentBlockAccumulates() {
	game := s.createRunningGame(model.GameTypeRace, "p-1")
	blockID, err := s.manager.SpawnTetrisBlock(s.ctx, game.ID, "p-1")
	s.Require().NoError(err)

	s.Require().NoError(s.manager.RotateCurrentBlock(s.ctx, game.ID, 0.5))
	s.Require().NoError(s.manager.RotateCurrentBlock(s.ctx, game.ID, 0.5))

	transform, err := s.boundary.GetTransform(blockID)
	s.Require().NoError(err)
	s.InDelta(1.0, transform.Angle, 1e-9)
}

func (s *ManagerSuite) TestMoveWithoutCurrentBlock() {
	game := s.createRunningGame(model.GameTypeRace, "p-1")

	err := s.manager.MoveCurrentBlock(s.ctx, game.ID, model.Vec2{X: 1})
	s.ErrorIs(err, model.ErrNoCurrentBlock)

	err = s.manager.RotateCurrentBlock(s.ctx, game.ID, 0.5)
	s.ErrorIs(err, model.ErrNoCurrentBlock)
}

func (s *ManagerSuite) TestMoveTransformFailure() {
	game := s.createRunningGame(model.GameTypeRace, "p-1")
	_, err := s.manager.SpawnTetrisBlock(s.ctx, game.ID, "p-1")
	s.Require().NoError(err)

	s.boundary.TransformErr = assert.AnError
	err = s.manager.MoveCurrentBlock(s.ctx, game.ID, model.Vec2{X: 1})
	s.ErrorIs(err, model.ErrPhysics)
}

// CastSpell tests

func (s *ManagerSuite) TestCastLightSpell() {
	game := s.createRunningGame(model.GameTypeRace, "p-1")
	s.Require().NoError(s.manager.SetPlayerScore(s.ctx, game.ID, "p-1", 100))

	s.Require().NoError(s.manager.CastSpell(s.ctx, game.ID, "p-1", "reinforce", ""))

	player := s.getGame(game.ID).Players["p-1"]
	s.Equal(70, player.Score)
	s.Len(player.AvailableSpells, len(model.SpellCatalog)-1)
	s.Require().Len(player.ActiveSpells, 1)
	s.Equal("reinforce", player.ActiveSpells[0].Spell.ID)
	s.Equal(s.clock.CurrentTime.Add(10*time.Second), player.ActiveSpells[0].ExpiresAt)
}

func (s *ManagerSuite) TestCastInsufficientScoreLeavesCasterUntouched() {
	game := s.createRunningGame(model.GameTypeRace, "p-1")
	s.Require().NoError(s.manager.SetPlayerScore(s.ctx, game.ID, "p-1", 10))
	before := s.getGame(game.ID).Players["p-1"]

	err := s.manager.CastSpell(s.ctx, game.ID, "p-1", "reinforce", "")
	s.ErrorIs(err, model.ErrInsufficientScore)

	after := s.getGame(game.ID).Players["p-1"]
	s.Equal(before.Score, after.Score)
	s.Len(after.AvailableSpells, len(before.AvailableSpells))
	s.Empty(after.ActiveSpells)
}

func (s *ManagerSuite) TestCastDarkSpellTargetRules() {
	game := s.createRunningGame(model.GameTypeSurvival, "p-1", "p-2")
	s.Require().NoError(s.manager.SetPlayerScore(s.ctx, game.ID, "p-1", 100))

	s.ErrorIs(s.manager.CastSpell(s.ctx, game.ID, "p-1", "earthquake", ""), model.ErrInvalidTarget)
	s.ErrorIs(s.manager.CastSpell(s.ctx, game.ID, "p-1", "earthquake", "p-1"), model.ErrInvalidTarget)
	s.ErrorIs(s.manager.CastSpell(s.ctx, game.ID, "p-1", "earthquake", "ghost"), model.ErrInvalidTarget)

	s.Equal(100, s.getGame(game.ID).Players["p-1"].Score)
}

func (s *ManagerSuite) TestCastEarthquakeShakesTargetTower() {
	game := s.createRunningGame(model.GameTypeSurvival, "p-1", "p-2")
	s.Require().NoError(s.manager.SetPlayerScore(s.ctx, game.ID, "p-1", 100))
	_, err := s.manager.SpawnTetrisBlock(s.ctx, game.ID, "p-2")
	s.Require().NoError(err)

	s.Require().NoError(s.manager.CastSpell(s.ctx, game.ID, "p-1", "earthquake", "p-2"))

	explosions := s.boundary.Explosions()
	s.Require().Len(explosions, 1)
	s.Equal(5.0, explosions[0].Radius)
	s.Equal(50.0, explosions[0].Force)
	s.Equal(50, s.getGame(game.ID).Players["p-1"].Score)
}

func (s *ManagerSuite) TestCastWindBlowsAcrossField() {
	game := s.createRunningGame(model.GameTypeSurvival, "p-1", "p-2")
	s.Require().NoError(s.manager.SetPlayerScore(s.ctx, game.ID, "p-1", 100))

	s.Require().NoError(s.manager.CastSpell(s.ctx, game.ID, "p-1", "wind", "p-2"))

	winds := s.boundary.Winds()
	s.Require().Len(winds, 1)
	s.Equal(model.Vec2{X: 1}, winds[0].Direction)
	s.Equal(30.0, winds[0].Strength)
}

func (s *ManagerSuite) TestCastSpellConsumedOnce() {
	game := s.createRunningGame(model.GameTypeRace, "p-1")
	s.Require().NoError(s.manager.SetPlayerScore(s.ctx, game.ID, "p-1", 100))
	s.Require().NoError(s.manager.CastSpell(s.ctx, game.ID, "p-1", "reinforce", ""))

	err := s.manager.CastSpell(s.ctx, game.ID, "p-1", "reinforce", "")
	s.ErrorIs(err, model.ErrSpellNotFound)
}

func (s *ManagerSuite) TestCastUnknownSpell() {
	game := s.createRunningGame(model.GameTypeRace, "p-1")

	err := s.manager.CastSpell(s.ctx, game.ID, "p-1", "fireball", "")
	s.ErrorIs(err, model.ErrSpellNotFound)
}

func (s *ManagerSuite) TestCastByNonPlayer() {
	game := s.createRunningGame(model.GameTypeRace, "p-1")

	err := s.manager.CastSpell(s.ctx, game.ID, "ghost", "reinforce", "")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *ManagerSuite) TestCastEffectFailureStillSpendsSpell() {
	game := s.createRunningGame(model.GameTypeSurvival, "p-1", "p-2")
	s.Require().NoError(s.manager.SetPlayerScore(s.ctx, game.ID, "p-1", 100))
	s.boundary.EffectErr = assert.AnError

	s.Require().NoError(s.manager.CastSpell(s.ctx, game.ID, "p-1", "wind", "p-2"))
	s.Equal(65, s.getGame(game.ID).Players["p-1"].Score)
}

// Score and tower height tests

func (s *ManagerSuite) TestSetPlayerScoreIsAbsolute() {
	game := s.createRunningGame(model.GameTypeRace, "p-1")

	s.Require().NoError(s.manager.SetPlayerScore(s.ctx, game.ID, "p-1", 50))
	s.Require().NoError(s.manager.SetPlayerScore(s.ctx, game.ID, "p-1", 30))
	s.Equal(30, s.getGame(game.ID).Players["p-1"].Score)

	err := s.manager.SetPlayerScore(s.ctx, game.ID, "ghost", 10)
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *ManagerSuite) TestRemovePlayerBlockCreditsDestruction() {
	game := s.createRunningGame(model.GameTypeRace, "p-1")
	blockID, err := s.manager.SpawnTetrisBlock(s.ctx, game.ID, "p-1")
	s.Require().NoError(err)

	s.Require().NoError(s.manager.RemovePlayerBlock(s.ctx, game.ID, "p-1", blockID))

	updated := s.getGame(game.ID)
	player := updated.Players["p-1"]
	s.Len(player.OwnedBlockIDs, 3)
	s.NotContains(player.OwnedBlockIDs, blockID)
	s.Equal(1, player.BlocksDestroyed)
	s.Equal(4, player.BlocksPlaced)
	s.Zero(updated.CurrentBlockID)

	err = s.manager.RemovePlayerBlock(s.ctx, game.ID, "p-1", blockID)
	s.ErrorIs(err, model.ErrBlockNotFound)
}

func (s *ManagerSuite) TestRemovePlayerBlockPhysicsFailureKeepsOwnership() {
	game := s.createRunningGame(model.GameTypeRace, "p-1")
	blockID, err := s.manager.SpawnTetrisBlock(s.ctx, game.ID, "p-1")
	s.Require().NoError(err)

	// Pull the block out from under the manager so the release fails.
	s.Require().True(s.boundary.RemoveBlock(blockID))

	err = s.manager.RemovePlayerBlock(s.ctx, game.ID, "p-1", blockID)
	s.ErrorIs(err, model.ErrPhysics)

	player := s.getGame(game.ID).Players["p-1"]
	s.Contains(player.OwnedBlockIDs, blockID)
	s.Zero(player.BlocksDestroyed)
}

// Tick tests

func (s *ManagerSuite) TestTickExpiresSpells() {
	game := s.createRunningGame(model.GameTypeRace, "p-1")
	s.Require().NoError(s.manager.SetPlayerScore(s.ctx, game.ID, "p-1", 100))
	s.Require().NoError(s.manager.CastSpell(s.ctx, game.ID, "p-1", "reinforce", ""))

	s.clock.Advance(5 * time.Second)
	s.manager.Tick(s.ctx)
	s.Len(s.getGame(game.ID).Players["p-1"].ActiveSpells, 1)

	s.clock.Advance(6 * time.Second)
	s.manager.Tick(s.ctx)
	s.Empty(s.getGame(game.ID).Players["p-1"].ActiveSpells)
}

func (s *ManagerSuite) TestTickRaceWin() {
	game := s.createRunningGame(model.GameTypeRace, "p-1", "p-2")
	s.Require().NoError(s.manager.SetPlayerTowerHeight(s.ctx, game.ID, "p-1", 20))

	s.manager.Tick(s.ctx)

	updated := s.getGame(game.ID)
	s.Equal(model.GameStateFinished, updated.State)
	s.Equal(model.PlayerID("p-1"), updated.WinnerID)
	s.Require().NotNil(updated.FinishedAt)

	event := <-s.manager.Events()
	s.Equal(game.ID, event.GameID)
	s.Equal(model.GameStateFinished, event.Game.State)

	// A finished game is left alone by later ticks
	s.manager.Tick(s.ctx)
	select {
	case extra := <-s.manager.Events():
		s.Failf("unexpected event", "game %s", extra.GameID)
	default:
	}
}

func (s *ManagerSuite) TestTickRaceTieBreaksByPlayerID() {
	game := s.createRunningGame(model.GameTypeRace, "p-2", "p-1")
	s.Require().NoError(s.manager.SetPlayerTowerHeight(s.ctx, game.ID, "p-2", 20))
	s.Require().NoError(s.manager.SetPlayerTowerHeight(s.ctx, game.ID, "p-1", 20))

	s.manager.Tick(s.ctx)

	s.Equal(model.PlayerID("p-1"), s.getGame(game.ID).WinnerID)
}

func (s *ManagerSuite) TestTickSurvivalLastTowerStandingWins() {
	game := s.createRunningGame(model.GameTypeSurvival, "p-1", "p-2")
	s.Require().NoError(s.manager.SetPlayerTowerHeight(s.ctx, game.ID, "p-1", 5))
	s.Require().NoError(s.manager.SetPlayerTowerHeight(s.ctx, game.ID, "p-2", 4))

	// Both towers stand, so nobody has won yet
	s.manager.Tick(s.ctx)
	s.Equal(model.GameStateRunning, s.getGame(game.ID).State)

	s.Require().NoError(s.manager.SetPlayerTowerHeight(s.ctx, game.ID, "p-2", 0))
	s.manager.Tick(s.ctx)

	updated := s.getGame(game.ID)
	s.Equal(model.GameStateFinished, updated.State)
	s.Equal(model.PlayerID("p-1"), updated.WinnerID)
}

func (s *ManagerSuite) TestTickSurvivalToppledSurvivorKeepsRunning() {
	game := s.createRunningGame(model.GameTypeSurvival, "p-1", "p-2")
	s.Require().NoError(s.manager.RemovePlayer(s.ctx, game.ID, "p-2"))

	// The lone survivor's tower is down too, so there is no winner
	s.manager.Tick(s.ctx)
	s.Equal(model.GameStateRunning, s.getGame(game.ID).State)

	s.Require().NoError(s.manager.SetPlayerTowerHeight(s.ctx, game.ID, "p-1", 3))
	s.manager.Tick(s.ctx)

	updated := s.getGame(game.ID)
	s.Equal(model.GameStateFinished, updated.State)
	s.Equal(model.PlayerID("p-1"), updated.WinnerID)
}

func (s *ManagerSuite) TestTickSurvivalSoloGameKeepsRunning() {
	game := s.createRunningGame(model.GameTypeSurvival, "p-1")
	s.Require().NoError(s.manager.SetPlayerTowerHeight(s.ctx, game.ID, "p-1", 5))

	s.manager.Tick(s.ctx)

	s.Equal(model.GameStateRunning, s.getGame(game.ID).State)
}

func (s *ManagerSuite) TestTickPuzzleNeverFinishes() {
	game := s.createRunningGame(model.GameTypePuzzle, "p-1")
	s.Require().NoError(s.manager.SetPlayerTowerHeight(s.ctx, game.ID, "p-1", 30))

	s.manager.Tick(s.ctx)

	s.Equal(model.GameStateRunning, s.getGame(game.ID).State)
}

func (s *ManagerSuite) TestTickProbesOwnAndRivalTowers() {
	game := s.createRunningGame(model.GameTypeRace, "p-1", "p-2")
	_, err := s.manager.SpawnTetrisBlock(s.ctx, game.ID, "p-2")
	s.Require().NoError(err)
	current, err := s.manager.SpawnTetrisBlock(s.ctx, game.ID, "p-1")
	s.Require().NoError(err)

	s.manager.Tick(s.ctx)

	updated := s.getGame(game.ID)
	checks := s.boundary.CollisionChecks()
	for _, blockID := range updated.Players["p-1"].OwnedBlockIDs[1:] {
		s.Contains(checks, fake.CollisionCheck{A: current, B: blockID})
	}
	for _, blockID := range updated.Players["p-2"].OwnedBlockIDs {
		s.Contains(checks, fake.CollisionCheck{A: current, B: blockID})
	}
	s.Contains(checks, fake.CollisionCheck{A: current, B: game.FloorBlockIDs[0]})
	s.NotContains(checks, fake.CollisionCheck{A: current, B: current})
}

func (s *ManagerSuite) TestTickSkipsGamesNotRunning() {
	waiting := s.createGame(model.GameTypeRace)
	s.Require().NoError(s.manager.AddPlayer(s.ctx, waiting.ID, "p-1", "alice"))
	s.Require().NoError(s.manager.SetPlayerTowerHeight(s.ctx, waiting.ID, "p-1", 20))

	paused := s.createRunningGame(model.GameTypeRace, "p-2")
	s.Require().NoError(s.manager.SetPlayerTowerHeight(s.ctx, paused.ID, "p-2", 20))
	s.Require().NoError(s.manager.PauseGame(s.ctx, paused.ID))

	s.manager.Tick(s.ctx)

	s.Equal(model.GameStateWaiting, s.getGame(waiting.ID).State)
	s.Equal(model.GameStatePaused, s.getGame(paused.ID).State)
}

// Shutdown tests

func (s *ManagerSuite) TestShutdownDeletesAllGames() {
	s.createRunningGame(model.GameTypeRace, "p-1")
	s.createGame(model.GameTypeSurvival)

	s.Require().NoError(s.manager.Shutdown(s.ctx))

	s.Equal(0, s.manager.Count())
	s.Equal(0, s.boundary.BlockCount())
}
