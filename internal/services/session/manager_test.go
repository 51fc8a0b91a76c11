package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/topplegame/topple/internal/config"
	"github.com/topplegame/topple/internal/dependencies/mocks"
	"github.com/topplegame/topple/internal/metrics"
	"github.com/topplegame/topple/internal/model"
	"github.com/topplegame/topple/internal/physics/fake"
	"github.com/topplegame/topple/internal/services/game"
	"github.com/topplegame/topple/internal/testutil"
)

type ManagerSuite struct {
	suite.Suite
	boundary *fake.Boundary
	clock    *mocks.MockClock
	random   *mocks.MockRandom
	games    *game.Manager
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
	s.games = game.NewManager(
		config.Default().Game,
		s.boundary,
		s.clock,
		s.random,
		metrics.NewNop(),
		testutil.NopLogger(),
	)
	s.manager = s.newManager(config.Default().Session, "")
	s.ctx = context.Background()
}

func (s *ManagerSuite) newManager(cfg config.Session, adminTokenHash string) *Manager {
	return NewManager(
		cfg,
		adminTokenHash,
		s.games,
		s.clock,
		s.random,
		metrics.NewNop(),
		testutil.NopLogger(),
	)
}

func (s *ManagerSuite) createSession(name string) *model.Session {
	sess, err := s.manager.CreateSession(s.ctx, name, model.RolePlayer, "")
	s.Require().NoError(err)
	return sess
}

func (s *ManagerSuite) createGame() *model.Game {
	g, err := s.games.CreateGame(s.ctx, "test game", model.GameTypeRace, model.DifficultyMedium)
	s.Require().NoError(err)
	return g
}

func (s *ManagerSuite) getSession(sessionID model.SessionID) *model.Session {
	sess, err := s.manager.GetSession(s.ctx, sessionID)
	s.Require().NoError(err)
	return sess
}

// CreateSession tests

func (s *ManagerSuite) TestCreateSessionSucceeds() {
	sess := s.createSession("alice")

	s.NotEmpty(sess.ID)
	s.NotEmpty(sess.User.ID)
	s.NotEqual(string(sess.ID), string(sess.User.ID))
	s.Equal("alice", sess.User.Name)
	s.Equal(model.RolePlayer, sess.User.Role)
	s.Equal(s.clock.CurrentTime, sess.CreatedAt)
	s.Equal(s.clock.CurrentTime.Add(time.Hour), sess.ExpiresAt)
	s.Empty(sess.GameID)
	s.Equal(1, s.manager.Count())
}

func (s *ManagerSuite) TestCreateSessionCapacity() {
	cfg := config.Default().Session
	cfg.MaxSessions = 2
	manager := s.newManager(cfg, "")

	_, err := manager.CreateSession(s.ctx, "a", model.RolePlayer, "")
	s.Require().NoError(err)
	_, err = manager.CreateSession(s.ctx, "b", model.RolePlayer, "")
	s.Require().NoError(err)

	_, err = manager.CreateSession(s.ctx, "c", model.RolePlayer, "")
	s.ErrorIs(err, model.ErrServerFull)
	s.Equal(2, manager.Count())
}

func (s *ManagerSuite) TestCreateAdminSessionRequiresToken() {
	hash, err := bcrypt.GenerateFromPassword([]byte("letmein"), bcrypt.MinCost)
	s.Require().NoError(err)
	manager := s.newManager(config.Default().Session, string(hash))

	_, err = manager.CreateSession(s.ctx, "root", model.RoleAdmin, "wrong")
	s.ErrorIs(err, model.ErrUnauthorized)

	sess, err := manager.CreateSession(s.ctx, "root", model.RoleAdmin, "letmein")
	s.Require().NoError(err)
	s.Equal(model.RoleAdmin, sess.User.Role)
}

func (s *ManagerSuite) TestCreateAdminSessionDisabledWithoutHash() {
	_, err := s.manager.CreateSession(s.ctx, "root", model.RoleAdmin, "anything")
	s.ErrorIs(err, model.ErrUnauthorized)
}

// GetSession tests

func (s *ManagerSuite) TestGetSessionReturnsCopy() {
	sess := s.createSession("alice")

	first := s.getSession(sess.ID)
	first.User.Name = "mutated"

	s.Equal("alice", s.getSession(sess.ID).User.Name)
}

func (s *ManagerSuite) TestGetSessionMissing() {
	_, err := s.manager.GetSession(s.ctx, "nope")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *ManagerSuite) TestGetSessionHidesExpired() {
	sess := s.createSession("alice")

	s.clock.Advance(time.Hour + time.Second)

	_, err := s.manager.GetSession(s.ctx, sess.ID)
	s.ErrorIs(err, model.ErrSessionNotFound)
}

// Activity and expiry tests

func (s *ManagerSuite) TestUpdateActivityTouchesSessionAndUser() {
	sess := s.createSession("alice")

	s.clock.Advance(time.Minute)
	s.Require().NoError(s.manager.UpdateActivity(s.ctx, sess.ID))

	updated := s.getSession(sess.ID)
	s.Equal(s.clock.CurrentTime, updated.LastActivity)
	s.Equal(s.clock.CurrentTime, updated.User.LastActivity)
}

func (s *ManagerSuite) TestExtendSessionPushesExpiry() {
	sess := s.createSession("alice")

	s.clock.Advance(50 * time.Minute)
	s.Require().NoError(s.manager.ExtendSession(s.ctx, sess.ID))

	s.clock.Advance(50 * time.Minute)
	updated := s.getSession(sess.ID)
	s.Equal(s.clock.CurrentTime.Add(10*time.Minute), updated.ExpiresAt)
}

func (s *ManagerSuite) TestExtendExpiredSessionFails() {
	sess := s.createSession("alice")

	s.clock.Advance(2 * time.Hour)

	err := s.manager.ExtendSession(s.ctx, sess.ID)
	s.ErrorIs(err, model.ErrSessionNotFound)
}

// JoinGame and LeaveGame tests

func (s *ManagerSuite) TestJoinGameBindsSessionAndRoster() {
	sess := s.createSession("alice")
	g := s.createGame()

	s.Require().NoError(s.manager.JoinGame(s.ctx, sess.ID, g.ID))

	s.Equal(g.ID, s.getSession(sess.ID).GameID)

	updated, err := s.games.GetGame(s.ctx, g.ID)
	s.Require().NoError(err)
	s.Require().Contains(updated.Players, sess.User.ID)
	s.Equal("alice", updated.Players[sess.User.ID].Name)
}

func (s *ManagerSuite) TestJoinSameGameIsNoop() {
	sess := s.createSession("alice")
	g := s.createGame()
	s.Require().NoError(s.manager.JoinGame(s.ctx, sess.ID, g.ID))

	s.NoError(s.manager.JoinGame(s.ctx, sess.ID, g.ID))

	updated, err := s.games.GetGame(s.ctx, g.ID)
	s.Require().NoError(err)
	s.Len(updated.Players, 1)
}

func (s *ManagerSuite) TestJoinSecondGameLeavesFirst() {
	sess := s.createSession("alice")
	first := s.createGame()
	second := s.createGame()
	s.Require().NoError(s.manager.JoinGame(s.ctx, sess.ID, first.ID))

	s.Require().NoError(s.manager.JoinGame(s.ctx, sess.ID, second.ID))

	s.Equal(second.ID, s.getSession(sess.ID).GameID)

	old, err := s.games.GetGame(s.ctx, first.ID)
	s.Require().NoError(err)
	s.Empty(old.Players)
}

func (s *ManagerSuite) TestJoinFullGameLeavesSessionUnbound() {
	sess := s.createSession("alice")
	first := s.createGame()
	s.Require().NoError(s.manager.JoinGame(s.ctx, sess.ID, first.ID))

	full := s.createGame()
	for _, playerID := range []model.PlayerID{"p-1", "p-2", "p-3", "p-4"} {
		s.Require().NoError(s.games.AddPlayer(s.ctx, full.ID, playerID, string(playerID)))
	}

	err := s.manager.JoinGame(s.ctx, sess.ID, full.ID)
	s.ErrorIs(err, model.ErrGameFull)

	// The old game was already left; the session is now in no game
	s.Empty(s.getSession(sess.ID).GameID)
	old, err := s.games.GetGame(s.ctx, first.ID)
	s.Require().NoError(err)
	s.Empty(old.Players)
}

func (s *ManagerSuite) TestJoinMissingGame() {
	sess := s.createSession("alice")

	err := s.manager.JoinGame(s.ctx, sess.ID, "nope")
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *ManagerSuite) TestLeaveGameUnbinds() {
	sess := s.createSession("alice")
	g := s.createGame()
	s.Require().NoError(s.manager.JoinGame(s.ctx, sess.ID, g.ID))

	s.Require().NoError(s.manager.LeaveGame(s.ctx, sess.ID))

	s.Empty(s.getSession(sess.ID).GameID)
	updated, err := s.games.GetGame(s.ctx, g.ID)
	s.Require().NoError(err)
	s.Empty(updated.Players)
}

func (s *ManagerSuite) TestLeaveGameWithoutGameIsNoop() {
	sess := s.createSession("alice")
	s.NoError(s.manager.LeaveGame(s.ctx, sess.ID))
}

// DeleteSession tests

func (s *ManagerSuite) TestDeleteSessionPullsPlayerFromGame() {
	sess := s.createSession("alice")
	g := s.createGame()
	s.Require().NoError(s.manager.JoinGame(s.ctx, sess.ID, g.ID))

	s.Require().NoError(s.manager.DeleteSession(s.ctx, sess.ID))

	s.Equal(0, s.manager.Count())
	updated, err := s.games.GetGame(s.ctx, g.ID)
	s.Require().NoError(err)
	s.Empty(updated.Players)
}

func (s *ManagerSuite) TestDeleteSessionExactlyOnce() {
	sess := s.createSession("alice")

	s.Require().NoError(s.manager.DeleteSession(s.ctx, sess.ID))
	err := s.manager.DeleteSession(s.ctx, sess.ID)
	s.ErrorIs(err, model.ErrSessionNotFound)
}

// Reaper tests

func (s *ManagerSuite) TestReapExpiredCleansUpGames() {
	sess := s.createSession("alice")
	fresh := s.createSession("bob")
	g := s.createGame()
	s.Require().NoError(s.manager.JoinGame(s.ctx, sess.ID, g.ID))

	s.clock.Advance(30 * time.Minute)
	s.Require().NoError(s.manager.ExtendSession(s.ctx, fresh.ID))
	s.clock.Advance(45 * time.Minute)

	reaped := s.manager.ReapExpired(s.ctx)
	s.Equal(1, reaped)
	s.Equal(1, s.manager.Count())

	_, err := s.manager.GetSession(s.ctx, sess.ID)
	s.ErrorIs(err, model.ErrSessionNotFound)
	s.NotNil(s.getSession(fresh.ID))

	updated, err := s.games.GetGame(s.ctx, g.ID)
	s.Require().NoError(err)
	s.Empty(updated.Players)

	s.Equal(0, s.manager.ReapExpired(s.ctx))
}

func (s *ManagerSuite) TestActiveSessionsHidesExpired() {
	first := s.createSession("alice")
	s.clock.Advance(time.Minute)
	second := s.createSession("bob")

	sessions := s.manager.ActiveSessions(s.ctx)
	s.Require().Len(sessions, 2)
	s.Equal(first.ID, sessions[0].ID)
	s.Equal(second.ID, sessions[1].ID)

	s.clock.Advance(time.Hour)

	sessions = s.manager.ActiveSessions(s.ctx)
	s.Require().Len(sessions, 1)
	s.Equal(second.ID, sessions[0].ID)
}

// Heartbeat tests

func (s *ManagerSuite) TestHeartbeatForceExpiresIdleSessions() {
	sess := s.createSession("alice")

	s.clock.Advance(6 * time.Minute)
	s.manager.CheckHeartbeats(s.ctx)
	s.clock.Advance(time.Second)

	_, err := s.manager.GetSession(s.ctx, sess.ID)
	s.ErrorIs(err, model.ErrSessionNotFound)
	s.Equal(1, s.manager.ReapExpired(s.ctx))
}

func (s *ManagerSuite) TestHeartbeatSparesActiveSessions() {
	sess := s.createSession("alice")

	s.clock.Advance(4 * time.Minute)
	s.Require().NoError(s.manager.UpdateActivity(s.ctx, sess.ID))
	s.clock.Advance(4 * time.Minute)

	s.manager.CheckHeartbeats(s.ctx)
	s.clock.Advance(time.Second)

	s.NotNil(s.getSession(sess.ID))
}

// Shutdown tests

func (s *ManagerSuite) TestShutdownDeletesAllSessions() {
	sess := s.createSession("alice")
	s.createSession("bob")
	g := s.createGame()
	s.Require().NoError(s.manager.JoinGame(s.ctx, sess.ID, g.ID))

	s.Require().NoError(s.manager.Shutdown(s.ctx))

	s.Equal(0, s.manager.Count())
	updated, err := s.games.GetGame(s.ctx, g.ID)
	s.Require().NoError(err)
	s.Empty(updated.Players)
}
