package session

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/topplegame/topple/internal/config"
	"github.com/topplegame/topple/internal/dependencies/clock"
	"github.com/topplegame/topple/internal/dependencies/random"
	"github.com/topplegame/topple/internal/metrics"
	"github.com/topplegame/topple/internal/model"
	"github.com/topplegame/topple/internal/services/game"
	"github.com/topplegame/topple/internal/storage"
)

// Manager owns the session table and the binding between sessions and
// games. It calls into the game manager to move players; the game
// manager never calls back, which keeps the lock order session before
// game.
type Manager struct {
	cfg            config.Session
	adminTokenHash string
	sessions       *storage.Table[model.SessionID, *model.Session]
	games          *game.Manager
	clock          clock.Clock
	random         random.Random
	metrics        *metrics.Metrics
	logger         *slog.Logger
}

// NewManager creates a session manager. adminTokenHash is the bcrypt
// hash admin logins must match; empty disables the admin role.
func NewManager(
	cfg config.Session,
	adminTokenHash string,
	games *game.Manager,
	clock clock.Clock,
	random random.Random,
	metrics *metrics.Metrics,
	logger *slog.Logger,
) *Manager {
	return &Manager{
		cfg:            cfg,
		adminTokenHash: adminTokenHash,
		sessions:       storage.NewTable[model.SessionID, *model.Session](model.ErrSessionNotFound),
		games:          games,
		clock:          clock,
		random:         random,
		metrics:        metrics,
		logger:         logger,
	}
}

// CreateSession mints a user and a session for them. Admin sessions
// require the admin token; the capacity limit counts sessions that have
// expired but not yet been reaped.
func (m *Manager) CreateSession(ctx context.Context, userName string, role model.UserRole, adminToken string) (*model.Session, error) {
	if m.sessions.Len() >= m.cfg.MaxSessions {
		return nil, model.ErrServerFull
	}
	if role == model.RoleAdmin {
		if m.adminTokenHash == "" {
			return nil, model.ErrUnauthorized
		}
		if err := bcrypt.CompareHashAndPassword([]byte(m.adminTokenHash), []byte(adminToken)); err != nil {
			return nil, model.ErrUnauthorized
		}
	}

	now := m.clock.Now()
	user := model.User{
		ID:           model.UserID(m.random.UUID()),
		Name:         userName,
		Role:         role,
		CreatedAt:    now,
		LastActivity: now,
	}
	session := &model.Session{
		ID:           model.SessionID(m.random.UUID()),
		User:         user,
		CreatedAt:    now,
		ExpiresAt:    now.Add(m.cfg.TTL),
		LastActivity: now,
	}

	if !m.sessions.Insert(session.ID, session) {
		return nil, model.ErrServerFull
	}

	m.metrics.ActiveSessions.Inc()
	m.logger.Info("session created",
		slog.String("session_id", string(session.ID)),
		slog.String("user_id", string(user.ID)),
		slog.String("user_name", userName),
		slog.String("role", string(role)),
	)
	return session.Clone(), nil
}

// GetSession returns a copy of a live session. Expired sessions are
// indistinguishable from absent ones.
func (m *Manager) GetSession(ctx context.Context, sessionID model.SessionID) (*model.Session, error) {
	now := m.clock.Now()
	var snapshot *model.Session
	err := m.sessions.Do(sessionID, func(s *model.Session) error {
		if s.IsExpired(now) {
			return model.ErrSessionNotFound
		}
		snapshot = s.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// UpdateActivity marks the session and its user as just seen
func (m *Manager) UpdateActivity(ctx context.Context, sessionID model.SessionID) error {
	now := m.clock.Now()
	return m.sessions.Do(sessionID, func(s *model.Session) error {
		if s.IsExpired(now) {
			return model.ErrSessionNotFound
		}
		s.LastActivity = now
		s.User.LastActivity = now
		return nil
	})
}

// ExtendSession pushes the session's expiry out by a full TTL
func (m *Manager) ExtendSession(ctx context.Context, sessionID model.SessionID) error {
	now := m.clock.Now()
	return m.sessions.Do(sessionID, func(s *model.Session) error {
		if s.IsExpired(now) {
			return model.ErrSessionNotFound
		}
		s.ExpiresAt = now.Add(m.cfg.TTL)
		s.LastActivity = now
		s.User.LastActivity = now
		return nil
	})
}

// JoinGame binds the session to a game, leaving any game it was in
// first. Joining the game the session is already in is a no-op. If the
// leave succeeds but the join fails, the session ends up in no game and
// the error is returned.
func (m *Manager) JoinGame(ctx context.Context, sessionID model.SessionID, gameID model.GameID) error {
	now := m.clock.Now()
	return m.sessions.Do(sessionID, func(s *model.Session) error {
		if s.IsExpired(now) {
			return model.ErrSessionNotFound
		}
		if s.GameID == gameID {
			return nil
		}

		if s.GameID != "" {
			if err := m.games.RemovePlayer(ctx, s.GameID, s.User.ID); err != nil {
				m.logger.Warn("leave before join failed",
					slog.String("session_id", string(sessionID)),
					slog.String("game_id", string(s.GameID)),
					slog.String("error", err.Error()),
				)
			}
			s.GameID = ""
		}

		if err := m.games.AddPlayer(ctx, gameID, s.User.ID, s.User.Name); err != nil {
			return err
		}
		s.GameID = gameID
		s.LastActivity = now
		s.User.LastActivity = now

		m.logger.Info("session joined game",
			slog.String("session_id", string(sessionID)),
			slog.String("game_id", string(gameID)),
		)
		return nil
	})
}

// LeaveGame unbinds the session from its game. A session in no game is
// left alone.
func (m *Manager) LeaveGame(ctx context.Context, sessionID model.SessionID) error {
	now := m.clock.Now()
	return m.sessions.Do(sessionID, func(s *model.Session) error {
		if s.IsExpired(now) {
			return model.ErrSessionNotFound
		}
		if s.GameID == "" {
			return nil
		}

		if err := m.games.RemovePlayer(ctx, s.GameID, s.User.ID); err != nil {
			m.logger.Warn("leave game failed",
				slog.String("session_id", string(sessionID)),
				slog.String("game_id", string(s.GameID)),
				slog.String("error", err.Error()),
			)
		}

		m.logger.Info("session left game",
			slog.String("session_id", string(sessionID)),
			slog.String("game_id", string(s.GameID)),
		)
		s.GameID = ""
		s.LastActivity = now
		return nil
	})
}

// DeleteSession removes a session. Exactly one caller wins the removal
// and owns pulling the user out of their game.
func (m *Manager) DeleteSession(ctx context.Context, sessionID model.SessionID) error {
	session, ok := m.sessions.Remove(sessionID)
	if !ok {
		return model.ErrSessionNotFound
	}

	m.releaseSession(ctx, session)
	m.logger.Info("session deleted", slog.String("session_id", string(sessionID)))
	return nil
}

// releaseSession is the cleanup owed by whoever claims a session's
// removal
func (m *Manager) releaseSession(ctx context.Context, s *model.Session) {
	if s.GameID != "" {
		if err := m.games.RemovePlayer(ctx, s.GameID, s.User.ID); err != nil {
			m.logger.Warn("leave game failed",
				slog.String("session_id", string(s.ID)),
				slog.String("game_id", string(s.GameID)),
				slog.String("error", err.Error()),
			)
		}
	}
	m.metrics.ActiveSessions.Dec()
}

// ActiveSessions returns copies of all live sessions, oldest first
func (m *Manager) ActiveSessions(ctx context.Context) []*model.Session {
	now := m.clock.Now()
	sessions := make([]*model.Session, 0, m.sessions.Len())
	for _, sessionID := range m.sessions.Keys() {
		var snapshot *model.Session
		if err := m.sessions.Do(sessionID, func(s *model.Session) error {
			if s.IsExpired(now) {
				return model.ErrSessionNotFound
			}
			snapshot = s.Clone()
			return nil
		}); err != nil {
			continue
		}
		sessions = append(sessions, snapshot)
	}
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].ID < sessions[j].ID
		}
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	return sessions
}

// Count returns the number of sessions in the table, reaped or not
func (m *Manager) Count() int {
	return m.sessions.Len()
}

// ReapExpired claims and cleans up every expired session. Expiry is
// terminal, so a session seen expired here cannot come back between the
// scan and the claim. Returns the number reaped.
func (m *Manager) ReapExpired(ctx context.Context) int {
	now := m.clock.Now()

	var expired []model.SessionID
	for _, sessionID := range m.sessions.Keys() {
		_ = m.sessions.Do(sessionID, func(s *model.Session) error {
			if s.IsExpired(now) {
				expired = append(expired, sessionID)
			}
			return nil
		})
	}

	reaped := 0
	for _, sessionID := range expired {
		session, ok := m.sessions.Remove(sessionID)
		if !ok {
			continue
		}
		m.releaseSession(ctx, session)
		m.logger.Info("session expired",
			slog.String("session_id", string(sessionID)),
			slog.String("user_id", string(session.User.ID)),
		)
		reaped++
	}
	return reaped
}

// CheckHeartbeats force-expires sessions that have gone quiet for
// longer than the inactivity timeout. The reaper collects them on its
// next pass.
func (m *Manager) CheckHeartbeats(ctx context.Context) {
	now := m.clock.Now()
	for _, sessionID := range m.sessions.Keys() {
		_ = m.sessions.Do(sessionID, func(s *model.Session) error {
			if s.IsExpired(now) {
				return nil
			}
			if now.Sub(s.LastActivity) > m.cfg.InactivityTimeout {
				s.ExpiresAt = now
				m.logger.Info("session inactive",
					slog.String("session_id", string(sessionID)),
					slog.Duration("idle", now.Sub(s.LastActivity)),
				)
			}
			return nil
		})
	}
}

// RunReaperLoop reaps expired sessions at the cleanup interval until
// ctx is done
func (m *Manager) RunReaperLoop(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.CleanupInterval)
	defer ticker.Stop()

	m.logger.Info("session reaper started", slog.Duration("interval", m.cfg.CleanupInterval))
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("session reaper stopped")
			return
		case <-ticker.C:
			m.ReapExpired(ctx)
		}
	}
}

// RunHeartbeatLoop checks session activity at the heartbeat interval
// until ctx is done
func (m *Manager) RunHeartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.HeartbeatInterval)
	defer ticker.Stop()

	m.logger.Info("heartbeat monitor started", slog.Duration("interval", m.cfg.HeartbeatInterval))
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("heartbeat monitor stopped")
			return
		case <-ticker.C:
			m.CheckHeartbeats(ctx)
		}
	}
}

// Shutdown deletes every session, pulling users out of their games
func (m *Manager) Shutdown(ctx context.Context) error {
	for _, sessionID := range m.sessions.Keys() {
		session, ok := m.sessions.Remove(sessionID)
		if !ok {
			continue
		}
		m.releaseSession(ctx, session)
	}
	return nil
}

// Interface for dependency injection
type ManagerInterface interface {
	CreateSession(ctx context.Context, userName string, role model.UserRole, adminToken string) (*model.Session, error)
	GetSession(ctx context.Context, sessionID model.SessionID) (*model.Session, error)
	UpdateActivity(ctx context.Context, sessionID model.SessionID) error
	ExtendSession(ctx context.Context, sessionID model.SessionID) error
	JoinGame(ctx context.Context, sessionID model.SessionID, gameID model.GameID) error
	LeaveGame(ctx context.Context, sessionID model.SessionID) error
	DeleteSession(ctx context.Context, sessionID model.SessionID) error
	ActiveSessions(ctx context.Context) []*model.Session
	Count() int
	ReapExpired(ctx context.Context) int
	CheckHeartbeats(ctx context.Context)
	Shutdown(ctx context.Context) error
}

var _ ManagerInterface = (*Manager)(nil)
