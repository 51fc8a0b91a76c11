package model

import "time"

// SessionID uniquely identifies a connected client's session
type SessionID string

// Session binds an authenticated user to at most one active game.
// The session manager is the only writer; everyone else reads copies.
type Session struct {
	ID           SessionID
	User         User
	GameID       GameID // empty when the session is not in a game
	CreatedAt    time.Time
	ExpiresAt    time.Time
	LastActivity time.Time
}

// IsExpired reports whether the session has passed its expiry time
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// InGame reports whether the session is currently bound to a game
func (s *Session) InGame() bool {
	return s.GameID != ""
}

// Clone returns a copy of the session
func (s *Session) Clone() *Session {
	cp := *s
	return &cp
}
