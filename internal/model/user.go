package model

import "time"

// UserID uniquely identifies a user across the system
type UserID string

// UserRole describes what a connected user is allowed to do
type UserRole string

const (
	RoleGuest     UserRole = "guest"
	RolePlayer    UserRole = "player"
	RoleSpectator UserRole = "spectator"
	RoleAdmin     UserRole = "admin"
)

// ParseUserRole converts a wire string to a UserRole, defaulting to player
func ParseUserRole(s string) (UserRole, bool) {
	switch UserRole(s) {
	case RoleGuest, RolePlayer, RoleSpectator, RoleAdmin:
		return UserRole(s), true
	case "":
		return RolePlayer, true
	default:
		return "", false
	}
}

// User is the identity behind a session
type User struct {
	ID           UserID
	Name         string
	Role         UserRole
	CreatedAt    time.Time
	LastActivity time.Time
}
