package auth

import (
	"time"
)

type Role string

const (
	RoleSuperAdmin   Role = "super_admin"
	RoleStationAdmin Role = "station_admin"
	RoleObserver     Role = "observer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleStationAdmin, RoleObserver:
		return true
	}
	return false
}

type User struct {
	ID           string
	Username     string
	PasswordHash string
	Role         Role
	StationID    string
}

// Session is the authenticated caller. StationID is empty for super admins.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	StationID string    `json:"stationId,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *Session) IsSuperAdmin() bool {
	return s != nil && s.Role == RoleSuperAdmin
}
