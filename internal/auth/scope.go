package auth

import (
	"context"

	"stationdesk-server/internal/apperr"
)

type contextKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored by the middleware, if any.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*Session)
	return s, ok && s != nil
}

// ScopeFilter resolves the station filter a caller may use.
//
// Super admins get the requested station, or "" meaning every station.
// Everyone else is pinned to their own station; asking for a different one
// is Forbidden, and so is having no station at all.
func ScopeFilter(s *Session, requestedStationID string) (string, error) {
	if s == nil {
		return "", apperr.Unauthorized("authentication required")
	}
	if s.Role == RoleSuperAdmin {
		return requestedStationID, nil
	}
	if s.StationID == "" {
		return "", apperr.Forbidden("user is not assigned to a station")
	}
	if requestedStationID != "" && requestedStationID != s.StationID {
		return "", apperr.Forbidden("station is outside your scope")
	}
	return s.StationID, nil
}

// RequireStation is ScopeFilter for operations that need exactly one station.
// Super admins must name it explicitly.
func RequireStation(s *Session, requestedStationID string) (string, error) {
	stationID, err := ScopeFilter(s, requestedStationID)
	if err != nil {
		return "", err
	}
	if stationID == "" {
		return "", apperr.InvalidInput("stationId is required")
	}
	return stationID, nil
}

// RequireRole fails with Forbidden unless s has one of roles.
func RequireRole(s *Session, roles ...Role) error {
	if s == nil {
		return apperr.Unauthorized("authentication required")
	}
	for _, r := range roles {
		if s.Role == r {
			return nil
		}
	}
	return apperr.Forbidden("insufficient role")
}
