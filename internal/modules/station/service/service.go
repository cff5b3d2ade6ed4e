package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"stationdesk-server/internal/apperr"
	"stationdesk-server/internal/auth"
	"stationdesk-server/internal/db"
	"stationdesk-server/internal/modules/station/repository"
	"stationdesk-server/internal/modules/station/types"
)

type Service struct {
	repository repository.StationRepository
}

func NewService(repository repository.StationRepository) *Service {
	return &Service{repository: repository}
}

// List returns the stations visible to the caller.
func (s *Service) List(ctx context.Context, session *auth.Session, requestedID string) ([]types.Station, error) {
	stationID, err := auth.ScopeFilter(session, requestedID)
	if err != nil {
		return nil, err
	}
	stations, err := s.repository.List(ctx, stationID)
	if err != nil {
		return nil, apperr.Server("failed to load stations", err)
	}
	return stations, nil
}

func (s *Service) Get(ctx context.Context, session *auth.Session, id string) (types.Station, error) {
	if _, err := auth.RequireStation(session, id); err != nil {
		return types.Station{}, err
	}
	return s.load(ctx, id)
}

func (s *Service) Create(ctx context.Context, session *auth.Session, in types.StationInput) (types.Station, error) {
	if err := auth.RequireRole(session, auth.RoleSuperAdmin); err != nil {
		return types.Station{}, err
	}
	st := in.Station(uuid.NewString())
	if err := s.repository.Create(ctx, st); err != nil {
		if db.IsUniqueViolation(err) {
			return types.Station{}, apperr.Conflict("station number already exists")
		}
		return types.Station{}, apperr.Server("failed to create station", err)
	}
	return st, nil
}

// Update is open to super admins and to the station admin of that station.
func (s *Service) Update(ctx context.Context, session *auth.Session, id string, in types.StationInput) (types.Station, error) {
	if err := auth.RequireRole(session, auth.RoleSuperAdmin, auth.RoleStationAdmin); err != nil {
		return types.Station{}, err
	}
	if _, err := auth.RequireStation(session, id); err != nil {
		return types.Station{}, err
	}
	st := in.Station(id)
	err := s.repository.Update(ctx, st)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return types.Station{}, apperr.NotFound("station not found")
	case db.IsUniqueViolation(err):
		return types.Station{}, apperr.Conflict("station number already exists")
	case err != nil:
		return types.Station{}, apperr.Server("failed to update station", err)
	}
	return st, nil
}

func (s *Service) Delete(ctx context.Context, session *auth.Session, id string) error {
	if err := auth.RequireRole(session, auth.RoleSuperAdmin); err != nil {
		return err
	}
	err := s.repository.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("station not found")
	}
	if err != nil {
		return apperr.Server("failed to delete station", err)
	}
	return nil
}

// Resolve loads a station without a scope check. Used by background jobs
// and telemetry ingest, which act on behalf of the system.
func (s *Service) Resolve(ctx context.Context, id string) (types.Station, error) {
	return s.load(ctx, id)
}

// ResolveByNo looks a station up by its WMO number.
func (s *Service) ResolveByNo(ctx context.Context, stationNo string) (types.Station, error) {
	st, err := s.repository.GetByNo(ctx, stationNo)
	if errors.Is(err, repository.ErrNotFound) {
		return types.Station{}, apperr.NotFound("station " + stationNo + " not found")
	}
	if err != nil {
		return types.Station{}, apperr.Server("failed to load station", err)
	}
	return st, nil
}

// All lists every station without a scope check.
func (s *Service) All(ctx context.Context) ([]types.Station, error) {
	stations, err := s.repository.List(ctx, "")
	if err != nil {
		return nil, apperr.Server("failed to load stations", err)
	}
	return stations, nil
}

func (s *Service) load(ctx context.Context, id string) (types.Station, error) {
	st, err := s.repository.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return types.Station{}, apperr.NotFound("station not found")
	}
	if err != nil {
		return types.Station{}, apperr.Server("failed to load station", err)
	}
	return st, nil
}
