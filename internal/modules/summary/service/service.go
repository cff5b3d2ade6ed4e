package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"stationdesk-server/internal/apperr"
	"stationdesk-server/internal/auth"
	obstypes "stationdesk-server/internal/modules/observation/types"
	stationtypes "stationdesk-server/internal/modules/station/types"
	"stationdesk-server/internal/modules/summary/repository"
	"stationdesk-server/internal/modules/summary/types"
)

// StationDirectory looks stations up without a scope check.
type StationDirectory interface {
	Resolve(ctx context.Context, id string) (stationtypes.Station, error)
	All(ctx context.Context) ([]stationtypes.Station, error)
}

// ObservationSource returns every observation of a station on a UTC day.
type ObservationSource interface {
	ListDay(ctx context.Context, stationID string, day time.Time) ([]obstypes.ObservationRecord, error)
}

type Service struct {
	repository   repository.SummaryRepository
	stations     StationDirectory
	observations ObservationSource
	logger       *slog.Logger
	now          func() time.Time
}

func NewService(repository repository.SummaryRepository, stations StationDirectory, observations ObservationSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repository:   repository,
		stations:     stations,
		observations: observations,
		logger:       logger.With("component", "summary"),
		now:          time.Now,
	}
}

// Compute recomputes the summary of a station within the caller's scope.
func (s *Service) Compute(ctx context.Context, session *auth.Session, req types.ComputeRequest) (types.DailySummary, error) {
	stationID, err := auth.RequireStation(session, req.StationID)
	if err != nil {
		return types.DailySummary{}, err
	}
	return s.ComputeDaily(ctx, stationID, req.Date)
}

// ComputeDaily aggregates stationID's observations on date (YYYY-MM-DD) and
// stores the result as the newest summary for that day.
func (s *Service) ComputeDaily(ctx context.Context, stationID, date string) (types.DailySummary, error) {
	day, err := parseDate(date)
	if err != nil {
		return types.DailySummary{}, err
	}
	station, err := s.stations.Resolve(ctx, stationID)
	if err != nil {
		return types.DailySummary{}, err
	}
	return s.compute(ctx, station, day)
}

// ComputeAll recomputes date's summary for every station. A failing station
// does not stop the others; their errors are joined.
func (s *Service) ComputeAll(ctx context.Context, date string) ([]types.DailySummary, error) {
	day, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	stations, err := s.stations.All(ctx)
	if err != nil {
		return nil, err
	}

	var (
		out  []types.DailySummary
		errs []error
	)
	for _, st := range stations {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		summary, err := s.compute(ctx, st, day)
		if err != nil {
			s.logger.Error("daily summary failed", "station_id", st.ID, "date", date, "error", err)
			errs = append(errs, fmt.Errorf("station %s: %w", st.StationNo, err))
			continue
		}
		out = append(out, summary)
	}
	return out, errors.Join(errs...)
}

func (s *Service) compute(ctx context.Context, station stationtypes.Station, day time.Time) (types.DailySummary, error) {
	records, err := s.observations.ListDay(ctx, station.ID, day)
	if err != nil {
		return types.DailySummary{}, err
	}
	summary, err := Aggregate(records, day.Format(time.DateOnly), station.StationNo)
	if err != nil {
		return types.DailySummary{}, apperr.InvalidInput(err.Error())
	}
	summary.StationID = station.ID
	summary.CreatedAt = s.now().UTC().Truncate(time.Millisecond)

	id, err := s.repository.Insert(ctx, summary)
	if err != nil {
		return types.DailySummary{}, apperr.Server("failed to save daily summary", err)
	}
	summary.ID = id
	s.logger.Info("daily summary computed", "station_id", station.ID, "date", summary.Date, "observations", len(records))
	return summary, nil
}

// Get returns the newest summary of one station for date.
func (s *Service) Get(ctx context.Context, session *auth.Session, stationID, date string) (types.DailySummary, error) {
	stationID, err := auth.RequireStation(session, stationID)
	if err != nil {
		return types.DailySummary{}, err
	}
	day, err := s.dateOrToday(date)
	if err != nil {
		return types.DailySummary{}, err
	}
	summary, err := s.repository.Latest(ctx, stationID, day)
	if errors.Is(err, repository.ErrNotFound) {
		return types.DailySummary{}, apperr.NotFound("no daily summary for " + day)
	}
	if err != nil {
		return types.DailySummary{}, apperr.Server("failed to load daily summary", err)
	}
	return summary, nil
}

// Latest returns the newest summary for date of every station the caller
// can see. An empty date means today.
func (s *Service) Latest(ctx context.Context, session *auth.Session, stationID, date string) ([]types.DailySummary, error) {
	stationID, err := auth.ScopeFilter(session, stationID)
	if err != nil {
		return nil, err
	}
	day, err := s.dateOrToday(date)
	if err != nil {
		return nil, err
	}
	summaries, err := s.repository.LatestForDate(ctx, stationID, day)
	if err != nil {
		return nil, apperr.Server("failed to load daily summaries", err)
	}
	return summaries, nil
}

// Yesterday is the UTC date before now, the day the nightly job summarises.
func (s *Service) Yesterday() string {
	return s.now().UTC().AddDate(0, 0, -1).Format(time.DateOnly)
}

// Today is the current UTC date.
func (s *Service) Today() string {
	return s.now().UTC().Format(time.DateOnly)
}

func (s *Service) dateOrToday(date string) (string, error) {
	if date == "" {
		return s.Today(), nil
	}
	day, err := parseDate(date)
	if err != nil {
		return "", err
	}
	return day.Format(time.DateOnly), nil
}

func parseDate(date string) (time.Time, error) {
	day, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return time.Time{}, apperr.InvalidInput(fmt.Sprintf("invalid date %q (expected YYYY-MM-DD)", date))
	}
	return day, nil
}
