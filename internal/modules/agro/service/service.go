package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"stationdesk-server/internal/apperr"
	"stationdesk-server/internal/auth"
	"stationdesk-server/internal/db"
	"stationdesk-server/internal/modules/agro/repository"
	"stationdesk-server/internal/modules/agro/types"
	stationtypes "stationdesk-server/internal/modules/station/types"
	"stationdesk-server/internal/mqtt"
)

// defaultWindow is how far back a listing reaches when no start date is given.
const defaultWindow = 30 * 24 * time.Hour

// StationLookup finds the station a sensor reports for by its number.
type StationLookup interface {
	ResolveByNo(ctx context.Context, stationNo string) (stationtypes.Station, error)
}

type Service struct {
	repository repository.AgroRepository
	stations   StationLookup
	logger     *slog.Logger
	now        func() time.Time
}

func NewService(repository repository.AgroRepository, stations StationLookup, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repository: repository,
		stations:   stations,
		logger:     logger.With("component", "agro"),
		now:        time.Now,
	}
}

func (s *Service) RecordSunshine(ctx context.Context, session *auth.Session, in types.SunshineInput) (types.SunshineRecord, error) {
	stationID, err := auth.RequireStation(session, in.StationID)
	if err != nil {
		return types.SunshineRecord{}, err
	}
	rec := types.SunshineRecord{
		StationID: stationID,
		Date:      in.Date,
		Hours:     *in.Hours,
		Source:    types.SourceManual,
		UpdatedAt: s.now().UTC().Truncate(time.Second),
	}
	if err := s.saveSunshine(ctx, rec); err != nil {
		return types.SunshineRecord{}, err
	}
	return rec, nil
}

func (s *Service) ListSunshine(ctx context.Context, session *auth.Session, stationID, from, to string) ([]types.SunshineRecord, error) {
	stationID, err := auth.ScopeFilter(session, stationID)
	if err != nil {
		return nil, err
	}
	start, end, err := s.window(from, to)
	if err != nil {
		return nil, err
	}
	records, err := s.repository.ListSunshine(ctx, stationID, start.Format(time.DateOnly), end.Format(time.DateOnly))
	if err != nil {
		return nil, apperr.Server("failed to load sunshine records", err)
	}
	return records, nil
}

func (s *Service) RecordSoilMoisture(ctx context.Context, session *auth.Session, in types.SoilMoistureInput) (types.SoilMoistureRecord, error) {
	stationID, err := auth.RequireStation(session, in.StationID)
	if err != nil {
		return types.SoilMoistureRecord{}, err
	}
	rec := types.SoilMoistureRecord{
		StationID:   stationID,
		ObservedAt:  in.ObservedAt.UTC().Truncate(time.Second),
		DepthCM:     in.DepthCM,
		MoisturePct: *in.MoisturePct,
		Source:      types.SourceManual,
	}
	if err := s.saveSoilMoisture(ctx, rec); err != nil {
		return types.SoilMoistureRecord{}, err
	}
	return rec, nil
}

// ListSoilMoisture returns readings observed on the UTC dates from..to inclusive.
func (s *Service) ListSoilMoisture(ctx context.Context, session *auth.Session, stationID, from, to string) ([]types.SoilMoistureRecord, error) {
	stationID, err := auth.ScopeFilter(session, stationID)
	if err != nil {
		return nil, err
	}
	start, end, err := s.window(from, to)
	if err != nil {
		return nil, err
	}
	records, err := s.repository.ListSoilMoisture(ctx, stationID, start, end.AddDate(0, 0, 1))
	if err != nil {
		return nil, apperr.Server("failed to load soil moisture records", err)
	}
	return records, nil
}

// IngestTelemetry stores a reading published by an automatic sensor.
func (s *Service) IngestTelemetry(ctx context.Context, t mqtt.Telemetry) error {
	station, err := s.stations.ResolveByNo(ctx, t.StationNo)
	if err != nil {
		return err
	}

	switch t.Kind {
	case mqtt.KindSunshine:
		date := t.Date
		if date == "" {
			date = t.Timestamp.UTC().Format(time.DateOnly)
		}
		return s.saveSunshine(ctx, types.SunshineRecord{
			StationID: station.ID,
			Date:      date,
			Hours:     *t.Hours,
			Source:    types.SourceSensor,
			UpdatedAt: t.Timestamp.UTC().Truncate(time.Second),
		})
	case mqtt.KindSoilMoisture:
		return s.saveSoilMoisture(ctx, types.SoilMoistureRecord{
			StationID:   station.ID,
			ObservedAt:  t.Timestamp.UTC().Truncate(time.Second),
			DepthCM:     *t.DepthCM,
			MoisturePct: *t.MoisturePct,
			Source:      types.SourceSensor,
		})
	}
	return apperr.InvalidInput(fmt.Sprintf("unsupported telemetry kind %q", t.Kind))
}

func (s *Service) saveSunshine(ctx context.Context, rec types.SunshineRecord) error {
	if err := s.repository.UpsertSunshine(ctx, rec); err != nil {
		if db.IsForeignKeyViolation(err) {
			return apperr.NotFound("station not found")
		}
		return apperr.Server("failed to save sunshine record", err)
	}
	s.logger.Debug("sunshine recorded", "station_id", rec.StationID, "date", rec.Date, "source", rec.Source)
	return nil
}

func (s *Service) saveSoilMoisture(ctx context.Context, rec types.SoilMoistureRecord) error {
	if err := s.repository.UpsertSoilMoisture(ctx, rec); err != nil {
		if db.IsForeignKeyViolation(err) {
			return apperr.NotFound("station not found")
		}
		return apperr.Server("failed to save soil moisture record", err)
	}
	s.logger.Debug("soil moisture recorded", "station_id", rec.StationID, "depth_cm", rec.DepthCM, "source", rec.Source)
	return nil
}

// window parses an inclusive date range. A missing end is today and a
// missing start reaches defaultWindow back from the end.
func (s *Service) window(from, to string) (time.Time, time.Time, error) {
	end := s.now().UTC().Truncate(24 * time.Hour)
	if to != "" {
		t, err := time.Parse(time.DateOnly, to)
		if err != nil {
			return time.Time{}, time.Time{}, apperr.InvalidInput(fmt.Sprintf("invalid to %q (expected YYYY-MM-DD)", to))
		}
		end = t
	}
	start := end.Add(-defaultWindow)
	if from != "" {
		t, err := time.Parse(time.DateOnly, from)
		if err != nil {
			return time.Time{}, time.Time{}, apperr.InvalidInput(fmt.Sprintf("invalid from %q (expected YYYY-MM-DD)", from))
		}
		start = t
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, apperr.InvalidInput("from must not be after to")
	}
	return start, end, nil
}
