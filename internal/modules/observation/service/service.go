package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"stationdesk-server/internal/apperr"
	"stationdesk-server/internal/auth"
	"stationdesk-server/internal/db"
	"stationdesk-server/internal/modules/observation/repository"
	"stationdesk-server/internal/modules/observation/types"
	stationtypes "stationdesk-server/internal/modules/station/types"
)

const (
	msgFirstCardOpen   = "No observation yet for this hour; first card available"
	msgSecondCardOpen  = "First card submitted; second card available"
	msgSlotClosed      = "Observation already completed for this hour"
	msgFirstCardExists = "First card already submitted for this hour"
)

// StationResolver loads a station by id.
type StationResolver interface {
	Resolve(ctx context.Context, id string) (stationtypes.Station, error)
}

type Service struct {
	repository repository.ObservationRepository
	stations   StationResolver
	logger     *slog.Logger
	now        func() time.Time
}

func NewService(repository repository.ObservationRepository, stations StationResolver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repository: repository,
		stations:   stations,
		logger:     logger.With("component", "observation"),
		now:        time.Now,
	}
}

// CheckSlot reports which cards stationID may submit now for hour. It never
// writes. Yesterday's first-stage entries are returned for pre-filling.
func (s *Service) CheckSlot(ctx context.Context, hour, stationID string) (types.SlotDecision, error) {
	today, yesterday, err := synopticSlot(hour, s.now())
	if err != nil {
		return types.SlotDecision{}, err
	}
	slots, err := s.repository.GetSlots(ctx, stationID, today, yesterday)
	if err != nil {
		return types.SlotDecision{}, apperr.Server("failed to check observation slot", err)
	}
	return decide(slots[0], slots[1]), nil
}

func decide(today, yesterday *types.Slot) types.SlotDecision {
	d := types.SlotDecision{
		Yesterday: types.YesterdayData{FirstStageEntries: []types.FirstStageEntry{}},
	}
	if yesterday != nil && yesterday.FirstStageEntries != nil {
		d.Yesterday.FirstStageEntries = yesterday.FirstStageEntries
	}

	switch {
	case today == nil:
		d.AllowFirstCard = true
		d.Message = msgFirstCardOpen
	case today.SecondStageCount > 0:
		d.Message = msgSlotClosed
	default:
		d.AllowSecondCard = true
		d.Message = msgSecondCardOpen
	}
	if today != nil {
		ot := today.Time
		d.Time = &ot
	}
	return d
}

// SubmitFirstStage opens today's slot for the hour and stores the
// meteorological entry. A slot that already exists is a Conflict, including
// when a concurrent submission wins the unique (station, utc_time) key.
func (s *Service) SubmitFirstStage(ctx context.Context, session *auth.Session, req types.FirstStageRequest) (types.ObservationRecord, error) {
	stationID, err := auth.RequireStation(session, req.StationID)
	if err != nil {
		return types.ObservationRecord{}, err
	}
	now := s.now()
	today, _, err := synopticSlot(req.Hour, now)
	if err != nil {
		return types.ObservationRecord{}, err
	}
	station, err := s.stations.Resolve(ctx, stationID)
	if err != nil {
		return types.ObservationRecord{}, err
	}

	slots, err := s.repository.GetSlots(ctx, stationID, today)
	if err != nil {
		return types.ObservationRecord{}, apperr.Server("failed to check observation slot", err)
	}
	if slots[0] != nil {
		return types.ObservationRecord{}, apperr.Conflict(msgFirstCardExists)
	}

	createdAt := now.UTC().Truncate(time.Second)
	ot := types.ObservingTime{
		ID:        uuid.NewString(),
		StationID: stationID,
		UTCTime:   today,
		LocalTime: today.In(s.location(station)),
		UserID:    session.UserID,
		CreatedAt: createdAt,
	}
	entry := types.FirstStageEntry{
		ID:               uuid.NewString(),
		ObservingTimeID:  ot.ID,
		UserID:           session.UserID,
		CreatedAt:        createdAt,
		FirstStageFields: req.FirstStageFields,
	}
	if err := s.repository.CreateFirstStage(ctx, ot, entry); err != nil {
		if db.IsUniqueViolation(err) {
			s.logger.Info("first stage lost slot race", "station_id", stationID, "utc_time", today)
			return types.ObservationRecord{}, apperr.Conflict(msgFirstCardExists)
		}
		return types.ObservationRecord{}, apperr.Server("failed to save first card", err)
	}
	s.logger.Info("first stage submitted", "station_id", stationID, "hour", req.Hour, "user_id", session.UserID)

	return types.ObservationRecord{
		ObservingTime: ot,
		FirstStage:    []types.FirstStageEntry{entry},
		SecondStage:   []types.SecondStageEntry{},
	}, nil
}

// SubmitSecondStage stores the weather observation for today's slot of the
// hour, closing it.
func (s *Service) SubmitSecondStage(ctx context.Context, session *auth.Session, req types.SecondStageRequest) (types.SecondStageEntry, error) {
	stationID, err := auth.RequireStation(session, req.StationID)
	if err != nil {
		return types.SecondStageEntry{}, err
	}
	now := s.now()
	today, _, err := synopticSlot(req.Hour, now)
	if err != nil {
		return types.SecondStageEntry{}, err
	}

	slots, err := s.repository.GetSlots(ctx, stationID, today)
	if err != nil {
		return types.SecondStageEntry{}, apperr.Server("failed to check observation slot", err)
	}
	slot := slots[0]
	if slot == nil {
		return types.SecondStageEntry{}, apperr.NotFound("no first card submitted for this hour")
	}
	if slot.SecondStageCount > 0 {
		return types.SecondStageEntry{}, apperr.Conflict(msgSlotClosed)
	}

	entry := types.SecondStageEntry{
		ID:                uuid.NewString(),
		ObservingTimeID:   slot.Time.ID,
		UserID:            session.UserID,
		CreatedAt:         now.UTC().Truncate(time.Second),
		SecondStageFields: req.SecondStageFields,
	}
	if err := s.repository.CreateSecondStage(ctx, entry); err != nil {
		switch {
		case db.IsUniqueViolation(err):
			return types.SecondStageEntry{}, apperr.Conflict(msgSlotClosed)
		case db.IsForeignKeyViolation(err):
			return types.SecondStageEntry{}, apperr.NotFound("no first card submitted for this hour")
		}
		return types.SecondStageEntry{}, apperr.Server("failed to save second card", err)
	}
	s.logger.Info("second stage submitted", "station_id", stationID, "hour", req.Hour, "user_id", session.UserID)
	return entry, nil
}

// ListObservations returns one UTC day of observations of a station within
// the caller's scope. An empty date means today.
func (s *Service) ListObservations(ctx context.Context, session *auth.Session, stationID, date string) ([]types.ObservationRecord, error) {
	stationID, err := auth.RequireStation(session, stationID)
	if err != nil {
		return nil, err
	}
	day := s.now().UTC().Truncate(24 * time.Hour)
	if date != "" {
		day, err = time.Parse(time.DateOnly, date)
		if err != nil {
			return nil, apperr.InvalidInput(fmt.Sprintf("invalid date %q (expected YYYY-MM-DD)", date))
		}
	}
	return s.ListDay(ctx, stationID, day)
}

// ListDay returns every observation of stationID on day's UTC calendar date.
func (s *Service) ListDay(ctx context.Context, stationID string, day time.Time) ([]types.ObservationRecord, error) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	records, err := s.repository.ListRange(ctx, stationID, from, from.Add(24*time.Hour))
	if err != nil {
		return nil, apperr.Server("failed to load observations", err)
	}
	return records, nil
}

func (s *Service) location(st stationtypes.Station) *time.Location {
	if st.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(st.Timezone)
	if err != nil {
		s.logger.Warn("unknown station timezone, using UTC", "station_id", st.ID, "timezone", st.Timezone, "error", err)
		return time.UTC
	}
	return loc
}
