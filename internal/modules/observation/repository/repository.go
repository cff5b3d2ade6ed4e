package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"stationdesk-server/internal/modules/observation/types"
)

//go:embed sql/get-slot.sql
var getSlotSQL string

//go:embed sql/list-first-stage-by-time.sql
var listFirstStageByTimeSQL string

//go:embed sql/insert-observing-time.sql
var insertObservingTimeSQL string

//go:embed sql/insert-first-stage.sql
var insertFirstStageSQL string

//go:embed sql/insert-second-stage.sql
var insertSecondStageSQL string

//go:embed sql/list-observing-times.sql
var listObservingTimesSQL string

//go:embed sql/list-first-stage-in-range.sql
var listFirstStageInRangeSQL string

//go:embed sql/list-second-stage-in-range.sql
var listSecondStageInRangeSQL string

type ObservationRepository interface {
	// GetSlots reads the slot of stationID at each of utcTimes inside one
	// read transaction. A missing slot is returned as nil.
	GetSlots(ctx context.Context, stationID string, utcTimes ...time.Time) ([]*types.Slot, error)
	// CreateFirstStage opens the slot and stores its first-stage entry atomically.
	CreateFirstStage(ctx context.Context, ot types.ObservingTime, entry types.FirstStageEntry) error
	CreateSecondStage(ctx context.Context, entry types.SecondStageEntry) error
	// ListRange returns every slot of stationID with from <= utc_time < to.
	ListRange(ctx context.Context, stationID string, from, to time.Time) ([]types.ObservationRecord, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) ObservationRepository {
	return &repositoryImpl{db: db}
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func (r *repositoryImpl) GetSlots(ctx context.Context, stationID string, utcTimes ...time.Time) ([]*types.Slot, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin slot lookup: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	out := make([]*types.Slot, len(utcTimes))
	for i, t := range utcTimes {
		slot, err := getSlot(ctx, tx, stationID, t)
		if err != nil {
			return nil, err
		}
		out[i] = slot
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit slot lookup: %w", err)
	}
	return out, nil
}

func getSlot(ctx context.Context, q queryer, stationID string, t time.Time) (*types.Slot, error) {
	var slot types.Slot
	var utc, local, created string
	err := q.QueryRowContext(ctx, getSlotSQL, stationID, formatTime(t)).Scan(
		&slot.Time.ID, &slot.Time.StationID, &utc, &local, &slot.Time.UserID, &created,
		&slot.FirstStageCount, &slot.SecondStageCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get slot %s: %w", formatTime(t), err)
	}
	if err := fillTimes(&slot.Time, utc, local, created); err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, listFirstStageByTimeSQL, slot.Time.ID)
	if err != nil {
		return nil, fmt.Errorf("list first stage entries: %w", err)
	}
	defer closeRows(rows)
	slot.FirstStageEntries = []types.FirstStageEntry{}
	for rows.Next() {
		e, err := scanFirstStage(rows)
		if err != nil {
			return nil, err
		}
		slot.FirstStageEntries = append(slot.FirstStageEntries, e)
	}
	return &slot, rows.Err()
}

func fillTimes(ot *types.ObservingTime, utc, local, created string) error {
	var err error
	if ot.UTCTime, err = parseTime(utc); err != nil {
		return err
	}
	if ot.LocalTime, err = parseTime(local); err != nil {
		return err
	}
	if ot.CreatedAt, err = parseTime(created); err != nil {
		return err
	}
	return nil
}

func (r *repositoryImpl) CreateFirstStage(ctx context.Context, ot types.ObservingTime, entry types.FirstStageEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin first stage: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, insertObservingTimeSQL,
		ot.ID, ot.StationID, formatTime(ot.UTCTime), ot.LocalTime.Format(time.RFC3339), nullString(ot.UserID), formatTime(ot.CreatedAt),
	); err != nil {
		return fmt.Errorf("insert observing time: %w", err)
	}

	args := append([]any{entry.ID, entry.ObservingTimeID, nullString(entry.UserID), formatTime(entry.CreatedAt)},
		firstStageValues(entry.FirstStageFields)...)
	if _, err := tx.ExecContext(ctx, insertFirstStageSQL, args...); err != nil {
		return fmt.Errorf("insert first stage entry: %w", err)
	}
	return tx.Commit()
}

func (r *repositoryImpl) CreateSecondStage(ctx context.Context, entry types.SecondStageEntry) error {
	args := append([]any{entry.ID, entry.ObservingTimeID, nullString(entry.UserID), formatTime(entry.CreatedAt)},
		secondStageValues(entry.SecondStageFields)...)
	if _, err := r.db.ExecContext(ctx, insertSecondStageSQL, args...); err != nil {
		return fmt.Errorf("insert second stage entry: %w", err)
	}
	return nil
}

func (r *repositoryImpl) ListRange(ctx context.Context, stationID string, from, to time.Time) ([]types.ObservationRecord, error) {
	fromStr, toStr := formatTime(from), formatTime(to)

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin list observations: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	records, index, err := listObservingTimes(ctx, tx, stationID, fromStr, toStr)
	if err != nil {
		return nil, err
	}

	firstRows, err := tx.QueryContext(ctx, listFirstStageInRangeSQL, stationID, fromStr, toStr)
	if err != nil {
		return nil, fmt.Errorf("list first stage entries: %w", err)
	}
	for firstRows.Next() {
		e, err := scanFirstStage(firstRows)
		if err != nil {
			closeRows(firstRows)
			return nil, err
		}
		if i, ok := index[e.ObservingTimeID]; ok {
			records[i].FirstStage = append(records[i].FirstStage, e)
		}
	}
	closeRows(firstRows)
	if err := firstRows.Err(); err != nil {
		return nil, err
	}

	secondRows, err := tx.QueryContext(ctx, listSecondStageInRangeSQL, stationID, fromStr, toStr)
	if err != nil {
		return nil, fmt.Errorf("list second stage entries: %w", err)
	}
	for secondRows.Next() {
		e, err := scanSecondStage(secondRows)
		if err != nil {
			closeRows(secondRows)
			return nil, err
		}
		if i, ok := index[e.ObservingTimeID]; ok {
			records[i].SecondStage = append(records[i].SecondStage, e)
		}
	}
	closeRows(secondRows)
	if err := secondRows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit list observations: %w", err)
	}
	return records, nil
}

func listObservingTimes(ctx context.Context, q queryer, stationID, from, to string) ([]types.ObservationRecord, map[string]int, error) {
	rows, err := q.QueryContext(ctx, listObservingTimesSQL, stationID, from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("list observing times: %w", err)
	}
	defer closeRows(rows)

	records := []types.ObservationRecord{}
	index := make(map[string]int)
	for rows.Next() {
		var rec types.ObservationRecord
		var utc, local, created string
		if err := rows.Scan(&rec.ID, &rec.StationID, &utc, &local, &rec.UserID, &created); err != nil {
			return nil, nil, err
		}
		if err := fillTimes(&rec.ObservingTime, utc, local, created); err != nil {
			return nil, nil, err
		}
		rec.FirstStage = []types.FirstStageEntry{}
		rec.SecondStage = []types.SecondStageEntry{}
		index[rec.ID] = len(records)
		records = append(records, rec)
	}
	return records, index, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFirstStage(row rowScanner) (types.FirstStageEntry, error) {
	var e types.FirstStageEntry
	var created string
	dest := append([]any{&e.ID, &e.ObservingTimeID, &e.UserID, &created}, firstStagePointers(&e.FirstStageFields)...)
	if err := row.Scan(dest...); err != nil {
		return types.FirstStageEntry{}, err
	}
	t, err := parseTime(created)
	if err != nil {
		return types.FirstStageEntry{}, err
	}
	e.CreatedAt = t
	return e, nil
}

func scanSecondStage(row rowScanner) (types.SecondStageEntry, error) {
	var e types.SecondStageEntry
	var created string
	dest := append([]any{&e.ID, &e.ObservingTimeID, &e.UserID, &created}, secondStagePointers(&e.SecondStageFields)...)
	if err := row.Scan(dest...); err != nil {
		return types.SecondStageEntry{}, err
	}
	t, err := parseTime(created)
	if err != nil {
		return types.SecondStageEntry{}, err
	}
	e.CreatedAt = t
	return e, nil
}

// Column order of the first_stage_entries measurement columns.
func firstStagePointers(f *types.FirstStageFields) []any {
	return []any{
		&f.SubIndicator, &f.AlteredThermometer, &f.BarAsRead, &f.CorrectedForIndex,
		&f.HeightDifferenceCorrection, &f.StationLevelPressure, &f.SeaLevelReduction,
		&f.CorrectedSeaLevelPressure, &f.AfternoonReading, &f.PressureChange24h,
		&f.DryBulbAsRead, &f.WetBulbAsRead, &f.MaxMinTempAsRead,
		&f.DryBulbCorrected, &f.WetBulbCorrected, &f.MaxMinTempCorrected,
		&f.DewPoint, &f.RelativeHumidity, &f.HorizontalVisibility,
		&f.PresentWeatherWW, &f.PastWeatherW1, &f.PastWeatherW2,
	}
}

func firstStageValues(f types.FirstStageFields) []any {
	ptrs := firstStagePointers(&f)
	out := make([]any, len(ptrs))
	for i, p := range ptrs {
		out[i] = *(p.(*string))
	}
	return out
}

// Column order of the second_stage_entries measurement columns.
func secondStagePointers(f *types.SecondStageFields) []any {
	return []any{
		&f.LowCloudForm, &f.LowCloudAmount, &f.LowCloudHeight, &f.TotalCloudAmount,
		&f.RainfallTimeStart, &f.RainfallTimeEnd, &f.RainfallSincePrevious,
		&f.RainfallDuringPrevious, &f.RainfallLast24Hours,
		&f.WindFirstAnemometer, &f.WindSecondAnemometer, &f.WindSpeed, &f.WindDirection,
		&f.ObserverInitial,
	}
}

func secondStageValues(f types.SecondStageFields) []any {
	ptrs := secondStagePointers(&f)
	out := make([]any, len(ptrs))
	for i, p := range ptrs {
		out[i] = *(p.(*string))
	}
	return out
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		slog.Error("close observation rows", "error", err)
	}
}
