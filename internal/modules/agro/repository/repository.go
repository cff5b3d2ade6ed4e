package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"stationdesk-server/internal/modules/agro/types"
)

//go:embed sql/upsert-sunshine.sql
var upsertSunshineSQL string

//go:embed sql/list-sunshine.sql
var listSunshineSQL string

//go:embed sql/upsert-soil-moisture.sql
var upsertSoilMoistureSQL string

//go:embed sql/list-soil-moisture.sql
var listSoilMoistureSQL string

type AgroRepository interface {
	// UpsertSunshine stores the record, replacing the one for the same station and date.
	UpsertSunshine(ctx context.Context, rec types.SunshineRecord) error
	// ListSunshine returns records with from <= date <= to. An empty
	// stationID matches every station.
	ListSunshine(ctx context.Context, stationID, from, to string) ([]types.SunshineRecord, error)
	UpsertSoilMoisture(ctx context.Context, rec types.SoilMoistureRecord) error
	// ListSoilMoisture returns readings with from <= observed_at < to.
	ListSoilMoisture(ctx context.Context, stationID string, from, to time.Time) ([]types.SoilMoistureRecord, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) AgroRepository {
	return &repositoryImpl{db: db}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func (r *repositoryImpl) UpsertSunshine(ctx context.Context, rec types.SunshineRecord) error {
	if _, err := r.db.ExecContext(ctx, upsertSunshineSQL,
		rec.StationID, rec.Date, rec.Hours, rec.Source, formatTime(rec.UpdatedAt),
	); err != nil {
		return fmt.Errorf("upsert sunshine: %w", err)
	}
	return nil
}

func (r *repositoryImpl) ListSunshine(ctx context.Context, stationID, from, to string) ([]types.SunshineRecord, error) {
	rows, err := r.db.QueryContext(ctx, listSunshineSQL, stationID, stationID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list sunshine: %w", err)
	}
	defer closeRows(rows)

	out := []types.SunshineRecord{}
	for rows.Next() {
		var rec types.SunshineRecord
		var updated string
		if err := rows.Scan(&rec.StationID, &rec.Date, &rec.Hours, &rec.Source, &updated); err != nil {
			return nil, err
		}
		if rec.UpdatedAt, err = time.Parse(time.RFC3339, updated); err != nil {
			return nil, fmt.Errorf("parse updated_at %q: %w", updated, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) UpsertSoilMoisture(ctx context.Context, rec types.SoilMoistureRecord) error {
	if _, err := r.db.ExecContext(ctx, upsertSoilMoistureSQL,
		rec.StationID, formatTime(rec.ObservedAt), rec.DepthCM, rec.MoisturePct, rec.Source,
	); err != nil {
		return fmt.Errorf("upsert soil moisture: %w", err)
	}
	return nil
}

func (r *repositoryImpl) ListSoilMoisture(ctx context.Context, stationID string, from, to time.Time) ([]types.SoilMoistureRecord, error) {
	rows, err := r.db.QueryContext(ctx, listSoilMoistureSQL, stationID, stationID, formatTime(from), formatTime(to))
	if err != nil {
		return nil, fmt.Errorf("list soil moisture: %w", err)
	}
	defer closeRows(rows)

	out := []types.SoilMoistureRecord{}
	for rows.Next() {
		var rec types.SoilMoistureRecord
		var observed string
		if err := rows.Scan(&rec.StationID, &observed, &rec.DepthCM, &rec.MoisturePct, &rec.Source); err != nil {
			return nil, err
		}
		if rec.ObservedAt, err = time.Parse(time.RFC3339, observed); err != nil {
			return nil, fmt.Errorf("parse observed_at %q: %w", observed, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		slog.Error("close agro rows", "error", err)
	}
}
