package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"stationdesk-server/internal/modules/summary/types"
)

//go:embed sql/insert-summary.sql
var insertSummarySQL string

//go:embed sql/get-latest-summary.sql
var getLatestSummarySQL string

//go:embed sql/list-latest-summaries.sql
var listLatestSummariesSQL string

var ErrNotFound = errors.New("daily summary not found")

// createdAtLayout keeps millisecond precision so recomputations in the same
// second still order correctly.
const createdAtLayout = "2006-01-02T15:04:05.000Z"

type SummaryRepository interface {
	// Insert stores s as a new row. Earlier rows for the same station and
	// date are kept; readers take the newest.
	Insert(ctx context.Context, s types.DailySummary) (int64, error)
	Latest(ctx context.Context, stationID, date string) (types.DailySummary, error)
	// LatestForDate returns the newest summary of each station for date,
	// restricted to stationID when it is not empty.
	LatestForDate(ctx context.Context, stationID, date string) ([]types.DailySummary, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) SummaryRepository {
	return &repositoryImpl{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *repositoryImpl) Insert(ctx context.Context, s types.DailySummary) (int64, error) {
	measurements, err := json.Marshal(s.Measurements)
	if err != nil {
		return 0, fmt.Errorf("encode measurements: %w", err)
	}
	res, err := r.db.ExecContext(ctx, insertSummarySQL,
		s.StationID, s.Date, s.DataType, string(measurements), s.CreatedAt.UTC().Format(createdAtLayout))
	if err != nil {
		return 0, fmt.Errorf("insert daily summary: %w", err)
	}
	return res.LastInsertId()
}

func (r *repositoryImpl) Latest(ctx context.Context, stationID, date string) (types.DailySummary, error) {
	s, err := scanSummary(r.db.QueryRowContext(ctx, getLatestSummarySQL, stationID, date))
	if errors.Is(err, sql.ErrNoRows) {
		return types.DailySummary{}, ErrNotFound
	}
	return s, err
}

func (r *repositoryImpl) LatestForDate(ctx context.Context, stationID, date string) ([]types.DailySummary, error) {
	rows, err := r.db.QueryContext(ctx, listLatestSummariesSQL, date, stationID, stationID)
	if err != nil {
		return nil, fmt.Errorf("list daily summaries: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close summary rows", "error", err)
		}
	}()

	out := []types.DailySummary{}
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanSummary(row rowScanner) (types.DailySummary, error) {
	var s types.DailySummary
	var measurements, created string
	if err := row.Scan(&s.ID, &s.StationID, &s.StationNo, &s.Date, &s.DataType, &measurements, &created); err != nil {
		return types.DailySummary{}, err
	}
	if err := json.Unmarshal([]byte(measurements), &s.Measurements); err != nil {
		return types.DailySummary{}, fmt.Errorf("decode measurements of summary %d: %w", s.ID, err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return types.DailySummary{}, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	s.CreatedAt = createdAt
	if day, err := time.Parse(time.DateOnly, s.Date); err == nil {
		s.Year, s.Month, s.Day = day.Year(), int(day.Month()), day.Day()
	}
	return s, nil
}
