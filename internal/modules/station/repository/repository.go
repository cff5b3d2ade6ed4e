package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"stationdesk-server/internal/modules/station/types"
)

//go:embed sql/list-stations.sql
var listStationsSQL string

//go:embed sql/get-station.sql
var getStationSQL string

//go:embed sql/get-station-by-no.sql
var getStationByNoSQL string

//go:embed sql/insert-station.sql
var insertStationSQL string

//go:embed sql/update-station.sql
var updateStationSQL string

//go:embed sql/upsert-station.sql
var upsertStationSQL string

//go:embed sql/delete-station.sql
var deleteStationSQL string

var ErrNotFound = errors.New("station not found")

type StationRepository interface {
	// List returns every station, or only stationID when it is not empty.
	List(ctx context.Context, stationID string) ([]types.Station, error)
	Get(ctx context.Context, id string) (types.Station, error)
	GetByNo(ctx context.Context, stationNo string) (types.Station, error)
	Create(ctx context.Context, s types.Station) error
	Update(ctx context.Context, s types.Station) error
	// Upsert inserts s or updates the station with the same number, returning its id.
	Upsert(ctx context.Context, s types.Station) (string, error)
	Delete(ctx context.Context, id string) error
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) StationRepository {
	return &repositoryImpl{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStation(row rowScanner) (types.Station, error) {
	var s types.Station
	var lat, lon, elev sql.NullFloat64
	if err := row.Scan(&s.ID, &s.StationNo, &s.Name, &lat, &lon, &elev, &s.Timezone); err != nil {
		return types.Station{}, err
	}
	s.Latitude = floatPtr(lat)
	s.Longitude = floatPtr(lon)
	s.Elevation = floatPtr(elev)
	return s, nil
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullable(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func (r *repositoryImpl) List(ctx context.Context, stationID string) ([]types.Station, error) {
	rows, err := r.db.QueryContext(ctx, listStationsSQL, stationID, stationID)
	if err != nil {
		return nil, fmt.Errorf("list stations: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close stations rows", "error", err)
		}
	}()
	out := []types.Station{}
	for rows.Next() {
		s, err := scanStation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) Get(ctx context.Context, id string) (types.Station, error) {
	s, err := scanStation(r.db.QueryRowContext(ctx, getStationSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return types.Station{}, ErrNotFound
	}
	return s, err
}

func (r *repositoryImpl) GetByNo(ctx context.Context, stationNo string) (types.Station, error) {
	s, err := scanStation(r.db.QueryRowContext(ctx, getStationByNoSQL, stationNo))
	if errors.Is(err, sql.ErrNoRows) {
		return types.Station{}, ErrNotFound
	}
	return s, err
}

func (r *repositoryImpl) Create(ctx context.Context, s types.Station) error {
	_, err := r.db.ExecContext(ctx, insertStationSQL,
		s.ID, s.StationNo, s.Name, nullable(s.Latitude), nullable(s.Longitude), nullable(s.Elevation), s.Timezone)
	if err != nil {
		return fmt.Errorf("insert station: %w", err)
	}
	return nil
}

func (r *repositoryImpl) Update(ctx context.Context, s types.Station) error {
	res, err := r.db.ExecContext(ctx, updateStationSQL,
		s.StationNo, s.Name, nullable(s.Latitude), nullable(s.Longitude), nullable(s.Elevation), s.Timezone, s.ID)
	if err != nil {
		return fmt.Errorf("update station: %w", err)
	}
	return requireRow(res)
}

func (r *repositoryImpl) Upsert(ctx context.Context, s types.Station) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx, upsertStationSQL,
		s.ID, s.StationNo, s.Name, nullable(s.Latitude), nullable(s.Longitude), nullable(s.Elevation), s.Timezone).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("upsert station %s: %w", s.StationNo, err)
	}
	return id, nil
}

func (r *repositoryImpl) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, deleteStationSQL, id)
	if err != nil {
		return fmt.Errorf("delete station: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
