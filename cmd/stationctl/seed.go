package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"

	"stationdesk-server/internal/auth"
	"stationdesk-server/internal/modules/station/repository"
	"stationdesk-server/internal/modules/station/types"
)

// SeedFile is the TOML document read by "stationctl seed".
//
//	[[stations]]
//	station_no = "41923"
//	name = "Dhaka"
//	timezone = "Asia/Dhaka"
//
//	[[users]]
//	username = "rahim"
//	password = "change-me"
//	role = "observer"
//	station_no = "41923"
type SeedFile struct {
	Stations []SeedStation `toml:"stations"`
	Users    []SeedUser    `toml:"users"`
}

type SeedStation struct {
	StationNo string   `toml:"station_no"`
	Name      string   `toml:"name"`
	Latitude  *float64 `toml:"latitude"`
	Longitude *float64 `toml:"longitude"`
	Elevation *float64 `toml:"elevation"`
	Timezone  string   `toml:"timezone"`
}

type SeedUser struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
	Role     string `toml:"role"`
	// StationNo is required for every role except super_admin.
	StationNo string `toml:"station_no"`
}

func loadSeedFile(path string) (SeedFile, error) {
	var seed SeedFile
	meta, err := toml.DecodeFile(path, &seed)
	if err != nil {
		return SeedFile{}, fmt.Errorf("read seed %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return SeedFile{}, fmt.Errorf("read seed %s: unknown key %q", path, undecoded[0].String())
	}
	if err := seed.validate(); err != nil {
		return SeedFile{}, fmt.Errorf("seed %s: %w", path, err)
	}
	return seed, nil
}

func (f SeedFile) validate() error {
	known := make(map[string]bool, len(f.Stations))
	for i, s := range f.Stations {
		if s.StationNo == "" || s.Name == "" {
			return fmt.Errorf("stations[%d]: station_no and name are required", i)
		}
		known[s.StationNo] = true
	}
	var errs []error
	for i, u := range f.Users {
		role := auth.Role(u.Role)
		switch {
		case u.Username == "" || u.Password == "":
			errs = append(errs, fmt.Errorf("users[%d]: username and password are required", i))
		case !role.Valid():
			errs = append(errs, fmt.Errorf("users[%d]: invalid role %q", i, u.Role))
		case role != auth.RoleSuperAdmin && u.StationNo == "":
			errs = append(errs, fmt.Errorf("users[%d]: %s needs a station_no", i, u.Role))
		case u.StationNo != "" && !known[u.StationNo]:
			errs = append(errs, fmt.Errorf("users[%d]: unknown station_no %q", i, u.StationNo))
		}
	}
	return errors.Join(errs...)
}

// applySeed upserts stations by number and users by username.
func applySeed(ctx context.Context, conn *sql.DB, seed SeedFile) (int, int, error) {
	stations := repository.NewRepository(conn)
	ids := make(map[string]string, len(seed.Stations))
	for _, s := range seed.Stations {
		tz := s.Timezone
		if tz == "" {
			tz = "UTC"
		}
		id, err := stations.Upsert(ctx, types.Station{
			ID:        uuid.NewString(),
			StationNo: s.StationNo,
			Name:      s.Name,
			Latitude:  s.Latitude,
			Longitude: s.Longitude,
			Elevation: s.Elevation,
			Timezone:  tz,
		})
		if err != nil {
			return 0, 0, err
		}
		ids[s.StationNo] = id
	}

	users := auth.NewRepository(conn)
	for _, u := range seed.Users {
		hash, err := auth.HashPassword(u.Password)
		if err != nil {
			return 0, 0, fmt.Errorf("hash password for %q: %w", u.Username, err)
		}
		if err := users.UpsertUser(ctx, auth.User{
			ID:           uuid.NewString(),
			Username:     u.Username,
			PasswordHash: hash,
			Role:         auth.Role(u.Role),
			StationID:    ids[u.StationNo],
		}); err != nil {
			return 0, 0, err
		}
	}
	return len(seed.Stations), len(seed.Users), nil
}
