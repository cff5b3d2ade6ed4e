package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stationdesk-server/internal/apperr"
	"stationdesk-server/internal/auth"
	"stationdesk-server/internal/modules/observation/repository"
	"stationdesk-server/internal/modules/observation/types"
	stationtypes "stationdesk-server/internal/modules/station/types"
	"stationdesk-server/internal/testutil"
)

type fakeStations map[string]stationtypes.Station

func (f fakeStations) Resolve(_ context.Context, id string) (stationtypes.Station, error) {
	st, ok := f[id]
	if !ok {
		return stationtypes.Station{}, apperr.NotFound("station not found")
	}
	return st, nil
}

type fixture struct {
	svc      *Service
	db       *sql.DB
	now      time.Time
	observer *auth.Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.OpenDB(t)
	testutil.SeedStation(t, db, "st-1", "41923", "Dhaka")
	testutil.SeedStation(t, db, "st-2", "41978", "Chattogram")
	testutil.SeedUser(t, db, "u-obs", "karim", "observer", "st-1")

	f := &fixture{
		db:       db,
		now:      time.Date(2026, 10, 15, 12, 20, 0, 0, time.UTC),
		observer: &auth.Session{UserID: "u-obs", Role: auth.RoleObserver, StationID: "st-1"},
	}
	stations := fakeStations{
		"st-1": {ID: "st-1", StationNo: "41923", Name: "Dhaka", Timezone: "Asia/Dhaka"},
		"st-2": {ID: "st-2", StationNo: "41978", Name: "Chattogram", Timezone: "UTC"},
	}
	f.svc = NewService(repository.NewRepository(db), stations, nil)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func firstStage(hour, pressure string) types.FirstStageRequest {
	return types.FirstStageRequest{
		Hour: hour,
		FirstStageFields: types.FirstStageFields{
			StationLevelPressure: pressure,
			DryBulbAsRead:        "29.4",
		},
	}
}

func TestCheckSlot_InvalidHourFailsBeforeLookup(t *testing.T) {
	repo := &countingRepo{}
	svc := NewService(repo, fakeStations{}, nil)

	for h := 0; h < 24; h++ {
		code := fmt.Sprintf("%02d", h)
		if IsSynopticHour(code) {
			continue
		}
		_, err := svc.CheckSlot(context.Background(), code, "st-1")
		require.Error(t, err, code)
		assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err), code)
	}
	for _, code := range []string{"", "3", "24", "noon"} {
		_, err := svc.CheckSlot(context.Background(), code, "st-1")
		assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err), code)
	}
	assert.Zero(t, repo.getSlotsCalls)
}

func TestCheckSlot_DecisionTable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.svc.CheckSlot(ctx, "12", "st-1")
	require.NoError(t, err)
	assert.True(t, d.AllowFirstCard)
	assert.False(t, d.AllowSecondCard)
	assert.Nil(t, d.Time)
	assert.NotNil(t, d.Yesterday.FirstStageEntries)
	assert.Empty(t, d.Yesterday.FirstStageEntries)

	_, err = f.svc.SubmitFirstStage(ctx, f.observer, firstStage("12", "1010.2"))
	require.NoError(t, err)

	d, err = f.svc.CheckSlot(ctx, "12", "st-1")
	require.NoError(t, err)
	assert.False(t, d.AllowFirstCard)
	assert.True(t, d.AllowSecondCard)
	require.NotNil(t, d.Time)
	assert.Equal(t, time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC), d.Time.UTCTime.UTC())
	_, offset := d.Time.LocalTime.Zone()
	assert.Equal(t, 6*3600, offset)

	_, err = f.svc.SubmitSecondStage(ctx, f.observer, types.SecondStageRequest{
		Hour:              "12",
		SecondStageFields: types.SecondStageFields{WindSpeed: "12", WindDirection: "NE"},
	})
	require.NoError(t, err)

	d, err = f.svc.CheckSlot(ctx, "12", "st-1")
	require.NoError(t, err)
	assert.False(t, d.AllowFirstCard)
	assert.False(t, d.AllowSecondCard)
	assert.Equal(t, msgSlotClosed, d.Message)

	// Other hours and other stations are unaffected.
	d, err = f.svc.CheckSlot(ctx, "15", "st-1")
	require.NoError(t, err)
	assert.True(t, d.AllowFirstCard)
	d, err = f.svc.CheckSlot(ctx, "12", "st-2")
	require.NoError(t, err)
	assert.True(t, d.AllowFirstCard)
}

func TestCheckSlot_ReturnsYesterdaysFirstStage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.now = time.Date(2026, 10, 14, 6, 5, 0, 0, time.UTC)
	_, err := f.svc.SubmitFirstStage(ctx, f.observer, firstStage("06", "1008.9"))
	require.NoError(t, err)

	f.now = time.Date(2026, 10, 15, 6, 1, 0, 0, time.UTC)
	d, err := f.svc.CheckSlot(ctx, "06", "st-1")
	require.NoError(t, err)
	assert.True(t, d.AllowFirstCard)
	require.Len(t, d.Yesterday.FirstStageEntries, 1)
	assert.Equal(t, "1008.9", d.Yesterday.FirstStageEntries[0].StationLevelPressure)

	// Yesterday's 09 slot is not today's 06 slot's yesterday.
	d, err = f.svc.CheckSlot(ctx, "09", "st-1")
	require.NoError(t, err)
	assert.Empty(t, d.Yesterday.FirstStageEntries)
}

func TestCheckSlot_StorageFailureIsServerError(t *testing.T) {
	svc := NewService(&countingRepo{err: errors.New("database is locked")}, fakeStations{}, nil)
	_, err := svc.CheckSlot(context.Background(), "00", "st-1")
	require.Error(t, err)
	assert.Equal(t, apperr.KindServerError, apperr.KindOf(err))
	assert.NotContains(t, apperr.Message(err), "locked")
}

func TestSubmitFirstStage_Conflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SubmitFirstStage(ctx, f.observer, firstStage("09", "1011"))
	require.NoError(t, err)

	_, err = f.svc.SubmitFirstStage(ctx, f.observer, firstStage("09", "1012"))
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestSubmitFirstStage_LostRaceIsConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A stale read: both submitters saw an empty slot.
	stale := &staleRepo{ObservationRepository: repository.NewRepository(f.db)}
	f.svc.repository = stale

	_, err := f.svc.SubmitFirstStage(ctx, f.observer, firstStage("18", "1009"))
	require.NoError(t, err)
	_, err = f.svc.SubmitFirstStage(ctx, f.observer, firstStage("18", "1010"))
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	var n int
	require.NoError(t, f.db.QueryRow(`SELECT COUNT(*) FROM observing_times`).Scan(&n))
	assert.Equal(t, 1, n)
	require.NoError(t, f.db.QueryRow(`SELECT COUNT(*) FROM first_stage_entries`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestSubmitSecondStage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := types.SecondStageRequest{Hour: "12", SecondStageFields: types.SecondStageFields{WindSpeed: "18", WindDirection: "SW"}}

	_, err := f.svc.SubmitSecondStage(ctx, f.observer, req)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = f.svc.SubmitFirstStage(ctx, f.observer, firstStage("12", "1010"))
	require.NoError(t, err)

	entry, err := f.svc.SubmitSecondStage(ctx, f.observer, req)
	require.NoError(t, err)
	assert.Equal(t, "SW", entry.WindDirection)

	_, err = f.svc.SubmitSecondStage(ctx, f.observer, req)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestSubmit_ScopeAndValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := firstStage("12", "1010")
	req.StationID = "st-2"
	_, err := f.svc.SubmitFirstStage(ctx, f.observer, req)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = f.svc.SubmitFirstStage(ctx, f.observer, firstStage("13", "1010"))
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	_, err = f.svc.SubmitFirstStage(ctx, nil, firstStage("12", "1010"))
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	super := &auth.Session{UserID: "", Role: auth.RoleSuperAdmin}
	_, err = f.svc.SubmitFirstStage(ctx, super, firstStage("12", "1010"))
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err), "super admin must name a station")

	req.StationID = "st-missing"
	_, err = f.svc.SubmitFirstStage(ctx, super, req)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestListObservations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.now = time.Date(2026, 10, 15, 0, 10, 0, 0, time.UTC)
	_, err := f.svc.SubmitFirstStage(ctx, f.observer, firstStage("00", "1010"))
	require.NoError(t, err)
	f.now = time.Date(2026, 10, 15, 3, 10, 0, 0, time.UTC)
	_, err = f.svc.SubmitFirstStage(ctx, f.observer, firstStage("03", "1011"))
	require.NoError(t, err)
	_, err = f.svc.SubmitSecondStage(ctx, f.observer, types.SecondStageRequest{Hour: "03"})
	require.NoError(t, err)
	f.now = time.Date(2026, 10, 16, 0, 5, 0, 0, time.UTC)
	_, err = f.svc.SubmitFirstStage(ctx, f.observer, firstStage("00", "1013"))
	require.NoError(t, err)

	records, err := f.svc.ListObservations(ctx, f.observer, "", "2026-10-15")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 0, records[0].UTCTime.Hour())
	assert.Len(t, records[0].FirstStage, 1)
	assert.Empty(t, records[0].SecondStage)
	assert.Equal(t, 3, records[1].UTCTime.Hour())
	assert.Len(t, records[1].SecondStage, 1)

	records, err = f.svc.ListObservations(ctx, f.observer, "", "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "1013", records[0].FirstStage[0].StationLevelPressure)

	_, err = f.svc.ListObservations(ctx, f.observer, "", "15/10/2026")
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}

func TestDecide(t *testing.T) {
	prev := &types.Slot{FirstStageEntries: []types.FirstStageEntry{{ID: "y1"}}}
	tests := []struct {
		name        string
		today       *types.Slot
		first, sec  bool
		wantTimeSet bool
	}{
		{"no slot", nil, true, false, false},
		{"first stage only", &types.Slot{FirstStageCount: 1}, false, true, true},
		{"closed", &types.Slot{FirstStageCount: 1, SecondStageCount: 1}, false, false, true},
		{"second stage without first", &types.Slot{SecondStageCount: 2}, false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := decide(tt.today, prev)
			assert.Equal(t, tt.first, d.AllowFirstCard)
			assert.Equal(t, tt.sec, d.AllowSecondCard)
			assert.Equal(t, tt.wantTimeSet, d.Time != nil)
			assert.NotEmpty(t, d.Message)
			assert.Len(t, d.Yesterday.FirstStageEntries, 1)
		})
	}
}

type countingRepo struct {
	getSlotsCalls int
	err           error
}

func (r *countingRepo) GetSlots(_ context.Context, _ string, utcTimes ...time.Time) ([]*types.Slot, error) {
	r.getSlotsCalls++
	if r.err != nil {
		return nil, r.err
	}
	return make([]*types.Slot, len(utcTimes)), nil
}

func (r *countingRepo) CreateFirstStage(context.Context, types.ObservingTime, types.FirstStageEntry) error {
	return r.err
}

func (r *countingRepo) CreateSecondStage(context.Context, types.SecondStageEntry) error {
	return r.err
}

func (r *countingRepo) ListRange(context.Context, string, time.Time, time.Time) ([]types.ObservationRecord, error) {
	return nil, r.err
}

// staleRepo reports every slot as empty, as a reader racing a writer would.
type staleRepo struct {
	repository.ObservationRepository
}

func (r *staleRepo) GetSlots(_ context.Context, _ string, utcTimes ...time.Time) ([]*types.Slot, error) {
	return make([]*types.Slot, len(utcTimes)), nil
}
