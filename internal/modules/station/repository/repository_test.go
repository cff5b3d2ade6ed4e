package repository

import (
	"context"
	"errors"
	"testing"

	"stationdesk-server/internal/modules/station/types"
	"stationdesk-server/internal/testutil"
)

func ptr(f float64) *float64 { return &f }

func TestRepository_CRUD(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	dhaka := types.Station{ID: "st-1", StationNo: "41923", Name: "Dhaka", Latitude: ptr(23.78), Longitude: ptr(90.38), Timezone: "Asia/Dhaka"}
	ctg := types.Station{ID: "st-2", StationNo: "41978", Name: "Chattogram", Timezone: "Asia/Dhaka"}
	for _, s := range []types.Station{ctg, dhaka} {
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("Create(%s): %v", s.ID, err)
		}
	}

	all, err := repo.List(ctx, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 || all[0].StationNo != "41923" {
		t.Fatalf("List() = %+v, want two stations ordered by number", all)
	}
	if all[0].Latitude == nil || *all[0].Latitude != 23.78 || all[0].Elevation != nil {
		t.Errorf("nullable columns not round-tripped: %+v", all[0])
	}

	one, err := repo.List(ctx, "st-2")
	if err != nil || len(one) != 1 || one[0].Name != "Chattogram" {
		t.Fatalf("List(st-2) = %+v, %v", one, err)
	}

	dhaka.Name = "Dhaka (Agargaon)"
	if err := repo.Update(ctx, dhaka); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := repo.GetByNo(ctx, "41923")
	if err != nil || got.Name != "Dhaka (Agargaon)" {
		t.Fatalf("GetByNo = %+v, %v", got, err)
	}

	if err := repo.Update(ctx, types.Station{ID: "missing", StationNo: "1", Name: "x", Timezone: "UTC"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update(missing) err = %v, want ErrNotFound", err)
	}

	if err := repo.Delete(ctx, "st-2"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.Get(ctx, "st-2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(deleted) err = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, "st-2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(deleted) err = %v, want ErrNotFound", err)
	}
}

func TestRepository_Upsert(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	id, err := repo.Upsert(ctx, types.Station{ID: "st-new", StationNo: "41859", Name: "Rangpur", Timezone: "UTC"})
	if err != nil || id != "st-new" {
		t.Fatalf("first Upsert = %q, %v", id, err)
	}
	id, err = repo.Upsert(ctx, types.Station{ID: "ignored", StationNo: "41859", Name: "Rangpur Airport", Timezone: "UTC"})
	if err != nil || id != "st-new" {
		t.Fatalf("second Upsert = %q, %v, want existing id", id, err)
	}
	got, err := repo.Get(ctx, "st-new")
	if err != nil || got.Name != "Rangpur Airport" {
		t.Fatalf("Get = %+v, %v", got, err)
	}
}
