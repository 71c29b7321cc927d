//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/shopspring/decimal"

	"github.com/nrenier/ratehawk-connector/internal/domain"
	mysqlrepo "github.com/nrenier/ratehawk-connector/internal/storage/mysql"
)

func pstr(s string) *string { return &s }

func TestRepo_MySQL_BookingAndSyncRuns(t *testing.T) {
	// Start isolated MySQL; let Docker pick a free host port.
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}

	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=ratehawk",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/ratehawk?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		hostPort)

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := mysqlrepo.New(db)
	ctx := context.Background()

	if err := repo.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	// Booking snapshot upserts: second write overwrites the first.
	b := domain.Booking{
		ID:             "ratehawk_booking_bk-77",
		Source:         "ratehawk",
		SourceID:       "bk-77",
		BookingNumber:  "RH-0077",
		Status:         domain.BookingStatusPending,
		HotelID:        "ratehawk_hotel_42",
		RoomID:         "ratehawk_room_sgl",
		GuestName:      "Ada Lovelace",
		GuestEmail:     pstr("ada@example.com"),
		NumberOfGuests: 2,
		NumberOfAdults: 2,
		CheckInDate:    time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		CheckOutDate:   time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC),
		TotalPrice:     decimal.RequireFromString("123.45"),
		Currency:       "EUR",
		BookedAt:       time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
		RawData:        map[string]any{"status": "processing"},
	}
	if err := repo.SaveBooking(ctx, b); err != nil {
		t.Fatalf("SaveBooking: %v", err)
	}
	b.Status = domain.BookingStatusConfirmed
	if err := repo.SaveBooking(ctx, b); err != nil {
		t.Fatalf("SaveBooking (update): %v", err)
	}

	var status string
	var price decimal.NullDecimal
	row := db.QueryRowContext(ctx,
		"SELECT status, total_price FROM booking_records WHERE source_id = ?", "bk-77")
	if err := row.Scan(&status, &price); err != nil {
		t.Fatalf("scan booking: %v", err)
	}
	if status != "confirmed" {
		t.Fatalf("status = %q, want confirmed", status)
	}
	if !price.Valid || !price.Decimal.Equal(decimal.RequireFromString("123.45")) {
		t.Fatalf("total_price = %v, want 123.45", price)
	}

	// Sync run with one named failure.
	sum := domain.RunSummary{
		RunID:            "3f1c1a1e-0000-4000-8000-000000000001",
		Country:          "IT",
		StartedAt:        time.Date(2026, 8, 25, 6, 0, 0, 0, time.UTC),
		FinishedAt:       time.Date(2026, 8, 25, 6, 5, 0, 0, time.UTC),
		RegionsProcessed: 9,
		RegionsFailed:    1,
		Failures: []domain.SyncFailure{
			{Kind: "region", SourceID: "r-5", Reason: "field \"id\" missing"},
		},
	}
	if err := repo.SaveSyncRun(ctx, sum); err != nil {
		t.Fatalf("SaveSyncRun: %v", err)
	}

	runs, err := repo.RecentSyncRuns(ctx, 5)
	if err != nil {
		t.Fatalf("RecentSyncRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(runs))
	}
	got := runs[0]
	if got.RunID != sum.RunID || got.RegionsProcessed != 9 || got.RegionsFailed != 1 {
		t.Fatalf("unexpected run: %+v", got)
	}
	if len(got.Failures) != 1 || got.Failures[0].SourceID != "r-5" {
		t.Fatalf("unexpected failures: %+v", got.Failures)
	}
}
