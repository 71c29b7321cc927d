package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/nrenier/ratehawk-connector/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func valTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return p.UTC()
}

// nullable DATETIME for zero time values
func valNonZero(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// Migrate creates the tables when they are missing.
func (r *Repo) Migrate(ctx context.Context) error {
	for _, stmt := range schemaSQL {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) SaveBooking(ctx context.Context, b domain.Booking) error {
	raw, _ := json.Marshal(b.RawData)
	if len(raw) == 0 || string(raw) == "null" {
		raw = []byte(`{}`)
	}
	_, err := r.db.ExecContext(ctx, upsertBookingSQL,
		b.SourceID,
		b.BookingNumber,
		string(b.Status),
		b.HotelID,
		b.RoomID,
		valStr(b.RatePlanID),
		b.GuestName,
		valStr(b.GuestEmail),
		valStr(b.GuestPhone),
		b.NumberOfGuests,
		b.NumberOfAdults,
		b.NumberOfChildren,
		b.CheckInDate.UTC().Format("2006-01-02"),
		b.CheckOutDate.UTC().Format("2006-01-02"),
		valStr(b.SpecialRequests),
		b.TotalPrice.String(),
		b.Currency,
		valStr(b.PaymentStatus),
		valStr(b.PaymentMethod),
		valNonZero(b.BookedAt),
		valTime(b.CancelledAt),
		string(raw),
	)
	return err
}

func (r *Repo) SaveSyncRun(ctx context.Context, s domain.RunSummary) error {
	_, err := r.db.ExecContext(ctx, insertSyncRunSQL,
		s.RunID,
		s.Country,
		s.StartedAt.UTC(),
		s.FinishedAt.UTC(),
		s.RegionsProcessed,
		s.RegionsSkipped,
		s.RegionsFailed,
		s.HotelsProcessed,
		s.HotelsFailed,
	)
	if err != nil {
		return err
	}
	if len(s.Failures) == 0 {
		return nil
	}

	values := make([]string, 0, len(s.Failures))
	args := make([]any, 0, len(s.Failures)*4)
	for _, f := range s.Failures {
		values = append(values, "(?,?,?,?)")
		args = append(args, s.RunID, f.Kind, f.SourceID, f.Reason)
	}
	_, err = r.db.ExecContext(ctx, insertFailuresPrefix+strings.Join(values, ","), args...)
	return err
}

func (r *Repo) RecentSyncRuns(ctx context.Context, limit int) ([]domain.RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, recentRunsSQL, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RunSummary
	for rows.Next() {
		var s domain.RunSummary
		if err := rows.Scan(
			&s.RunID,
			&s.Country,
			&s.StartedAt,
			&s.FinishedAt,
			&s.RegionsProcessed,
			&s.RegionsSkipped,
			&s.RegionsFailed,
			&s.HotelsProcessed,
			&s.HotelsFailed,
		); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		fs, err := r.runFailures(ctx, out[i].RunID)
		if err != nil {
			return nil, err
		}
		out[i].Failures = fs
	}
	return out, nil
}

func (r *Repo) runFailures(ctx context.Context, runID string) ([]domain.SyncFailure, error) {
	rows, err := r.db.QueryContext(ctx, runFailuresSQL, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SyncFailure
	for rows.Next() {
		var f domain.SyncFailure
		if err := rows.Scan(&f.Kind, &f.SourceID, &f.Reason); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
