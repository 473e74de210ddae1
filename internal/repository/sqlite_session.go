package repository

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/alexanderramin/worktime/internal/db"
	"github.com/alexanderramin/worktime/internal/domain"
)

var sessionColumns = []string{
	"id", "check_in", "check_out", "type", "duration_sec",
	"is_active", "has_auto_lunch", "is_manual_entry",
}

// SQLiteSessionRepo stores both completed and active sessions; is_active
// tells them apart.
type SQLiteSessionRepo struct {
	db db.DBTX
}

func NewSQLiteSessionRepo(conn db.DBTX) *SQLiteSessionRepo {
	return &SQLiteSessionRepo{db: conn}
}

// ReplaceAll overwrites every session row of userID. Run it inside a unit
// of work so readers never observe a partial account.
func (r *SQLiteSessionRepo) ReplaceAll(ctx context.Context, userID string, sessions []domain.Session) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clearing sessions: %w", err)
	}

	query := `INSERT INTO sessions (user_id, id, check_in, check_out, type, duration_sec,
		is_active, has_auto_lunch, is_manual_entry)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, s := range sessions {
		_, err := r.db.ExecContext(ctx, query,
			userID,
			s.ID,
			formatTime(s.CheckIn),
			nullableTime(s.CheckOut),
			string(s.Type),
			s.Duration,
			boolToInt(s.IsActive),
			boolToInt(s.HasAutoLunch),
			boolToInt(s.IsManualEntry),
		)
		if err != nil {
			return fmt.Errorf("inserting session %s: %w", s.ID, err)
		}
	}
	return nil
}

func (r *SQLiteSessionRepo) ListByUser(ctx context.Context, userID string) ([]domain.Session, error) {
	return r.List(ctx, SessionFilter{UserID: userID})
}

func applySessionFilter(qb sq.SelectBuilder, f SessionFilter) sq.SelectBuilder {
	qb = qb.Where(sq.Eq{"user_id": f.UserID})
	if f.From != nil {
		qb = qb.Where(sq.GtOrEq{"check_in": formatTime(*f.From)})
	}
	if f.To != nil {
		qb = qb.Where(sq.Lt{"check_in": formatTime(*f.To)})
	}
	if f.Type != "" {
		qb = qb.Where(sq.Eq{"type": string(f.Type)})
	}
	if f.Active != nil {
		qb = qb.Where(sq.Eq{"is_active": boolToInt(*f.Active)})
	}
	if f.ManualOnly {
		qb = qb.Where(sq.Eq{"is_manual_entry": 1})
	}
	return qb
}

// List returns sessions matching f, oldest check-in first.
func (r *SQLiteSessionRepo) List(ctx context.Context, f SessionFilter) ([]domain.Session, error) {
	qb := applySessionFilter(sq.Select(sessionColumns...).From("sessions"), f).
		OrderBy("check_in", "id")
	if f.Limit > 0 {
		qb = qb.Limit(f.Limit)
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building session query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()
	return scanSessions(rows)
}

func scanSessions(rows *sql.Rows) ([]domain.Session, error) {
	sessions := []domain.Session{}
	for rows.Next() {
		var s domain.Session
		var checkIn, typ string
		var checkOut sql.NullString
		var active, autoLunch, manual int

		if err := rows.Scan(&s.ID, &checkIn, &checkOut, &typ, &s.Duration, &active, &autoLunch, &manual); err != nil {
			return nil, fmt.Errorf("scanning session row: %w", err)
		}

		var err error
		if s.CheckIn, err = parseTime(checkIn); err != nil {
			return nil, fmt.Errorf("parsing check_in of %s: %w", s.ID, err)
		}
		s.CheckOut = parseNullableTime(checkOut)
		s.Type = domain.SessionType(typ)
		s.IsActive = intToBool(active)
		s.HasAutoLunch = intToBool(autoLunch)
		s.IsManualEntry = intToBool(manual)
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}
	return sessions, nil
}
