package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/worktime/internal/db"
)

type SQLiteAccountRepo struct {
	db db.DBTX
}

func NewSQLiteAccountRepo(conn db.DBTX) *SQLiteAccountRepo {
	return &SQLiteAccountRepo{db: conn}
}

func (r *SQLiteAccountRepo) Get(ctx context.Context, userID string) (*AccountMeta, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT user_id, custom_target_hours, last_modified FROM accounts WHERE user_id = ?`, userID)

	var m AccountMeta
	var lastModified sql.NullString
	if err := row.Scan(&m.UserID, &m.CustomTargetHours, &lastModified); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("scanning account: %w", err)
	}
	m.LastModified = parseNullableTime(lastModified)
	return &m, nil
}

func (r *SQLiteAccountRepo) Upsert(ctx context.Context, m *AccountMeta) error {
	query := `INSERT INTO accounts (user_id, custom_target_hours, last_modified, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			custom_target_hours = excluded.custom_target_hours,
			last_modified = excluded.last_modified,
			updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query, m.UserID, m.CustomTargetHours, nullableTime(m.LastModified), nowUTC())
	if err != nil {
		return fmt.Errorf("upserting account: %w", err)
	}
	return nil
}

// Delete removes the account and, by cascade, its sessions.
func (r *SQLiteAccountRepo) Delete(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}
	return nil
}
