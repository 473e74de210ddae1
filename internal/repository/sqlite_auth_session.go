package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/worktime/internal/db"
	"github.com/alexanderramin/worktime/internal/domain"
)

// SQLiteAuthSessionRepo keeps the single signed-in identity of this
// installation, so the CLI stays logged in between invocations.
type SQLiteAuthSessionRepo struct {
	db db.DBTX
}

func NewSQLiteAuthSessionRepo(conn db.DBTX) *SQLiteAuthSessionRepo {
	return &SQLiteAuthSessionRepo{db: conn}
}

func (r *SQLiteAuthSessionRepo) Get(ctx context.Context) (*domain.Identity, error) {
	row := r.db.QueryRowContext(ctx, `SELECT user_id, username, email, display_name, token, provider, signed_in_at
		FROM auth_session WHERE id = 1`)

	var id domain.Identity
	var signedIn string
	err := row.Scan(&id.UserID, &id.Username, &id.Email, &id.DisplayName, &id.Token, &id.Provider, &signedIn)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("auth session: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning auth session: %w", err)
	}
	if id.SignedInAt, err = parseTime(signedIn); err != nil {
		return nil, fmt.Errorf("parsing signed_in_at: %w", err)
	}
	return &id, nil
}

func (r *SQLiteAuthSessionRepo) Save(ctx context.Context, id *domain.Identity) error {
	query := `INSERT OR REPLACE INTO auth_session
		(id, user_id, username, email, display_name, token, provider, signed_in_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		id.UserID, id.Username, id.Email, id.DisplayName, id.Token, id.Provider, formatTime(id.SignedInAt))
	if err != nil {
		return fmt.Errorf("saving auth session: %w", err)
	}
	return nil
}

func (r *SQLiteAuthSessionRepo) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM auth_session`); err != nil {
		return fmt.Errorf("clearing auth session: %w", err)
	}
	return nil
}
