package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/fieldportal/internal/common"
	"github.com/dmitrijs2005/fieldportal/internal/dbx"
)

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

func (r *SQLiteRepository) Load(ctx context.Context) (string, error) {
	var token string
	err := r.db.QueryRowContext(ctx, `SELECT token FROM credentials WHERE slot = ?`, common.SessionTokenSlot).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load credential: %w", err)
	}
	return token, nil
}

// Save replaces the slot contents; the table never holds more than one row.
func (r *SQLiteRepository) Save(ctx context.Context, token string) error {
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM credentials`); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO credentials (slot, token, saved_at) VALUES (?, ?, ?)`,
			common.SessionTokenSlot, token, r.now().UTC())
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM credentials`)
	if err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	return nil
}
