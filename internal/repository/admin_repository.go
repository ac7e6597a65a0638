package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// AdminRepository performs privileged single-column updates. Table and
// column names must come from the service layer's allow-list; they are
// interpolated into SQL and must never carry caller input.
type AdminRepository struct {
	db *sqlx.DB
}

// NewAdminRepository creates an AdminRepository.
func NewAdminRepository(db *sqlx.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// UpdateField sets one column on one row.
func (r *AdminRepository) UpdateField(ctx context.Context, table, column, id string, value interface{}) error {
	query := fmt.Sprintf("UPDATE %s SET %s = $1, updated_at = NOW() WHERE id = $2", table, column)
	result, err := r.db.ExecContext(ctx, query, value, id)
	if err != nil {
		return fmt.Errorf("update %s.%s: %w", table, column, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s.%s rows affected: %w", table, column, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
