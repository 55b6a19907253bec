package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/user/inventory-audit/internal/domain"
)

type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a postgres-backed domain.UserRepository. It
// supplies the denormalized user snapshot captured on each session start.
func NewUserRepository(db *sql.DB) domain.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*domain.UserSnapshot, error) {
	var user domain.UserSnapshot
	var externalKey sql.NullString

	err := r.db.QueryRowContext(ctx, `
        SELECT id, display_name, role, external_key
        FROM users
        WHERE id = $1
    `, id).Scan(&user.ID, &user.DisplayName, &user.Role, &externalKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query user %s: %w", id, err)
	}

	user.ExternalKey = externalKey.String
	return &user, nil
}
