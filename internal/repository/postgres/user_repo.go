package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/devjogerio/juris-alerts/internal/domain/user"
)

var _ user.Repo = (*UserRepoImpl)(nil)

// UserRepoImpl is a read-only view of the user table owned by the main
// application; the engine only resolves owners into addressable identities.
type UserRepoImpl struct {
	db *DB
}

func NewUserRepo(db *DB) *UserRepoImpl { return &UserRepoImpl{db: db} }

const qUserGet = `SELECT id, name, email FROM users WHERE id = $1;`

func (r *UserRepoImpl) GetByID(ctx context.Context, id int64) (*user.User, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var u user.User
	if err := r.db.execQueryer(ctx).QueryRow(ctx, qUserGet, id).Scan(&u.ID, &u.Name, &u.Email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}
