package postgres

import (
	"context"

	"github.com/tallyhq/tally/internal/tally/domain"
	"github.com/tallyhq/tally/internal/tally/store"
)

type usersRepo struct {
	q querier
}

const userColumns = `id::text, username, email, password_hash, kind, created_at`

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var (
		u    domain.User
		kind string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &kind, &u.CreatedAt); err != nil {
		return domain.User{}, mapNotFound(err)
	}
	u.Kind = domain.UserKind(kind)
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO users (id, username, email, password_hash, kind, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Username, u.Email, u.PasswordHash, string(u.Kind), u.CreatedAt.UTC(),
	)
	return mapConstraint(err)
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return scanUser(r.q.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	return scanUser(r.q.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return scanUser(r.q.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *usersRepo) UpdateUser(ctx context.Context, u domain.User) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE users
		    SET username = $1, email = $2, password_hash = $3, kind = $4, created_at = $5
		  WHERE id = $6`,
		u.Username, u.Email, u.PasswordHash, string(u.Kind), u.CreatedAt.UTC(), u.ID,
	)
	if err != nil {
		return mapConstraint(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *usersRepo) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}
