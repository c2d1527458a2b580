package postgres

import (
	"context"
	"time"

	"github.com/tallyhq/tally/internal/tally/domain"
)

type refreshTokensRepo struct {
	q querier
}

func (r *refreshTokensRepo) CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO refresh_tokens (id, user_id, token, expires_at, is_revoked, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.UserID, t.TokenHash, t.ExpiresAt.UTC(), t.Revoked, t.CreatedAt.UTC(),
	)
	return mapConstraint(err)
}

func (r *refreshTokensRepo) GetRefreshTokenByHash(
	ctx context.Context,
	hash string,
) (domain.RefreshToken, error) {
	var t domain.RefreshToken
	err := r.q.QueryRow(ctx,
		`SELECT id, user_id::text, token, expires_at, is_revoked, created_at
		   FROM refresh_tokens
		  WHERE token = $1`, hash,
	).Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.Revoked, &t.CreatedAt)
	if err != nil {
		return domain.RefreshToken{}, mapNotFound(err)
	}
	t.ExpiresAt = t.ExpiresAt.UTC()
	t.CreatedAt = t.CreatedAt.UTC()
	return t, nil
}

func (r *refreshTokensRepo) RevokeRefreshToken(ctx context.Context, hash string) error {
	_, err := r.q.Exec(ctx,
		`UPDATE refresh_tokens SET is_revoked = TRUE WHERE token = $1`, hash)
	return err
}

func (r *refreshTokensRepo) ConsumeRefreshToken(ctx context.Context, hash string, now time.Time) (int64, error) {
	tag, err := r.q.Exec(ctx,
		`UPDATE refresh_tokens SET is_revoked = TRUE
		  WHERE token = $1 AND NOT is_revoked AND expires_at > $2`, hash, now.UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *refreshTokensRepo) DeleteDeadRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.q.Exec(ctx,
		`DELETE FROM refresh_tokens WHERE is_revoked OR expires_at <= $1`, now.UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
