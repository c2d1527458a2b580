package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tallyhq/tally/internal/tally/domain"
	"github.com/tallyhq/tally/internal/tally/store"
	"github.com/tallyhq/tally/pkg/cryptox"
	"github.com/tallyhq/tally/pkg/idx"
	"github.com/tallyhq/tally/pkg/jwtx"
	"github.com/tallyhq/tally/pkg/slogx"
)

var ErrSameSigningKeys = errors.New("access and refresh signing keys must differ")

// TokenService issues and checks credentials. Access tokens are stateless
// JWTs. Refresh tokens are JWTs signed with a separate key and backed by a
// stored row, which is the only thing consulted when validating them.
type TokenService struct {
	Store  store.Store
	Issuer string

	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Now is the service clock. Defaults to time.Now.
	Now func() time.Time

	access  *jwtx.HS256
	refresh *jwtx.HS256
}

// NewTokenService builds a TokenService from the two HS256 keys. Short or
// identical keys are rejected.
func NewTokenService(st store.Store, accessKey, refreshKey []byte, issuer string) (*TokenService, error) {
	if string(accessKey) == string(refreshKey) {
		return nil, ErrSameSigningKeys
	}

	aud := []string{issuer}
	access, err := jwtx.NewHS256(accessKey, issuer, aud)
	if err != nil {
		return nil, fmt.Errorf("access key: %w", err)
	}
	refresh, err := jwtx.NewHS256(refreshKey, issuer, aud)
	if err != nil {
		return nil, fmt.Errorf("refresh key: %w", err)
	}

	s := &TokenService{
		Store:      st,
		Issuer:     issuer,
		AccessTTL:  jwtx.DefaultAccessTokenTTL,
		RefreshTTL: jwtx.DefaultRefreshTokenTTL,
		access:     access,
		refresh:    refresh,
	}
	access.Now = s.now
	refresh.Now = s.now
	return s, nil
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// IssueAccessToken signs a short-lived access token for subjectID.
func (s *TokenService) IssueAccessToken(subjectID string) (string, error) {
	claims := jwtx.NewClaims(subjectID, s.AccessTTL, s.Issuer, []string{s.Issuer}, s.now())
	return s.access.Sign(claims)
}

// VerifyAccessToken checks signature, issuer, audience and lifetime. The
// router's authentication middleware calls it on every bearer request.
func (s *TokenService) VerifyAccessToken(token string) (jwtx.Claims, error) {
	return s.access.Verify(token)
}

// IssueRefreshToken signs a refresh token for subjectID and stores its row.
func (s *TokenService) IssueRefreshToken(ctx context.Context, subjectID string) (string, error) {
	return s.issueRefresh(ctx, s.Store, subjectID)
}

func (s *TokenService) issueRefresh(ctx context.Context, st store.Store, subjectID string) (string, error) {
	now := s.now()

	token, err := s.refresh.Sign(
		jwtx.NewClaims(subjectID, s.RefreshTTL, s.Issuer, []string{s.Issuer}, now),
	)
	if err != nil {
		return "", err
	}

	rt := domain.RefreshToken{
		ID:        idx.NewAt(now).String(),
		UserID:    subjectID,
		TokenHash: cryptox.FingerprintToken(token),
		ExpiresAt: now.Add(s.RefreshTTL),
		Revoked:   false,
		CreatedAt: now,
	}
	if err := st.RefreshTokens().CreateRefreshToken(ctx, rt); err != nil {
		return "", err
	}
	return token, nil
}

// IssueTokenPair issues an access token and a stored refresh token.
func (s *TokenService) IssueTokenPair(ctx context.Context, subjectID string) (domain.TokenPair, error) {
	access, err := s.IssueAccessToken(subjectID)
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, err := s.IssueRefreshToken(ctx, subjectID)
	if err != nil {
		return domain.TokenPair{}, err
	}
	return domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// RotateTokenPair consumes oldRefresh and issues a new pair in one
// transaction. Only one caller can consume a given token; everyone else,
// and any caller presenting a revoked or expired token, gets
// ErrInvalidRefresh.
func (s *TokenService) RotateTokenPair(
	ctx context.Context,
	oldRefresh, subjectID string,
) (domain.TokenPair, error) {
	access, err := s.IssueAccessToken(subjectID)
	if err != nil {
		return domain.TokenPair{}, err
	}

	var refresh string
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		n, err := tx.RefreshTokens().ConsumeRefreshToken(ctx, cryptox.FingerprintToken(oldRefresh), s.now())
		if err != nil {
			return err
		}
		if n != 1 {
			return ErrInvalidRefresh
		}
		var ierr error
		refresh, ierr = s.issueRefresh(ctx, tx, subjectID)
		return ierr
	})
	if err != nil {
		return domain.TokenPair{}, err
	}
	return domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// ValidateRefreshToken reports whether token has a stored row that is not
// revoked and whose expiry lies strictly after now. The signature is not
// checked; the row is the trust anchor.
func (s *TokenService) ValidateRefreshToken(ctx context.Context, token string) (bool, error) {
	_, ok, err := s.lookupRefresh(ctx, token)
	return ok, err
}

func (s *TokenService) lookupRefresh(ctx context.Context, token string) (domain.RefreshToken, bool, error) {
	rt, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, cryptox.FingerprintToken(token))
	if errors.Is(err, store.ErrNotFound) {
		return domain.RefreshToken{}, false, nil
	}
	if err != nil {
		return domain.RefreshToken{}, false, err
	}
	return rt, rt.ValidAt(s.now()), nil
}

// RevokeRefreshToken marks token revoked. Unknown tokens are a no-op.
func (s *TokenService) RevokeRefreshToken(ctx context.Context, token string) error {
	if err := s.Store.RefreshTokens().RevokeRefreshToken(ctx, cryptox.FingerprintToken(token)); err != nil {
		slogx.FromContext(ctx).Error("failed to revoke refresh token", slog.Any("error", err))
		return err
	}
	return nil
}

// ExtractSubjectID reads "sub" from token without verifying it. Expired
// tokens are accepted.
func (s *TokenService) ExtractSubjectID(token string) (string, error) {
	sub, err := jwtx.ExtractSubject(token)
	switch {
	case errors.Is(err, jwtx.ErrMissingSubject):
		return "", ErrMissingSubjectClaim
	case err != nil:
		return "", ErrMalformedToken
	}
	return sub, nil
}
