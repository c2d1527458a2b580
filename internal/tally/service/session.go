package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/tallyhq/tally/internal/tally/domain"
	"github.com/tallyhq/tally/internal/tally/store"
	"github.com/tallyhq/tally/pkg/cryptox"
	"github.com/tallyhq/tally/pkg/slogx"
)

// PasswordHasher turns passwords into stored digests and checks them.
// cryptox.PasswordHasher satisfies it.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) error
}

// guestEmailDomain is reserved for generated guest addresses. Register and
// UpgradeGuest refuse it.
const guestEmailDomain = "guest.local"

const guestAttempts = 3

// AuthResult is what register, login and guest hand back.
type AuthResult struct {
	User   domain.User
	Tokens domain.TokenPair
}

type SessionService struct {
	Store  store.Store
	Tokens *TokenService
	Hasher PasswordHasher

	// RotateRefreshTokens revokes the presented refresh token on every
	// refresh. Off by default, which leaves the old token usable until it
	// expires or is logged out.
	RotateRefreshTokens bool
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func checkEmailDomain(email string) error {
	if strings.HasSuffix(email, "@"+guestEmailDomain) {
		return validationError("email addresses at %s are reserved for guests", guestEmailDomain)
	}
	return nil
}

// Register creates a registered account and signs it in.
func (s *SessionService) Register(ctx context.Context, username, password, email string) (AuthResult, error) {
	log := slogx.FromContext(ctx)

	username, email = normalize(username), normalize(email)
	if username == "" || email == "" || strings.TrimSpace(password) == "" {
		return AuthResult{}, validationError("username, password and email are required")
	}
	if err := checkEmailDomain(email); err != nil {
		return AuthResult{}, err
	}

	if err := s.checkAvailable(ctx, "", username, email); err != nil {
		return AuthResult{}, err
	}

	digest, err := s.Hasher.Hash(password)
	if err != nil {
		return AuthResult{}, err
	}

	u := domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: digest,
		Kind:         domain.UserKindRegistered,
		CreatedAt:    s.Tokens.now(),
	}
	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return AuthResult{}, s.takenAfterRace(ctx, username, email)
		}
		return AuthResult{}, err
	}

	log.Info("user registered", slog.String("user_id", u.ID))
	return s.signIn(ctx, u)
}

// Login checks credentials and signs the user in. Unknown users, wrong
// passwords and guest accounts all fail with ErrInvalidCredentials.
func (s *SessionService) Login(ctx context.Context, username, password string) (AuthResult, error) {
	log := slogx.FromContext(ctx)

	username = normalize(username)
	if username == "" || password == "" {
		return AuthResult{}, ErrInvalidCredentials
	}

	u, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, err
	}

	if u.IsGuest() {
		log.Info("login attempted on guest account", slog.String("user_id", u.ID))
		return AuthResult{}, ErrInvalidCredentials
	}
	if err := s.Hasher.Verify(password, u.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrMismatch) {
			log.Warn("stored password digest unreadable", slog.String("user_id", u.ID), slog.Any("error", err))
		}
		return AuthResult{}, ErrInvalidCredentials
	}

	return s.signIn(ctx, u)
}

// Guest creates a throwaway account with generated credentials. Its
// password is random and never returned, so it can only be used through
// the issued tokens until it is upgraded. A generated name that is already
// taken is retried with a fresh id.
func (s *SessionService) Guest(ctx context.Context) (AuthResult, error) {
	log := slogx.FromContext(ctx)

	placeholder, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return AuthResult{}, err
	}
	digest, err := s.Hasher.Hash(placeholder)
	if err != nil {
		return AuthResult{}, err
	}

	for attempt := 1; ; attempt++ {
		id := uuid.New()
		short := strings.ReplaceAll(id.String(), "-", "")[:8]

		u := domain.User{
			ID:           id.String(),
			Username:     "guest-" + short,
			Email:        "guest-" + short + "@" + guestEmailDomain,
			PasswordHash: digest,
			Kind:         domain.UserKindGuest,
			CreatedAt:    s.Tokens.now(),
		}
		err := s.Store.Users().CreateUser(ctx, u)
		if errors.Is(err, store.ErrAlreadyExists) && attempt < guestAttempts {
			log.Warn("generated guest name collided", slog.String("username", u.Username))
			continue
		}
		if err != nil {
			return AuthResult{}, err
		}

		log.Info("guest created", slog.String("user_id", u.ID))
		return s.signIn(ctx, u)
	}
}

// UpgradeGuest gives a guest account real credentials. The account keeps
// its id, so everything it already owns stays attached.
func (s *SessionService) UpgradeGuest(
	ctx context.Context,
	userID, username, password, email string,
) (domain.User, error) {
	userID = strings.TrimSpace(userID)
	if err := requireID("userId", userID); err != nil {
		return domain.User{}, err
	}

	username, email = normalize(username), normalize(email)
	if username == "" || email == "" || strings.TrimSpace(password) == "" {
		return domain.User{}, validationError("username, password and email are required")
	}
	if err := checkEmailDomain(email); err != nil {
		return domain.User{}, err
	}

	if err := s.checkAvailable(ctx, userID, username, email); err != nil {
		return domain.User{}, err
	}

	digest, err := s.Hasher.Hash(password)
	if err != nil {
		return domain.User{}, err
	}

	var upgraded domain.User
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		u, err := tx.Users().GetUserByID(ctx, userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		upgraded, err = u.Upgrade(username, email, digest, s.Tokens.now())
		if err != nil {
			return ErrAlreadyRegistered
		}

		switch err := tx.Users().UpdateUser(ctx, upgraded); {
		case errors.Is(err, store.ErrNotFound):
			return ErrUserNotFound
		case errors.Is(err, store.ErrAlreadyExists):
			return ErrUsernameTaken
		default:
			return err
		}
	})
	if err != nil {
		return domain.User{}, err
	}

	slogx.FromContext(ctx).Info("guest upgraded", slog.String("user_id", upgraded.ID))
	return upgraded, nil
}

// Logout revokes refreshToken. Tokens that cannot be decoded or carry no
// subject are rejected with ErrInvalidToken.
func (s *SessionService) Logout(ctx context.Context, refreshToken string) error {
	if _, err := s.Tokens.ExtractSubjectID(refreshToken); err != nil {
		return err
	}
	return s.Tokens.RevokeRefreshToken(ctx, refreshToken)
}

// RefreshAccessToken trades a valid refresh token plus the (possibly
// expired) access token for a new pair. The subject comes from the access
// token and must own the refresh token.
func (s *SessionService) RefreshAccessToken(
	ctx context.Context,
	accessToken, refreshToken string,
) (domain.TokenPair, error) {
	log := slogx.FromContext(ctx)

	accessToken, refreshToken = strings.TrimSpace(accessToken), strings.TrimSpace(refreshToken)
	if accessToken == "" || refreshToken == "" {
		return domain.TokenPair{}, validationError("token and refreshToken are required")
	}

	rt, ok, err := s.Tokens.lookupRefresh(ctx, refreshToken)
	if err != nil {
		return domain.TokenPair{}, err
	}
	if !ok {
		return domain.TokenPair{}, ErrInvalidRefresh
	}

	subject, err := s.Tokens.ExtractSubjectID(accessToken)
	if err != nil {
		return domain.TokenPair{}, ErrInvalidRefresh
	}
	if subject != rt.UserID {
		log.Warn("refresh token presented with another user's access token",
			slog.String("subject", subject),
			slog.String("token_owner", rt.UserID),
		)
		return domain.TokenPair{}, ErrInvalidRefresh
	}

	if s.RotateRefreshTokens {
		return s.Tokens.RotateTokenPair(ctx, refreshToken, subject)
	}
	return s.Tokens.IssueTokenPair(ctx, subject)
}

// takenAfterRace reports which field a concurrent registration claimed
// between checkAvailable and the insert.
func (s *SessionService) takenAfterRace(ctx context.Context, username, email string) error {
	if err := s.checkAvailable(ctx, "", username, email); err != nil {
		return err
	}
	return ErrUsernameTaken
}

// checkAvailable returns a conflict when username or email belongs to an
// account other than selfID. Username is checked first.
func (s *SessionService) checkAvailable(ctx context.Context, selfID, username, email string) error {
	u, err := s.Store.Users().GetUserByUsername(ctx, username)
	switch {
	case err == nil && u.ID != selfID:
		return ErrUsernameTaken
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return err
	}

	u, err = s.Store.Users().GetUserByEmail(ctx, email)
	switch {
	case err == nil && u.ID != selfID:
		return ErrEmailTaken
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return err
	}
	return nil
}

func (s *SessionService) signIn(ctx context.Context, u domain.User) (AuthResult, error) {
	tokens, err := s.Tokens.IssueTokenPair(ctx, u.ID)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{User: u, Tokens: tokens}, nil
}

// compile-time check
var _ PasswordHasher = cryptox.PasswordHasher{}
