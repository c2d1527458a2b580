package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/tallyhq/tally/internal/tally/domain"
	"github.com/tallyhq/tally/internal/tally/service"
	"github.com/tallyhq/tally/internal/tally/store"
)

// racingStore runs beforeCreate ahead of the next CreateUser, standing in
// for a concurrent request that slips in after the availability checks.
type racingStore struct {
	store.Store
	users *racingUsers
}

func (s racingStore) Users() store.Users { return s.users }

type racingUsers struct {
	store.Users
	beforeCreate func(ctx context.Context, u domain.User)
}

func (r *racingUsers) CreateUser(ctx context.Context, u domain.User) error {
	if hook := r.beforeCreate; hook != nil {
		r.beforeCreate = nil
		hook(ctx, u)
	}
	return r.Users.CreateUser(ctx, u)
}

func (f *fixture) racingSession(t *testing.T, hook func(ctx context.Context, u domain.User)) *service.SessionService {
	t.Helper()

	st := racingStore{Store: f.store, users: &racingUsers{Users: f.store.Users(), beforeCreate: hook}}
	return &service.SessionService{Store: st, Tokens: f.tokens, Hasher: f.hasher}
}

func insertUser(t *testing.T, st store.Store, username, email string) {
	t.Helper()

	require.NoError(t, st.Users().CreateUser(context.Background(), domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: "hash",
		Kind:         domain.UserKindRegistered,
		CreatedAt:    time.Now().UTC(),
	}))
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	res, err := f.session.Register(ctx, "  ALICE ", "hunter22", "Alice@Example.com")
	require.NoError(t, err)

	t.Run("user is normalized and fresh", func(t *testing.T) {
		require.Equal(t, "alice", res.User.Username)
		require.Equal(t, "alice@example.com", res.User.Email)
		require.False(t, res.User.IsGuest())
		_, err := uuid.Parse(res.User.ID)
		require.NoError(t, err)

		other := f.register(t, "bob")
		require.NotEqual(t, res.User.ID, other.User.ID)
	})

	t.Run("digest is not the password and verifies", func(t *testing.T) {
		stored, err := f.store.Users().GetUserByID(ctx, res.User.ID)
		require.NoError(t, err)
		require.NotEqual(t, "hunter22", stored.PasswordHash)
		require.NoError(t, f.hasher.Verify("hunter22", stored.PasswordHash))
	})

	t.Run("tokens are issued", func(t *testing.T) {
		claims, err := f.tokens.VerifyAccessToken(res.Tokens.AccessToken)
		require.NoError(t, err)
		require.Equal(t, res.User.ID, claims.Subject)

		ok, err := f.tokens.ValidateRefreshToken(ctx, res.Tokens.RefreshToken)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("login with differently cased username", func(t *testing.T) {
		got, err := f.session.Login(ctx, "alice", "hunter22")
		require.NoError(t, err)
		require.Equal(t, res.User.ID, got.User.ID)
	})

	t.Run("blank fields", func(t *testing.T) {
		for _, in := range [][3]string{
			{"", "pw", "x@example.com"},
			{"carol", "", "x@example.com"},
			{"carol", "pw", "  "},
		} {
			_, err := f.session.Register(ctx, in[0], in[1], in[2])
			require.ErrorIs(t, err, service.ErrValidation)
		}
	})

	t.Run("username is checked before email", func(t *testing.T) {
		_, err := f.session.Register(ctx, "Alice", "pw", "alice@example.com")
		require.ErrorIs(t, err, service.ErrUsernameTaken)
		require.ErrorIs(t, err, service.ErrConflict)

		_, err = f.session.Register(ctx, "alice2", "pw", "ALICE@example.com")
		require.ErrorIs(t, err, service.ErrEmailTaken)
		require.ErrorIs(t, err, service.ErrConflict)
	})
}

func TestRegisterLosingARace(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	t.Run("email claimed concurrently", func(t *testing.T) {
		session := f.racingSession(t, func(context.Context, domain.User) {
			insertUser(t, f.store, "someone-else", "carol@example.com")
		})
		_, err := session.Register(ctx, "carol", "pw", "carol@example.com")
		require.ErrorIs(t, err, service.ErrEmailTaken)
	})

	t.Run("username claimed concurrently", func(t *testing.T) {
		session := f.racingSession(t, func(context.Context, domain.User) {
			insertUser(t, f.store, "dave", "other-dave@example.com")
		})
		_, err := session.Register(ctx, "dave", "pw", "dave@example.com")
		require.ErrorIs(t, err, service.ErrUsernameTaken)
	})
}

func TestRegisterRejectsGuestDomain(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.session.Register(ctx, "eve", "pw", "eve@Guest.Local")
	require.ErrorIs(t, err, service.ErrValidation)

	guest, err := f.session.Guest(ctx)
	require.NoError(t, err)
	_, err = f.session.UpgradeGuest(ctx, guest.User.ID, "eve", "pw", "eve@guest.local")
	require.ErrorIs(t, err, service.ErrValidation)
}

func TestLoginFailuresLookAlike(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "alice")

	_, wrongPassword := f.session.Login(ctx, "alice", "nope")
	_, unknownUser := f.session.Login(ctx, "mallory", "nope")

	require.ErrorIs(t, wrongPassword, service.ErrUnauthorized)
	require.ErrorIs(t, unknownUser, service.ErrUnauthorized)
	require.Equal(t, wrongPassword.Error(), unknownUser.Error())

	_, blank := f.session.Login(ctx, "", "")
	require.ErrorIs(t, blank, service.ErrUnauthorized)
}

func TestGuest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	res, err := f.session.Guest(ctx)
	require.NoError(t, err)

	short := strings.ReplaceAll(res.User.ID, "-", "")[:8]
	require.Equal(t, "guest-"+short, res.User.Username)
	require.Equal(t, "guest-"+short+"@guest.local", res.User.Email)
	require.True(t, res.User.IsGuest())
	require.NotEmpty(t, res.Tokens.AccessToken)
	require.NotEmpty(t, res.Tokens.RefreshToken)

	t.Run("guest accounts cannot log in", func(t *testing.T) {
		_, err := f.session.Login(ctx, res.User.Username, "anything")
		require.ErrorIs(t, err, service.ErrUnauthorized)
	})
	t.Run("colliding generated name is retried", func(t *testing.T) {
		var first domain.User
		session := f.racingSession(t, func(_ context.Context, u domain.User) {
			first = u
			insertUser(t, f.store, u.Username, u.Email)
		})

		got, err := session.Guest(ctx)
		require.NoError(t, err)
		require.NotEqual(t, first.ID, got.User.ID)
		require.True(t, got.User.IsGuest())
	})
}

func TestUpgradeGuest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "bob")

	guest, err := f.session.Guest(ctx)
	require.NoError(t, err)

	t.Run("invalid ids", func(t *testing.T) {
		for _, id := range []string{"", "not-a-uuid"} {
			_, err := f.session.UpgradeGuest(ctx, id, "alice", "pw", "alice@example.com")
			require.ErrorIs(t, err, service.ErrValidation)
		}
	})

	t.Run("blank fields", func(t *testing.T) {
		_, err := f.session.UpgradeGuest(ctx, guest.User.ID, "alice", "", "alice@example.com")
		require.ErrorIs(t, err, service.ErrValidation)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := f.session.UpgradeGuest(ctx, uuid.NewString(), "alice", "pw", "alice@example.com")
		require.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("taken by someone else", func(t *testing.T) {
		_, err := f.session.UpgradeGuest(ctx, guest.User.ID, "bob", "pw", "alice@example.com")
		require.ErrorIs(t, err, service.ErrUsernameTaken)

		_, err = f.session.UpgradeGuest(ctx, guest.User.ID, "alice", "pw", "bob@example.com")
		require.ErrorIs(t, err, service.ErrEmailTaken)
	})

	f.clock.Set(f.clock.Now().Add(time.Hour))
	upgraded, err := f.session.UpgradeGuest(ctx, guest.User.ID, "Alice", "secret", "alice@example.com")
	require.NoError(t, err)

	t.Run("id is stable and account is registered", func(t *testing.T) {
		require.Equal(t, guest.User.ID, upgraded.ID)
		require.Equal(t, "alice", upgraded.Username)
		require.Equal(t, domain.UserKindRegistered, upgraded.Kind)
		require.True(t, upgraded.CreatedAt.Equal(f.clock.Now()))

		got, err := f.session.Login(ctx, "alice", "secret")
		require.NoError(t, err)
		require.Equal(t, guest.User.ID, got.User.ID)
	})

	t.Run("upgrading twice is a conflict", func(t *testing.T) {
		_, err := f.session.UpgradeGuest(ctx, guest.User.ID, "alice3", "pw", "alice3@example.com")
		require.ErrorIs(t, err, service.ErrAlreadyRegistered)
		require.ErrorIs(t, err, service.ErrConflict)
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.register(t, "alice")

	require.NoError(t, f.session.Logout(ctx, alice.Tokens.RefreshToken))

	ok, err := f.tokens.ValidateRefreshToken(ctx, alice.Tokens.RefreshToken)
	require.NoError(t, err)
	require.False(t, ok)

	err = f.session.Logout(ctx, "garbage")
	require.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestRefreshAccessToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")

	t.Run("blank input", func(t *testing.T) {
		_, err := f.session.RefreshAccessToken(ctx, "", alice.Tokens.RefreshToken)
		require.ErrorIs(t, err, service.ErrValidation)
		_, err = f.session.RefreshAccessToken(ctx, alice.Tokens.AccessToken, " ")
		require.ErrorIs(t, err, service.ErrValidation)
	})

	t.Run("expired access token is accepted and the old refresh token survives", func(t *testing.T) {
		f.clock.Set(f.clock.Now().Add(3 * time.Hour))

		pair, err := f.session.RefreshAccessToken(ctx, alice.Tokens.AccessToken, alice.Tokens.RefreshToken)
		require.NoError(t, err)
		require.NotEqual(t, alice.Tokens.RefreshToken, pair.RefreshToken)

		claims, err := f.tokens.VerifyAccessToken(pair.AccessToken)
		require.NoError(t, err)
		require.Equal(t, alice.User.ID, claims.Subject)

		ok, err := f.tokens.ValidateRefreshToken(ctx, alice.Tokens.RefreshToken)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("refresh token of another user", func(t *testing.T) {
		_, err := f.session.RefreshAccessToken(ctx, bob.Tokens.AccessToken, alice.Tokens.RefreshToken)
		require.ErrorIs(t, err, service.ErrUnauthorized)
	})

	t.Run("unknown refresh token", func(t *testing.T) {
		_, err := f.session.RefreshAccessToken(ctx, alice.Tokens.AccessToken, "never-issued")
		require.ErrorIs(t, err, service.ErrUnauthorized)
	})

	t.Run("access token without a subject", func(t *testing.T) {
		_, err := f.session.RefreshAccessToken(ctx, "garbage", alice.Tokens.RefreshToken)
		require.ErrorIs(t, err, service.ErrUnauthorized)
	})

	t.Run("revoked refresh token", func(t *testing.T) {
		require.NoError(t, f.session.Logout(ctx, bob.Tokens.RefreshToken))
		_, err := f.session.RefreshAccessToken(ctx, bob.Tokens.AccessToken, bob.Tokens.RefreshToken)
		require.ErrorIs(t, err, service.ErrUnauthorized)
	})

	t.Run("rotation revokes the presented token", func(t *testing.T) {
		f.session.RotateRefreshTokens = true
		t.Cleanup(func() { f.session.RotateRefreshTokens = false })

		pair, err := f.session.RefreshAccessToken(ctx, alice.Tokens.AccessToken, alice.Tokens.RefreshToken)
		require.NoError(t, err)

		ok, err := f.tokens.ValidateRefreshToken(ctx, alice.Tokens.RefreshToken)
		require.NoError(t, err)
		require.False(t, ok)

		ok, err = f.tokens.ValidateRefreshToken(ctx, pair.RefreshToken)
		require.NoError(t, err)
		require.True(t, ok)
	})
}
