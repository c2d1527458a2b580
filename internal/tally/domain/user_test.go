package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tallyhq/tally/internal/tally/domain"
)

func TestUserUpgrade(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	guest := domain.User{
		ID:           "7d1c1b0e-2f7b-4f7e-9a57-0b1f4bbf6a10",
		Username:     "guest-7d1c1b0e",
		Email:        "guest-7d1c1b0e@guest.local",
		PasswordHash: "placeholder",
		Kind:         domain.UserKindGuest,
		CreatedAt:    created,
	}

	t.Run("guest becomes registered with the same id", func(t *testing.T) {
		now := created.Add(time.Hour)
		u, err := guest.Upgrade("alice", "alice@example.com", "digest", now)
		require.NoError(t, err)
		require.Equal(t, guest.ID, u.ID)
		require.Equal(t, "alice", u.Username)
		require.Equal(t, "alice@example.com", u.Email)
		require.Equal(t, "digest", u.PasswordHash)
		require.Equal(t, domain.UserKindRegistered, u.Kind)
		require.Equal(t, now, u.CreatedAt)
		require.False(t, u.IsGuest())
	})

	t.Run("registered users cannot be upgraded again", func(t *testing.T) {
		registered := guest
		registered.Kind = domain.UserKindRegistered
		_, err := registered.Upgrade("bob", "bob@example.com", "digest", created)
		require.ErrorIs(t, err, domain.ErrAlreadyRegistered)
	})
}

func TestRefreshTokenValidAt(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rt := domain.RefreshToken{ExpiresAt: issued.Add(24 * time.Hour)}

	require.True(t, rt.ValidAt(issued.Add(23*time.Hour+59*time.Minute)))
	require.False(t, rt.ValidAt(issued.Add(24*time.Hour)))
	require.False(t, rt.ValidAt(issued.Add(24*time.Hour+time.Minute)))

	rt.Revoked = true
	require.False(t, rt.ValidAt(issued))
}
