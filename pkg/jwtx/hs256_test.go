package jwtx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tallyhq/tally/pkg/jwtx"
)

var (
	testKey  = []byte(strings.Repeat("k", 32))
	otherKey = []byte(strings.Repeat("o", 32))
)

func TestNewHS256RejectsWeakKeys(t *testing.T) {
	_, err := jwtx.NewHS256(nil, "tally", nil)
	require.ErrorIs(t, err, jwtx.ErrWeakKey)

	_, err = jwtx.NewHS256([]byte("short"), "tally", nil)
	require.ErrorIs(t, err, jwtx.ErrWeakKey)
}

func TestHS256SignVerify(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	h, err := jwtx.NewHS256(testKey, "tally", []string{"tally"})
	require.NoError(t, err)
	h.Now = func() time.Time { return now }

	tok, err := h.Sign(jwtx.NewClaims("user-1", 2*time.Hour, "tally", []string{"tally"}, now))
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		claims, err := h.Verify(tok)
		require.NoError(t, err)
		require.Equal(t, "user-1", claims.Subject)
	})

	t.Run("wrong key", func(t *testing.T) {
		other, err := jwtx.NewHS256(otherKey, "tally", []string{"tally"})
		require.NoError(t, err)
		other.Now = h.Now

		_, err = other.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other, err := jwtx.NewHS256(testKey, "elsewhere", nil)
		require.NoError(t, err)
		other.Now = h.Now

		_, err = other.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrIssuer)
	})

	t.Run("wrong audience", func(t *testing.T) {
		other, err := jwtx.NewHS256(testKey, "tally", []string{"admin"})
		require.NoError(t, err)
		other.Now = h.Now

		_, err = other.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrAudience)
	})

	t.Run("expired", func(t *testing.T) {
		later, err := jwtx.NewHS256(testKey, "tally", []string{"tally"})
		require.NoError(t, err)
		later.Now = func() time.Time { return now.Add(2 * time.Hour) }

		_, err = later.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := h.Verify("not.a.jwt")
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})
}

func TestExtractSubject(t *testing.T) {
	h, err := jwtx.NewHS256(testKey, "tally", nil)
	require.NoError(t, err)

	expired := jwtx.NewClaims("user-1", time.Hour, "tally", nil, time.Now().Add(-48*time.Hour))
	tok, err := h.Sign(expired)
	require.NoError(t, err)

	t.Run("expired tokens still yield the subject", func(t *testing.T) {
		sub, err := jwtx.ExtractSubject(tok)
		require.NoError(t, err)
		require.Equal(t, "user-1", sub)
	})

	t.Run("missing subject", func(t *testing.T) {
		tok, err := h.Sign(jwtx.NewClaims("", time.Hour, "tally", nil, time.Now()))
		require.NoError(t, err)

		_, err = jwtx.ExtractSubject(tok)
		require.ErrorIs(t, err, jwtx.ErrMissingSubject)
	})

	t.Run("undecodable", func(t *testing.T) {
		_, err := jwtx.ExtractSubject("garbage")
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})
}
