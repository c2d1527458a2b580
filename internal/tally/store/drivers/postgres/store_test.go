//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/tallyhq/tally/internal/tally/domain"
	"github.com/tallyhq/tally/internal/tally/store"
	"github.com/tallyhq/tally/internal/tally/store/drivers/postgres"
	"github.com/tallyhq/tally/pkg/idx"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const foodCategoryID = "00000000-0000-4000-8000-000000000001"

func newTestStore(t *testing.T) *postgres.Store {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("tally"),
		tcpostgres.WithUsername("tally"),
		tcpostgres.WithPassword("tally"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := postgres.NewStore(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPostgresStore(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	u := domain.User{
		ID:           uuid.NewString(),
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		Kind:         domain.UserKindRegistered,
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, s.Users().CreateUser(ctx, u))

	t.Run("duplicate username is ErrAlreadyExists", func(t *testing.T) {
		dup := u
		dup.ID = uuid.NewString()
		dup.Email = "other@example.com"
		require.ErrorIs(t, s.Users().CreateUser(ctx, dup), store.ErrAlreadyExists)
	})

	t.Run("refresh token round trip and revoke", func(t *testing.T) {
		rt := domain.RefreshToken{
			ID:        idx.New().String(),
			UserID:    u.ID,
			TokenHash: "fingerprint",
			ExpiresAt: time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second),
			CreatedAt: time.Now().UTC().Truncate(time.Second),
		}
		require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, rt))

		n, err := s.RefreshTokens().ConsumeRefreshToken(ctx, "fingerprint", time.Now())
		require.NoError(t, err)
		require.EqualValues(t, 1, n)
		n, err = s.RefreshTokens().ConsumeRefreshToken(ctx, "fingerprint", time.Now())
		require.NoError(t, err)
		require.EqualValues(t, 0, n)

		require.NoError(t, s.RefreshTokens().RevokeRefreshToken(ctx, "fingerprint"))
		got, err := s.RefreshTokens().GetRefreshTokenByHash(ctx, "fingerprint")
		require.NoError(t, err)
		require.Equal(t, u.ID, got.UserID)
		require.True(t, got.Revoked)
		require.True(t, rt.ExpiresAt.Equal(got.ExpiresAt))

		n, err = s.RefreshTokens().DeleteDeadRefreshTokens(ctx, time.Now())
		require.NoError(t, err)
		require.EqualValues(t, 1, n)
		_, err = s.RefreshTokens().GetRefreshTokenByHash(ctx, "fingerprint")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("defaults are seeded and user categories are scoped", func(t *testing.T) {
		require.NoError(t, s.Categories().CreateCategory(ctx, domain.Category{
			ID: uuid.NewString(), Name: "Pets", CreatedBy: u.ID,
		}))

		cats, err := s.Categories().ListCategoriesForUser(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, cats, 8)
		require.True(t, cats[0].IsDefault)
		require.Equal(t, "Pets", cats[7].Name)

		others, err := s.Categories().ListCategoriesForUser(ctx, uuid.NewString())
		require.NoError(t, err)
		require.Len(t, others, 7)
	})

	t.Run("expense amounts keep their exact value", func(t *testing.T) {
		date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		e := domain.Expense{
			ID:          uuid.NewString(),
			CreatedBy:   u.ID,
			CategoryID:  foodCategoryID,
			Amount:      decimal.RequireFromString("12.34"),
			Description: "lunch",
			Frequency:   domain.FrequencyWeekly,
			ExpenseDate: &date,
		}
		require.NoError(t, s.Expenses().CreateExpense(ctx, e))

		got, err := s.Expenses().GetExpense(ctx, u.ID, e.ID)
		require.NoError(t, err)
		require.True(t, e.Amount.Equal(got.Amount))
		require.Equal(t, "Food", got.CategoryName)
		require.Equal(t, domain.FrequencyWeekly, got.Frequency)
		require.NotNil(t, got.ExpenseDate)
		require.True(t, date.Equal(*got.ExpenseDate))

		n, err := s.Expenses().DeleteExpenses(ctx, u.ID, []string{e.ID, uuid.NewString()})
		require.NoError(t, err)
		require.EqualValues(t, 1, n)

		_, err = s.Expenses().GetExpense(ctx, u.ID, e.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}
