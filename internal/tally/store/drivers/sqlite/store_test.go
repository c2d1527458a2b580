package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/tallyhq/tally/internal/tally/domain"
	"github.com/tallyhq/tally/internal/tally/store"
	"github.com/tallyhq/tally/internal/tally/store/drivers/sqlite"
	"github.com/tallyhq/tally/pkg/idx"
)

const foodCategoryID = "00000000-0000-4000-8000-000000000001"

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func createUser(t *testing.T, s store.Store, username string) domain.User {
	t.Helper()

	u := domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		Kind:         domain.UserKindRegistered,
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	alice := createUser(t, s, "alice")

	t.Run("lookup by id, username and email", func(t *testing.T) {
		got, err := s.Users().GetUserByID(ctx, alice.ID)
		require.NoError(t, err)
		require.Equal(t, alice.Username, got.Username)
		require.Equal(t, alice.Email, got.Email)
		require.Equal(t, alice.PasswordHash, got.PasswordHash)
		require.Equal(t, domain.UserKindRegistered, got.Kind)
		require.True(t, alice.CreatedAt.Equal(got.CreatedAt))

		got, err = s.Users().GetUserByUsername(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, alice.ID, got.ID)

		got, err = s.Users().GetUserByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.Equal(t, alice.ID, got.ID)
	})

	t.Run("unknown user is ErrNotFound", func(t *testing.T) {
		_, err := s.Users().GetUserByUsername(ctx, "nobody")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("duplicate username is ErrAlreadyExists", func(t *testing.T) {
		dup := alice
		dup.ID = uuid.NewString()
		dup.Email = "other@example.com"
		require.ErrorIs(t, s.Users().CreateUser(ctx, dup), store.ErrAlreadyExists)
	})

	t.Run("duplicate email is ErrAlreadyExists", func(t *testing.T) {
		dup := alice
		dup.ID = uuid.NewString()
		dup.Username = "alice2"
		require.ErrorIs(t, s.Users().CreateUser(ctx, dup), store.ErrAlreadyExists)
	})

	t.Run("update missing row is ErrNotFound", func(t *testing.T) {
		ghost := alice
		ghost.ID = uuid.NewString()
		ghost.Username = "ghost"
		ghost.Email = "ghost@example.com"
		require.ErrorIs(t, s.Users().UpdateUser(ctx, ghost), store.ErrNotFound)
	})

	t.Run("exists", func(t *testing.T) {
		ok, err := s.Users().Exists(ctx, alice.ID)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = s.Users().Exists(ctx, uuid.NewString())
		require.NoError(t, err)
		require.False(t, ok)
	})
}

func TestRefreshTokens(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := createUser(t, s, "bob")
	now := time.Now().UTC().Truncate(time.Second)

	rt := domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    u.ID,
		TokenHash: "fingerprint",
		ExpiresAt: now.Add(24 * time.Hour),
		CreatedAt: now,
	}
	require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, rt))

	got, err := s.RefreshTokens().GetRefreshTokenByHash(ctx, "fingerprint")
	require.NoError(t, err)
	require.Equal(t, rt.ID, got.ID)
	require.Equal(t, u.ID, got.UserID)
	require.True(t, rt.ExpiresAt.Equal(got.ExpiresAt))
	require.False(t, got.Revoked)

	require.NoError(t, s.RefreshTokens().RevokeRefreshToken(ctx, "fingerprint"))
	got, err = s.RefreshTokens().GetRefreshTokenByHash(ctx, "fingerprint")
	require.NoError(t, err)
	require.True(t, got.Revoked)

	// Revoking twice, or revoking something unknown, is not an error.
	require.NoError(t, s.RefreshTokens().RevokeRefreshToken(ctx, "fingerprint"))
	require.NoError(t, s.RefreshTokens().RevokeRefreshToken(ctx, "unknown"))

	dup := rt
	dup.ID = idx.New().String()
	require.ErrorIs(t, s.RefreshTokens().CreateRefreshToken(ctx, dup), store.ErrAlreadyExists)
}

func TestConsumeRefreshToken(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := createUser(t, s, "dave")
	now := time.Now().UTC().Truncate(time.Second)

	for _, rt := range []domain.RefreshToken{
		{TokenHash: "live", ExpiresAt: now.Add(time.Hour)},
		{TokenHash: "expires-now", ExpiresAt: now},
		{TokenHash: "revoked", ExpiresAt: now.Add(time.Hour), Revoked: true},
	} {
		rt.ID = idx.New().String()
		rt.UserID = u.ID
		rt.CreatedAt = now.Add(-time.Hour)
		require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, rt))
	}

	tests := []struct {
		hash string
		want int64
	}{
		{"live", 1},
		{"live", 0},
		{"expires-now", 0},
		{"revoked", 0},
		{"unknown", 0},
	}
	for _, tt := range tests {
		n, err := s.RefreshTokens().ConsumeRefreshToken(ctx, tt.hash, now)
		require.NoError(t, err)
		require.Equal(t, tt.want, n, tt.hash)
	}

	got, err := s.RefreshTokens().GetRefreshTokenByHash(ctx, "live")
	require.NoError(t, err)
	require.True(t, got.Revoked)
}

func TestDeleteDeadRefreshTokens(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := createUser(t, s, "carol")
	now := time.Now().UTC().Truncate(time.Second)

	for _, rt := range []domain.RefreshToken{
		{TokenHash: "live", ExpiresAt: now.Add(time.Hour)},
		{TokenHash: "expired", ExpiresAt: now.Add(-time.Hour)},
		{TokenHash: "expires-now", ExpiresAt: now},
		{TokenHash: "revoked", ExpiresAt: now.Add(time.Hour), Revoked: true},
	} {
		rt.ID = idx.New().String()
		rt.UserID = u.ID
		rt.CreatedAt = now.Add(-2 * time.Hour)
		require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, rt))
	}

	n, err := s.RefreshTokens().DeleteDeadRefreshTokens(ctx, now)
	require.NoError(t, err)
	require.EqualValues(t, 3, n)

	_, err = s.RefreshTokens().GetRefreshTokenByHash(ctx, "live")
	require.NoError(t, err)
	_, err = s.RefreshTokens().GetRefreshTokenByHash(ctx, "revoked")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestCategories(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")

	defaults, err := s.Categories().ListCategoriesForUser(ctx, alice.ID)
	require.NoError(t, err)
	require.NotEmpty(t, defaults)
	for _, c := range defaults {
		require.True(t, c.IsDefault)
		require.Empty(t, c.CreatedBy)
	}

	mine := domain.Category{ID: uuid.NewString(), Name: "Books", CreatedBy: alice.ID}
	theirs := domain.Category{ID: uuid.NewString(), Name: "Games", CreatedBy: bob.ID}
	require.NoError(t, s.Categories().CreateCategory(ctx, mine))
	require.NoError(t, s.Categories().CreateCategory(ctx, theirs))

	t.Run("union of defaults and own rows without duplicates", func(t *testing.T) {
		got, err := s.Categories().ListCategoriesForUser(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, got, len(defaults)+1)

		seen := map[string]bool{}
		for _, c := range got {
			require.False(t, seen[c.ID], "duplicate category %s", c.ID)
			seen[c.ID] = true
			require.NotEqual(t, theirs.ID, c.ID)
		}
		require.True(t, seen[mine.ID])
	})

	t.Run("same name for same owner is ErrAlreadyExists", func(t *testing.T) {
		dup := mine
		dup.ID = uuid.NewString()
		require.ErrorIs(t, s.Categories().CreateCategory(ctx, dup), store.ErrAlreadyExists)
	})

	t.Run("missing owner is ErrForeignKey", func(t *testing.T) {
		orphan := domain.Category{ID: uuid.NewString(), Name: "Orphan", CreatedBy: uuid.NewString()}
		require.ErrorIs(t, s.Categories().CreateCategory(ctx, orphan), store.ErrForeignKey)

		_, err := s.Categories().GetCategoryByID(ctx, orphan.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestExpenses(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")

	date := time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)
	newExpense := func(owner string, date *time.Time) domain.Expense {
		e := domain.Expense{
			ID:          uuid.NewString(),
			CreatedBy:   owner,
			CategoryID:  foodCategoryID,
			Amount:      decimal.RequireFromString("12.50"),
			Description: "lunch",
			Frequency:   domain.FrequencyWeekly,
			ExpenseDate: date,
		}
		require.NoError(t, s.Expenses().CreateExpense(ctx, e))
		return e
	}

	dated := newExpense(alice.ID, &date)
	undated := newExpense(alice.ID, nil)
	other := newExpense(bob.ID, nil)

	t.Run("list joins category and sorts undated last", func(t *testing.T) {
		got, err := s.Expenses().ListExpensesByUser(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, got, 2)
		require.Equal(t, dated.ID, got[0].ID)
		require.Equal(t, "Food", got[0].CategoryName)
		require.True(t, dated.Amount.Equal(got[0].Amount))
		require.Equal(t, domain.FrequencyWeekly, got[0].Frequency)
		require.NotNil(t, got[0].ExpenseDate)
		require.True(t, date.Equal(*got[0].ExpenseDate))
		require.Equal(t, undated.ID, got[1].ID)
		require.Nil(t, got[1].ExpenseDate)
	})

	t.Run("update is scoped to the owner", func(t *testing.T) {
		edit := other
		edit.CreatedBy = alice.ID
		require.ErrorIs(t, s.Expenses().UpdateExpense(ctx, edit), store.ErrNotFound)

		edit = dated
		edit.Amount = decimal.RequireFromString("99.99")
		edit.Frequency = domain.FrequencyYearly
		require.NoError(t, s.Expenses().UpdateExpense(ctx, edit))

		got, err := s.Expenses().GetExpense(ctx, alice.ID, dated.ID)
		require.NoError(t, err)
		require.Equal(t, "99.99", got.Amount.StringFixed(2))
		require.Equal(t, domain.FrequencyYearly, got.Frequency)
		require.True(t, date.Equal(*got.ExpenseDate))
	})

	t.Run("unknown category is ErrForeignKey", func(t *testing.T) {
		e := dated
		e.ID = uuid.NewString()
		e.CategoryID = uuid.NewString()
		require.ErrorIs(t, s.Expenses().CreateExpense(ctx, e), store.ErrForeignKey)
	})

	t.Run("delete removes only the owner's matching rows", func(t *testing.T) {
		n, err := s.Expenses().DeleteExpenses(ctx, alice.ID,
			[]string{dated.ID, undated.ID, other.ID, uuid.NewString()})
		require.NoError(t, err)
		require.Equal(t, int64(2), n)

		left, err := s.Expenses().ListExpensesByUser(ctx, bob.ID)
		require.NoError(t, err)
		require.Len(t, left, 1)
	})
}

func TestWithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	u := domain.User{
		ID:           uuid.NewString(),
		Username:     "carol",
		Email:        "carol@example.com",
		PasswordHash: "hash",
		Kind:         domain.UserKindRegistered,
		CreatedAt:    time.Now().UTC(),
	}

	err := s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, u); err != nil {
			return err
		}
		return store.ErrNotFound
	})
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Users().GetUserByID(ctx, u.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}
