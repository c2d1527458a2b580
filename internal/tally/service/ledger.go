package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tallyhq/tally/internal/tally/cache"
	"github.com/tallyhq/tally/internal/tally/domain"
	"github.com/tallyhq/tally/internal/tally/store"
	"github.com/tallyhq/tally/pkg/slogx"
)

// ExpenseInput is an expense as submitted by a client. ID is only used by
// EditExpense and Date only by AddExpense.
type ExpenseInput struct {
	ID          string
	Amount      decimal.Decimal
	Description string
	CategoryID  string
	Frequency   string
	Date        string
}

// LedgerService manages a user's expenses and categories.
type LedgerService struct {
	Store store.Store

	// Cache holds category lists. nil disables caching.
	Cache cache.Categories
}

func (s *LedgerService) cache() cache.Categories {
	if s.Cache == nil {
		return cache.Nop{}
	}
	return s.Cache
}

// AddExpense records a new expense for userID. The category must exist
// and be visible to the user.
func (s *LedgerService) AddExpense(
	ctx context.Context,
	userID string,
	in ExpenseInput,
) (domain.ExpenseWithCategory, error) {
	if err := requireID("userId", userID); err != nil {
		return domain.ExpenseWithCategory{}, err
	}
	e, err := s.expenseFromInput(userID, in)
	if err != nil {
		return domain.ExpenseWithCategory{}, err
	}
	e.ID = uuid.NewString()
	e.ExpenseDate = parseExpenseDate(in.Date)

	var out domain.ExpenseWithCategory
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		cat, err := visibleCategory(ctx, tx, userID, e.CategoryID)
		if err != nil {
			return err
		}

		if err := tx.Expenses().CreateExpense(ctx, e); err != nil {
			if errors.Is(err, store.ErrForeignKey) {
				return ErrUserNotFound
			}
			return err
		}

		out = domain.ExpenseWithCategory{Expense: e, CategoryName: cat.Name}
		return nil
	})
	if err != nil {
		return domain.ExpenseWithCategory{}, err
	}

	slogx.FromContext(ctx).Info("expense added",
		slog.String("user_id", userID),
		slog.String("expense_id", e.ID),
	)
	return out, nil
}

// EditExpense rewrites amount, description, category and frequency of one
// of the user's expenses. The date, id and owner are left alone.
func (s *LedgerService) EditExpense(
	ctx context.Context,
	userID string,
	in ExpenseInput,
) (domain.ExpenseWithCategory, error) {
	if err := requireID("userId", userID); err != nil {
		return domain.ExpenseWithCategory{}, err
	}
	if err := requireID("id", strings.TrimSpace(in.ID)); err != nil {
		return domain.ExpenseWithCategory{}, err
	}
	e, err := s.expenseFromInput(userID, in)
	if err != nil {
		return domain.ExpenseWithCategory{}, err
	}
	e.ID = strings.TrimSpace(in.ID)

	var out domain.ExpenseWithCategory
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if _, err := visibleCategory(ctx, tx, userID, e.CategoryID); err != nil {
			return err
		}

		if err := tx.Expenses().UpdateExpense(ctx, e); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrExpenseNotFound
			}
			return err
		}

		joined, err := tx.Expenses().GetExpense(ctx, userID, e.ID)
		if err != nil {
			return err
		}
		out = joined
		return nil
	})
	if err != nil {
		return domain.ExpenseWithCategory{}, err
	}
	return out, nil
}

// DeleteExpenses removes the comma separated expenses owned by userID in a
// single statement. It returns the ids that were asked for, whether or not
// each one existed.
func (s *LedgerService) DeleteExpenses(ctx context.Context, userID, expenseIDs string) ([]string, error) {
	if err := requireID("userId", userID); err != nil {
		return nil, err
	}

	var requested []string
	for _, id := range strings.Split(expenseIDs, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if err := requireID("expenseIds", id); err != nil {
			return nil, err
		}
		requested = append(requested, id)
	}
	if len(requested) == 0 {
		return nil, validationError("expenseIds is required")
	}

	n, err := s.Store.Expenses().DeleteExpenses(ctx, userID, requested)
	if err != nil {
		return nil, err
	}

	slogx.FromContext(ctx).Info("expenses deleted",
		slog.String("user_id", userID),
		slog.Int("requested", len(requested)),
		slog.Int64("deleted", n),
	)
	return requested, nil
}

// GetExpensesByUser lists the user's expenses, newest first.
func (s *LedgerService) GetExpensesByUser(ctx context.Context, userID string) ([]domain.ExpenseWithCategory, error) {
	if err := requireID("userId", userID); err != nil {
		return nil, err
	}
	return s.Store.Expenses().ListExpensesByUser(ctx, userID)
}

// GetCategoriesByUser lists the default categories followed by the user's
// own. Results are served from the cache when possible; cache failures are
// logged and fall through to the store.
func (s *LedgerService) GetCategoriesByUser(ctx context.Context, userID string) ([]domain.Category, error) {
	log := slogx.FromContext(ctx)

	if err := requireID("userId", userID); err != nil {
		return nil, err
	}

	cats, err := s.cache().GetCategories(ctx, userID)
	if err == nil {
		return cats, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		log.Warn("category cache read failed", slog.Any("error", err))
	}

	cats, err = s.Store.Categories().ListCategoriesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.cache().SetCategories(ctx, userID, cats); err != nil {
		log.Warn("category cache write failed", slog.Any("error", err))
	}
	return cats, nil
}

// AddCategory creates a category owned by userID. The user must exist; no
// row is written otherwise.
func (s *LedgerService) AddCategory(ctx context.Context, userID, name string) (domain.Category, error) {
	log := slogx.FromContext(ctx)

	if err := requireID("userId", userID); err != nil {
		return domain.Category{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Category{}, validationError("name is required")
	}

	exists, err := s.Store.Users().Exists(ctx, userID)
	if err != nil {
		return domain.Category{}, err
	}
	if !exists {
		return domain.Category{}, ErrUserNotFound
	}

	c := domain.Category{
		ID:        uuid.NewString(),
		Name:      name,
		IsDefault: false,
		CreatedBy: userID,
	}
	switch err := s.Store.Categories().CreateCategory(ctx, c); {
	case errors.Is(err, store.ErrAlreadyExists):
		return domain.Category{}, ErrCategoryExists
	case errors.Is(err, store.ErrForeignKey):
		return domain.Category{}, ErrUserNotFound
	case err != nil:
		return domain.Category{}, err
	}

	if err := s.cache().InvalidateCategories(ctx, userID); err != nil {
		log.Warn("category cache invalidation failed", slog.Any("error", err))
	}

	log.Info("category added", slog.String("user_id", userID), slog.String("category_id", c.ID))
	return c, nil
}

// GetFrequencies lists every frequency tag in enum order.
func (s *LedgerService) GetFrequencies() []string {
	return domain.FrequencyTags()
}

// Amounts are stored with two decimal places and must stay below 10^12,
// which is what a NUMERIC(14, 2) column holds.
const amountPlaces = 2

var amountLimit = decimal.New(1, 12)

func checkAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	cents := amount.Truncate(amountPlaces)
	if !cents.Equal(amount) {
		return decimal.Decimal{}, validationError("amount %s has more than %d decimal places", amount, amountPlaces)
	}
	if cents.Abs().GreaterThanOrEqual(amountLimit) {
		return decimal.Decimal{}, validationError("amount %s is out of range", amount)
	}
	return cents, nil
}

func (s *LedgerService) expenseFromInput(userID string, in ExpenseInput) (domain.Expense, error) {
	categoryID := strings.TrimSpace(in.CategoryID)
	if err := requireID("categoryId", categoryID); err != nil {
		return domain.Expense{}, err
	}

	freq, err := domain.ParseFrequency(strings.TrimSpace(in.Frequency))
	if err != nil {
		return domain.Expense{}, validationError("%v", err)
	}

	amount, err := checkAmount(in.Amount)
	if err != nil {
		return domain.Expense{}, err
	}

	return domain.Expense{
		CreatedBy:   userID,
		CategoryID:  categoryID,
		Amount:      amount,
		Description: in.Description,
		Frequency:   freq,
	}, nil
}

// visibleCategory loads a category that is either a default or owned by
// userID. Other users' categories are reported as missing.
func visibleCategory(ctx context.Context, st store.Store, userID, id string) (domain.Category, error) {
	cat, err := st.Categories().GetCategoryByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Category{}, ErrCategoryNotFound
		}
		return domain.Category{}, err
	}
	if !cat.IsDefault && cat.CreatedBy != userID {
		return domain.Category{}, ErrCategoryNotFound
	}
	return cat, nil
}
