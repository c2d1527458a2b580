package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tallyhq/tally/internal/tally/domain"
	"github.com/tallyhq/tally/internal/tally/store"
)

type expensesRepo struct {
	q querier
}

// Amounts cross the wire as text so NUMERIC keeps its exact scale.
const expenseJoinSelect = `
SELECT e.id::text, e.created_by::text, e.category_id::text, c.name,
       e.amount::text, e.description, e.frequency, e.expense_date
  FROM expenses e
  JOIN categories c ON c.id = e.category_id`

func scanExpense(row interface{ Scan(...any) error }) (domain.ExpenseWithCategory, error) {
	var (
		e         domain.ExpenseWithCategory
		amount    string
		frequency int64
		date      *time.Time
	)
	err := row.Scan(
		&e.ID, &e.CreatedBy, &e.CategoryID, &e.CategoryName,
		&amount, &e.Description, &frequency, &date,
	)
	if err != nil {
		return domain.ExpenseWithCategory{}, mapNotFound(err)
	}

	e.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return domain.ExpenseWithCategory{}, fmt.Errorf("scan amount %q: %w", amount, err)
	}
	e.Frequency, err = domain.FrequencyFromStorage(frequency)
	if err != nil {
		return domain.ExpenseWithCategory{}, err
	}
	if date != nil {
		d := date.UTC()
		e.ExpenseDate = &d
	}
	return e, nil
}

func optionalTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func (r *expensesRepo) CreateExpense(ctx context.Context, e domain.Expense) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO expenses (id, created_by, amount, description, category_id, frequency, expense_date)
		 VALUES ($1, $2, $3::numeric, $4, $5, $6, $7)`,
		e.ID, e.CreatedBy, e.Amount.String(), e.Description, e.CategoryID,
		e.Frequency.StorageValue(), optionalTime(e.ExpenseDate),
	)
	return mapConstraint(err)
}

func (r *expensesRepo) UpdateExpense(ctx context.Context, e domain.Expense) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE expenses
		    SET amount = $1::numeric, description = $2, category_id = $3, frequency = $4
		  WHERE id = $5 AND created_by = $6`,
		e.Amount.String(), e.Description, e.CategoryID, e.Frequency.StorageValue(),
		e.ID, e.CreatedBy,
	)
	if err != nil {
		return mapConstraint(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *expensesRepo) GetExpense(
	ctx context.Context,
	userID, id string,
) (domain.ExpenseWithCategory, error) {
	return scanExpense(r.q.QueryRow(ctx,
		expenseJoinSelect+` WHERE e.id = $1 AND e.created_by = $2`, id, userID))
}

func (r *expensesRepo) DeleteExpenses(ctx context.Context, userID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tag, err := r.q.Exec(ctx,
		`DELETE FROM expenses WHERE created_by = $1 AND id::text = ANY($2::text[])`, userID, ids)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *expensesRepo) ListExpensesByUser(
	ctx context.Context,
	userID string,
) ([]domain.ExpenseWithCategory, error) {
	rows, err := r.q.Query(ctx,
		expenseJoinSelect+`
		 WHERE e.created_by = $1
		 ORDER BY e.expense_date DESC NULLS LAST, e.id ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.ExpenseWithCategory{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
