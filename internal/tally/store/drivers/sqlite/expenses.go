package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/tallyhq/tally/internal/tally/domain"
	"github.com/tallyhq/tally/internal/tally/store"
)

type expensesRepo struct {
	q querier
}

const expenseJoinSelect = `
SELECT e.id, e.created_by, e.category_id, c.name, e.amount, e.description, e.frequency, e.expense_date
  FROM expenses e
  JOIN categories c ON c.id = e.category_id`

func scanExpense(row interface{ Scan(...any) error }) (domain.ExpenseWithCategory, error) {
	var (
		e         domain.ExpenseWithCategory
		frequency int64
		date      sql.NullTime
	)
	err := row.Scan(
		&e.ID, &e.CreatedBy, &e.CategoryID, &e.CategoryName,
		&e.Amount, &e.Description, &frequency, &date,
	)
	if err != nil {
		return domain.ExpenseWithCategory{}, mapNotFound(err)
	}

	e.Frequency, err = domain.FrequencyFromStorage(frequency)
	if err != nil {
		return domain.ExpenseWithCategory{}, err
	}
	e.ExpenseDate = mapNullTimePtr(date)
	return e, nil
}

func (r *expensesRepo) CreateExpense(ctx context.Context, e domain.Expense) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO expenses (id, created_by, amount, description, category_id, frequency, expense_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.CreatedBy, e.Amount.String(), e.Description, e.CategoryID,
		e.Frequency.StorageValue(), mapOptionalTime(e.ExpenseDate),
	)
	return mapConstraint(err)
}

func (r *expensesRepo) UpdateExpense(ctx context.Context, e domain.Expense) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE expenses
		    SET amount = ?, description = ?, category_id = ?, frequency = ?
		  WHERE id = ? AND created_by = ?`,
		e.Amount.String(), e.Description, e.CategoryID, e.Frequency.StorageValue(),
		e.ID, e.CreatedBy,
	)
	if err != nil {
		return mapConstraint(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *expensesRepo) GetExpense(
	ctx context.Context,
	userID, id string,
) (domain.ExpenseWithCategory, error) {
	return scanExpense(r.q.QueryRowContext(ctx,
		expenseJoinSelect+` WHERE e.id = ? AND e.created_by = ?`, id, userID))
}

func (r *expensesRepo) DeleteExpenses(ctx context.Context, userID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	args := make([]any, 0, len(ids)+1)
	args = append(args, userID)
	for _, id := range ids {
		args = append(args, id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")

	res, err := r.q.ExecContext(ctx,
		`DELETE FROM expenses WHERE created_by = ? AND id IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *expensesRepo) ListExpensesByUser(
	ctx context.Context,
	userID string,
) ([]domain.ExpenseWithCategory, error) {
	rows, err := r.q.QueryContext(ctx,
		expenseJoinSelect+`
		 WHERE e.created_by = ?
		 ORDER BY e.expense_date IS NULL, e.expense_date DESC, e.id ASC`, userID)
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
