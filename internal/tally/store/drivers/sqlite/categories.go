package sqlite

import (
	"context"
	"database/sql"

	"github.com/tallyhq/tally/internal/tally/domain"
)

type categoriesRepo struct {
	q querier
}

func scanCategory(row interface{ Scan(...any) error }) (domain.Category, error) {
	var (
		c         domain.Category
		createdBy sql.NullString
	)
	if err := row.Scan(&c.ID, &c.Name, &c.IsDefault, &createdBy); err != nil {
		return domain.Category{}, mapNotFound(err)
	}
	c.CreatedBy = mapNullString(createdBy)
	return c, nil
}

func (r *categoriesRepo) CreateCategory(ctx context.Context, c domain.Category) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO categories (id, name, is_default, created_by) VALUES (?, ?, ?, ?)`,
		c.ID, c.Name, c.IsDefault, mapStringNull(c.CreatedBy),
	)
	return mapConstraint(err)
}

func (r *categoriesRepo) GetCategoryByID(ctx context.Context, id string) (domain.Category, error) {
	return scanCategory(r.q.QueryRowContext(ctx,
		`SELECT id, name, is_default, created_by FROM categories WHERE id = ?`, id))
}

func (r *categoriesRepo) ListCategoriesForUser(
	ctx context.Context,
	userID string,
) ([]domain.Category, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, name, is_default, created_by
		   FROM categories
		  WHERE is_default = 1 OR created_by = ?
		  ORDER BY is_default DESC, name ASC, id ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
