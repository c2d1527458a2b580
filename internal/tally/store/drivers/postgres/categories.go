package postgres

import (
	"context"

	"github.com/tallyhq/tally/internal/tally/domain"
)

type categoriesRepo struct {
	q querier
}

const categoryColumns = `id::text, name, is_default, created_by::text`

func scanCategory(row interface{ Scan(...any) error }) (domain.Category, error) {
	var (
		c         domain.Category
		createdBy *string
	)
	if err := row.Scan(&c.ID, &c.Name, &c.IsDefault, &createdBy); err != nil {
		return domain.Category{}, mapNotFound(err)
	}
	if createdBy != nil {
		c.CreatedBy = *createdBy
	}
	return c, nil
}

func (r *categoriesRepo) CreateCategory(ctx context.Context, c domain.Category) error {
	var createdBy *string
	if c.CreatedBy != "" {
		createdBy = &c.CreatedBy
	}

	_, err := r.q.Exec(ctx,
		`INSERT INTO categories (id, name, is_default, created_by) VALUES ($1, $2, $3, $4)`,
		c.ID, c.Name, c.IsDefault, createdBy,
	)
	return mapConstraint(err)
}

func (r *categoriesRepo) GetCategoryByID(ctx context.Context, id string) (domain.Category, error) {
	return scanCategory(r.q.QueryRow(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
}

func (r *categoriesRepo) ListCategoriesForUser(
	ctx context.Context,
	userID string,
) ([]domain.Category, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+categoryColumns+`
		   FROM categories
		  WHERE is_default OR created_by = $1
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
