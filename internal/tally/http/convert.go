package http

import (
	"github.com/tallyhq/tally/internal/tally/domain"
	"github.com/tallyhq/tally/pkg/tallysdk"
)

func toUser(u domain.User) tallysdk.User {
	return tallysdk.User{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		IsGuest:   u.IsGuest(),
		CreatedAt: u.CreatedAt,
	}
}

func toExpense(e domain.ExpenseWithCategory) tallysdk.Expense {
	return tallysdk.Expense{
		ID:           e.ID,
		CreatedBy:    e.CreatedBy,
		Amount:       e.Amount,
		Description:  e.Description,
		CategoryID:   e.CategoryID,
		CategoryName: e.CategoryName,
		Frequency:    e.Frequency.String(),
		ExpenseDate:  e.ExpenseDate,
	}
}

func toCategory(c domain.Category) tallysdk.Category {
	return tallysdk.Category{
		ID:        c.ID,
		Name:      c.Name,
		IsDefault: c.IsDefault,
		CreatedBy: c.CreatedBy,
	}
}
