package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID        string
	Name      string
	IsDefault bool
	CreatedBy string // empty for default categories
}

type Expense struct {
	ID          string
	CreatedBy   string
	CategoryID  string
	Amount      decimal.Decimal
	Description string
	Frequency   Frequency
	ExpenseDate *time.Time // nil when the client sent no usable date
}

// ExpenseWithCategory is an expense joined with its category name, which is
// what every read path returns.
type ExpenseWithCategory struct {
	Expense
	CategoryName string
}
