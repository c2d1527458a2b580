package tallysdk

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterRequest is the body of /users/register and /users/registerGuest.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsGuest   bool      `json:"isGuest"`
	CreatedAt time.Time `json:"createdAt"`
}

// AuthResponse is returned by register, login and guest.
type AuthResponse struct {
	Message      string `json:"message"`
	User         User   `json:"user"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// UserResponse is returned by a guest upgrade.
type UserResponse struct {
	Message string `json:"message"`
	User    User   `json:"user"`
}

// TokenPair is both the body and the response of /auth/refresh.
type TokenPair struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// ExpenseRequest is the body of addExpense and editExpense. ID is only read
// by editExpense. Date accepts several layouts; unparsable dates are stored
// as null.
type ExpenseRequest struct {
	ID          string          `json:"id,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	CategoryID  string          `json:"categoryId"`
	Frequency   string          `json:"frequency"`
	Date        string          `json:"date,omitempty"`
}

type Expense struct {
	ID           string          `json:"id"`
	CreatedBy    string          `json:"createdBy"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description"`
	CategoryID   string          `json:"categoryId"`
	CategoryName string          `json:"categoryName"`
	Frequency    string          `json:"frequency"`
	ExpenseDate  *time.Time      `json:"expenseDate"`
}

type DeleteExpensesResponse struct {
	DeletedIDs []string `json:"deletedIds"`
	Count      int      `json:"count"`
}

type CategoryRequest struct {
	Name string `json:"name"`
}

type Category struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"isDefault"`
	CreatedBy string `json:"createdBy,omitempty"`
}

// HealthResponse is returned by /livez and /readyz. Checks is only set by
// /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime,omitempty"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database string `json:"database"`
	Cache    string `json:"cache"`
}
