package tallysdk

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// Session performs calls on behalf of one user. When the API answers 401 the
// session refreshes its tokens once and retries the call.
type Session struct {
	client *SDKClient
	userID string

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
}

// NewSession builds a session from tokens obtained elsewhere.
func (c *SDKClient) NewSession(userID, accessToken, refreshToken string) *Session {
	return &Session{
		client:       c,
		userID:       userID,
		accessToken:  accessToken,
		refreshToken: refreshToken,
	}
}

func (s *Session) UserID() string { return s.userID }

// Tokens returns the current access and refresh tokens.
func (s *Session) Tokens() (access, refresh string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken, s.refreshToken
}

// Refresh swaps the session's tokens for a fresh pair.
func (s *Session) Refresh(ctx context.Context) error {
	access, refresh := s.Tokens()
	pair, err := s.client.Refresh(ctx, access, refresh)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.accessToken = pair.Token
	s.refreshToken = pair.RefreshToken
	s.mu.Unlock()
	return nil
}

// Logout revokes the session's refresh token.
func (s *Session) Logout(ctx context.Context) error {
	_, refresh := s.Tokens()
	return s.client.Logout(ctx, refresh)
}

// UpgradeGuest turns the session's guest account into a registered one.
func (s *Session) UpgradeGuest(ctx context.Context, req RegisterRequest) (*UserResponse, error) {
	var out UserResponse
	if err := s.do(ctx, http.MethodPatch, s.path("/users/registerGuest", nil), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) AddExpense(ctx context.Context, req ExpenseRequest) (*Expense, error) {
	var out Expense
	if err := s.do(ctx, http.MethodPost, s.path("/expenses/addExpense", nil), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) EditExpense(ctx context.Context, req ExpenseRequest) (*Expense, error) {
	var out Expense
	if err := s.do(ctx, http.MethodPatch, s.path("/expenses/editExpense", nil), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) DeleteExpenses(ctx context.Context, ids ...string) (*DeleteExpensesResponse, error) {
	q := url.Values{"expenseIds": {strings.Join(ids, ",")}}
	var out DeleteExpensesResponse
	if err := s.do(ctx, http.MethodDelete, s.path("/expenses/deleteExpenses", q), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) ListExpenses(ctx context.Context) ([]Expense, error) {
	var out []Expense
	if err := s.do(ctx, http.MethodGet, s.path("/expenses/getExpenses", nil), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Session) ListCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	if err := s.do(ctx, http.MethodGet, s.path("/expenses/getCategories", nil), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Session) AddCategory(ctx context.Context, name string) (*Category, error) {
	var out Category
	req := CategoryRequest{Name: name}
	if err := s.do(ctx, http.MethodPost, s.path("/expenses/addCategory", nil), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) path(p string, q url.Values) string {
	if q == nil {
		q = url.Values{}
	}
	q.Set("userId", s.userID)
	return p + "?" + q.Encode()
}

func (s *Session) do(ctx context.Context, method, path string, body, target any) error {
	access, _ := s.Tokens()
	err := s.client.doJSON(ctx, method, path, access, body, target)
	if !errors.Is(err, ErrUnauthorized) {
		return err
	}

	if rerr := s.Refresh(ctx); rerr != nil {
		return err
	}
	access, _ = s.Tokens()
	return s.client.doJSON(ctx, method, path, access, body, target)
}
