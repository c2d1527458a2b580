package http

import (
	"net/http"

	"github.com/tallyhq/tally/internal/tally/service"
	"github.com/tallyhq/tally/pkg/httpx"
	"github.com/tallyhq/tally/pkg/tallysdk"
)

type ExpensesHandler struct {
	LedgerService *service.LedgerService
}

func expenseInput(req tallysdk.ExpenseRequest) service.ExpenseInput {
	return service.ExpenseInput{
		ID:          req.ID,
		Amount:      req.Amount,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Frequency:   req.Frequency,
		Date:        req.Date,
	}
}

// HandleAdd godoc
//
//	@Summary		Add expense
//	@Description	Record an expense. The category must be a default one or one of the user's own. Amounts are decimal strings.
//	@Tags			Expenses
//	@Accept			json
//	@Produce		json
//	@Param			userId	query		string					false	"Must match the token subject"
//	@Param			request	body		tallysdk.ExpenseRequest	true	"Expense"
//	@Success		200		{object}	tallysdk.Expense
//	@Failure		400		{object}	tallysdk.APIError	"error, error_description"
//	@Failure		401		{object}	tallysdk.APIError	"error, error_description"
//	@Failure		403		{object}	tallysdk.APIError	"error, error_description"
//	@Failure		404		{object}	tallysdk.APIError	"error, error_description"
//	@Failure		500		{object}	tallysdk.APIError	"error, error_description"
//	@Security		BearerAuth
//	@Router			/expenses/addExpense [post].
func (h *ExpensesHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var req tallysdk.ExpenseRequest
	if !decodeBody(w, r, &req) {
		return
	}

	e, err := h.LedgerService.AddExpense(r.Context(), actingUser(r), expenseInput(req))
	if err != nil {
		writeServiceError(w, r, "add expense", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toExpense(e))
}

// HandleEdit godoc
//
//	@Summary		Edit expense
//	@Description	Rewrite amount, description, category and frequency of one of the user's expenses. The expense date is not changed.
//	@Tags			Expenses
//	@Accept			json
//	@Produce		json
//	@Param			userId	query		string					false	"Must match the token subject"
//	@Param			request	body		tallysdk.ExpenseRequest	true	"Expense with id"
//	@Success		200		{object}	tallysdk.Expense
//	@Failure		400		{object}	tallysdk.APIError	"error, error_description"
//	@Failure		401		{object}	tallysdk.APIError	"error, error_description"
//	@Failure		403		{object}	tallysdk.APIError	"error, error_description"
//	@Failure		404		{object}	tallysdk.APIError	"error, error_description"
//	@Failure		500		{object}	tallysdk.APIError	"error, error_description"
//	@Security		BearerAuth
//	@Router			/expenses/editExpense [patch].
func (h *ExpensesHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	var req tallysdk.ExpenseRequest
	if !decodeBody(w, r, &req) {
		return
	}

	e, err := h.LedgerService.EditExpense(r.Context(), actingUser(r), expenseInput(req))
	if err != nil {
		writeServiceError(w, r, "edit expense", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toExpense(e))
}

// HandleDelete godoc
//
//	@Summary		Delete expenses
//	@Description	Delete a comma separated list of the user's expenses. Ids that do not exist or belong to someone else are ignored; the response echoes the requested ids.
//	@Tags			Expenses
//	@Produce		json
//	@Param			userId		query		string	false	"Must match the token subject"
//	@Param			expenseIds	query		string	true	"Comma separated expense ids"
//	@Success		200			{object}	tallysdk.DeleteExpensesResponse
//	@Failure		400			{object}	tallysdk.APIError	"error, error_description"
//	@Failure		401			{object}	tallysdk.APIError	"error, error_description"
//	@Failure		403			{object}	tallysdk.APIError	"error, error_description"
//	@Failure		500			{object}	tallysdk.APIError	"error, error_description"
//	@Security		BearerAuth
//	@Router			/expenses/deleteExpenses [delete].
func (h *ExpensesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ids, err := h.LedgerService.DeleteExpenses(r.Context(), actingUser(r), r.URL.Query().Get("expenseIds"))
	if err != nil {
		writeServiceError(w, r, "delete expenses", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tallysdk.DeleteExpensesResponse{
		DeletedIDs: ids,
		Count:      len(ids),
	})
}

// HandleList godoc
//
//	@Summary		List expenses
//	@Description	List the user's expenses with category names, newest expense date first.
//	@Tags			Expenses
//	@Produce		json
//	@Param			userId	query		string	false	"Must match the token subject"
//	@Success		200		{array}		tallysdk.Expense
//	@Failure		400		{object}	tallysdk.APIError	"error, error_description"
//	@Failure		401		{object}	tallysdk.APIError	"error, error_description"
//	@Failure		403		{object}	tallysdk.APIError	"error, error_description"
//	@Failure		500		{object}	tallysdk.APIError	"error, error_description"
//	@Security		BearerAuth
//	@Router			/expenses/getExpenses [get].
func (h *ExpensesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.LedgerService.GetExpensesByUser(r.Context(), actingUser(r))
	if err != nil {
		writeServiceError(w, r, "list expenses", err)
		return
	}

	out := make([]tallysdk.Expense, 0, len(list))
	for _, e := range list {
		out = append(out, toExpense(e))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleCategories godoc
//
//	@Summary		List categories
//	@Description	List the default categories followed by the user's own.
//	@Tags			Categories
//	@Produce		json
//	@Param			userId	query		string	false	"Must match the token subject"
//	@Success		200		{array}		tallysdk.Category
//	@Failure		400		{object}	tallysdk.APIError	"error, error_description"
//	@Failure		401		{object}	tallysdk.APIError	"error, error_description"
//	@Failure		403		{object}	tallysdk.APIError	"error, error_description"
//	@Failure		500		{object}	tallysdk.APIError	"error, error_description"
//	@Security		BearerAuth
//	@Router			/expenses/getCategories [get].
func (h *ExpensesHandler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.LedgerService.GetCategoriesByUser(r.Context(), actingUser(r))
	if err != nil {
		writeServiceError(w, r, "list categories", err)
		return
	}

	out := make([]tallysdk.Category, 0, len(cats))
	for _, c := range cats {
		out = append(out, toCategory(c))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleAddCategory godoc
//
//	@Summary		Add category
//	@Description	Create a category owned by the user. Names are unique per user.
//	@Tags			Categories
//	@Accept			json
//	@Produce		json
//	@Param			userId	query		string						false	"Must match the token subject"
//	@Param			request	body		tallysdk.CategoryRequest	true	"Category"
//	@Success		200		{object}	tallysdk.Category
//	@Failure		400		{object}	tallysdk.APIError	"error, error_description"
//	@Failure		401		{object}	tallysdk.APIError	"error, error_description"
//	@Failure		403		{object}	tallysdk.APIError	"error, error_description"
//	@Failure		404		{object}	tallysdk.APIError	"error, error_description"
//	@Failure		409		{object}	tallysdk.APIError	"error, error_description"
//	@Failure		500		{object}	tallysdk.APIError	"error, error_description"
//	@Security		BearerAuth
//	@Router			/expenses/addCategory [post].
func (h *ExpensesHandler) HandleAddCategory(w http.ResponseWriter, r *http.Request) {
	var req tallysdk.CategoryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	c, err := h.LedgerService.AddCategory(r.Context(), actingUser(r), req.Name)
	if err != nil {
		writeServiceError(w, r, "add category", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toCategory(c))
}

// HandleFrequencies godoc
//
//	@Summary		List frequencies
//	@Description	List every expense frequency tag in a stable order.
//	@Tags			Expenses
//	@Produce		json
//	@Success		200	{array}	string
//	@Router			/expenses/getFrequencies [get].
func (h *ExpensesHandler) HandleFrequencies(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, h.LedgerService.GetFrequencies())
}
