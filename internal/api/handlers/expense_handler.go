package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/movebudget/movebudget-be/internal/auth"
	"github.com/movebudget/movebudget-be/internal/services"
)

// ExpenseHandler handles HTTP requests for expense CRUD, listing and
// currency conversion.
type ExpenseHandler struct {
	service   services.ExpenseServiceProvider
	converter services.CurrencyConverterProvider
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(service services.ExpenseServiceProvider, converter services.CurrencyConverterProvider) *ExpenseHandler {
	return &ExpenseHandler{service: service, converter: converter}
}

// callerID extracts the authenticated user's id from the request context.
func callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		log.Error().Msg("Could not retrieve user claims from context")
		http.Error(w, "Could not retrieve user from token", http.StatusInternalServerError)
		return "", false
	}
	return claims.UserID, true
}

// parseDate accepts RFC3339 timestamps or plain dates in query parameters.
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

// List handles the filtered, sorted listing of the caller's expenses.
func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := services.ExpenseFilter{
		Category: q.Get("category"),
		Currency: q.Get("currency"),
		SortBy:   q.Get("sortBy"),
		Order:    q.Get("order"),
	}

	if v := q.Get("startDate"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			http.Error(w, "Invalid startDate", http.StatusBadRequest)
			return
		}
		filter.StartDate = &t
	}
	if v := q.Get("endDate"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			http.Error(w, "Invalid endDate", http.StatusBadRequest)
			return
		}
		filter.EndDate = &t
	}

	expenses, err := h.service.List(userID, filter)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			respondFail(w, http.StatusNotFound, "Expense not found")
			return
		}
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list expenses")
		http.Error(w, "Failed to retrieve expenses", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, expenses)
}

// Get handles the request to get a single expense by its ID.
func (h *ExpenseHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	expense, err := h.service.GetByID(userID, id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			respondFail(w, http.StatusNotFound, "Expense not found")
			return
		}
		log.Error().Err(err).Str("expense_id", id).Msg("Failed to get expense")
		http.Error(w, "Failed to retrieve expense", http.StatusInternalServerError)
		return
	}

	respondSuccess(w, http.StatusOK, expense)
}

// Create handles the request to create a new expense for the caller.
func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var input services.ExpenseInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	expense, err := h.service.Create(userID, input)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to create expense")
		http.Error(w, "Failed to create expense", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusCreated, expense)
}

// Update handles the request to update an existing expense.
func (h *ExpenseHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	var input services.ExpenseInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	expense, err := h.service.Update(userID, id, input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			respondFail(w, http.StatusNotFound, "Expense not found")
		case errors.Is(err, services.ErrValidation):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			log.Error().Err(err).Str("expense_id", id).Msg("Failed to update expense")
			http.Error(w, "Failed to update expense", http.StatusInternalServerError)
		}
		return
	}

	respondJSON(w, http.StatusOK, expense)
}

// Delete handles the request to delete an expense.
func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.service.Delete(userID, id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			respondFail(w, http.StatusNotFound, "Expense not found")
			return
		}
		log.Error().Err(err).Str("expense_id", id).Msg("Failed to delete expense")
		http.Error(w, "Failed to delete expense", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Convert handles the request to convert an amount between two currencies.
func (h *ExpenseHandler) Convert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from := q.Get("from")
	to := q.Get("to")
	amount, err := strconv.ParseFloat(q.Get("amount"), 64)
	if err != nil {
		respondFail(w, http.StatusBadRequest, "Invalid amount")
		return
	}

	result, err := h.converter.Convert(r.Context(), from, to, amount)
	if err != nil {
		log.Warn().Err(err).Str("from", from).Str("to", to).Msg("Currency conversion failed")
		respondFail(w, http.StatusBadRequest, "Could not perform the conversion")
		return
	}

	respondSuccess(w, http.StatusOK, result)
}
