package services

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/movebudget/movebudget-be/internal/models"
)

// ExpenseFilter holds the optional filters and sort order for listing
// expenses. All provided filters are ANDed together.
type ExpenseFilter struct {
	Category  string
	Currency  string
	StartDate *time.Time
	EndDate   *time.Time
	SortBy    string // "value" or "date"
	Order     string // "asc" or "desc"
}

// ExpenseInput carries the client-supplied fields for creating or updating
// an expense. The owner is always taken from the caller identity, never from
// the input.
type ExpenseInput struct {
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Value       float64   `json:"value"`
	Currency    string    `json:"currency"`
	Date        time.Time `json:"date"`
}

// ExpenseServiceProvider defines the interface for expense services.
type ExpenseServiceProvider interface {
	List(userID string, filter ExpenseFilter) ([]models.Expense, error)
	GetByID(userID, id string) (models.Expense, error)
	Create(userID string, input ExpenseInput) (models.Expense, error)
	Update(userID, id string, input ExpenseInput) (models.Expense, error)
	Delete(userID, id string) error
}

// ExpenseService provides business logic for expense management. Every
// operation is scoped to the owning user; another user's expenses are
// indistinguishable from nonexistent ones.
type ExpenseService struct {
	db *sql.DB
}

// NewExpenseService creates a new ExpenseService.
func NewExpenseService(db *sql.DB) *ExpenseService {
	return &ExpenseService{db: db}
}

func validateInput(input ExpenseInput) error {
	if input.Description == "" {
		return fmt.Errorf("%w: description is required", ErrValidation)
	}
	if input.Category == "" {
		return fmt.Errorf("%w: category is required", ErrValidation)
	}
	if input.Value <= 0 {
		return fmt.Errorf("%w: value must be positive", ErrValidation)
	}
	if len(input.Currency) != 3 {
		return fmt.Errorf("%w: currency must be a 3-letter code", ErrValidation)
	}
	if input.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrValidation)
	}
	return nil
}

// List retrieves the user's expenses matching the filter. Category and
// currency match case-insensitively; date bounds are inclusive. An empty
// result is reported as ErrNotFound.
func (s *ExpenseService) List(userID string, filter ExpenseFilter) ([]models.Expense, error) {
	query := "SELECT id, description, category, value, currency, date, user_id FROM expenses WHERE user_id = ?"
	args := []interface{}{userID}

	if filter.Category != "" {
		query += " AND LOWER(category) = LOWER(?)"
		args = append(args, filter.Category)
	}
	if filter.Currency != "" {
		query += " AND LOWER(currency) = LOWER(?)"
		args = append(args, filter.Currency)
	}
	if filter.StartDate != nil {
		query += " AND date >= ?"
		args = append(args, filter.StartDate.UTC())
	}
	if filter.EndDate != nil {
		query += " AND date <= ?"
		args = append(args, filter.EndDate.UTC())
	}

	switch strings.ToLower(filter.SortBy) {
	case "value":
		query += " ORDER BY value" + sortDirection(filter.Order)
	case "date":
		query += " ORDER BY date" + sortDirection(filter.Order)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		var e models.Expense
		if err := rows.Scan(&e.ID, &e.Description, &e.Category, &e.Value, &e.Currency, &e.Date, &e.UserID); err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(expenses) == 0 {
		return nil, ErrNotFound
	}
	return expenses, nil
}

func sortDirection(order string) string {
	if strings.EqualFold(order, "desc") {
		return " DESC"
	}
	return " ASC"
}

// GetByID retrieves a single expense owned by the user.
func (s *ExpenseService) GetByID(userID, id string) (models.Expense, error) {
	var e models.Expense
	row := s.db.QueryRow(
		"SELECT id, description, category, value, currency, date, user_id FROM expenses WHERE id = ? AND user_id = ?",
		id, userID,
	)
	err := row.Scan(&e.ID, &e.Description, &e.Category, &e.Value, &e.Currency, &e.Date, &e.UserID)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Expense{}, ErrNotFound
		}
		return models.Expense{}, err
	}
	return e, nil
}

// Create inserts a new expense for the user.
func (s *ExpenseService) Create(userID string, input ExpenseInput) (models.Expense, error) {
	if err := validateInput(input); err != nil {
		return models.Expense{}, err
	}

	expense := models.Expense{
		ID:          uuid.New().String(),
		Description: input.Description,
		Category:    input.Category,
		Value:       input.Value,
		Currency:    input.Currency,
		// Dates are stored as TEXT and compared lexically, so every write
		// must use the same UTC offset as the filter bounds.
		Date:   input.Date.UTC(),
		UserID: userID,
	}

	stmt, err := s.db.Prepare("INSERT INTO expenses(id, description, category, value, currency, date, user_id) VALUES(?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return models.Expense{}, err
	}
	defer stmt.Close()

	_, err = stmt.Exec(expense.ID, expense.Description, expense.Category, expense.Value, expense.Currency, expense.Date, expense.UserID)
	if err != nil {
		return models.Expense{}, err
	}
	return expense, nil
}

// Update replaces the fields of an expense owned by the user.
func (s *ExpenseService) Update(userID, id string, input ExpenseInput) (models.Expense, error) {
	if err := validateInput(input); err != nil {
		return models.Expense{}, err
	}

	res, err := s.db.Exec(
		"UPDATE expenses SET description = ?, category = ?, value = ?, currency = ?, date = ? WHERE id = ? AND user_id = ?",
		input.Description, input.Category, input.Value, input.Currency, input.Date.UTC(), id, userID,
	)
	if err != nil {
		return models.Expense{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Expense{}, err
	}
	if affected == 0 {
		return models.Expense{}, ErrNotFound
	}

	return s.GetByID(userID, id)
}

// Delete removes an expense owned by the user.
func (s *ExpenseService) Delete(userID, id string) error {
	res, err := s.db.Exec("DELETE FROM expenses WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
