package api_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movebudget/movebudget-be/internal/api"
	"github.com/movebudget/movebudget-be/internal/auth"
	"github.com/movebudget/movebudget-be/internal/database"
	"github.com/movebudget/movebudget-be/internal/models"
	"github.com/movebudget/movebudget-be/internal/services"
)

// stubConverter satisfies services.CurrencyConverterProvider without any
// outbound call.
type stubConverter struct {
	result float64
	err    error
}

func (c *stubConverter) Convert(_ context.Context, from, to string, amount float64) (float64, error) {
	if c.err != nil {
		return 0, c.err
	}
	return c.result, nil
}

type testApp struct {
	db        *sql.DB
	server    *httptest.Server
	converter *stubConverter
}

func setupTestApp(t *testing.T) *testApp {
	t.Helper()

	db, err := database.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })

	issuer := auth.NewTokenIssuer([]byte("test-secret"), 15*time.Minute)
	authService := services.NewAuthService(db, issuer, 7*24*time.Hour)
	expenseService := services.NewExpenseService(db)
	converter := &stubConverter{result: 42.5}

	router := api.NewRouter(issuer, authService, expenseService, converter, []string{"*"})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testApp{db: db, server: server, converter: converter}
}

func (a *testApp) request(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.server.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

// registerAndLogin creates a user and returns its token pair.
func (a *testApp) registerAndLogin(t *testing.T, username, password string) services.TokenPair {
	t.Helper()

	creds := map[string]string{"username": username, "password": password}
	resp := a.request(t, http.MethodPost, "/api/auth/register", "", creds)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = a.request(t, http.MethodPost, "/api/auth/login", "", creds)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tokens services.TokenPair
	decode(t, resp, &tokens)
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)
	return tokens
}

func TestHealth(t *testing.T) {
	app := setupTestApp(t)

	resp := app.request(t, http.MethodGet, "/api/health", "", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegisterDuplicate(t *testing.T) {
	app := setupTestApp(t)

	creds := map[string]string{"username": "alice", "password": "secret123"}
	resp := app.request(t, http.MethodPost, "/api/auth/register", "", creds)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = app.request(t, http.MethodPost, "/api/auth/register", "", creds)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLoginInvalidCredentials(t *testing.T) {
	app := setupTestApp(t)
	app.registerAndLogin(t, "alice", "secret123")

	resp := app.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice", "password": "wrong",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = app.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "nobody", "password": "secret123",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRefreshFlow(t *testing.T) {
	app := setupTestApp(t)
	tokens := app.registerAndLogin(t, "alice", "secret123")

	// The refresh body is the bare token as a JSON string.
	resp := app.request(t, http.MethodPost, "/api/auth/refresh", "", tokens.RefreshToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rotated services.TokenPair
	decode(t, resp, &rotated)
	assert.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)

	// Reusing the consumed token must fail.
	resp = app.request(t, http.MethodPost, "/api/auth/refresh", "", tokens.RefreshToken)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// A token that never existed fails the same way.
	resp = app.request(t, http.MethodPost, "/api/auth/refresh", "", "no-such-token")
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestExpenseEndpointsRequireAuth(t *testing.T) {
	app := setupTestApp(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/expense"},
		{http.MethodPost, "/api/expense"},
		{http.MethodGet, "/api/expense/some-id"},
		{http.MethodPut, "/api/expense/some-id"},
		{http.MethodDelete, "/api/expense/some-id"},
		{http.MethodGet, "/api/expense/convert?from=USD&to=EUR&amount=10"},
	} {
		resp := app.request(t, tc.method, tc.path, "", nil)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "%s %s", tc.method, tc.path)
	}
}

func TestExpenseCRUD(t *testing.T) {
	app := setupTestApp(t)
	tokens := app.registerAndLogin(t, "alice", "secret123")

	input := map[string]interface{}{
		"description": "Coffee",
		"category":    "Food",
		"value":       10,
		"currency":    "BRL",
		"date":        "2025-03-01T00:00:00Z",
	}

	resp := app.request(t, http.MethodPost, "/api/expense", tokens.AccessToken, input)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created models.Expense
	decode(t, resp, &created)
	require.NotEmpty(t, created.ID)

	// Single get uses the {success,data} envelope.
	resp = app.request(t, http.MethodGet, "/api/expense/"+created.ID, tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var envelope struct {
		Success bool           `json:"success"`
		Data    models.Expense `json:"data"`
	}
	decode(t, resp, &envelope)
	assert.True(t, envelope.Success)
	assert.Equal(t, "Coffee", envelope.Data.Description)

	// Update
	input["description"] = "Espresso"
	input["value"] = 12
	resp = app.request(t, http.MethodPut, "/api/expense/"+created.ID, tokens.AccessToken, input)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated models.Expense
	decode(t, resp, &updated)
	assert.Equal(t, "Espresso", updated.Description)
	assert.Equal(t, 12.0, updated.Value)

	// Delete
	resp = app.request(t, http.MethodDelete, "/api/expense/"+created.ID, tokens.AccessToken, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = app.request(t, http.MethodGet, "/api/expense/"+created.ID, tokens.AccessToken, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestExpenseCreateValidation(t *testing.T) {
	app := setupTestApp(t)
	tokens := app.registerAndLogin(t, "alice", "secret123")

	resp := app.request(t, http.MethodPost, "/api/expense", tokens.AccessToken, map[string]interface{}{
		"description": "Coffee",
		"category":    "Food",
		"value":       -1,
		"currency":    "BRL",
		"date":        "2025-03-01T00:00:00Z",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExpenseListFilteringAndIsolation(t *testing.T) {
	app := setupTestApp(t)
	alice := app.registerAndLogin(t, "alice", "secret123")
	bob := app.registerAndLogin(t, "bob", "secret456")

	resp := app.request(t, http.MethodPost, "/api/expense", alice.AccessToken, map[string]interface{}{
		"description": "Coffee",
		"category":    "Food",
		"value":       10,
		"currency":    "BRL",
		"date":        "2025-03-01T00:00:00Z",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Case-insensitive category filter finds the record.
	resp = app.request(t, http.MethodGet, "/api/expense?category=food", alice.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var expenses []models.Expense
	decode(t, resp, &expenses)
	require.Len(t, expenses, 1)
	assert.Equal(t, "Coffee", expenses[0].Description)

	// The same query as another user is a not-found, not an empty list.
	resp = app.request(t, http.MethodGet, "/api/expense?category=food", bob.AccessToken, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// A non-matching filter is also a not-found.
	resp = app.request(t, http.MethodGet, "/api/expense?category=transport", alice.AccessToken, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Malformed dates are rejected.
	resp = app.request(t, http.MethodGet, "/api/expense?startDate=yesterday", alice.AccessToken, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestConvertEndpoint(t *testing.T) {
	app := setupTestApp(t)
	tokens := app.registerAndLogin(t, "alice", "secret123")

	resp := app.request(t, http.MethodGet, "/api/expense/convert?from=USD&to=EUR&amount=50", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var envelope struct {
		Success bool    `json:"success"`
		Data    float64 `json:"data"`
	}
	decode(t, resp, &envelope)
	assert.True(t, envelope.Success)
	assert.Equal(t, 42.5, envelope.Data)

	resp = app.request(t, http.MethodGet, "/api/expense/convert?from=USD&to=EUR&amount=abc", tokens.AccessToken, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	app.converter.err = fmt.Errorf("wrapped: %w", services.ErrConversionFailed)
	resp = app.request(t, http.MethodGet, "/api/expense/convert?from=USD&to=EUR&amount=50", tokens.AccessToken, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
