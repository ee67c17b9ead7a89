package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/movebudget/movebudget-be/internal/services"
)

// AuthHandler handles HTTP requests for registration, login and token refresh.
type AuthHandler struct {
	service services.AuthServiceProvider
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service services.AuthServiceProvider) *AuthHandler {
	return &AuthHandler{service: service}
}

// CredentialsPayload defines the structure for register and login requests.
type CredentialsPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register handles new user registration.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload CredentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	_, err := h.service.Register(payload.Username, payload.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDuplicateUsername):
			http.Error(w, "Username already exists", http.StatusBadRequest)
		case errors.Is(err, services.ErrValidation):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			log.Error().Err(err).Str("username", payload.Username).Msg("Failed to register user")
			http.Error(w, "Failed to register user", http.StatusInternalServerError)
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "User registered successfully"})
}

// Login handles user authentication and token issuance.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload CredentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	tokens, err := h.service.Login(payload.Username, payload.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			log.Warn().Str("username", payload.Username).Msg("Failed authentication attempt")
			http.Error(w, "Invalid username or password", http.StatusUnauthorized)
			return
		}
		log.Error().Err(err).Str("username", payload.Username).Msg("Login failed")
		http.Error(w, "Login failed", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, tokens)
}

// Refresh rotates a refresh token. The request body is the bare token as a
// JSON string.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var refreshToken string
	if err := json.NewDecoder(r.Body).Decode(&refreshToken); err != nil || refreshToken == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	tokens, err := h.service.Refresh(refreshToken)
	if err != nil {
		if errors.Is(err, services.ErrInvalidOrExpiredToken) {
			http.Error(w, "Refresh token invalid or expired", http.StatusUnauthorized)
			return
		}
		log.Error().Err(err).Msg("Failed to rotate refresh token")
		http.Error(w, "Failed to refresh token", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, tokens)
}
