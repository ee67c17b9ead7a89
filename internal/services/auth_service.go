package services

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/movebudget/movebudget-be/internal/auth"
	"github.com/movebudget/movebudget-be/internal/models"
)

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AuthServiceProvider defines the interface for authentication services.
type AuthServiceProvider interface {
	Register(username, password string) (models.User, error)
	Login(username, password string) (TokenPair, error)
	Refresh(refreshToken string) (TokenPair, error)
}

// AuthService provides registration, login and refresh-token rotation.
type AuthService struct {
	db         *sql.DB
	issuer     *auth.TokenIssuer
	refreshTTL time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(db *sql.DB, issuer *auth.TokenIssuer, refreshTTL time.Duration) *AuthService {
	return &AuthService{db: db, issuer: issuer, refreshTTL: refreshTTL}
}

// Register creates a new user account with a bcrypt-hashed password. The
// username match is case-sensitive; a taken username fails with
// ErrDuplicateUsername and leaves no trace in the store.
func (s *AuthService) Register(username, password string) (models.User, error) {
	if username == "" || password == "" {
		return models.User{}, fmt.Errorf("%w: username and password are required", ErrValidation)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:       uuid.New().String(),
		Username: username,
	}

	stmt, err := s.db.Prepare("INSERT INTO users(id, username, password_hash) VALUES(?, ?, ?)")
	if err != nil {
		return models.User{}, err
	}
	defer stmt.Close()

	if _, err = stmt.Exec(user.ID, user.Username, string(hashedPassword)); err != nil {
		// The UNIQUE index on username is the single source of truth for
		// duplicates, so concurrent registrations cannot slip past a
		// read-then-write check.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return models.User{}, ErrDuplicateUsername
		}
		return models.User{}, err
	}

	return user, nil
}

// Login verifies a user's credentials and issues an access/refresh pair. An
// unknown username and a wrong password both fail with ErrInvalidCredentials
// so callers cannot enumerate accounts.
func (s *AuthService) Login(username, password string) (TokenPair, error) {
	var userID, passwordHash string
	row := s.db.QueryRow("SELECT id, password_hash FROM users WHERE username = ?", username)
	err := row.Scan(&userID, &passwordHash)
	if err != nil {
		if err == sql.ErrNoRows {
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)); err != nil {
		return TokenPair{}, ErrInvalidCredentials
	}

	return s.issueTokens(userID)
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// access/refresh pair is issued for the same user. Tokens are single-use; a
// token that is unknown, already revoked or past expiry always fails with
// ErrInvalidOrExpiredToken.
func (s *AuthService) Refresh(refreshToken string) (TokenPair, error) {
	var token models.RefreshToken
	row := s.db.QueryRow(
		"SELECT token, user_id, expires_at, is_revoked FROM refresh_tokens WHERE token = ?",
		refreshToken,
	)
	err := row.Scan(&token.Token, &token.UserID, &token.ExpiresAt, &token.IsRevoked)
	if err != nil {
		if err == sql.ErrNoRows {
			return TokenPair{}, ErrInvalidOrExpiredToken
		}
		return TokenPair{}, err
	}

	if token.IsRevoked || time.Now().After(token.ExpiresAt) {
		return TokenPair{}, ErrInvalidOrExpiredToken
	}

	// Conditional revoke: only one concurrent request presenting the same
	// token can win this write, so a replayed token cannot mint a second
	// successor chain.
	res, err := s.db.Exec(
		"UPDATE refresh_tokens SET is_revoked = 1 WHERE token = ? AND is_revoked = 0",
		refreshToken,
	)
	if err != nil {
		return TokenPair{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return TokenPair{}, err
	}
	if affected == 0 {
		return TokenPair{}, ErrInvalidOrExpiredToken
	}

	return s.issueTokens(token.UserID)
}

// issueTokens mints a signed access token and persists a fresh opaque
// refresh token for the user.
func (s *AuthService) issueTokens(userID string) (TokenPair, error) {
	accessToken, err := s.issuer.IssueAccessToken(userID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to issue access token: %w", err)
	}

	refresh := models.RefreshToken{
		Token:     uuid.New().String(),
		UserID:    userID,
		ExpiresAt: time.Now().Add(s.refreshTTL),
	}

	_, err = s.db.Exec(
		"INSERT INTO refresh_tokens(token, user_id, expires_at, is_revoked) VALUES(?, ?, ?, 0)",
		refresh.Token, refresh.UserID, refresh.ExpiresAt,
	)
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return TokenPair{AccessToken: accessToken, RefreshToken: refresh.Token}, nil
}
