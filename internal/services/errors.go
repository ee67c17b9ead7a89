package services

import "errors"

var (
	ErrDuplicateUsername     = errors.New("username already exists")
	ErrInvalidCredentials    = errors.New("invalid username or password")
	ErrInvalidOrExpiredToken = errors.New("refresh token invalid or expired")
	ErrNotFound              = errors.New("expense not found")
	ErrConversionFailed      = errors.New("currency conversion failed")
	ErrValidation            = errors.New("invalid input")
)
