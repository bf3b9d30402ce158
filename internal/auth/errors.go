package auth

import "errors"

var (
	// ErrInvalidCredentials covers both unknown usernames and wrong
	// passwords so login failures do not reveal which one it was.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrInvalidOTP is returned for absent, expired, or mismatched codes.
	ErrInvalidOTP = errors.New("invalid or expired otp")
	// ErrInvalidToken is returned for malformed, tampered, or expired tokens.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrInvalidTokenType is returned when a token's purpose does not match
	// the operation, even if its signature is valid.
	ErrInvalidTokenType = errors.New("invalid token type")
)
