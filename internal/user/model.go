package user

import "time"

const (
	// DefaultRole is assigned to self-registered accounts.
	DefaultRole = "user"
)

// User represents a library member account.
type User struct {
	ID            int64
	Username      string
	Email         string
	Name          string
	Mobile        string
	Avatar        string
	Role          string
	PasswordHash  []byte
	EmailVerified bool
	MemberSince   time.Time
}

// UpdateParams lists the mutable fields of a user record. Nil pointers leave
// the corresponding field untouched.
type UpdateParams struct {
	Name          *string
	Email         *string
	Mobile        *string
	Avatar        *string
	PasswordHash  []byte
	EmailVerified *bool
}
