package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists user accounts. Username and email lookups are
// case-insensitive; values are stored as supplied.
type Repository interface {
	Create(ctx context.Context, u User) (User, error)
	FindByID(ctx context.Context, id int64) (User, error)
	FindByUsername(ctx context.Context, username string) (User, error)
	FindByUsernameOrEmail(ctx context.Context, value string) (User, error)
	Update(ctx context.Context, id int64, params UpdateParams) (User, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]User, error)
}

// PostgresRepository implements Repository using PostgreSQL.
//
// The users table carries unique indexes on lower(username) and lower(email)
// so that duplicate checks hold under concurrent inserts; constraint
// violations are translated back into ErrDuplicateUsername/ErrDuplicateEmail.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed user repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, username, email, name, mobile, avatar, role, password_hash, email_verified, member_since`

// Create inserts a new user and returns it with its assigned id.
func (r *PostgresRepository) Create(ctx context.Context, u User) (User, error) {
	if u.MemberSince.IsZero() {
		u.MemberSince = time.Now().UTC()
	}
	if u.Role == "" {
		u.Role = DefaultRole
	}

	row := r.db.QueryRow(ctx, `INSERT INTO users (username, email, name, mobile, avatar, role, password_hash, email_verified, member_since)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		u.Username, u.Email, u.Name, u.Mobile, u.Avatar, u.Role, u.PasswordHash, u.EmailVerified, u.MemberSince)
	if err := row.Scan(&u.ID); err != nil {
		return User{}, translateUniqueViolation(err)
	}
	return u, nil
}

// FindByID fetches a user by primary key.
func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// FindByUsername fetches a user by username, ignoring case.
func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(username) = lower($1)`, username)
	return scanUser(row)
}

// FindByUsernameOrEmail fetches a user whose username or email matches the
// given value, ignoring case.
func (r *PostgresRepository) FindByUsernameOrEmail(ctx context.Context, value string) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users
        WHERE lower(username) = lower($1) OR lower(email) = lower($1)`, value)
	return scanUser(row)
}

// Update applies the non-nil fields of params to the stored record and
// returns the updated user. Email changes that collide with another account
// surface as ErrDuplicateEmail.
func (r *PostgresRepository) Update(ctx context.Context, id int64, params UpdateParams) (User, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return User{}, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id)
	u, err := scanUser(row)
	if err != nil {
		return User{}, err
	}

	u.apply(params)

	_, err = tx.Exec(ctx, `UPDATE users SET name = $1, email = $2, mobile = $3, avatar = $4, password_hash = $5, email_verified = $6 WHERE id = $7`,
		u.Name, u.Email, u.Mobile, u.Avatar, u.PasswordHash, u.EmailVerified, id)
	if err != nil {
		return User{}, translateUniqueViolation(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return User{}, fmt.Errorf("commit update: %w", err)
	}
	return u, nil
}

// Delete removes a user by id.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns all users ordered by id.
func (r *PostgresRepository) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (u *User) apply(params UpdateParams) {
	if params.Name != nil {
		u.Name = *params.Name
	}
	if params.Email != nil {
		u.Email = *params.Email
	}
	if params.Mobile != nil {
		u.Mobile = *params.Mobile
	}
	if params.Avatar != nil {
		u.Avatar = *params.Avatar
	}
	if params.PasswordHash != nil {
		u.PasswordHash = params.PasswordHash
	}
	if params.EmailVerified != nil {
		u.EmailVerified = *params.EmailVerified
	}
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Name, &u.Mobile, &u.Avatar, &u.Role, &u.PasswordHash, &u.EmailVerified, &u.MemberSince)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	u.MemberSince = u.MemberSince.UTC()
	return u, nil
}

// translateUniqueViolation maps unique-index violations onto the duplicate
// errors callers branch on. Any other error passes through unchanged.
func translateUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return err
	}
	if strings.Contains(pgErr.ConstraintName, "email") {
		return ErrDuplicateEmail
	}
	return ErrDuplicateUsername
}
