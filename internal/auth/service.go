package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/libraryhub/libraryhub/internal/notification"
	"github.com/libraryhub/libraryhub/internal/otp"
	"github.com/libraryhub/libraryhub/internal/user"
)

const minPasswordLength = 6

// ValidationError reports malformed input on a registration or reset
// request. Handlers surface it as a 400 with its message.
type ValidationError struct {
	msg string
}

func (e ValidationError) Error() string { return e.msg }

// Service orchestrates the account and credential-recovery flows over the
// credential store, the token issuer, the OTP store, and the notifier.
type Service struct {
	users    user.Repository
	otps     otp.Store
	tokens   *TokenIssuer
	notifier notification.Notifier
	logger   *slog.Logger
	baseURL  string
}

// NewService wires the auth flows. baseURL is the externally reachable
// address used to build verification links.
func NewService(users user.Repository, otps otp.Store, tokens *TokenIssuer, notifier notification.Notifier, logger *slog.Logger, baseURL string) *Service {
	return &Service{
		users:    users,
		otps:     otps,
		tokens:   tokens,
		notifier: notifier,
		logger:   logger,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
	}
}

// RegisterParams carries the fields of a registration request. Avatar
// uploads are persisted separately by the handler once the account exists.
type RegisterParams struct {
	Username string
	Email    string
	Password string
	Name     string
	Mobile   string
}

// RegisterResult is the outcome of a successful registration.
type RegisterResult struct {
	User              user.User
	SessionToken      string
	VerificationToken string
	VerificationURL   string
}

// Register creates an account and issues both a session token and an
// email-verification token. Username availability is checked before email,
// and insert races still surface as the typed duplicate errors.
func (s *Service) Register(ctx context.Context, p RegisterParams) (RegisterResult, error) {
	if p.Username == "" || p.Email == "" || p.Password == "" {
		return RegisterResult{}, ValidationError{msg: "username, email and password are required"}
	}
	if len(p.Password) < minPasswordLength {
		return RegisterResult{}, ValidationError{msg: fmt.Sprintf("password must be at least %d characters long", minPasswordLength)}
	}
	if !strings.Contains(p.Email, "@") {
		return RegisterResult{}, ValidationError{msg: "please enter a valid email address"}
	}

	if _, err := s.users.FindByUsername(ctx, p.Username); err == nil {
		return RegisterResult{}, user.ErrDuplicateUsername
	} else if !errors.Is(err, user.ErrNotFound) {
		return RegisterResult{}, err
	}
	if _, err := s.users.FindByUsernameOrEmail(ctx, p.Email); err == nil {
		return RegisterResult{}, user.ErrDuplicateEmail
	} else if !errors.Is(err, user.ErrNotFound) {
		return RegisterResult{}, err
	}

	hash, err := HashPassword(p.Password)
	if err != nil {
		return RegisterResult{}, fmt.Errorf("hash password: %w", err)
	}

	name := p.Name
	if name == "" {
		name = p.Username
	}

	u, err := s.users.Create(ctx, user.User{
		Username:      p.Username,
		Email:         p.Email,
		Name:          name,
		Mobile:        p.Mobile,
		Role:          user.DefaultRole,
		PasswordHash:  hash,
		EmailVerified: true,
	})
	if err != nil {
		return RegisterResult{}, err
	}

	verification, err := s.tokens.IssueEmailVerification(u)
	if err != nil {
		return RegisterResult{}, err
	}
	verificationURL := s.verificationURL(verification)
	s.notify(ctx, notification.Message{
		Kind:    notification.KindEmailVerification,
		To:      u.Email,
		Subject: "Verify your LibraryHub email",
		Body:    "Welcome to LibraryHub. Confirm your email address by visiting: " + verificationURL,
	})

	session, err := s.tokens.IssueSession(u)
	if err != nil {
		return RegisterResult{}, err
	}

	return RegisterResult{
		User:              u,
		SessionToken:      session,
		VerificationToken: verification,
		VerificationURL:   verificationURL,
	}, nil
}

// Login verifies credentials and issues a session token. Unknown usernames
// and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (user.User, string, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, "", ErrInvalidCredentials
		}
		return user.User{}, "", err
	}
	if !VerifyPassword(password, u.PasswordHash) {
		return user.User{}, "", ErrInvalidCredentials
	}

	token, err := s.tokens.IssueSession(u)
	if err != nil {
		return user.User{}, "", err
	}
	return u, token, nil
}

// Authenticate resolves a bearer token into a live account. Purpose-bearing
// tokens (such as email-verification tokens) are not valid sessions, and a
// still-valid token of a deleted account is rejected here.
func (s *Service) Authenticate(ctx context.Context, token string) (user.User, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return user.User{}, err
	}
	if claims.Purpose != "" {
		return user.User{}, ErrInvalidToken
	}
	u, err := s.users.FindByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, ErrInvalidToken
		}
		return user.User{}, err
	}
	return u, nil
}

// GetUser fetches an account by id.
func (s *Service) GetUser(ctx context.Context, id int64) (user.User, error) {
	return s.users.FindByID(ctx, id)
}

// ListUsers returns all accounts.
func (s *Service) ListUsers(ctx context.Context) ([]user.User, error) {
	return s.users.List(ctx)
}

// UpdateProfile applies a partial profile update.
func (s *Service) UpdateProfile(ctx context.Context, id int64, params user.UpdateParams) (user.User, error) {
	return s.users.Update(ctx, id, params)
}

// DeleteUser removes an account.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	return s.users.Delete(ctx, id)
}

// ForgotPassword generates a reset code for the account matching the given
// username or email, stores it with a fresh expiry window (replacing any
// pending code), and hands it to the notifier. The raw code is returned so
// the handler can echo it when the debug flag allows.
func (s *Service) ForgotPassword(ctx context.Context, usernameOrEmail string) (string, error) {
	u, err := s.users.FindByUsernameOrEmail(ctx, usernameOrEmail)
	if err != nil {
		return "", err
	}

	code, err := otp.Generate()
	if err != nil {
		return "", err
	}
	if err := s.otps.Put(ctx, u.Username, code); err != nil {
		return "", err
	}

	s.notify(ctx, notification.Message{
		Kind:    notification.KindPasswordResetOTP,
		To:      u.Email,
		Subject: "Your LibraryHub password reset code",
		Body:    fmt.Sprintf("Your password reset code is %s. It expires in %s.", code, otp.TTL),
	})
	return code, nil
}

// VerifyOTP consumes a pending reset code. A matching code is single-use: a
// later ResetPassword with the same code will fail because the entry is
// already gone.
func (s *Service) VerifyOTP(ctx context.Context, usernameOrEmail, code string) error {
	u, err := s.users.FindByUsernameOrEmail(ctx, usernameOrEmail)
	if err != nil {
		return err
	}
	ok, err := s.otps.ConsumeIfMatch(ctx, u.Username, code)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidOTP
	}
	return nil
}

// ResetPassword consumes a pending reset code and stores a new password
// hash. The old password is not required.
func (s *Service) ResetPassword(ctx context.Context, usernameOrEmail, code, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return ValidationError{msg: fmt.Sprintf("password must be at least %d characters long", minPasswordLength)}
	}

	u, err := s.users.FindByUsernameOrEmail(ctx, usernameOrEmail)
	if err != nil {
		return err
	}

	ok, err := s.otps.ConsumeIfMatch(ctx, u.Username, code)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidOTP
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	_, err = s.users.Update(ctx, u.ID, user.UpdateParams{PasswordHash: hash})
	return err
}

// VerifyEmail redeems an email-verification token. Tokens whose purpose is
// not email_verification are rejected even when their signature is valid,
// and verifying an already-verified account is a no-op.
func (s *Service) VerifyEmail(ctx context.Context, token string) (user.User, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return user.User{}, err
	}
	if claims.Purpose != PurposeEmailVerification {
		return user.User{}, ErrInvalidTokenType
	}

	u, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return user.User{}, err
	}
	if u.EmailVerified {
		return u, nil
	}

	verified := true
	return s.users.Update(ctx, u.ID, user.UpdateParams{EmailVerified: &verified})
}

// ResendVerification issues a fresh verification token for an unverified
// account and hands the link to the notifier. For accounts that are already
// verified it returns an empty URL and no error.
func (s *Service) ResendVerification(ctx context.Context, usernameOrEmail string) (string, error) {
	u, err := s.users.FindByUsernameOrEmail(ctx, usernameOrEmail)
	if err != nil {
		return "", err
	}
	if u.EmailVerified {
		return "", nil
	}

	token, err := s.tokens.IssueEmailVerification(u)
	if err != nil {
		return "", err
	}
	verificationURL := s.verificationURL(token)
	s.notify(ctx, notification.Message{
		Kind:    notification.KindEmailVerification,
		To:      u.Email,
		Subject: "Verify your LibraryHub email",
		Body:    "Confirm your email address by visiting: " + verificationURL,
	})
	return verificationURL, nil
}

func (s *Service) verificationURL(token string) string {
	return s.baseURL + "/api/users/verify-email?token=" + url.QueryEscape(token)
}

func (s *Service) notify(ctx context.Context, msg notification.Message) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.logger.Warn("notification delivery failed", "kind", msg.Kind, "error", err)
	}
}
