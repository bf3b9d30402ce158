package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/libraryhub/libraryhub/internal/storage"
	"github.com/libraryhub/libraryhub/internal/user"
)

// Handler exposes the account and credential-recovery endpoints.
//
// Registration, login, profile updates, and the verification endpoints take
// form bodies; the password-reset trio takes JSON. Each endpoint decodes
// into its own request shape rather than inferring one at runtime.
type Handler struct {
	svc         *Service
	avatars     *storage.AvatarStore
	echoSecrets bool
	logger      *slog.Logger
}

// NewHandler constructs the auth HTTP handler. echoSecrets enables the
// development-only echo of OTP codes and verification links in responses.
func NewHandler(svc *Service, avatars *storage.AvatarStore, echoSecrets bool, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, avatars: avatars, echoSecrets: echoSecrets, logger: logger}
}

type userResponse struct {
	ID            int64  `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	Name          string `json:"name,omitempty"`
	Mobile        string `json:"mobile,omitempty"`
	Avatar        string `json:"avatar,omitempty"`
	Role          string `json:"role"`
	EmailVerified bool   `json:"email_verified"`
	MemberSince   string `json:"member_since"`
}

func projectUser(u user.User) userResponse {
	return userResponse{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		Name:          u.Name,
		Mobile:        u.Mobile,
		Avatar:        u.Avatar,
		Role:          u.Role,
		EmailVerified: u.EmailVerified,
		MemberSince:   u.MemberSince.UTC().Format(time.RFC3339),
	}
}

// Register handles POST /register (multipart form).
func (h *Handler) Register(c *fiber.Ctx) error {
	result, err := h.svc.Register(c.UserContext(), RegisterParams{
		Username: c.FormValue("username"),
		Email:    c.FormValue("email"),
		Password: c.FormValue("password"),
		Name:     c.FormValue("name"),
		Mobile:   c.FormValue("mobile"),
	})
	if err != nil {
		return h.fail(err)
	}

	u := result.User
	if fh, err := c.FormFile("avatar"); err == nil && fh != nil {
		avatarURL, err := h.avatars.Save(u.ID, fh)
		if err != nil {
			h.logger.Warn("save avatar failed", "user_id", u.ID, "error", err)
		} else if updated, err := h.svc.UpdateProfile(c.UserContext(), u.ID, user.UpdateParams{Avatar: &avatarURL}); err == nil {
			u = updated
		}
	}

	resp := fiber.Map{
		"success": true,
		"token":   result.SessionToken,
		"user":    projectUser(u),
		"message": "user registered successfully",
	}
	if h.echoSecrets {
		resp["verification_url"] = result.VerificationURL
	}
	return c.Status(http.StatusOK).JSON(resp)
}

type loginRequest struct {
	Username string
	Password string
}

// Login handles POST /login (form).
func (h *Handler) Login(c *fiber.Ctx) error {
	req := loginRequest{
		Username: c.FormValue("username"),
		Password: c.FormValue("password"),
	}
	u, token, err := h.svc.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return h.fail(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"success": true,
		"token":   token,
		"user":    projectUser(u),
	})
}

// Me handles GET /me for the authenticated user.
func (h *Handler) Me(c *fiber.Ctx) error {
	u, ok := c.Locals("user").(user.User)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "not authenticated")
	}
	return c.Status(http.StatusOK).JSON(projectUser(u))
}

// UpdateMe handles PUT /me (multipart form). The avatar may arrive as an
// uploaded file or as an inline data reference, which is stored verbatim.
func (h *Handler) UpdateMe(c *fiber.Ctx) error {
	current, ok := c.Locals("user").(user.User)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "not authenticated")
	}

	var params user.UpdateParams
	if v := c.FormValue("name"); v != "" {
		params.Name = &v
	}
	if v := c.FormValue("email"); v != "" {
		params.Email = &v
	}
	if v := c.FormValue("mobile"); v != "" {
		params.Mobile = &v
	}
	if v := c.FormValue("avatar"); v != "" {
		params.Avatar = &v
	}
	if fh, err := c.FormFile("avatar"); err == nil && fh != nil {
		avatarURL, err := h.avatars.Save(current.ID, fh)
		if err != nil {
			h.logger.Warn("save avatar failed", "user_id", current.ID, "error", err)
		} else {
			params.Avatar = &avatarURL
		}
	}

	updated, err := h.svc.UpdateProfile(c.UserContext(), current.ID, params)
	if err != nil {
		return h.fail(err)
	}

	h.cleanupReplacedAvatar(current, updated)
	return c.Status(http.StatusOK).JSON(projectUser(updated))
}

// UploadAvatar handles POST /me/avatar (multipart form, file required).
func (h *Handler) UploadAvatar(c *fiber.Ctx) error {
	current, ok := c.Locals("user").(user.User)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "not authenticated")
	}

	fh, err := c.FormFile("avatar")
	if err != nil || fh == nil {
		return fiber.NewError(http.StatusBadRequest, "avatar file is required")
	}

	avatarURL, err := h.avatars.Save(current.ID, fh)
	if err != nil {
		return h.fail(err)
	}

	updated, err := h.svc.UpdateProfile(c.UserContext(), current.ID, user.UpdateParams{Avatar: &avatarURL})
	if err != nil {
		return h.fail(err)
	}

	h.cleanupReplacedAvatar(current, updated)
	return c.Status(http.StatusOK).JSON(projectUser(updated))
}

// ListUsers handles GET / for authenticated callers.
func (h *Handler) ListUsers(c *fiber.Ctx) error {
	users, err := h.svc.ListUsers(c.UserContext())
	if err != nil {
		return h.fail(err)
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, projectUser(u))
	}
	return c.Status(http.StatusOK).JSON(out)
}

type forgotPasswordRequest struct {
	Username string `json:"username"`
}

// ForgotPassword handles POST /forgot-password (JSON).
func (h *Handler) ForgotPassword(c *fiber.Ctx) error {
	var req forgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	code, err := h.svc.ForgotPassword(c.UserContext(), req.Username)
	if err != nil {
		return h.fail(err)
	}

	resp := fiber.Map{
		"success": true,
		"message": "password reset code sent",
	}
	if h.echoSecrets {
		resp["otp"] = code
	}
	return c.Status(http.StatusOK).JSON(resp)
}

type verifyOTPRequest struct {
	Username string `json:"username"`
	OTP      string `json:"otp"`
}

// VerifyOTP handles POST /verify-otp (JSON).
func (h *Handler) VerifyOTP(c *fiber.Ctx) error {
	var req verifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	if err := h.svc.VerifyOTP(c.UserContext(), req.Username, req.OTP); err != nil {
		return h.fail(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "otp verified",
	})
}

type resetPasswordRequest struct {
	Username    string `json:"username"`
	OTP         string `json:"otp"`
	NewPassword string `json:"new_password"`
}

// ResetPassword handles POST /reset-password (JSON).
func (h *Handler) ResetPassword(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	if err := h.svc.ResetPassword(c.UserContext(), req.Username, req.OTP, req.NewPassword); err != nil {
		return h.fail(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "password reset successfully",
	})
}

// VerifyEmail handles POST /verify-email (form).
func (h *Handler) VerifyEmail(c *fiber.Ctx) error {
	token := c.FormValue("token")
	if token == "" {
		token = c.Query("token")
	}
	if token == "" {
		return fiber.NewError(http.StatusBadRequest, "token is required")
	}

	if _, err := h.svc.VerifyEmail(c.UserContext(), token); err != nil {
		return h.fail(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "email verified",
	})
}

// ResendVerification handles POST /resend-verification (form).
func (h *Handler) ResendVerification(c *fiber.Ctx) error {
	verificationURL, err := h.svc.ResendVerification(c.UserContext(), c.FormValue("username"))
	if err != nil {
		return h.fail(err)
	}

	resp := fiber.Map{"success": true}
	if verificationURL == "" {
		resp["message"] = "email already verified"
	} else {
		resp["message"] = "verification email sent"
		if h.echoSecrets {
			resp["verificationUrl"] = verificationURL
		}
	}
	return c.Status(http.StatusOK).JSON(resp)
}

// DeleteUser handles DELETE /:id.
func (h *Handler) DeleteUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid user id")
	}
	if err := h.svc.DeleteUser(c.UserContext(), int64(id)); err != nil {
		return h.fail(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"success": true})
}

// cleanupReplacedAvatar removes the previous avatar file once a new one is
// stored. Failures are logged and swallowed; cleanup never aborts the
// enclosing update.
func (h *Handler) cleanupReplacedAvatar(before, after user.User) {
	if before.Avatar == "" || before.Avatar == after.Avatar {
		return
	}
	if err := h.avatars.Remove(before.Avatar); err != nil {
		h.logger.Warn("remove stale avatar failed", "user_id", before.ID, "error", err)
	}
}

// fail maps domain errors onto HTTP statuses.
func (h *Handler) fail(err error) error {
	var ve ValidationError
	switch {
	case errors.Is(err, user.ErrDuplicateUsername),
		errors.Is(err, user.ErrDuplicateEmail),
		errors.Is(err, ErrInvalidOTP),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrInvalidTokenType):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.As(err, &ve):
		return fiber.NewError(http.StatusBadRequest, ve.Error())
	case errors.Is(err, ErrInvalidCredentials):
		return fiber.NewError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, user.ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	default:
		h.logger.Error("request failed", "error", err)
		return fiber.NewError(http.StatusInternalServerError, "internal server error")
	}
}
