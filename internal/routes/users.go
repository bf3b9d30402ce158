package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/libraryhub/libraryhub/internal/auth"
)

// RegisterUserRoutes wires the account and credential-recovery endpoints.
func RegisterUserRoutes(r fiber.Router, h *auth.Handler, bearer fiber.Handler) {
	group := r.Group("/users")

	// Public endpoints
	group.Post("/register", h.Register)
	group.Post("/login", h.Login)
	group.Post("/forgot-password", h.ForgotPassword)
	group.Post("/verify-otp", h.VerifyOTP)
	group.Post("/reset-password", h.ResetPassword)
	group.Post("/verify-email", h.VerifyEmail)
	group.Post("/resend-verification", h.ResendVerification)
	group.Delete("/:id", h.DeleteUser)

	// Bearer-gated endpoints
	group.Get("/", bearer, h.ListUsers)
	group.Get("/me", bearer, h.Me)
	group.Put("/me", bearer, h.UpdateMe)
	group.Post("/me/avatar", bearer, h.UploadAvatar)
}
