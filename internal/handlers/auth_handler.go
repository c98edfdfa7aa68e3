package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"transportdesk/internal/models"
	"transportdesk/internal/services"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
	verbose     bool
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, verbose bool) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
		verbose:     verbose,
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", h.HandleLogin)
	authRoutes.Post("/forgot-password", h.HandleForgotPassword)
	authRoutes.Post("/reset-password", h.HandleResetPassword)
}

// RegisterRequest represents the request body for registration. The password
// arrives here rather than on models.User, whose hash is never serialized.
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Mobile      string `json:"mobile" validate:"required,min=7,max=15"`
	Password    string `json:"password" validate:"required,min=6"`
	OwnerName   string `json:"owner_name" validate:"required,max=100"`
	CompanyName string `json:"company_name" validate:"omitempty,max=150"`
	Address     string `json:"address" validate:"omitempty,max=300"`
	GSTNumber   string `json:"gst_number" validate:"omitempty,max=20"`
	PANNumber   string `json:"pan_number" validate:"omitempty,max=15"`
	Role        string `json:"role" validate:"omitempty,oneof=user admin"`
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing register request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return respondValidation(c, fieldErrors(err))
	}

	user := models.User{
		Email:       req.Email,
		Mobile:      req.Mobile,
		Password:    req.Password,
		OwnerName:   req.OwnerName,
		CompanyName: req.CompanyName,
		Address:     req.Address,
		GSTNumber:   req.GSTNumber,
		PANNumber:   req.PANNumber,
		Role:        req.Role,
	}

	if err := h.authService.RegisterUser(c.Context(), &user); err != nil {
		log.Printf("Error registering user: %v", err)
		return respondError(c, err, h.verbose)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "User registered successfully",
		"data":    user,
	})
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin handles user login and issues a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing login request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return respondValidation(c, fieldErrors(err))
	}

	token, user, err := h.authService.LoginUser(c.Context(), req.Email, req.Password)
	if err != nil {
		log.Printf("Error during login for %s: %v", req.Email, err)
		return respondError(c, err, h.verbose)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Login successful",
		"data": fiber.Map{
			"token": token,
			"user":  user,
		},
	})
}

// ForgotPasswordRequest represents the request body for a reset request.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// HandleForgotPassword issues a password-reset token. The response is the
// same whether or not the email is registered.
func (h *AuthHandler) HandleForgotPassword(c *fiber.Ctx) error {
	var req ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return respondValidation(c, fieldErrors(err))
	}

	if err := h.authService.RequestPasswordReset(c.Context(), req.Email); err != nil {
		log.Printf("Error requesting password reset for %s: %v", req.Email, err)
		return respondError(c, err, h.verbose)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "If that email is registered, a reset link has been sent",
	})
}

// ResetPasswordRequest represents the request body for a password reset.
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// HandleResetPassword consumes a reset token and replaces the password.
func (h *AuthHandler) HandleResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return respondValidation(c, fieldErrors(err))
	}

	if err := h.authService.ResetPassword(c.Context(), req.Token, req.NewPassword); err != nil {
		log.Printf("Error resetting password: %v", err)
		return respondError(c, err, h.verbose)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Password has been reset",
	})
}
