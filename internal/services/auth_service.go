package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"transportdesk/internal/models"
	"transportdesk/internal/repositories"
	"transportdesk/pkg/rabbitmq"
)

// EmailPublisher queues outbound email. Satisfied by *rabbitmq.Client; tests
// substitute a fake. A nil publisher is tolerated and only logged.
type EmailPublisher interface {
	PublishEmail(msg rabbitmq.EmailMessage) error
}

// AuthService handles business logic for authentication, registration, and
// the password-reset flow.
type AuthService struct {
	userRepo   repositories.UserRepository
	resetRepo  repositories.ResetRepository
	mailer     EmailPublisher
	jwtSecret  []byte
	tokenDurat time.Duration // Duration for which JWT is valid
	resetTTL   time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, resetRepo repositories.ResetRepository, mailer EmailPublisher, jwtSecret string) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		resetRepo:  resetRepo,
		mailer:     mailer,
		jwtSecret:  []byte(jwtSecret),
		tokenDurat: 24 * time.Hour, // Token valid for 24 hours
		resetTTL:   1 * time.Hour,
	}
}

// generateUserCode builds the human-readable user ID: a role prefix plus a
// generated suffix.
func generateUserCode(role string) string {
	prefix := "USER-"
	if role == models.RoleAdmin {
		prefix = "ADMIN-"
	}
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:8]
	return prefix + suffix
}

// RegisterUser registers a new user: lowercases the email, checks email and
// mobile uniqueness, generates the user code when absent, hashes the
// password, and saves the record.
func (s *AuthService) RegisterUser(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Role == "" {
		user.Role = models.RoleUser
	}

	if existing, err := s.userRepo.GetByEmail(ctx, user.Email); err == nil && existing != nil {
		return fmt.Errorf("email '%s' already registered: %w", user.Email, repositories.ErrDuplicateKey)
	}
	if existing, err := s.userRepo.GetByMobile(ctx, user.Mobile); err == nil && existing != nil {
		return fmt.Errorf("mobile '%s' already registered: %w", user.Mobile, repositories.ErrDuplicateKey)
	}

	if user.UserCode == "" {
		user.UserCode = generateUserCode(user.Role)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashedPassword)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	if err := s.userRepo.Create(ctx, user); err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}

	s.sendEmail(rabbitmq.EmailMessage{
		To:      user.Email,
		Subject: "Welcome aboard",
		Body:    fmt.Sprintf("Hello %s, your account %s is ready.", user.OwnerName, user.UserCode),
	})
	return nil
}

// LoginUser authenticates a user by email and returns a signed JWT plus the
// user record. The last-login timestamp is refreshed on success.
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		// Do not reveal whether the email exists
		return "", nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, time.Now()); err != nil {
		log.Printf("Warning: failed to refresh last login for user %s: %v", user.ID, err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"role":    user.Role,
		"exp":     time.Now().Add(s.tokenDurat).Unix(),
		"iat":     time.Now().Unix(),
	})
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, user, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}

// UserFromToken validates a token and resolves it to an existing user. A
// token whose user has since been deleted is treated as invalid.
func (s *AuthService) UserFromToken(ctx context.Context, tokenString string) (*models.User, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil, ErrInvalidToken
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return user, nil
}

// RequestPasswordReset creates a single-use reset token and queues the reset
// email. An unknown email is not an error: the caller gets the same answer
// either way so accounts cannot be enumerated.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to look up user for reset: %w", err)
	}

	reset := &models.PasswordReset{
		UserID:    user.ID,
		Token:     uuid.New().String(),
		ExpiresAt: time.Now().Add(s.resetTTL),
	}
	if err := s.resetRepo.Create(ctx, reset); err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}

	s.sendEmail(rabbitmq.EmailMessage{
		To:      user.Email,
		Subject: "Password reset request",
		Body:    fmt.Sprintf("Use this token to reset your password: %s (valid for %s)", reset.Token, s.resetTTL),
	})
	return nil
}

// ResetPassword consumes a reset token exactly once: the password is
// replaced, the token marked used, and every other outstanding token for the
// user purged.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	reset, err := s.resetRepo.GetByToken(ctx, token)
	if err != nil {
		return ErrInvalidToken
	}
	if reset.Used || reset.Expired(time.Now()) {
		return ErrInvalidToken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, reset.UserID, string(hashedPassword)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if err := s.resetRepo.MarkUsed(ctx, reset.ID); err != nil {
		return fmt.Errorf("failed to consume reset token: %w", err)
	}
	if err := s.resetRepo.DeleteOthers(ctx, reset.UserID, reset.ID); err != nil {
		log.Printf("Warning: failed to purge outstanding reset tokens for user %s: %v", reset.UserID, err)
	}
	return nil
}

func (s *AuthService) sendEmail(msg rabbitmq.EmailMessage) {
	if s.mailer == nil {
		log.Println("Email publisher is not configured. Skipping email.")
		return
	}
	if err := s.mailer.PublishEmail(msg); err != nil {
		log.Printf("Warning: failed to queue email to %s: %v", msg.To, err)
	}
}
