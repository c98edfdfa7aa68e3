package services_test

import (
	"context"
	"io"
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"transportdesk/internal/models"
	"transportdesk/internal/repositories"
	"transportdesk/internal/services"
	"transportdesk/pkg/rabbitmq"
)

// fakeMailer captures queued email instead of publishing it.
type fakeMailer struct {
	sent []rabbitmq.EmailMessage
}

func (m *fakeMailer) PublishEmail(msg rabbitmq.EmailMessage) error {
	m.sent = append(m.sent, msg)
	return nil
}

// TestMain suppresses logging during tests for cleaner output.
func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func newAuthFixture() (*services.AuthService, *repositories.MockUserRepository, *repositories.MockResetRepository, *fakeMailer) {
	userRepo := repositories.NewMockUserRepository()
	resetRepo := repositories.NewMockResetRepository()
	mailer := &fakeMailer{}
	return services.NewAuthService(userRepo, resetRepo, mailer, "test_jwt_secret"), userRepo, resetRepo, mailer
}

func validUser(email, mobile string) *models.User {
	return &models.User{
		Email:     email,
		Mobile:    mobile,
		Password:  "password123",
		OwnerName: "Test Owner",
	}
}

func TestAuthService_RegisterUser(t *testing.T) {
	ctx := context.Background()
	svc, userRepo, _, mailer := newAuthFixture()

	user := validUser("Test@Example.COM", "9876543210")
	require.NoError(t, svc.RegisterUser(ctx, user))

	assert.Equal(t, "test@example.com", user.Email, "email must be lowercased")
	assert.Equal(t, models.RoleUser, user.Role)
	assert.True(t, strings.HasPrefix(user.UserCode, "USER-"))
	assert.NotEqual(t, "password123", user.Password, "password must be stored hashed")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("password123")))

	stored, err := userRepo.GetByEmail(ctx, "test@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.ID)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "test@example.com", mailer.sent[0].To)
}

func TestAuthService_RegisterAdminGetsAdminCode(t *testing.T) {
	svc, _, _, _ := newAuthFixture()

	admin := validUser("admin@example.com", "9000000000")
	admin.Role = models.RoleAdmin
	require.NoError(t, svc.RegisterUser(context.Background(), admin))
	assert.True(t, strings.HasPrefix(admin.UserCode, "ADMIN-"))
}

func TestAuthService_RegisterDuplicate(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newAuthFixture()

	require.NoError(t, svc.RegisterUser(ctx, validUser("dup@example.com", "9876543210")))

	err := svc.RegisterUser(ctx, validUser("dup@example.com", "1111111111"))
	require.Error(t, err)
	assert.True(t, services.IsDuplicate(err))

	err = svc.RegisterUser(ctx, validUser("other@example.com", "9876543210"))
	require.Error(t, err)
	assert.True(t, services.IsDuplicate(err))
}

func TestAuthService_LoginUser(t *testing.T) {
	ctx := context.Background()
	svc, userRepo, _, _ := newAuthFixture()

	user := validUser("login@example.com", "9876543210")
	require.NoError(t, svc.RegisterUser(ctx, user))

	token, loggedIn, err := svc.LoginUser(ctx, "login@example.com", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user.ID, loggedIn.ID)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims["user_id"])
	assert.Equal(t, models.RoleUser, claims["role"])

	stored, err := userRepo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, stored.LastLoginAt.IsZero(), "login must refresh the last-login timestamp")
}

func TestAuthService_LoginFailures(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newAuthFixture()
	require.NoError(t, svc.RegisterUser(ctx, validUser("login@example.com", "9876543210")))

	_, _, err := svc.LoginUser(ctx, "login@example.com", "wrongpassword")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	_, _, err = svc.LoginUser(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
}

func TestAuthService_ValidateTokenRejectsGarbage(t *testing.T) {
	svc, _, _, _ := newAuthFixture()

	_, err := svc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, services.ErrInvalidToken)
}

func TestAuthService_UserFromToken(t *testing.T) {
	ctx := context.Background()
	svc, userRepo, _, _ := newAuthFixture()

	user := validUser("resolve@example.com", "9876543210")
	require.NoError(t, svc.RegisterUser(ctx, user))
	token, _, err := svc.LoginUser(ctx, "resolve@example.com", "password123")
	require.NoError(t, err)

	resolved, err := svc.UserFromToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)

	// A live token for a deleted user is rejected the same as an invalid one.
	require.NoError(t, userRepo.Delete(ctx, user.ID))
	_, err = svc.UserFromToken(ctx, token)
	assert.ErrorIs(t, err, services.ErrInvalidToken)
}

func TestAuthService_RequestPasswordReset(t *testing.T) {
	ctx := context.Background()
	svc, _, resetRepo, mailer := newAuthFixture()

	user := validUser("reset@example.com", "9876543210")
	require.NoError(t, svc.RegisterUser(ctx, user))
	mailer.sent = nil

	require.NoError(t, svc.RequestPasswordReset(ctx, "reset@example.com"))
	assert.Equal(t, 1, resetRepo.CountForUser(user.ID))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "reset@example.com", mailer.sent[0].To)

	// An unknown email succeeds silently so accounts cannot be enumerated.
	require.NoError(t, svc.RequestPasswordReset(ctx, "nobody@example.com"))
	assert.Len(t, mailer.sent, 1)
}

func TestAuthService_ResetPassword(t *testing.T) {
	ctx := context.Background()
	svc, _, resetRepo, _ := newAuthFixture()

	user := validUser("reset@example.com", "9876543210")
	require.NoError(t, svc.RegisterUser(ctx, user))

	// A stale outstanding token plus the one being consumed.
	stale := &models.PasswordReset{UserID: user.ID, Token: "stale-token", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, resetRepo.Create(ctx, stale))
	active := &models.PasswordReset{UserID: user.ID, Token: "active-token", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, resetRepo.Create(ctx, active))

	require.NoError(t, svc.ResetPassword(ctx, "active-token", "newpassword456"))

	_, _, err := svc.LoginUser(ctx, "reset@example.com", "newpassword456")
	require.NoError(t, err)
	_, _, err = svc.LoginUser(ctx, "reset@example.com", "password123")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	// The token is single-use and all other outstanding tokens are purged.
	assert.ErrorIs(t, svc.ResetPassword(ctx, "active-token", "again789"), services.ErrInvalidToken)
	assert.ErrorIs(t, svc.ResetPassword(ctx, "stale-token", "again789"), services.ErrInvalidToken)
	assert.Equal(t, 1, resetRepo.CountForUser(user.ID)) // only the consumed token remains
}

func TestAuthService_ResetPasswordExpiredToken(t *testing.T) {
	ctx := context.Background()
	svc, _, resetRepo, _ := newAuthFixture()

	user := validUser("expired@example.com", "9876543210")
	require.NoError(t, svc.RegisterUser(ctx, user))

	expired := &models.PasswordReset{UserID: user.ID, Token: "expired-token", ExpiresAt: time.Now().Add(-time.Minute)}
	require.NoError(t, resetRepo.Create(ctx, expired))

	assert.ErrorIs(t, svc.ResetPassword(ctx, "expired-token", "newpassword456"), services.ErrInvalidToken)
	assert.ErrorIs(t, svc.ResetPassword(ctx, "unknown-token", "newpassword456"), services.ErrInvalidToken)
}
