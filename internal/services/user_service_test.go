package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transportdesk/internal/models"
	"transportdesk/internal/repositories"
	"transportdesk/internal/services"
)

func newUserFixture(t *testing.T) (*services.UserService, *repositories.MockUserRepository, *models.User, *models.User) {
	t.Helper()
	repo := repositories.NewMockUserRepository()
	svc := services.NewUserService(repo)

	admin := &models.User{Email: "admin@example.com", Mobile: "9000000001", Password: "x", OwnerName: "Admin", Role: models.RoleAdmin}
	require.NoError(t, repo.Create(context.Background(), admin))
	regular := &models.User{Email: "user@example.com", Mobile: "9000000002", Password: "x", OwnerName: "User", Role: models.RoleUser}
	require.NoError(t, repo.Create(context.Background(), regular))

	return svc, repo, admin, regular
}

func TestUserService_List(t *testing.T) {
	ctx := context.Background()
	svc, _, admin, regular := newUserFixture(t)

	users, err := svc.List(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	_, err = svc.List(ctx, regular)
	assert.ErrorIs(t, err, services.ErrForbidden)
}

func TestUserService_Get(t *testing.T) {
	ctx := context.Background()
	svc, _, admin, regular := newUserFixture(t)

	got, err := svc.Get(ctx, regular, regular.ID)
	require.NoError(t, err)
	assert.Equal(t, regular.ID, got.ID)

	got, err = svc.Get(ctx, admin, regular.ID)
	require.NoError(t, err)
	assert.Equal(t, regular.ID, got.ID)

	_, err = svc.Get(ctx, regular, admin.ID)
	assert.ErrorIs(t, err, services.ErrForbidden)

	_, err = svc.Get(ctx, admin, "missing")
	assert.True(t, services.IsNotFound(err))
}

func TestUserService_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	svc, _, admin, regular := newUserFixture(t)

	updated, err := svc.UpdateProfile(ctx, regular, regular.ID, services.ProfileUpdate{
		OwnerName:   "Renamed",
		CompanyName: "Acme Transport",
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.OwnerName)
	assert.Equal(t, "Acme Transport", updated.CompanyName)
	assert.Equal(t, "user@example.com", updated.Email, "email is immutable through profile updates")

	// Mobile collisions are rejected with a field error.
	_, err = svc.UpdateProfile(ctx, regular, regular.ID, services.ProfileUpdate{Mobile: admin.Mobile})
	var vErr *services.ValidationError
	assert.ErrorAs(t, err, &vErr)

	_, err = svc.UpdateProfile(ctx, regular, admin.ID, services.ProfileUpdate{OwnerName: "Nope"})
	assert.ErrorIs(t, err, services.ErrForbidden)
}

func TestUserService_UpdateBank(t *testing.T) {
	ctx := context.Background()
	svc, _, _, regular := newUserFixture(t)

	bank := &models.BankDetails{AccountHolder: "User", AccountNumber: "1234567890", BankName: "Test Bank"}
	updated, err := svc.UpdateBank(ctx, regular, regular.ID, bank)
	require.NoError(t, err)
	require.NotNil(t, updated.Bank)
	assert.Equal(t, "Test Bank", updated.Bank.BankName)
}

func TestUserService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, repo, admin, regular := newUserFixture(t)

	// Non-admins cannot delete anyone, themselves included.
	assert.ErrorIs(t, svc.Delete(ctx, regular, regular.ID), services.ErrForbidden)

	// An admin deleting their own account is explicitly rejected and the
	// record stays present.
	assert.ErrorIs(t, svc.Delete(ctx, admin, admin.ID), services.ErrSelfDelete)
	_, err := repo.GetByID(ctx, admin.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, admin, regular.ID))
	_, err = repo.GetByID(ctx, regular.ID)
	assert.True(t, services.IsNotFound(err))

	assert.True(t, services.IsNotFound(svc.Delete(ctx, admin, "missing")))
}
