package services

import (
	"context"
	"strings"

	"transportdesk/internal/models"
	"transportdesk/internal/repositories"
)

// UserService handles business logic for user management. Access follows the
// self-or-admin rule: a user may read and update their own record, an admin
// may manage anyone, except hard-deleting their own account.
type UserService struct {
	userRepo repositories.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repositories.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func canAccess(caller *models.User, targetID string) bool {
	return caller.ID == targetID || caller.IsAdmin()
}

// List returns all users. Admin only.
func (s *UserService) List(ctx context.Context, caller *models.User) ([]models.User, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.userRepo.List(ctx)
}

// Get returns a single user, self-or-admin.
func (s *UserService) Get(ctx context.Context, caller *models.User, targetID string) (*models.User, error) {
	if !canAccess(caller, targetID) {
		return nil, ErrForbidden
	}
	return s.userRepo.GetByID(ctx, targetID)
}

// ProfileUpdate carries the mutable profile fields. Email, user code, role,
// and password are not updatable through this path.
type ProfileUpdate struct {
	OwnerName   string `json:"owner_name" validate:"omitempty,max=100"`
	CompanyName string `json:"company_name" validate:"omitempty,max=150"`
	Address     string `json:"address" validate:"omitempty,max=300"`
	Mobile      string `json:"mobile" validate:"omitempty,min=7,max=15"`
	GSTNumber   string `json:"gst_number" validate:"omitempty,max=20"`
	PANNumber   string `json:"pan_number" validate:"omitempty,max=15"`
}

// UpdateProfile applies a partial profile update, self-or-admin. A mobile
// change is checked for uniqueness first.
func (s *UserService) UpdateProfile(ctx context.Context, caller *models.User, targetID string, update ProfileUpdate) (*models.User, error) {
	if !canAccess(caller, targetID) {
		return nil, ErrForbidden
	}
	user, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if update.Mobile != "" && update.Mobile != user.Mobile {
		if other, lookupErr := s.userRepo.GetByMobile(ctx, update.Mobile); lookupErr == nil && other.ID != user.ID {
			return nil, NewValidationError("mobile", "already registered")
		}
		user.Mobile = update.Mobile
	}
	if v := strings.TrimSpace(update.OwnerName); v != "" {
		user.OwnerName = v
	}
	if v := strings.TrimSpace(update.CompanyName); v != "" {
		user.CompanyName = v
	}
	if v := strings.TrimSpace(update.Address); v != "" {
		user.Address = v
	}
	if v := strings.TrimSpace(update.GSTNumber); v != "" {
		user.GSTNumber = v
	}
	if v := strings.TrimSpace(update.PANNumber); v != "" {
		user.PANNumber = v
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateBank replaces the user's bank sub-record, self-or-admin.
func (s *UserService) UpdateBank(ctx context.Context, caller *models.User, targetID string, bank *models.BankDetails) (*models.User, error) {
	if !canAccess(caller, targetID) {
		return nil, ErrForbidden
	}
	user, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	user.Bank = bank
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Delete hard-deletes a user. Admin only, and an admin deleting their own
// account is explicitly rejected.
func (s *UserService) Delete(ctx context.Context, caller *models.User, targetID string) error {
	if !caller.IsAdmin() {
		return ErrForbidden
	}
	if caller.ID == targetID {
		return ErrSelfDelete
	}
	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		return err
	}
	return s.userRepo.Delete(ctx, targetID)
}
