package models

import "time"

// User roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// BankDetails holds a user's optional banking information. All fields are
// free-form strings; only length is bounded.
type BankDetails struct {
	AccountHolder string `json:"account_holder,omitempty" bson:"account_holder,omitempty" validate:"omitempty,max=100"`
	AccountNumber string `json:"account_number,omitempty" bson:"account_number,omitempty" validate:"omitempty,max=30"`
	BankName      string `json:"bank_name,omitempty" bson:"bank_name,omitempty" validate:"omitempty,max=100"`
	IFSC          string `json:"ifsc,omitempty" bson:"ifsc,omitempty" validate:"omitempty,max=20"`
	Branch        string `json:"branch,omitempty" bson:"branch,omitempty" validate:"omitempty,max=100"`
}

// User represents an account holder. Each user owns a private collection of
// transport entries; admins may additionally manage other users.
type User struct {
	ID          string       `json:"id" bson:"_id" validate:"omitempty,uuid"`
	UserCode    string       `json:"user_code" bson:"user_code"` // USER-/ADMIN- prefix plus generated suffix
	Email       string       `json:"email" bson:"email" validate:"required,email"`
	Mobile      string       `json:"mobile" bson:"mobile" validate:"required,min=7,max=15"`
	Password    string       `json:"-" bson:"password" validate:"required,min=6"` // bcrypt hash once stored
	OwnerName   string       `json:"owner_name" bson:"owner_name" validate:"required,max=100"`
	CompanyName string       `json:"company_name" bson:"company_name" validate:"omitempty,max=150"`
	Address     string       `json:"address" bson:"address" validate:"omitempty,max=300"`
	GSTNumber   string       `json:"gst_number,omitempty" bson:"gst_number,omitempty" validate:"omitempty,max=20"`
	PANNumber   string       `json:"pan_number,omitempty" bson:"pan_number,omitempty" validate:"omitempty,max=15"`
	Bank        *BankDetails `json:"bank,omitempty" bson:"bank,omitempty"`
	Role        string       `json:"role" bson:"role" validate:"omitempty,oneof=user admin"`
	CreatedAt   time.Time    `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" bson:"updated_at"`
	LastLoginAt time.Time    `json:"last_login_at,omitempty" bson:"last_login_at,omitempty"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
