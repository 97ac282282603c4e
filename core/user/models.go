package user

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/academia/core"
)

type Role string

// Roles
const (
	RoleAdmin      Role = "admin"
	RoleInstructor Role = "instructor"
	RoleStudent    Role = "student"
	RoleSponsor    Role = "sponsor"
)

var AllRoles = []Role{RoleAdmin, RoleInstructor, RoleStudent, RoleSponsor}

func (r Role) IsValid() bool {
	for _, role := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

type User struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	Role         Role      `json:"role" db:"role"`
	PasswordHash []byte    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u User) HasRole(role Role) bool { return u.Role == role }

func (u User) IsAdmin() bool      { return u.HasRole(RoleAdmin) }
func (u User) IsInstructor() bool { return u.HasRole(RoleInstructor) }
func (u User) IsStudent() bool    { return u.HasRole(RoleStudent) }
func (u User) IsSponsor() bool    { return u.HasRole(RoleSponsor) }

// Token is the bearer token of a User. A User has at most one Token.
type Token struct {
	Key       string    `json:"token" db:"key"`
	UserID    int64     `json:"-" db:"user_id"`
	CreatedAt time.Time `json:"-" db:"created_at"`
}

// NewUser contains information needed to register a new User.
type NewUser struct {
	Username string `json:"username" validate:"omitempty,max=150,alphanum_"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required"`
	Role     Role   `json:"role" validate:"required,role"`
}

func (nu *NewUser) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.checkUniqueness(ctx, nu.Username, nu.Email)
}

// Credentials are exchanged for a Token at login.
type Credentials struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (c *Credentials) Validate(validate *validator.Validate) error {
	c.Email = core.CleanString(c.Email, true /* lower */)
	return validate.Struct(c)
}

type GetFilter struct {
	ID       int64
	Email    string
	Username string
}
