package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/mprata/pollclass/core"
)

// Roles
const (
	RoleProfessor = "professor"
	RoleStudent   = "student"
)

var AllRoles = []string{RoleProfessor, RoleStudent}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	IsActive     *bool     `json:"is_active"`
	Roles        []string  `json:"roles"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
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

func (u *User) SetActive(active bool) {
	u.IsActive = &active
}

func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (u *User) IsProfessor() bool {
	return u.HasRole(RoleProfessor)
}

func (u *User) IsStudent() bool {
	return u.HasRole(RoleStudent)
}

// NewUser contains information needed to register a new User.
// Only professors may self-register; the is_professor flag is checked at the
// API layer before the account is created.
type NewUser struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	IsProfessor     bool   `json:"is_professor"`
}

func (nu *NewUser) Validate(validate *validator.Validate, svc ServiceInterface) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(nu.Email)
}

// TelegramUser is a Telegram account that contacted the bot. It is recorded on
// first contact so students can later be linked to their Telegram identity.
type TelegramUser struct {
	ID         int64     `json:"id"`
	TelegramID int64     `json:"telegram_id"`
	Nickname   string    `json:"nickname"`
	CreatedAt  time.Time `json:"created_at"` // UTC
}
