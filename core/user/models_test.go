package user

import (
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mprata/pollclass/core"
)

type fakeUserService struct {
	ServiceInterface
	uniquenessErr error
}

func (svc *fakeUserService) CheckUniqueness(email string, exclUsers ...User) error {
	return svc.uniquenessErr
}

func newTestValidator(t *testing.T) *validator.Validate {
	t.Helper()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, ok := uni.GetTranslator("en")
	require.True(t, ok)

	validate := validator.New()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)
	return validate
}

func fieldTags(err error) map[string]string {
	tags := make(map[string]string)
	if vErrs, ok := err.(validator.ValidationErrors); ok {
		for _, vErr := range vErrs {
			tags[vErr.Field()] = vErr.Tag()
		}
	}
	return tags
}

func Test_User_SetCheckPassword(t *testing.T) {
	var usr User
	require.NoError(t, usr.SetPassword("s3cr3tPwd!"))
	assert.NotEmpty(t, usr.PasswordHash)
	assert.NoError(t, usr.CheckPassword("s3cr3tPwd!"))
	assert.Error(t, usr.CheckPassword("wrong"))
}

func Test_User_roles(t *testing.T) {
	prof := User{Roles: []string{RoleProfessor}}
	assert.True(t, prof.IsProfessor())
	assert.False(t, prof.IsStudent())

	student := User{Roles: []string{RoleStudent}}
	assert.True(t, student.IsStudent())
	assert.False(t, student.IsProfessor())

	var nobody User
	assert.False(t, nobody.HasRole(RoleProfessor))
}

func Test_NewUser_Validate(t *testing.T) {
	validate := newTestValidator(t)
	svc := &fakeUserService{}

	newUser := func(mutate func(*NewUser)) NewUser {
		nu := NewUser{
			Name:            "Maria Prata",
			Email:           "maria@test.cd",
			Password:        "s3cr3tPwd!",
			PasswordConfirm: "s3cr3tPwd!",
			IsProfessor:     true,
		}
		if mutate != nil {
			mutate(&nu)
		}
		return nu
	}

	tests := []struct {
		name     string
		nu       NewUser
		wantTags map[string]string
	}{
		{name: "ok", nu: newUser(nil)},
		{
			name:     "missing everything",
			nu:       NewUser{},
			wantTags: map[string]string{"name": "required", "email": "required", "password": "required", "password_confirm": "required"},
		},
		{
			name:     "bad email",
			nu:       newUser(func(nu *NewUser) { nu.Email = "lol" }),
			wantTags: map[string]string{"email": "email"},
		},
		{
			name: "password mismatch",
			nu: newUser(func(nu *NewUser) {
				nu.PasswordConfirm = "s0methingElse!"
			}),
			wantTags: map[string]string{"password_confirm": "eqfield"},
		},
		{
			name: "password too short",
			nu: newUser(func(nu *NewUser) {
				nu.Password = "abc1!"
				nu.PasswordConfirm = "abc1!"
			}),
			wantTags: map[string]string{"password": "pwdminlen"},
		},
		{
			name: "password with whitespace",
			nu: newUser(func(nu *NewUser) {
				nu.Password = "s3cr3t pwd"
				nu.PasswordConfirm = "s3cr3t pwd"
			}),
			wantTags: map[string]string{"password": "pwdnospace"},
		},
		{
			name: "password all numeric",
			nu: newUser(func(nu *NewUser) {
				nu.Password = "12345678"
				nu.PasswordConfirm = "12345678"
			}),
			wantTags: map[string]string{"password": "pwdnotallnum"},
		},
		{
			name: "password similar to email",
			nu: newUser(func(nu *NewUser) {
				nu.Password = "maria@test.cd"
				nu.PasswordConfirm = "maria@test.cd"
			}),
			wantTags: map[string]string{"password": "pwdtoosim"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.nu.Validate(validate, svc)
			if len(tt.wantTags) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			got := fieldTags(err)
			for field, tag := range tt.wantTags {
				assert.Equal(t, tag, got[field], "field %q", field)
			}
		})
	}
}

func Test_NewUser_Validate_uniqueness(t *testing.T) {
	validate := newTestValidator(t)
	svc := &fakeUserService{
		uniquenessErr: core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()}),
	}

	nu := NewUser{
		Name:            "Maria Prata",
		Email:           "MARIA@test.cd",
		Password:        "s3cr3tPwd!",
		PasswordConfirm: "s3cr3tPwd!",
		IsProfessor:     true,
	}
	err := nu.Validate(validate, svc)
	require.Error(t, err)

	vErr, ok := err.(*core.ValidationError)
	require.True(t, ok)
	require.Len(t, vErr.Fields, 1)
	assert.Equal(t, "email", vErr.Fields[0].Field)

	// input is normalized before validation
	assert.Equal(t, "maria@test.cd", nu.Email)
}
