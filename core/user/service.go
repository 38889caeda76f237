package user

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/mprata/pollclass/core"
)

var (
	// errors
	ErrNotFound    = errors.New("user not found")
	ErrEmailExists = errors.New("a user with this email already exists")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
	}

	TelegramUserRepository interface {
		// UpsertTelegramUser creates the Telegram user on first contact and
		// refreshes the nickname on subsequent contacts.
		UpsertTelegramUser(ctx context.Context, tgUsr TelegramUser) (TelegramUser, error)
	}

	ServiceInterface interface {
		CheckUniqueness(email string, exclUsers ...User) error
		Create(nu NewUser) (User, error)
		GetByID(id string) (User, error)
		GetByEmail(email string) (User, error)
		SetLastLogin(usr User) (User, error)
	}

	Service struct {
		ctx     context.Context
		repo    Repository
		mailSvc core.EmailService
		conf    *core.Config
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{
		ctx:     context.Background(),
		repo:    repo,
		mailSvc: mailSvc,
		conf:    conf,
	}
}

func (svc *Service) CheckUniqueness(email string, exclUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(svc.ctx, email, exclUsers...); err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return errors.Wrap(err, "checking email uniqueness")
	}
	return nil
}

func (svc *Service) Create(nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		Name:      nu.Name,
		Email:     nu.Email,
		Roles:     []string{RoleProfessor},
		CreatedAt: now,
		UpdatedAt: now,
	}
	usr.SetActive(true)
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}

	usr, err := svc.repo.CreateUser(svc.ctx, usr)
	if err != nil {
		return User{}, errors.Wrap(err, "creating user")
	}

	svc.sendWelcomeEmail(usr)
	return usr, nil
}

func (svc *Service) GetByID(id string) (User, error) {
	return svc.repo.GetUserByID(svc.ctx, id)
}

func (svc *Service) GetByEmail(email string) (User, error) {
	return svc.repo.GetUserByEmail(svc.ctx, core.CleanString(email, true /* lower */))
}

func (svc *Service) SetLastLogin(usr User) (User, error) {
	usr.LastLogin = time.Now().UTC()
	return svc.repo.UpdateUser(svc.ctx, usr)
}

func (svc *Service) sendWelcomeEmail(usr User) {
	body := fmt.Sprintf(
		"Olá %s,\n\nSua conta de professor no %s foi criada com sucesso. "+
			"Use o mini app para criar e enviar enquetes para suas turmas no Telegram.",
		usr.Name, svc.conf.AppName,
	)
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject: "Bem-vindo(a)!",
		Body:    body,
	})
}
