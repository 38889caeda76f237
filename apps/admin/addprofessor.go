package main

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/mprata/pollclass/core"
	"github.com/mprata/pollclass/core/user"
)

// addProfessor creates a professor account, or promotes an existing user and
// resets their password.
func (cli *commandLine) addProfessor(name, email, pwd string) error {
	ctx := context.Background()
	name = core.CleanString(name)
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.usrRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		now := time.Now().UTC()
		usr = user.User{
			Name:      name,
			Email:     email,
			Roles:     []string{user.RoleProfessor},
			CreatedAt: now,
			UpdatedAt: now,
		}
		usr.SetActive(true)
		if err = usr.SetPassword(pwd); err != nil {
			return err
		}
		_, err = cli.usrRepo.CreateUser(ctx, usr)
		return err
	}

	if !usr.IsProfessor() {
		usr.Roles = append(usr.Roles, user.RoleProfessor)
	}
	usr.Name = name
	usr.SetActive(true)
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	_, err = cli.usrRepo.UpdateUser(ctx, usr)
	return err
}
