package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/mprata/pollclass/core/user"
)

// uniqueViolation is the Postgres error code for unique constraint violations.
const uniqueViolation = "23505"

type userRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Email        string         `db:"email"`
	IsActive     bool           `db:"is_active"`
	Roles        pq.StringArray `db:"roles"`
	PasswordHash []byte         `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	LastLogin    sql.NullTime   `db:"last_login"`
}

func (r userRow) toUser() user.User {
	usr := user.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		Roles:        r.Roles,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	usr.SetActive(r.IsActive)
	if r.LastLogin.Valid {
		usr.LastLogin = r.LastLogin.Time
	}
	return usr
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	q := "SELECT COUNT(*) FROM users WHERE email = ?"
	args := []interface{}{email}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, usr := range excludedUsers {
			ids = append(ids, usr.ID)
		}
		var err error
		if q, args, err = sqlx.In(q+" AND id NOT IN (?)", email, ids); err != nil {
			return errors.Wrap(err, "building uniqueness query")
		}
	}

	var count int
	if err := repo.db.GetContext(ctx, &count, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if count > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()

	q := `
	INSERT INTO users (id, name, email, is_active, roles, password_hash, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	var isActive bool
	if usr.IsActive != nil {
		isActive = *usr.IsActive
	}
	_, err := repo.db.ExecContext(ctx, q,
		usr.ID, usr.Name, usr.Email, isActive, pq.StringArray(usr.Roles),
		usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code == uniqueViolation {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	return repo.get(ctx, "id = $1", id)
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.get(ctx, "email = $1", email)
}

func (repo *userRepository) get(ctx context.Context, where string, arg interface{}) (user.User, error) {
	q := `
	SELECT id, name, email, is_active, roles, password_hash, created_at, updated_at, last_login
	FROM users
	WHERE ` + where

	var row userRow
	if err := repo.db.GetContext(ctx, &row, q, arg); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.UpdatedAt = time.Now().UTC()

	q := `
	UPDATE users
	SET name = $2, email = $3, is_active = $4, roles = $5, password_hash = $6,
	    last_login = $7, updated_at = $8
	WHERE id = $1`

	var isActive bool
	if usr.IsActive != nil {
		isActive = *usr.IsActive
	}
	var lastLogin sql.NullTime
	if !usr.LastLogin.IsZero() {
		lastLogin = sql.NullTime{Time: usr.LastLogin, Valid: true}
	}
	res, err := repo.db.ExecContext(ctx, q,
		usr.ID, usr.Name, usr.Email, isActive, pq.StringArray(usr.Roles),
		usr.PasswordHash, lastLogin, usr.UpdatedAt,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}
