package inmemdb

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mprata/pollclass/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, usr := range repo.db.users {
		if usr.Email == email && !isExcluded(*usr, excludedUsers) {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.users {
		if existing.Email == usr.Email {
			return user.User{}, user.ErrEmailExists
		}
	}

	usr.ID = uuid.New().String()
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if usr, ok := repo.db.users[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, usr := range repo.db.users {
		if usr.Email == email {
			return *usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.users[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	// only save set fields
	if usr.Roles != nil {
		orig.Roles = usr.Roles
	}
	if usr.PasswordHash != nil {
		orig.PasswordHash = usr.PasswordHash
	}
	if usr.IsActive != nil {
		orig.IsActive = usr.IsActive
	}
	if !usr.LastLogin.IsZero() {
		orig.LastLogin = usr.LastLogin
	}
	orig.Name = usr.Name
	orig.Email = usr.Email
	orig.UpdatedAt = time.Now().UTC()

	return *orig, nil
}

func isExcluded(usr user.User, excludedUsers []user.User) bool {
	for _, excl := range excludedUsers {
		if excl.ID == usr.ID {
			return true
		}
	}
	return false
}
