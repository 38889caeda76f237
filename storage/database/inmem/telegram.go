package inmemdb

import (
	"context"
	"time"

	"github.com/mprata/pollclass/core/user"
)

type telegramUserRepository struct {
	db *DB
}

var _ user.TelegramUserRepository = (*telegramUserRepository)(nil)

func NewTelegramUserRepository(db *DB) *telegramUserRepository {
	return &telegramUserRepository{db: db}
}

func (repo *telegramUserRepository) UpsertTelegramUser(ctx context.Context, tgUsr user.TelegramUser) (user.TelegramUser, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if existing, ok := repo.db.tgUsers[tgUsr.TelegramID]; ok {
		existing.Nickname = tgUsr.Nickname
		return *existing, nil
	}

	repo.db.tgPK++
	tgUsr.ID = repo.db.tgPK
	if tgUsr.CreatedAt.IsZero() {
		tgUsr.CreatedAt = time.Now().UTC()
	}
	repo.db.tgUsers[tgUsr.TelegramID] = &tgUsr
	return tgUsr, nil
}

// TelegramUsers returns a snapshot of all recorded Telegram users. Test helper.
func (repo *telegramUserRepository) TelegramUsers() []user.TelegramUser {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	users := make([]user.TelegramUser, 0, len(repo.db.tgUsers))
	for _, tgUsr := range repo.db.tgUsers {
		users = append(users, *tgUsr)
	}
	return users
}
