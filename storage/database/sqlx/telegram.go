package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/mprata/pollclass/core/user"
)

type telegramUserRepository struct {
	db *sqlx.DB
}

var _ user.TelegramUserRepository = (*telegramUserRepository)(nil)

func NewTelegramUserRepository(db *sqlx.DB) *telegramUserRepository {
	return &telegramUserRepository{db: db}
}

func (repo *telegramUserRepository) UpsertTelegramUser(ctx context.Context, tgUsr user.TelegramUser) (user.TelegramUser, error) {
	if tgUsr.CreatedAt.IsZero() {
		tgUsr.CreatedAt = time.Now().UTC()
	}

	q := `
	INSERT INTO telegram_users (telegram_id, nickname, created_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (telegram_id) DO UPDATE SET nickname = EXCLUDED.nickname
	RETURNING id, created_at`

	err := repo.db.QueryRowxContext(ctx, q, tgUsr.TelegramID, tgUsr.Nickname, tgUsr.CreatedAt).
		Scan(&tgUsr.ID, &tgUsr.CreatedAt)
	if err != nil {
		return user.TelegramUser{}, errors.Wrap(err, "upserting telegram user")
	}
	return tgUsr, nil
}
