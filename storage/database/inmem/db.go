// Package inmemdb provides mutex-guarded in-memory repositories for tests.
package inmemdb

import (
	"sync"

	"github.com/mprata/pollclass/core/quiz"
	"github.com/mprata/pollclass/core/user"
)

type DB struct {
	mutex   sync.RWMutex
	users   map[string]*user.User
	tgUsers map[int64]*user.TelegramUser
	jobs    map[string]*quiz.Job
	tgPK    int64
}

func NewDB() *DB {
	return &DB{
		users:   make(map[string]*user.User),
		tgUsers: make(map[int64]*user.TelegramUser),
		jobs:    make(map[string]*quiz.Job),
	}
}

// Reset empties all tables.
func (db *DB) Reset() {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.users = make(map[string]*user.User)
	db.tgUsers = make(map[int64]*user.TelegramUser)
	db.jobs = make(map[string]*quiz.Job)
	db.tgPK = 0
}
