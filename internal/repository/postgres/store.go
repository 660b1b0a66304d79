package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/FocusGate/internal/repository"
	"github.com/utafrali/FocusGate/pkg/database"
)

// Store implements repository.Store on PostgreSQL. Repositories share one
// DBTX, which is either the pool or a transaction.
type Store struct {
	db         database.DBTX
	sessions   *SessionRepository
	challenges *ChallengeRepository
	unlocks    *UnlockRepository
	progress   *ProgressRepository
	settings   *SettingsRepository
}

// NewStore creates a Store on db.
func NewStore(db database.DBTX) *Store {
	return &Store{
		db:         db,
		sessions:   NewSessionRepository(db),
		challenges: NewChallengeRepository(db),
		unlocks:    NewUnlockRepository(db),
		progress:   NewProgressRepository(db),
		settings:   NewSettingsRepository(db),
	}
}

func (s *Store) Sessions() repository.SessionRepository     { return s.sessions }
func (s *Store) Challenges() repository.ChallengeRepository { return s.challenges }
func (s *Store) Unlocks() repository.UnlockRepository       { return s.unlocks }
func (s *Store) Progress() repository.ProgressRepository    { return s.progress }
func (s *Store) Settings() repository.SettingsRepository    { return s.settings }

// WithinTx implements repository.Store.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return database.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		return fn(NewStore(tx))
	})
}
