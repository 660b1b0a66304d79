// Package memory is an in-process repository backend used for local runs
// and tests. All state lives behind one mutex.
package memory

import (
	"context"
	"sync"

	"github.com/utafrali/FocusGate/internal/domain"
	"github.com/utafrali/FocusGate/internal/repository"
)

type state struct {
	sessions   map[string]domain.FocusSession
	challenges map[string]domain.Challenge
	unlocks    map[string]domain.TemporaryUnlock
	progress   map[string]domain.Progress
	settings   map[string]domain.Settings
}

func newState() *state {
	return &state{
		sessions:   make(map[string]domain.FocusSession),
		challenges: make(map[string]domain.Challenge),
		unlocks:    make(map[string]domain.TemporaryUnlock),
		progress:   make(map[string]domain.Progress),
		settings:   make(map[string]domain.Settings),
	}
}

// undoLog records how to reverse each write made inside a transaction.
// Entries are replayed newest first, so a key written twice ends up with
// its value from before the transaction.
type undoLog struct {
	entries []func()
}

func (u *undoLog) rollback() {
	for i := len(u.entries) - 1; i >= 0; i-- {
		u.entries[i]()
	}
	u.entries = nil
}

// put stores v under key in m. Inside a transaction the previous value is
// journaled first.
func put[V any](s *Store, m map[string]V, key string, v V) {
	if s.undo != nil {
		prev, existed := m[key]
		s.undo.entries = append(s.undo.entries, func() {
			if existed {
				m[key] = prev
			} else {
				delete(m, key)
			}
		})
	}
	m[key] = v
}

// Store implements repository.Store in memory.
type Store struct {
	mu   *sync.Mutex
	txMu *sync.Mutex
	data *state

	// undo is set on the Store handed to a WithinTx callback.
	undo *undoLog
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{mu: &sync.Mutex{}, txMu: &sync.Mutex{}, data: newState()}
}

func (s *Store) Sessions() repository.SessionRepository     { return &SessionRepository{s} }
func (s *Store) Challenges() repository.ChallengeRepository { return &ChallengeRepository{s} }
func (s *Store) Unlocks() repository.UnlockRepository       { return &UnlockRepository{s} }
func (s *Store) Progress() repository.ProgressRepository    { return &ProgressRepository{s} }
func (s *Store) Settings() repository.SettingsRepository    { return &SettingsRepository{s} }

// WithinTx runs fn against the live state and, when fn fails, reverts the
// keys fn wrote. Writes made outside the transaction meanwhile are kept.
// Transactions are serialized with each other; nested calls join the outer
// transaction. Writes are visible to other callers before commit.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.undo != nil {
		return fn(s)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	tx := &Store{mu: s.mu, txMu: s.txMu, data: s.data, undo: &undoLog{}}
	if err := fn(tx); err != nil {
		s.mu.Lock()
		tx.undo.rollback()
		s.mu.Unlock()
		return err
	}
	return nil
}

// locked runs fn with the state locked.
func (s *Store) locked(fn func(st *state)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.data)
}
