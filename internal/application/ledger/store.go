package ledger

import (
	"context"
	"errors"
	"sync"
	"time"

	"proptoken-backend/internal/domain"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Publisher receives the events of an operation after its transaction commits.
type Publisher interface {
	Publish(ctx context.Context, events []domain.LedgerEvent) error
}

// Op names a mutating operation. Guarded operations hold the reentrancy guard
// for their whole duration.
type Op struct {
	Name    string
	Guarded bool
}

type opKey struct{}

type opState struct {
	name   string
	events []domain.LedgerEvent
}

// Store is the process-wide handle over ledger state. All mutations go through
// Mutate, which applies them one at a time inside a single DB transaction.
type Store struct {
	DB        *gorm.DB
	Publisher Publisher
	Metrics   *Metrics
	Now       func() time.Time

	mu    sync.Mutex
	guard Guard
}

func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// Clock returns the store's notion of now (UTC).
func (s *Store) Clock() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Guard exposes the store's reentrancy guard (read-only use: Held/HeldBy).
func (s *Store) Guard() *Guard {
	return &s.guard
}

// Mutate runs fn as one atomic ledger operation. A call made with a context that
// is already inside a ledger operation is rejected with a ReentrancyError before
// any lock is taken, and so is any call that finds the lock taken by a guarded
// operation. Any error returned by fn rolls back every write it made.
func (s *Store) Mutate(ctx context.Context, op Op, fn func(ctx context.Context, tx *gorm.DB) error) error {
	if current, ok := ctx.Value(opKey{}).(*opState); ok {
		err := Reentrant("%s rejected: %s is still in progress", op.Name, current.name)
		s.finish(ctx, op, err)
		return err
	}

	if !s.lock() {
		err := Reentrant("%s rejected: a guarded operation is in progress", op.Name)
		s.finish(ctx, op, err)
		return err
	}
	defer s.mu.Unlock()

	state := &opState{name: op.Name}
	opCtx := context.WithValue(ctx, opKey{}, state)
	if op.Guarded {
		guardedCtx, release, err := s.guard.Enter(opCtx)
		if err != nil {
			s.finish(ctx, op, err)
			return err
		}
		defer release()
		opCtx = guardedCtx
	}

	err := s.DB.WithContext(opCtx).Transaction(func(tx *gorm.DB) error {
		return fn(opCtx, tx)
	})
	if err != nil {
		state.events = nil
	}
	s.finish(ctx, op, err)
	if err != nil {
		return err
	}

	if s.Publisher != nil && len(state.events) > 0 {
		if perr := s.Publisher.Publish(ctx, state.events); perr != nil {
			logger(ctx).Warn().Err(perr).Str("operation", op.Name).Int("events", len(state.events)).Msg("Event publish failed")
		}
	}
	return nil
}

// lock takes the store mutex. While the guard is held the holder may be calling
// out of the ledger, so waiting could deadlock on a detached reentrant call; the
// lock is then only tried.
func (s *Store) lock() bool {
	if s.guard.Held() {
		return s.mu.TryLock()
	}
	s.mu.Lock()
	return true
}

// logger returns the request-scoped logger carried by ctx, or the global one.
func logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}

func (s *Store) finish(ctx context.Context, op Op, err error) {
	s.Metrics.observe(op.Name, err)
	l := logger(ctx)
	if err == nil {
		l.Info().Str("operation", op.Name).Msg("Ledger operation committed")
		return
	}
	kind, ok := KindOf(err)
	if !ok {
		l.Error().Err(err).Str("operation", op.Name).Msg("Ledger operation failed")
		return
	}
	l.Info().Str("operation", op.Name).Str("kind", string(kind)).Str("reason", err.Error()).Msg("Ledger operation rejected")
}

// Record stashes a written event so it is published once the enclosing
// operation commits. Outside an operation it is a no-op.
func Record(ctx context.Context, ev domain.LedgerEvent) {
	if state, ok := ctx.Value(opKey{}).(*opState); ok {
		state.events = append(state.events, ev)
	}
}

// InOperation reports whether ctx belongs to a running ledger operation.
func InOperation(ctx context.Context) bool {
	_, ok := ctx.Value(opKey{}).(*opState)
	return ok
}

// LoadState reads the registry state row inside tx.
func LoadState(tx *gorm.DB) (*domain.RegistryState, error) {
	var state domain.RegistryState
	if err := tx.Where("id = ?", domain.RegistryStateID).First(&state).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, InvalidState("registry is not initialized")
		}
		return nil, err
	}
	return &state, nil
}

// Bootstrap creates the registry state with admin as administrator if it does
// not exist yet. An existing administrator is kept.
func Bootstrap(ctx context.Context, db *gorm.DB, admin string) (*domain.RegistryState, error) {
	if admin == "" {
		return nil, Validation("administrator identity is required")
	}
	var state domain.RegistryState
	err := db.WithContext(ctx).
		Where(domain.RegistryState{ID: domain.RegistryStateID}).
		Attrs(domain.RegistryState{Administrator: admin}).
		FirstOrCreate(&state).Error
	if err != nil {
		return nil, err
	}
	if state.Administrator != admin {
		log.Warn().Str("configured", admin).Str("persisted", state.Administrator).Msg("Configured administrator differs from registry; keeping registry value")
	}
	return &state, nil
}
