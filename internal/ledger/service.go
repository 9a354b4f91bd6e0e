package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/pocketmoney-dev/pocketmoney/internal/id"
	"github.com/pocketmoney-dev/pocketmoney/internal/model"
	"github.com/pocketmoney-dev/pocketmoney/internal/store"
)

// Store is the durable state the Service reads and commits. Update must
// hold a lock that excludes every other writer of the same data, including
// other processes, from the read until the commit.
type Store interface {
	Load(ctx context.Context) (store.State, error)
	Update(ctx context.Context, fn func(store.State) (store.State, error)) error
}

// Action names recorded for committed mutations.
const (
	ActionCreate     = "create"
	ActionEdit       = "edit"
	ActionDelete     = "delete"
	ActionAddBalance = "add-balance"
	ActionClear      = "clear"
)

// Event describes one committed mutation.
type Event struct {
	Time     time.Time
	Action   string
	Category model.Category
	TxID     string
	Amount   decimal.Decimal
	Balance  decimal.Decimal // balance after the mutation
	Details  string
}

// Recorder receives an Event after each successful commit.
type Recorder interface {
	Record(ctx context.Context, e Event) error
}

// EditSession is an edit in progress. Nothing in the store changes until
// the edit is submitted.
type EditSession struct {
	Category model.Category
	ID       string
	Original model.Transaction
	Form     model.Candidate
}

// Service owns the transaction snapshot and the running balance. Every
// mutation loads both, changes both, and commits both in one write inside
// a single Store.Update, while also holding the service lock that guards
// the edit session.
type Service struct {
	mu       sync.Mutex
	store    Store
	log      zerolog.Logger
	newID    id.Generator
	recorder Recorder
	now      func() time.Time
	editing  *EditSession
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithIDGenerator replaces the random ID generator.
func WithIDGenerator(g id.Generator) Option {
	return func(s *Service) { s.newID = g }
}

// WithRecorder registers a recorder for committed mutations.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithClock replaces time.Now for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service on top of st.
func NewService(st Store, opts ...Option) *Service {
	s := &Service{
		store: st,
		log:   zerolog.Nop(),
		newID: id.New,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates c and commits it. Outside an edit session it creates a
// new transaction; inside one it replaces the transaction being edited,
// keeping its ID, and ends the session.
func (s *Service) Submit(ctx context.Context, c model.Candidate) (model.Transaction, error) {
	tx, _, err := s.submit(ctx, c)
	return tx, err
}

// submit is Submit that also reports whether it committed an edit. The
// session is checked under the same lock that commits it.
func (s *Service) submit(ctx context.Context, c model.Candidate) (model.Transaction, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if errs := Validate(c); len(errs) > 0 {
		return model.Transaction{}, false, errs
	}

	if s.editing != nil {
		session := *s.editing
		tx, err := s.edit(ctx, session.Category, session.ID, c)
		if err == nil || errors.Is(err, ErrNotFound) {
			s.editing = nil
		}
		return tx, true, err
	}
	tx, err := s.create(ctx, c)
	return tx, false, err
}

// Create validates c and commits it as a new transaction. An open edit
// session is left untouched.
func (s *Service) Create(ctx context.Context, c model.Candidate) (model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if errs := Validate(c); len(errs) > 0 {
		return model.Transaction{}, errs
	}
	return s.create(ctx, c)
}

// Edit replaces the transaction id in category with c in one step.
func (s *Service) Edit(ctx context.Context, category model.Category, txID string, c model.Candidate) (model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if errs := Validate(c); len(errs) > 0 {
		return model.Transaction{}, errs
	}
	tx, err := s.edit(ctx, category, txID, c)
	if err == nil && s.editing != nil && s.editing.ID == txID {
		s.editing = nil
	}
	return tx, err
}

// BeginEdit opens an edit session for id in category and returns it. The
// stored transaction and the balance are left as they are.
func (s *Service) BeginEdit(ctx context.Context, category model.Category, txID string) (EditSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, _, err := s.load(ctx)
	if err != nil {
		return EditSession{}, err
	}
	_, tx, ok := FindAndLocate(snap, category, txID)
	if !ok {
		return EditSession{}, notFound(category, txID)
	}

	session := EditSession{
		Category: category,
		ID:       tx.ID,
		Original: tx,
		Form:     tx.FormValues(),
	}
	s.editing = &session
	s.log.Debug().Str("category", string(category)).Str("tx_id", txID).Msg("edit session started")
	return session, nil
}

// CancelEdit drops the current edit session. It reports whether one was open.
func (s *Service) CancelEdit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	open := s.editing != nil
	s.editing = nil
	return open
}

// Editing returns the open edit session, if any.
func (s *Service) Editing() (EditSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editing == nil {
		return EditSession{}, false
	}
	return *s.editing, true
}

// Delete removes id from category and reverses its balance effect.
func (s *Service) Delete(ctx context.Context, category model.Category, txID string) (model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed model.Transaction
	bal, err := s.update(ctx, func(snap model.Snapshot, bal decimal.Decimal) (model.Snapshot, decimal.Decimal, error) {
		loc, _, ok := FindAndLocate(snap, category, txID)
		if !ok {
			return nil, bal, notFound(category, txID)
		}
		next, tx, err := RemoveAt(snap, loc)
		if err != nil {
			return nil, bal, err
		}
		removed = tx
		return next, ApplyDelete(bal, tx), nil
	})
	if err != nil {
		return model.Transaction{}, err
	}
	if s.editing != nil && s.editing.ID == txID {
		s.editing = nil
	}
	s.record(ctx, Event{
		Action:   ActionDelete,
		Category: removed.Category,
		TxID:     removed.ID,
		Amount:   removed.Amount,
		Balance:  bal,
		Details:  removed.ToWhom,
	})
	return removed, nil
}

// AddBalance adds a manual top-up to the running balance. Only positive
// amounts are accepted.
func (s *Service) AddBalance(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !amount.IsPositive() {
		return decimal.Zero, ValidationErrors{{Field: "amount", Message: MsgInvalidAmount}}
	}

	bal, err := s.update(ctx, func(snap model.Snapshot, bal decimal.Decimal) (model.Snapshot, decimal.Decimal, error) {
		return snap, bal.Add(amount), nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	s.record(ctx, Event{Action: ActionAddBalance, Amount: amount, Balance: bal})
	return bal, nil
}

// Clear removes every transaction, reversing each one's effect so that only
// manual additions remain in the balance. It returns how many were removed.
func (s *Service) Clear(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	bal, err := s.update(ctx, func(snap model.Snapshot, bal decimal.Decimal) (model.Snapshot, decimal.Decimal, error) {
		n = snap.Len()
		return model.Snapshot{}, bal.Sub(Effects(snap)), nil
	})
	if err != nil {
		return 0, err
	}
	s.editing = nil
	s.record(ctx, Event{Action: ActionClear, Balance: bal, Details: fmt.Sprintf("%d transactions", n)})
	return n, nil
}

// Balance returns the running balance.
func (s *Service) Balance(ctx context.Context) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, bal, err := s.load(ctx)
	return bal, err
}

// All returns the whole snapshot.
func (s *Service) All(ctx context.Context) (model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, _, err := s.load(ctx)
	return snap, err
}

func (s *Service) create(ctx context.Context, c model.Candidate) (model.Transaction, error) {
	tx := build(s.newID(), c)
	bal, err := s.update(ctx, func(snap model.Snapshot, bal decimal.Decimal) (model.Snapshot, decimal.Decimal, error) {
		if _, _, dup := FindAnywhere(snap, tx.ID); dup {
			return nil, bal, fmt.Errorf("generated id %s already in use", tx.ID)
		}
		return Insert(snap, tx.Category, tx.Mode, tx), ApplyCreate(bal, tx), nil
	})
	if err != nil {
		return model.Transaction{}, err
	}
	s.record(ctx, Event{
		Action:   ActionCreate,
		Category: tx.Category,
		TxID:     tx.ID,
		Amount:   tx.Amount,
		Balance:  bal,
		Details:  tx.ToWhom,
	})
	return tx, nil
}

// edit reverts the stored transaction and applies c under the same ID. The
// record stays in place unless its category or bucket changed, in which
// case it moves to the front of the new slot.
func (s *Service) edit(ctx context.Context, category model.Category, txID string, c model.Candidate) (model.Transaction, error) {
	var old, updated model.Transaction
	bal, err := s.update(ctx, func(snap model.Snapshot, bal decimal.Decimal) (model.Snapshot, decimal.Decimal, error) {
		loc, tx, ok := FindAndLocate(snap, category, txID)
		if !ok {
			return nil, bal, notFound(category, txID)
		}
		old, updated = tx, build(tx.ID, c)

		if updated.Category == loc.Category && updated.Mode == loc.Bucket {
			next, err := ReplaceAt(snap, loc, updated)
			return next, ApplyEdit(bal, old, updated), err
		}
		next, _, err := RemoveAt(snap, loc)
		if err != nil {
			return nil, bal, err
		}
		return Insert(next, updated.Category, updated.Mode, updated), ApplyEdit(bal, old, updated), nil
	})
	if err != nil {
		return model.Transaction{}, err
	}

	details := updated.ToWhom
	if old.Category != updated.Category {
		details = fmt.Sprintf("%s; moved from %s", details, old.Category)
	}
	s.record(ctx, Event{
		Action:   ActionEdit,
		Category: updated.Category,
		TxID:     updated.ID,
		Amount:   updated.Amount,
		Balance:  bal,
		Details:  details,
	})
	return updated, nil
}

// load reads the snapshot and balance in one consistent read. Unreadable
// stored values fall back to their defaults with a warning; other storage
// errors are returned.
func (s *Service) load(ctx context.Context) (model.Snapshot, decimal.Decimal, error) {
	st, err := s.store.Load(ctx)
	if err != nil {
		return nil, decimal.Zero, err
	}
	s.warnUnreadable(st.Unreadable)
	if st.Snapshot == nil {
		st.Snapshot = model.Snapshot{}
	}
	return st.Snapshot, st.Balance, nil
}

// update runs mutate on the stored snapshot and balance and commits what
// it returns, all inside one Store.Update. It returns the committed balance.
func (s *Service) update(ctx context.Context, mutate func(model.Snapshot, decimal.Decimal) (model.Snapshot, decimal.Decimal, error)) (decimal.Decimal, error) {
	var committed store.State
	err := s.store.Update(ctx, func(st store.State) (store.State, error) {
		s.warnUnreadable(st.Unreadable)
		if st.Snapshot == nil {
			st.Snapshot = model.Snapshot{}
		}
		snap, bal, err := mutate(st.Snapshot, st.Balance)
		if err != nil {
			return store.State{}, err
		}
		committed = store.State{Snapshot: snap, Balance: bal}
		return committed, nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	s.log.Debug().Str("balance", committed.Balance.StringFixed(2)).Int("transactions", committed.Snapshot.Len()).Msg("ledger committed")
	return committed.Balance, nil
}

func (s *Service) warnUnreadable(err error) {
	if err != nil {
		s.log.Warn().Err(err).Msg("stored ledger unreadable, using defaults")
	}
}

func (s *Service) record(ctx context.Context, e Event) {
	if s.recorder == nil {
		return
	}
	e.Time = s.now()
	if err := s.recorder.Record(ctx, e); err != nil {
		s.log.Warn().Err(err).Str("action", e.Action).Msg("failed to record activity")
	}
}

func notFound(category model.Category, txID string) error {
	return fmt.Errorf("%s in %s: %w", txID, category, ErrNotFound)
}
