package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"fithub/models"

	"github.com/google/uuid"
)

// Backend loads and persists the session state.
type Backend interface {
	Load(ctx context.Context, st *models.State) error
	Persist(ctx context.Context, st *models.State, dirty models.CollectionSet) error
}

// Refresher is implemented by backends whose data can change underneath us.
type Refresher interface {
	Refresh(ctx context.Context, st *models.State) error
}

// ReminderArmer schedules and cancels the one-shot reminder jobs.
type ReminderArmer interface {
	Arm(r models.Reminder) error
	Disarm(id string)
}

// Change is pushed to subscribers after every committed write or refresh.
type Change struct {
	Op          string              `json:"op"`
	Collections []models.Collection `json:"collections"`
	At          time.Time           `json:"at"`
}

// Store owns the session state. Every write runs on a private clone that is
// adopted only after the backend accepted it.
type Store struct {
	mu      sync.Mutex
	state   *models.State
	engine  *Engine
	backend Backend
	armer   ReminderArmer

	subsMu sync.Mutex
	subs   map[chan Change]struct{}
}

func NewStore(engine *Engine, backend Backend) *Store {
	return &Store{
		state:   DefaultState(engine.Now()),
		engine:  engine,
		backend: backend,
		subs:    make(map[chan Change]struct{}),
	}
}

func (s *Store) Engine() *Engine { return s.engine }

// SetReminderArmer wires the scheduler; call it before Open.
func (s *Store) SetReminderArmer(a ReminderArmer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.armer = a
}

// Open loads the persisted state, applies the lazy maintenance rules and
// re-arms reminders that are still in the future. Stale reminders are dropped.
func (s *Store) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft := DefaultState(s.engine.Now())
	if err := s.backend.Load(ctx, draft); err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	dirty := models.NewCollectionSet()
	if s.engine.LiftExpiredSuspension(draft) {
		dirty.Add(models.CollCancellations)
	}
	if s.engine.RollBillingPeriod(draft) {
		dirty.Add(models.CollBilling)
	}

	now := s.engine.Now()
	stale := 0
	draft.Reminders = slices.DeleteFunc(draft.Reminders, func(r models.Reminder) bool {
		if !r.FireAt.After(now) {
			stale++
			return true
		}
		return false
	})
	if stale > 0 {
		log.Printf("[Store] discarded %d stale reminders", stale)
		dirty.Add(models.CollReminders)
	}

	if len(dirty) > 0 {
		if err := s.backend.Persist(ctx, draft, dirty); err != nil {
			return fmt.Errorf("persist maintenance: %w", err)
		}
	}
	s.state = draft

	for _, r := range draft.Reminders {
		s.arm(r)
	}
	log.Printf("[Store] state loaded: %d events, %d enrollments, %d reminders armed",
		len(draft.Events), len(draft.Enrollments), len(draft.Reminders))
	return nil
}

// Snapshot returns a deep copy safe to read without holding the lock.
func (s *Store) Snapshot() *models.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// mutate runs fn on a clone and commits it when fn succeeds and the backend
// accepts the dirty collections. A failure leaves the live state untouched.
func (s *Store) mutate(ctx context.Context, op string, fn func(st *models.State) (models.CollectionSet, error)) error {
	draft := s.state.Clone()
	dirty, err := fn(draft)
	if err != nil {
		return err
	}
	if len(dirty) == 0 {
		return nil
	}
	if err := s.backend.Persist(ctx, draft, dirty); err != nil {
		log.Printf("[Store] %s: persist failed: %v", op, err)
		s.resync(ctx)
		return fmt.Errorf("%s: %w", op, err)
	}
	s.state = draft
	s.broadcast(Change{Op: op, Collections: dirty.Sorted(), At: s.engine.Now()})
	return nil
}

// resync re-reads shared data after a failed write, since part of it may
// already be committed remotely. Caller holds s.mu.
func (s *Store) resync(ctx context.Context) {
	r, ok := s.backend.(Refresher)
	if !ok {
		return
	}
	draft := s.state.Clone()
	if err := r.Refresh(ctx, draft); err != nil {
		log.Printf("[Store] resync after failed write: %v", err)
		return
	}
	s.state = draft
	s.broadcast(Change{Op: "refresh", At: s.engine.Now()})
}

func (s *Store) arm(r models.Reminder) {
	if s.armer == nil {
		return
	}
	if err := s.armer.Arm(r); err != nil {
		log.Printf("[Store] failed to arm reminder %s: %v", r.ID, err)
	}
}

func (s *Store) disarm(ids []string) {
	if s.armer == nil {
		return
	}
	for _, id := range ids {
		s.armer.Disarm(id)
	}
}

func (s *Store) Join(ctx context.Context, eventID string) (JoinResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res JoinResult
	err := s.mutate(ctx, "join", func(st *models.State) (models.CollectionSet, error) {
		var dirty models.CollectionSet
		var err error
		res, dirty, err = s.engine.Join(st, eventID)
		return dirty, err
	})
	if err == nil && res.Reminder != nil {
		s.arm(*res.Reminder)
	}
	return res, err
}

func (s *Store) Reject(ctx context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutate(ctx, "reject", func(st *models.State) (models.CollectionSet, error) {
		return s.engine.Reject(st, eventID), nil
	})
}

func (s *Store) CheckIn(ctx context.Context, eventID string, method models.CheckInMethod, proof string) (CheckInResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res CheckInResult
	err := s.mutate(ctx, "checkin", func(st *models.State) (models.CollectionSet, error) {
		var dirty models.CollectionSet
		var err error
		res, dirty, err = s.engine.CheckIn(st, eventID, method, proof)
		return dirty, err
	})
	if err == nil {
		s.disarm(res.Disarmed)
	}
	return res, err
}

func (s *Store) Cancel(ctx context.Context, eventID string) (CancelResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res CancelResult
	err := s.mutate(ctx, "cancel", func(st *models.State) (models.CollectionSet, error) {
		var dirty models.CollectionSet
		var err error
		res, dirty, err = s.engine.Cancel(st, eventID)
		return dirty, err
	})
	if err == nil {
		s.disarm(res.Disarmed)
	}
	return res, err
}

func (s *Store) FinishEvent(ctx context.Context, eventID string, in FinishInput) (FinishResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res FinishResult
	err := s.mutate(ctx, "finish", func(st *models.State) (models.CollectionSet, error) {
		var dirty models.CollectionSet
		var err error
		res, dirty, err = s.engine.FinishEvent(st, eventID, in)
		return dirty, err
	})
	if err == nil {
		s.disarm(res.Disarmed)
	}
	return res, err
}

func (s *Store) TogglePaid(ctx context.Context, eventID string) (models.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var en models.Enrollment
	err := s.mutate(ctx, "payment", func(st *models.State) (models.CollectionSet, error) {
		var dirty models.CollectionSet
		var err error
		en, dirty, err = s.engine.TogglePaid(st, eventID)
		return dirty, err
	})
	return en, err
}

// Billing rolls the period when the month changed and returns the summary.
func (s *Store) Billing(ctx context.Context) (BillingSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.mutate(ctx, "billing-roll", func(st *models.State) (models.CollectionSet, error) {
		dirty := models.NewCollectionSet()
		if s.engine.RollBillingPeriod(st) {
			dirty.Add(models.CollBilling)
		}
		return dirty, nil
	})
	if err != nil {
		return BillingSummary{}, err
	}
	return s.engine.Billing(s.state), nil
}

func (s *Store) Pay(ctx context.Context) (BillingSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.mutate(ctx, "pay", func(st *models.State) (models.CollectionSet, error) {
		_, dirty, err := s.engine.Pay(st)
		return dirty, err
	})
	if err != nil {
		return BillingSummary{}, err
	}
	return s.engine.Billing(s.state), nil
}

// Maintain runs the periodic billing roll and suspension lift.
func (s *Store) Maintain(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutate(ctx, "maintenance", func(st *models.State) (models.CollectionSet, error) {
		dirty := models.NewCollectionSet()
		if s.engine.RollBillingPeriod(st) {
			dirty.Add(models.CollBilling)
		}
		if s.engine.LiftExpiredSuspension(st) {
			dirty.Add(models.CollCancellations)
		}
		return dirty, nil
	})
}

// FireReminder turns a due reminder into a notification and forgets it.
func (s *Store) FireReminder(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutate(ctx, "reminder", func(st *models.State) (models.CollectionSet, error) {
		i := slices.IndexFunc(st.Reminders, func(r models.Reminder) bool { return r.ID == id })
		if i < 0 {
			return nil, nil
		}
		r := st.Reminders[i]
		st.Reminders = slices.Delete(st.Reminders, i, i+1)
		n := models.Notification{ID: uuid.NewString(), Body: r.Message, CreatedAt: s.engine.Now()}
		st.Notifications = capFront(st.Notifications, n, s.engine.Policy.NotificationCap)
		return models.NewCollectionSet(models.CollReminders, models.CollNotifications), nil
	})
}

// Refresh re-reads shared data from the backend, if it has any.
func (s *Store) Refresh(ctx context.Context) error {
	r, ok := s.backend.(Refresher)
	if !ok {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	draft := s.state.Clone()
	if err := r.Refresh(ctx, draft); err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	s.state = draft
	s.broadcast(Change{Op: "refresh", At: s.engine.Now()})
	return nil
}

// SetUser replaces the session identity; nil signs out. With a shared
// backend the enrollments, history and reminders belong to the account, so a
// change of account drops them and re-reads the new account's rows before the
// session is adopted.
func (s *Store) SetUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	refresher, shared := s.backend.(Refresher)
	var dropped []string
	err := s.mutate(ctx, "session", func(st *models.State) (models.CollectionSet, error) {
		prev := ""
		if st.User != nil {
			prev = st.User.ID
		}
		next := ""
		if u == nil {
			st.User = nil
		} else {
			cp := *u
			st.User = &cp
			next = cp.ID
		}
		dirty := models.NewCollectionSet(models.CollUser)
		if !shared || prev == next {
			return dirty, nil
		}

		st.Enrollments = make(map[string]models.Enrollment)
		st.History = nil
		for _, r := range st.Reminders {
			dropped = append(dropped, r.ID)
		}
		if len(st.Reminders) > 0 {
			st.Reminders = nil
			dirty.Add(models.CollReminders)
		}
		if err := refresher.Refresh(ctx, st); err != nil {
			return nil, fmt.Errorf("refresh account data: %w", err)
		}
		return dirty, nil
	})
	if err == nil {
		s.disarm(dropped)
	}
	return err
}

// Apply runs an engine operation that only returns a value and dirty set.
// It backs the simple community mutators exposed over HTTP.
func Apply[T any](ctx context.Context, s *Store, op string, fn func(e *Engine, st *models.State) (T, models.CollectionSet, error)) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out T
	err := s.mutate(ctx, op, func(st *models.State) (models.CollectionSet, error) {
		var dirty models.CollectionSet
		var err error
		out, dirty, err = fn(s.engine, st)
		return dirty, err
	})
	return out, err
}

// Subscribe returns a buffered channel that receives every committed change.
func (s *Store) Subscribe() chan Change {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	ch := make(chan Change, 16)
	s.subs[ch] = struct{}{}
	return ch
}

// Unsubscribe stops delivery and closes the channel.
func (s *Store) Unsubscribe(ch chan Change) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	if _, ok := s.subs[ch]; ok {
		delete(s.subs, ch)
		close(ch)
	}
}

func (s *Store) broadcast(c Change) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- c:
		default:
			// slow subscriber, drop
		}
	}
}

// IsNotFound reports whether err is one of the lookup failures.
func IsNotFound(err error) bool {
	return errors.Is(err, models.ErrEventNotFound) ||
		errors.Is(err, models.ErrVenueNotFound) ||
		errors.Is(err, models.ErrTeamNotFound) ||
		errors.Is(err, models.ErrChampionshipNotFound) ||
		errors.Is(err, models.ErrNotEnrolled)
}
