package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fithub/models"
)

var refTime = time.Date(2025, time.March, 14, 18, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock { return &testClock{now: refTime} }

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestEngine(clock *testClock) *Engine {
	return NewEngine(DefaultPolicy, clock.Now)
}

// signedInState returns an empty authenticated state with one event.
func signedInState(ev models.Event) *models.State {
	st := models.NewState()
	st.User = &models.User{ID: "u1", Name: "Lucas Santiago", Email: "lucas@example.com", City: "Salvador"}
	st.Events = []models.Event{ev}
	st.Billing = models.BillingPeriod{Month: monthKey(refTime)}
	return st
}

func futureEvent(id string, in time.Duration, total, taken int) models.Event {
	return models.Event{
		ID:         id,
		Sport:      "Futebol 5x5",
		Venue:      "Quadra Arena X",
		Datetime:   refTime.Add(in),
		SlotsTotal: total,
		SlotsTaken: taken,
	}
}

type memBackend struct {
	mu        sync.Mutex
	persisted []models.CollectionSet
	failWith  error
	loadFn    func(st *models.State)
}

func (b *memBackend) Load(_ context.Context, st *models.State) error {
	if b.loadFn != nil {
		b.loadFn(st)
	}
	return nil
}

func (b *memBackend) Persist(_ context.Context, _ *models.State, dirty models.CollectionSet) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failWith != nil {
		return b.failWith
	}
	b.persisted = append(b.persisted, dirty)
	return nil
}

type fakeArmer struct {
	armed    map[string]models.Reminder
	disarmed []string
}

func newFakeArmer() *fakeArmer { return &fakeArmer{armed: map[string]models.Reminder{}} }

func (a *fakeArmer) Arm(r models.Reminder) error {
	a.armed[r.ID] = r
	return nil
}

func (a *fakeArmer) Disarm(id string) {
	delete(a.armed, id)
	a.disarmed = append(a.disarmed, id)
}

var errBackendDown = errors.New("backend down")

func mustOpen(t *testing.T, s *Store) {
	t.Helper()
	if err := s.Open(context.Background()); err != nil {
		t.Fatalf("open store: %v", err)
	}
}
