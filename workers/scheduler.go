// workers/scheduler.go
package workers

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"fithub/models"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

// ReminderStore is the part of the store the scheduler drives.
type ReminderStore interface {
	FireReminder(ctx context.Context, id string) error
	Maintain(ctx context.Context) error
}

// Scheduler arms one gocron job per durable reminder and runs the periodic
// billing roll.
type Scheduler struct {
	sched    gocron.Scheduler
	store    ReminderStore
	interval time.Duration

	mu   sync.Mutex
	ctx  context.Context
	jobs map[string]uuid.UUID
}

func NewScheduler(store ReminderStore, maintenanceInterval time.Duration) (*Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	if maintenanceInterval <= 0 {
		maintenanceInterval = time.Hour
	}
	return &Scheduler{
		sched:    sched,
		store:    store,
		interval: maintenanceInterval,
		ctx:      context.Background(),
		jobs:     make(map[string]uuid.UUID),
	}, nil
}

// Start registers the maintenance job and starts running jobs. Jobs stop
// doing work once ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	_, err := s.sched.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() {
			if ctx.Err() != nil {
				return
			}
			if err := s.store.Maintain(ctx); err != nil {
				log.Printf("[Scheduler] maintenance failed: %v", err)
			}
		}),
		gocron.WithName("billing-roll"),
	)
	if err != nil {
		return fmt.Errorf("register maintenance job: %w", err)
	}
	s.sched.Start()
	log.Printf("[Scheduler] started, maintenance every %s", s.interval)
	return nil
}

// Arm schedules a reminder. Re-arming the same id replaces the old job.
func (s *Scheduler) Arm(r models.Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.jobs[r.ID]; ok {
		_ = s.sched.RemoveJob(old)
	}
	id := r.ID
	job, err := s.sched.NewJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(r.FireAt)),
		gocron.NewTask(func() { s.fire(id) }),
		gocron.WithName("reminder:"+id),
	)
	if err != nil {
		return fmt.Errorf("arm reminder %s: %w", id, err)
	}
	s.jobs[id] = job.ID()
	log.Printf("[Scheduler] reminder %s armed for %s", id, r.FireAt.Format(time.RFC3339))
	return nil
}

// Disarm cancels a pending reminder; unknown ids are ignored.
func (s *Scheduler) Disarm(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	jobID, ok := s.jobs[id]
	if !ok {
		return
	}
	delete(s.jobs, id)
	if err := s.sched.RemoveJob(jobID); err != nil {
		log.Printf("[Scheduler] remove reminder %s: %v", id, err)
	}
}

func (s *Scheduler) fire(id string) {
	s.mu.Lock()
	ctx := s.ctx
	delete(s.jobs, id)
	s.mu.Unlock()

	if ctx.Err() != nil {
		return
	}
	if err := s.store.FireReminder(ctx, id); err != nil {
		log.Printf("[Scheduler] reminder %s failed: %v", id, err)
		return
	}
	log.Printf("✅ Reminder %s delivered", id)
}

// Pending returns how many reminders are armed.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

func (s *Scheduler) Shutdown() error {
	return s.sched.Shutdown()
}
