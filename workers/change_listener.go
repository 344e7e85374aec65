package workers

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Refresher re-reads shared state after another writer changed it.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// ChangeListener holds a dedicated Postgres connection on LISTEN and turns
// every notification into a full refresh of the store.
type ChangeListener struct {
	dsn        string
	channel    string
	target     Refresher
	retryDelay time.Duration
}

func NewChangeListener(dsn, channel string, target Refresher) *ChangeListener {
	return &ChangeListener{
		dsn:        dsn,
		channel:    channel,
		target:     target,
		retryDelay: 5 * time.Second,
	}
}

// Run blocks until ctx is cancelled, reconnecting after failures.
func (l *ChangeListener) Run(ctx context.Context) {
	log.Printf("🔁 Starting change listener on channel %q", l.channel)
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			log.Println("[Listener] stopped.")
			return
		}
		log.Printf("[Listener] ❌ %v, reconnecting in %s", err, l.retryDelay)
		select {
		case <-ctx.Done():
			log.Println("[Listener] stopped.")
			return
		case <-time.After(l.retryDelay):
		}
	}
}

func (l *ChangeListener) listen(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	log.Printf("[Listener] ✅ listening on %q", l.channel)

	// Refresh once to pick up anything written while disconnected.
	l.handle(ctx, nil)

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait: %w", err)
		}
		l.handle(ctx, n)
	}
}

func (l *ChangeListener) handle(ctx context.Context, n *pgconn.Notification) {
	if n != nil {
		log.Printf("[Listener] change on %s", n.Payload)
	}
	if err := l.target.Refresh(ctx); err != nil {
		log.Printf("[Listener] refresh failed: %v", err)
	}
}
