package db

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"
)

// Notifier wraps the LISTEN/NOTIFY mechanism in PostgreSQL. It announces
// session changes so that every server replica can push fresh snapshots to
// its stream subscribers.
type Notifier struct {
	DB      *sql.DB
	DSN     string
	Channel string
	Logger  *slog.Logger
}

// NewNotifier constructs a new Notifier. dsn is used by Listen, which needs
// a dedicated connection.
func NewNotifier(db *sql.DB, dsn, channel string, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{DB: db, DSN: dsn, Channel: channel, Logger: logger}
}

// Notify sends the session ID on the channel.
func (n *Notifier) Notify(ctx context.Context, sessionID string) error {
	_, err := n.DB.ExecContext(ctx, `SELECT pg_notify($1, $2)`, n.Channel, sessionID)
	return err
}

// Listen yields session IDs as they are received on the channel until ctx
// is cancelled, then closes the returned channel.
func (n *Notifier) Listen(ctx context.Context) (<-chan string, error) {
	listener := pq.NewListener(n.DSN, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			n.Logger.Warn("session listener event", slog.Int("event", int(ev)), slog.String("error", err.Error()))
		}
	})
	if err := listener.Listen(n.Channel); err != nil {
		listener.Close()
		return nil, err
	}
	ch := make(chan string)
	go func() {
		defer func() {
			_ = listener.Close()
			close(ch)
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case notification := <-listener.Notify:
				// nil after a reconnect; notifications may have been missed.
				if notification == nil {
					continue
				}
				select {
				case ch <- notification.Extra:
				case <-ctx.Done():
					return
				}
			case <-time.After(90 * time.Second):
				go func() { _ = listener.Ping() }()
			}
		}
	}()
	return ch, nil
}
