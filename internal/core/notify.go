package core

import (
	"context"
	"sync"
)

// LocalNotifier fans session change notices out to in-process listeners.
// It is the single-node counterpart of the Postgres notifier.
type LocalNotifier struct {
	mu   sync.Mutex
	subs map[chan string]struct{}
}

// NewLocalNotifier creates a LocalNotifier with no listeners.
func NewLocalNotifier() *LocalNotifier {
	return &LocalNotifier{subs: make(map[chan string]struct{})}
}

// Notify delivers sessionID to every listener. Slow listeners miss notices
// rather than block the caller.
func (n *LocalNotifier) Notify(ctx context.Context, sessionID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.subs {
		select {
		case ch <- sessionID:
		default:
		}
	}
	return nil
}

// Listen registers a listener until ctx is done.
func (n *LocalNotifier) Listen(ctx context.Context) (<-chan string, error) {
	ch := make(chan string, 16)
	n.mu.Lock()
	n.subs[ch] = struct{}{}
	n.mu.Unlock()
	go func() {
		<-ctx.Done()
		n.mu.Lock()
		delete(n.subs, ch)
		close(ch)
		n.mu.Unlock()
	}()
	return ch, nil
}
