package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// Stream is the writable side of a live event-stream response. http.ResponseWriter
// combined with http.Flusher satisfies it; tests substitute in-memory fakes.
type Stream interface {
	io.Writer
	Flush()
}

// Connection is a single registered user stream. It is owned exclusively by the
// Registry; handlers only hold it to wait on Done and to release it on teardown.
type Connection struct {
	userID string
	stream Stream
	mu     sync.Mutex // serialises frame writes so ping and dispatch cannot interleave
	done   chan struct{}
	once   sync.Once
}

// Done is closed when the connection is evicted or superseded by a newer
// registration for the same user. The owning handler must return then.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

func (c *Connection) close() {
	c.once.Do(func() { close(c.done) })
}

// writeFrame writes a single pre-formatted SSE frame and flushes it.
func (c *Connection) writeFrame(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.stream.Write(frame); err != nil {
		return err
	}
	c.stream.Flush()
	return nil
}

// Registry keeps at most one live event-stream connection per user. All map
// access is mutex-guarded; dispatch and ping failures evict the dead connection
// so a broken socket can never surface an error to producers.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Connection
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*Connection)}
}

// Register stores a connection for userID, superseding any previous one.
// The superseded connection is closed so its handler goroutine exits.
func (r *Registry) Register(userID string, s Stream) *Connection {
	c := &Connection{userID: userID, stream: s, done: make(chan struct{})}
	r.mu.Lock()
	prev := r.conns[userID]
	r.conns[userID] = c
	r.mu.Unlock()
	if prev != nil {
		prev.close()
	}
	slog.Info("sse: user connected", "user_id", userID, "connected", r.Count())
	return c
}

// Unregister removes the entry for userID if present. Idempotent.
func (r *Registry) Unregister(userID string) {
	r.mu.Lock()
	c, ok := r.conns[userID]
	if ok {
		delete(r.conns, userID)
	}
	r.mu.Unlock()
	if ok {
		c.close()
		slog.Info("sse: user disconnected", "user_id", userID, "connected", r.Count())
	}
}

// Release removes c only while it is still the current connection for its
// user. A handler whose connection was superseded must not evict its
// replacement, so teardown goes through this identity-checked path.
func (r *Registry) Release(c *Connection) {
	r.mu.Lock()
	if r.conns[c.userID] == c {
		delete(r.conns, c.userID)
	}
	r.mu.Unlock()
	c.close()
}

// Dispatch writes a named event frame to userID's connection. Delivery is
// best-effort: no connection means no-op, and a failed write evicts the
// connection instead of propagating the error.
func (r *Registry) Dispatch(userID, event string, payload interface{}) {
	r.mu.RLock()
	c, ok := r.conns[userID]
	r.mu.RUnlock()
	if !ok {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("sse: marshal event payload", "event", event, "user_id", userID, "err", err)
		return
	}
	frame := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event, body))

	if err := c.writeFrame(frame); err != nil {
		slog.Warn("sse: write failed, evicting connection", "user_id", userID, "event", event, "err", err)
		r.Release(c)
	}
}

// PingAll writes a comment frame to every live connection to defeat
// idle-connection timeouts in intermediary proxies. Dead connections are
// evicted the same way as in Dispatch.
func (r *Registry) PingAll() {
	r.mu.RLock()
	snapshot := make([]*Connection, 0, len(r.conns))
	for _, c := range r.conns {
		snapshot = append(snapshot, c)
	}
	r.mu.RUnlock()

	for _, c := range snapshot {
		if err := c.writeFrame([]byte(":\n\n")); err != nil {
			slog.Warn("sse: ping failed, evicting connection", "user_id", c.userID, "err", err)
			r.Release(c)
		}
	}
}

// Connected returns a snapshot of the currently registered user ids.
// Diagnostics only; it is stale the moment it returns.
func (r *Registry) Connected() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of live connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// StartPinger pings all connections every interval until ctx is cancelled.
// Run it once per process as part of startup.
func (r *Registry) StartPinger(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.PingAll()
			}
		}
	}()
}
