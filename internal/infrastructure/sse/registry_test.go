package sse

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStream is an in-memory Stream that can be told to fail writes.
type fakeStream struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	flushes int
	fail    bool
}

func (s *fakeStream) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return 0, errors.New("broken pipe")
	}
	return s.buf.Write(p)
}

func (s *fakeStream) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushes++
}

func (s *fakeStream) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func (s *fakeStream) setFail(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fail
}

func TestDispatch_NoConnectionIsNoop(t *testing.T) {
	r := NewRegistry()
	// Must not panic or error with nobody connected.
	r.Dispatch("u1", "NUEVA_NOTIFICACION", map[string]string{"id": "n1"})
	assert.Equal(t, 0, r.Count())
}

func TestDispatch_WritesNamedFrame(t *testing.T) {
	r := NewRegistry()
	s := &fakeStream{}
	r.Register("u1", s)

	r.Dispatch("u1", "NUEVA_NOTIFICACION", map[string]string{"id": "n1"})

	assert.Equal(t, "event: NUEVA_NOTIFICACION\ndata: {\"id\":\"n1\"}\n\n", s.String())
	assert.Equal(t, 1, s.flushes)
}

func TestRegister_SecondConnectionSupersedesFirst(t *testing.T) {
	r := NewRegistry()
	s1 := &fakeStream{}
	s2 := &fakeStream{}

	c1 := r.Register("u1", s1)
	c2 := r.Register("u1", s2)

	assert.Equal(t, 1, r.Count())

	// The first connection's done channel closes so its handler exits.
	select {
	case <-c1.Done():
	case <-time.After(time.Second):
		t.Fatal("superseded connection was not closed")
	}

	// Frames go to the new stream only.
	r.Dispatch("u1", "ping-test", map[string]string{"id": "x"})
	assert.Empty(t, s1.String())
	assert.Contains(t, s2.String(), "event: ping-test")

	select {
	case <-c2.Done():
		t.Fatal("current connection must stay open")
	default:
	}
}

func TestRelease_SupersededHandlerCannotEvictReplacement(t *testing.T) {
	r := NewRegistry()
	c1 := r.Register("u1", &fakeStream{})
	r.Register("u1", &fakeStream{})

	// The old handler tears down with its stale connection.
	r.Release(c1)

	// The replacement must still be registered.
	assert.Equal(t, 1, r.Count())
	assert.Equal(t, []string{"u1"}, r.Connected())
}

func TestUnregister_Idempotent(t *testing.T) {
	r := NewRegistry()
	r.Register("u1", &fakeStream{})

	r.Unregister("u1")
	r.Unregister("u1")
	r.Unregister("never-connected")

	assert.Equal(t, 0, r.Count())
}

func TestDispatch_WriteFailureEvictsConnection(t *testing.T) {
	r := NewRegistry()
	s := &fakeStream{}
	c := r.Register("u1", s)

	s.setFail(true)
	r.Dispatch("u1", "NUEVA_NOTIFICACION", map[string]string{"id": "n1"})

	assert.Equal(t, 0, r.Count())
	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("evicted connection was not closed")
	}

	// Follow-up dispatches are silent no-ops.
	r.Dispatch("u1", "NUEVA_NOTIFICACION", map[string]string{"id": "n2"})
}

func TestPingAll_EvictsDeadKeepsLive(t *testing.T) {
	r := NewRegistry()
	s1 := &fakeStream{}
	s2 := &fakeStream{}
	s3 := &fakeStream{}
	r.Register("u1", s1)
	r.Register("u2", s2)
	r.Register("u3", s3)
	require.Equal(t, 3, r.Count())

	s2.setFail(true)
	r.PingAll()

	assert.Equal(t, 2, r.Count())
	assert.Equal(t, ":\n\n", s1.String())
	assert.Equal(t, ":\n\n", s3.String())
	assert.NotContains(t, r.Connected(), "u2")
}

func TestStartPinger_StopsOnContextCancel(t *testing.T) {
	r := NewRegistry()
	s := &fakeStream{}
	r.Register("u1", s)

	ctx, cancel := context.WithCancel(context.Background())
	r.StartPinger(ctx, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		return s.String() != ""
	}, time.Second, 5*time.Millisecond)

	cancel()
	time.Sleep(30 * time.Millisecond)
	before := s.String()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, before, s.String())
}

func TestDispatch_ConcurrentWithPingKeepsFramesIntact(t *testing.T) {
	r := NewRegistry()
	s := &fakeStream{}
	r.Register("u1", s)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.Dispatch("u1", "NUEVA_NOTIFICACION", map[string]string{"id": "n"})
		}()
		go func() {
			defer wg.Done()
			r.PingAll()
		}()
	}
	wg.Wait()

	// Every frame must terminate with a blank line and no frame may be
	// split by another.
	out := s.String()
	for len(out) > 0 {
		idx := bytes.Index([]byte(out), []byte("\n\n"))
		require.NotEqual(t, -1, idx, "unterminated frame: %q", out)
		frame := out[:idx]
		if frame != ":" {
			assert.Contains(t, frame, "event: NUEVA_NOTIFICACION")
		}
		out = out[idx+2:]
	}
}
