package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeExecer records every Exec call.
type fakeExecer struct {
	mu    sync.Mutex
	err   error
	calls [][]any
}

func (f *fakeExecer) Exec(_ context.Context, _ string, args ...any) (pgconn.CommandTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, args)
	return pgconn.CommandTag{}, f.err
}

func (f *fakeExecer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestRecord(t *testing.T) {
	t.Run("inserts the interaction asynchronously", func(t *testing.T) {
		db := &fakeExecer{}
		l, err := New(db, nil)
		require.NoError(t, err)
		defer l.Close()

		l.Record(context.Background(), Interaction{
			SessionID: "s1",
			Query:     "what happened",
			Response:  "several things",
			Elapsed:   1500 * time.Millisecond,
		})

		waitFor(t, func() bool { return db.callCount() == 1 })

		db.mu.Lock()
		defer db.mu.Unlock()
		require.Len(t, db.calls[0], 4)
		assert.Equal(t, "s1", db.calls[0][0])
		assert.Equal(t, "what happened", db.calls[0][1])
		assert.Equal(t, "several things", db.calls[0][2])
		assert.Equal(t, int64(1500), db.calls[0][3])
	})

	t.Run("insert failure is swallowed", func(t *testing.T) {
		db := &fakeExecer{err: errors.New("relation does not exist")}
		l, err := New(db, nil)
		require.NoError(t, err)
		defer l.Close()

		l.Record(context.Background(), Interaction{SessionID: "s1"})
		waitFor(t, func() bool { return db.callCount() == 1 })
	})

	t.Run("handles a burst of records", func(t *testing.T) {
		db := &fakeExecer{}
		l, err := New(db, nil)
		require.NoError(t, err)
		defer l.Close()

		const n = 20
		for i := range n {
			l.Record(context.Background(), Interaction{SessionID: "s", Query: string(rune('a' + i))})
		}

		// Nonblocking submits may drop under load; everything accepted
		// must eventually reach the database.
		waitFor(t, func() bool { return db.callCount() > 0 })
		l.Close()
		assert.LessOrEqual(t, db.callCount(), n)
	})
}

func TestCloseDrainsWorkers(t *testing.T) {
	db := &fakeExecer{}
	l, err := New(db, nil)
	require.NoError(t, err)

	l.Record(context.Background(), Interaction{SessionID: "s1"})
	l.Close()

	assert.Equal(t, 1, db.callCount())
}

func TestNopDiscards(t *testing.T) {
	var r Recorder = Nop{}
	r.Record(context.Background(), Interaction{SessionID: "s1"})
}
