package taskqueue

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitDone(t *testing.T, q *Queue) {
	t.Helper()
	select {
	case <-q.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not exit")
	}
}

func TestFIFOOrder(t *testing.T) {
	q := New(zerolog.Nop())

	var mu sync.Mutex
	var got []int
	const n = 200
	for i := 0; i < n; i++ {
		i := i
		require.True(t, q.Enqueue(Func(fmt.Sprintf("marker-%d", i), func() error {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			return nil
		})))
	}
	q.Enqueue(Terminate())
	waitDone(t, q)

	require.Len(t, got, n)
	for i := 0; i < n; i++ {
		assert.Equal(t, i, got[i])
	}
}

func TestEnqueueDoesNotBlock(t *testing.T) {
	q := New(zerolog.Nop())
	release := make(chan struct{})

	q.Enqueue(Func("blocker", func() error {
		<-release
		return nil
	}))

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			q.Enqueue(Func("noop", func() error { return nil }))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("enqueue blocked while worker was busy")
	}

	close(release)
	q.Close()
	waitDone(t, q)
}

func TestTerminateDiscardsLaterTasks(t *testing.T) {
	q := New(zerolog.Nop())
	ran := false

	q.Enqueue(Terminate())
	accepted := q.Enqueue(Func("late", func() error {
		ran = true
		return nil
	}))
	waitDone(t, q)

	assert.False(t, accepted)
	assert.False(t, ran)
}

func TestCloseDrainsQueue(t *testing.T) {
	q := New(zerolog.Nop())
	var buf bytes.Buffer

	q.Enqueue(Println(&buf, "one"))
	q.Enqueue(Println(&buf, "two"))
	q.Close()
	waitDone(t, q)

	assert.Equal(t, "one\ntwo\n", buf.String())
	assert.False(t, q.Enqueue(Println(&buf, "three")))
	assert.Equal(t, 0, q.Len())
}

func TestFailingAndPanickingTasksDoNotStopWorker(t *testing.T) {
	var logBuf bytes.Buffer
	q := New(zerolog.New(&logBuf))
	ran := false

	q.Enqueue(Func("fails", func() error { return errors.New("disk full") }))
	q.Enqueue(Func("panics", func() error { panic("boom") }))
	q.Enqueue(Func("after", func() error {
		ran = true
		return nil
	}))
	q.Enqueue(Terminate())
	waitDone(t, q)

	assert.True(t, ran)
	assert.Contains(t, logBuf.String(), "disk full")
	assert.Contains(t, logBuf.String(), "Task panicked")
}
