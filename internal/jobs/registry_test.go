package jobs

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartAndGet(t *testing.T) {
	r := NewRegistry()
	h := r.Start("ingest", 10)

	job, ok := r.Get(h.ID())
	require.True(t, ok)
	assert.Equal(t, "ingest", job.Kind)
	assert.Equal(t, StatusRunning, job.Status)
	assert.Equal(t, 10, job.Total)
	assert.Equal(t, 0, job.Progress)
	assert.False(t, job.Done())

	_, ok = r.Get("unknown")
	assert.False(t, ok)
}

func TestProgressAndComplete(t *testing.T) {
	r := NewRegistry()
	h := r.Start("ingest", 0)

	h.SetTotal(5)
	h.Progress(3)
	h.Complete()

	job, ok := r.Get(h.ID())
	require.True(t, ok)
	assert.Equal(t, StatusCompleted, job.Status)
	assert.Equal(t, 5, job.Total)
	assert.Equal(t, 3, job.Progress)
	require.NotNil(t, job.FinishedAt)
	assert.True(t, job.Done())
}

func TestFail(t *testing.T) {
	r := NewRegistry()
	h := r.Start("ingest", 2)
	h.Fail(errors.New("dump unreadable"))

	job, _ := r.Get(h.ID())
	assert.Equal(t, StatusFailed, job.Status)
	assert.Equal(t, "dump unreadable", job.Error)

	// Updates after a terminal state are ignored.
	h.Progress(2)
	h.Complete()
	job, _ = r.Get(h.ID())
	assert.Equal(t, StatusFailed, job.Status)
	assert.Equal(t, 0, job.Progress)
}

func TestListNewestFirst(t *testing.T) {
	r := NewRegistry()
	a := r.Start("ingest", 1)
	time.Sleep(2 * time.Millisecond)
	b := r.Start("ingest", 1)

	jobs := r.List()
	require.Len(t, jobs, 2)
	assert.Equal(t, b.ID(), jobs[0].ID)
	assert.Equal(t, a.ID(), jobs[1].ID)
}

func TestWatchStreamsUpdates(t *testing.T) {
	r := NewRegistry()
	h := r.Start("ingest", 3)

	ch, cancel, ok := r.Watch(h.ID())
	require.True(t, ok)
	defer cancel()

	first := <-ch
	assert.Equal(t, StatusRunning, first.Status)

	h.Progress(1)
	update := <-ch
	assert.Equal(t, 1, update.Progress)

	h.Complete()
	final := <-ch
	assert.Equal(t, StatusCompleted, final.Status)

	_, open := <-ch
	assert.False(t, open)
}

func TestWatchFinishedJob(t *testing.T) {
	r := NewRegistry()
	h := r.Start("ingest", 1)
	h.Complete()

	ch, cancel, ok := r.Watch(h.ID())
	require.True(t, ok)
	defer cancel()

	snap := <-ch
	assert.Equal(t, StatusCompleted, snap.Status)
	_, open := <-ch
	assert.False(t, open)
}

func TestWatchUnknownJob(t *testing.T) {
	r := NewRegistry()
	_, _, ok := r.Watch("nope")
	assert.False(t, ok)
}

func TestWatchCancelIdempotent(t *testing.T) {
	r := NewRegistry()
	h := r.Start("ingest", 1)

	_, cancel, ok := r.Watch(h.ID())
	require.True(t, ok)
	cancel()
	cancel()

	// Updates after cancel must not panic on a closed channel.
	h.Progress(1)
	h.Complete()
}
