package backup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sessioncal/internal/persist"
)

type fakeSlots map[string]string

func (f fakeSlots) ReadSlot(_ context.Context, slot string) ([]byte, error) {
	v, ok := f[slot]
	if !ok {
		return nil, errors.New("boom")
	}
	return []byte(v), nil
}

func TestSnapshotWritesEverySlot(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "backup")
	s := NewSnapshotter(fakeSlots{
		persist.EventsSlot:    `[{"id":"a"}]`,
		persist.TemplatesSlot: `[]`,
	}, dir, 3)
	s.now = func() time.Time { return time.Unix(1700000000, 0) }

	paths, err := s.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, paths, 2)

	data, err := os.ReadFile(filepath.Join(dir, "1700000000_calendarEvents.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"a"}]`, string(data))

	data, err = os.ReadFile(filepath.Join(dir, "1700000000_eventTemplates.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestSnapshotPrunesOldest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := NewSnapshotter(fakeSlots{
		persist.EventsSlot:    `[]`,
		persist.TemplatesSlot: `[]`,
	}, dir, 2)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))

	for i := int64(1); i <= 4; i++ {
		stamp := time.Unix(1000*i, 0)
		s.now = func() time.Time { return stamp }
		_, err := s.Snapshot(context.Background())
		require.NoError(t, err)
	}

	files, err := s.List(persist.EventsSlot)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "4000_calendarEvents.json"),
		filepath.Join(dir, "3000_calendarEvents.json"),
	}, files)

	files, err = s.List(persist.TemplatesSlot)
	require.NoError(t, err)
	assert.Len(t, files, 2)

	_, err = os.Stat(filepath.Join(dir, "notes.txt"))
	assert.NoError(t, err, "unrelated files are left alone")
}

func TestSnapshotReportsReadFailure(t *testing.T) {
	t.Parallel()

	s := NewSnapshotter(fakeSlots{persist.EventsSlot: `[]`}, t.TempDir(), 0)
	paths, err := s.Snapshot(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), persist.TemplatesSlot)
	assert.Len(t, paths, 1)
}

func TestListMissingDir(t *testing.T) {
	t.Parallel()

	s := NewSnapshotter(fakeSlots{}, filepath.Join(t.TempDir(), "nope"), 1)
	files, err := s.List(persist.EventsSlot)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestNewSchedulerRejectsBadSpec(t *testing.T) {
	t.Parallel()

	s := NewSnapshotter(fakeSlots{}, t.TempDir(), 1)
	_, err := NewScheduler("not a cron", s)
	require.Error(t, err)

	sched, err := NewScheduler("0 3 * * *", s)
	require.NoError(t, err)
	assert.True(t, sched.Next().IsZero(), "not started")
}

func TestSchedulerRunStopsWithContext(t *testing.T) {
	t.Parallel()

	s := NewSnapshotter(fakeSlots{}, t.TempDir(), 1)
	sched, err := NewScheduler("0 3 * * *", s)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sched.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
