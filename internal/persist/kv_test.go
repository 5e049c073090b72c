package persist

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]KV {
	t.Helper()

	dir := t.TempDir()
	fileKV, err := NewFileKV(filepath.Join(dir, "files"))
	require.NoError(t, err)
	sqliteKV, err := OpenSQLite(filepath.Join(dir, "db", "sessioncal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqliteKV.Close() })

	return map[string]KV{
		"memory": NewMemoryKV(),
		"file":   fileKV,
		"sqlite": sqliteKV,
	}
}

func TestKVBackends(t *testing.T) {
	t.Parallel()

	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			_, ok, err := kv.Get(ctx, EventsSlot)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, kv.Put(ctx, EventsSlot, []byte(`[1]`)))
			require.NoError(t, kv.Put(ctx, EventsSlot, []byte(`[1,2]`)))
			require.NoError(t, kv.Put(ctx, TemplatesSlot, []byte(`[]`)))

			got, ok, err := kv.Get(ctx, EventsSlot)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `[1,2]`, string(got))

			got, ok, err = kv.Get(ctx, TemplatesSlot)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `[]`, string(got))

			assert.ErrorIs(t, kv.Put(ctx, "../escape", nil), ErrInvalidKey)
			_, _, err = kv.Get(ctx, "")
			assert.ErrorIs(t, err, ErrInvalidKey)
		})
	}
}

func TestFileKVWritesPrivateFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	kv, err := NewFileKV(dir)
	require.NoError(t, err)
	require.NoError(t, kv.Put(context.Background(), EventsSlot, []byte(`[]`)))

	info, err := os.Stat(filepath.Join(dir, EventsSlot+".json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestSQLiteKVReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "s.db")
	kv, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, kv.Put(context.Background(), TemplatesSlot, []byte(`[{"id":"t1"}]`)))
	require.NoError(t, kv.Close())

	kv, err = OpenSQLite(path)
	require.NoError(t, err)
	defer kv.Close()

	got, ok, err := kv.Get(context.Background(), TemplatesSlot)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `[{"id":"t1"}]`, string(got))
}
