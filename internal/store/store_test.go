package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryKVRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()

	got, err := kv.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got, "missing keys return nil, nil")

	require.NoError(t, kv.Set(ctx, "k", []byte(`"v"`)))
	got, err = kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte(`"v"`), got)

	require.NoError(t, kv.Delete(ctx, "k"))
	got, err = kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFileKVSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "store.json")

	kv, err := NewFileKV(path)
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, "k", []byte(`{"a":1}`)))

	// A fresh instance on the same path sees the write, like a process
	// restart would.
	reopened, err := NewFileKV(path)
	require.NoError(t, err)
	got, err := reopened.Get(ctx, "k")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(got))
}

func TestFileKVDelete(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.json")

	kv, err := NewFileKV(path)
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, "k", []byte(`1`)))
	require.NoError(t, kv.Delete(ctx, "k"))

	reopened, err := NewFileKV(path)
	require.NoError(t, err)
	got, err := reopened.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRejoinPointerLifecycle(t *testing.T) {
	ctx := context.Background()
	manager := NewRejoinManager(NewMemoryKV())

	ptr, err := manager.Recall(ctx)
	require.NoError(t, err)
	assert.Nil(t, ptr, "no pointer before any session")

	require.NoError(t, manager.Remember(ctx, "s1", "ABC123"))
	ptr, err = manager.Recall(ctx)
	require.NoError(t, err)
	require.NotNil(t, ptr)
	assert.Equal(t, "s1", ptr.SessionID)
	assert.Equal(t, "ABC123", ptr.JoinCode)

	// Entering a new session overwrites, it never stacks.
	require.NoError(t, manager.Remember(ctx, "s2", "XYZ789"))
	ptr, err = manager.Recall(ctx)
	require.NoError(t, err)
	assert.Equal(t, "s2", ptr.SessionID)

	require.NoError(t, manager.Forget(ctx))
	ptr, err = manager.Recall(ctx)
	require.NoError(t, err)
	assert.Nil(t, ptr)
}

func TestRejoinPointerSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.json")

	kv, err := NewFileKV(path)
	require.NoError(t, err)
	require.NoError(t, NewRejoinManager(kv).Remember(ctx, "s1", "ABC123"))

	reopened, err := NewFileKV(path)
	require.NoError(t, err)
	ptr, err := NewRejoinManager(reopened).Recall(ctx)
	require.NoError(t, err)
	require.NotNil(t, ptr)
	assert.Equal(t, "ABC123", ptr.JoinCode)
}
