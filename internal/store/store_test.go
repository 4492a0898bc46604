// ABOUTME: Tests for client-local persistent storage
// ABOUTME: Validates XDG config storage, slot round-trips, and corrupt file handling

package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMissingFile(t *testing.T) {
	s := New(t.TempDir())

	v, err := s.Get(KeyToken)
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestSetAndGet(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	require.NoError(t, s.Set(KeyToken, "tok-123"))
	require.NoError(t, s.Set(KeyAnonymousID, "anon_abc"))

	// A fresh store over the same dir sees the persisted values
	reopened := New(dir)
	v, err := reopened.Get(KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "tok-123", v)

	v, err = reopened.Get(KeyAnonymousID)
	require.NoError(t, err)
	assert.Equal(t, "anon_abc", v)
}

func TestDelete(t *testing.T) {
	s := New(t.TempDir())

	require.NoError(t, s.Set(KeyToken, "tok"))
	require.NoError(t, s.Delete(KeyToken))
	require.NoError(t, s.Delete(KeyToken))

	v, err := s.Get(KeyToken)
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestStateFilePermissions(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	require.NoError(t, s.Set(KeyToken, "secret"))

	info, err := os.Stat(filepath.Join(dir, stateFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestCorruptFileReadsAsEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, stateFileName), []byte("not json"), 0600))

	s := New(dir)
	v, err := s.Get(KeyToken)
	require.NoError(t, err)
	assert.Empty(t, v)

	// Writing over a corrupt file starts fresh
	require.NoError(t, s.Set(KeyToken, "tok"))
	v, err = s.Get(KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "tok", v)
}

func TestSlotRoundTrip(t *testing.T) {
	s := New(t.TempDir())
	slot := s.Slot(KeyToken)

	for _, tok := range []string{"a", "eyJhbGciOiJIUzI1NiJ9.e30.sig", "with spaces and ünïcode"} {
		require.NoError(t, slot.Save(tok))
		got, err := slot.Load()
		require.NoError(t, err)
		assert.Equal(t, tok, got)
	}

	require.NoError(t, slot.Clear())
	got, err := slot.Load()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSlotsAreIndependent(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.Slot(KeyToken).Save("tok"))
	require.NoError(t, s.Slot(KeyAnonymousID).Save("anon"))

	require.NoError(t, s.Slot(KeyToken).Clear())

	v, err := s.Slot(KeyAnonymousID).Load()
	require.NoError(t, err)
	assert.Equal(t, "anon", v)
}

func TestDefaultDirXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")
	assert.Equal(t, "/tmp/xdg-test/quickpoll", DefaultDir())
}

func TestDefaultDirHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	assert.Equal(t, filepath.Join(home, ".config", "quickpoll"), DefaultDir())
}
