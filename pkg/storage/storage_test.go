package storage

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blob struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

func TestSetGetRoundTrip(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "nested", "storage"))

	require.NoError(t, s.Set("auth-storage", blob{Name: "alice", Items: []string{"a", "b"}}))

	var got blob
	ok, err := s.Get("auth-storage", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "alice", got.Name)
	assert.Equal(t, []string{"a", "b"}, got.Items)
}

func TestGetMissingKey(t *testing.T) {
	s := New(t.TempDir())

	var got blob
	ok, err := s.Get("dismissed-notifications", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetOverwrites(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.Set("k", []string{"1"}))
	require.NoError(t, s.Set("k", []string{"2", "3"}))

	var got []string
	_, err := s.Get("k", &got)
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "3"}, got)

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	s := New(t.TempDir())
	require.NoError(t, s.Set("auth-storage", blob{Name: "x"}))

	info, err := os.Stat(s.Path("auth-storage"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestRemove(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.Set("k", 1))
	require.NoError(t, s.Remove("k"))
	require.NoError(t, s.Remove("k"), "removing twice is fine")

	var v int
	ok, err := s.Get("k", &v)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInvalidKeys(t *testing.T) {
	s := New(t.TempDir())
	for _, key := range []string{"", "../escape", "a/b", "with space"} {
		t.Run(key, func(t *testing.T) {
			assert.Error(t, s.Set(key, 1))
			_, err := s.Get(key, new(int))
			assert.Error(t, err)
			assert.Error(t, s.Remove(key))
		})
	}
}

func TestCorruptBlob(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, os.WriteFile(s.Path("k"), []byte("{not json"), 0600))

	var got blob
	ok, err := s.Get("k", &got)
	assert.Error(t, err)
	assert.False(t, ok)
}
