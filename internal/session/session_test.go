package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_TokenUntilInvalidated(t *testing.T) {
	s := New("tok", "ann@example.com")

	token, err := s.Token()
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
	assert.True(t, s.Valid())

	s.Invalidate(errors.New("401"))

	_, err = s.Token()
	assert.ErrorIs(t, err, ErrInvalidSession)
	assert.False(t, s.Valid())
	assert.Equal(t, "ann@example.com", s.Email())
}

func TestSession_ListenersFireOnce(t *testing.T) {
	s := New("tok", "ann@example.com")
	var reasons []error
	s.OnInvalidate(func(reason error) { reasons = append(reasons, reason) })

	forbidden := errors.New("403")
	s.Invalidate(forbidden)
	s.Invalidate(errors.New("again"))
	s.Close()

	require.Len(t, reasons, 1)
	assert.Equal(t, forbidden, reasons[0])
}

func TestSession_EmptyAndNil(t *testing.T) {
	_, err := New("", "").Token()
	assert.ErrorIs(t, err, ErrInvalidSession)

	var s *Session
	_, err = s.Token()
	assert.ErrorIs(t, err, ErrInvalidSession)
	assert.False(t, s.Valid())
}

func TestFile_SaveLoadRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.yaml")

	require.NoError(t, Save(path, New("tok", "ann@example.com")))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	token, err := loaded.Token()
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
	assert.Equal(t, "ann@example.com", loaded.Email())

	require.NoError(t, Remove(path))
	_, err = Load(path)
	assert.ErrorIs(t, err, ErrInvalidSession)
	assert.NoError(t, Remove(path))
}

func TestFile_SaveRefusesInvalidSession(t *testing.T) {
	s := New("tok", "ann@example.com")
	s.Close()

	err := Save(filepath.Join(t.TempDir(), "session.yaml"), s)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestFile_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	require.NoError(t, os.WriteFile(path, []byte("token: [unterminated"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidSession)
}
