package credentials

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".vsladmin")
	s := NewFileStore(dir)

	want := TokenData{Token: "abc.def.ghi", Server: "http://localhost:8080", Username: "admin", Role: "ADMIN"}
	require.NoError(t, s.Save(want))

	info, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	tok, err := s.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", tok)
}

func TestFileStoreMissingIsNoToken(t *testing.T) {
	s := NewFileStore(t.TempDir())
	_, err := s.Token(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestFileStoreEmptyTokenIsNoToken(t *testing.T) {
	s := NewFileStore(t.TempDir())
	require.NoError(t, s.Save(TokenData{Server: "http://x"}))
	_, err := s.Token(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestFileStoreCorrupt(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)
	require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), 0o600))
	_, err := s.Load()
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoToken))
}

func TestFileStoreClear(t *testing.T) {
	s := NewFileStore(t.TempDir())
	require.NoError(t, s.Save(TokenData{Token: "t"}))
	require.NoError(t, s.Clear())
	_, err := s.Load()
	assert.ErrorIs(t, err, ErrNoToken)
	assert.NoError(t, s.Clear(), "clearing twice")
}

func TestStatic(t *testing.T) {
	tok, err := Static("x").Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "x", tok)

	_, err = Static("").Token(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestChain(t *testing.T) {
	ctx := context.Background()

	tok, err := Chain(nil, Static(""), Static("second"), Static("third")).Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", tok)

	_, err = Chain(Static(""), Static("")).Token(ctx)
	assert.ErrorIs(t, err, ErrNoToken)

	boom := errors.New("boom")
	failing := StoreFunc(func(context.Context) (string, error) { return "", boom })
	_, err = Chain(failing, Static("later")).Token(ctx)
	assert.ErrorIs(t, err, boom)
}

func TestContextStore(t *testing.T) {
	store := FromContext()

	_, err := store.Token(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)

	ctx := WithToken(context.Background(), "  cookie-token ")
	tok, err := store.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "cookie-token", tok)
}
