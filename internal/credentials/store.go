// Package credentials supplies the bearer token used for Stats API requests.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const tokenFile = "token"

// ErrNoToken reports that a store holds no credential. Callers that must
// still issue the request treat it as an empty token.
var ErrNoToken = errors.New("no stored token")

// Store returns the current bearer token. It is read at request time, never cached.
type Store interface {
	Token(ctx context.Context) (string, error)
}

// StoreFunc adapts a function to Store.
type StoreFunc func(ctx context.Context) (string, error)

func (f StoreFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// TokenData is what login persists.
type TokenData struct {
	Token    string `json:"token"`
	Server   string `json:"server"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
}

// FileStore keeps the token in <Dir>/token with 0600 permissions.
type FileStore struct {
	Dir string
}

// NewFileStore returns a store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

// Path returns the token file location.
func (s *FileStore) Path() string {
	return filepath.Join(s.Dir, tokenFile)
}

// Save persists the token, creating the directory with 0700 if needed.
func (s *FileStore) Save(data TokenData) error {
	if err := os.MkdirAll(s.Dir, 0o700); err != nil {
		return fmt.Errorf("cannot create config directory %s: %w", s.Dir, err)
	}

	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("cannot marshal token data: %w", err)
	}

	path := s.Path()
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("cannot write token file %s: %w", path, err)
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(path, 0o600); err != nil {
		return fmt.Errorf("cannot restrict token file %s: %w", path, err)
	}
	return nil
}

// Load reads the stored token data. A missing file or empty token yields ErrNoToken.
func (s *FileStore) Load() (TokenData, error) {
	b, err := os.ReadFile(s.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return TokenData{}, ErrNoToken
		}
		return TokenData{}, fmt.Errorf("cannot read token file: %w", err)
	}

	var data TokenData
	if err := json.Unmarshal(b, &data); err != nil {
		return TokenData{}, fmt.Errorf("corrupt token file: %w", err)
	}
	if data.Token == "" {
		return data, ErrNoToken
	}
	return data, nil
}

// Token implements Store.
func (s *FileStore) Token(context.Context) (string, error) {
	data, err := s.Load()
	if err != nil {
		return "", err
	}
	return data.Token, nil
}

// Clear removes the token file. Clearing an absent file is not an error.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("cannot remove token file: %w", err)
	}
	return nil
}

// Static always returns the same token; empty means ErrNoToken.
func Static(token string) Store {
	return StoreFunc(func(context.Context) (string, error) {
		if token == "" {
			return "", ErrNoToken
		}
		return token, nil
	})
}

// Chain returns the first token found. ErrNoToken from a store moves on to the
// next; any other error stops the chain.
func Chain(stores ...Store) Store {
	return StoreFunc(func(ctx context.Context) (string, error) {
		for _, s := range stores {
			if s == nil {
				continue
			}
			tok, err := s.Token(ctx)
			if errors.Is(err, ErrNoToken) {
				continue
			}
			if err != nil {
				return "", err
			}
			if tok != "" {
				return tok, nil
			}
		}
		return "", ErrNoToken
	})
}

type ctxKey struct{}

// WithToken attaches a request-scoped token to ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ctxKey{}, strings.TrimSpace(token))
}

// FromContext reads the token attached by WithToken.
func FromContext() Store {
	return StoreFunc(func(ctx context.Context) (string, error) {
		tok, _ := ctx.Value(ctxKey{}).(string)
		if tok == "" {
			return "", ErrNoToken
		}
		return tok, nil
	})
}
