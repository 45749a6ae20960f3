// Package tokenstore persists the single access token netmoya keeps between
// runs. The system keyring is preferred; a TOML file is the fallback.
package tokenstore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/zalando/go-keyring"

	"github.com/five82/netmoya/internal/config"
)

const (
	// ServiceName is the keyring service entries are stored under.
	ServiceName = "netmoya"
	// TokenKey names the persisted access token.
	TokenKey = "accessToken"
)

// Store loads, saves and clears the persisted access token.
type Store interface {
	Load() (string, bool, error)
	Save(token string) error
	Clear() error
}

var (
	_ Store = (*KeyringStore)(nil)
	_ Store = (*FileStore)(nil)
)

// KeyringStore keeps the token in the OS keyring.
type KeyringStore struct {
	service string
}

// NewKeyringStore returns a keyring-backed store.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{service: ServiceName}
}

// Load returns the stored token, if any.
func (k *KeyringStore) Load() (string, bool, error) {
	token, err := keyring.Get(k.service, TokenKey)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read keyring: %w", err)
	}
	if strings.TrimSpace(token) == "" {
		return "", false, nil
	}
	return token, true, nil
}

// Save stores token.
func (k *KeyringStore) Save(token string) error {
	if err := keyring.Set(k.service, TokenKey, token); err != nil {
		return fmt.Errorf("write keyring: %w", err)
	}
	return nil
}

// Clear removes the token. A missing entry is not an error.
func (k *KeyringStore) Clear() error {
	if err := keyring.Delete(k.service, TokenKey); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("delete keyring entry: %w", err)
	}
	return nil
}

// FileStore keeps the token in a 0600 TOML file.
type FileStore struct {
	path string
}

type tokenFile struct {
	AccessToken string `toml:"access_token"`
}

// NewFileStore returns a file-backed store at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the file the token is written to.
func (f *FileStore) Path() string {
	return f.path
}

// Load reads the token. Missing, unreadable or malformed files read as "no token".
func (f *FileStore) Load() (string, bool, error) {
	resolved, err := config.ExpandPath(f.path)
	if err != nil {
		return "", false, nil
	}

	file, err := os.Open(resolved)
	if err != nil {
		return "", false, nil // Graceful degradation
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return "", false, nil // Graceful degradation
	}

	var stored tokenFile
	if err := toml.Unmarshal(bytes, &stored); err != nil {
		return "", false, nil // Graceful degradation
	}

	token := strings.TrimSpace(stored.AccessToken)
	if token == "" {
		return "", false, nil
	}
	return token, true, nil
}

// Save writes token, creating directories as needed.
func (f *FileStore) Save(token string) error {
	resolved, err := config.ExpandPath(f.path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}

	bytes, err := toml.Marshal(tokenFile{AccessToken: token})
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}

// Clear deletes the token file. A missing file is not an error.
func (f *FileStore) Clear() error {
	resolved, err := config.ExpandPath(f.path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if err := os.Remove(resolved); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}

// Open picks the keyring when preferKeyring is set and the keyring answers,
// otherwise the file store at path.
func Open(preferKeyring bool, path string) Store {
	if preferKeyring {
		k := NewKeyringStore()
		if _, _, err := k.Load(); err == nil {
			return k
		}
	}
	return NewFileStore(path)
}
