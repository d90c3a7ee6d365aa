// Package creds keeps remote store connection strings out of flags and shell
// history. Entries live in the OS keyring, or in 0600 files under the user's
// home when no keyring is reachable.
package creds

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService is the service name for keyring storage
	KeyringService = "labscrape"
	// FallbackDir holds credential files when the keyring fails, relative to home
	FallbackDir = ".labscrape/creds"

	// DefaultName is the entry used by transfer when no name is given
	DefaultName = "remote"

	manifestKey = "_manifest"
)

// ErrNotFound is returned when no credential exists under a name
var ErrNotFound = errors.New("credential not found")

// Credential is a stored remote store connection string
type Credential struct {
	Name      string    `json:"name"`
	DSN       string    `json:"dsn"`
	CreatedAt time.Time `json:"created_at"`
}

// Vault reads and writes credentials
type Vault struct {
	dir      string
	fileOnly bool
}

// NewVault picks the keyring when it accepts a test write, else files under
// the home directory. CI and Codespaces always use files.
func NewVault() (*Vault, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &Vault{dir: filepath.Join(home, FallbackDir), fileOnly: !keyringUsable()}, nil
}

// NewFileVault stores credentials as files in dir
func NewFileVault(dir string) *Vault {
	return &Vault{dir: dir, fileOnly: true}
}

func keyringUsable() bool {
	if os.Getenv("CODESPACES") != "" || os.Getenv("CI") != "" {
		return false
	}
	testKey := "_test_keyring_access_"
	if err := keyring.Set(KeyringService, testKey, "test"); err != nil {
		return false
	}
	keyring.Delete(KeyringService, testKey)
	return true
}

// Backend names where credentials are kept
func (v *Vault) Backend() string {
	if v.fileOnly {
		return "file:" + v.dir
	}
	return "keyring:" + KeyringService
}

func (v *Vault) path(name string) (string, error) {
	if err := os.MkdirAll(v.dir, 0700); err != nil {
		return "", err
	}
	return filepath.Join(v.dir, name+".json"), nil
}

func validName(name string) error {
	if name == "" {
		return fmt.Errorf("credential name cannot be empty")
	}
	if name == manifestKey || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid credential name %q", name)
	}
	return nil
}

// Save stores c, replacing any entry of the same name
func (v *Vault) Save(c *Credential) error {
	if err := validName(c.Name); err != nil {
		return err
	}
	if c.DSN == "" {
		return fmt.Errorf("credential %q has no connection string", c.Name)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to serialize credential: %w", err)
	}

	if v.fileOnly {
		path, err := v.path(c.Name)
		if err != nil {
			return fmt.Errorf("failed to get credential path: %w", err)
		}
		if err := os.WriteFile(path, data, 0600); err != nil {
			return fmt.Errorf("failed to save credential file: %w", err)
		}
		return nil
	}

	if err := keyring.Set(KeyringService, c.Name, string(data)); err != nil {
		return fmt.Errorf("failed to save to keyring: %w", err)
	}
	return v.updateManifest(c.Name, true)
}

// Load returns the credential stored under name
func (v *Vault) Load(name string) (*Credential, error) {
	if err := validName(name); err != nil {
		return nil, err
	}

	var data string
	if v.fileOnly {
		path, err := v.path(name)
		if err != nil {
			return nil, fmt.Errorf("failed to get credential path: %w", err)
		}
		b, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load credential file: %w", err)
		}
		data = string(b)
	} else {
		var err error
		data, err = keyring.Get(KeyringService, name)
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load from keyring: %w", err)
		}
	}

	var c Credential
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return nil, fmt.Errorf("failed to deserialize credential: %w", err)
	}
	return &c, nil
}

// Delete removes the credential stored under name. Removing a missing entry
// is not an error.
func (v *Vault) Delete(name string) error {
	if err := validName(name); err != nil {
		return err
	}

	if v.fileOnly {
		path, err := v.path(name)
		if err != nil {
			return fmt.Errorf("failed to get credential path: %w", err)
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete credential file: %w", err)
		}
		return nil
	}

	if err := keyring.Delete(KeyringService, name); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return v.updateManifest(name, false)
}

// List returns the stored credential names, sorted
func (v *Vault) List() ([]string, error) {
	if v.fileOnly {
		entries, err := os.ReadDir(v.dir)
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		if err != nil {
			return nil, err
		}
		names := []string{}
		for _, entry := range entries {
			if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
				names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
			}
		}
		slices.Sort(names)
		return names, nil
	}

	// the keyring cannot enumerate, so names are tracked in a manifest entry
	data, err := keyring.Get(KeyringService, manifestKey)
	if err != nil {
		return []string{}, nil
	}
	var names []string
	if err := json.Unmarshal([]byte(data), &names); err != nil {
		return nil, fmt.Errorf("failed to deserialize manifest: %w", err)
	}
	slices.Sort(names)
	return names, nil
}

func (v *Vault) updateManifest(name string, add bool) error {
	names, _ := v.List()
	names = slices.DeleteFunc(names, func(n string) bool { return n == name })
	if add {
		names = append(names, name)
	}

	data, err := json.Marshal(names)
	if err != nil {
		return err
	}
	return keyring.Set(KeyringService, manifestKey, string(data))
}
