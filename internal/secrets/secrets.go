// Package secrets finds the API token for a provider. Tokens can live in the
// settings record, in the OS keyring, or in the environment.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/99designs/keyring"
)

const (
	Service = "notemeta"

	// EnvPrefix is the environment fallback. NOTEMETA_TOKEN_<PROVIDER> wins
	// over the bare NOTEMETA_TOKEN.
	EnvPrefix = "NOTEMETA_TOKEN"

	// placeholder is the token default records ship with.
	placeholder = "sk-"
)

// Source names where a token came from.
type Source string

const (
	FromSettings Source = "settings"
	FromKeyring  Source = "keyring"
	FromEnv      Source = "env"
	None         Source = ""
)

var ErrNoKeyring = errors.New("no OS keyring available")

// Tokens resolves provider tokens. The zero value consults only settings and
// the real environment.
type Tokens struct {
	ring   keyring.Keyring
	getenv func(string) string
}

// New returns Tokens backed by ring, which may be nil. A nil getenv means
// os.Getenv.
func New(ring keyring.Keyring, getenv func(string) string) *Tokens {
	return &Tokens{ring: ring, getenv: getenv}
}

// OpenKeyring opens the platform keyring for the notemeta service.
func OpenKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: Service,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.WinCredBackend,
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
		},
		KeychainTrustApplication: true,
		LibSecretCollectionName:  "login",
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoKeyring, err)
	}
	return ring, nil
}

// Resolve returns the token to send for providerID. configured is the token
// stored in settings; it is used unless empty or the shipped placeholder.
func (t *Tokens) Resolve(providerID, configured string) (string, Source) {
	if configured = strings.TrimSpace(configured); configured != "" && configured != placeholder {
		return configured, FromSettings
	}

	if t != nil && t.ring != nil {
		if item, err := t.ring.Get(providerID); err == nil && len(item.Data) > 0 {
			return string(item.Data), FromKeyring
		}
	}

	for _, name := range []string{EnvName(providerID), EnvPrefix} {
		if v := strings.TrimSpace(t.env(name)); v != "" {
			return v, FromEnv
		}
	}

	return configured, None
}

// Set stores token for providerID in the keyring.
func (t *Tokens) Set(providerID, token string) error {
	if providerID == "" {
		return errors.New("provider is required")
	}
	if token = strings.TrimSpace(token); token == "" {
		return errors.New("token is empty")
	}
	if t == nil || t.ring == nil {
		return ErrNoKeyring
	}
	return t.ring.Set(keyring.Item{
		Key:         providerID,
		Data:        []byte(token),
		Label:       "notemeta " + providerID + " token",
		Description: "API token for the " + providerID + " LLM provider",
	})
}

// Delete removes the keyring entry for providerID. Deleting a missing entry
// is not an error.
func (t *Tokens) Delete(providerID string) error {
	if t == nil || t.ring == nil {
		return ErrNoKeyring
	}
	if err := t.ring.Remove(providerID); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return err
	}
	return nil
}

// Stored lists the provider ids that have a keyring entry.
func (t *Tokens) Stored() ([]string, error) {
	if t == nil || t.ring == nil {
		return nil, ErrNoKeyring
	}
	return t.ring.Keys()
}

func (t *Tokens) env(name string) string {
	if t != nil && t.getenv != nil {
		return t.getenv(name)
	}
	return os.Getenv(name)
}

// EnvName returns the provider-specific environment variable name.
func EnvName(providerID string) string {
	var b strings.Builder
	b.WriteString(EnvPrefix + "_")
	for _, r := range strings.ToUpper(providerID) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
