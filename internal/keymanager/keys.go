package keymanager

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// MinSecretLen is the shortest accepted HS256 secret.
const MinSecretLen = 32

var (
	ErrNoKeys       = errors.New("the keyring has no keys")
	ErrUnknownKey   = errors.New("unknown key id")
	ErrShortSecret  = errors.New("token secret is shorter than 32 bytes")
	ErrNoActiveKey  = errors.New("the active key is not in the keyring")
	ErrDuplicateKey = errors.New("duplicate key id in the keyring")
)

type SigningKey struct {
	ID     string
	Secret []byte
}

// KeyManager holds the token signing secrets. New tokens are signed with the active key,
// tokens signed with any key of the ring are accepted, so secrets can be rotated
// without invalidating tokens already handed out.
type KeyManager struct {
	logger *zap.Logger
	active string
	keys   map[string][]byte
}

type keyringFile struct {
	Active string `yaml:"active"`
	Keys   []struct {
		ID     string `yaml:"id"`
		Secret string `yaml:"secret"`
	} `yaml:"keys"`
}

func NewKeyManager(logger *zap.Logger, active string, keys ...SigningKey) (KeyManager, error) {
	if len(keys) == 0 {
		return KeyManager{}, ErrNoKeys
	}

	ring := make(map[string][]byte, len(keys))
	for _, key := range keys {
		if len(key.Secret) < MinSecretLen {
			return KeyManager{}, fmt.Errorf("key %q: %w", key.ID, ErrShortSecret)
		}
		if _, ok := ring[key.ID]; ok {
			return KeyManager{}, fmt.Errorf("key %q: %w", key.ID, ErrDuplicateKey)
		}
		secret := make([]byte, len(key.Secret))
		copy(secret, key.Secret)
		ring[key.ID] = secret
	}

	if _, ok := ring[active]; !ok {
		return KeyManager{}, ErrNoActiveKey
	}

	logger.Info("token keyring loaded", zap.String("activeKey", active), zap.Int("keys", len(ring)))

	return KeyManager{
		logger: logger,
		active: active,
		keys:   ring,
	}, nil
}

// LoadKeyring reads a YAML keyring:
//
//	active: k2
//	keys:
//	  - id: k1
//	    secret: "..."
//	  - id: k2
//	    secret: "..."
func LoadKeyring(logger *zap.Logger, path string) (KeyManager, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return KeyManager{}, errors.New("failed to read the keyring: " + err.Error())
	}

	var file keyringFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return KeyManager{}, errors.New("failed to parse the keyring: " + err.Error())
	}

	keys := make([]SigningKey, len(file.Keys))
	for i, k := range file.Keys {
		keys[i] = SigningKey{ID: k.ID, Secret: []byte(k.Secret)}
	}

	active := file.Active
	if active == "" && len(keys) == 1 {
		active = keys[0].ID
	}

	return NewKeyManager(logger, active, keys...)
}

// Active returns the key new tokens are signed with.
func (k KeyManager) Active() SigningKey {
	return SigningKey{ID: k.active, Secret: k.keys[k.active]}
}

// Get returns the secret for a key id taken from a token header.
func (k KeyManager) Get(id string) ([]byte, error) {
	secret, ok := k.keys[id]
	if !ok {
		return nil, ErrUnknownKey
	}
	return secret, nil
}
