package keymanager_test

import (
	"os"
	"path/filepath"
	"testing"

	"causeway/internal/keymanager"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	secret1 = "0123456789abcdef0123456789abcdef-one"
	secret2 = "0123456789abcdef0123456789abcdef-two"
)

func TestNewKeyManager(t *testing.T) {
	manager, err := keymanager.NewKeyManager(zap.NewNop(), "k2",
		keymanager.SigningKey{ID: "k1", Secret: []byte(secret1)},
		keymanager.SigningKey{ID: "k2", Secret: []byte(secret2)},
	)
	require.NoError(t, err)

	assert.Equal(t, "k2", manager.Active().ID)
	assert.Equal(t, []byte(secret2), manager.Active().Secret)

	old, err := manager.Get("k1")
	require.NoError(t, err)
	assert.Equal(t, []byte(secret1), old)

	_, err = manager.Get("k3")
	assert.ErrorIs(t, err, keymanager.ErrUnknownKey)
}

func TestNewKeyManagerRejects(t *testing.T) {
	_, err := keymanager.NewKeyManager(zap.NewNop(), "k1")
	assert.ErrorIs(t, err, keymanager.ErrNoKeys)

	_, err = keymanager.NewKeyManager(zap.NewNop(), "k1", keymanager.SigningKey{ID: "k1", Secret: []byte("short")})
	assert.ErrorIs(t, err, keymanager.ErrShortSecret)

	_, err = keymanager.NewKeyManager(zap.NewNop(), "k9", keymanager.SigningKey{ID: "k1", Secret: []byte(secret1)})
	assert.ErrorIs(t, err, keymanager.ErrNoActiveKey)

	_, err = keymanager.NewKeyManager(zap.NewNop(), "k1",
		keymanager.SigningKey{ID: "k1", Secret: []byte(secret1)},
		keymanager.SigningKey{ID: "k1", Secret: []byte(secret2)},
	)
	assert.ErrorIs(t, err, keymanager.ErrDuplicateKey)
}

func TestLoadKeyring(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keyring.yaml")
	content := "active: k2\nkeys:\n  - id: k1\n    secret: \"" + secret1 + "\"\n  - id: k2\n    secret: \"" + secret2 + "\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	manager, err := keymanager.LoadKeyring(zap.NewNop(), path)
	require.NoError(t, err)
	assert.Equal(t, "k2", manager.Active().ID)

	_, err = manager.Get("k1")
	assert.NoError(t, err)
}

func TestLoadKeyringSingleKeyDefaultsActive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keyring.yaml")
	content := "keys:\n  - id: only\n    secret: \"" + secret1 + "\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	manager, err := keymanager.LoadKeyring(zap.NewNop(), path)
	require.NoError(t, err)
	assert.Equal(t, "only", manager.Active().ID)
}

func TestLoadKeyringMissingFile(t *testing.T) {
	_, err := keymanager.LoadKeyring(zap.NewNop(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
