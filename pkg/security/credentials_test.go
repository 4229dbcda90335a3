package security

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cuemby/towerctl/pkg/storage"
	"github.com/cuemby/towerctl/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCredentialStore(t *testing.T) (*CredentialStore, *storage.BoltStore, string) {
	t.Helper()
	dir := t.TempDir()

	store, err := storage.NewBoltStore(filepath.Join(dir, "towerctl.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	keyFile := filepath.Join(dir, "etc", "tower", "SECRET_KEY")
	return NewCredentialStore(store, keyFile), store, keyFile
}

func TestGetOrCreate_Stable(t *testing.T) {
	cs, _, _ := newTestCredentialStore(t)

	for _, role := range types.Roles {
		t.Run(string(role), func(t *testing.T) {
			first, err := cs.GetOrCreate(role)
			require.NoError(t, err)
			second, err := cs.GetOrCreate(role)
			require.NoError(t, err)

			assert.Equal(t, first, second)
			assert.Equal(t, role, first.Role)
			assert.Equal(t, role.DefaultUsername(), first.Username)
			assert.NotEmpty(t, first.Password)
		})
	}
}

func TestGetOrCreate_GeneratesOncePerRole(t *testing.T) {
	cs, _, _ := newTestCredentialStore(t)

	calls := 0
	cs.newPassword = func() (string, error) {
		calls++
		return "pw-" + string(rune('a'+calls)), nil
	}

	for i := 0; i < 3; i++ {
		_, err := cs.GetOrCreate(types.RoleAdmin)
		require.NoError(t, err)
	}
	_, err := cs.GetOrCreate(types.RoleDatabase)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}

func TestGetOrCreate_DistinctPerRole(t *testing.T) {
	cs, _, _ := newTestCredentialStore(t)

	admin, err := cs.GetOrCreate(types.RoleAdmin)
	require.NoError(t, err)
	broker, err := cs.GetOrCreate(types.RoleMessageBroker)
	require.NoError(t, err)

	assert.NotEqual(t, admin.Password, broker.Password)
}

func TestGetOrCreate_RegeneratesAfterRecordCleared(t *testing.T) {
	cs, store, _ := newTestCredentialStore(t)

	first, err := cs.GetOrCreate(types.RoleAdmin)
	require.NoError(t, err)
	require.NoError(t, store.Delete())

	second, err := cs.GetOrCreate(types.RoleAdmin)
	require.NoError(t, err)
	assert.NotEqual(t, first.Password, second.Password)
}

func TestGetOrCreate_UnknownRole(t *testing.T) {
	cs, _, _ := newTestCredentialStore(t)

	_, err := cs.GetOrCreate(types.Role("root"))
	assert.Error(t, err)
}

func TestReconcileSecretKey_GeneratesWhenRecordEmpty(t *testing.T) {
	cs, _, keyFile := newTestCredentialStore(t)
	cs.newSecretKey = func() (string, error) { return "0123456789abcdef", nil }

	key, err := cs.ReconcileSecretKey()
	require.NoError(t, err)
	assert.Equal(t, "0123456789abcdef", key)

	data, err := os.ReadFile(keyFile)
	require.NoError(t, err)
	assert.Equal(t, "0123456789abcdef", string(data))

	stored, err := cs.SecretKey()
	require.NoError(t, err)
	assert.Equal(t, string(data), stored)

	info, err := os.Stat(keyFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestReconcileSecretKey_RestoresFileFromRecord(t *testing.T) {
	cs, store, _ := newTestCredentialStore(t)
	require.NoError(t, store.Update(func(rec *types.Record) error {
		rec.SecretKey = "from-record"
		return nil
	}))
	cs.newSecretKey = func() (string, error) {
		t.Fatal("secret key must not be regenerated when one is stored")
		return "", nil
	}

	key, err := cs.ReconcileSecretKey()
	require.NoError(t, err)
	assert.Equal(t, "from-record", key)

	onFile, exists, err := cs.ReadSecretKeyFile()
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, "from-record", onFile)
}

func TestReconcileSecretKey_OverwritesDriftedFile(t *testing.T) {
	cs, store, keyFile := newTestCredentialStore(t)
	require.NoError(t, store.Update(func(rec *types.Record) error {
		rec.SecretKey = "authoritative"
		return nil
	}))
	require.NoError(t, os.MkdirAll(filepath.Dir(keyFile), 0755))
	require.NoError(t, os.WriteFile(keyFile, []byte("drifted\n"), 0600))

	_, err := cs.ReconcileSecretKey()
	require.NoError(t, err)

	onFile, _, err := cs.ReadSecretKeyFile()
	require.NoError(t, err)
	assert.Equal(t, "authoritative", onFile)
}

func TestClearSecretKey(t *testing.T) {
	cs, _, _ := newTestCredentialStore(t)

	_, err := cs.ReconcileSecretKey()
	require.NoError(t, err)
	admin, err := cs.GetOrCreate(types.RoleAdmin)
	require.NoError(t, err)

	require.NoError(t, cs.ClearSecretKey())

	key, err := cs.SecretKey()
	require.NoError(t, err)
	assert.Empty(t, key)

	// Role credentials survive a secret key rollback
	again, err := cs.GetOrCreate(types.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, admin, again)
}

func TestReadSecretKeyFile_Missing(t *testing.T) {
	cs, _, _ := newTestCredentialStore(t)

	key, exists, err := cs.ReadSecretKeyFile()
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Empty(t, key)
}
