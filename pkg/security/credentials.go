package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cuemby/towerctl/pkg/log"
	"github.com/cuemby/towerctl/pkg/storage"
	"github.com/cuemby/towerctl/pkg/types"
	"github.com/rs/zerolog"
)

// CredentialStore owns the generated platform credentials and the secret key.
// Credentials live in the record store; the secret key additionally lives in
// a plaintext file read by the platform itself.
type CredentialStore struct {
	store         storage.RecordStore
	secretKeyFile string

	newPassword  func() (string, error)
	newSecretKey func() (string, error)
	now          func() time.Time
	logger       zerolog.Logger
}

// NewCredentialStore creates a credential store backed by store, writing the
// secret key to secretKeyFile
func NewCredentialStore(store storage.RecordStore, secretKeyFile string) *CredentialStore {
	return &CredentialStore{
		store:         store,
		secretKeyFile: secretKeyFile,
		newPassword:   GeneratePassword,
		newSecretKey:  GenerateSecretKey,
		now:           time.Now,
		logger:        log.WithComponent("credentials"),
	}
}

// GetOrCreate returns the stored credential for role, generating and
// persisting one first if none exists. Repeated calls return the same
// credential until the record is destroyed.
func (cs *CredentialStore) GetOrCreate(role types.Role) (types.Credential, error) {
	if !role.Valid() {
		return types.Credential{}, fmt.Errorf("unknown credential role %q", role)
	}

	rec, err := cs.store.Get()
	if err != nil && !errors.Is(err, storage.ErrNoRecord) {
		return types.Credential{}, fmt.Errorf("failed to load credential record: %w", err)
	}
	if cred, ok := rec.Credential(role); ok {
		return cred, nil
	}

	var cred types.Credential
	err = cs.store.Update(func(rec *types.Record) error {
		// Re-check inside the transaction
		if existing, ok := rec.Credential(role); ok {
			cred = existing
			return nil
		}

		password, err := cs.newPassword()
		if err != nil {
			return err
		}
		cred = types.Credential{
			Role:      role,
			Username:  role.DefaultUsername(),
			Password:  password,
			CreatedAt: cs.now().UTC(),
		}
		if rec.Credentials == nil {
			rec.Credentials = make(map[types.Role]types.Credential)
		}
		rec.Credentials[role] = cred
		return nil
	})
	if err != nil {
		return types.Credential{}, fmt.Errorf("failed to create %s credential: %w", role, err)
	}

	cs.logger.Info().Str("role", string(role)).Msg("Generated credential")
	return cred, nil
}

// SecretKey returns the secret key held in the record store, or "" if none
func (cs *CredentialStore) SecretKey() (string, error) {
	rec, err := cs.store.Get()
	if errors.Is(err, storage.ErrNoRecord) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load credential record: %w", err)
	}
	return rec.SecretKey, nil
}

// ReadSecretKeyFile returns the content of the secret-key file. exists is
// false when the file is missing.
func (cs *CredentialStore) ReadSecretKeyFile() (key string, exists bool, err error) {
	data, err := os.ReadFile(cs.secretKeyFile)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read secret key file: %w", err)
	}
	return strings.TrimSpace(string(data)), true, nil
}

// ReconcileSecretKey makes the secret-key file and the record agree. A key
// already in the record is written out to the file. Otherwise a new key is
// generated, written, and the value read back from the file is stored in
// the record.
func (cs *CredentialStore) ReconcileSecretKey() (string, error) {
	stored, err := cs.SecretKey()
	if err != nil {
		return "", err
	}

	if stored != "" {
		if err := cs.writeSecretKeyFile(stored); err != nil {
			return "", err
		}
		cs.logger.Debug().Str("path", cs.secretKeyFile).Msg("Restored secret key file from record")
		return stored, nil
	}

	generated, err := cs.newSecretKey()
	if err != nil {
		return "", err
	}
	if err := cs.writeSecretKeyFile(generated); err != nil {
		return "", err
	}

	onFile, exists, err := cs.ReadSecretKeyFile()
	if err != nil {
		return "", err
	}
	if !exists || onFile == "" {
		return "", fmt.Errorf("secret key file %s is empty after write", cs.secretKeyFile)
	}

	err = cs.store.Update(func(rec *types.Record) error {
		rec.SecretKey = onFile
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to persist secret key: %w", err)
	}

	cs.logger.Info().Str("path", cs.secretKeyFile).Msg("Generated new secret key")
	return onFile, nil
}

// ClearSecretKey removes the secret key from the record so the next run
// classifies the host as not configured
func (cs *CredentialStore) ClearSecretKey() error {
	err := cs.store.Update(func(rec *types.Record) error {
		rec.SecretKey = ""
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to clear secret key: %w", err)
	}
	return nil
}

func (cs *CredentialStore) writeSecretKeyFile(key string) error {
	if err := os.MkdirAll(filepath.Dir(cs.secretKeyFile), 0755); err != nil {
		return fmt.Errorf("failed to create secret key directory: %w", err)
	}
	if err := os.WriteFile(cs.secretKeyFile, []byte(key), 0600); err != nil {
		return fmt.Errorf("failed to write secret key file: %w", err)
	}
	return nil
}
