package inventory

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cuemby/towerctl/pkg/config"
	"github.com/cuemby/towerctl/pkg/log"
	"github.com/cuemby/towerctl/pkg/types"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// CredentialSource resolves role credentials, creating them when missing
type CredentialSource interface {
	GetOrCreate(role types.Role) (types.Credential, error)
}

// Composer builds the installer inventory from current credentials and the
// database connection parameters
type Composer struct {
	creds    CredentialSource
	database config.DatabaseConfig

	// TempDir is where transient inventory files are created. Empty means
	// the OS default.
	TempDir string

	logger zerolog.Logger
}

// NewComposer creates a composer. A blank database host or zero port fall
// back to localhost:5432.
func NewComposer(creds CredentialSource, database config.DatabaseConfig) *Composer {
	if database.Host == "" {
		database.Host = "localhost"
	}
	if database.Port == 0 {
		database.Port = 5432
	}
	return &Composer{
		creds:    creds,
		database: database,
		logger:   log.WithComponent("inventory"),
	}
}

// Compose builds the inventory document
func (c *Composer) Compose() (*Document, error) {
	resolved := make(map[types.Role]types.Credential, len(types.Roles))
	for _, role := range types.Roles {
		cred, err := c.creds.GetOrCreate(role)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s credential: %w", role, err)
		}
		resolved[role] = cred
	}

	admin := resolved[types.RoleAdmin]
	db := resolved[types.RoleDatabase]
	broker := resolved[types.RoleMessageBroker]

	return &Document{
		All: Group{
			Children: map[string]Group{
				platformGroup: {
					Hosts: map[string]HostVars{
						"localhost": {"ansible_connection": "local"},
					},
				},
				databaseGroup: {},
			},
			Vars: &Vars{
				AdminPassword: admin.Password,

				PGHost:     c.database.Host,
				PGPort:     c.database.Port,
				PGDatabase: DatabaseName,
				PGUsername: db.Username,
				PGPassword: db.Password,

				RabbitMQPort:          BrokerPort,
				RabbitMQVHost:         BrokerVHost,
				RabbitMQUsername:      broker.Username,
				RabbitMQPassword:      broker.Password,
				RabbitMQCookie:        BrokerCookie,
				RabbitMQUseLongName:   false,
				RabbitMQEnableManager: false,
			},
		},
	}, nil
}

// Render serializes the inventory to YAML
func (d *Document) Render() ([]byte, error) {
	data, err := yaml.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to render inventory: %w", err)
	}
	return data, nil
}

// WithTransient composes the inventory, writes it to a private temporary
// file and calls fn with the file's path. The file holds plaintext
// passwords; it is overwritten and removed before WithTransient returns,
// whether or not fn succeeds.
func (c *Composer) WithTransient(fn func(path string) error) (err error) {
	doc, err := c.Compose()
	if err != nil {
		return err
	}
	data, err := doc.Render()
	if err != nil {
		return err
	}

	f, err := os.CreateTemp(c.TempDir, "towerctl-inventory-*.yml")
	if err != nil {
		return fmt.Errorf("failed to create inventory file: %w", err)
	}
	path := f.Name()

	defer func() {
		if rmErr := secureRemove(path); rmErr != nil {
			c.logger.Error().Err(rmErr).Str("path", path).Msg("Failed to remove inventory file")
			err = errors.Join(err, rmErr)
		}
	}()

	if err := f.Chmod(0600); err != nil {
		f.Close()
		return fmt.Errorf("failed to restrict inventory file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write inventory file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close inventory file: %w", err)
	}

	c.logger.Debug().Str("path", path).Msg("Wrote transient inventory")
	return fn(path)
}

// secureRemove zeroes a file's contents before unlinking it
func secureRemove(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open %s for wiping: %w", path, err)
	}

	info, err := f.Stat()
	if err == nil {
		_, err = io.CopyN(f, zeroReader{}, info.Size())
	}
	if err == nil {
		err = f.Sync()
	}
	closeErr := f.Close()

	if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", path, rmErr)
	}
	if err != nil {
		return fmt.Errorf("failed to wipe %s: %w", path, err)
	}
	return closeErr
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}
