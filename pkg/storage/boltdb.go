package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cuemby/towerctl/pkg/types"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketCredentials = []byte("credentials")

	// recordKey is the single key under which the host's record is stored
	recordKey = []byte("record")
)

// BoltStore implements RecordStore using BoltDB
type BoltStore struct {
	db  *bolt.DB
	now func() time.Time
}

// NewBoltStore opens (creating if needed) the record database at path
func NewBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketCredentials); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketCredentials, err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db, now: time.Now}, nil
}

// Close closes the database
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) Get() (*types.Record, error) {
	var rec types.Record
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketCredentials).Get(recordKey)
		if data == nil {
			return ErrNoRecord
		}
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *BoltStore) Update(fn func(rec *types.Record) error) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCredentials)

		var rec types.Record
		if data := b.Get(recordKey); data != nil {
			if err := json.Unmarshal(data, &rec); err != nil {
				return fmt.Errorf("failed to decode record: %w", err)
			}
		} else {
			rec.CreatedAt = s.now().UTC()
		}

		if err := fn(&rec); err != nil {
			return err
		}
		rec.UpdatedAt = s.now().UTC()

		data, err := json.Marshal(&rec)
		if err != nil {
			return err
		}
		return b.Put(recordKey, data)
	})
}

func (s *BoltStore) Delete() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketCredentials).Delete(recordKey)
	})
}
