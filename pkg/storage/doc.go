/*
Package storage persists the host's credential record in BoltDB.

There is exactly one record per host. It holds the platform secret key and
the generated admin, message-broker and database credentials:

	┌──────────────── <data_dir>/towerctl.db ────────────────┐
	│  bucket "credentials"                                  │
	│    "record" → JSON(types.Record)                       │
	│       secret_key                                       │
	│       credentials: {admin, message-broker, database}   │
	│       created_at / updated_at                          │
	└────────────────────────────────────────────────────────┘

The database is opened with mode 0600 and a five second lock timeout, so a
second towerctl started while the first still holds the file fails fast
instead of hanging. This is not a substitute for the caller serializing
invocations; it only protects the file itself.

# Usage

	store, err := storage.NewBoltStore(cfg.RecordDBPath())
	if err != nil {
		return err
	}
	defer store.Close()

	err = store.Update(func(rec *types.Record) error {
		rec.SecretKey = key
		return nil
	})

Update runs fn inside a read-write transaction; if fn returns an error
nothing is written. Callers that only read use Get, which returns
ErrNoRecord for a host that has never been configured.
*/
package storage
