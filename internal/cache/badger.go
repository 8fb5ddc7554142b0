package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// snapshotKey is the one key the slot ever uses.
var snapshotKey = []byte("feed:global")

// BadgerStore keeps the snapshot in a BadgerDB so it survives restarts of a
// single-instance deployment.
//
// Entries are written with a TTL equal to the cache window. The TTL is only
// housekeeping: expiry decisions stay with the Slot and its clock.
type BadgerStore struct {
	db  *badger.DB
	ttl time.Duration
}

// storedSnapshot is the JSON form of a Snapshot.
type storedSnapshot struct {
	Key      string    `json:"key"`
	Body     []byte    `json:"body"`
	StoredAt time.Time `json:"storedAt"`
}

// OpenBadgerStore opens (or creates) a Badger database in dir. An empty dir
// opens an in-memory database.
func OpenBadgerStore(dir string, ttl time.Duration) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("cache: opening badger at %q: %w", dir, err)
	}
	return &BadgerStore{db: db, ttl: ttl}, nil
}

func (b *BadgerStore) Load(_ context.Context) (Snapshot, bool, error) {
	var raw []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(snapshotKey)
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("cache: loading snapshot: %w", err)
	}

	var stored storedSnapshot
	if err := json.Unmarshal(raw, &stored); err != nil {
		return Snapshot{}, false, fmt.Errorf("cache: decoding snapshot: %w", err)
	}
	return Snapshot(stored), true, nil
}

func (b *BadgerStore) Save(_ context.Context, snap Snapshot) error {
	raw, err := json.Marshal(storedSnapshot(snap))
	if err != nil {
		return fmt.Errorf("cache: encoding snapshot: %w", err)
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(snapshotKey, raw)
		if b.ttl > 0 {
			entry = entry.WithTTL(b.ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("cache: saving snapshot: %w", err)
	}
	return nil
}

func (b *BadgerStore) Clear(_ context.Context) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(snapshotKey)
	})
	if err != nil {
		return fmt.Errorf("cache: clearing snapshot: %w", err)
	}
	return nil
}

// Close releases the database (and its directory lock).
func (b *BadgerStore) Close() error {
	return b.db.Close()
}
