// Package store persists session snapshots in a bbolt database, see
// [session.SnapshotStore].
package store

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/joeycumines/logiface"
	bolt "go.etcd.io/bbolt"

	"github.com/joeycumines/go-browsersession/session"
)

var (
	// ErrClosed is returned by operations on a closed [Store].
	ErrClosed = errors.New(`store: closed`)

	// ErrNotFound is returned by [Store.Get] for unknown IDs.
	ErrNotFound = errors.New(`store: snapshot not found`)
)

var bucketSessions = []byte(`sessions`)

// Store is a [session.SnapshotStore] backed by a single bbolt file. Writes
// from concurrent callers are coalesced into shared transactions.
type Store struct {
	db     *bolt.DB
	logger *logiface.Logger[logiface.Event]
}

var _ session.SnapshotStore = (*Store)(nil)

// Open opens, or creates, the database at path.
func Open(path string, opts ...Option) (*Store, error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	db, err := bolt.Open(path, cfg.mode, &bolt.Options{Timeout: cfg.timeout})
	if err != nil {
		return nil, fmt.Errorf(`store: open %s: %w`, path, err)
	}
	if cfg.maxBatchDelay > 0 {
		db.MaxBatchDelay = cfg.maxBatchDelay
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSessions)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf(`store: init %s: %w`, path, err)
	}

	return &Store{db: db, logger: cfg.logger}, nil
}

// Close releases the database file.
func (x *Store) Close() error {
	return x.db.Close()
}

func (x *Store) update(ctx context.Context, fn func(b *bolt.Bucket) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := x.db.Batch(func(tx *bolt.Tx) error {
		return fn(tx.Bucket(bucketSessions))
	})
	if errors.Is(err, bolt.ErrDatabaseNotOpen) {
		return ErrClosed
	}
	return err
}

func (x *Store) view(ctx context.Context, fn func(b *bolt.Bucket) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := x.db.View(func(tx *bolt.Tx) error {
		return fn(tx.Bucket(bucketSessions))
	})
	if errors.Is(err, bolt.ErrDatabaseNotOpen) {
		return ErrClosed
	}
	return err
}

// Put inserts or replaces the snapshot stored under its ID.
func (x *Store) Put(ctx context.Context, snapshot session.Snapshot) error {
	if snapshot.ID == `` {
		return errors.New(`store: snapshot without id`)
	}
	value, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf(`store: encode %s: %w`, snapshot.ID, err)
	}
	return x.update(ctx, func(b *bolt.Bucket) error {
		return b.Put([]byte(snapshot.ID), value)
	})
}

// Get returns the snapshot stored under id, or [ErrNotFound].
func (x *Store) Get(ctx context.Context, id string) (snapshot session.Snapshot, err error) {
	err = x.view(ctx, func(b *bolt.Bucket) error {
		value := b.Get([]byte(id))
		if value == nil {
			return ErrNotFound
		}
		return json.Unmarshal(value, &snapshot)
	})
	return
}

// Delete removes the snapshot stored under id, unknown IDs are ignored.
func (x *Store) Delete(ctx context.Context, id string) error {
	return x.update(ctx, func(b *bolt.Bucket) error {
		return b.Delete([]byte(id))
	})
}

// List returns every snapshot, most recently used first. Entries that fail to
// decode are logged and skipped.
func (x *Store) List(ctx context.Context) ([]session.Snapshot, error) {
	var snapshots []session.Snapshot
	err := x.view(ctx, func(b *bolt.Bucket) error {
		return b.ForEach(func(k, v []byte) error {
			var snapshot session.Snapshot
			if err := json.Unmarshal(v, &snapshot); err != nil {
				x.logger.Warning().
					Str(`key`, string(k)).
					Err(err).
					Log(`skipping malformed snapshot`)
				return nil
			}
			if snapshot.ID == `` {
				snapshot.ID = string(k)
			}
			snapshots = append(snapshots, snapshot)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(snapshots, func(a, b session.Snapshot) int {
		if c := b.LastUse.Compare(a.LastUse); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return snapshots, nil
}

// Prune deletes snapshots unused since before, returning how many it removed.
func (x *Store) Prune(ctx context.Context, before time.Time) (n int, err error) {
	err = x.update(ctx, func(b *bolt.Bucket) error {
		n = 0
		var stale [][]byte
		if err := b.ForEach(func(k, v []byte) error {
			var snapshot session.Snapshot
			if err := json.Unmarshal(v, &snapshot); err != nil || snapshot.LastUse.Before(before) {
				stale = append(stale, slices.Clone(k))
			}
			return nil
		}); err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		n = len(stale)
		return nil
	})
	if err == nil && n != 0 {
		x.logger.Debug().Int(`count`, n).Log(`pruned snapshots`)
	}
	return
}
