package buffer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	pendingBucket = []byte("pending")
	indexBucket   = []byte("index")
	deadBucket    = []byte("dead")
)

// Store persists writes that missed primary storage in a BoltDB file. Pending items are
// ordered by priority then age; items that exhaust their retries are kept in a dead-letter
// bucket until an operator revives or purges them.
type Store struct {
	db *bolt.DB
}

// Counts summarizes the buffer for health checks and the CLI.
type Counts struct {
	Pending  int            `json:"pending"`
	Dead     int            `json:"dead"`
	ByEntity map[string]int `json:"by_entity"`
}

// Open initializes the BoltDB file and its buckets.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening buffer %s: %w", path, err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{pendingBucket, indexBucket, deadBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Enqueue stores an item under a priority-aware key.
func (s *Store) Enqueue(item Item) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return put(tx, item)
	})
}

// GetBatch returns up to limit pending items without removing them.
func (s *Store) GetBatch(limit int) ([]Item, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	if limit <= 0 {
		limit = 50
	}

	var items []Item
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(pendingBucket).Cursor()
		for k, v := c.First(); k != nil && len(items) < limit; k, v = c.Next() {
			var item Item
			if err := json.Unmarshal(v, &item); err != nil {
				continue
			}
			items = append(items, item)
		}
		return nil
	})
	return items, err
}

// Remove deletes a pending item. Removing an unknown item is not an error.
func (s *Store) Remove(item Item) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return remove(tx, item.ID)
	})
}

// Requeue replaces the stored item with a copy carrying a fresh timestamp, so it sorts
// behind items that have not failed yet.
func (s *Store) Requeue(item Item) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := remove(tx, item.ID); err != nil {
			return err
		}
		item.Timestamp = time.Now()
		return put(tx, item)
	})
}

// Bury moves an item that keeps failing out of the pending queue into the dead-letter bucket.
func (s *Store) Bury(item Item) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	item.normalize()
	payload, err := json.Marshal(item)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := remove(tx, item.ID); err != nil {
			return err
		}
		return tx.Bucket(deadBucket).Put([]byte(item.ID), payload)
	})
}

// Dead lists up to limit dead-lettered items.
func (s *Store) Dead(limit int) ([]Item, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	var items []Item
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(deadBucket).ForEach(func(_, v []byte) error {
			if limit > 0 && len(items) >= limit {
				return nil
			}
			var item Item
			if err := json.Unmarshal(v, &item); err == nil {
				items = append(items, item)
			}
			return nil
		})
	})
	return items, err
}

// Revive moves every dead-lettered item back into the pending queue with its retry count
// reset, and reports how many were moved.
func (s *Store) Revive() (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	revived := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		dead := tx.Bucket(deadBucket)
		c := dead.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var item Item
			if err := json.Unmarshal(v, &item); err != nil {
				continue
			}
			item.Retries = 0
			item.LastError = ""
			item.Timestamp = time.Now()
			if err := put(tx, item); err != nil {
				return err
			}
			if err := c.Delete(); err != nil {
				return err
			}
			revived++
		}
		return nil
	})
	return revived, err
}

// Size returns the number of pending items.
func (s *Store) Size() (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var count int
	err := s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(pendingBucket).Stats().KeyN
		return nil
	})
	return count, err
}

// Counts groups the pending items by entity and counts the dead letters.
func (s *Store) Counts() (Counts, error) {
	counts := Counts{ByEntity: make(map[string]int)}
	if s == nil || s.db == nil {
		return counts, bolt.ErrDatabaseNotOpen
	}
	err := s.db.View(func(tx *bolt.Tx) error {
		counts.Dead = tx.Bucket(deadBucket).Stats().KeyN
		return tx.Bucket(pendingBucket).ForEach(func(_, v []byte) error {
			counts.Pending++
			var item Item
			if err := json.Unmarshal(v, &item); err != nil {
				counts.ByEntity["corrupt"]++
				return nil
			}
			counts.ByEntity[item.Entity]++
			return nil
		})
	})
	return counts, err
}

// Cleanup removes pending and dead items older than the provided timestamp and reports how
// many went.
func (s *Store) Cleanup(olderThan time.Time) (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		index := tx.Bucket(indexBucket)
		for _, name := range [][]byte{pendingBucket, deadBucket} {
			c := tx.Bucket(name).Cursor()
			for k, v := c.First(); k != nil; k, v = c.Next() {
				var item Item
				if err := json.Unmarshal(v, &item); err != nil {
					continue
				}
				if !item.Timestamp.Before(olderThan) {
					continue
				}
				if err := c.Delete(); err != nil {
					return err
				}
				if err := index.Delete([]byte(item.ID)); err != nil {
					return err
				}
				removed++
			}
		}
		return nil
	})
	return removed, err
}

// Close closes the Bolt database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func put(tx *bolt.Tx, item Item) error {
	item.normalize()
	payload, err := json.Marshal(item)
	if err != nil {
		return err
	}
	key := queueKey(item)
	if err := tx.Bucket(pendingBucket).Put(key, payload); err != nil {
		return err
	}
	return tx.Bucket(indexBucket).Put([]byte(item.ID), key)
}

func remove(tx *bolt.Tx, id string) error {
	if id == "" {
		return nil
	}
	index := tx.Bucket(indexBucket)
	key := index.Get([]byte(id))
	if key == nil {
		return nil
	}
	if err := tx.Bucket(pendingBucket).Delete(key); err != nil {
		return err
	}
	return index.Delete([]byte(id))
}

func queueKey(item Item) []byte {
	return []byte(fmt.Sprintf("%d_%020d_%s", item.Priority, item.Timestamp.UnixNano(), item.ID))
}
