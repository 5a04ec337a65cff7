package tokenstore

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	tokenBucket      = "session_tokens"
	expiryValueBytes = 8
)

// boltStore implements a Store backed by BoltDB. Values are an 8 byte
// big-endian unix-nanosecond expiry followed by the raw token.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	tokenTTL        time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create token store directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(tokenBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	store := &boltStore{
		db:              db,
		tokenTTL:        opts.TokenTTL,
		cleanupInterval: opts.CleanupInterval,
		now:             time.Now,
	}
	store.lastCleanup.Store(store.now().Unix())
	return store, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Token returns the live token for sessionID. Expired entries are deleted on read.
func (b *boltStore) Token(sessionID string) (string, bool, error) {
	if b == nil || b.db == nil {
		return "", false, nil
	}
	key, err := sessionKeyBytes(sessionID)
	if err != nil {
		return "", false, err
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return "", false, err
	}

	var (
		token string
		found bool
	)
	err = b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(tokenBucket))
		if bucket == nil {
			return fmt.Errorf("token bucket missing")
		}

		value := bucket.Get(key)
		if value == nil {
			return nil
		}

		expiry, raw, ok := decodeEntry(value)
		if !ok || !expiry.After(now) {
			return bucket.Delete(key)
		}

		token, found = raw, true
		return nil
	})
	return token, found, err
}

// SaveToken stores token for sessionID, resetting its TTL.
func (b *boltStore) SaveToken(sessionID, token string) error {
	if b == nil || b.db == nil {
		return nil
	}
	key, err := sessionKeyBytes(sessionID)
	if err != nil {
		return err
	}
	if token == "" {
		return fmt.Errorf("token for session %q is empty", sessionID)
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(tokenBucket))
		if bucket == nil {
			return fmt.Errorf("token bucket missing")
		}
		return bucket.Put(key, encodeEntry(now.Add(b.tokenTTL), token))
	})
}

// DeleteToken forgets sessionID. Deleting an unknown session is not an error.
func (b *boltStore) DeleteToken(sessionID string) error {
	if b == nil || b.db == nil {
		return nil
	}
	key, err := sessionKeyBytes(sessionID)
	if err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(tokenBucket))
		if bucket == nil {
			return fmt.Errorf("token bucket missing")
		}
		return bucket.Delete(key)
	})
}

// maybeCleanupExpired sweeps expired tokens on a fixed cadence to avoid unbounded growth.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(tokenBucket))
		if bucket == nil {
			return fmt.Errorf("token bucket missing")
		}

		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			expiry, _, ok := decodeEntry(v)
			if !ok || !expiry.After(now) {
				if err := cursor.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

func sessionKeyBytes(sessionID string) ([]byte, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("session id is empty")
	}
	return []byte(sessionID), nil
}

func encodeEntry(expiry time.Time, token string) []byte {
	buf := make([]byte, expiryValueBytes+len(token))
	binary.BigEndian.PutUint64(buf, uint64(expiry.UnixNano()))
	copy(buf[expiryValueBytes:], token)
	return buf
}

// decodeEntry splits a stored value into its expiry and token.
func decodeEntry(value []byte) (time.Time, string, bool) {
	if len(value) <= expiryValueBytes {
		return time.Time{}, "", false
	}
	nanos := int64(binary.BigEndian.Uint64(value[:expiryValueBytes]))
	if nanos <= 0 {
		return time.Time{}, "", false
	}
	return time.Unix(0, nanos), string(value[expiryValueBytes:]), true
}
