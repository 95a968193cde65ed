package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

// BoltStore keeps all per-service reference mappings in a single bbolt file,
// one bucket per service. It satisfies the same attempted-means-present
// contract as FileStore while avoiding a full-file rewrite on every Put.
type BoltStore struct {
	db     *bolt.DB
	bucket []byte
	logger *zap.Logger
}

func NewBoltStore(path, bucket string, logger *zap.Logger) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := bolt.Open(path, filePermission, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket %q: %w", bucket, err)
	}

	return &BoltStore{
		db:     db,
		bucket: []byte(bucket),
		logger: logger,
	}, nil
}

func (s *BoltStore) Get(key string) (string, bool) {
	var value string
	var found bool

	err := s.db.View(func(tx *bolt.Tx) error {
		// Cursor seek instead of Get: an empty stored value must still count
		// as "resolution attempted".
		k, v := tx.Bucket(s.bucket).Cursor().Seek([]byte(key))
		if k != nil && string(k) == key {
			value = string(v)
			found = true
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("Cache read failed, treating as miss",
			zap.String("key", key),
			zap.Error(err))
		return "", false
	}

	return value, found
}

func (s *BoltStore) Put(key, value string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

func (s *BoltStore) GetOrResolve(key string, resolver func() (string, error)) (string, error) {
	if value, ok := s.Get(key); ok {
		return value, nil
	}

	value, err := resolver()
	if err != nil {
		return "", err
	}

	if err := s.Put(key, value); err != nil {
		return value, err
	}

	return value, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
