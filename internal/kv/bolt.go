package kv

import (
	"bytes"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/allgemeinbildung/abubox/internal/util/compression"
)

var draftsBucket = []byte("drafts")

// Bolt keeps values in a single bucket of a bbolt file.
type Bolt struct {
	db         *bolt.DB
	compressor compression.Compressor
}

func OpenBolt(path string, compressor compression.Compressor) (*Bolt, error) {
	if compressor == nil {
		compressor = compression.None{}
	}

	database, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrUnavailable, path, err)
	}

	err = database.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(draftsBucket)
		return err
	})
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("%w: create bucket: %w", ErrUnavailable, err)
	}

	kvLogger.Info().Str("path", path).Msg("Bolt store opened")
	return &Bolt{db: database, compressor: compressor}, nil
}

func (b *Bolt) Get(key string) (string, bool, error) {
	var blob []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(draftsBucket).Get([]byte(key)); v != nil {
			// v is only valid inside the transaction.
			blob = bytes.Clone(v)
		}
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("%w: read %s: %w", ErrUnavailable, key, err)
	}
	if blob == nil {
		return "", false, nil
	}

	value, err := b.compressor.Decompress(blob)
	if err != nil {
		return "", true, fmt.Errorf("%w: %s: %w", ErrCorruptValue, key, err)
	}
	return string(value), true, nil
}

func (b *Bolt) Set(key, value string) error {
	blob, err := b.compressor.Compress([]byte(value))
	if err != nil {
		return fmt.Errorf("%w: compress %s: %w", ErrUnavailable, key, err)
	}
	err = b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(draftsBucket).Put([]byte(key), blob)
	})
	if err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrUnavailable, key, err)
	}
	return nil
}

func (b *Bolt) Remove(key string) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(draftsBucket).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("%w: delete %s: %w", ErrUnavailable, key, err)
	}
	return nil
}

func (b *Bolt) Keys(prefix string) ([]string, error) {
	var keys []string
	p := []byte(prefix)
	err := b.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(draftsBucket).Cursor()
		for k, _ := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = c.Next() {
			keys = append(keys, string(k))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list: %w", ErrUnavailable, err)
	}
	return keys, nil
}

func (b *Bolt) Close() error {
	return b.db.Close()
}
