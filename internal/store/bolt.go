package store

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"smarttax/receipt-ocr/internal/logging"
	"smarttax/receipt-ocr/internal/models"
)

// Bucket names of the local dictionary cache.
var (
	merchantBucket = []byte("merchant_corrections")
	termBucket     = []byte("common_terms")
)

// BoltCache keeps the merged correction dictionary in a local bbolt file so
// start-up works offline.
type BoltCache struct {
	db     *bolt.DB
	path   string
	logger logging.Logger
}

// OpenBoltCache opens or creates the cache file at path.
func OpenBoltCache(path string, logger logging.Logger) (*BoltCache, error) {
	db, err := bolt.Open(path, models.PermissionConfigFile, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("error opening dictionary cache %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{merchantBucket, termBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error initializing dictionary cache: %w", err)
	}

	return &BoltCache{db: db, path: path, logger: logging.OrDefault(logger)}, nil
}

// Path returns the cache file location.
func (c *BoltCache) Path() string {
	return c.path
}

// Load reads both buckets.
func (c *BoltCache) Load() (models.DictionaryDocument, error) {
	doc := models.NewDictionaryDocument()
	err := c.db.View(func(tx *bolt.Tx) error {
		if err := readBucket(tx, merchantBucket, doc.Merchants); err != nil {
			return err
		}
		return readBucket(tx, termBucket, doc.Terms)
	})
	if err != nil {
		return models.NewDictionaryDocument(), fmt.Errorf("error reading dictionary cache: %w", err)
	}

	c.logger.Debug("Loaded dictionary cache",
		logging.Field{Key: logging.FieldFile, Value: c.path},
		logging.Field{Key: logging.FieldCount, Value: doc.Len()})
	return doc, nil
}

func readBucket(tx *bolt.Tx, name []byte, dst map[string]string) error {
	b := tx.Bucket(name)
	if b == nil {
		return fmt.Errorf("bucket %s missing", name)
	}
	return b.ForEach(func(k, v []byte) error {
		dst[string(k)] = string(v)
		return nil
	})
}

// Save replaces the cached dictionary with doc in one transaction.
func (c *BoltCache) Save(doc models.DictionaryDocument) error {
	err := c.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{merchantBucket, termBucket} {
			if err := tx.DeleteBucket(name); err != nil && err != bolt.ErrBucketNotFound {
				return fmt.Errorf("reset bucket %s: %w", name, err)
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		for _, e := range doc.Entries() {
			if e.Original == "" {
				continue
			}
			if err := tx.Bucket(bucketFor(e.Kind)).Put([]byte(e.Original), []byte(e.Corrected)); err != nil {
				return fmt.Errorf("put %q: %w", e.Original, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("error writing dictionary cache: %w", err)
	}
	return nil
}

func bucketFor(kind models.CorrectionKind) []byte {
	if kind == models.CorrectionMerchant {
		return merchantBucket
	}
	return termBucket
}

// Put upserts a single correction.
func (c *BoltCache) Put(kind models.CorrectionKind, original, corrected string) error {
	err := c.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketFor(kind))
		if err != nil {
			return err
		}
		return b.Put([]byte(original), []byte(corrected))
	})
	if err != nil {
		return fmt.Errorf("error caching correction: %w", err)
	}
	return nil
}

// Close releases the file lock.
func (c *BoltCache) Close() error {
	return c.db.Close()
}
