// Package boltdb is an optional read-through cache for resolved items, keyed by canonical URL.
package boltdb

import (
	"encoding/json"

	"go.etcd.io/bbolt"

	media_archiver "github.com/alanbriolat/media-archiver"
)

var Buckets = struct {
	Metadata []byte
	Items    []byte
}{
	Metadata: []byte("__metadata__"),
	Items:    []byte("items"),
}

var MetadataKeys = struct {
	Version []byte
}{
	Version: []byte("version"),
}

const currentVersion = 1

type Cache interface {
	Close() error

	// GetItem returns the cached record for a canonical URL, or (nil, nil) on a miss.
	GetItem(url string) (*media_archiver.ItemRecord, error)
	// PutItem caches the record under a canonical URL.
	PutItem(url string, record *media_archiver.ItemRecord) error
	// DeleteItem drops the cached record for a canonical URL, if any.
	DeleteItem(url string) error
}

type cache struct {
	*bbolt.DB
}

func New(path string) (_ Cache, err error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bbolt.Tx) (err error) {
		// Ensure buckets exist
		var metadata *bbolt.Bucket
		if metadata, err = tx.CreateBucketIfNotExists(Buckets.Metadata); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(Buckets.Items); err != nil {
			return err
		}

		// Get the current version of the cache
		var version int
		if versionBytes := metadata.Get(MetadataKeys.Version); versionBytes == nil {
			version = 0
		} else if err = json.Unmarshal(versionBytes, &version); err != nil {
			return err
		}
		if version != 0 && version != currentVersion {
			// Cached records from another layout are stale, not precious; start over.
			if err = tx.DeleteBucket(Buckets.Items); err != nil {
				return err
			}
			if _, err = tx.CreateBucket(Buckets.Items); err != nil {
				return err
			}
		}

		// Set the current version of the cache
		if versionBytes, err := json.Marshal(currentVersion); err != nil {
			return err
		} else if err = metadata.Put(MetadataKeys.Version, versionBytes); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return &cache{db}, nil
}

func (c cache) GetItem(url string) (record *media_archiver.ItemRecord, err error) {
	err = c.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(Buckets.Items)
		data := bucket.Get([]byte(url))
		if data == nil {
			return nil
		}
		record = &media_archiver.ItemRecord{}
		return json.Unmarshal(data, record)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (c cache) PutItem(url string, record *media_archiver.ItemRecord) error {
	if data, err := json.Marshal(record); err != nil {
		return err
	} else {
		return c.Update(func(tx *bbolt.Tx) error {
			bucket := tx.Bucket(Buckets.Items)
			return bucket.Put([]byte(url), data)
		})
	}
}

func (c cache) DeleteItem(url string) error {
	return c.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(Buckets.Items)
		return bucket.Delete([]byte(url))
	})
}
