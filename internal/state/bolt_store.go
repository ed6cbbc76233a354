package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rniirs/news-harvester/internal/domain"
	bolt "go.etcd.io/bbolt"
)

const (
	linksBucket       = "processed_links"
	parserStateBucket = "parser_state"
)

// boltStore implements Store on a single BoltDB file, one key per source in
// each bucket.
type boltStore struct {
	db *bolt.DB
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create state directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{linksBucket, parserStateBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}

	return &boltStore{db: db}, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

func (b *boltStore) ProcessedLinks(source string) (domain.LinkSet, error) {
	if err := checkSource(source); err != nil {
		return nil, err
	}

	var links []string
	err := b.db.View(func(tx *bolt.Tx) error {
		raw, err := getValue(tx, linksBucket, source)
		if err != nil || raw == nil {
			return err
		}
		var doc processedLinksFile
		if err := json.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("decode processed links for %s: %w", source, err)
		}
		links = doc.ProcessedLinks
		return nil
	})
	if err != nil {
		return nil, err
	}
	return domain.NewLinkSet(links...), nil
}

func (b *boltStore) SaveProcessedLinks(source string, links domain.LinkSet) error {
	if err := checkSource(source); err != nil {
		return err
	}
	doc := processedLinksFile{ProcessedLinks: links.Sorted()}
	return b.put(linksBucket, source, doc)
}

func (b *boltStore) InitialLoadCompleted(source string) (bool, error) {
	if err := checkSource(source); err != nil {
		return false, err
	}

	var doc parserStateFile
	err := b.db.View(func(tx *bolt.Tx) error {
		raw, err := getValue(tx, parserStateBucket, source)
		if err != nil || raw == nil {
			return err
		}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("decode parser state for %s: %w", source, err)
		}
		return nil
	})
	return doc.InitialLoadCompleted, err
}

func (b *boltStore) SetInitialLoadCompleted(source string, done bool) error {
	if err := checkSource(source); err != nil {
		return err
	}
	return b.put(parserStateBucket, source, parserStateFile{InitialLoadCompleted: done})
}

func (b *boltStore) put(bucketName, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s for %s: %w", bucketName, key, err)
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		if bucket == nil {
			return fmt.Errorf("%s bucket missing", bucketName)
		}
		return bucket.Put([]byte(key), data)
	})
}

// getValue returns a copy of the stored value; bolt memory is only valid
// inside the transaction.
func getValue(tx *bolt.Tx, bucketName, key string) ([]byte, error) {
	bucket := tx.Bucket([]byte(bucketName))
	if bucket == nil {
		return nil, fmt.Errorf("%s bucket missing", bucketName)
	}
	v := bucket.Get([]byte(key))
	if v == nil {
		return nil, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}
