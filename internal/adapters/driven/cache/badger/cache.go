package badger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/campusgpt/harvester/internal/core/ports/driven"
	"github.com/campusgpt/harvester/internal/logger"
)

// Ensure Cache implements the interface.
var _ driven.FetchCache = (*Cache)(nil)

const keyPrefix = "fetch:"

// Cache is a BadgerDB-backed driven.FetchCache.
type Cache struct {
	db  *badger.DB
	ttl time.Duration
}

// Open opens (creating if needed) a cache in dir. An empty dir opens an
// in-memory cache. ttl <= 0 keeps entries forever.
func Open(dir string, ttl time.Duration) (*Cache, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
		info, err := os.Stat(dir)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", dir)
		}
		opts = badger.DefaultOptions(dir)
	}

	opts.Logger = logger.Printf{Name: "badger"}
	// PDFs are already compressed.
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	return &Cache{db: db, ttl: ttl}, nil
}

// Get returns the cached entry for url. Entries too short to carry a
// capture time are treated as misses.
func (c *Cache) Get(ctx context.Context, url string) (driven.CachedFetch, bool, error) {
	if err := ctx.Err(); err != nil {
		return driven.CachedFetch{}, false, err
	}

	var value []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(url))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return driven.CachedFetch{}, false, nil
	}
	if err != nil {
		return driven.CachedFetch{}, false, fmt.Errorf("reading cache entry: %w", err)
	}
	entry, ok := decode(value)
	return entry, ok, nil
}

// Put stores entry for url.
func (c *Cache) Put(ctx context.Context, url string, entry driven.CachedFetch) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(key(url), encode(entry))
		if c.ttl > 0 {
			e = e.WithTTL(c.ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// Close closes the database.
func (c *Cache) Close() error {
	return c.db.Close()
}

func key(url string) []byte {
	return []byte(keyPrefix + url)
}

// Values are an 8-byte big-endian capture time in Unix nanoseconds (0 for
// an unknown time) followed by the raw bytes.
const headerLen = 8

func encode(entry driven.CachedFetch) []byte {
	var nanos int64
	if !entry.FetchedAt.IsZero() {
		nanos = entry.FetchedAt.UnixNano()
	}
	value := make([]byte, headerLen+len(entry.Data))
	binary.BigEndian.PutUint64(value, uint64(nanos))
	copy(value[headerLen:], entry.Data)
	return value
}

func decode(value []byte) (driven.CachedFetch, bool) {
	if len(value) < headerLen {
		return driven.CachedFetch{}, false
	}
	var entry driven.CachedFetch
	if nanos := int64(binary.BigEndian.Uint64(value)); nanos != 0 {
		entry.FetchedAt = time.Unix(0, nanos).UTC()
	}
	entry.Data = value[headerLen:]
	return entry, true
}
