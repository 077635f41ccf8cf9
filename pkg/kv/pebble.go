package kv

import (
	"bytes"
	"errors"

	"github.com/cockroachdb/pebble"

	"github.com/TheGoodall/forum/pkg/logger"
)

// Pebble is a Store backed by a local Pebble database.
type Pebble struct {
	db   *pebble.DB
	path string
}

// OpenPebble opens (or creates) a Pebble database at the given path.
func OpenPebble(path string) (*Pebble, error) {
	logger.Info("opening_pebble_db", "path", path)
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return nil, err
	}
	return &Pebble{db: db, path: path}, nil
}

// Close closes the underlying database.
func (p *Pebble) Close() error {
	if p.db == nil {
		return nil
	}
	if err := p.db.Close(); err != nil {
		return err
	}
	p.db = nil
	logger.Info("pebble_closed", "path", p.path)
	return nil
}

func (p *Pebble) Get(key string) (string, error) {
	v, closer, err := p.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return "", ErrNotFound
		}
		logger.Error("get_key_failed", "key", key, "error", err)
		return "", err
	}
	if closer != nil {
		defer closer.Close()
	}
	return string(v), nil
}

func (p *Pebble) Put(key, value string) error {
	if err := p.db.Set([]byte(key), []byte(value), pebble.Sync); err != nil {
		logger.Error("put_key_failed", "key", key, "error", err)
		return err
	}
	return nil
}

func (p *Pebble) Delete(key string) error {
	if err := p.db.Delete([]byte(key), pebble.Sync); err != nil {
		logger.Error("delete_key_failed", "key", key, "error", err)
		return err
	}
	return nil
}

func (p *Pebble) ListByPrefix(prefix string, limit int) ([]Entry, error) {
	return p.scan([]byte(prefix), []byte(prefix), limit)
}

func (p *Pebble) ListAfter(prefix, after string, limit int) ([]Entry, error) {
	seek := []byte(prefix)
	if after >= prefix {
		// a trailing zero byte seeks strictly past the cursor key
		seek = append([]byte(after), 0)
	}
	return p.scan([]byte(prefix), seek, limit)
}

func (p *Pebble) scan(pfx, seek []byte, limit int) ([]Entry, error) {
	iter, err := p.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var out []Entry
	for iter.SeekGE(seek); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), pfx) {
			break
		}
		k := append([]byte(nil), iter.Key()...)
		v := append([]byte(nil), iter.Value()...)
		out = append(out, Entry{Key: string(k), Value: string(v)})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, iter.Error()
}

// DiskUsage returns the approximate on-disk size of the database, for
// metrics. Best effort; returns 0 when unavailable.
func (p *Pebble) DiskUsage() uint64 {
	if p.db == nil {
		return 0
	}
	m := p.db.Metrics()
	if m == nil {
		return 0
	}
	return m.DiskSpaceUsage()
}
