package blobcache

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/matzehuels/waterfall/pkg/photo"
)

const (
	keyPrefix = "photo:"

	// maxConflictRetries bounds retries of a read-modify-write transaction
	// that lost a race with a concurrent writer of the same record.
	maxConflictRetries = 32
)

// sharedDB is one open badger database shared by every handle opened on the
// same directory.
type sharedDB struct {
	db   *badger.DB
	path string
	refs int
}

var (
	registryMu sync.Mutex
	registry   = map[string]*sharedDB{}
)

// BadgerStore is a Store backed by an embedded badger database.
type BadgerStore struct {
	shared *sharedDB
	closed atomic.Bool
}

// OpenBadger opens the store in dir, creating it if needed.
//
// Opening is idempotent: while a handle for dir is open, further calls return
// new handles to the same database. The database is closed when the last
// handle is closed. An empty dir opens a private in-memory store.
func OpenBadger(dir string, logger *log.Logger) (*BadgerStore, error) {
	if logger == nil {
		logger = log.Default()
	}
	if dir == "" {
		db, err := badger.Open(badgerOptions("", logger))
		if err != nil {
			return nil, fmt.Errorf("open in-memory blob store: %w", err)
		}
		return &BadgerStore{shared: &sharedDB{db: db, refs: 1}}, nil
	}

	path, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve blob store path: %w", err)
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if s, ok := registry[path]; ok {
		s.refs++
		return &BadgerStore{shared: s}, nil
	}
	db, err := badger.Open(badgerOptions(path, logger))
	if err != nil {
		return nil, fmt.Errorf("open blob store %s: %w", path, err)
	}
	s := &sharedDB{db: db, path: path, refs: 1}
	registry[path] = s
	logger.Debug("blob store opened", "path", path)
	return &BadgerStore{shared: s}, nil
}

func badgerOptions(path string, logger *log.Logger) badger.Options {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	return opts.WithLogger(badgerLogger{logger.WithPrefix("badger")})
}

func recordKey(id string) []byte { return []byte(keyPrefix + id) }

func (s *BadgerStore) db() (*badger.DB, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	return s.shared.db, nil
}

// Get returns the payload for (id, tier).
func (s *BadgerStore) Get(_ context.Context, id string, tier photo.Tier) ([]byte, bool, error) {
	if err := checkKey(id, tier); err != nil {
		return nil, false, err
	}
	rec, ok, err := s.read(id)
	if err != nil || !ok {
		return nil, false, err
	}
	data := rec.Tier(tier)
	return data, len(data) > 0, nil
}

// Record returns everything stored for id.
func (s *BadgerStore) Record(_ context.Context, id string) (*Record, bool, error) {
	if id == "" {
		return nil, false, ErrEmptyID
	}
	return s.read(id)
}

func (s *BadgerStore) read(id string) (*Record, bool, error) {
	db, err := s.db()
	if err != nil {
		return nil, false, err
	}
	var rec *Record
	err = db.View(func(txn *badger.Txn) error {
		rec, err = getRecord(txn, id)
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", id, err)
	}
	return rec, rec != nil, nil
}

// Put merges data into the record for id in one transaction. The other
// tiers of an existing record are preserved.
func (s *BadgerStore) Put(ctx context.Context, id string, tier photo.Tier, data []byte) error {
	if err := checkPut(id, tier, data); err != nil {
		return err
	}
	db, err := s.db()
	if err != nil {
		return err
	}
	for attempt := 0; ; attempt++ {
		err = db.Update(func(txn *badger.Txn) error {
			rec, err := getRecord(txn, id)
			if err != nil {
				return err
			}
			if rec == nil {
				rec = &Record{PhotoID: id}
			}
			rec.SetTier(tier, data)
			val, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			return txn.Set(recordKey(id), val)
		})
		if !errors.Is(err, badger.ErrConflict) || attempt >= maxConflictRetries {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	if err != nil {
		return fmt.Errorf("write %s/%s: %w", id, tier, err)
	}
	return nil
}

// getRecord reads the record for id inside txn. A missing key yields nil.
func getRecord(txn *badger.Txn, id string) (*Record, error) {
	item, err := txn.Get(recordKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec Record
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Clear removes every photo record.
func (s *BadgerStore) Clear(context.Context) error {
	db, err := s.db()
	if err != nil {
		return err
	}
	if err := db.DropPrefix([]byte(keyPrefix)); err != nil {
		return fmt.Errorf("clear blob store: %w", err)
	}
	return nil
}

// Stats walks every record and counts stored payloads.
func (s *BadgerStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	db, err := s.db()
	if err != nil {
		return st, err
	}
	prefix := []byte(keyPrefix)
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var rec Record
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			st.add(&rec)
		}
		return nil
	})
	if err != nil {
		return Stats{}, fmt.Errorf("blob store stats: %w", err)
	}
	return st, nil
}

// Path returns the database directory, or "" for an in-memory store.
func (s *BadgerStore) Path() string { return s.shared.path }

// Close releases this handle. The database closes with its last handle.
// Closing a handle twice is a no-op.
func (s *BadgerStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if s.shared.path == "" {
		return s.shared.db.Close()
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	s.shared.refs--
	if s.shared.refs > 0 {
		return nil
	}
	delete(registry, s.shared.path)
	return s.shared.db.Close()
}

var _ Store = (*BadgerStore)(nil)

// badgerLogger routes badger's internal logging through charm log, with
// info demoted to debug.
type badgerLogger struct{ l *log.Logger }

func (b badgerLogger) Errorf(f string, args ...any)   { b.l.Errorf(f, args...) }
func (b badgerLogger) Warningf(f string, args ...any) { b.l.Warnf(f, args...) }
func (b badgerLogger) Infof(f string, args ...any)    { b.l.Debugf(f, args...) }
func (b badgerLogger) Debugf(f string, args ...any)   { b.l.Debugf(f, args...) }
