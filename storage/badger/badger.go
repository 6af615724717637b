/*
Package badger implements a chunk backend on an embedded BadgerDB key-value store.

Configuration settings:

	path              directory of the database, created if it does not exist
	inmemory          keep the database in memory only (path is ignored)
	readonly          open an existing database read-only
	valuethreshold    size in bytes above which values go to the value log
	valuelogfilesize  size in bytes of each value log file
*/
package badger

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/janelia-flyem/seisvds/storage"
	"github.com/janelia-flyem/seisvds/vds"

	"github.com/blang/semver"
	"github.com/dgraph-io/badger/v3"
)

const (
	// DefaultValueThreshold is the size of values in bytes that if exceeded get stored in
	// value log instead of the LSM tree.  Bricks are almost always above it.
	DefaultValueThreshold = 1024

	// DefaultSyncWrites is true if all writes are synced to disk, thereby making db resilient
	// at cost of speed.
	DefaultSyncWrites = false
)

// Key prefixes separating bricks from metadata.
const (
	chunkPrefix byte = 'c'
	metaPrefix  byte = 'm'
)

func init() {
	ver, err := semver.Make("0.2.0")
	if err != nil {
		vds.Errorf("Unable to make semver in badger: %v\n", err)
	}
	e := Engine{"badger", "BadgerDB", ver}
	storage.RegisterEngine(e)
}

// --- Engine Implementation ------

type Engine struct {
	name   string
	desc   string
	semver semver.Version
}

func (e Engine) GetName() string {
	return e.name
}

func (e Engine) GetDescription() string {
	return e.desc
}

func (e Engine) GetSemVer() semver.Version {
	return e.semver
}

func (e Engine) String() string {
	return fmt.Sprintf("%s [%s]", e.name, e.semver)
}

// NewBackend returns a badger backend. The passed Config must contain a "path" string
// unless "inmemory" is set.
func (e Engine) NewBackend(ctx context.Context, config vds.StoreConfig) (storage.ChunkBackend, error) {
	return Open(config.Config)
}

// BadgerDB is a chunk backend over one badger database.
type BadgerDB struct {
	directory string
	bdp       *badger.DB

	stopSyncCh chan struct{}
	closeOnce  sync.Once
}

// Open returns a badger backend, creating the database at the configured path if
// it doesn't exist.
func Open(config vds.Config) (*BadgerDB, error) {
	opts, err := getOptions(config)
	if err != nil {
		return nil, err
	}
	if !opts.InMemory {
		if _, err := os.Stat(opts.Dir); os.IsNotExist(err) {
			vds.Infof("Database not already at path (%s). Creating directory...\n", opts.Dir)
			if err := os.MkdirAll(opts.Dir, 0755); err != nil {
				return nil, fmt.Errorf("can't make directory at %s: %v", opts.Dir, err)
			}
		}
	}

	timedLog := vds.NewTimeLog()
	bdp, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	db := &BadgerDB{
		directory:  opts.Dir,
		bdp:        bdp,
		stopSyncCh: make(chan struct{}),
	}
	if opts.InMemory {
		db.directory = "(in-memory)"
	} else if !opts.ReadOnly {
		go db.syncPeriodically()
	}
	timedLog.Infof("Opened badger @ %s", db.directory)
	return db, nil
}

func getOptions(config vds.Config) (badger.Options, error) {
	inMemory, _, err := config.GetBool("inmemory")
	if err != nil {
		return badger.Options{}, err
	}
	var opts badger.Options
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		path, found, err := config.GetString("path")
		if err != nil {
			return badger.Options{}, err
		}
		if !found || path == "" {
			return badger.Options{}, fmt.Errorf("%q must be specified for BadgerDB configuration", "path")
		}
		opts = badger.DefaultOptions(path)
	}
	opts = opts.WithLogger(nil).
		WithNumVersionsToKeep(1).
		WithSyncWrites(DefaultSyncWrites).
		WithValueThreshold(DefaultValueThreshold)

	readOnly, found, err := config.GetBool("readonly")
	if err != nil {
		return badger.Options{}, err
	}
	if found {
		opts = opts.WithReadOnly(readOnly)
	}
	valueSizeThresh, found, err := config.GetInt("valuethreshold")
	if err != nil {
		return badger.Options{}, err
	}
	if found {
		opts = opts.WithValueThreshold(int64(valueSizeThresh))
	}
	vlogSize, found, err := config.GetInt("valuelogfilesize")
	if err != nil {
		return badger.Options{}, err
	}
	if found {
		opts = opts.WithValueLogFileSize(int64(vlogSize))
	}
	return opts, nil
}

// Periodically sync to prevent too many writes from being buffered
// if the process crashes.
func (db *BadgerDB) syncPeriodically() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-db.stopSyncCh:
			vds.Debugf("Stopping sync goroutine for badger @ %s\n", db.directory)
			return
		case <-ticker.C:
			if err := db.bdp.Sync(); err != nil {
				vds.Errorf("Unable to sync badger @ %s: %v\n", db.directory, err)
			}
		}
	}
}

func (db *BadgerDB) String() string {
	return fmt.Sprintf("badger @ %s", db.directory)
}

func chunkKey(key storage.ChunkKey) []byte {
	return append([]byte{chunkPrefix}, key.Bytes()...)
}

func metaKey(name string) []byte {
	return append([]byte{metaPrefix}, name...)
}

// returns nil/nil if the key does not exist.
func (db *BadgerDB) get(ctx context.Context, key []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var value []byte
	err := db.bdp.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	return value, err
}

func (db *BadgerDB) put(ctx context.Context, key, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := db.bdp.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
	if err == badger.ErrConflict {
		return fmt.Errorf("%w: %w", storage.ErrTransient, err)
	}
	return err
}

func (db *BadgerDB) GetChunk(ctx context.Context, key storage.ChunkKey) ([]byte, error) {
	return db.get(ctx, chunkKey(key))
}

func (db *BadgerDB) PutChunk(ctx context.Context, key storage.ChunkKey, data []byte) error {
	return db.put(ctx, chunkKey(key), data)
}

func (db *BadgerDB) GetMeta(ctx context.Context, name string) ([]byte, error) {
	return db.get(ctx, metaKey(name))
}

func (db *BadgerDB) PutMeta(ctx context.Context, name string, data []byte) error {
	return db.put(ctx, metaKey(name), data)
}

// NumChunks returns the number of stored bricks of a channel at a level of detail.
func (db *BadgerDB) NumChunks(channel string, lod int) (int, error) {
	prefix := append([]byte{chunkPrefix}, channel...)
	prefix = append(prefix, 0, byte(lod))
	var n int
	err := db.bdp.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false // key only
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Close syncs and closes the database.  Close is idempotent.
func (db *BadgerDB) Close() error {
	var err error
	db.closeOnce.Do(func() {
		close(db.stopSyncCh)
		err = db.bdp.Close()
		vds.Infof("Closed Badger DB @ %s\n", db.directory)
	})
	return err
}
