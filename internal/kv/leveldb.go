package kv

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDB is a Backend on goleveldb.
type LevelDB struct {
	db   *leveldb.DB
	path string
}

// OpenLevelDB opens or creates a database at path.
func OpenLevelDB(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{
		NoSync: false,
	})
	if err != nil {
		return nil, fmt.Errorf("opening leveldb: %w", err)
	}
	return &LevelDB{db: db, path: path}, nil
}

func (l *LevelDB) Get(key []byte) ([]byte, error) {
	v, err := l.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("leveldb get: %w", err)
	}
	return v, nil
}

func (l *LevelDB) Range(prefix, after []byte, fn RangeFunc) error {
	var slice *util.Range
	if len(prefix) > 0 {
		slice = util.BytesPrefix(prefix)
	}
	iter := l.db.NewIterator(slice, nil)
	defer iter.Release()

	var ok bool
	if after != nil {
		ok = iter.Seek(after)
		if ok && bytes.Equal(iter.Key(), after) {
			ok = iter.Next()
		}
	} else {
		ok = iter.First()
	}
	for ; ok; ok = iter.Next() {
		more, err := fn(iter.Key(), iter.Value())
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}
	if err := iter.Error(); err != nil {
		return fmt.Errorf("leveldb iterate: %w", err)
	}
	return nil
}

// Apply writes the batch atomically with a synced write.
func (l *LevelDB) Apply(ctx context.Context, batch Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b := new(leveldb.Batch)
	for _, op := range batch {
		if op.Delete {
			b.Delete(op.Key)
			continue
		}
		b.Put(op.Key, op.Value)
	}
	if err := l.db.Write(b, &opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("writing batch: %w", err)
	}
	return nil
}

// Path returns the directory the database lives in.
func (l *LevelDB) Path() string {
	return l.path
}

func (l *LevelDB) Close() error {
	return l.db.Close()
}
