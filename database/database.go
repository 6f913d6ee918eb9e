package database

import (
	"errors"

	"github.com/syndtr/goleveldb/leveldb"
	ldb_errors "github.com/syndtr/goleveldb/leveldb/errors" // Alias untuk menghindari konflik
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// ErrNotFound diekspor untuk digunakan oleh package lain.
var ErrNotFound = ldb_errors.ErrNotFound

type Database interface {
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	Put(key []byte, value []byte) error
	Delete(key []byte) error
	NewBatch() *Batch
	Write(batch *Batch) error
	Iterate(prefix []byte, fn func(key, value []byte) bool) error
	Close() error
}

type LevelDB struct {
	db *leveldb.DB
}

var _ Database = (*LevelDB)(nil)

// NewLevelDB membuka (atau membuat) database di path. Database yang korup
// dicoba dipulihkan sekali.
func NewLevelDB(path string, cacheMB, handles int) (*LevelDB, error) {
	opts := &opt.Options{
		Filter:                 filter.NewBloomFilter(10),
		BlockCacheCapacity:     cacheMB / 2 * opt.MiB,
		WriteBuffer:            cacheMB / 4 * opt.MiB,
		OpenFilesCacheCapacity: handles,
	}
	db, err := leveldb.OpenFile(path, opts)
	if err != nil {
		if ldb_errors.IsCorrupted(err) {
			db, err = leveldb.RecoverFile(path, nil)
		}
		if err != nil {
			return nil, err
		}
	}
	return &LevelDB{db: db}, nil
}

// NewMemLevelDB membuat LevelDB di memori, dipakai untuk test dan mode tanpa
// persistensi.
func NewMemLevelDB() (*LevelDB, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return &LevelDB{db: db}, nil
}

// Get mengembalikan nil, nil jika key tidak ada.
func (ldb *LevelDB) Get(key []byte) ([]byte, error) {
	value, err := ldb.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, nil
	}
	return value, err
}

func (ldb *LevelDB) Has(key []byte) (bool, error) {
	return ldb.db.Has(key, nil)
}

func (ldb *LevelDB) Put(key []byte, value []byte) error {
	return ldb.db.Put(key, value, nil)
}

func (ldb *LevelDB) Delete(key []byte) error {
	return ldb.db.Delete(key, nil)
}

func (ldb *LevelDB) NewBatch() *Batch {
	return &Batch{batch: new(leveldb.Batch)}
}

// Write menulis batch secara atomik.
func (ldb *LevelDB) Write(batch *Batch) error {
	return ldb.db.Write(batch.batch, nil)
}

// Iterate memanggil fn untuk setiap key dengan prefix, urut naik. fn
// mengembalikan false untuk berhenti. key/value hanya valid selama fn berjalan.
func (ldb *LevelDB) Iterate(prefix []byte, fn func(key, value []byte) bool) error {
	iter := ldb.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()
	for iter.Next() {
		if !fn(iter.Key(), iter.Value()) {
			break
		}
	}
	return iter.Error()
}

func (ldb *LevelDB) Close() error {
	return ldb.db.Close()
}

type Batch struct {
	batch *leveldb.Batch
	size  int
}

func (b *Batch) Put(key, value []byte) {
	b.batch.Put(key, value)
	b.size += len(key) + len(value)
}

func (b *Batch) Delete(key []byte) {
	b.batch.Delete(key)
	b.size += len(key)
}

func (b *Batch) ValueSize() int {
	return b.size
}

func (b *Batch) Reset() {
	b.batch.Reset()
	b.size = 0
}
