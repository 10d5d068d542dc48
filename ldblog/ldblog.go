// Package ldblog archives per-batch training results in a LevelDB database,
// so finished runs can be analyzed without scraping console output.
package ldblog

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// BatchRecord is the archived result of one training batch.
type BatchRecord struct {
	Batch   int   // 1-based batch index
	Scores  []int // final score of each kept episode, in completion order
	Loss    float64
	Elapsed time.Duration // wall time since the run started
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (r *BatchRecord) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	if err := enc.Encode(r.Batch); err != nil {
		return nil, err
	}

	if err := enc.Encode(r.Scores); err != nil {
		return nil, err
	}

	if err := enc.Encode(r.Loss); err != nil {
		return nil, err
	}

	if err := enc.Encode(r.Elapsed); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (r *BatchRecord) UnmarshalBinary(buf []byte) error {
	dec := gob.NewDecoder(bytes.NewReader(buf))

	if err := dec.Decode(&r.Batch); err != nil {
		return err
	}

	if err := dec.Decode(&r.Scores); err != nil {
		return err
	}

	if err := dec.Decode(&r.Loss); err != nil {
		return err
	}

	return dec.Decode(&r.Elapsed)
}

// Log is an append-only archive of BatchRecords backed by a LevelDB
// database. Keys are fixed-width big-endian record indices, so iteration
// order is append order.
type Log struct {
	db    *leveldb.DB
	next  uint64
	rOpts *opt.ReadOptions
	wOpts *opt.WriteOptions
}

// Open opens or creates the archive at the given directory path. Appending
// to an existing archive continues after its last record.
func Open(path string, opts *opt.Options) (*Log, error) {
	db, err := leveldb.OpenFile(path, opts)
	if err != nil {
		return nil, err
	}

	l := &Log{db: db}
	iter := db.NewIterator(nil, l.rOpts)
	if iter.Last() {
		l.next = binary.BigEndian.Uint64(iter.Key()) + 1
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		db.Close()
		return nil, err
	}

	return l, nil
}

// Len returns how many records the archive holds.
func (l *Log) Len() int {
	return int(l.next)
}

// Append adds one record at the end of the archive.
func (l *Log) Append(r *BatchRecord) error {
	value, err := r.MarshalBinary()
	if err != nil {
		return err
	}

	var key [8]byte
	binary.BigEndian.PutUint64(key[:], l.next)
	if err := l.db.Put(key[:], value, l.wOpts); err != nil {
		return err
	}

	l.next++
	return nil
}

// Each calls f for every record in append order, stopping at the first
// error.
func (l *Log) Each(f func(*BatchRecord) error) error {
	iter := l.db.NewIterator(nil, l.rOpts)
	for iter.Next() {
		var r BatchRecord
		if err := r.UnmarshalBinary(iter.Value()); err != nil {
			iter.Release()
			return err
		}

		if err := f(&r); err != nil {
			iter.Release()
			return err
		}
	}

	iter.Release()
	return iter.Error()
}

// Close implements io.Closer.
func (l *Log) Close() error {
	return l.db.Close()
}
