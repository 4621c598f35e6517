// Package harness is the randomized alloc/realloc/free stress driver
// named as an external collaborator by spec.md §1 ("a harness that
// randomly allocates/reallocates/frees blocks and verifies
// checksums"): spec.md leaves it out of scope except for the
// interfaces it requires, but SPEC_FULL.md §9 brings it in-repo,
// grounded on original_source/main.c's specific_test/rand_test.
package harness

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"
)

// CallRecord is one harness operation, durable enough to replay a
// failing randomized run deterministically.
type CallRecord struct {
	Seq      uint64
	ArenaID  string
	Op       string // "alloc", "realloc", or "free"
	BlockIdx int
	Size     int
}

var callsBucket = []byte("calls")

// ReplayLog is an append-only, durable record of harness calls backed
// by a single bbolt bucket keyed by monotonically increasing sequence
// number. Grounded on SPEC_FULL.md §9: gdbx depends on
// go.etcd.io/bbolt for its own test-comparison use; this repurposes
// the same dependency for bbolt's native strength (single-writer,
// durable, page-oriented storage) to let a failing Harness run be
// replayed call by call. Each record holds the operation, block index
// and size; block contents are not recorded.
type ReplayLog struct {
	db *bolt.DB
}

// OpenReplayLog opens (creating if necessary) a replay log at path.
func OpenReplayLog(path string) (*ReplayLog, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("harness: open replay log: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(callsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("harness: init replay log: %w", err)
	}
	return &ReplayLog{db: db}, nil
}

// Append records one call, assigning it the next sequence number.
func (r *ReplayLog) Append(rec CallRecord) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(callsBucket)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		rec.Seq = seq
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)
		return b.Put(key, data)
	})
}

// All returns every recorded call in sequence order, for replay.
func (r *ReplayLog) All() ([]CallRecord, error) {
	var out []CallRecord
	err := r.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(callsBucket)
		return b.ForEach(func(_, v []byte) error {
			var rec CallRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			out = append(out, rec)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("harness: read replay log: %w", err)
	}
	return out, nil
}

// Close releases the underlying bbolt database.
func (r *ReplayLog) Close() error {
	return r.db.Close()
}
