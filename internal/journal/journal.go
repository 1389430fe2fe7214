package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"quantum-social/internal/crypto"
	"quantum-social/internal/signals"
	"quantum-social/internal/store"
)

const (
	eventsBucket = "events"
	queueSize    = 256
)

// Entry is one recorded store mutation.
type Entry struct {
	Seq     uint64           `json:"seq"`
	Kind    store.EventKind  `json:"kind"`
	At      time.Time        `json:"at"`
	Live    int              `json:"live"`
	Signals []signals.Signal `json:"signals"`
}

// Journal is a write-behind audit log of store lifecycle events kept in
// BoltDB. It is never read back into the store.
type Journal struct {
	db  *bbolt.DB
	box *crypto.Box
	log *zap.Logger

	queue   chan store.Event
	quit    chan struct{}
	done    chan struct{}
	started atomic.Bool
	dropped atomic.Uint64

	closeOnce sync.Once
}

// Open creates or opens the journal file at path. box may be nil.
func Open(path string, box *crypto.Box, logger *zap.Logger) (*Journal, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(eventsBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Journal{
		db:    db,
		box:   box,
		log:   logger,
		queue: make(chan store.Event, queueSize),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}, nil
}

// Observe queues evt for Run. It never blocks; events are dropped with a
// warning when the queue is full.
func (j *Journal) Observe(evt store.Event) {
	if j == nil {
		return
	}
	select {
	case j.queue <- evt:
	default:
		j.dropped.Add(1)
		j.log.Warn("journal queue full, dropping event", zap.String("kind", string(evt.Kind)))
	}
}

// Dropped reports how many events were discarded because the queue was full.
func (j *Journal) Dropped() uint64 {
	if j == nil {
		return 0
	}
	return j.dropped.Load()
}

// Run writes queued events until ctx is done or Close is called, then
// flushes whatever is still queued.
func (j *Journal) Run(ctx context.Context) {
	j.started.Store(true)
	defer close(j.done)
	for {
		select {
		case <-ctx.Done():
			j.flush()
			return
		case <-j.quit:
			j.flush()
			return
		case evt := <-j.queue:
			j.write(evt)
		}
	}
}

func (j *Journal) flush() {
	for {
		select {
		case evt := <-j.queue:
			j.write(evt)
		default:
			return
		}
	}
}

func (j *Journal) write(evt store.Event) {
	if err := j.Append(evt); err != nil {
		j.log.Error("journal append failed", zap.String("kind", string(evt.Kind)), zap.Error(err))
	}
}

// Append writes evt synchronously.
func (j *Journal) Append(evt store.Event) error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(eventsBucket))
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		entry := Entry{Seq: seq, Kind: evt.Kind, At: evt.At, Live: evt.Live, Signals: evt.Signals}
		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		key := entryKey(evt.At, seq)
		sealed, err := j.box.Seal(data, key)
		if err != nil {
			return err
		}
		return bucket.Put(key, sealed)
	})
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(limit int) ([]Entry, error) {
	if j == nil || j.db == nil || limit <= 0 {
		return nil, nil
	}
	var out []Entry
	err := j.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(eventsBucket))
		if bucket == nil {
			return nil
		}
		cursor := bucket.Cursor()
		for k, v := cursor.Last(); k != nil && limit > 0; k, v = cursor.Prev() {
			limit--
			data, err := j.box.Open(v, k)
			if err != nil {
				j.log.Warn("journal entry unreadable", zap.ByteString("key", k), zap.Error(err))
				continue
			}
			var entry Entry
			if err := json.Unmarshal(data, &entry); err != nil {
				j.log.Warn("journal entry corrupt", zap.ByteString("key", k), zap.Error(err))
				continue
			}
			out = append(out, entry)
		}
		return nil
	})
	return out, err
}

// Close stops Run, waits for its flush and closes the database.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	var err error
	j.closeOnce.Do(func() {
		close(j.quit)
		if j.started.Load() {
			<-j.done
		}
		err = j.db.Close()
	})
	return err
}

func entryKey(at time.Time, seq uint64) []byte {
	return []byte(fmt.Sprintf("%020d-%08d", at.UnixNano(), seq))
}
