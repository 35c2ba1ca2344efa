// Package journal keeps a write-ahead log of applied store updates for streaming to clients.
package journal

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/bazar/internal/domain"
	"github.com/vadiminshakov/bazar/internal/store"
	"github.com/vadiminshakov/gowal"
)

const (
	DefaultDir   = "./wal/store"
	segmentLimit = 1000
	maxSegments  = 20
	keyPrefix    = "store_update_"
)

// Record is a journaled store update.
type Record struct {
	Index   uint64             `json:"index"`
	Seq     uint64             `json:"seq"`
	Domain  domain.StoreDomain `json:"domain"`
	Time    time.Time          `json:"time"`
	Payload json.RawMessage    `json:"payload"`
}

// WALStore persists applied store updates in a WAL.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore initializes a WAL-backed journal under the provided directory.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = DefaultDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "journal_",
		SegmentThreshold: segmentLimit,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: false,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init store journal WAL")
	}

	return &WALStore{wal: wal}, nil
}

// Append writes the applied update to the WAL.
func (s *WALStore) Append(applied store.Applied) error {
	if s == nil || s.wal == nil {
		return errors.New("store journal is not initialized")
	}
	if applied.Domain == "" {
		return errors.New("store update domain is required")
	}

	payload, err := json.Marshal(applied.Update)
	if err != nil {
		return errors.Wrap(err, "marshal store update")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	record, err := json.Marshal(Record{
		Index:   nextIndex,
		Seq:     applied.Seq,
		Domain:  applied.Domain,
		Time:    applied.Time,
		Payload: payload,
	})
	if err != nil {
		return errors.Wrap(err, "marshal journal record")
	}

	return s.wal.Write(nextIndex, keyPrefix+applied.Domain.String(), record)
}

// RecordsAfter returns all records written after the provided WAL index, oldest first.
func (s *WALStore) RecordsAfter(index uint64) ([]Record, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("store journal is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.wal.CurrentIndex() <= index {
		return nil, nil
	}

	var records []Record
	for msg := range s.wal.Iterator() {
		if !strings.HasPrefix(msg.Key, keyPrefix) {
			continue
		}
		var rec Record
		if err := json.Unmarshal(msg.Value, &rec); err != nil {
			return nil, errors.Wrap(err, "decode journal record")
		}
		if rec.Index <= index {
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

// CurrentIndex returns the latest WAL index stored.
func (s *WALStore) CurrentIndex() uint64 {
	if s == nil || s.wal == nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.wal.CurrentIndex()
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("store journal is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
