// Package filestore keeps entity records in JSON files, one array per
// entity kind, with an in-memory mirror guarded by a lock.
package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"storefront/internal/store"
)

type fileRecord struct {
	PartitionKey string          `json:"partitionKey"`
	RowKey       string          `json:"rowKey"`
	Version      int64           `json:"version"`
	Timestamp    time.Time       `json:"timestamp"`
	Data         json.RawMessage `json:"data"`
}

type Store struct {
	dir   string
	mu    sync.RWMutex
	kinds map[string][]store.Record
}

// Open loads every <kind>.json file under dir. The directory is created if
// it does not exist.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	s := &Store{dir: dir, kinds: map[string][]store.Record{}}

	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if err := s.load(f); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) load(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return nil
	}
	var recs []fileRecord
	if err := json.Unmarshal(b, &recs); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	kind := strings.TrimSuffix(filepath.Base(path), ".json")
	for _, r := range recs {
		s.kinds[kind] = append(s.kinds[kind], store.Record{
			Kind:         kind,
			PartitionKey: r.PartitionKey,
			RowKey:       r.RowKey,
			Version:      r.Version,
			Timestamp:    r.Timestamp,
			Payload:      []byte(r.Data),
		})
	}
	log.Printf("filestore: loaded %d records from %s", len(recs), filepath.Base(path))
	return nil
}

func (s *Store) indexLocked(kind, partition, row string) int {
	for i, r := range s.kinds[kind] {
		if r.PartitionKey == partition && r.RowKey == row {
			return i
		}
	}
	return -1
}

// flushLocked rewrites the file of one kind through a temp file and rename.
func (s *Store) flushLocked(kind string) error {
	out := make([]fileRecord, 0, len(s.kinds[kind]))
	for _, r := range s.kinds[kind] {
		out = append(out, fileRecord{
			PartitionKey: r.PartitionKey,
			RowKey:       r.RowKey,
			Version:      r.Version,
			Timestamp:    r.Timestamp,
			Data:         json.RawMessage(r.Payload),
		})
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	name := kind + ".json"
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

// commitLocked installs next as the records of kind and flushes it. When
// the flush fails the previous records are restored.
func (s *Store) commitLocked(kind string, next []store.Record) error {
	prev, existed := s.kinds[kind]
	s.kinds[kind] = next
	if err := s.flushLocked(kind); err != nil {
		if existed {
			s.kinds[kind] = prev
		} else {
			delete(s.kinds, kind)
		}
		return err
	}
	return nil
}

func clone(r store.Record) store.Record {
	r.Payload = append([]byte(nil), r.Payload...)
	return r
}

// without returns a copy of recs with element i removed, leaving recs intact.
func without(recs []store.Record, i int) []store.Record {
	out := make([]store.Record, 0, len(recs)-1)
	out = append(out, recs[:i]...)
	return append(out, recs[i+1:]...)
}

func (s *Store) Put(ctx context.Context, rec *store.Record) error {
	if err := store.ValidateKeys(rec.Kind, rec.PartitionKey, rec.RowKey); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexLocked(rec.Kind, rec.PartitionKey, rec.RowKey) >= 0 {
		return store.ErrAlreadyExists
	}
	stored := clone(*rec)
	stored.Version = 1
	stored.Timestamp = store.Now()

	cur := s.kinds[rec.Kind]
	next := append(cur[:len(cur):len(cur)], stored)
	if err := s.commitLocked(rec.Kind, next); err != nil {
		return err
	}
	rec.Version, rec.Timestamp = stored.Version, stored.Timestamp
	return nil
}

func (s *Store) Get(ctx context.Context, kind, partition, row string) (*store.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexLocked(kind, partition, row)
	if i < 0 {
		return nil, nil
	}
	r := clone(s.kinds[kind][i])
	return &r, nil
}

func (s *Store) List(ctx context.Context, kind string) ([]store.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.Record, 0, len(s.kinds[kind]))
	for _, r := range s.kinds[kind] {
		out = append(out, clone(r))
	}
	return out, nil
}

func (s *Store) Update(ctx context.Context, rec *store.Record, expectedVersion int64) error {
	if err := store.ValidateKeys(rec.Kind, rec.PartitionKey, rec.RowKey); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(rec.Kind, rec.PartitionKey, rec.RowKey)
	if i < 0 {
		return store.ErrNotFound
	}
	cur := s.kinds[rec.Kind]
	if cur[i].Version != expectedVersion {
		return store.ErrVersionConflict
	}
	stored := clone(*rec)
	stored.Version = expectedVersion + 1
	stored.Timestamp = store.Now()

	next := append([]store.Record(nil), cur...)
	next[i] = stored
	if err := s.commitLocked(rec.Kind, next); err != nil {
		return err
	}
	rec.Version, rec.Timestamp = stored.Version, stored.Timestamp
	return nil
}

func (s *Store) Delete(ctx context.Context, kind, partition, row string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(kind, partition, row)
	if i < 0 {
		return nil
	}
	return s.commitLocked(kind, without(s.kinds[kind], i))
}
