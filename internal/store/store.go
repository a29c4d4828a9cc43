// Package store defines the partition/row keyed entity store shared by the
// gateway and the local fallback.
package store

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrVersionConflict = errors.New("version conflict")
	ErrAlreadyExists   = errors.New("record already exists")
	ErrInvalidKey      = errors.New("kind, partition and row key are required")
	ErrKeyCharacters   = errors.New(`keys may not contain '/', '\', '#', '?' or '|'`)
)

// Record is the stored form of an entity. Kind names the entity type and
// scopes the keys: the same partition and row under two kinds are two
// records. Payload holds the entity JSON.
type Record struct {
	Kind         string
	PartitionKey string
	RowKey       string
	Version      int64
	Timestamp    time.Time
	Payload      []byte
}

// EntityStore is implemented by every backend.
//
// Get returns (nil, nil) when the record does not exist and Delete on a
// missing record is a no-op. List returns every record of the kind across
// all partitions. Put is insert-only and starts the record at version 1.
// Update succeeds only when the stored version equals expectedVersion, and
// bumps it by one.
type EntityStore interface {
	Put(ctx context.Context, rec *Record) error
	Get(ctx context.Context, kind, partition, row string) (*Record, error)
	List(ctx context.Context, kind string) ([]Record, error)
	Update(ctx context.Context, rec *Record, expectedVersion int64) error
	Delete(ctx context.Context, kind, partition, row string) error
}

const reservedKeyChars = `/\#?|`

// ValidateKeys rejects empty keys and keys holding the characters used to
// build composite backend keys.
func ValidateKeys(kind, partition, row string) error {
	if strings.TrimSpace(kind) == "" || strings.TrimSpace(partition) == "" || strings.TrimSpace(row) == "" {
		return ErrInvalidKey
	}
	for _, k := range []string{kind, partition, row} {
		if strings.ContainsAny(k, reservedKeyChars) {
			return ErrKeyCharacters
		}
	}
	return nil
}

// CompositeKey joins key parts with '|', which ValidateKeys keeps out of
// every part.
func CompositeKey(parts ...string) string {
	return strings.Join(parts, "|")
}

// Now is the clock used to stamp records.
var Now = func() time.Time { return time.Now().UTC() }
