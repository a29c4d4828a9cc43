package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"storefront/internal/domain"
	"storefront/internal/store"
)

// Entity is satisfied by pointers to the domain entities.
type Entity[T any] interface {
	*T
	domain.Keyed
}

// EntityRepository maps one entity type onto its kind in the entity store.
// Keys and version always come from the stored record, not from the payload.
type EntityRepository[T any, PT Entity[T]] struct {
	store     store.EntityStore
	kind      string
	partition string
}

// NewEntityRepository binds the repository to kind. partition is used for
// entities created without one.
func NewEntityRepository[T any, PT Entity[T]](s store.EntityStore, kind, partition string) *EntityRepository[T, PT] {
	return &EntityRepository[T, PT]{store: s, kind: kind, partition: partition}
}

// Create assigns the default partition and a fresh row key when they are
// empty. Caller supplied keys are kept as given, within this kind.
func (r *EntityRepository[T, PT]) Create(ctx context.Context, e PT) error {
	partition, row := e.Keys()
	if strings.TrimSpace(partition) == "" {
		partition = r.partition
	}
	if strings.TrimSpace(row) == "" {
		row = uuid.NewString()
	}
	e.SetKeys(partition, row)

	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode %s: %w", partition, err)
	}
	rec := &store.Record{Kind: r.kind, PartitionKey: partition, RowKey: row, Payload: payload}
	if err := r.store.Put(ctx, rec); err != nil {
		return err
	}
	e.SetMeta(rec.Version, rec.Timestamp)
	return nil
}

// Get returns nil, nil when the entity does not exist. An empty partition
// tries the repository default first, then the row key in any partition
// of the kind.
func (r *EntityRepository[T, PT]) Get(ctx context.Context, partition, row string) (PT, error) {
	rec, err := r.locate(ctx, partition, row)
	if err != nil || rec == nil {
		return nil, err
	}
	return decode[T, PT](*rec)
}

func (r *EntityRepository[T, PT]) locate(ctx context.Context, partition, row string) (*store.Record, error) {
	if partition != "" {
		return r.store.Get(ctx, r.kind, partition, row)
	}
	rec, err := r.store.Get(ctx, r.kind, r.partition, row)
	if err != nil || rec != nil {
		return rec, err
	}
	recs, err := r.store.List(ctx, r.kind)
	if err != nil {
		return nil, err
	}
	for i := range recs {
		if recs[i].RowKey == row {
			return &recs[i], nil
		}
	}
	return nil, nil
}

// List returns the entities of every partition of the kind.
func (r *EntityRepository[T, PT]) List(ctx context.Context) ([]PT, error) {
	recs, err := r.store.List(ctx, r.kind)
	if err != nil {
		return nil, err
	}
	out := make([]PT, 0, len(recs))
	for _, rec := range recs {
		e, err := decode[T, PT](rec)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Update writes e when its Version still matches the stored one. An empty
// partition is resolved the way Get resolves it. On success e carries the
// new version.
func (r *EntityRepository[T, PT]) Update(ctx context.Context, e PT, expectedVersion int64) error {
	partition, row := e.Keys()
	if partition == "" {
		rec, err := r.locate(ctx, "", row)
		if err != nil {
			return err
		}
		if rec == nil {
			return store.ErrNotFound
		}
		partition = rec.PartitionKey
		e.SetKeys(partition, row)
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode %s: %w", partition, err)
	}
	rec := &store.Record{Kind: r.kind, PartitionKey: partition, RowKey: row, Payload: payload}
	if err := r.store.Update(ctx, rec, expectedVersion); err != nil {
		return err
	}
	e.SetMeta(rec.Version, rec.Timestamp)
	return nil
}

func (r *EntityRepository[T, PT]) Delete(ctx context.Context, partition, row string) error {
	rec, err := r.locate(ctx, partition, row)
	if err != nil || rec == nil {
		return err
	}
	return r.store.Delete(ctx, r.kind, rec.PartitionKey, rec.RowKey)
}

func decode[T any, PT Entity[T]](rec store.Record) (PT, error) {
	e := PT(new(T))
	if err := json.Unmarshal(rec.Payload, e); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", rec.PartitionKey, rec.RowKey, err)
	}
	e.SetKeys(rec.PartitionKey, rec.RowKey)
	e.SetMeta(rec.Version, rec.Timestamp)
	return e, nil
}
