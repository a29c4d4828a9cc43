// Package dynamo implements the entity store on a single DynamoDB table
// through TableTheory.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/theory-cloud/tabletheory"
	"github.com/theory-cloud/tabletheory/pkg/core"
	customerrors "github.com/theory-cloud/tabletheory/pkg/errors"

	"storefront/internal/store"
)

const defaultTable = "storefront-entities"

// EntityItem is the table row. PK is the entity kind and SK joins the
// partition and row keys, so one query reads every partition of a kind.
type EntityItem struct {
	PK           string    `theorydb:"pk" json:"pk"`
	SK           string    `theorydb:"sk" json:"sk"`
	PartitionKey string    `json:"partitionKey"`
	RowKey       string    `json:"rowKey"`
	Version      int64     `json:"version"`
	Timestamp    time.Time `json:"timestamp"`
	Payload      string    `json:"payload"`
}

func (EntityItem) TableName() string {
	if name := os.Getenv("DYNAMO_TABLE"); name != "" {
		return name
	}
	return defaultTable
}

type Options struct {
	Region   string
	Endpoint string
}

type Store struct {
	db core.DB
}

func New(db core.DB) *Store {
	return &Store{db: db}
}

// Connect opens the table and creates it when it does not exist. A custom
// endpoint (DynamoDB Local) is used with static dummy credentials.
func Connect(ctx context.Context, opts Options) (*Store, error) {
	cfg := tabletheory.Config{
		Region:   opts.Region,
		Endpoint: opts.Endpoint,
	}
	if opts.Endpoint != "" {
		cfg.AWSConfigOptions = []func(*config.LoadOptions) error{
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("dummy", "dummy", "")),
		}
	}
	db, err := tabletheory.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("init tabletheory: %w", err)
	}
	if err := db.EnsureTable(&EntityItem{}); err != nil {
		return nil, fmt.Errorf("ensure table: %w", err)
	}
	log.Printf("dynamo: using table %s", EntityItem{}.TableName())
	return &Store{db: db}, nil
}

func sortKey(partition, row string) string {
	return store.CompositeKey(partition, row)
}

func toItem(rec *store.Record) *EntityItem {
	return &EntityItem{
		PK:           rec.Kind,
		SK:           sortKey(rec.PartitionKey, rec.RowKey),
		PartitionKey: rec.PartitionKey,
		RowKey:       rec.RowKey,
		Version:      rec.Version,
		Timestamp:    rec.Timestamp,
		Payload:      string(rec.Payload),
	}
}

func toRecord(it EntityItem) store.Record {
	return store.Record{
		Kind:         it.PK,
		PartitionKey: it.PartitionKey,
		RowKey:       it.RowKey,
		Version:      it.Version,
		Timestamp:    it.Timestamp,
		Payload:      []byte(it.Payload),
	}
}

func (s *Store) Put(ctx context.Context, rec *store.Record) error {
	if err := store.ValidateKeys(rec.Kind, rec.PartitionKey, rec.RowKey); err != nil {
		return err
	}
	rec.Version = 1
	rec.Timestamp = store.Now()

	if err := s.db.WithContext(ctx).Model(toItem(rec)).IfNotExists().Create(); err != nil {
		if errors.Is(err, customerrors.ErrConditionFailed) {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("dynamo put %s/%s: %w", rec.PartitionKey, rec.RowKey, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, kind, partition, row string) (*store.Record, error) {
	var it EntityItem
	err := s.db.WithContext(ctx).Model(&EntityItem{}).
		Where("PK", "=", kind).
		Where("SK", "=", sortKey(partition, row)).
		First(&it)
	if err != nil {
		if customerrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("dynamo get %s %s/%s: %w", kind, partition, row, err)
	}
	rec := toRecord(it)
	return &rec, nil
}

func (s *Store) List(ctx context.Context, kind string) ([]store.Record, error) {
	var items []EntityItem
	err := s.db.WithContext(ctx).Model(&EntityItem{}).
		Where("PK", "=", kind).
		All(&items)
	if err != nil {
		return nil, fmt.Errorf("dynamo list %q: %w", kind, err)
	}

	out := make([]store.Record, 0, len(items))
	for _, it := range items {
		out = append(out, toRecord(it))
	}
	return out, nil
}

func (s *Store) Update(ctx context.Context, rec *store.Record, expectedVersion int64) error {
	if err := store.ValidateKeys(rec.Kind, rec.PartitionKey, rec.RowKey); err != nil {
		return err
	}
	existing, err := s.Get(ctx, rec.Kind, rec.PartitionKey, rec.RowKey)
	if err != nil {
		return err
	}
	if existing == nil {
		return store.ErrNotFound
	}

	next := *rec
	next.Version = expectedVersion + 1
	next.Timestamp = store.Now()

	err = s.db.WithContext(ctx).Model(toItem(&next)).
		WithCondition("Version", "=", expectedVersion).
		Update("Payload", "Version", "Timestamp")
	if err != nil {
		if errors.Is(err, customerrors.ErrConditionFailed) {
			return store.ErrVersionConflict
		}
		return fmt.Errorf("dynamo update %s/%s: %w", rec.PartitionKey, rec.RowKey, err)
	}
	*rec = next
	return nil
}

func (s *Store) Delete(ctx context.Context, kind, partition, row string) error {
	err := s.db.WithContext(ctx).Model(&EntityItem{PK: kind, SK: sortKey(partition, row)}).Delete()
	if err != nil && !customerrors.IsNotFound(err) {
		return fmt.Errorf("dynamo delete %s %s/%s: %w", kind, partition, row, err)
	}
	return nil
}
