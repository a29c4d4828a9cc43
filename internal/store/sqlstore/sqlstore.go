// Package sqlstore implements the entity store on a relational table via gorm.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"storefront/internal/store"
)

// EntityRow is one record. The primary key is (kind, partition_key, row_key).
type EntityRow struct {
	Kind         string    `gorm:"primaryKey;size:50"`
	PartitionKey string    `gorm:"primaryKey;size:100"`
	RowKey       string    `gorm:"primaryKey;size:100"`
	Version      int64     `gorm:"not null"`
	Timestamp    time.Time `gorm:"not null"`
	Payload      []byte    `gorm:"not null"`
}

func (EntityRow) TableName() string {
	return "entities"
}

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Put(ctx context.Context, rec *store.Record) error {
	if err := store.ValidateKeys(rec.Kind, rec.PartitionKey, rec.RowKey); err != nil {
		return err
	}
	rec.Version = 1
	rec.Timestamp = store.Now()

	row := EntityRow{
		Kind:         rec.Kind,
		PartitionKey: rec.PartitionKey,
		RowKey:       rec.RowKey,
		Version:      rec.Version,
		Timestamp:    rec.Timestamp,
		Payload:      rec.Payload,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return store.ErrAlreadyExists
		}
		log.Printf("sqlstore put error: %v", err)
		return err
	}
	return nil
}

func (s *Store) Get(ctx context.Context, kind, partition, row string) (*store.Record, error) {
	var r EntityRow
	err := s.db.WithContext(ctx).
		Where("kind = ? AND partition_key = ? AND row_key = ?", kind, partition, row).
		First(&r).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		log.Printf("sqlstore get error: %v", err)
		return nil, err
	}
	rec := toRecord(r)
	return &rec, nil
}

func (s *Store) List(ctx context.Context, kind string) ([]store.Record, error) {
	var rows []EntityRow
	err := s.db.WithContext(ctx).
		Where("kind = ?", kind).
		Order("timestamp ASC").
		Find(&rows).Error
	if err != nil {
		log.Printf("sqlstore list error: %v", err)
		return nil, err
	}
	out := make([]store.Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, toRecord(r))
	}
	return out, nil
}

func (s *Store) Update(ctx context.Context, rec *store.Record, expectedVersion int64) error {
	if err := store.ValidateKeys(rec.Kind, rec.PartitionKey, rec.RowKey); err != nil {
		return err
	}
	now := store.Now()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&EntityRow{}).
			Where("kind = ? AND partition_key = ? AND row_key = ? AND version = ?", rec.Kind, rec.PartitionKey, rec.RowKey, expectedVersion).
			Updates(map[string]any{
				"payload":   rec.Payload,
				"version":   expectedVersion + 1,
				"timestamp": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&EntityRow{}).
				Where("kind = ? AND partition_key = ? AND row_key = ?", rec.Kind, rec.PartitionKey, rec.RowKey).
				Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return store.ErrNotFound
			}
			return fmt.Errorf("%w: %s/%s", store.ErrVersionConflict, rec.PartitionKey, rec.RowKey)
		}
		rec.Version = expectedVersion + 1
		rec.Timestamp = now
		return nil
	})
}

func (s *Store) Delete(ctx context.Context, kind, partition, row string) error {
	err := s.db.WithContext(ctx).
		Where("kind = ? AND partition_key = ? AND row_key = ?", kind, partition, row).
		Delete(&EntityRow{}).Error
	if err != nil {
		log.Printf("sqlstore delete error: %v", err)
	}
	return err
}

func toRecord(r EntityRow) store.Record {
	return store.Record{
		Kind:         r.Kind,
		PartitionKey: r.PartitionKey,
		RowKey:       r.RowKey,
		Version:      r.Version,
		Timestamp:    r.Timestamp,
		Payload:      r.Payload,
	}
}
