package domain

import "time"

// Entity kinds. Each kind has its own key space in the entity store.
const (
	CustomerKind = "customers"
	ProductKind  = "products"
	OrderKind    = "orders"
)

// Default partitions within each kind.
const (
	CustomerPartition = "CUSTOMER"
	ProductPartition  = "PRODUCTS"
	OrderPartition    = "ORDERS"
)

// Entity carries the table keys and concurrency token shared by every
// durable record.
type Entity struct {
	PartitionKey string    `json:"partitionKey"`
	RowKey       string    `json:"rowKey"`
	Version      int64     `json:"version"`
	Timestamp    time.Time `json:"timestamp"`
}

func (e *Entity) Keys() (string, string) {
	return e.PartitionKey, e.RowKey
}

func (e *Entity) SetKeys(partition, row string) {
	e.PartitionKey = partition
	e.RowKey = row
}

func (e *Entity) CurrentVersion() int64 {
	return e.Version
}

func (e *Entity) SetMeta(version int64, ts time.Time) {
	e.Version = version
	e.Timestamp = ts
}

// Keyed is implemented by every entity stored through the entity store.
type Keyed interface {
	Keys() (string, string)
	SetKeys(partition, row string)
	CurrentVersion() int64
	SetMeta(version int64, ts time.Time)
}
