package filestore

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/store"
)

func record(kind, partition, row string) *store.Record {
	return &store.Record{Kind: kind, PartitionKey: partition, RowKey: row, Payload: []byte(`{}`)}
}

func TestStore_ReadAfterWrite(t *testing.T) {
	ctx := context.Background()
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	rec := &store.Record{Kind: "customers", PartitionKey: "CUSTOMER", RowKey: "c1", Payload: []byte(`{"name":"Ann"}`)}
	require.NoError(t, s.Put(ctx, rec))
	assert.Equal(t, int64(1), rec.Version)

	got, err := s.Get(ctx, "customers", "CUSTOMER", "c1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.JSONEq(t, `{"name":"Ann"}`, string(got.Payload))

	got.Payload = []byte(`{"name":"Beth"}`)
	require.NoError(t, s.Update(ctx, got, 1))

	again, err := s.Get(ctx, "customers", "CUSTOMER", "c1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Beth"}`, string(again.Payload))
	assert.Equal(t, int64(2), again.Version)
}

func TestStore_Errors(t *testing.T) {
	ctx := context.Background()
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, record("products", "PRODUCTS", "p1")))

	err = s.Put(ctx, record("products", "PRODUCTS", "p1"))
	assert.ErrorIs(t, err, store.ErrAlreadyExists)

	err = s.Update(ctx, record("products", "PRODUCTS", "p1"), 7)
	assert.ErrorIs(t, err, store.ErrVersionConflict)

	err = s.Update(ctx, record("products", "PRODUCTS", "nope"), 1)
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = s.Put(ctx, record("products", "", "x"))
	assert.ErrorIs(t, err, store.ErrInvalidKey)

	err = s.Put(ctx, record("", "PRODUCTS", "x"))
	assert.ErrorIs(t, err, store.ErrInvalidKey)

	err = s.Put(ctx, record("products", "PRODUCTS", "a|b"))
	assert.ErrorIs(t, err, store.ErrKeyCharacters)

	missing, err := s.Get(ctx, "products", "PRODUCTS", "nope")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	assert.NoError(t, s.Delete(ctx, "products", "PRODUCTS", "nope"))
}

func TestStore_KindsAreSeparateKeySpaces(t *testing.T) {
	ctx := context.Background()
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, record("customers", "PRODUCTS", "x1")))
	require.NoError(t, s.Put(ctx, record("products", "PRODUCTS", "x1")))
	require.NoError(t, s.Put(ctx, record("customers", "VIP", "c2")))

	products, err := s.List(ctx, "products")
	require.NoError(t, err)
	assert.Len(t, products, 1)

	customers, err := s.List(ctx, "customers")
	require.NoError(t, err)
	require.Len(t, customers, 2)
	assert.Equal(t, "PRODUCTS", customers[0].PartitionKey)
	assert.Equal(t, "VIP", customers[1].PartitionKey)
}

func TestStore_ListAndPersistence(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, record("customers", "CUSTOMER", "c1")))
	require.NoError(t, s.Put(ctx, record("orders", "ORDERS", "o1")))
	require.NoError(t, s.Put(ctx, record("orders", "ARCHIVE", "o2")))
	require.NoError(t, s.Delete(ctx, "orders", "ORDERS", "o1"))

	assert.FileExists(t, filepath.Join(dir, "customers.json"))
	assert.FileExists(t, filepath.Join(dir, "orders.json"))

	reopened, err := Open(dir)
	require.NoError(t, err)

	customers, err := reopened.List(ctx, "customers")
	require.NoError(t, err)
	assert.Len(t, customers, 1)

	orders, err := reopened.List(ctx, "orders")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "o2", orders[0].RowKey)
	assert.Equal(t, "orders", orders[0].Kind)
}

func TestStore_FailedWriteLeavesMirrorUnchanged(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	rec := &store.Record{Kind: "products", PartitionKey: "PRODUCTS", RowKey: "p1", Payload: []byte(`{"stock":1}`)}
	require.NoError(t, s.Put(ctx, rec))

	// A directory where the temp file goes makes every write fail.
	blocker := filepath.Join(dir, "products.json.tmp")
	require.NoError(t, os.Mkdir(blocker, 0o755))

	err = s.Put(ctx, record("products", "PRODUCTS", "p2"))
	assert.Error(t, err)

	err = s.Update(ctx, &store.Record{Kind: "products", PartitionKey: "PRODUCTS", RowKey: "p1", Payload: []byte(`{"stock":9}`)}, 1)
	assert.Error(t, err)

	err = s.Delete(ctx, "products", "PRODUCTS", "p1")
	assert.Error(t, err)

	err = s.Put(ctx, record("orders", "ORDERS", "o1"))
	assert.NoError(t, err)

	all, err := s.List(ctx, "products")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, int64(1), all[0].Version)
	assert.JSONEq(t, `{"stock":1}`, string(all[0].Payload))

	missing, err := s.Get(ctx, "products", "PRODUCTS", "p2")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, os.Remove(blocker))
	assert.NoError(t, s.Put(ctx, record("products", "PRODUCTS", "p2")))
}

func TestStore_ConcurrentUpdatesSerialize(t *testing.T) {
	ctx := context.Background()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, record("products", "PRODUCTS", "p1")))

	var wg sync.WaitGroup
	results := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- s.Update(ctx, record("products", "PRODUCTS", "p1"), 1)
		}()
	}
	wg.Wait()
	close(results)

	ok := 0
	for err := range results {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, store.ErrVersionConflict)
		}
	}
	assert.Equal(t, 1, ok)
}

func TestOpen_RejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "products.json"), []byte("{not json"), 0o644))

	_, err := Open(dir)
	assert.Error(t, err)
}
