package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/apiclient"
	"storefront/internal/config"
)

func testConfig(t *testing.T) config.Config {
	cfg := config.Defaults()
	dir := t.TempDir()
	cfg.DataDir = filepath.Join(dir, "data")
	cfg.BlobDir = filepath.Join(dir, "blobs")
	return cfg
}

func TestOpenEntityStore_UnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.StoreBackend = "cassandra"

	_, cleanup, err := OpenEntityStore(context.Background(), cfg)

	assert.Error(t, err)
	assert.NotNil(t, cleanup)
}

func TestGateway_FileBackend(t *testing.T) {
	r, cleanup, err := Gateway(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer cleanup()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":[],"message":""}`, w.Body.String())
}

func TestNewAPIClient_Modes(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		mode    string
		check   func(*testing.T, apiclient.API)
		wantErr bool
	}{
		{mode: "off", check: func(t *testing.T, c apiclient.API) { assert.IsType(t, &apiclient.HTTPClient{}, c) }},
		{mode: "only", check: func(t *testing.T, c apiclient.API) { assert.IsType(t, &apiclient.Local{}, c) }},
		{mode: "auto", check: func(t *testing.T, c apiclient.API) { assert.IsType(t, &apiclient.Resilient{}, c) }},
		{mode: "sometimes", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.FallbackMode = tt.mode

			c, err := NewAPIClient(ctx, cfg)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, c)
		})
	}
}
