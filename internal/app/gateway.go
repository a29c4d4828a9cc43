// Package app assembles the gateway and storefront engines from config.
package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"storefront/internal/blob"
	"storefront/internal/config"
	gatewayhttp "storefront/internal/controllers/http"
	"storefront/internal/infra/sqldb"
	"storefront/internal/services"
	"storefront/internal/store"
	"storefront/internal/store/dynamo"
	"storefront/internal/store/filestore"
	"storefront/internal/store/mongostore"
	"storefront/internal/store/sqlstore"
)

// Cleanup releases what a builder opened. It is never nil.
type Cleanup func()

// OpenEntityStore picks the backend named by cfg.StoreBackend.
func OpenEntityStore(ctx context.Context, cfg config.Config) (store.EntityStore, Cleanup, error) {
	noop := func() {}

	switch cfg.StoreBackend {
	case "dynamo":
		s, err := dynamo.Connect(ctx, dynamo.Options{Region: cfg.AWSRegion, Endpoint: cfg.DynamoEndpoint})
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	case "sql":
		db, err := sqldb.Open(cfg, &sqlstore.EntityRow{})
		if err != nil {
			return nil, noop, fmt.Errorf("sql store: %w", err)
		}
		return sqlstore.New(db), func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		}, nil
	case "mongo":
		s, client, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, noop, err
		}
		return s, func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(dctx); err != nil {
				log.Printf("mongo disconnect: %v", err)
			}
		}, nil
	case "file", "":
		s, err := filestore.Open(cfg.DataDir)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// OpenBlobStore returns the blob backend and, for local disk, the
// directory that should be served statically.
func OpenBlobStore(ctx context.Context, cfg config.Config) (blob.Store, string, error) {
	switch cfg.BlobBackend {
	case "s3":
		s, err := blob.NewS3StoreFromConfig(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Endpoint)
		if err != nil {
			return nil, "", err
		}
		return s, "", nil
	case "local", "":
		s := blob.NewLocalStore(cfg.BlobDir, cfg.BlobBaseURL)
		return s, s.Dir(), nil
	default:
		return nil, "", fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
	}
}

func newEngine(cfg config.Config) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:   []string{"Content-Length", "Content-Disposition"},
		MaxAge:          12 * time.Hour,
	}))
	return r
}

// Gateway builds the entity gateway engine with its routes under /api.
func Gateway(ctx context.Context, cfg config.Config) (*gin.Engine, Cleanup, error) {
	entities, cleanup, err := OpenEntityStore(ctx, cfg)
	if err != nil {
		return nil, cleanup, err
	}
	blobs, blobDir, err := OpenBlobStore(ctx, cfg)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}

	handler := gatewayhttp.NewHandler(
		services.NewCustomerService(entities),
		services.NewProductService(entities),
		services.NewOrderService(entities),
		blobs,
	)

	r := newEngine(cfg)
	if blobDir != "" {
		r.Static("/blobs", blobDir)
	}
	handler.RegisterRoutes(r.Group("/api"))

	log.Printf("gateway: store=%s blob=%s", cfg.StoreBackend, cfg.BlobBackend)
	return r, cleanup, nil
}
