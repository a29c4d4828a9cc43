package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"storefront/internal/apiclient"
	"storefront/internal/auth"
	"storefront/internal/blob"
	"storefront/internal/cart"
	"storefront/internal/checkout"
	"storefront/internal/config"
	"storefront/internal/controllers/web"
	"storefront/internal/domain"
	"storefront/internal/infra"
	"storefront/internal/infra/notify"
	"storefront/internal/infra/rabbitmq"
	"storefront/internal/infra/sqldb"
	mysqlrepo "storefront/internal/repository/mysql"
)

const eventExchange = "storefront.events"

const devJWTSecret = "dev-only-secret"

// NewAPIClient chooses the gateway client according to cfg.FallbackMode:
// "off" uses only the gateway, "only" uses only the local store and
// "auto" falls back to the local store when the gateway is unreachable.
func NewAPIClient(ctx context.Context, cfg config.Config) (apiclient.API, error) {
	remote := apiclient.NewHTTPClient(cfg.GatewayBaseURL, cfg.GatewayTimeout)
	if cfg.FallbackMode == "off" {
		return remote, nil
	}

	local, err := apiclient.OpenLocal(ctx, cfg.DataDir, blob.NewLocalStore(cfg.BlobDir, cfg.BlobBaseURL))
	if err != nil {
		return nil, fmt.Errorf("open local fallback store: %w", err)
	}

	switch cfg.FallbackMode {
	case "only":
		log.Printf("storefront: serving from local store in %s", cfg.DataDir)
		return local, nil
	case "auto", "":
		return apiclient.NewResilient(remote, local), nil
	default:
		return nil, fmt.Errorf("unknown fallback mode %q", cfg.FallbackMode)
	}
}

func newRedisClient(ctx context.Context, host string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         host + ":6379",
		DB:           0,
		PoolSize:     50,
		MinIdleConns: 5,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// Storefront builds the shopper and admin engine. The returned checkout
// service must be drained with Wait before exit.
func Storefront(ctx context.Context, cfg config.Config) (*gin.Engine, *checkout.Service, Cleanup, error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	secret := cfg.JWTSecret
	if secret == "" {
		if cfg.IsProduction() {
			return nil, nil, cleanup, errors.New("JWT_SECRET is required in production")
		}
		log.Printf("storefront: JWT_SECRET not set, using development secret")
		secret = devJWTSecret
	}

	client, err := NewAPIClient(ctx, cfg)
	if err != nil {
		return nil, nil, cleanup, err
	}

	db, err := sqldb.Open(cfg, &domain.User{})
	if err != nil {
		return nil, nil, cleanup, fmt.Errorf("auth database: %w", err)
	}
	closers = append(closers, func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	var sessions cart.SessionStore = cart.NewMemoryStore()
	var rdb *redis.Client
	if cfg.RedisHost != "" {
		rdb, err = newRedisClient(ctx, cfg.RedisHost)
		if err != nil {
			log.Printf("storefront: redis unavailable, carts kept in memory: %v", err)
		} else {
			sessions = cart.NewRedisStore(rdb, cfg.SessionTTL)
			closers = append(closers, func() { rdb.Close() })
		}
	}

	hub := notify.NewHub()
	publishers := infra.FanOut{hub}
	if cfg.RabbitMQURL != "" {
		pub, err := rabbitmq.NewPublisher(cfg.RabbitMQURL, eventExchange)
		if err != nil {
			log.Printf("storefront: rabbitmq unavailable, events go to the live feed only: %v", err)
		} else {
			publishers = append(publishers, pub)
			closers = append(closers, pub.Close)
		}
	}

	carts := cart.NewManager(sessions, client)
	co := checkout.NewService(client, carts, publishers)
	if rdb != nil {
		co.SetRedisClient(rdb)
	}

	tokens := auth.NewTokenIssuer(secret, cfg.TokenTTL)
	authSvc := auth.NewService(mysqlrepo.NewUserRepository(db), client, tokens, cfg.LegacyPasswordMigration)

	r := newEngine(cfg)
	web.NewHandler(client, authSvc, tokens, carts, co, hub).RegisterRoutes(r)
	return r, co, cleanup, nil
}
