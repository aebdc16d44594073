package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"support_back_end/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
)

// Clients : connexions partagées, construites une fois au démarrage et
// injectées dans les composants — pas de singletons ambiants
type Clients struct {
	DB    *pgxpool.Pool
	Redis *redis.Client
	Minio *minio.Client
}

func Connect(ctx context.Context, cfg config.Config) (*Clients, error) {
	pool, err := connectPostgres(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	rdb, err := connectRedis(ctx, cfg)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("redis: %w", err)
	}

	mc, err := connectMinIO(ctx, cfg)
	if err != nil {
		pool.Close()
		rdb.Close()
		return nil, fmt.Errorf("minio: %w", err)
	}

	log.Println("✅ Toutes les connexions sont établies")
	return &Clients{DB: pool, Redis: rdb, Minio: mc}, nil
}

func (c *Clients) Close() {
	if c.DB != nil {
		c.DB.Close()
	}
	if c.Redis != nil {
		c.Redis.Close()
	}
	log.Println("👋 Connexions fermées")
}

func connectPostgres(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	// Pool borné : seule ressource mutable partagée entre requêtes
	pcfg.MaxConns = 10
	pcfg.MinConns = 1
	pcfg.MaxConnIdleTime = 5 * time.Minute
	pcfg.ConnConfig.ConnectTimeout = 10 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	log.Println("✅ PostgreSQL connecté")
	return pool, nil
}

func connectRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	log.Println("✅ Redis connecté")
	return rdb, nil
}

func connectMinIO(ctx context.Context, cfg config.Config) (*minio.Client, error) {
	mc, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, err
	}

	exists, err := mc.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := mc.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
		log.Printf("📦 Bucket MinIO créé: %s", cfg.MinioBucket)
	}

	log.Println("✅ MinIO connecté")
	return mc, nil
}
