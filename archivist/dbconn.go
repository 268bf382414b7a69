package archivist

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// connectBackOff is the retry policy for archive backends that may still be starting up
// (docker compose brings them up next to the service).
func connectBackOff(ctx context.Context) backoff.BackOff {
	bf := backoff.NewExponentialBackOff()
	bf.InitialInterval = 2 * time.Second
	bf.MaxInterval = 25 * time.Second
	bf.MaxElapsedTime = 90 * time.Second

	return backoff.WithContext(bf, ctx)
}

func connectToPG(ctx context.Context, dsn string, log *slog.Logger) (*gorm.DB, error) {
	return backoff.RetryWithData[*gorm.DB](func() (*gorm.DB, error) {
		conn, err := gorm.Open(postgres.New(postgres.Config{
			DSN: dsn,
		}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
		if err != nil {
			log.Info("Postgres not yet ready...", "error", err)
			return nil, err
		}
		log.Info("Connected to Postgres!")
		return conn, nil
	}, connectBackOff(ctx))
}

func connectToRedis(ctx context.Context, addr string, log *slog.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	err := backoff.Retry(func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := client.Ping(pingCtx).Err(); err != nil {
			log.Info("Redis not yet ready...", "error", err)
			return err
		}
		log.Info("Connected to Redis!")
		return nil
	}, connectBackOff(ctx))
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}
