package app

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"github.com/oggyb/hire-match/internal/cache"
	"github.com/oggyb/hire-match/internal/logger"
)

// AppContext carries the handles every service needs: the gorm pool, the
// notification counter cache and the process logger.
type AppContext struct {
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
}

func New(database *gorm.DB, counters *cache.RedisCache, log *slog.Logger) *AppContext {
	return &AppContext{
		DB:         database,
		RedisCache: counters,
		Logger:     log,
	}
}

// Log returns the request-scoped logger carried by ctx, falling back to Logger.
func (a *AppContext) Log(ctx context.Context) *slog.Logger {
	return logger.FromContext(ctx, a.Logger)
}

// InTx runs fn inside one database transaction bound to ctx.
// A non-nil error from fn rolls back every statement fn issued on tx.
func (a *AppContext) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return a.DB.WithContext(ctx).Transaction(fn)
}

// Close releases the Redis client and the SQL pool.
func (a *AppContext) Close() error {
	var errs []error
	if a.RedisCache != nil {
		if err := a.RedisCache.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err != nil {
			errs = append(errs, err)
		} else if err := sqlDB.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
