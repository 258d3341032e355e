package store

import (
	"context"
	"os"
	"path/filepath"

	"github.com/go-go-golems/docqa/pkg/settings"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Open creates the store selected by s.Driver.
func Open(ctx context.Context, s settings.StoreSettings) (Store, error) {
	log.Debug().Str("driver", s.Driver).Msg("Opening conversation store")

	switch s.Driver {
	case settings.DriverMemory:
		return NewInMemoryStore(), nil

	case settings.DriverSQLite:
		if dir := filepath.Dir(s.Path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, errors.Wrap(err, "create store directory")
			}
		}
		dsn, err := SQLiteDSNForFile(s.Path)
		if err != nil {
			return nil, err
		}
		return NewSQLiteStore(dsn)

	case settings.DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     s.RedisAddr,
			Password: s.RedisPassword,
			DB:       s.RedisDB,
		})
		prefix := s.RedisPrefix
		if prefix == "" {
			prefix = DefaultRedisPrefix
		}
		ret, err := NewRedisStore(ctx, client, WithRedisPrefix(prefix))
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		return ret, nil
	}

	return nil, errors.Wrapf(ErrUnknownDriver, "%q", s.Driver)
}
