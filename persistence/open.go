package persistence

import (
	"context"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"linmodel/config"
)

// OpenAdapter creates the adapter selected by cfg. Clients it opens are closed with the
// adapter. Redis and mongo connections are checked before returning.
func OpenAdapter(ctx context.Context, cfg config.Storage, opts ...Option) (Adapter, error) {
	switch cfg.Backend {
	case config.BackendMemory, "":
		return NewMemoryAdapter(), nil
	case config.BackendBadger:
		a, err := NewBadgerAdapter(cfg.Badger.Path, cfg.Badger.InMemory, opts...)
		if err != nil {
			return nil, err
		}
		return a, nil
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, errors.Wrap(err, "failed to connect to redis")
		}
		if cfg.Redis.KeyPrefix != "" {
			opts = append(opts, WithKeyPrefix(cfg.Redis.KeyPrefix))
		}
		a := NewRedisAdapter(client, opts...)
		a.owned = true
		return a, nil
	case config.BackendMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			return nil, errors.Wrap(err, "failed to connect to mongo")
		}
		if err := client.Ping(ctx, nil); err != nil {
			client.Disconnect(ctx)
			return nil, errors.Wrap(err, "failed to ping mongo")
		}
		a := NewMongoAdapter(client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection))
		a.client = client
		return a, nil
	}
	return nil, errors.Errorf("unsupported storage backend %q", cfg.Backend)
}
