package persistence

import (
	"context"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"linmodel/common"
)

// RedisAdapter stores snapshots as string keys and tracks their ids in a set.
type RedisAdapter struct {
	client    *redis.Client
	keyPrefix string
	owned     bool
}

// NewRedisAdapter creates an adapter over client. The client stays owned by the caller.
func NewRedisAdapter(client *redis.Client, opts ...Option) *RedisAdapter {
	options := buildOptions(opts)
	return &RedisAdapter{client: client, keyPrefix: options.KeyPrefix}
}

// Save implements Adapter.
func (a *RedisAdapter) Save(ctx context.Context, id common.DocumentID, data []byte) error {
	_, err := a.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, documentKey(a.keyPrefix, id), data, 0)
		pipe.SAdd(ctx, documentListKey(a.keyPrefix), id.String())
		return nil
	})
	return errors.Wrap(mapRedisError(err), "failed to save document")
}

// Load implements Adapter.
func (a *RedisAdapter) Load(ctx context.Context, id common.DocumentID) ([]byte, error) {
	data, err := a.client.Get(ctx, documentKey(a.keyPrefix, id)).Bytes()
	if err == redis.Nil {
		return nil, errors.Wrapf(common.ErrNotFound, "document %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(mapRedisError(err), "failed to load document")
	}
	return data, nil
}

// List implements Adapter.
func (a *RedisAdapter) List(ctx context.Context) ([]common.DocumentID, error) {
	members, err := a.client.SMembers(ctx, documentListKey(a.keyPrefix)).Result()
	if err != nil {
		return nil, errors.Wrap(mapRedisError(err), "failed to list documents")
	}
	ids := make([]common.DocumentID, 0, len(members))
	for _, member := range members {
		id, err := common.ParseDocumentID(member)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Delete implements Adapter.
func (a *RedisAdapter) Delete(ctx context.Context, id common.DocumentID) error {
	_, err := a.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, documentKey(a.keyPrefix, id))
		pipe.SRem(ctx, documentListKey(a.keyPrefix), id.String())
		return nil
	})
	return errors.Wrap(mapRedisError(err), "failed to delete document")
}

// Close implements Adapter. Only clients opened by OpenAdapter are closed.
func (a *RedisAdapter) Close() error {
	if !a.owned {
		return nil
	}
	return a.client.Close()
}

func mapRedisError(err error) error {
	if err == redis.ErrClosed {
		return common.ErrClosed
	}
	return err
}
