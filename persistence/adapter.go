// Package persistence saves and restores document snapshots through pluggable storage
// adapters.
package persistence

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"linmodel/common"
	"linmodel/core/doclog"
)

// Adapter stores serialized snapshots by document id.
type Adapter interface {
	// Save stores data under id, replacing what was there.
	Save(ctx context.Context, id common.DocumentID, data []byte) error

	// Load returns the data stored under id. A missing id yields an error whose cause is
	// common.ErrNotFound.
	Load(ctx context.Context, id common.DocumentID) ([]byte, error)

	// List returns the stored ids in no particular order.
	List(ctx context.Context) ([]common.DocumentID, error)

	// Delete removes id. Deleting a missing id is not an error.
	Delete(ctx context.Context, id common.DocumentID) error

	// Close releases the adapter. Clients handed in by the caller are left open.
	Close() error
}

// Options configures adapters and repositories.
type Options struct {
	// KeyPrefix namespaces keys in shared key-value stores.
	KeyPrefix string

	// Serializer encodes snapshots for a Repository.
	Serializer Serializer

	// Logger receives save and load events.
	Logger *zap.Logger
}

// Option changes Options.
type Option func(*Options)

// DefaultOptions returns the default options.
func DefaultOptions() *Options {
	return &Options{
		KeyPrefix:  "linmodel",
		Serializer: NewJSONSerializer(),
	}
}

func buildOptions(opts []Option) *Options {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	if options.Logger == nil {
		options.Logger = doclog.Named("persistence")
	}
	return options
}

// WithKeyPrefix sets the key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(o *Options) {
		o.KeyPrefix = prefix
	}
}

// WithSerializer sets the snapshot serializer.
func WithSerializer(s Serializer) Option {
	return func(o *Options) {
		o.Serializer = s
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

func documentKeyPrefix(prefix string) string {
	return prefix + ":doc:"
}

func documentKey(prefix string, id common.DocumentID) string {
	return documentKeyPrefix(prefix) + id.String()
}

func documentListKey(prefix string) string {
	return fmt.Sprintf("%s:docs", prefix)
}
