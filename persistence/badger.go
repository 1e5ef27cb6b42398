package persistence

import (
	"context"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"linmodel/common"
)

// BadgerAdapter stores snapshots in an embedded badger database it owns.
type BadgerAdapter struct {
	db     *badger.DB
	prefix string
}

// NewBadgerAdapter opens the database at path, or an in-memory one when inMemory is set.
// Badger refuses a directory in memory mode, so path is ignored then.
func NewBadgerAdapter(path string, inMemory bool, opts ...Option) (*BadgerAdapter, error) {
	options := buildOptions(opts)

	if inMemory {
		path = ""
	}
	badgerOpts := badger.DefaultOptions(path).WithInMemory(inMemory)
	badgerOpts.Logger = badgerLogger{options.Logger.Named("badger").Sugar()}
	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open badger")
	}
	return &BadgerAdapter{db: db, prefix: options.KeyPrefix}, nil
}

// Save implements Adapter.
func (a *BadgerAdapter) Save(ctx context.Context, id common.DocumentID, data []byte) error {
	err := a.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(documentKey(a.prefix, id)), data)
	})
	return errors.Wrap(mapBadgerError(err), "failed to save document")
}

// Load implements Adapter.
func (a *BadgerAdapter) Load(ctx context.Context, id common.DocumentID) ([]byte, error) {
	var data []byte
	err := a.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(documentKey(a.prefix, id)))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, errors.Wrapf(common.ErrNotFound, "document %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(mapBadgerError(err), "failed to load document")
	}
	return data, nil
}

// List implements Adapter.
func (a *BadgerAdapter) List(ctx context.Context) ([]common.DocumentID, error) {
	prefix := []byte(documentKeyPrefix(a.prefix))

	var ids []common.DocumentID
	err := a.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.PrefetchValues = false
		iterOpts.Prefix = prefix
		it := txn.NewIterator(iterOpts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			key := strings.TrimPrefix(string(it.Item().Key()), string(prefix))
			id, err := common.ParseDocumentID(key)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(mapBadgerError(err), "failed to list documents")
	}
	return ids, nil
}

// Delete implements Adapter.
func (a *BadgerAdapter) Delete(ctx context.Context, id common.DocumentID) error {
	err := a.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(documentKey(a.prefix, id)))
	})
	return errors.Wrap(mapBadgerError(err), "failed to delete document")
}

// Close implements Adapter.
func (a *BadgerAdapter) Close() error {
	return errors.Wrap(a.db.Close(), "failed to close badger")
}

func mapBadgerError(err error) error {
	if err == badger.ErrDBClosed {
		return common.ErrClosed
	}
	return err
}

// badgerLogger routes badger's log output through zap.
type badgerLogger struct {
	*zap.SugaredLogger
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.Warnf(format, args...)
}
