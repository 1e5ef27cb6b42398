package persistence

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"linmodel/common"
	"linmodel/config"
	"linmodel/docrange"
	"linmodel/document"
	"linmodel/linear"
	"linmodel/processor"
	"linmodel/transaction"
)

func sampleDoc(t *testing.T) *document.Document {
	items := []linear.Item{linear.NewElement("heading", map[string]interface{}{"level": "2"})}
	items = append(items, linear.TextToItems("Title")...)
	items = append(items, linear.CloseElement("heading"), linear.NewElement("paragraph", nil))
	items = append(items, linear.TextToItems("body")...)
	items = append(items, linear.CloseElement("paragraph"))
	doc, err := document.NewFromItems(items)
	require.NoError(t, err)

	p := processor.New()
	tx, err := transaction.NewFromAnnotation(doc, docrange.New(8, 12), common.AnnotationMethodSet, map[string]interface{}{"type": "textStyle/bold"})
	require.NoError(t, err)
	require.NoError(t, p.Commit(doc, tx))
	tx, err = transaction.NewFromMetadataInsertion(doc, 3, 0, []linear.Item{linear.NewElement("comment", map[string]interface{}{"text": "hi"})})
	require.NoError(t, err)
	require.NoError(t, p.Commit(doc, tx))
	return doc
}

func TestSnapshotRoundTrip(t *testing.T) {
	doc := sampleDoc(t)
	snapshot, err := NewSnapshot(doc, 7)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, snapshot.ID)
	assert.Equal(t, int64(7), snapshot.Version)
	assert.False(t, snapshot.SavedAt.IsZero())

	s := NewJSONSerializer()
	data, err := s.Serialize(snapshot)
	require.NoError(t, err)
	decoded, err := s.Deserialize(data)
	require.NoError(t, err)
	assert.Equal(t, snapshot.ID, decoded.ID)
	assert.Equal(t, snapshot.Version, decoded.Version)
	assert.True(t, snapshot.SavedAt.Equal(decoded.SavedAt))

	restored, err := Restore(decoded)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, restored.ID)
	assert.Equal(t, doc.Plain(), restored.Plain())
	assert.Equal(t, doc.Store().Hashes(), restored.Store().Hashes())
	assert.Len(t, restored.MetadataAt(3), 1)
}

func TestDeserializeErrors(t *testing.T) {
	s := NewJSONSerializer()

	_, err := s.Deserialize([]byte("{"))
	assert.Error(t, err)

	_, err = s.Deserialize([]byte(`{"length":2,"items":["a"]}`))
	assert.Error(t, err)

	_, err = s.Deserialize([]byte(`{"length":1,"items":["a"],"metadata":{"5":[]}}`))
	assert.IsType(t, common.ErrOutOfBounds{}, errors.Cause(err))
}

// testAdapter runs the behaviour every adapter shares.
func testAdapter(t *testing.T, a Adapter) {
	ctx := context.Background()
	first, second := common.NewDocumentID(), common.NewDocumentID()

	_, err := a.Load(ctx, first)
	assert.Equal(t, common.ErrNotFound, errors.Cause(err))

	require.NoError(t, a.Save(ctx, first, []byte("one")))
	require.NoError(t, a.Save(ctx, second, []byte("two")))
	require.NoError(t, a.Save(ctx, first, []byte("uno")))

	data, err := a.Load(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, []byte("uno"), data)

	ids, err := a.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []common.DocumentID{first, second}, ids)

	require.NoError(t, a.Delete(ctx, first))
	require.NoError(t, a.Delete(ctx, first))
	_, err = a.Load(ctx, first)
	assert.Equal(t, common.ErrNotFound, errors.Cause(err))

	ids, err = a.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []common.DocumentID{second}, ids)
}

func TestMemoryAdapter(t *testing.T) {
	a := NewMemoryAdapter()
	testAdapter(t, a)

	// Stored bytes are not aliased.
	ctx := context.Background()
	id := common.NewDocumentID()
	data := []byte("abc")
	require.NoError(t, a.Save(ctx, id, data))
	data[0] = 'x'
	loaded, err := a.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), loaded)

	require.NoError(t, a.Close())
	assert.Equal(t, common.ErrClosed, a.Save(ctx, id, data))
	_, err = a.List(ctx)
	assert.Equal(t, common.ErrClosed, err)
}

func TestBadgerAdapter(t *testing.T) {
	a, err := NewBadgerAdapter("", true, WithLogger(zap.NewNop()))
	require.NoError(t, err)
	testAdapter(t, a)
	require.NoError(t, a.Close())

	err = a.Save(context.Background(), common.NewDocumentID(), []byte("x"))
	assert.Equal(t, common.ErrClosed, errors.Cause(err))
}

func TestBadgerAdapterOnDisk(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	id := common.NewDocumentID()

	a, err := NewBadgerAdapter(dir, false, WithLogger(zap.NewNop()), WithKeyPrefix("test"))
	require.NoError(t, err)
	require.NoError(t, a.Save(ctx, id, []byte("kept")))
	require.NoError(t, a.Close())

	a, err = NewBadgerAdapter(dir, false, WithLogger(zap.NewNop()), WithKeyPrefix("test"))
	require.NoError(t, err)
	defer a.Close()
	data, err := a.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("kept"), data)
}

func TestRepository(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	repo := NewRepository(NewMemoryAdapter(), WithLogger(zap.New(core)))
	ctx := context.Background()
	doc := sampleDoc(t)

	_, err := repo.Save(ctx, doc, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("saved snapshot").Len())

	loaded, version, err := repo.Load(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), version)
	assert.Equal(t, doc.Plain(), loaded.Plain())

	// The restored document accepts further edits.
	tx, err := transaction.NewFromInsertion(loaded, 1, linear.TextToItems("A "))
	require.NoError(t, err)
	require.NoError(t, processor.New().Commit(loaded, tx))

	ids, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []common.DocumentID{doc.ID}, ids)

	require.NoError(t, repo.Delete(ctx, doc.ID))
	_, _, err = repo.Load(ctx, doc.ID)
	assert.Equal(t, common.ErrNotFound, errors.Cause(err))
	assert.Equal(t, 0, logs.FilterMessage("failed to load snapshot").Len())
	require.NoError(t, repo.Close())
}

func TestOpenAdapter(t *testing.T) {
	ctx := context.Background()

	a, err := OpenAdapter(ctx, config.Storage{Backend: config.BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryAdapter{}, a)

	a, err = OpenAdapter(ctx, config.Storage{Backend: config.BackendBadger, Badger: config.Badger{InMemory: true}}, WithLogger(zap.NewNop()))
	require.NoError(t, err)
	assert.IsType(t, &BadgerAdapter{}, a)
	require.NoError(t, a.Close())

	_, err = OpenAdapter(ctx, config.Storage{Backend: "sqlite"})
	assert.Error(t, err)
}

func TestOpenAdapterFromConfig(t *testing.T) {
	ctx := context.Background()

	// The default badger path must not stop an in-memory database from opening.
	cfg, err := config.Parse([]byte(`
storage:
  backend: badger
  badger:
    in_memory: true
`))
	require.NoError(t, err)
	require.NotEmpty(t, cfg.Storage.Badger.Path)
	a, err := OpenAdapter(ctx, cfg.Storage, WithLogger(zap.NewNop()))
	require.NoError(t, err)
	testAdapter(t, a)
	require.NoError(t, a.Close())

	// A failed open returns a nil interface, not a typed nil.
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
	a, err = OpenAdapter(ctx, config.Storage{
		Backend: config.BackendBadger,
		Badger:  config.Badger{Path: filepath.Join(file, "db")},
	}, WithLogger(zap.NewNop()))
	assert.Error(t, err)
	assert.True(t, a == nil)
}

func TestRedisAdapter(t *testing.T) {
	addr := os.Getenv("LINMODEL_REDIS_ADDR")
	if addr == "" {
		t.Skip("LINMODEL_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, client.Ping(ctx).Err())

	prefix := "linmodel-test-" + uuid.NewString()
	a := NewRedisAdapter(client, WithKeyPrefix(prefix))
	testAdapter(t, a)
	require.NoError(t, client.Del(ctx, documentListKey(prefix)).Err())
	require.NoError(t, a.Close())
	// The client was handed in, so it stays usable.
	assert.NoError(t, client.Ping(ctx).Err())
}

func TestMongoAdapter(t *testing.T) {
	uri := os.Getenv("LINMODEL_MONGO_URI")
	if uri == "" {
		t.Skip("LINMODEL_MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	defer client.Disconnect(ctx)

	collection := client.Database("linmodel_test").Collection("snapshots_" + uuid.NewString())
	defer collection.Drop(ctx)
	testAdapter(t, NewMongoAdapter(collection))
}
