package persistence

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"linmodel/common"
)

// MongoAdapter stores one document per snapshot, keyed by the document id.
type MongoAdapter struct {
	collection *mongo.Collection
	client     *mongo.Client
}

type mongoSnapshot struct {
	ID        string    `bson:"_id"`
	Data      []byte    `bson:"data"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// NewMongoAdapter creates an adapter over collection. The client stays owned by the
// caller.
func NewMongoAdapter(collection *mongo.Collection) *MongoAdapter {
	return &MongoAdapter{collection: collection}
}

// Save implements Adapter.
func (a *MongoAdapter) Save(ctx context.Context, id common.DocumentID, data []byte) error {
	doc := mongoSnapshot{ID: id.String(), Data: data, UpdatedAt: time.Now().UTC()}
	_, err := a.collection.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return errors.Wrap(mapMongoError(err), "failed to save document")
}

// Load implements Adapter.
func (a *MongoAdapter) Load(ctx context.Context, id common.DocumentID) ([]byte, error) {
	var doc mongoSnapshot
	err := a.collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, errors.Wrapf(common.ErrNotFound, "document %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(mapMongoError(err), "failed to load document")
	}
	return doc.Data, nil
}

// List implements Adapter.
func (a *MongoAdapter) List(ctx context.Context) ([]common.DocumentID, error) {
	cursor, err := a.collection.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, errors.Wrap(mapMongoError(err), "failed to list documents")
	}
	defer cursor.Close(ctx)

	var ids []common.DocumentID
	for cursor.Next(ctx) {
		var doc struct {
			ID string `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "failed to decode document id")
		}
		id, err := common.ParseDocumentID(doc.ID)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, errors.Wrap(cursor.Err(), "cursor error")
}

// Delete implements Adapter.
func (a *MongoAdapter) Delete(ctx context.Context, id common.DocumentID) error {
	_, err := a.collection.DeleteOne(ctx, bson.M{"_id": id.String()})
	return errors.Wrap(mapMongoError(err), "failed to delete document")
}

// Close implements Adapter. Only clients opened by OpenAdapter are disconnected.
func (a *MongoAdapter) Close() error {
	if a.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return a.client.Disconnect(ctx)
}

func mapMongoError(err error) error {
	if err == mongo.ErrClientDisconnected {
		return common.ErrClosed
	}
	return err
}
