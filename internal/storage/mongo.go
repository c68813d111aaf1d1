package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoDocument 是 documents 集合中的一筆，_id 為 "collection/id"
type mongoDocument struct {
	ID         string   `bson:"_id"`
	Collection string   `bson:"collection"`
	DocID      string   `bson:"docId"`
	Data       bson.Raw `bson:"data"`
}

// MongoDocumentStore 以單一 MongoDB 集合實作 DocumentStore
type MongoDocumentStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoDocumentStore 連線到 uri 並使用 database 下的 documents 集合
func NewMongoDocumentStore(ctx context.Context, uri, database string) (*MongoDocumentStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	coll := client.Database(database).Collection("documents")
	_, err = coll.Indexes().CreateOne(connectCtx, mongo.IndexModel{
		Keys: bson.D{{Key: "collection", Value: 1}, {Key: "docId", Value: 1}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &MongoDocumentStore{client: client, coll: coll}, nil
}

func (s *MongoDocumentStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func mongoID(collection, id string) string {
	return collection + "/" + id
}

func (s *MongoDocumentStore) SetDocument(ctx context.Context, collection, id string, data any) error {
	encoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode document %s/%s: %w", collection, id, err)
	}
	var fields bson.M
	if err := bson.UnmarshalExtJSON(encoded, false, &fields); err != nil {
		return fmt.Errorf("convert document %s/%s: %w", collection, id, err)
	}

	doc := bson.M{
		"_id":        mongoID(collection, id),
		"collection": collection,
		"docId":      id,
		"data":       fields,
	}
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": mongoID(collection, id)}, doc, options.Replace().SetUpsert(true))
	return err
}

func (s *MongoDocumentStore) GetDocument(ctx context.Context, collection, id string, dst any) (bool, error) {
	var doc mongoDocument
	err := s.coll.FindOne(ctx, bson.M{"_id": mongoID(collection, id)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if dst != nil {
		if err := decodeMongoData(doc.Data, dst); err != nil {
			return true, fmt.Errorf("decode document %s/%s: %w", collection, id, err)
		}
	}
	return true, nil
}

func (s *MongoDocumentStore) DeleteDocument(ctx context.Context, collection, id string) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"_id": mongoID(collection, id)})
	return err
}

func (s *MongoDocumentStore) StreamDocuments(ctx context.Context, collection string) ([]Document, error) {
	cursor, err := s.coll.Find(ctx,
		bson.M{"collection": collection},
		options.Find().SetSort(bson.D{{Key: "docId", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []Document
	for cursor.Next(ctx) {
		var doc mongoDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		data, err := bson.MarshalExtJSON(doc.Data, false, false)
		if err != nil {
			return nil, err
		}
		docs = append(docs, Document{ID: doc.DocID, Data: data})
	}
	return docs, cursor.Err()
}

func decodeMongoData(raw bson.Raw, dst any) error {
	data, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}
