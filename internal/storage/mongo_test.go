package storage

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 需要實際的 MongoDB，設定 WIKIRACE_TEST_MONGO_URI 後才會執行
func TestMongoDocumentStore(t *testing.T) {
	uri := os.Getenv("WIKIRACE_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("WIKIRACE_TEST_MONGO_URI not set")
	}
	ctx := context.Background()

	store, err := NewMongoDocumentStore(ctx, uri, "wikirace_test")
	require.NoError(t, err)
	defer store.Close(ctx)

	collection := "progress/" + uuid.NewString() + "/users"
	require.NoError(t, store.SetDocument(ctx, collection, "u2", testRecord{Name: "B", URLs: []string{}}))
	require.NoError(t, store.SetDocument(ctx, collection, "u1", testRecord{Name: "A", URLs: []string{"x", "y"}}))

	var got testRecord
	found, err := store.GetDocument(ctx, collection, "u1", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, testRecord{Name: "A", URLs: []string{"x", "y"}}, got)

	docs, err := store.StreamDocuments(ctx, collection)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "u1", docs[0].ID)

	for _, doc := range docs {
		require.NoError(t, store.DeleteDocument(ctx, collection, doc.ID))
	}
	require.NoError(t, store.DeleteDocument(ctx, collection, "u1"))

	docs, err = store.StreamDocuments(ctx, collection)
	require.NoError(t, err)
	assert.Empty(t, docs)
}
