package astradb

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Jflick58/langchain/internal/astra"
	"github.com/Jflick58/langchain/internal/astra/astratest"
)

func newTestClient(t *testing.T) *astra.Client {
	t.Helper()
	server := astratest.NewServer()
	t.Cleanup(server.Close)

	client, err := astra.NewClient(server.URL(), "AstraCS:test")
	require.NoError(t, err)
	return client
}

func seedCollection(t *testing.T, client *astra.Client, collection string, docs []astra.Document) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, client.CreateCollection(ctx, collection, nil))
	require.NoError(t, client.InsertMany(ctx, collection, docs, true))
}

func TestNewValidatesArguments(t *testing.T) {
	client := newTestClient(t)

	_, err := New(nil, "articles")
	require.Error(t, err)

	_, err = New(client, "")
	require.Error(t, err)
}

func TestLoadMapsFieldsToMetadata(t *testing.T) {
	client := newTestClient(t)
	seedCollection(t, client, "articles", []astra.Document{
		{"_id": "a1", "content": "caching cuts latency", "author": "ops", "$vector": []float32{1, 0}},
		{"_id": "a2", "content": "queues smooth bursts"},
		{"_id": "a3", "title": "no content field here"},
	})

	loader, err := New(client, "articles")
	require.NoError(t, err)

	docs, err := loader.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)

	require.Equal(t, "caching cuts latency", docs[0].PageContent)
	require.Equal(t, "a1", docs[0].Metadata["_id"])
	require.Equal(t, "ops", docs[0].Metadata["author"])
	require.NotContains(t, docs[0].Metadata, "$vector")
	require.NotContains(t, docs[0].Metadata, "content")

	require.Equal(t, "queues smooth bursts", docs[1].PageContent)
	require.Equal(t, "a2", docs[1].Metadata["_id"])
}

func TestLoadFollowsPaging(t *testing.T) {
	client := newTestClient(t)

	// More documents than one Data API page.
	records := make([]astra.Document, 25)
	for i := range records {
		records[i] = astra.Document{
			"_id":     fmt.Sprintf("doc-%02d", i),
			"content": fmt.Sprintf("body %02d", i),
		}
	}
	seedCollection(t, client, "paged", records)

	loader, err := New(client, "paged")
	require.NoError(t, err)

	docs, err := loader.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 25)
	require.Equal(t, "body 00", docs[0].PageContent)
	require.Equal(t, "body 24", docs[24].PageContent)
}

func TestLoadAppliesFilter(t *testing.T) {
	client := newTestClient(t)
	seedCollection(t, client, "filtered", []astra.Document{
		{"_id": "k1", "content": "keep", "lang": "go"},
		{"_id": "k2", "content": "drop", "lang": "rust"},
	})

	loader, err := New(client, "filtered", WithFilter(map[string]any{"lang": "go"}))
	require.NoError(t, err)

	docs, err := loader.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "keep", docs[0].PageContent)
}

func TestCustomContentField(t *testing.T) {
	client := newTestClient(t)
	seedCollection(t, client, "custom", []astra.Document{
		{"_id": "c1", "body": "text lives in body"},
	})

	loader, err := New(client, "custom", WithContentField("body"))
	require.NoError(t, err)

	docs, err := loader.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "text lives in body", docs[0].PageContent)
	require.Equal(t, "c1", docs[0].Metadata["_id"])
}
