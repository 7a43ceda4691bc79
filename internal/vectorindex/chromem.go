package vectorindex

import (
	"context"
	"fmt"
	"runtime"

	"github.com/philippgille/chromem-go"
)

const compress = false

// ChromemIndex is the default backend: an embedded chromem-go database
// persisted under a single on-disk path.
type ChromemIndex struct {
	db *chromem.DB
}

func NewChromem(path string) (*ChromemIndex, error) {
	db, err := chromem.NewPersistentDB(path, compress)
	if err != nil {
		return nil, fmt.Errorf("opening vector database: %w", err)
	}
	return &ChromemIndex{db: db}, nil
}

// NewChromemInMemory builds a non-persistent index, used in tests.
func NewChromemInMemory() *ChromemIndex {
	return &ChromemIndex{db: chromem.NewDB()}
}

func (x *ChromemIndex) Reset(ctx context.Context) error {
	for name := range x.db.ListCollections() {
		if err := x.db.DeleteCollection(name); err != nil {
			return fmt.Errorf("deleting collection %s: %w", name, err)
		}
	}
	return nil
}

func (x *ChromemIndex) Collection(ctx context.Context, name string) (Collection, error) {
	c, err := x.db.GetOrCreateCollection(name, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("creating collection: %w", err)
	}
	return &chromemCollection{col: c}, nil
}

func (x *ChromemIndex) Delete(ctx context.Context, name string) error {
	return x.db.DeleteCollection(name)
}

func (x *ChromemIndex) Close() error { return nil }

type chromemCollection struct {
	col *chromem.Collection
}

func (c *chromemCollection) Upsert(ctx context.Context, entries []Entry) error {
	docs := make([]chromem.Document, len(entries))
	for i, e := range entries {
		docs[i] = chromem.Document{
			ID:        e.ID,
			Content:   e.Text,
			Embedding: e.Embedding,
			Metadata:  e.Metadata,
		}
	}
	if err := c.col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("adding documents: %w", err)
	}
	return nil
}

func (c *chromemCollection) Query(ctx context.Context, embedding []float32, topK int) ([]Result, error) {
	// chromem rejects nResults larger than the collection.
	if n := c.col.Count(); topK > n {
		topK = n
	}
	if topK <= 0 {
		return nil, nil
	}
	found, err := c.col.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: embedding,
		NResults:       topK,
	})
	if err != nil {
		return nil, fmt.Errorf("querying collection: %w", err)
	}
	results := make([]Result, len(found))
	for i, r := range found {
		results[i] = Result{
			Text:     r.Content,
			Distance: 1 - r.Similarity,
			Metadata: r.Metadata,
		}
	}
	return results, nil
}
