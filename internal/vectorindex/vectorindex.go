// Package vectorindex abstracts the vector store behind Index and
// Collection ports with chromem and Postgres/pgvector backends.
package vectorindex

import "context"

// Entry is one chunk to be indexed: the sequence index as ID, the chunk
// text, its embedding, and free-form metadata.
type Entry struct {
	ID        string
	Text      string
	Embedding []float32
	Metadata  map[string]string
}

// Result is a retrieved chunk. Distance is 0 for an exact match and grows
// with dissimilarity, so ascending order is most-relevant-first.
type Result struct {
	Text     string
	Distance float32
	Metadata map[string]string
}

// Collection stores and queries the chunk vectors of one document.
type Collection interface {
	Upsert(ctx context.Context, entries []Entry) error
	Query(ctx context.Context, embedding []float32, topK int) ([]Result, error)
}

// Index manages collections. Reset deletes every collection so stale data
// from a prior document can never leak into retrieval.
type Index interface {
	Reset(ctx context.Context) error
	Collection(ctx context.Context, name string) (Collection, error)
	Delete(ctx context.Context, name string) error
	Close() error
}
