// Package session owns the lifecycle of the active document: ingest a
// newly uploaded document once, reuse it for repeat uploads, and replace
// it wholesale when a different document arrives.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"docchat/internal/chunker"
	"docchat/internal/extract"
	"docchat/internal/filestore"
	"docchat/internal/vectorindex"
)

// Session is the one active processed document.
type Session struct {
	Identity       string
	Filename       string
	Path           string
	Chunks         []string
	CollectionName string
	Collection     vectorindex.Collection
}

// Manager decides reuse vs. reprocess and runs the ingestion pipeline:
// save, extract, chunk, embed, index.
type Manager struct {
	store    *filestore.Store
	index    vectorindex.Index
	embedder embeddings.Embedder
	splitter *chunker.Splitter
	current  *Session
}

func NewManager(store *filestore.Store, index vectorindex.Index, embedder embeddings.Embedder, splitter *chunker.Splitter) *Manager {
	return &Manager{store: store, index: index, embedder: embedder, splitter: splitter}
}

// Current returns the active session, or nil before the first ingestion.
func (m *Manager) Current() *Session { return m.current }

// Identity derives the document identity from its content, so a modified
// file re-uploaded under the same name is reprocessed while identical
// bytes under any name are reused.
func Identity(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:6])
}

// Open ingests an uploaded document and replaces the current session, or
// returns the existing session untouched (reused=true) when the identity
// matches. On any ingestion failure the partially-created collection is
// deleted and the previous session stays current.
func (m *Manager) Open(ctx context.Context, filename string, data []byte) (*Session, bool, error) {
	identity := Identity(data)
	if m.current != nil && m.current.Identity == identity {
		log.Info().Str("file", filename).Msg("using previously processed document")
		return m.current, true, nil
	}

	path, err := m.store.Save(filename, data)
	if err != nil {
		return nil, false, err
	}

	text, err := extract.Text(path)
	if err != nil {
		return nil, false, fmt.Errorf("extracting text: %w", err)
	}

	chunks := m.splitter.Split(text)
	if len(chunks) == 0 {
		return nil, false, fmt.Errorf("document %s contains no extractable text", filename)
	}
	log.Debug().Int("chunks", len(chunks)).Str("file", filename).Msg("split document")

	vectors, err := m.embedder.EmbedDocuments(ctx, chunks)
	if err != nil {
		return nil, false, fmt.Errorf("embedding chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, false, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	// Full reset before creating the new collection, so retrieval can
	// never see chunks of a prior document.
	if err := m.index.Reset(ctx); err != nil {
		return nil, false, fmt.Errorf("resetting index: %w", err)
	}

	name := "doc_" + identity
	col, err := m.index.Collection(ctx, name)
	if err != nil {
		return nil, false, fmt.Errorf("creating collection: %w", err)
	}

	entries := make([]vectorindex.Entry, len(chunks))
	for i := range chunks {
		entries[i] = vectorindex.Entry{
			ID:        strconv.Itoa(i),
			Text:      chunks[i],
			Embedding: vectors[i],
			Metadata:  map[string]string{"source": filename, "chunk": strconv.Itoa(i)},
		}
	}
	if err := col.Upsert(ctx, entries); err != nil {
		if derr := m.index.Delete(ctx, name); derr != nil {
			log.Warn().Err(derr).Str("collection", name).Msg("rollback of partial collection failed")
		}
		return nil, false, fmt.Errorf("indexing chunks: %w", err)
	}

	m.current = &Session{
		Identity:       identity,
		Filename:       filename,
		Path:           path,
		Chunks:         chunks,
		CollectionName: name,
		Collection:     col,
	}
	log.Info().Str("file", filename).Int("chunks", len(chunks)).Str("collection", name).Msg("document ready")
	return m.current, false, nil
}
