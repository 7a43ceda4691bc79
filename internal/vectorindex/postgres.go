package vectorindex

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"docchat/internal/config"
)

// PostgresIndex stores chunk vectors in a pgvector table, one logical
// collection per document keyed by a collection column. Intended for a
// future server deployment; chromem is the default for local use.
type PostgresIndex struct {
	db  *bun.DB
	dim int
}

type chunkRow struct {
	bun.BaseModel `bun:"table:chunks,alias:c"`

	ID         string  `bun:"id,pk"`
	Collection string  `bun:"collection,pk"`
	Content    string  `bun:"content,notnull"`
	Embedding  string  `bun:"embedding,notnull"`
	Distance   float64 `bun:"distance,scanonly"`
}

func NewPostgres(cfg *config.IndexConfig) (*PostgresIndex, error) {
	opts := []pgdriver.Option{pgdriver.WithDSN(cfg.DSN)}
	if cfg.PasswordEnv != "" {
		opts = append(opts, pgdriver.WithPassword(os.Getenv(cfg.PasswordEnv)))
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(opts...))
	db := bun.NewDB(sqldb, pgdialect.New())
	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return &PostgresIndex{db: db, dim: cfg.VectorDim}, nil
}

func (p *PostgresIndex) ensureTable(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS chunks (
			id text NOT NULL,
			collection text NOT NULL,
			content text NOT NULL,
			embedding vector(%d) NOT NULL,
			PRIMARY KEY (collection, id)
		)`, p.dim))
	if err != nil {
		return fmt.Errorf("creating chunks table: %w", err)
	}
	return nil
}

func (p *PostgresIndex) Reset(ctx context.Context) error {
	if err := p.ensureTable(ctx); err != nil {
		return err
	}
	if _, err := p.db.NewTruncateTable().Model((*chunkRow)(nil)).Exec(ctx); err != nil {
		return fmt.Errorf("clearing chunks table: %w", err)
	}
	return nil
}

func (p *PostgresIndex) Collection(ctx context.Context, name string) (Collection, error) {
	if err := p.ensureTable(ctx); err != nil {
		return nil, err
	}
	return &pgCollection{db: p.db, name: name}, nil
}

func (p *PostgresIndex) Delete(ctx context.Context, name string) error {
	_, err := p.db.NewDelete().
		Model((*chunkRow)(nil)).
		Where("collection = ?", name).
		Exec(ctx)
	return err
}

func (p *PostgresIndex) Close() error { return p.db.Close() }

type pgCollection struct {
	db   *bun.DB
	name string
}

func (c *pgCollection) Upsert(ctx context.Context, entries []Entry) error {
	rows := make([]chunkRow, len(entries))
	for i, e := range entries {
		rows[i] = chunkRow{
			ID:         e.ID,
			Collection: c.name,
			Content:    e.Text,
			Embedding:  vectorLiteral(e.Embedding),
		}
	}
	_, err := c.db.NewInsert().
		Model(&rows).
		On("CONFLICT (collection, id) DO UPDATE").
		Set("content = EXCLUDED.content").
		Set("embedding = EXCLUDED.embedding").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("storing chunks: %w", err)
	}
	return nil
}

func (c *pgCollection) Query(ctx context.Context, embedding []float32, topK int) ([]Result, error) {
	vec := vectorLiteral(embedding)
	var rows []chunkRow
	err := c.db.NewSelect().
		Model(&rows).
		Column("content").
		ColumnExpr("embedding <-> ? AS distance", vec).
		Where("collection = ?", c.name).
		OrderExpr("embedding <-> ?", vec).
		Limit(topK).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("searching chunks: %w", err)
	}
	results := make([]Result, len(rows))
	for i, r := range rows {
		results[i] = Result{Text: r.Content, Distance: float32(r.Distance)}
	}
	return results, nil
}

// vectorLiteral renders an embedding in pgvector input syntax.
func vectorLiteral(v []float32) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = strconv.FormatFloat(float64(f), 'f', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
