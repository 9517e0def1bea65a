package retrieval

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/fabfab/shop-agent/embeddings"
	"github.com/fabfab/shop-agent/faults"
)

// PostgresIndex persists chunk embeddings in the chat_chunks table and
// searches them with pgvector. Rebuild still replaces the whole table; the
// persistence only spares re-embedding across process restarts.
type PostgresIndex struct {
	pool     *pgxpool.Pool
	embedder embeddings.Embedder
}

func NewPostgresIndex(pool *pgxpool.Pool, embedder embeddings.Embedder) *PostgresIndex {
	return &PostgresIndex{pool: pool, embedder: embedder}
}

func (ix *PostgresIndex) Rebuild(ctx context.Context, chunks []string) error {
	if len(chunks) == 0 {
		return fmt.Errorf("build retrieval index: %w", faults.ErrEmptyInput)
	}

	vecs, err := ix.embedder.Embed(ctx, chunks)
	if err != nil {
		return fmt.Errorf("embed %d chunks: %w", len(chunks), err)
	}
	if len(vecs) != len(chunks) {
		return fmt.Errorf("embedding count mismatch: have %d chunks, %d vectors", len(chunks), len(vecs))
	}

	tx, err := ix.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, "DELETE FROM chat_chunks"); err != nil {
		return fmt.Errorf("clear existing chunks: %w", err)
	}

	for idx, text := range chunks {
		if _, err = tx.Exec(ctx, `
			INSERT INTO chat_chunks (id, chunk_index, content, embedding, created_at)
			VALUES ($1, $2, $3, $4, NOW())
		`, uuid.New(), idx, text, pgvector.NewVector(vecs[idx])); err != nil {
			return fmt.Errorf("insert chunk %d: %w", idx, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (ix *PostgresIndex) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	if k <= 0 {
		k = DefaultTopK
	}

	qvec, err := embeddings.EmbedOne(ctx, ix.embedder, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	conn, err := ix.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	probes := k * 10
	if probes < 10 {
		probes = 10
	}
	if _, err := conn.Exec(ctx, fmt.Sprintf("SET ivfflat.probes = %d", probes)); err != nil {
		return nil, fmt.Errorf("set ivfflat probes: %w", err)
	}

	rows, err := conn.Query(ctx, `
		SELECT content, (embedding <-> $1::vector) AS distance
		FROM chat_chunks
		ORDER BY embedding <-> $1::vector
		LIMIT $2
	`, pgvector.NewVector(qvec), k)
	if err != nil {
		return nil, fmt.Errorf("query similar chunks: %w", err)
	}
	defer rows.Close()

	hits := make([]Hit, 0, k)
	for rows.Next() {
		var hit Hit
		var distance float64
		if scanErr := rows.Scan(&hit.Chunk, &distance); scanErr != nil {
			return nil, fmt.Errorf("scan similar chunk: %w", scanErr)
		}
		hit.Score = 1 / (1 + distance)
		hits = append(hits, hit)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return hits, nil
}

var _ Index = (*PostgresIndex)(nil)
