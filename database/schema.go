package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the chatbot tables if they do not exist. The
// chat_chunks table backs the pgvector retrieval index and its embedding
// column is sized to the configured model dimension.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive")
	}

	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		`CREATE TABLE IF NOT EXISTS customers (
			customer_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			phone TEXT NOT NULL,
			city TEXT NOT NULL,
			loyalty_tier TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			product_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			category TEXT NOT NULL,
			sku TEXT NOT NULL,
			cogs DOUBLE PRECISION NOT NULL DEFAULT 0,
			margin_percent DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id UUID PRIMARY KEY,
			invoice_number TEXT NOT NULL,
			txn_number TEXT NOT NULL,
			customer_id TEXT NOT NULL,
			customer_name TEXT NOT NULL,
			customer_email TEXT NOT NULL,
			product_id TEXT NOT NULL,
			product_name TEXT NOT NULL,
			category TEXT NOT NULL,
			quantity INT NOT NULL DEFAULT 0,
			gross_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
			discount_percentage DOUBLE PRECISION NOT NULL DEFAULT 0,
			total_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
			gst DOUBLE PRECISION NOT NULL DEFAULT 0,
			payment_mode TEXT NOT NULL,
			date_of_purchase TIMESTAMPTZ NOT NULL,
			channel TEXT NOT NULL,
			store_location TEXT NOT NULL,
			status TEXT NOT NULL
		)`,
		"CREATE INDEX IF NOT EXISTS idx_transactions_customer ON transactions(customer_id)",
		"CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date_of_purchase DESC)",
		`CREATE TABLE IF NOT EXISTS support_tickets (
			ticket_number TEXT PRIMARY KEY,
			customer_name TEXT NOT NULL,
			customer_email TEXT NOT NULL,
			category TEXT NOT NULL,
			issue TEXT NOT NULL,
			priority TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS chat_chunks (
			id UUID PRIMARY KEY,
			chunk_index INT NOT NULL,
			content TEXT NOT NULL,
			embedding VECTOR(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, dimension),
		"CREATE INDEX IF NOT EXISTS idx_chat_chunks_embedding ON chat_chunks USING ivfflat (embedding vector_l2_ops)",
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("execute schema statement: %w", err)
		}
	}

	return nil
}
