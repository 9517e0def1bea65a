// Package store persists chatbot records (customers, products, transactions,
// support tickets) in Postgres and exposes the query surface the chat
// routes need.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("record not found")

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// UpsertCustomers inserts customers, leaving existing rows untouched so a
// re-uploaded export does not clobber earlier data.
func (s *Store) UpsertCustomers(ctx context.Context, customers []Customer) error {
	for _, c := range customers {
		if _, err := s.pool.Exec(ctx, `
			INSERT INTO customers (customer_id, name, email, phone, city, loyalty_tier, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (customer_id) DO NOTHING
		`, c.CustomerID, c.Name, c.Email, c.Phone, c.City, c.LoyaltyTier, c.CreatedAt); err != nil {
			return fmt.Errorf("insert customer %s: %w", c.CustomerID, err)
		}
	}
	return nil
}

func (s *Store) UpsertProducts(ctx context.Context, products []Product) error {
	for _, p := range products {
		if _, err := s.pool.Exec(ctx, `
			INSERT INTO products (product_id, name, category, sku, cogs, margin_percent, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (product_id) DO NOTHING
		`, p.ProductID, p.Name, p.Category, p.SKU, p.COGS, p.MarginPercent, p.CreatedAt); err != nil {
			return fmt.Errorf("insert product %s: %w", p.ProductID, err)
		}
	}
	return nil
}

func (s *Store) InsertTransactions(ctx context.Context, txns []Transaction) error {
	for i, t := range txns {
		if _, err := s.pool.Exec(ctx, `
			INSERT INTO transactions (
				id, invoice_number, txn_number, customer_id, customer_name, customer_email,
				product_id, product_name, category, quantity, gross_amount, discount_percentage,
				total_amount, gst, payment_mode, date_of_purchase, channel, store_location, status
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		`, uuid.New(), t.InvoiceNumber, t.TxnNumber, t.CustomerID, t.CustomerName, t.CustomerEmail,
			t.ProductID, t.ProductName, t.Category, t.Quantity, t.GrossAmount, t.DiscountPercentage,
			t.TotalAmount, t.GST, t.PaymentMode, t.DateOfPurchase, t.Channel, t.StoreLocation, t.Status); err != nil {
			return fmt.Errorf("insert transaction %d: %w", i, err)
		}
	}
	return nil
}

// RecentTransactions returns at most limit transactions, most recent
// purchase first. The retrieval index is built from this bounded window.
func (s *Store) RecentTransactions(ctx context.Context, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 200
	}

	rows, err := s.pool.Query(ctx, `
		SELECT invoice_number, txn_number, customer_id, customer_name, customer_email,
			product_id, product_name, category, quantity, gross_amount, discount_percentage,
			total_amount, gst, payment_mode, date_of_purchase, channel, store_location, status
		FROM transactions
		ORDER BY date_of_purchase DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// SearchCustomer finds a single customer by case-insensitive substring match
// on name, customer id, email, or phone. Returns ErrNotFound when nothing
// matches.
func (s *Store) SearchCustomer(ctx context.Context, term string) (*Customer, error) {
	pattern := "%" + term + "%"

	var c Customer
	err := s.pool.QueryRow(ctx, `
		SELECT customer_id, name, email, phone, city, loyalty_tier, created_at
		FROM customers
		WHERE name ILIKE $1 OR customer_id ILIKE $1 OR email ILIKE $1 OR phone ILIKE $1
		ORDER BY customer_id
		LIMIT 1
	`, pattern).Scan(&c.CustomerID, &c.Name, &c.Email, &c.Phone, &c.City, &c.LoyaltyTier, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("search customer: %w", err)
	}

	return &c, nil
}

// TransactionsByCustomer lists a customer's transactions, most recent
// purchase first.
func (s *Store) TransactionsByCustomer(ctx context.Context, customerID string) ([]Transaction, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT invoice_number, txn_number, customer_id, customer_name, customer_email,
			product_id, product_name, category, quantity, gross_amount, discount_percentage,
			total_amount, gst, payment_mode, date_of_purchase, channel, store_location, status
		FROM transactions
		WHERE customer_id = $1
		ORDER BY date_of_purchase DESC
	`, customerID)
	if err != nil {
		return nil, fmt.Errorf("query customer transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func (s *Store) InsertTicket(ctx context.Context, t Ticket) error {
	if _, err := s.pool.Exec(ctx, `
		INSERT INTO support_tickets (ticket_number, customer_name, customer_email, category, issue, priority, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, t.TicketNumber, t.CustomerName, t.CustomerEmail, t.Category, t.Issue, t.Priority, t.Status, t.CreatedAt, t.UpdatedAt); err != nil {
		return fmt.Errorf("insert ticket %s: %w", t.TicketNumber, err)
	}
	return nil
}

func (s *Store) CountTransactions(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM transactions").Scan(&count); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return count, nil
}

// Clear removes all chatbot data, including any persisted index chunks.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "TRUNCATE customers, products, transactions, support_tickets, chat_chunks"); err != nil {
		return fmt.Errorf("truncate chatbot tables: %w", err)
	}
	return nil
}

func scanTransactions(rows pgx.Rows) ([]Transaction, error) {
	results := make([]Transaction, 0)
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(
			&t.InvoiceNumber, &t.TxnNumber, &t.CustomerID, &t.CustomerName, &t.CustomerEmail,
			&t.ProductID, &t.ProductName, &t.Category, &t.Quantity, &t.GrossAmount, &t.DiscountPercentage,
			&t.TotalAmount, &t.GST, &t.PaymentMode, &t.DateOfPurchase, &t.Channel, &t.StoreLocation, &t.Status,
		); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		results = append(results, t)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return results, nil
}
