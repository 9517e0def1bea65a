// Package ingest loads raw sales exports into the record store. All
// missing-field handling happens here, once, so the rest of the system can
// assume fully populated records.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/fabfab/shop-agent/store"
)

// maxRowsPerUpload caps a single upload; larger exports load only their
// first rows and log the truncation.
const maxRowsPerUpload = 100

// exportRow mirrors the raw key names of the sales export format.
type exportRow struct {
	InvoiceNumber      string  `json:"Invoice Number"`
	TxnNumber          string  `json:"Txn_No"`
	CustomerID         string  `json:"Customer ID"`
	CustomerName       string  `json:"Customer name"`
	Email              string  `json:"Email"`
	Phone              string  `json:"Phone"`
	City               string  `json:"City"`
	LoyaltyTier        string  `json:"Loyalty_Tier"`
	ProductID          string  `json:"ID_product"`
	Product            string  `json:"Product"`
	Category           string  `json:"Category"`
	SKU                string  `json:"SKUs"`
	COGS               float64 `json:"COGS"`
	MarginPercent      float64 `json:"Margin_per_piece_percent"`
	Quantity           int     `json:"Quantity_piece"`
	GrossAmount        float64 `json:"Gross_Amount"`
	DiscountPercentage float64 `json:"Discount_Percentage"`
	TotalAmount        float64 `json:"Total Amount"`
	GST                float64 `json:"GST"`
	PaymentMode        string  `json:"Payment_mode"`
	DateOfPurchase     string  `json:"Date_of_purchase"`
	Channel            string  `json:"Channel"`
	StoreLocation      string  `json:"Store_location"`
	Status             string  `json:"Status"`
}

// RecordWriter is the store surface the loader writes through.
type RecordWriter interface {
	UpsertCustomers(ctx context.Context, customers []store.Customer) error
	UpsertProducts(ctx context.Context, products []store.Product) error
	InsertTransactions(ctx context.Context, txns []store.Transaction) error
}

type Loader struct {
	writer RecordWriter
	logger *log.Logger
}

func NewLoader(writer RecordWriter, logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.Default()
	}
	return &Loader{writer: writer, logger: logger}
}

// LoadFile reads a JSON sales export from disk and loads it.
func (l *Loader) LoadFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open export file: %w", err)
	}
	defer f.Close()

	return l.Load(ctx, f)
}

// Load parses a JSON export (an array of rows or a single row object),
// normalizes it into typed records, and writes customers, products, and
// transactions. It returns the number of transactions loaded.
func (l *Loader) Load(ctx context.Context, r io.Reader) (int, error) {
	rows, err := decodeRows(r)
	if err != nil {
		return 0, err
	}
	if len(rows) > maxRowsPerUpload {
		l.logger.Printf("export has %d rows, loading first %d", len(rows), maxRowsPerUpload)
		rows = rows[:maxRowsPerUpload]
	}

	customers := make([]store.Customer, 0, len(rows))
	products := make([]store.Product, 0, len(rows))
	txns := make([]store.Transaction, 0, len(rows))
	seenCustomers := make(map[string]struct{}, len(rows))
	seenProducts := make(map[string]struct{}, len(rows))

	now := time.Now()
	for _, row := range rows {
		customerID := orDefault(row.CustomerID, store.SentinelNoID)
		if _, ok := seenCustomers[customerID]; !ok {
			seenCustomers[customerID] = struct{}{}
			customers = append(customers, store.Customer{
				CustomerID:  customerID,
				Name:        orDefault(row.CustomerName, store.SentinelUnknown),
				Email:       orDefault(row.Email, store.SentinelNA),
				Phone:       orDefault(row.Phone, store.SentinelNA),
				City:        orDefault(row.City, store.SentinelNA),
				LoyaltyTier: orDefault(row.LoyaltyTier, store.DefaultTier),
				CreatedAt:   now,
			})
		}

		productID := orDefault(row.ProductID, store.SentinelNoID)
		if _, ok := seenProducts[productID]; !ok {
			seenProducts[productID] = struct{}{}
			products = append(products, store.Product{
				ProductID:     productID,
				Name:          orDefault(row.Product, store.SentinelUnknown),
				Category:      orDefault(row.Category, store.SentinelNA),
				SKU:           orDefault(row.SKU, store.SentinelNA),
				COGS:          row.COGS,
				MarginPercent: row.MarginPercent,
				CreatedAt:     now,
			})
		}

		txns = append(txns, store.Transaction{
			InvoiceNumber:      orDefault(row.InvoiceNumber, store.SentinelNA),
			TxnNumber:          orDefault(row.TxnNumber, store.SentinelNA),
			CustomerID:         customerID,
			CustomerName:       orDefault(row.CustomerName, store.SentinelUnknown),
			CustomerEmail:      orDefault(row.Email, store.SentinelNA),
			ProductID:          productID,
			ProductName:        orDefault(row.Product, store.SentinelUnknown),
			Category:           orDefault(row.Category, store.SentinelNA),
			Quantity:           row.Quantity,
			GrossAmount:        row.GrossAmount,
			DiscountPercentage: row.DiscountPercentage,
			TotalAmount:        row.TotalAmount,
			GST:                row.GST,
			PaymentMode:        orDefault(row.PaymentMode, store.SentinelNA),
			DateOfPurchase:     parseDate(row.DateOfPurchase, now),
			Channel:            orDefault(row.Channel, store.SentinelNA),
			StoreLocation:      orDefault(row.StoreLocation, store.SentinelNA),
			Status:             orDefault(row.Status, store.SentinelNA),
		})
	}

	if err := l.writer.UpsertCustomers(ctx, customers); err != nil {
		return 0, fmt.Errorf("write customers: %w", err)
	}
	if err := l.writer.UpsertProducts(ctx, products); err != nil {
		return 0, fmt.Errorf("write products: %w", err)
	}
	if err := l.writer.InsertTransactions(ctx, txns); err != nil {
		return 0, fmt.Errorf("write transactions: %w", err)
	}

	l.logger.Printf("loaded %d transactions (%d customers, %d products)", len(txns), len(customers), len(products))
	return len(txns), nil
}

func decodeRows(r io.Reader) ([]exportRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}

	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, fmt.Errorf("export is empty")
	}

	if strings.HasPrefix(trimmed, "[") {
		var rows []exportRow
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, fmt.Errorf("parse export array: %w", err)
		}
		return rows, nil
	}

	var row exportRow
	if err := json.Unmarshal(data, &row); err != nil {
		return nil, fmt.Errorf("parse export object: %w", err)
	}
	return []exportRow{row}, nil
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
}

func parseDate(value string, fallback time.Time) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed
		}
	}
	return fallback
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
