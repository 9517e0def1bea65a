package ingest_test

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/fabfab/shop-agent/ingest"
	"github.com/fabfab/shop-agent/store"
)

type captureWriter struct {
	customers []store.Customer
	products  []store.Product
	txns      []store.Transaction
	err       error
}

func (w *captureWriter) UpsertCustomers(ctx context.Context, customers []store.Customer) error {
	if w.err != nil {
		return w.err
	}
	w.customers = append(w.customers, customers...)
	return nil
}

func (w *captureWriter) UpsertProducts(ctx context.Context, products []store.Product) error {
	if w.err != nil {
		return w.err
	}
	w.products = append(w.products, products...)
	return nil
}

func (w *captureWriter) InsertTransactions(ctx context.Context, txns []store.Transaction) error {
	if w.err != nil {
		return w.err
	}
	w.txns = append(w.txns, txns...)
	return nil
}

var _ ingest.RecordWriter = (*captureWriter)(nil)

func newTestLoader(writer *captureWriter) *ingest.Loader {
	return ingest.NewLoader(writer, log.New(io.Discard, "", 0))
}

const sampleRow = `{
	"Invoice Number": "INV-1001",
	"Customer ID": "CUST001",
	"Customer name": "John Doe",
	"Email": "john@example.com",
	"Loyalty_Tier": "Gold",
	"ID_product": "PROD-9",
	"Product": "Espresso Machine",
	"Category": "Appliances",
	"Quantity_piece": 2,
	"Total Amount": 270.0,
	"Date_of_purchase": "2024-03-15",
	"Status": "completed"
}`

func TestLoadSingleObjectExport(t *testing.T) {
	writer := &captureWriter{}
	loader := newTestLoader(writer)

	count, err := loader.Load(context.Background(), strings.NewReader(sampleRow))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 transaction, got %d", count)
	}
	if len(writer.customers) != 1 || len(writer.products) != 1 || len(writer.txns) != 1 {
		t.Fatalf("unexpected record counts: %d customers, %d products, %d txns",
			len(writer.customers), len(writer.products), len(writer.txns))
	}

	txn := writer.txns[0]
	if txn.InvoiceNumber != "INV-1001" || txn.CustomerID != "CUST001" {
		t.Fatalf("unexpected transaction: %+v", txn)
	}
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if !txn.DateOfPurchase.Equal(want) {
		t.Fatalf("expected parsed purchase date %s, got %s", want, txn.DateOfPurchase)
	}
}

func TestLoadSubstitutesSentinels(t *testing.T) {
	writer := &captureWriter{}
	loader := newTestLoader(writer)

	if _, err := loader.Load(context.Background(), strings.NewReader(`{"Quantity_piece": 1}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	customer := writer.customers[0]
	if customer.CustomerID != store.SentinelNoID {
		t.Fatalf("expected %q for missing customer id, got %q", store.SentinelNoID, customer.CustomerID)
	}
	if customer.Name != store.SentinelUnknown {
		t.Fatalf("expected %q for missing name, got %q", store.SentinelUnknown, customer.Name)
	}
	if customer.LoyaltyTier != store.DefaultTier {
		t.Fatalf("expected default tier, got %q", customer.LoyaltyTier)
	}

	txn := writer.txns[0]
	if txn.InvoiceNumber != store.SentinelNA {
		t.Fatalf("expected %q for missing invoice, got %q", store.SentinelNA, txn.InvoiceNumber)
	}
	if txn.Status != store.SentinelNA {
		t.Fatalf("expected %q for missing status, got %q", store.SentinelNA, txn.Status)
	}
}

func TestLoadDeduplicatesCustomersAndProducts(t *testing.T) {
	writer := &captureWriter{}
	loader := newTestLoader(writer)

	export := `[
		{"Customer ID": "CUST001", "Customer name": "John Doe", "ID_product": "PROD-1", "Product": "A"},
		{"Customer ID": "CUST001", "Customer name": "John Doe", "ID_product": "PROD-1", "Product": "A"},
		{"Customer ID": "CUST002", "Customer name": "Jane Roe", "ID_product": "PROD-2", "Product": "B"}
	]`

	count, err := loader.Load(context.Background(), strings.NewReader(export))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 transactions, got %d", count)
	}
	if len(writer.customers) != 2 {
		t.Fatalf("expected 2 deduplicated customers, got %d", len(writer.customers))
	}
	if len(writer.products) != 2 {
		t.Fatalf("expected 2 deduplicated products, got %d", len(writer.products))
	}
}

func TestLoadCapsRowCount(t *testing.T) {
	rows := make([]string, 120)
	for i := range rows {
		rows[i] = fmt.Sprintf(`{"Invoice Number": "INV-%d", "Customer ID": "CUST%03d"}`, i, i)
	}
	export := "[" + strings.Join(rows, ",") + "]"

	writer := &captureWriter{}
	loader := newTestLoader(writer)

	count, err := loader.Load(context.Background(), strings.NewReader(export))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 100 {
		t.Fatalf("expected cap at 100 transactions, got %d", count)
	}
}

func TestLoadEmptyExport(t *testing.T) {
	loader := newTestLoader(&captureWriter{})

	if _, err := loader.Load(context.Background(), strings.NewReader("   ")); err == nil {
		t.Fatal("expected error for empty export")
	}
}

func TestLoadMalformedExport(t *testing.T) {
	loader := newTestLoader(&captureWriter{})

	if _, err := loader.Load(context.Background(), strings.NewReader(`[{"broken"`)); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestLoadUnparseableDateFallsBack(t *testing.T) {
	writer := &captureWriter{}
	loader := newTestLoader(writer)

	before := time.Now()
	if _, err := loader.Load(context.Background(), strings.NewReader(`{"Date_of_purchase": "next tuesday"}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := writer.txns[0].DateOfPurchase
	if got.Before(before.Add(-time.Minute)) {
		t.Fatalf("expected load-time fallback date, got %s", got)
	}
}

func TestLoadWriterFailure(t *testing.T) {
	writer := &captureWriter{err: fmt.Errorf("database gone")}
	loader := newTestLoader(writer)

	if _, err := loader.Load(context.Background(), strings.NewReader(sampleRow)); err == nil {
		t.Fatal("expected error when the writer fails")
	}
}
