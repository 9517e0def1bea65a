package chunker_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/fabfab/shop-agent/chunker"
	"github.com/fabfab/shop-agent/faults"
	"github.com/fabfab/shop-agent/store"
)

func sampleTransaction() store.Transaction {
	return store.Transaction{
		InvoiceNumber:      "INV-1001",
		TxnNumber:          "TXN-77",
		CustomerID:         "CUST001",
		CustomerName:       "John Doe",
		CustomerEmail:      "john@example.com",
		ProductID:          "PROD-9",
		ProductName:        "Espresso Machine",
		Category:           "Appliances",
		Quantity:           2,
		GrossAmount:        300,
		DiscountPercentage: 10,
		TotalAmount:        270,
		GST:                27,
		PaymentMode:        "card",
		DateOfPurchase:     time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Channel:            "online",
		StoreLocation:      "Berlin",
		Status:             "completed",
	}
}

func TestRenderTransactionIncludesFields(t *testing.T) {
	text := chunker.RenderTransaction(sampleTransaction())

	for _, want := range []string{
		"Invoice Number: INV-1001",
		"Customer: John Doe (ID: CUST001)",
		"Total Amount: $270.00",
		"Purchase Date: 2024-03-15",
		"Status: completed",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("rendered block missing %q:\n%s", want, text)
		}
	}
}

func TestRenderTransactionSubstitutesSentinels(t *testing.T) {
	text := chunker.RenderTransaction(store.Transaction{Quantity: 1})

	if !strings.Contains(text, "Invoice Number: N/A") {
		t.Fatalf("expected N/A sentinel for missing invoice:\n%s", text)
	}
	if !strings.Contains(text, "Customer: Unknown (ID: N/A)") {
		t.Fatalf("expected Unknown sentinel for missing customer:\n%s", text)
	}
}

func TestBuildCorpusEmptyInput(t *testing.T) {
	if _, err := chunker.BuildCorpus(nil, 1000, 200); !errors.Is(err, faults.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestBuildCorpusSingleTransaction(t *testing.T) {
	chunks, err := chunker.BuildCorpus([]store.Transaction{sampleTransaction()}, 1000, 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("expected at least one chunk")
	}
	if !strings.Contains(chunks[0], "INV-1001") {
		t.Fatalf("chunk does not carry transaction content: %q", chunks[0])
	}
}

func TestBuildCorpusIdempotent(t *testing.T) {
	txns := []store.Transaction{sampleTransaction(), sampleTransaction()}

	first, err := chunker.BuildCorpus(txns, 500, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := chunker.BuildCorpus(txns, 500, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatal("chunking the same records twice produced different chunks")
	}
}

func TestSplitSeparatorFreeText(t *testing.T) {
	text := strings.Repeat("a", 1450)

	chunks := chunker.Split(text, 800, 150)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk) > 800 {
			t.Fatalf("chunk %d exceeds size limit: %d", i, len(chunk))
		}
	}

	first, second := chunks[0], chunks[1]
	if first[len(first)-150:] != second[:150] {
		t.Fatal("adjacent chunks do not share the overlap region")
	}
}

func TestSplitPrefersParagraphBoundaries(t *testing.T) {
	pa := strings.Repeat("a", 350)
	pb := strings.Repeat("b", 350)

	chunks := chunker.Split(pa+"\n\n"+pb, 400, 50)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0] != pa || chunks[1] != pb {
		t.Fatal("expected split on the paragraph boundary")
	}
}

func TestSplitMergesSmallParagraphs(t *testing.T) {
	chunks := chunker.Split("first paragraph\n\nsecond paragraph", 1000, 200)
	if len(chunks) != 1 {
		t.Fatalf("expected one merged chunk, got %d", len(chunks))
	}
	if !strings.Contains(chunks[0], "first paragraph") || !strings.Contains(chunks[0], "second paragraph") {
		t.Fatalf("merged chunk missing content: %q", chunks[0])
	}
}

func TestSplitChunksNeverExceedSize(t *testing.T) {
	// A small carried window can fit the overlap budget yet leave no room
	// for a large incoming piece; the merge must shrink it further.
	text := strings.Repeat("a", 20) + " " + strings.Repeat("b", 20) + " " + strings.Repeat("c", 90)

	chunks := chunker.Split(text, 100, 50)
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	for i, chunk := range chunks {
		if n := utf8.RuneCountInString(chunk); n > 100 {
			t.Fatalf("chunk %d has %d runes, exceeds size 100", i, n)
		}
	}
	if !strings.Contains(chunks[len(chunks)-1], strings.Repeat("c", 90)) {
		t.Fatal("large trailing piece missing from output")
	}
}

func TestSplitWhitespaceOnly(t *testing.T) {
	if chunks := chunker.Split("\n\n  \n", 100, 20); len(chunks) != 0 {
		t.Fatalf("expected no chunks for whitespace input, got %d", len(chunks))
	}
}
