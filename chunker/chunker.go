// Package chunker turns transaction records into overlapping text chunks
// sized for embedding and retrieval.
package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fabfab/shop-agent/faults"
	"github.com/fabfab/shop-agent/store"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// separators are tried in priority order: paragraph breaks first, then
// lines, then spaces. Text with none of them falls back to raw
// character windows.
var separators = []string{"\n\n", "\n", " "}

// RenderTransaction produces the fixed multi-field text block a transaction
// contributes to the searchable corpus. Fields are expected to be
// normalized at ingestion; empty strings still render as "N/A" so a chunk
// never contains blank fields.
func RenderTransaction(t store.Transaction) string {
	var sb strings.Builder
	sb.WriteString("Transaction Details:\n")
	fmt.Fprintf(&sb, "Invoice Number: %s\n", orNA(t.InvoiceNumber))
	fmt.Fprintf(&sb, "Transaction Number: %s\n", orNA(t.TxnNumber))
	fmt.Fprintf(&sb, "Customer: %s (ID: %s)\n", orUnknown(t.CustomerName), orNA(t.CustomerID))
	fmt.Fprintf(&sb, "Email: %s\n", orNA(t.CustomerEmail))
	fmt.Fprintf(&sb, "Product: %s (ID: %s)\n", orUnknown(t.ProductName), orNA(t.ProductID))
	fmt.Fprintf(&sb, "Category: %s\n", orNA(t.Category))
	fmt.Fprintf(&sb, "Quantity Purchased: %d units\n", t.Quantity)
	fmt.Fprintf(&sb, "Gross Amount: $%.2f\n", t.GrossAmount)
	fmt.Fprintf(&sb, "Discount: %g%%\n", t.DiscountPercentage)
	fmt.Fprintf(&sb, "Total Amount: $%.2f\n", t.TotalAmount)
	fmt.Fprintf(&sb, "GST: $%.2f\n", t.GST)
	fmt.Fprintf(&sb, "Payment Mode: %s\n", orNA(t.PaymentMode))
	fmt.Fprintf(&sb, "Purchase Date: %s\n", t.DateOfPurchase.Format("2006-01-02"))
	fmt.Fprintf(&sb, "Channel: %s\n", orNA(t.Channel))
	fmt.Fprintf(&sb, "Store Location: %s\n", orNA(t.StoreLocation))
	fmt.Fprintf(&sb, "Status: %s\n", orNA(t.Status))
	return sb.String()
}

// BuildCorpus renders every transaction and splits the concatenated text
// into chunks. It fails with faults.ErrEmptyInput when the record set is
// empty or when splitting produces zero chunks, because a retrieval index
// cannot be built without data.
func BuildCorpus(txns []store.Transaction, size, overlap int) ([]string, error) {
	if len(txns) == 0 {
		return nil, fmt.Errorf("no transactions to chunk: %w", faults.ErrEmptyInput)
	}
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultChunkOverlap
	}

	blocks := make([]string, 0, len(txns))
	for _, t := range txns {
		blocks = append(blocks, RenderTransaction(t))
	}

	chunks := Split(strings.Join(blocks, "\n"), size, overlap)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no chunks produced from %d transactions: %w", len(txns), faults.ErrEmptyInput)
	}
	return chunks, nil
}

// Split breaks text into chunks of at most size runes with roughly overlap
// runes shared across adjacent boundaries. Splitting prefers paragraph
// boundaries, then lines, then spaces, then raw characters, and never cuts
// inside a chosen separator unnecessarily.
func Split(text string, size, overlap int) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return splitRecursive(text, separators, size, overlap)
}

func splitRecursive(text string, seps []string, size, overlap int) []string {
	if utf8.RuneCountInString(text) <= size {
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			return []string{trimmed}
		}
		return nil
	}

	sep := ""
	var rest []string
	for i, s := range seps {
		if strings.Contains(text, s) {
			sep = s
			rest = seps[i+1:]
			break
		}
	}

	if sep == "" {
		return splitRunes(text, size, overlap)
	}

	var chunks []string
	var pending []string
	flushPending := func() {
		if len(pending) == 0 {
			return
		}
		chunks = append(chunks, mergeSplits(pending, sep, size, overlap)...)
		pending = nil
	}

	for _, piece := range strings.Split(text, sep) {
		if strings.TrimSpace(piece) == "" {
			continue
		}
		if utf8.RuneCountInString(piece) <= size {
			pending = append(pending, piece)
			continue
		}
		// Oversized piece: emit what accumulated so far, then descend to
		// the next separator level for this piece alone.
		flushPending()
		chunks = append(chunks, splitRecursive(piece, rest, size, overlap)...)
	}
	flushPending()

	return chunks
}

// mergeSplits packs consecutive small pieces into chunks no larger than
// size, carrying a suffix of each finished chunk into the next so adjacent
// chunks share roughly overlap runes of context.
func mergeSplits(splits []string, sep string, size, overlap int) []string {
	sepLen := utf8.RuneCountInString(sep)

	var chunks []string
	var window []string
	total := 0

	emit := func() {
		if len(window) == 0 {
			return
		}
		joined := strings.TrimSpace(strings.Join(window, sep))
		if joined != "" {
			chunks = append(chunks, joined)
		}
	}

	for _, s := range splits {
		n := utf8.RuneCountInString(s)
		if len(window) > 0 && total+sepLen+n > size {
			emit()
			// Shrink the carried window until it fits the overlap budget and
			// leaves room for the incoming piece within size.
			for len(window) > 0 && (total > overlap || total+sepLen+n > size) {
				total -= utf8.RuneCountInString(window[0])
				if len(window) > 1 {
					total -= sepLen
				}
				window = window[1:]
			}
		}
		if len(window) > 0 {
			total += sepLen
		}
		window = append(window, s)
		total += n
	}
	emit()

	return chunks
}

// splitRunes is the last-resort splitter for separator-free text: fixed
// windows of size runes stepping by size-overlap.
func splitRunes(text string, size, overlap int) []string {
	runes := []rune(text)
	step := size - overlap
	if step <= 0 {
		step = size
	}

	var chunks []string
	for i := 0; i < len(runes); i += step {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return store.SentinelNA
	}
	return s
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return store.SentinelUnknown
	}
	return s
}
