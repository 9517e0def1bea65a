package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fabfab/shop-agent/intent"
	"github.com/fabfab/shop-agent/store"
)

// maxHistoryLines bounds how many individual transactions a history reply
// lists; totals always cover the full set.
const maxHistoryLines = 10

// CustomerHistory looks up a customer by free-text search term and
// summarizes their purchase history. Store failures surface as degraded
// replies, not errors, to keep the chat loop running.
func (s *Service) CustomerHistory(ctx context.Context, term string) Reply {
	term = strings.TrimSpace(term)

	reply := s.customerHistory(ctx, term)
	reply.Intent = intent.CustomerHistory
	reply.Tokens = s.counter.Count(reply.Answer)

	s.record(term, reply)
	return reply
}

func (s *Service) customerHistory(ctx context.Context, term string) Reply {
	if term == "" {
		return Reply{Answer: "Please enter customer details to search"}
	}

	customer, err := s.records.SearchCustomer(ctx, term)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Reply{Answer: fmt.Sprintf("No customer found matching %q", term)}
		}
		s.logger.Printf("customer search failed: %v", err)
		return Reply{Answer: fmt.Sprintf("Error searching customer: %v", err), Degraded: true}
	}

	txns, err := s.records.TransactionsByCustomer(ctx, customer.CustomerID)
	if err != nil {
		s.logger.Printf("transaction lookup failed: %v", err)
		return Reply{Answer: fmt.Sprintf("Error searching customer: %v", err), Degraded: true}
	}

	if len(txns) == 0 {
		return Reply{Answer: fmt.Sprintf("Customer %s has no purchase history", customer.Name)}
	}

	return Reply{Answer: formatHistory(customer, txns)}
}

func formatHistory(customer *store.Customer, txns []store.Transaction) string {
	var totalSpent float64
	for _, t := range txns {
		totalSpent += t.TotalAmount
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Customer: %s (ID: %s)\n", customer.Name, customer.CustomerID)
	fmt.Fprintf(&sb, "Email: %s | Loyalty Tier: %s\n", customer.Email, customer.LoyaltyTier)
	fmt.Fprintf(&sb, "Total Transactions: %d | Total Spent: $%.2f\n", len(txns), totalSpent)
	sb.WriteString("\nRecent Transactions:\n")

	shown := txns
	if len(shown) > maxHistoryLines {
		shown = shown[:maxHistoryLines]
	}
	for _, t := range shown {
		fmt.Fprintf(&sb, "- %s | %s | %s | qty %d | $%.2f | %s\n",
			t.DateOfPurchase.Format("2006-01-02"), t.InvoiceNumber, t.ProductName,
			t.Quantity, t.TotalAmount, t.Status)
	}
	if len(txns) > maxHistoryLines {
		fmt.Fprintf(&sb, "... and %d more\n", len(txns)-maxHistoryLines)
	}

	return strings.TrimRight(sb.String(), "\n")
}
