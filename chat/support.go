package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fabfab/shop-agent/store"
)

// TicketRequest is the validated input for a new support ticket.
type TicketRequest struct {
	Name     string
	Email    string
	Category string
	Issue    string
	Priority string
}

// TicketCategories are the accepted issue categories, first entry is the
// default.
var TicketCategories = []string{"Order Issue", "Product Defect", "Delivery Problem", "Billing", "Other"}

// TicketPriorities are the accepted priorities, stored lowercase.
var TicketPriorities = []string{"low", "normal", "high", "urgent"}

// FileTicket validates the request and creates an open support ticket.
// Validation failures are returned as errors for the caller to show;
// they are user mistakes, not service outages.
func (s *Service) FileTicket(ctx context.Context, req TicketRequest) (store.Ticket, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return store.Ticket{}, fmt.Errorf("name is required")
	}

	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return store.Ticket{}, fmt.Errorf("valid email is required")
	}

	issue := strings.TrimSpace(req.Issue)
	if issue == "" {
		return store.Ticket{}, fmt.Errorf("issue description is required")
	}

	category := strings.TrimSpace(req.Category)
	if !contains(TicketCategories, category) {
		category = "Other"
	}

	priority := strings.ToLower(strings.TrimSpace(req.Priority))
	if !contains(TicketPriorities, priority) {
		priority = "normal"
	}

	now := time.Now()
	ticket := store.Ticket{
		TicketNumber:  fmt.Sprintf("TKT-%d", now.Unix()),
		CustomerName:  name,
		CustomerEmail: email,
		Category:      category,
		Issue:         issue,
		Priority:      priority,
		Status:        "open",
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.records.InsertTicket(ctx, ticket); err != nil {
		return store.Ticket{}, fmt.Errorf("create ticket: %w", err)
	}

	s.logger.Printf("support ticket %s created for %s", ticket.TicketNumber, email)
	return ticket, nil
}

func contains(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}
