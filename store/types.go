package store

import "time"

// Sentinel values substituted for absent fields at the ingestion boundary.
// Render paths can rely on every field being populated.
const (
	SentinelNA      = "N/A"
	SentinelUnknown = "Unknown"
	SentinelNoID    = "UNKNOWN"
	DefaultTier     = "Regular"
)

type Customer struct {
	CustomerID  string
	Name        string
	Email       string
	Phone       string
	City        string
	LoyaltyTier string
	CreatedAt   time.Time
}

type Product struct {
	ProductID     string
	Name          string
	Category      string
	SKU           string
	COGS          float64
	MarginPercent float64
	CreatedAt     time.Time
}

type Transaction struct {
	InvoiceNumber      string
	TxnNumber          string
	CustomerID         string
	CustomerName       string
	CustomerEmail      string
	ProductID          string
	ProductName        string
	Category           string
	Quantity           int
	GrossAmount        float64
	DiscountPercentage float64
	TotalAmount        float64
	GST                float64
	PaymentMode        string
	DateOfPurchase     time.Time
	Channel            string
	StoreLocation      string
	Status             string
}

type Ticket struct {
	TicketNumber  string
	CustomerName  string
	CustomerEmail string
	Category      string
	Issue         string
	Priority      string
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
