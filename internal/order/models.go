package order

import (
	"fmt"
	"time"

	pkgerrors "github.com/serome111/orderflow/pkg/errors"
)

// LineItem is one position of an inbound order submission.
type LineItem struct {
	SKU       string  `json:"sku"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// Request is a validated order submission. The order id is assigned by
// the submitter and doubles as the idempotency key.
type Request struct {
	ID          int64      `json:"id"`
	Customer    string     `json:"customer"`
	Items       []LineItem `json:"items"`
	SubmittedAt time.Time  `json:"submitted_at"`
}

func (r Request) Validate() error {
	if r.ID <= 0 {
		return pkgerrors.ErrValidation.WithDetail("message", "order id must be a positive integer")
	}

	if r.Customer == "" || len(r.Customer) > 120 {
		return pkgerrors.ErrValidation.WithDetail("message", "customer must be between 1 and 120 characters")
	}

	if r.SubmittedAt.IsZero() {
		return pkgerrors.ErrValidation.WithDetail("message", "submitted_at is required")
	}

	if len(r.Items) == 0 {
		return pkgerrors.ErrValidation.WithDetail("message", "the order must include at least one item")
	}

	for i, item := range r.Items {
		if item.SKU == "" || len(item.SKU) > 50 {
			return pkgerrors.ErrValidation.WithDetail("message", fmt.Sprintf("items[%d].sku must be between 1 and 50 characters", i))
		}
		if item.Quantity <= 0 {
			return pkgerrors.ErrValidation.WithDetail("message", fmt.Sprintf("items[%d].quantity must be positive", i))
		}
		if item.UnitPrice <= 0 {
			return pkgerrors.ErrValidation.WithDetail("message", fmt.Sprintf("items[%d].unit_price must be positive", i))
		}
	}

	return nil
}

// SKUs returns the product codes of the order, duplicates included.
func (r Request) SKUs() []string {
	codes := make([]string, 0, len(r.Items))
	for _, item := range r.Items {
		codes = append(codes, item.SKU)
	}
	return codes
}

// EnrichedItem is a line item joined with catalog attributes and the
// computed line total.
type EnrichedItem struct {
	SKU          string   `json:"sku"`
	Quantity     int      `json:"quantity"`
	UnitPrice    float64  `json:"unit_price"`
	CatalogID    *int64   `json:"catalog_id,omitempty"`
	Title        string   `json:"title,omitempty"`
	CatalogPrice *float64 `json:"catalog_price,omitempty"`
	Category     string   `json:"category,omitempty"`
	Description  string   `json:"description,omitempty"`
	LineTotal    float64  `json:"line_total"`
}

// Record is the durable outcome of processing one order id. At most
// one record exists per id; re-processing overwrites the mutable
// fields and keeps created_at.
type Record struct {
	OrderID     int64                  `json:"order_id"`
	Customer    string                 `json:"customer"`
	SubmittedAt time.Time              `json:"submitted_at"`
	Subtotal    float64                `json:"subtotal"`
	Discount    float64                `json:"discount"`
	FinalTotal  float64                `json:"final_total"`
	ContentHash string                 `json:"content_hash"`
	Items       []EnrichedItem         `json:"items"`
	Extra       map[string]interface{} `json:"extra,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
}

// job is a queued unit of work. The attempt counter is owned by the
// worker that popped the job.
type job struct {
	req     Request
	attempt int
}
