package order

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math"
	"time"

	"github.com/serome111/orderflow/internal/catalog"
)

const (
	discountThreshold = 500.0
	discountRate      = 0.10
	discountRule      = "10% on orders > 500"
)

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// BuildRecord joins an order with its catalog attributes and computes
// the pricing fields. The catalog price wins over the submitted unit
// price when present; every monetary value is rounded to 2 decimals.
// normalize, when non-nil, is applied to the catalog category text.
func BuildRecord(req Request, attrs map[string]catalog.Attributes, normalize func(string) string) Record {
	enriched := make([]EnrichedItem, 0, len(req.Items))
	subtotal := 0.0

	for _, item := range req.Items {
		line := EnrichedItem{
			SKU:       item.SKU,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}

		effectivePrice := item.UnitPrice
		if a, ok := attrs[item.SKU]; ok {
			id := a.ID
			line.CatalogID = &id
			line.Title = a.Title
			line.Category = a.Category
			line.Description = a.Description
			if normalize != nil {
				line.Category = normalize(line.Category)
			}
			if a.Price != nil {
				catalogPrice := round2(*a.Price)
				line.CatalogPrice = &catalogPrice
				effectivePrice = catalogPrice
			}
		}

		line.LineTotal = round2(effectivePrice * float64(item.Quantity))
		subtotal += line.LineTotal
		enriched = append(enriched, line)
	}

	subtotal = round2(subtotal)
	discount := 0.0
	if subtotal > discountThreshold {
		discount = round2(subtotal * discountRate)
	}
	finalTotal := round2(subtotal - discount)

	return Record{
		OrderID:     req.ID,
		Customer:    req.Customer,
		SubmittedAt: req.SubmittedAt,
		Subtotal:    subtotal,
		Discount:    discount,
		FinalTotal:  finalTotal,
		ContentHash: ContentHash(req.ID, req.Customer, req.SubmittedAt, finalTotal),
		Items:       enriched,
		Extra:       map[string]interface{}{"discount_rule": discountRule},
	}
}

// ContentHash is a sha256 over a canonical serialization of the fields
// that identify a processed order. Identical inputs always produce the
// identical hash regardless of line-item order, since items do not
// participate.
func ContentHash(orderID int64, customer string, submittedAt time.Time, finalTotal float64) string {
	payload := struct {
		Customer    string  `json:"customer"`
		FinalTotal  float64 `json:"final_total"`
		OrderID     int64   `json:"order_id"`
		SubmittedAt string  `json:"submitted_at"`
	}{
		Customer:    customer,
		FinalTotal:  finalTotal,
		OrderID:     orderID,
		SubmittedAt: submittedAt.UTC().Format(time.RFC3339),
	}

	// Struct field order keeps the key order canonical.
	raw, _ := json.Marshal(payload)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
