package pricing

import (
	"storefront/client/internal/domain"
	"storefront/client/internal/money"
)

// Membership reports whether a candidate is part of the selection.
type Membership interface {
	Contains(id string) bool
}

// Snapshot is the derived price of a bundle. It is never stored.
type Snapshot struct {
	Total           int64 `json:"total"`
	TotalOriginal   int64 `json:"total_original"`
	DiscountPercent int   `json:"discount_percent"` // Can be negative on inconsistent backend data
	Items           int   `json:"items"`
}

// DisplayDiscount is the discount shown to users, never below 0 or above 100.
func (s Snapshot) DisplayDiscount() int {
	return money.ClampPercent(s.DiscountPercent)
}

// Saving is the amount saved against the original prices, 0 when there is none.
func (s Snapshot) Saving() int64 {
	return money.NonNegative(s.TotalOriginal - s.Total)
}

// Calculate prices the current product plus every candidate that is both listed and selected.
// The current product always counts once, even when it also appears as a candidate.
func Calculate(current domain.Product, candidates []domain.BundleCandidate, selected Membership) Snapshot {
	snap := Snapshot{
		Total:         current.Price,
		TotalOriginal: current.EffectiveOriginalPrice(),
		Items:         1,
	}

	seen := map[string]struct{}{current.ID: {}}
	for _, c := range candidates {
		if _, ok := seen[c.ID]; ok {
			continue
		}
		seen[c.ID] = struct{}{}

		if selected == nil || !selected.Contains(c.ID) {
			continue
		}

		snap.Total += c.Price
		snap.TotalOriginal += c.EffectiveOriginalPrice()
		snap.Items++
	}

	snap.DiscountPercent = money.DiscountPercent(snap.Total, snap.TotalOriginal)
	return snap
}
