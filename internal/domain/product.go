package domain

// Product is a catalog entry as served by the storefront backend.
// Prices are expressed in the smallest currency unit.
type Product struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Price           int64    `json:"price"`
	OriginalPrice   *int64   `json:"original_price,omitempty"` // Pre-discount reference price
	Images          []string `json:"images,omitempty"`
	DescriptionHTML string   `json:"description,omitempty"`
}

// EffectiveOriginalPrice returns the reference price, falling back to the unit price
// when the backend did not send one.
func (p Product) EffectiveOriginalPrice() int64 {
	if p.OriginalPrice == nil {
		return p.Price
	}
	return *p.OriginalPrice
}

// BundleCandidate is a product offered next to the currently viewed one
type BundleCandidate = Product
