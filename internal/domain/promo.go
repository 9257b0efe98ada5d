package domain

// AnonymousUser is sent as user id when nobody is signed in.
const AnonymousUser = "anonymous"

// PromoValidationRequest is the payload of POST /promo-codes/validate
type PromoValidationRequest struct {
	Code      string     `json:"code"`
	CartTotal int64      `json:"cart_total"`
	CartItems []CartItem `json:"cart_items"`
	UserID    string     `json:"user_id"`
}

// PromoValidation is the backend answer for an accepted code
type PromoValidation struct {
	Code           string `json:"code"`
	Message        string `json:"message"`
	DiscountAmount int64  `json:"discount_amount"`
}

// AppliedPromo is the promo currently applied to a cart.
type AppliedPromo struct {
	Code           string `json:"code"`
	Message        string `json:"message"`
	DiscountAmount int64  `json:"discount_amount"`
	ValidatedTotal int64  `json:"validated_total"` // Cart total the backend validated against
}
