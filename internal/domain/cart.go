package domain

type CartItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

type Cart struct {
	Items []CartItem `json:"items"`
	Total int64      `json:"total"`
}
