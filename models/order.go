package models

// CheckoutRequest is the body of POST /api/checkout. The API expects the cart
// lines pre-encoded as a JSON string in Items, not as a nested array.
type CheckoutRequest struct {
	Items      string  `json:"items"`
	TotalPrice float64 `json:"totalPrice"`
	CountItems int     `json:"countItems"`
	Email      string  `json:"email"`
	Name       string  `json:"name"`
	Address    string  `json:"address"`
	Phone      string  `json:"phone"`
	UserID     string  `json:"user_id,omitempty"`
}

// OrderConfirmation is the success payload of POST /api/checkout.
type OrderConfirmation struct {
	Success bool   `json:"success"`
	OrderID FlexID `json:"order_id,omitempty"`
	Message string `json:"message,omitempty"`
}

// SyncResponse is the payload of POST /api/cart/sync/{userId}.
type SyncResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
