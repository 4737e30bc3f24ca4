package models

// CartLine is one line of the locally persisted cart document.
type CartLine struct {
	LocalID      string  `json:"localId,omitempty"`
	ProductID    string  `json:"productId"`
	Name         string  `json:"name"`
	UnitPrice    float64 `json:"unitPrice"`
	ImageRef     string  `json:"imageRef,omitempty"`
	Quantity     int     `json:"quantity"`
	ServerLineID string  `json:"serverLineId,omitempty"`
}

// Cart is the ordered cart document. Insertion order is preserved and product
// ids are unique; adding an existing id bumps the quantity in place.
type Cart []CartLine

// TotalPrice is the sum of unit price times quantity over all lines.
func (c Cart) TotalPrice() float64 {
	var total float64
	for _, l := range c {
		total += l.UnitPrice * float64(l.Quantity)
	}
	return total
}

// CountItems is the total unit count across all lines.
func (c Cart) CountItems() int {
	var n int
	for _, l := range c {
		n += l.Quantity
	}
	return n
}

// IndexOf returns the position of the line holding the given canonical
// product id, or -1.
func (c Cart) IndexOf(productID string) int {
	for i, l := range c {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

// WishlistEntry is one element of the wishlist document. Presence is boolean;
// there is no quantity.
type WishlistEntry struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	ImageRef  string  `json:"imageRef,omitempty"`
}

// ServerCartLine is a cart line in the shape the remote cart endpoint uses.
type ServerCartLine struct {
	ProductID   FlexID  `json:"product_id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Image       string  `json:"image,omitempty"`
	Quantity    int     `json:"quantity"`
	CartItemID  FlexID  `json:"cart_item_id,omitempty"`
}

// ToCartLine converts a server cart line into the local document shape.
func (l ServerCartLine) ToCartLine() CartLine {
	image := l.Image
	if image == "" {
		image = PlaceholderImage
	}
	qty := l.Quantity
	if qty < 1 {
		qty = 1
	}
	return CartLine{
		ProductID:    l.ProductID.String(),
		Name:         l.Name,
		UnitPrice:    l.Price,
		ImageRef:     image,
		Quantity:     qty,
		ServerLineID: l.CartItemID.String(),
	}
}
