package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// PlaceholderImage is used when a product record carries no usable image reference.
const PlaceholderImage = "/images/placeholder.png"

// FlexID is a product/user identifier as delivered by the API, which is not
// consistent about whether ids are JSON strings or numbers. It always holds
// the canonical string form, so "7", 7 and 7.0 compare equal.
type FlexID string

func (f *FlexID) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = FlexID(CanonicalID(v))
	return nil
}

func (f FlexID) String() string {
	return string(f)
}

// CanonicalID normalizes a loosely typed identifier to its canonical string
// form. Integral floats lose their fractional part ("7", not "7.000000").
func CanonicalID(v interface{}) string {
	switch id := v.(type) {
	case string:
		return strings.TrimSpace(id)
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case json.Number:
		if n, err := id.Float64(); err == nil {
			return strconv.FormatFloat(n, 'f', -1, 64)
		}
		return id.String()
	case int:
		return strconv.Itoa(id)
	case int64:
		return strconv.FormatInt(id, 10)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// Product is a catalog record as returned by the products endpoints.
// The API uses a capitalized "Category" key; "img" is a legacy alias for
// "image" that some payloads still carry.
type Product struct {
	ID          FlexID   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       float64  `json:"price"`
	OldPrice    *float64 `json:"old_price,omitempty"`
	Image       string   `json:"image,omitempty"`
	Img         string   `json:"img,omitempty"`
	Category    string   `json:"Category,omitempty"`
	Type        string   `json:"type,omitempty"`
}

// ImageRef returns the usable image reference for the product, preferring the
// current field over the legacy one and falling back to the placeholder.
func (p Product) ImageRef() string {
	if p.Image != "" {
		return p.Image
	}
	if p.Img != "" {
		return p.Img
	}
	return PlaceholderImage
}

// Discounted reports whether the product carries a strike-through price.
func (p Product) Discounted() bool {
	return p.OldPrice != nil && *p.OldPrice > p.Price
}
