package domain

import "strconv"

// Extras holds presentation and pricing metadata attached to a line item,
// such as name, price, image or product routes. The cart never interprets
// it beyond the well-known keys below.
type Extras map[string]interface{}

// Name returns the "name" extra, or "" when absent.
func (e Extras) Name() string {
	if e == nil {
		return ""
	}
	if name, ok := e["name"].(string); ok {
		return name
	}
	return ""
}

// Price returns the "price" extra as a decimal amount. JSON decoding
// produces float64 but stored snapshots may carry strings, so both
// are accepted.
func (e Extras) Price() (float64, bool) {
	if e == nil {
		return 0, false
	}
	switch v := e["price"].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		price, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return price, true
	}
	return 0, false
}

// LineItem is one cart entry. SKU is the unique key within a cart;
// quantity may go negative while an update is applied but an item only
// stays in the cart while its quantity is positive.
type LineItem struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
	Extras   Extras `json:"extras,omitempty"`
}

// CopyItems returns a copy of the given item list so observers cannot
// mutate the store's backing slice.
func CopyItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}
