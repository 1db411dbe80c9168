package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryMobiles  Category = "mobiles"
	CategoryBooks    Category = "books"
	CategoryClothing Category = "clothing"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryMobiles, CategoryBooks, CategoryClothing:
		return true
	}
	return false
}

// Item is an immutable catalog entry. DiscountPrice, when set, is strictly
// lower than Price and wins over it.
type Item struct {
	ID            int64            `json:"id"`
	Name          string           `json:"name"`
	Description   string           `json:"description,omitempty"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discount_price,omitempty"`
	Category      Category         `json:"category"`
	Label         string           `json:"label,omitempty"`
	Slug          string           `json:"slug"`
	CreatedAt     time.Time        `json:"created_at"`
}

func (i *Item) EffectivePrice() decimal.Decimal {
	if i.DiscountPrice != nil {
		return *i.DiscountPrice
	}
	return i.Price
}

// OrderLine belongs to exactly one Order. Quantity is always >= 1; a line
// decremented to zero is deleted, never stored.
type OrderLine struct {
	ID        int64     `json:"id"`
	OrderID   int64     `json:"order_id"`
	ItemID    int64     `json:"item_id"`
	UserID    int64     `json:"user_id"`
	Quantity  int       `json:"quantity"`
	Fulfilled bool      `json:"fulfilled"`
	CreatedAt time.Time `json:"created_at"`
	Item      Item      `json:"item"`
}

func (l *OrderLine) LineTotal() decimal.Decimal {
	return l.Item.EffectivePrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// SavedAmount is the discount gained on this line, zero when the item has
// no discount price.
func (l *OrderLine) SavedAmount() decimal.Decimal {
	if l.Item.DiscountPrice == nil {
		return decimal.Zero
	}
	return l.Item.Price.Sub(*l.Item.DiscountPrice).Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order is a user's cart while Fulfilled is false and an immutable record
// afterwards. At most one order per user is open at any time.
type Order struct {
	ID                int64       `json:"id"`
	UserID            int64       `json:"user_id"`
	Fulfilled         bool        `json:"fulfilled"`
	CreatedAt         time.Time   `json:"created_at"`
	FulfilledAt       *time.Time  `json:"fulfilled_at,omitempty"`
	ShippingAddressID *int64      `json:"shipping_address_id,omitempty"`
	PaymentID         *int64      `json:"payment_id,omitempty"`
	Lines             []OrderLine `json:"lines,omitempty"`
}

func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for i := range o.Lines {
		total = total.Add(o.Lines[i].LineTotal())
	}
	return total
}

type ShippingAddress struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Street     string    `json:"street"`
	Unit       string    `json:"unit,omitempty"`
	Country    string    `json:"country"`
	PostalCode string    `json:"postal_code"`
	CreatedAt  time.Time `json:"created_at"`
}

// Payment is written exactly once per fulfilled order and never mutated.
type Payment struct {
	ID            int64           `json:"id"`
	ProviderTxnID string          `json:"provider_txn_id"`
	Amount        decimal.Decimal `json:"amount"`
	CreatedAt     time.Time       `json:"created_at"`
}

type Message struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
