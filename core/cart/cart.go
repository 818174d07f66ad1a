package cart

import "strconv"

// Listing is the snapshot of a service listing taken when it is added to a
// cart. Later price changes on the listing do not affect carts.
type Listing struct {
	ID              int     `json:"serviceListingId" validate:"required,gt=0"`
	Title           string  `json:"title"`
	BasePrice       float64 `json:"basePrice" validate:"gte=0"`
	CalendarGroupID string  `json:"calendarGroupId,omitempty"`
}

// Bookable reports whether the listing is tied to a schedulable slot. Bookable
// listings are never stacked: each add creates its own cart entry.
func (l Listing) Bookable() bool {
	return l.CalendarGroupID != ""
}

type Item struct {
	// ID is the 1-based position of the item in its cart. It changes on every
	// mutation and must not be kept across them.
	ID       int     `json:"cartItemId"`
	Listing  Listing `json:"serviceListing"`
	Quantity int     `json:"quantity"`
}

// Normalize gives the item a meaningful quantity. Bookable items always hold
// one; other items hold at least one.
func (it Item) Normalize() Item {
	if it.Listing.Bookable() || it.Quantity <= 0 {
		it.Quantity = 1
	}
	return it
}

// Total is the line amount of the item.
func (it Item) Total() float64 {
	return it.Listing.BasePrice * float64(it.Quantity)
}

type Cart struct {
	UserID    int     `json:"userId"`
	Subtotal  float64 `json:"subtotal"`
	ItemCount int     `json:"itemCount"`
	Items     []Item  `json:"cartItems"`
}

// ItemNew is the payload accepted when adding to a cart.
type ItemNew struct {
	Listing  Listing `json:"serviceListing"`
	Quantity int     `json:"quantity" validate:"gte=0,lte=1000"`
}

type QuantityUp struct {
	Quantity int `json:"quantity" validate:"lte=1000"`
}

func New(userID int) Cart {
	return Cart{UserID: userID, Items: []Item{}}
}

func (c Cart) Empty() bool {
	return len(c.Items) == 0
}

// recalculate re-sequences item ids to 1..N in list order and derives the
// subtotal and item count from the items.
func (c *Cart) recalculate() {
	if c.Items == nil {
		c.Items = []Item{}
	}

	c.Subtotal = 0
	c.ItemCount = 0
	for i := range c.Items {
		c.Items[i].ID = i + 1
		c.Subtotal += c.Items[i].Total()
		c.ItemCount += c.Items[i].Quantity
	}
}

func (c Cart) clone() Cart {
	items := make([]Item, len(c.Items))
	copy(items, c.Items)
	c.Items = items
	return c
}

// FormatPrice renders an amount with two decimals. Stored amounts are never
// rounded; rounding happens only here.
func FormatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
