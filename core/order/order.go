package order

import (
	"math"
	"strconv"
	"time"

	"github.com/irsalhamdi/pet-marketplace/core/cart"
)

type Status string

const (
	Pending Status = "pending"
	Success Status = "success"
	Expired Status = "expired"
)

// Order is the record of one checkout attempt, keyed by the payment
// provider's id for the session or order it created.
type Order struct {
	ID         string    `json:"id"`
	UserID     int       `json:"userId"`
	ProviderID string    `json:"providerId"`
	Status     Status    `json:"status"`
	Items      []Item    `json:"items"`
	Total      float64   `json:"total"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type Item struct {
	ListingID       int     `json:"serviceListingId"`
	Title           string  `json:"title"`
	CalendarGroupID string  `json:"calendarGroupId,omitempty"`
	Quantity        int     `json:"quantity"`
	Price           float64 `json:"price"`
}

// cents converts a price to the smallest currency unit.
func cents(v float64) int64 {
	return int64(math.Round(v * 100))
}

func formatCents(c int64) string {
	return strconv.FormatFloat(float64(c)/100, 'f', 2, 64)
}

// linesFrom snapshots the cart items and totals them in cents so that the
// amounts sent to providers always add up.
func linesFrom(items []cart.Item) ([]Item, int64) {
	lines := make([]Item, 0, len(items))
	var total int64
	for _, it := range items {
		lines = append(lines, Item{
			ListingID:       it.Listing.ID,
			Title:           it.Listing.Title,
			CalendarGroupID: it.Listing.CalendarGroupID,
			Quantity:        it.Quantity,
			Price:           it.Listing.BasePrice,
		})
		total += cents(it.Listing.BasePrice) * int64(it.Quantity)
	}
	return lines, total
}

// title falls back to a generic name; providers reject empty item names.
func (it Item) title() string {
	if it.Title != "" {
		return it.Title
	}
	return "Service listing #" + strconv.Itoa(it.ListingID)
}

// cartItems turns the paid lines back into the cart entries they came from.
func (o Order) cartItems() []cart.Item {
	items := make([]cart.Item, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, cart.Item{
			Listing: cart.Listing{
				ID:              it.ListingID,
				Title:           it.Title,
				BasePrice:       it.Price,
				CalendarGroupID: it.CalendarGroupID,
			},
			Quantity: it.Quantity,
		})
	}
	return items
}
