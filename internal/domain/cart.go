package domain

import "time"

const (
	// MinQuantity is the smallest quantity a line may hold.
	MinQuantity = 1
	// MaxQuantity is the largest quantity a line may hold.
	MaxQuantity = 10
)

// CartItem is the catalog snapshot supplied when adding to a cart.
type CartItem struct {
	Title          string `json:"title" validate:"required"`
	ImageRef       string `json:"image"`
	Category       string `json:"category"`
	UnitPriceCents int64  `json:"priceCents" validate:"gte=0"`
}

// CartLine is one product entry in an owner's cart.
type CartLine struct {
	ID             string    `json:"id"`
	OwnerID        string    `json:"userId"`
	Title          string    `json:"title"`
	ImageRef       string    `json:"image,omitempty"`
	Category       string    `json:"category,omitempty"`
	UnitPriceCents int64     `json:"priceCents"`
	Quantity       int       `json:"quantity"`
	AddedAt        time.Time `json:"addedAt"`
}

// TotalCents is the line price times quantity.
func (l CartLine) TotalCents() int64 {
	return l.UnitPriceCents * int64(l.Quantity)
}

// SameProduct reports whether l and item are merged into one line.
func (l CartLine) SameProduct(title string, unitPriceCents int64) bool {
	return l.Title == title && l.UnitPriceCents == unitPriceCents
}

// CartView is the owner-filtered projection of the active cart.
type CartView struct {
	OwnerID    string     `json:"ownerId"`
	Lines      []CartLine `json:"lineItems"`
	TotalCents int64      `json:"totalCents"`
	ItemCount  int        `json:"itemCount"`
}

// NewCartView builds a view and its derived totals from lines.
func NewCartView(ownerID string, lines []CartLine) CartView {
	view := CartView{OwnerID: ownerID, Lines: CloneLines(lines)}
	if view.Lines == nil {
		view.Lines = []CartLine{}
	}
	for _, line := range view.Lines {
		view.TotalCents += line.TotalCents()
		view.ItemCount += line.Quantity
	}
	return view
}

// ClampQuantity forces q into [MinQuantity, MaxQuantity].
func ClampQuantity(q int) int {
	if q < MinQuantity {
		return MinQuantity
	}
	if q > MaxQuantity {
		return MaxQuantity
	}
	return q
}

// CloneLines copies lines; nil stays nil.
func CloneLines(lines []CartLine) []CartLine {
	if lines == nil {
		return nil
	}
	out := make([]CartLine, len(lines))
	copy(out, lines)
	return out
}

// Receipt is the outcome of a simulated checkout.
type Receipt struct {
	OrderID    string     `json:"orderId"`
	OwnerID    string     `json:"ownerId"`
	Lines      []CartLine `json:"lineItems"`
	TotalCents int64      `json:"totalCents"`
	ItemCount  int        `json:"itemCount"`
	PlacedAt   time.Time  `json:"placedAt"`
}
