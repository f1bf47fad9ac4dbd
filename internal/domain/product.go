package domain

// Product is a catalog entry the storefront offers for adding to carts.
type Product struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	ImageRef    string `json:"image,omitempty"`
	PriceCents  int64  `json:"priceCents"`
}

// CartItem returns the snapshot copied into a cart line.
func (p Product) CartItem() CartItem {
	return CartItem{
		Title:          p.Title,
		ImageRef:       p.ImageRef,
		Category:       p.Category,
		UnitPriceCents: p.PriceCents,
	}
}
