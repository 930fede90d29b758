package catalog

import (
	"github.com/angelmondragon/storefront-backend/pkg/fakestore"
	"github.com/shopspring/decimal"
)

// Prices go over the wire as JSON numbers, matching the upstream catalog.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Product is an immutable catalog entry as returned to clients.
type Product struct {
	ID          int             `json:"id"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	Rating      *Rating         `json:"rating,omitempty"`
}

// Rating is the aggregate customer score reported by the catalog.
type Rating struct {
	Rate  decimal.Decimal `json:"rate"`
	Count int             `json:"count"`
}

func productFromWire(p fakestore.Product) Product {
	product := Product{
		ID:          p.ID,
		Title:       p.Title,
		Price:       p.Price,
		Category:    p.Category,
		Description: p.Description,
		Image:       p.Image,
	}
	if p.Rating != nil {
		product.Rating = &Rating{Rate: p.Rating.Rate, Count: p.Rating.Count}
	}
	return product
}

func productsFromWire(items []fakestore.Product) []Product {
	out := make([]Product, 0, len(items))
	for _, item := range items {
		out = append(out, productFromWire(item))
	}
	return out
}
