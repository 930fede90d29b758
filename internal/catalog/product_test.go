package catalog

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestProductPriceEncodesAsNumber(t *testing.T) {
	product := Product{
		ID:     9,
		Title:  "ssd",
		Price:  decimal.RequireFromString("109.95"),
		Rating: &Rating{Rate: decimal.RequireFromString("4.8"), Count: 12},
	}

	raw, err := json.Marshal(product)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if price, ok := fields["price"].(float64); !ok || price != 109.95 {
		t.Fatalf("expected numeric price, got %#v in %s", fields["price"], raw)
	}

	var back Product
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !back.Price.Equal(product.Price) || !back.Rating.Rate.Equal(product.Rating.Rate) {
		t.Fatalf("price changed on the way back: %s %s", back.Price, back.Rating.Rate)
	}
}
