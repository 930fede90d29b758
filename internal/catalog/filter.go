package catalog

import (
	"net/url"
	"slices"
	"strings"
)

const (
	QueryCategory = "category"
	QuerySort     = "sort"
)

// SortOrder orders listings by price.
type SortOrder string

const (
	SortAscending  SortOrder = "asc"
	SortDescending SortOrder = "desc"
)

// ParseSortOrder maps a raw query value to a SortOrder. Anything other than
// "desc" is ascending.
func ParseSortOrder(raw string) SortOrder {
	if strings.EqualFold(strings.TrimSpace(raw), string(SortDescending)) {
		return SortDescending
	}
	return SortAscending
}

func (s SortOrder) String() string {
	if s == SortDescending {
		return string(SortDescending)
	}
	return string(SortAscending)
}

// FilterSort is the shareable listing state: the selected categories in
// selection order (no duplicates) and the price order. Values are never
// mutated in place; every transition returns a new FilterSort.
type FilterSort struct {
	Categories []string  `json:"categories"`
	Sort       SortOrder `json:"sort"`
}

// ParseFilterSort decodes the query representation. Blank categories are
// ignored and repeated ones keep their first position.
func ParseFilterSort(values url.Values) FilterSort {
	raw := values[QueryCategory]
	categories := make([]string, 0, len(raw))
	for _, category := range raw {
		category = strings.TrimSpace(category)
		if category == "" || slices.Contains(categories, category) {
			continue
		}
		categories = append(categories, category)
	}
	return FilterSort{
		Categories: categories,
		Sort:       ParseSortOrder(values.Get(QuerySort)),
	}
}

// Query is the inverse of ParseFilterSort.
func (f FilterSort) Query() url.Values {
	values := url.Values{}
	for _, category := range f.Categories {
		values.Add(QueryCategory, category)
	}
	values.Set(QuerySort, f.Sort.String())
	return values
}

// Encode renders the query string, keeping categories in selection order.
func (f FilterSort) Encode() string {
	parts := make([]string, 0, len(f.Categories)+1)
	for _, category := range f.Categories {
		parts = append(parts, QueryCategory+"="+url.QueryEscape(category))
	}
	parts = append(parts, QuerySort+"="+f.Sort.String())
	return strings.Join(parts, "&")
}

// Selected reports whether category is part of the filter.
func (f FilterSort) Selected(category string) bool {
	return slices.Contains(f.Categories, category)
}

// Toggle appends category when absent and removes just that entry when
// present, preserving the order of the remaining selections.
func (f FilterSort) Toggle(category string) FilterSort {
	category = strings.TrimSpace(category)
	next := FilterSort{Sort: f.Sort, Categories: slices.Clone(f.Categories)}
	if category == "" {
		return next
	}
	if idx := slices.Index(next.Categories, category); idx >= 0 {
		next.Categories = slices.Delete(next.Categories, idx, idx+1)
		return next
	}
	next.Categories = append(next.Categories, category)
	return next
}

// WithSort returns a copy with the sort order replaced.
func (f FilterSort) WithSort(order SortOrder) FilterSort {
	return FilterSort{Categories: slices.Clone(f.Categories), Sort: ParseSortOrder(string(order))}
}

// SortByPrice stably orders products by price. Descending flips the comparison
// only, so products with equal prices keep their input order either way.
func SortByPrice(products []Product, order SortOrder) []Product {
	sorted := slices.Clone(products)
	slices.SortStableFunc(sorted, func(a, b Product) int {
		if order == SortDescending {
			return b.Price.Cmp(a.Price)
		}
		return a.Price.Cmp(b.Price)
	})
	return sorted
}
