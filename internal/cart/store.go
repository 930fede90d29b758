package cart

import (
	"slices"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/shopspring/decimal"
)

// LineItem is one product in the cart. Title, Price and Image are captured
// on the first add and never refreshed.
type LineItem struct {
	ProductID int             `json:"product_id"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
	Quantity  int             `json:"quantity"`
}

// Subtotal is Price times Quantity.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Store holds the line items of one session together with the removal state
// machine. The zero value is an empty, idle cart. Store is not safe for
// concurrent use; Service serialises access per session.
type Store struct {
	items          []LineItem
	pendingRemoval *int
}

func NewStore() *Store {
	return &Store{}
}

// AddToCart increments the quantity of an existing line item or appends a new
// one with quantity 1.
func (s *Store) AddToCart(product catalog.Product) {
	if i := s.indexOf(product.ID); i >= 0 {
		s.items[i].Quantity++
		return
	}
	s.items = append(s.items, LineItem{
		ProductID: product.ID,
		Title:     product.Title,
		Price:     product.Price,
		Image:     product.Image,
		Quantity:  1,
	})
}

// RequestRemoval marks productID as the removal target, replacing any earlier
// target. The cart itself is untouched.
func (s *Store) RequestRemoval(productID int) {
	id := productID
	s.pendingRemoval = &id
}

// CancelRemoval returns to the idle state.
func (s *Store) CancelRemoval() {
	s.pendingRemoval = nil
}

// ConfirmRemoval deletes the pending line item regardless of its quantity and
// returns to idle. It reports whether a line item was removed; confirming with
// nothing pending, or with a target no longer in the cart, changes nothing.
func (s *Store) ConfirmRemoval() bool {
	if s.pendingRemoval == nil {
		return false
	}
	id := *s.pendingRemoval
	s.pendingRemoval = nil
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.items = slices.Delete(s.items, i, i+1)
	return true
}

// PendingRemoval returns the current removal target, if any.
func (s *Store) PendingRemoval() (int, bool) {
	if s.pendingRemoval == nil {
		return 0, false
	}
	return *s.pendingRemoval, true
}

// TotalValue sums price times quantity over all line items.
func (s *Store) TotalValue() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// TotalItemCount sums quantities, not distinct products.
func (s *Store) TotalItemCount() int {
	count := 0
	for _, item := range s.items {
		count += item.Quantity
	}
	return count
}

// Items returns the line items in the order they were first added.
func (s *Store) Items() []LineItem {
	items := slices.Clone(s.items)
	if items == nil {
		items = []LineItem{}
	}
	return items
}

func (s *Store) Contains(productID int) bool {
	return s.indexOf(productID) >= 0
}

func (s *Store) Len() int {
	return len(s.items)
}

func (s *Store) indexOf(productID int) int {
	return slices.IndexFunc(s.items, func(item LineItem) bool {
		return item.ProductID == productID
	})
}

// Snapshot is the serialisable form of a Store kept by session repositories.
type Snapshot struct {
	Items          []LineItem `json:"items"`
	PendingRemoval *int       `json:"pending_removal,omitempty"`
}

func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{Items: s.Items()}
	if id, ok := s.PendingRemoval(); ok {
		snap.PendingRemoval = &id
	}
	return snap
}

// Restore builds a Store from a snapshot. Items with a non-positive quantity
// are dropped and repeated product ids are merged so the result keeps the
// store's invariants.
func Restore(snap Snapshot) *Store {
	store := NewStore()
	for _, item := range snap.Items {
		if item.Quantity < 1 {
			continue
		}
		if i := store.indexOf(item.ProductID); i >= 0 {
			store.items[i].Quantity += item.Quantity
			continue
		}
		store.items = append(store.items, item)
	}
	if snap.PendingRemoval != nil {
		store.RequestRemoval(*snap.PendingRemoval)
	}
	return store
}
