package catalog

import (
	"context"
	"slices"
	"sync"
	"time"
)

// ProductLoader is the part of Engine a Listing needs.
type ProductLoader interface {
	LoadProducts(ctx context.Context, filter FilterSort) ([]Product, error)
}

// StaleObserver is notified whenever a response is discarded for being stale.
type StaleObserver interface {
	IncStaleDiscard()
}

// Ticket identifies one issued load. Tickets grow strictly per Listing.
type Ticket uint64

// View is a point-in-time copy of a Listing.
type View struct {
	Generation uint64     `json:"generation"`
	Filter     FilterSort `json:"filter"`
	Products   []Product  `json:"products"`
	Loading    bool       `json:"loading"`
	Loaded     bool       `json:"loaded"`
	// Stale is set when the load that produced this view was superseded and
	// its response discarded.
	Stale bool `json:"stale"`
}

// Listing holds the current product result of one session. Only the response
// of the most recently issued ticket may replace it; earlier responses are
// dropped, and upstream requests are never cancelled.
type Listing struct {
	mu        sync.Mutex
	issued    uint64
	committed uint64
	filter    FilterSort
	products  []Product
	loading   bool
	loaded    bool
	observer  StaleObserver
}

func NewListing(observer StaleObserver) *Listing {
	return &Listing{observer: observer, filter: FilterSort{Categories: []string{}, Sort: SortAscending}}
}

// Begin issues a new ticket and marks the listing as loading.
func (l *Listing) Begin() Ticket {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.issued++
	l.loading = true
	return Ticket(l.issued)
}

// Commit replaces the current result when t is the latest ticket. It reports
// whether the result was accepted.
func (l *Listing) Commit(t Ticket, filter FilterSort, products []Product) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if uint64(t) != l.issued {
		l.discarded()
		return false
	}
	l.committed = uint64(t)
	l.filter = FilterSort{Categories: slices.Clone(filter.Categories), Sort: filter.Sort}
	l.products = slices.Clone(products)
	l.loading = false
	l.loaded = true
	return true
}

// Fail ends the latest load without touching the previous result.
func (l *Listing) Fail(t Ticket) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if uint64(t) != l.issued {
		l.discarded()
		return false
	}
	l.loading = false
	return true
}

// Current returns a copy of the committed state.
func (l *Listing) Current() View {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.viewLocked()
}

// Load runs one full load cycle against loader. On a superseded response the
// returned view describes the authoritative state with Stale set.
func (l *Listing) Load(ctx context.Context, loader ProductLoader, filter FilterSort) (View, error) {
	ticket := l.Begin()
	products, err := loader.LoadProducts(ctx, filter)
	if err != nil {
		accepted := l.Fail(ticket)
		view := l.Current()
		view.Stale = !accepted
		return view, err
	}
	accepted := l.Commit(ticket, filter, products)
	view := l.Current()
	view.Stale = !accepted
	return view, nil
}

func (l *Listing) viewLocked() View {
	products := slices.Clone(l.products)
	if products == nil {
		products = []Product{}
	}
	return View{
		Generation: l.committed,
		Filter:     FilterSort{Categories: slices.Clone(l.filter.Categories), Sort: l.filter.Sort},
		Products:   products,
		Loading:    l.loading,
		Loaded:     l.loaded,
	}
}

func (l *Listing) discarded() {
	if l.observer != nil {
		l.observer.IncStaleDiscard()
	}
}

// Listings keeps one Listing per session and forgets sessions idle for longer
// than the TTL.
type Listings struct {
	mu        sync.Mutex
	entries   map[string]*listingEntry
	ttl       time.Duration
	observer  StaleObserver
	now       func() time.Time
	lastSweep time.Time
}

type listingEntry struct {
	listing  *Listing
	lastSeen time.Time
}

func NewListings(ttl time.Duration, observer StaleObserver) *Listings {
	return &Listings{
		entries:  make(map[string]*listingEntry),
		ttl:      ttl,
		observer: observer,
		now:      time.Now,
	}
}

// For returns the session's listing, creating it on first use.
func (s *Listings) For(sessionID string) *Listing {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweepLocked(now)
	entry, ok := s.entries[sessionID]
	if !ok {
		entry = &listingEntry{listing: NewListing(s.observer)}
		s.entries[sessionID] = entry
	}
	entry.lastSeen = now
	return entry.listing
}

// Len reports how many sessions currently hold a listing.
func (s *Listings) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Listings) sweepLocked(now time.Time) {
	if s.ttl <= 0 || now.Sub(s.lastSweep) < s.ttl/4 {
		return
	}
	s.lastSweep = now
	for id, entry := range s.entries {
		if now.Sub(entry.lastSeen) > s.ttl {
			delete(s.entries, id)
		}
	}
}
