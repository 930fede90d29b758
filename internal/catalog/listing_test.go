package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

type countingObserver struct{ stale int }

func (c *countingObserver) IncStaleDiscard() { c.stale++ }

// gatedLoader answers each LoadProducts call with whatever is sent on the
// channel registered for that call's filter sort order.
type gatedLoader struct {
	replies map[SortOrder]chan loadReply
}

type loadReply struct {
	products []Product
	err      error
}

func (g *gatedLoader) LoadProducts(ctx context.Context, filter FilterSort) ([]Product, error) {
	reply := <-g.replies[filter.Sort]
	return reply.products, reply.err
}

func priced(id int, price int64) Product {
	return Product{ID: id, Price: decimal.NewFromInt(price)}
}

func TestListingCommitsOnlyLatestTicket(t *testing.T) {
	observer := &countingObserver{}
	listing := NewListing(observer)

	first := listing.Begin()
	second := listing.Begin()

	if !listing.Commit(second, FilterSort{Sort: SortDescending}, []Product{priced(2, 2)}) {
		t.Fatalf("latest ticket should commit")
	}
	if listing.Commit(first, FilterSort{Sort: SortAscending}, []Product{priced(1, 1)}) {
		t.Fatalf("stale ticket must be discarded")
	}

	view := listing.Current()
	if diff := cmp.Diff([]int{2}, ids(view.Products)); diff != "" {
		t.Fatalf("stale response leaked into view (-want +got):\n%s", diff)
	}
	if view.Filter.Sort != SortDescending || view.Generation != uint64(second) {
		t.Fatalf("unexpected view %+v", view)
	}
	if view.Loading {
		t.Fatalf("listing should not be loading after latest commit")
	}
	if observer.stale != 1 {
		t.Fatalf("expected one stale discard, got %d", observer.stale)
	}
}

func TestListingFailKeepsPreviousResult(t *testing.T) {
	listing := NewListing(nil)
	ticket := listing.Begin()
	listing.Commit(ticket, FilterSort{}, []Product{priced(1, 1)})

	failing := listing.Begin()
	if !listing.Current().Loading {
		t.Fatalf("expected loading while a ticket is outstanding")
	}
	if !listing.Fail(failing) {
		t.Fatalf("latest ticket failure should be accepted")
	}

	view := listing.Current()
	if view.Loading {
		t.Fatalf("failure should clear loading")
	}
	if diff := cmp.Diff([]int{1}, ids(view.Products)); diff != "" {
		t.Fatalf("previous result should survive failure (-want +got):\n%s", diff)
	}
}

func TestListingEmptyBeforeFirstLoad(t *testing.T) {
	view := NewListing(nil).Current()
	if view.Loaded || view.Loading || view.Products == nil || len(view.Products) != 0 {
		t.Fatalf("unexpected initial view %+v", view)
	}
}

func TestListingLoadDiscardsOverlappingOlderResponse(t *testing.T) {
	loader := &gatedLoader{replies: map[SortOrder]chan loadReply{
		SortAscending:  make(chan loadReply),
		SortDescending: make(chan loadReply),
	}}
	listing := NewListing(nil)

	olderDone := make(chan View, 1)
	go func() {
		view, _ := listing.Load(context.Background(), loader, FilterSort{Sort: SortAscending})
		olderDone <- view
	}()
	waitForGeneration(t, listing, 1)

	newerDone := make(chan View, 1)
	go func() {
		view, _ := listing.Load(context.Background(), loader, FilterSort{Sort: SortDescending})
		newerDone <- view
	}()
	waitForGeneration(t, listing, 2)

	// The newer request finishes first, then the older one arrives late.
	loader.replies[SortDescending] <- loadReply{products: []Product{priced(2, 2)}}
	newer := <-newerDone
	if newer.Stale {
		t.Fatalf("latest load must not be stale")
	}
	loader.replies[SortAscending] <- loadReply{products: []Product{priced(1, 1)}}
	older := <-olderDone
	if !older.Stale {
		t.Fatalf("superseded load must be reported stale")
	}

	if diff := cmp.Diff([]int{2}, ids(listing.Current().Products)); diff != "" {
		t.Fatalf("late response overwrote latest result (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{2}, ids(older.Products)); diff != "" {
		t.Fatalf("stale view should describe the authoritative result (-want +got):\n%s", diff)
	}
}

func TestListingLoadPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	loader := &gatedLoader{replies: map[SortOrder]chan loadReply{SortAscending: make(chan loadReply, 1)}}
	loader.replies[SortAscending] <- loadReply{err: boom}

	view, err := NewListing(nil).Load(context.Background(), loader, FilterSort{Sort: SortAscending})
	if !errors.Is(err, boom) {
		t.Fatalf("expected error to propagate, got %v", err)
	}
	if view.Stale || view.Loading {
		t.Fatalf("unexpected view after failure %+v", view)
	}
}

func TestListingsPerSessionAndExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	listings := NewListings(time.Hour, nil)
	listings.now = func() time.Time { return now }

	a := listings.For("a")
	if listings.For("a") != a {
		t.Fatalf("expected the same listing for one session")
	}
	if listings.For("b") == a {
		t.Fatalf("sessions must not share listings")
	}

	now = now.Add(30 * time.Minute)
	listings.For("b")
	now = now.Add(45 * time.Minute)
	listings.For("b")

	if listings.Len() != 1 {
		t.Fatalf("expected idle session to be evicted, have %d", listings.Len())
	}
	if listings.For("a") == a {
		t.Fatalf("evicted session should get a fresh listing")
	}
}

func waitForGeneration(t *testing.T, listing *Listing, issued uint64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		listing.mu.Lock()
		got := listing.issued
		listing.mu.Unlock()
		if got >= issued {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for ticket %d", issued)
}
