package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

type productLoader interface {
	LoadProduct(ctx context.Context, id int) (catalog.Product, error)
}

// Summary is the cart as presented to clients.
type Summary struct {
	Items          []LineItem      `json:"items"`
	TotalValue     decimal.Decimal `json:"total_value"`
	TotalItemCount int             `json:"total_item_count"`
	PendingRemoval *int            `json:"pending_removal"`
}

// Service exposes the session cart operations. Each call runs load, mutate
// and save under the session's lock.
type Service interface {
	View(ctx context.Context, sessionID string) (Summary, error)
	Add(ctx context.Context, sessionID string, productID int) (Summary, error)
	RequestRemoval(ctx context.Context, sessionID string, productID int) (Summary, error)
	CancelRemoval(ctx context.Context, sessionID string) (Summary, error)
	ConfirmRemoval(ctx context.Context, sessionID string) (Summary, error)
}

type service struct {
	repo     SessionRepository
	products productLoader
	logg     *logger.Logger
	locks    sessionLocks
}

// NewService builds a cart service backed by the provided repository.
func NewService(repo SessionRepository, products productLoader, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("session repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{
		repo:     repo,
		products: products,
		logg:     logg,
		locks:    sessionLocks{locks: map[string]*sessionLock{}},
	}, nil
}

func (s *service) View(ctx context.Context, sessionID string) (Summary, error) {
	return s.withStore(ctx, sessionID, false, func(*Store) error { return nil })
}

// Add looks the product up in the catalog before touching the cart, so an
// unknown id leaves the cart unchanged.
func (s *service) Add(ctx context.Context, sessionID string, productID int) (Summary, error) {
	if productID <= 0 {
		return Summary{}, pkgerrors.New(pkgerrors.CodeValidation, "product_id must be positive")
	}
	product, err := s.products.LoadProduct(ctx, productID)
	if err != nil {
		return Summary{}, err
	}
	return s.withStore(ctx, sessionID, true, func(store *Store) error {
		store.AddToCart(product)
		return nil
	})
}

func (s *service) RequestRemoval(ctx context.Context, sessionID string, productID int) (Summary, error) {
	return s.withStore(ctx, sessionID, true, func(store *Store) error {
		if !store.Contains(productID) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "product is not in the cart").
				WithDetails(map[string]any{"product_id": productID})
		}
		store.RequestRemoval(productID)
		return nil
	})
}

func (s *service) CancelRemoval(ctx context.Context, sessionID string) (Summary, error) {
	return s.withStore(ctx, sessionID, true, func(store *Store) error {
		store.CancelRemoval()
		return nil
	})
}

func (s *service) ConfirmRemoval(ctx context.Context, sessionID string) (Summary, error) {
	return s.withStore(ctx, sessionID, true, func(store *Store) error {
		pending, ok := store.PendingRemoval()
		if store.ConfirmRemoval() && s.logg != nil {
			s.logg.Info(s.logg.WithField(ctx, "product_id", pending), "cart line item removed")
		} else if ok && s.logg != nil {
			s.logg.Debug(s.logg.WithField(ctx, "product_id", pending), "removal target no longer in cart")
		}
		return nil
	})
}

func (s *service) withStore(ctx context.Context, sessionID string, save bool, fn func(*Store) error) (Summary, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return Summary{}, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	unlock := s.locks.lock(sessionID)
	defer unlock()

	store, err := s.repo.Load(ctx, sessionID)
	if err != nil {
		return Summary{}, fmt.Errorf("load cart: %w", err)
	}
	if err := fn(store); err != nil {
		return Summary{}, err
	}
	if save {
		if err := s.repo.Save(ctx, sessionID, store); err != nil {
			return Summary{}, fmt.Errorf("save cart: %w", err)
		}
	}
	return summarize(store), nil
}

func summarize(store *Store) Summary {
	summary := Summary{
		Items:          store.Items(),
		TotalValue:     store.TotalValue(),
		TotalItemCount: store.TotalItemCount(),
	}
	if id, ok := store.PendingRemoval(); ok {
		summary.PendingRemoval = &id
	}
	return summary
}

// sessionLocks hands out one mutex per session. Entries are reference
// counted and dropped once no caller holds or waits on them.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func (l *sessionLocks) lock(sessionID string) func() {
	l.mu.Lock()
	entry, ok := l.locks[sessionID]
	if !ok {
		entry = &sessionLock{}
		l.locks[sessionID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, sessionID)
		}
		l.mu.Unlock()
	}
}
