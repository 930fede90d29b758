package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/fakestore"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// Operation labels reported to the request observer.
const (
	OpListProducts   = "list_products"
	OpListByCategory = "list_products_by_category"
	OpListCategories = "list_categories"
	OpGetProduct     = "get_product"
)

// ErrProductNotFound is returned by LoadProduct for unknown or malformed ids.
var ErrProductNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "product not found")

// Source is the read-only catalog service the engine queries.
type Source interface {
	ListProducts(ctx context.Context) ([]fakestore.Product, error)
	ListProductsByCategory(ctx context.Context, category string) ([]fakestore.Product, error)
	ListCategories(ctx context.Context) ([]string, error)
	GetProduct(ctx context.Context, id int) (*fakestore.Product, error)
}

// RequestObserver receives timing for every upstream call.
type RequestObserver interface {
	ObserveRequest(operation string, duration time.Duration, err error)
}

// Engine turns filter/sort state into catalog service calls and a
// deterministically ordered product list. It holds no result state.
type Engine struct {
	source   Source
	logg     *logger.Logger
	observer RequestObserver
}

func NewEngine(source Source, logg *logger.Logger, observer RequestObserver) (*Engine, error) {
	if source == nil {
		return nil, fmt.Errorf("catalog source required")
	}
	return &Engine{source: source, logg: logg, observer: observer}, nil
}

// LoadCategories returns the catalog's category names in upstream order.
func (e *Engine) LoadCategories(ctx context.Context) ([]string, error) {
	start := time.Now()
	categories, err := e.source.ListCategories(ctx)
	e.observe(OpListCategories, start, err)
	if err != nil {
		err = dependencyError(err, "load categories")
		e.logFailure(ctx, "catalog.load_categories.failed", err, nil)
		return nil, err
	}
	return categories, nil
}

// LoadProducts fetches the full catalog when no category is selected, or one
// list per selected category concurrently. Category results are concatenated
// in selection order without dedup, then stably sorted by price. Any failed
// request fails the whole call.
func (e *Engine) LoadProducts(ctx context.Context, filter FilterSort) ([]Product, error) {
	if len(filter.Categories) == 0 {
		start := time.Now()
		items, err := e.source.ListProducts(ctx)
		e.observe(OpListProducts, start, err)
		if err != nil {
			err = dependencyError(err, "load products")
			e.logFailure(ctx, "catalog.load_products.failed", err, filter)
			return nil, err
		}
		return SortByPrice(productsFromWire(items), filter.Sort), nil
	}

	results := make([][]fakestore.Product, len(filter.Categories))
	g, gctx := errgroup.WithContext(ctx)
	for i, category := range filter.Categories {
		g.Go(func() error {
			start := time.Now()
			items, err := e.source.ListProductsByCategory(gctx, category)
			e.observe(OpListByCategory, start, err)
			if err != nil {
				return fmt.Errorf("category %q: %w", category, err)
			}
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		err = dependencyError(err, "load products")
		e.logFailure(ctx, "catalog.load_products.failed", err, filter)
		return nil, err
	}

	total := 0
	for _, items := range results {
		total += len(items)
	}
	merged := make([]Product, 0, total)
	for _, items := range results {
		merged = append(merged, productsFromWire(items)...)
	}
	return SortByPrice(merged, filter.Sort), nil
}

// LoadProduct looks up a single product by id.
func (e *Engine) LoadProduct(ctx context.Context, id int) (Product, error) {
	if id <= 0 {
		return Product{}, ErrProductNotFound
	}
	start := time.Now()
	item, err := e.source.GetProduct(ctx, id)
	if errors.Is(err, fakestore.ErrNotFound) || (err == nil && item == nil) {
		e.observe(OpGetProduct, start, nil)
		return Product{}, ErrProductNotFound
	}
	e.observe(OpGetProduct, start, err)
	if err != nil {
		err = dependencyError(err, "load product")
		e.logFailure(ctx, "catalog.load_product.failed", err, map[string]any{"product_id": id})
		return Product{}, err
	}
	return productFromWire(*item), nil
}

func (e *Engine) observe(op string, start time.Time, err error) {
	if e.observer == nil {
		return
	}
	e.observer.ObserveRequest(op, time.Since(start), err)
}

func (e *Engine) logFailure(ctx context.Context, msg string, err error, input any) {
	if e.logg == nil {
		return
	}
	if input != nil {
		ctx = e.logg.WithField(ctx, "input", input)
	}
	e.logg.Error(ctx, msg, err)
}

// dependencyError keeps typed errors from the source and classifies anything
// else as a dependency failure.
func dependencyError(err error, message string) error {
	if pkgerrors.As(err) != nil {
		return fmt.Errorf("%s: %w", message, err)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}
