package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// ListingPath is the route the listing's navigation links point at.
const ListingPath = "/api/v1/listing"

var sortLabels = []struct {
	order catalog.SortOrder
	label string
}{
	{catalog.SortAscending, "Low to High"},
	{catalog.SortDescending, "High to Low"},
}

type listingResponse struct {
	catalog.View
	Categories   []types.Link    `json:"categories"`
	SortLinks    []types.Link    `json:"sort_links"`
	ClearFilters string          `json:"clear_filters"`
	LoadError    *types.APIError `json:"load_error,omitempty"`
}

// ProductListing loads the session's listing for the requested filter/sort.
// Only the most recently issued load for a session replaces its products; a
// failed load keeps the previous products and reports the failure inline.
func ProductListing(engine CatalogReader, listings *catalog.Listings, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil || listings == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listing unavailable"))
			return
		}

		sessionID := middleware.SessionIDFromContext(r.Context())
		if sessionID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "session missing"))
			return
		}

		filter := catalog.ParseFilterSort(r.URL.Query())
		view, loadErr := listings.For(sessionID).Load(r.Context(), engine, filter)

		categories, err := engine.LoadCategories(r.Context())
		if err != nil {
			if logg != nil {
				logg.Warn(logg.WithField(r.Context(), "error", err.Error()), "listing.categories_unavailable")
			}
			categories = []string{}
		}

		resp := listingResponse{
			View:         view,
			Categories:   categoryLinks(categories, filter),
			SortLinks:    sortLinks(filter),
			ClearFilters: listingHref(catalog.FilterSort{Sort: filter.Sort}),
		}
		if loadErr != nil {
			resp.LoadError = publicError(loadErr)
		}
		responses.WriteSuccess(w, resp)
	}
}

func categoryLinks(categories []string, filter catalog.FilterSort) []types.Link {
	links := make([]types.Link, 0, len(categories))
	for _, category := range categories {
		links = append(links, types.Link{
			Label:    category,
			Href:     listingHref(filter.Toggle(category)),
			Selected: filter.Selected(category),
		})
	}
	return links
}

func sortLinks(filter catalog.FilterSort) []types.Link {
	links := make([]types.Link, 0, len(sortLabels))
	for _, s := range sortLabels {
		links = append(links, types.Link{
			Label:    s.label,
			Href:     listingHref(filter.WithSort(s.order)),
			Selected: filter.Sort == s.order,
		})
	}
	return links
}

func listingHref(filter catalog.FilterSort) string {
	return ListingPath + "?" + filter.Encode()
}

func publicError(err error) *types.APIError {
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}
	meta := pkgerrors.MetadataFor(typed.Code())
	return &types.APIError{Code: string(typed.Code()), Message: meta.PublicMessage}
}
