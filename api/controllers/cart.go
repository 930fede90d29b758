package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type cartProductRequest struct {
	ProductID int `json:"product_id" validate:"required,gt=0"`
}

func CartView(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(ctx context.Context, r *http.Request, sessionID string) (cart.Summary, error) {
		return svc.View(ctx, sessionID)
	})
}

// CartAddItem adds one unit of the product, creating its line item on first add.
func CartAddItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(ctx context.Context, r *http.Request, sessionID string) (cart.Summary, error) {
		var payload cartProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return cart.Summary{}, err
		}
		return svc.Add(ctx, sessionID, payload.ProductID)
	})
}

// CartRequestRemoval marks a line item for removal pending confirmation.
func CartRequestRemoval(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(ctx context.Context, r *http.Request, sessionID string) (cart.Summary, error) {
		var payload cartProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return cart.Summary{}, err
		}
		return svc.RequestRemoval(ctx, sessionID, payload.ProductID)
	})
}

func CartCancelRemoval(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(ctx context.Context, r *http.Request, sessionID string) (cart.Summary, error) {
		return svc.CancelRemoval(ctx, sessionID)
	})
}

// CartConfirmRemoval deletes the pending line item. Confirming with nothing
// pending returns the unchanged cart.
func CartConfirmRemoval(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(ctx context.Context, r *http.Request, sessionID string) (cart.Summary, error) {
		return svc.ConfirmRemoval(ctx, sessionID)
	})
}

type cartAction func(ctx context.Context, r *http.Request, sessionID string) (cart.Summary, error)

func cartHandler(svc cart.Service, logg *logger.Logger, action cartAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		sessionID := middleware.SessionIDFromContext(r.Context())
		if sessionID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "session missing"))
			return
		}

		summary, err := action(r.Context(), r, sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, summary)
	}
}
