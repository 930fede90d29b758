package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type itemPayload struct {
	ProductID int `json:"product_id" validate:"required,gt=0"`
}

func TestDecodeJSONBody(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		wantErr bool
		field   string
	}{
		{name: "valid", body: `{"product_id":3}`},
		{name: "missing field", body: `{}`, wantErr: true, field: "product_id"},
		{name: "negative id", body: `{"product_id":-1}`, wantErr: true, field: "product_id"},
		{name: "unknown field", body: `{"product_id":3,"qty":2}`, wantErr: true},
		{name: "malformed", body: `{"product_id":`, wantErr: true},
		{name: "empty", body: ``, wantErr: true},
		{name: "trailing object", body: `{"product_id":3}{"product_id":4}`, wantErr: true},
		{name: "oversized", body: `{"product_id":3,"pad":"` + strings.Repeat("x", MaxBodyBytes) + `"}`, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			var payload itemPayload
			err := DecodeJSONBody(req, &payload)
			if !tc.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if payload.ProductID != 3 {
					t.Fatalf("unexpected payload %+v", payload)
				}
				return
			}
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
			if tc.field != "" {
				details, ok := typed.Details().(map[string]string)
				if !ok || details[tc.field] == "" {
					t.Fatalf("expected detail for %s, got %#v", tc.field, typed.Details())
				}
			}
		})
	}
}

func TestParsePathID(t *testing.T) {
	cases := map[string]bool{
		"7":    true,
		"0":    false,
		"-4":   false,
		"abc":  false,
		"":     false,
		"1.5":  false,
		" 12 ": true,
	}
	for raw, ok := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		routeCtx := chi.NewRouteContext()
		routeCtx.URLParams.Add("productId", raw)
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

		_, err := ParsePathID(req, "productId")
		if ok && err != nil {
			t.Fatalf("%q: unexpected error %v", raw, err)
		}
		if !ok && !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
			t.Fatalf("%q: expected not found, got %v", raw, err)
		}
	}
}
