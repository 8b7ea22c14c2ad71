package controllers

import (
	"context"
	"net/http"

	"github.com/sparible/storefront/api/responses"
	"github.com/sparible/storefront/api/validators"
	"github.com/sparible/storefront/internal/catalog"
	pkgerrors "github.com/sparible/storefront/pkg/errors"
	"github.com/sparible/storefront/pkg/logger"
)

const productTypeParam = "type"

type facetLoader interface {
	Facets(ctx context.Context, productType string) catalog.Facets
}

type productsPage struct {
	Chrome  Chrome         `json:"chrome"`
	Listing catalog.View   `json:"listing"`
	Facets  catalog.Facets `json:"facets"`
}

// Products renders the filterable product list. A failed fetch keeps the
// previous result and marks the listing stale.
func Products(facets facetLoader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}

		if err := sess.Listing.Navigate(ctx, r.URL.Query()); err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			logg.Warn(logg.WithField(ctx, "error", err.Error()), "product list fetch failed")
		}

		writeProductsPage(w, r, sess.Listing.View(), facets, chromeFor(sess))
	}
}

type setFilterRequest struct {
	Field string `json:"field" validate:"required,oneof=category brand search min_price max_price"`
	Value string `json:"value"`
}

// ProductsSetFilter edits one filter of the visitor's listing.
func ProductsSetFilter(facets facetLoader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}

		var payload setFilterRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := sess.Listing.SetFilter(ctx, payload.Field, payload.Value); err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			logg.Warn(logg.WithField(ctx, "error", err.Error()), "product list fetch failed")
		}

		writeProductsPage(w, r, sess.Listing.View(), facets, chromeFor(sess))
	}
}

// ProductsClearFilters resets every filter of the visitor's listing.
func ProductsClearFilters(facets facetLoader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}

		if err := sess.Listing.ClearFilters(ctx); err != nil {
			logg.Warn(logg.WithField(ctx, "error", err.Error()), "product list fetch failed")
		}

		writeProductsPage(w, r, sess.Listing.View(), facets, chromeFor(sess))
	}
}

func writeProductsPage(w http.ResponseWriter, r *http.Request, view catalog.View, facets facetLoader, chrome Chrome) {
	page := productsPage{Chrome: chrome, Listing: view}
	if facets != nil {
		page.Facets = facets.Facets(r.Context(), r.URL.Query().Get(productTypeParam))
	}
	responses.WriteSuccess(w, page)
}
