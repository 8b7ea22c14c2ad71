package controllers

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/sparible/storefront/api/responses"
	"github.com/sparible/storefront/api/validators"
	"github.com/sparible/storefront/internal/apiclient"
	"github.com/sparible/storefront/pkg/logger"
)

type productCatalog interface {
	GetProduct(ctx context.Context, productID string) (*apiclient.Product, error)
	ListReviews(ctx context.Context, productID string) ([]apiclient.Review, error)
}

type productPage struct {
	Chrome             Chrome             `json:"chrome"`
	Product            apiclient.Product  `json:"product"`
	EffectivePrice     decimal.Decimal    `json:"effective_price"`
	HasDiscount        bool               `json:"has_discount"`
	DiscountPercentage int64              `json:"discount_percentage"`
	InStock            bool               `json:"in_stock"`
	InWishlist         bool               `json:"in_wishlist"`
	Reviews            []apiclient.Review `json:"reviews"`
}

// ProductDetail loads a product and its reviews together. Reviews are
// optional: a failed review fetch renders an empty list.
func ProductDetail(catalog productCatalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}

		productID, err := validators.PathID(r, "id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var (
			product *apiclient.Product
			reviews = []apiclient.Review{}
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			p, err := catalog.GetProduct(gctx, productID)
			if err != nil {
				return err
			}
			product = p
			return nil
		})
		g.Go(func() error {
			list, err := catalog.ListReviews(gctx, productID)
			if err != nil {
				logg.Warn(logg.WithFields(ctx, map[string]any{"product_id": productID, "error": err.Error()}), "product reviews load failed")
				return nil
			}
			if list != nil {
				reviews = list
			}
			return nil
		})
		if err := g.Wait(); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, productPage{
			Chrome:             chromeFor(sess),
			Product:            *product,
			EffectivePrice:     product.EffectivePrice(),
			HasDiscount:        product.HasDiscount(),
			DiscountPercentage: product.DiscountPercentage(),
			InStock:            product.InStock(),
			InWishlist:         sess.Store.InWishlist(product.ID),
			Reviews:            reviews,
		})
	}
}
