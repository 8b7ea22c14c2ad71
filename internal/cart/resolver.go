package cart

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/sparible/storefront/internal/apiclient"
	"github.com/sparible/storefront/pkg/logger"
)

const defaultLookupConcurrency = 8

type productLookup interface {
	GetProduct(ctx context.Context, productID string) (*apiclient.Product, error)
}

// Resolver joins cart and wishlist ids with their products for the cart and
// wishlist pages. Products that fail to load are logged and left out.
type Resolver struct {
	products    productLookup
	logg        *logger.Logger
	concurrency int
}

func NewResolver(products productLookup, logg *logger.Logger, concurrency int) (*Resolver, error) {
	if products == nil {
		return nil, fmt.Errorf("product lookup is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if concurrency <= 0 {
		concurrency = defaultLookupConcurrency
	}
	return &Resolver{products: products, logg: logg, concurrency: concurrency}, nil
}

// CartLines resolves items in cart order.
func (r *Resolver) CartLines(ctx context.Context, items []apiclient.CartItem) []Line {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}
	products := r.lookupAll(ctx, ids)

	lines := make([]Line, 0, len(items))
	for i, item := range items {
		if products[i] == nil {
			continue
		}
		lines = append(lines, Line{Product: *products[i], Quantity: item.Quantity})
	}
	return lines
}

// WishlistProducts resolves ids in wishlist order.
func (r *Resolver) WishlistProducts(ctx context.Context, ids []string) []apiclient.Product {
	products := r.lookupAll(ctx, ids)
	out := make([]apiclient.Product, 0, len(ids))
	for _, p := range products {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out
}

func (r *Resolver) lookupAll(ctx context.Context, ids []string) []*apiclient.Product {
	results := make([]*apiclient.Product, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			product, err := r.products.GetProduct(gctx, id)
			if err != nil {
				r.logg.Warn(r.logg.WithFields(ctx, map[string]any{
					"product_id": id,
					"error":      err.Error(),
				}), "product lookup failed; skipping")
				return nil
			}
			results[i] = product
			return nil
		})
	}
	_ = g.Wait()
	return results
}
