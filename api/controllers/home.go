package controllers

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/sparible/storefront/api/responses"
	"github.com/sparible/storefront/internal/apiclient"
	"github.com/sparible/storefront/pkg/logger"
)

type homeCatalog interface {
	ListProducts(ctx context.Context, query url.Values) ([]apiclient.Product, error)
	ListBlogs(ctx context.Context, limit int) ([]apiclient.BlogPost, error)
}

// HomeLimits caps the featured products and blog teasers on the home page.
type HomeLimits struct {
	Products int
	Blogs    int
}

type homePage struct {
	Chrome   Chrome               `json:"chrome"`
	Featured []apiclient.Product  `json:"featured_products"`
	Blogs    []apiclient.BlogPost `json:"blogs"`
}

// Home renders featured products and blog teasers. Either section renders
// empty when its fetch fails.
func Home(catalog homeCatalog, limits HomeLimits, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}

		page := homePage{
			Featured: []apiclient.Product{},
			Blogs:    []apiclient.BlogPost{},
		}

		var g errgroup.Group
		g.Go(func() error {
			query := url.Values{}
			if limits.Products > 0 {
				query.Set("limit", strconv.Itoa(limits.Products))
			}
			products, err := catalog.ListProducts(ctx, query)
			if err != nil {
				logg.Error(logg.WithField(ctx, "section", "featured_products"), "home section load failed", err)
				return nil
			}
			page.Featured = products
			return nil
		})
		g.Go(func() error {
			blogs, err := catalog.ListBlogs(ctx, limits.Blogs)
			if err != nil {
				logg.Error(logg.WithField(ctx, "section", "blogs"), "home section load failed", err)
				return nil
			}
			page.Blogs = blogs
			return nil
		})
		_ = g.Wait()

		page.Chrome = chromeFor(sess)
		responses.WriteSuccess(w, page)
	}
}
