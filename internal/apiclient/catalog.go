package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	pkgerrors "github.com/sparible/storefront/pkg/errors"
)

// ListProducts runs a catalog query. The query values are sent as given.
func (c *Client) ListProducts(ctx context.Context, query url.Values) ([]Product, error) {
	var products []Product
	err := c.do(ctx, request{
		endpoint: "GET /products",
		method:   http.MethodGet,
		path:     "products",
		query:    query,
	}, &products)
	if err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct fetches a single product.
func (c *Client) GetProduct(ctx context.Context, productID string) (*Product, error) {
	trimmed := strings.TrimSpace(productID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	var product Product
	err := c.do(ctx, request{
		endpoint: "GET /products/{id}",
		method:   http.MethodGet,
		path:     "products/" + url.PathEscape(trimmed),
	}, &product)
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ListCategories returns categories, optionally scoped to a product type.
func (c *Client) ListCategories(ctx context.Context, productType string) ([]Category, error) {
	var categories []Category
	err := c.do(ctx, request{
		endpoint: "GET /categories",
		method:   http.MethodGet,
		path:     "categories",
		query:    typeQuery(productType),
	}, &categories)
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// ListBrands returns brands, optionally scoped to a product type.
func (c *Client) ListBrands(ctx context.Context, productType string) ([]Brand, error) {
	var brands []Brand
	err := c.do(ctx, request{
		endpoint: "GET /brands",
		method:   http.MethodGet,
		path:     "brands",
		query:    typeQuery(productType),
	}, &brands)
	if err != nil {
		return nil, err
	}
	return brands, nil
}

func (c *Client) ListBlogs(ctx context.Context, limit int) ([]BlogPost, error) {
	var query url.Values
	if limit > 0 {
		query = url.Values{"limit": []string{strconv.Itoa(limit)}}
	}

	var posts []BlogPost
	err := c.do(ctx, request{
		endpoint: "GET /blogs",
		method:   http.MethodGet,
		path:     "blogs",
		query:    query,
	}, &posts)
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (c *Client) ListReviews(ctx context.Context, productID string) ([]Review, error) {
	trimmed := strings.TrimSpace(productID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	var reviews []Review
	err := c.do(ctx, request{
		endpoint: "GET /reviews/{product_id}",
		method:   http.MethodGet,
		path:     "reviews/" + url.PathEscape(trimmed),
	}, &reviews)
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

func typeQuery(productType string) url.Values {
	trimmed := strings.TrimSpace(productType)
	if trimmed == "" {
		return nil
	}
	return url.Values{"type": []string{trimmed}}
}
