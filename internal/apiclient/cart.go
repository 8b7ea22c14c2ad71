package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	pkgerrors "github.com/sparible/storefront/pkg/errors"
)

// GetCart returns the authenticated user's cart.
func (c *Client) GetCart(ctx context.Context, token string) (*Cart, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	var cart Cart
	err := c.do(ctx, request{
		endpoint: "GET /cart",
		method:   http.MethodGet,
		path:     "cart",
		token:    token,
	}, &cart)
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddToCart adds quantity units of a product; the backend merges by product id.
func (c *Client) AddToCart(ctx context.Context, token string, item CartItem) error {
	if err := requireToken(token); err != nil {
		return err
	}
	if err := validateItem(item); err != nil {
		return err
	}
	return c.do(ctx, request{
		endpoint: "POST /cart/add",
		method:   http.MethodPost,
		path:     "cart/add",
		token:    token,
		body:     item,
	}, nil)
}

// UpdateCartItem sets the quantity of an existing cart line.
func (c *Client) UpdateCartItem(ctx context.Context, token string, item CartItem) error {
	if err := requireToken(token); err != nil {
		return err
	}
	if err := validateItem(item); err != nil {
		return err
	}
	return c.do(ctx, request{
		endpoint: "POST /cart/update",
		method:   http.MethodPost,
		path:     "cart/update",
		token:    token,
		body:     item,
	}, nil)
}

func (c *Client) RemoveFromCart(ctx context.Context, token, productID string) error {
	query, err := productQuery(token, productID)
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		endpoint: "POST /cart/remove",
		method:   http.MethodPost,
		path:     "cart/remove",
		query:    query,
		token:    token,
	}, nil)
}

func (c *Client) ClearCart(ctx context.Context, token string) error {
	if err := requireToken(token); err != nil {
		return err
	}
	return c.do(ctx, request{
		endpoint: "POST /cart/clear",
		method:   http.MethodPost,
		path:     "cart/clear",
		token:    token,
	}, nil)
}

// GetWishlist returns the authenticated user's wishlist.
func (c *Client) GetWishlist(ctx context.Context, token string) (*Wishlist, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	var wishlist Wishlist
	err := c.do(ctx, request{
		endpoint: "GET /wishlist",
		method:   http.MethodGet,
		path:     "wishlist",
		token:    token,
	}, &wishlist)
	if err != nil {
		return nil, err
	}
	return &wishlist, nil
}

func (c *Client) AddToWishlist(ctx context.Context, token, productID string) error {
	query, err := productQuery(token, productID)
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		endpoint: "POST /wishlist/add",
		method:   http.MethodPost,
		path:     "wishlist/add",
		query:    query,
		token:    token,
	}, nil)
}

func (c *Client) RemoveFromWishlist(ctx context.Context, token, productID string) error {
	query, err := productQuery(token, productID)
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		endpoint: "POST /wishlist/remove",
		method:   http.MethodPost,
		path:     "wishlist/remove",
		query:    query,
		token:    token,
	}, nil)
}

func requireToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return nil
}

func validateItem(item CartItem) error {
	if strings.TrimSpace(item.ProductID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if item.Quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	return nil
}

func productQuery(token, productID string) (url.Values, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(productID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	return url.Values{"product_id": []string{trimmed}}, nil
}
