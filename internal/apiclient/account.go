package apiclient

import (
	"context"
	"net/http"
)

func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var resp AuthResponse
	err := c.do(ctx, request{
		endpoint: "POST /auth/login",
		method:   http.MethodPost,
		path:     "auth/login",
		body:     req,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var resp AuthResponse
	err := c.do(ctx, request{
		endpoint: "POST /auth/register",
		method:   http.MethodPost,
		path:     "auth/register",
		body:     req,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me returns the user the token belongs to.
func (c *Client) Me(ctx context.Context, token string) (*User, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	var user User
	err := c.do(ctx, request{
		endpoint: "GET /auth/me",
		method:   http.MethodGet,
		path:     "auth/me",
		token:    token,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) ListOrders(ctx context.Context, token string) ([]Order, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	var orders []Order
	err := c.do(ctx, request{
		endpoint: "GET /orders",
		method:   http.MethodGet,
		path:     "orders",
		token:    token,
	}, &orders)
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// AdminStats requires an admin token; the backend answers 403 otherwise.
func (c *Client) AdminStats(ctx context.Context, token string) (*AdminStats, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	var stats AdminStats
	err := c.do(ctx, request{
		endpoint: "GET /admin/stats",
		method:   http.MethodGet,
		path:     "admin/stats",
		token:    token,
	}, &stats)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
