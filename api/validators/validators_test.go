package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/sparible/storefront/pkg/errors"
)

type itemBody struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=0"`
}

func TestDecodeJSONBody(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/cart/add", strings.NewReader(`{"product_id":"p1","quantity":2}`))
		var body itemBody
		require.NoError(t, DecodeJSONBody(req, &body))
		assert.Equal(t, itemBody{ProductID: "p1", Quantity: 2}, body)
	})

	t.Run("field names come from json tags", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/cart/add", strings.NewReader(`{"quantity":-1}`))
		var body itemBody
		err := DecodeJSONBody(req, &body)
		require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
		details, ok := pkgerrors.As(err).Details().(map[string]string)
		require.True(t, ok)
		assert.Equal(t, "is required", details["product_id"])
		assert.Contains(t, details["quantity"], "greater than or equal to 0")
	})

	t.Run("unknown fields rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/cart/add", strings.NewReader(`{"product_id":"p1","price":1}`))
		var body itemBody
		assert.True(t, pkgerrors.IsCode(DecodeJSONBody(req, &body), pkgerrors.CodeValidation))
	})

	t.Run("empty body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/cart/add", strings.NewReader(""))
		var body itemBody
		err := DecodeJSONBody(req, &body)
		require.Error(t, err)
		assert.Equal(t, "request body is required", pkgerrors.As(err).Message())
	})
}

func TestPathID(t *testing.T) {
	withParam := func(value string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/product/x", nil)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", value)
		return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	id, err := PathID(withParam(" p-42 "), "id")
	require.NoError(t, err)
	assert.Equal(t, "p-42", id)

	_, err = PathID(withParam(""), "id")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = PathID(withParam(strings.Repeat("a", 200)), "id")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
