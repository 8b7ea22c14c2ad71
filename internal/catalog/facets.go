package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sparible/storefront/internal/apiclient"
	"github.com/sparible/storefront/pkg/logger"
	"github.com/sparible/storefront/pkg/redis"
)

const (
	ProductTypeMobile = "mobile"
	ProductTypeLaptop = "laptop"

	facetCategories = "categories"
	facetBrands     = "brands"
)

type facetSource interface {
	ListCategories(ctx context.Context, productType string) ([]apiclient.Category, error)
	ListBrands(ctx context.Context, productType string) ([]apiclient.Brand, error)
}

type facetCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	FacetKey(kind, productType string) string
}

// Facets are the filter choices offered next to the product grid.
type Facets struct {
	Categories []apiclient.Category `json:"categories"`
	Brands     []apiclient.Brand    `json:"brands"`
}

// FacetParams bundles the dependencies of a FacetService.
type FacetParams struct {
	Source facetSource
	Cache  facetCache
	TTL    time.Duration
	Logger *logger.Logger
}

// FacetService loads categories and brands, caching them in Redis.
type FacetService struct {
	source facetSource
	cache  facetCache
	ttl    time.Duration
	logg   *logger.Logger
}

func NewFacetService(params FacetParams) (*FacetService, error) {
	if params.Source == nil {
		return nil, fmt.Errorf("facet source is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &FacetService{
		source: params.Source,
		cache:  params.Cache,
		ttl:    params.TTL,
		logg:   params.Logger,
	}, nil
}

// NormalizeProductType maps anything but mobile or laptop to the unscoped type.
func NormalizeProductType(raw string) string {
	switch t := strings.ToLower(strings.TrimSpace(raw)); t {
	case ProductTypeMobile, ProductTypeLaptop:
		return t
	default:
		return ""
	}
}

// Facets never fails: a facet that cannot be loaded is logged and rendered empty.
func (s *FacetService) Facets(ctx context.Context, productType string) Facets {
	productType = NormalizeProductType(productType)
	facets := Facets{
		Categories: []apiclient.Category{},
		Brands:     []apiclient.Brand{},
	}

	var g errgroup.Group
	g.Go(func() error {
		categories, err := loadFacet(ctx, s, facetCategories, productType, s.source.ListCategories)
		if err != nil {
			s.logg.Error(s.logg.WithField(ctx, "facet", facetCategories), "facet load failed", err)
			return nil
		}
		facets.Categories = categories
		return nil
	})
	g.Go(func() error {
		brands, err := loadFacet(ctx, s, facetBrands, productType, s.source.ListBrands)
		if err != nil {
			s.logg.Error(s.logg.WithField(ctx, "facet", facetBrands), "facet load failed", err)
			return nil
		}
		facets.Brands = brands
		return nil
	})
	_ = g.Wait()
	return facets
}

func loadFacet[T any](
	ctx context.Context,
	s *FacetService,
	kind, productType string,
	fetch func(context.Context, string) ([]T, error),
) ([]T, error) {
	var key string
	if s.cache != nil {
		key = s.cache.FacetKey(kind, productType)
		raw, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			var cached []T
			if jsonErr := json.Unmarshal([]byte(raw), &cached); jsonErr == nil {
				return cached, nil
			}
			s.logg.Warn(s.logg.WithField(ctx, "cache_key", key), "discarding unreadable facet cache entry")
		case !errors.Is(err, redis.ErrNil):
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"cache_key": key,
				"error":     err.Error(),
			}), "facet cache read failed")
		}
	}

	items, err := fetch(ctx, productType)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}

	if s.cache != nil && s.ttl > 0 {
		payload, err := json.Marshal(items)
		if err == nil {
			err = s.cache.Set(ctx, key, string(payload), s.ttl)
		}
		if err != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"cache_key": key,
				"error":     err.Error(),
			}), "facet cache write failed")
		}
	}
	return items, nil
}
