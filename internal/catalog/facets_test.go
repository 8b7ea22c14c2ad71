package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sparible/storefront/internal/apiclient"
	"github.com/sparible/storefront/pkg/redis"
)

type stubFacetSource struct {
	mu            sync.Mutex
	categoryCalls int
	brandErr      error
}

func (s *stubFacetSource) ListCategories(_ context.Context, productType string) ([]apiclient.Category, error) {
	s.mu.Lock()
	s.categoryCalls++
	s.mu.Unlock()
	return []apiclient.Category{{ID: "c1", Name: "Battery", Type: productType}}, nil
}

func (s *stubFacetSource) ListBrands(_ context.Context, productType string) ([]apiclient.Brand, error) {
	if s.brandErr != nil {
		return nil, s.brandErr
	}
	return []apiclient.Brand{{ID: "b1", Name: "Dell", Type: productType}}, nil
}

type memoryCache struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryCache) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.data[key]
	if !ok {
		return "", redis.ErrNil
	}
	return value, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value.(string)
	m.ttls[key] = ttl
	return nil
}

func (m *memoryCache) FacetKey(kind, productType string) string {
	if productType == "" {
		productType = "all"
	}
	return "sf:facets:" + kind + ":" + productType
}

func newTestFacetService(t *testing.T, params FacetParams) *FacetService {
	t.Helper()
	params.Logger = testLogger()
	svc, err := NewFacetService(params)
	if err != nil {
		t.Fatalf("NewFacetService: %v", err)
	}
	return svc
}

func TestFacetsAreCachedPerType(t *testing.T) {
	source := &stubFacetSource{}
	cache := newMemoryCache()
	svc := newTestFacetService(t, FacetParams{Source: source, Cache: cache, TTL: time.Minute})
	ctx := context.Background()

	first := svc.Facets(ctx, "Mobile")
	second := svc.Facets(ctx, "mobile")

	if len(first.Categories) != 1 || first.Categories[0].Type != "mobile" {
		t.Fatalf("unexpected categories %+v", first.Categories)
	}
	if len(second.Categories) != 1 || second.Categories[0].ID != first.Categories[0].ID {
		t.Fatalf("expected cached categories, got %+v", second.Categories)
	}
	if source.categoryCalls != 1 {
		t.Fatalf("expected one category fetch, got %d", source.categoryCalls)
	}
	if got := cache.ttls["sf:facets:categories:mobile"]; got != time.Minute {
		t.Fatalf("expected 1m cache ttl, got %v", got)
	}
	if _, ok := cache.data["sf:facets:brands:mobile"]; !ok {
		t.Fatal("expected brands to be cached")
	}
}

func TestFacetFailureRendersEmptyList(t *testing.T) {
	source := &stubFacetSource{brandErr: errors.New("down")}
	svc := newTestFacetService(t, FacetParams{Source: source})

	facets := svc.Facets(context.Background(), "")
	if len(facets.Categories) != 1 {
		t.Fatalf("expected categories to load, got %+v", facets.Categories)
	}
	if facets.Brands == nil || len(facets.Brands) != 0 {
		t.Fatalf("expected empty non-nil brands, got %#v", facets.Brands)
	}
}

func TestUnreadableCacheEntryFallsBackToSource(t *testing.T) {
	source := &stubFacetSource{}
	cache := newMemoryCache()
	cache.data["sf:facets:categories:all"] = "{not json"
	svc := newTestFacetService(t, FacetParams{Source: source, Cache: cache, TTL: time.Minute})

	facets := svc.Facets(context.Background(), "tablet")
	if len(facets.Categories) != 1 || source.categoryCalls != 1 {
		t.Fatalf("expected one fresh category fetch, got %d calls and %+v", source.categoryCalls, facets.Categories)
	}
}

func TestNormalizeProductType(t *testing.T) {
	if got := NormalizeProductType(" LAPTOP "); got != "laptop" {
		t.Fatalf("expected laptop, got %q", got)
	}
	if got := NormalizeProductType("tablet"); got != "" {
		t.Fatalf("expected unscoped type, got %q", got)
	}
}
