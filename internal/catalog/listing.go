package catalog

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/sparible/storefront/internal/apiclient"
	"github.com/sparible/storefront/pkg/logger"
)

const (
	EmptyStateMessage = "No products found matching your filters."
	ClearFiltersPath  = "/products"
)

// SortParam is the query key carrying the sort key. It is not a filter and
// never reaches the backend.
const SortParam = "sort"

type productLister interface {
	ListProducts(ctx context.Context, query url.Values) ([]apiclient.Product, error)
}

type staleCounter interface {
	IncStaleResponse(resource string)
}

// Listing holds one visitor's product list page: the active filters and sort,
// and the last fetched result.
type Listing struct {
	lister  productLister
	logg    *logger.Logger
	metrics staleCounter

	mu       sync.Mutex
	filters  Filters
	sort     SortKey
	products []apiclient.Product
	loaded   bool
	seq      uint64
	loading  int
	lastErr  error
}

// NewListing builds an empty listing that has not fetched yet.
func NewListing(lister productLister, logg *logger.Logger, metrics staleCounter) (*Listing, error) {
	if lister == nil {
		return nil, fmt.Errorf("product lister is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Listing{
		lister:  lister,
		logg:    logg,
		metrics: metrics,
		sort:    SortRelevance,
	}, nil
}

// EmptyState is rendered in place of an empty product grid.
type EmptyState struct {
	Message      string `json:"message"`
	ClearFilters string `json:"clear_filters_href"`
}

// View is the rendered state of the listing.
type View struct {
	Filters    Filters             `json:"filters"`
	Query      string              `json:"query"`
	Sort       SortKey             `json:"sort"`
	SortKeys   []SortKey           `json:"sort_keys"`
	Products   []apiclient.Product `json:"products"`
	Count      int                 `json:"count"`
	Loading    bool                `json:"loading"`
	Stale      bool                `json:"stale"`
	EmptyState *EmptyState         `json:"empty_state,omitempty"`
}

// Navigate applies the filters and sort carried by a page URL. The list is
// fetched on first load and whenever the filter set changes; a sort change
// alone only reorders the current list. A failed fetch is retried on the next
// navigation. A missing sort parameter keeps the current sort key.
func (l *Listing) Navigate(ctx context.Context, values url.Values) error {
	filters, err := ParseFilters(values)
	if err != nil {
		return err
	}

	l.mu.Lock()
	if raw, ok := values[SortParam]; ok && len(raw) > 0 {
		l.sort = ParseSortKey(raw[0])
	}
	refetch := !l.loaded || l.lastErr != nil || !l.filters.Equal(filters)
	l.filters = filters
	l.mu.Unlock()

	if !refetch {
		return nil
	}
	return l.fetch(ctx)
}

// SetFilter edits one filter field and refetches. An unchanged filter set is
// only refetched when the last fetch failed.
func (l *Listing) SetFilter(ctx context.Context, field, value string) error {
	l.mu.Lock()
	next, err := l.filters.With(field, value)
	if err != nil {
		l.mu.Unlock()
		return err
	}
	refetch := !l.loaded || l.lastErr != nil || !next.Equal(l.filters)
	l.filters = next
	l.mu.Unlock()

	if !refetch {
		return nil
	}
	return l.fetch(ctx)
}

// ClearFilters resets every filter field and refetches the unfiltered list.
func (l *Listing) ClearFilters(ctx context.Context) error {
	l.mu.Lock()
	refetch := !l.loaded || l.lastErr != nil || !l.filters.IsZero()
	l.filters = Filters{}
	l.mu.Unlock()

	if !refetch {
		return nil
	}
	return l.fetch(ctx)
}

// SetSort changes the local sort key without fetching.
func (l *Listing) SetSort(key SortKey) {
	if !key.IsValid() {
		key = SortRelevance
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sort = key
}

func (l *Listing) Filters() Filters {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.filters
}

// View renders the listing with the current sort applied to a copy of the list.
func (l *Listing) View() View {
	l.mu.Lock()
	defer l.mu.Unlock()

	products := ApplySort(l.products, l.sort)
	view := View{
		Filters:  l.filters,
		Query:    l.filters.Encode(),
		Sort:     l.sort,
		SortKeys: SortKeys,
		Products: products,
		Count:    len(products),
		Loading:  l.loading > 0,
		Stale:    l.lastErr != nil,
	}
	if l.loaded && len(products) == 0 {
		view.EmptyState = &EmptyState{
			Message:      EmptyStateMessage,
			ClearFilters: ClearFiltersPath,
		}
	}
	return view
}

func (l *Listing) fetch(ctx context.Context) error {
	l.mu.Lock()
	l.seq++
	seq := l.seq
	query := l.filters.Query()
	l.loading++
	l.mu.Unlock()
	defer func() {
		l.mu.Lock()
		l.loading--
		l.mu.Unlock()
	}()

	products, err := l.lister.ListProducts(ctx, query)

	l.mu.Lock()
	defer l.mu.Unlock()
	if seq != l.seq {
		if l.metrics != nil {
			l.metrics.IncStaleResponse("products")
		}
		l.logg.Debug(l.logg.WithField(ctx, "query", query.Encode()), "discarding superseded product list")
		return nil
	}
	if err != nil {
		l.lastErr = err
		l.logg.Error(l.logg.WithField(ctx, "query", query.Encode()), "product list fetch failed; keeping previous list", err)
		return err
	}
	l.products = products
	l.loaded = true
	l.lastErr = nil
	return nil
}
