package catalog

import (
	"slices"
	"strings"

	"github.com/sparible/storefront/internal/apiclient"
)

// SortKey orders a fetched product list locally.
type SortKey string

const (
	SortRelevance SortKey = "relevance"
	SortPriceAsc  SortKey = "price_asc"
	SortPriceDesc SortKey = "price_desc"
	SortRating    SortKey = "rating"
	SortNewest    SortKey = "newest"
)

// SortKeys lists the keys in display order.
var SortKeys = []SortKey{SortRelevance, SortPriceAsc, SortPriceDesc, SortRating, SortNewest}

func (k SortKey) IsValid() bool {
	return slices.Contains(SortKeys, k)
}

// ParseSortKey maps unknown or empty input to relevance.
func ParseSortKey(raw string) SortKey {
	key := SortKey(strings.ToLower(strings.TrimSpace(raw)))
	if key.IsValid() {
		return key
	}
	return SortRelevance
}

// ApplySort returns a sorted copy of products. The input is never modified and
// ties keep server order. Price keys compare the effective price.
func ApplySort(products []apiclient.Product, key SortKey) []apiclient.Product {
	out := slices.Clone(products)
	if out == nil {
		out = []apiclient.Product{}
	}

	switch key {
	case SortPriceAsc:
		slices.SortStableFunc(out, func(a, b apiclient.Product) int {
			return a.EffectivePrice().Cmp(b.EffectivePrice())
		})
	case SortPriceDesc:
		slices.SortStableFunc(out, func(a, b apiclient.Product) int {
			return b.EffectivePrice().Cmp(a.EffectivePrice())
		})
	case SortRating:
		slices.SortStableFunc(out, func(a, b apiclient.Product) int {
			switch {
			case a.Rating > b.Rating:
				return -1
			case a.Rating < b.Rating:
				return 1
			}
			return 0
		})
	case SortNewest:
		slices.SortStableFunc(out, func(a, b apiclient.Product) int {
			return b.CreatedAt.Compare(a.CreatedAt.Time)
		})
	}
	return out
}
