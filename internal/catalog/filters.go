package catalog

import (
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/sparible/storefront/pkg/errors"
)

// Filter field names double as URL query keys.
const (
	FieldCategory = "category"
	FieldBrand    = "brand"
	FieldSearch   = "search"
	FieldMinPrice = "min_price"
	FieldMaxPrice = "max_price"
)

var filterFields = []string{FieldCategory, FieldBrand, FieldSearch, FieldMinPrice, FieldMaxPrice}

// Filters is the user-editable catalog filter set. Every field is optional.
// In JSON every field is a string and an unset field is "".
type Filters struct {
	Category string
	Brand    string
	Search   string
	MinPrice decimal.NullDecimal
	MaxPrice decimal.NullDecimal
}

type filtersJSON struct {
	Category string `json:"category"`
	Brand    string `json:"brand"`
	Search   string `json:"search"`
	MinPrice string `json:"min_price"`
	MaxPrice string `json:"max_price"`
}

func (f Filters) MarshalJSON() ([]byte, error) {
	return json.Marshal(filtersJSON{
		Category: f.Category,
		Brand:    f.Brand,
		Search:   f.Search,
		MinPrice: priceString(f.MinPrice),
		MaxPrice: priceString(f.MaxPrice),
	})
}

func (f *Filters) UnmarshalJSON(data []byte) error {
	var raw filtersJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseFilters(url.Values{
		FieldCategory: {raw.Category},
		FieldBrand:    {raw.Brand},
		FieldSearch:   {raw.Search},
		FieldMinPrice: {raw.MinPrice},
		FieldMaxPrice: {raw.MaxPrice},
	})
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

func priceString(price decimal.NullDecimal) string {
	if !price.Valid {
		return ""
	}
	return price.Decimal.String()
}

// IsZero reports whether no filter is set.
func (f Filters) IsZero() bool {
	return f.Category == "" && f.Brand == "" && f.Search == "" && !f.MinPrice.Valid && !f.MaxPrice.Valid
}

// Equal compares filter sets by value.
func (f Filters) Equal(other Filters) bool {
	return f.Category == other.Category &&
		f.Brand == other.Brand &&
		f.Search == other.Search &&
		nullEqual(f.MinPrice, other.MinPrice) &&
		nullEqual(f.MaxPrice, other.MaxPrice)
}

// Query returns the outbound list query. Empty fields are omitted entirely.
func (f Filters) Query() url.Values {
	values := url.Values{}
	if f.Category != "" {
		values.Set(FieldCategory, f.Category)
	}
	if f.Brand != "" {
		values.Set(FieldBrand, f.Brand)
	}
	if f.Search != "" {
		values.Set(FieldSearch, f.Search)
	}
	if f.MinPrice.Valid {
		values.Set(FieldMinPrice, priceString(f.MinPrice))
	}
	if f.MaxPrice.Valid {
		values.Set(FieldMaxPrice, priceString(f.MaxPrice))
	}
	return values
}

// Encode is the canonical, bookmarkable query string for the filter set.
func (f Filters) Encode() string {
	return f.Query().Encode()
}

// With returns a copy of f with one field replaced. An empty value clears it.
func (f Filters) With(field, value string) (Filters, error) {
	values := f.Query()
	field = strings.TrimSpace(field)
	if !knownField(field) {
		return f, pkgerrors.New(pkgerrors.CodeValidation, "unknown filter").WithDetails(map[string]any{"field": field})
	}
	if strings.TrimSpace(value) == "" {
		values.Del(field)
	} else {
		values.Set(field, value)
	}
	return ParseFilters(values)
}

type filterInput struct {
	Category string `query:"category" validate:"omitempty,max=100"`
	Brand    string `query:"brand" validate:"omitempty,max=100"`
	Search   string `query:"search" validate:"omitempty,max=200"`
	MinPrice string `query:"min_price" validate:"omitempty,numeric"`
	MaxPrice string `query:"max_price" validate:"omitempty,numeric"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if tag := f.Tag.Get("query"); tag != "" {
			return tag
		}
		return f.Name
	})
	return v
}

// ParseFilters restores a filter set from URL query values. Unrelated keys
// such as sort are ignored.
func ParseFilters(values url.Values) (Filters, error) {
	input := filterInput{
		Category: strings.TrimSpace(values.Get(FieldCategory)),
		Brand:    strings.TrimSpace(values.Get(FieldBrand)),
		Search:   strings.TrimSpace(values.Get(FieldSearch)),
		MinPrice: strings.TrimSpace(values.Get(FieldMinPrice)),
		MaxPrice: strings.TrimSpace(values.Get(FieldMaxPrice)),
	}
	if err := validate.Struct(input); err != nil {
		return Filters{}, validationError(err)
	}

	minPrice, err := parsePrice(FieldMinPrice, input.MinPrice)
	if err != nil {
		return Filters{}, err
	}
	maxPrice, err := parsePrice(FieldMaxPrice, input.MaxPrice)
	if err != nil {
		return Filters{}, err
	}

	return Filters{
		Category: input.Category,
		Brand:    input.Brand,
		Search:   input.Search,
		MinPrice: minPrice,
		MaxPrice: maxPrice,
	}, nil
}

func parsePrice(field, raw string) (decimal.NullDecimal, error) {
	if raw == "" {
		return decimal.NullDecimal{}, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.NullDecimal{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price").
			WithDetails(map[string]string{field: "must be numeric"})
	}
	if value.IsNegative() {
		return decimal.NullDecimal{}, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{field: "must not be negative"})
	}
	return decimal.NewNullDecimal(value), nil
}

func validationError(err error) error {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
	}
	details := map[string]string{}
	for _, fe := range errs {
		switch fe.Tag() {
		case "numeric":
			details[fe.Field()] = "must be numeric"
		case "max":
			details[fe.Field()] = fmt.Sprintf("must be at most %s characters", fe.Param())
		default:
			details[fe.Field()] = "is invalid"
		}
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
}

func knownField(field string) bool {
	for _, f := range filterFields {
		if f == field {
			return true
		}
	}
	return false
}

func nullEqual(a, b decimal.NullDecimal) bool {
	if a.Valid != b.Valid {
		return false
	}
	return !a.Valid || a.Decimal.Equal(b.Decimal)
}
