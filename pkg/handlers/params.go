package handlers

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/ekaya-inc/ekaya-listings/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-listings/pkg/models"
)

// Search query parameters.
const (
	paramQuery        = "q"
	paramMinPrice     = "min_price"
	paramMaxPrice     = "max_price"
	paramMinBedrooms  = "min_bedrooms"
	paramMaxBedrooms  = "max_bedrooms"
	paramPropertyType = "property_type"
	paramLocation     = "location"
)

// ParseSearchFilters reads the optional filter parameters of a search request.
// Absent or blank numeric parameters stay nil.
func ParseSearchFilters(r *http.Request) (*models.SearchFilters, error) {
	q := r.URL.Query()
	f := &models.SearchFilters{
		PropertyType: strings.TrimSpace(q.Get(paramPropertyType)),
		Location:     strings.TrimSpace(q.Get(paramLocation)),
	}

	numeric := []struct {
		name string
		dst  **float64
	}{
		{paramMinPrice, &f.MinPrice},
		{paramMaxPrice, &f.MaxPrice},
		{paramMinBedrooms, &f.MinBedrooms},
		{paramMaxBedrooms, &f.MaxBedrooms},
	}
	for _, n := range numeric {
		v, err := parseOptionalFloat(q.Get(n.name))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", apperrors.ErrInvalidArgument, n.name, err)
		}
		*n.dst = v
	}
	return f, nil
}

// searchParams flattens the request's search parameters for auditing.
func searchParams(r *http.Request) map[string]string {
	q := r.URL.Query()
	out := make(map[string]string)
	for _, name := range []string{paramQuery, paramPropertyType, paramLocation} {
		if v := q.Get(name); v != "" {
			out[name] = v
		}
	}
	return out
}

func parseOptionalFloat(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("not a number: %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("not a finite number: %q", s)
	}
	return &v, nil
}

// parseBool accepts the usual strconv forms; anything else is false.
func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}
