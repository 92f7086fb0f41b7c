package models

import (
	"regexp"
	"strings"
)

// SourceTag identifies which listing site produced one observation of a property.
type SourceTag string

const (
	SourceDaft      SourceTag = "daft"
	SourceMyHome    SourceTag = "myhome"
	SourceWordPress SourceTag = "wordpress"
	SourceOthers    SourceTag = "others"
)

// ParseSourceTag maps a raw feed name onto the closed tag set.
// Anything unrecognized becomes SourceOthers.
func ParseSourceTag(raw string) SourceTag {
	switch SourceTag(strings.ToLower(strings.TrimSpace(raw))) {
	case SourceDaft:
		return SourceDaft
	case SourceMyHome:
		return SourceMyHome
	case SourceWordPress:
		return SourceWordPress
	default:
		return SourceOthers
	}
}

// Default display values used when a row carries no usable value.
const (
	DefaultPropertyTitle = "Untitled Property"
	DefaultPropertyType  = "Property"
	DefaultAgencyName    = "Unknown Agency"
)

// Agency is the canonical agency entity embedded in every Property.
type Agency struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Website string `json:"website,omitempty"`
	Logo    string `json:"logo,omitempty"`
	Office  string `json:"office,omitempty"`
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// AgencySlug derives the weak agency identity from a display name:
// lower-cased, each whitespace run replaced by a hyphen.
// Names differing in anything but case or spacing produce different slugs.
func AgencySlug(name string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(name), "-")
}

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// PropertySource is one feed's observation of a property.
type PropertySource struct {
	Source      SourceTag `json:"source"`
	URL         string    `json:"url"`
	Price       float64   `json:"price"`
	LastUpdated string    `json:"last_updated"`
	Description string    `json:"description,omitempty"`
	// Images is nil when the feed supplied no image list at all.
	Images []string `json:"images"`
}

// Property is the canonical listing entity produced by normalization.
type Property struct {
	ID           string           `json:"id"`
	Title        string           `json:"title"`
	Address      string           `json:"address"`
	Eircode      string           `json:"eircode,omitempty"`
	Price        float64          `json:"price"`
	Bedrooms     float64          `json:"bedrooms"`
	Bathrooms    float64          `json:"bathrooms"`
	PropertyType string           `json:"property_type"`
	Description  string           `json:"description"`
	Images       []string         `json:"images"`
	Coordinates  *Coordinates     `json:"coordinates,omitempty"`
	Agency       Agency           `json:"agency"`
	Sources      []PropertySource `json:"sources"`
}

// SearchFilters narrows a search. Nil pointers and empty strings mean "not set".
type SearchFilters struct {
	MinPrice     *float64 `json:"min_price,omitempty"`
	MaxPrice     *float64 `json:"max_price,omitempty"`
	MinBedrooms  *float64 `json:"min_bedrooms,omitempty"`
	MaxBedrooms  *float64 `json:"max_bedrooms,omitempty"`
	PropertyType string   `json:"property_type,omitempty"`
	Location     string   `json:"location,omitempty"`
}

// SourceTally counts source observations (not properties) per feed.
type SourceTally struct {
	Daft      int `json:"daft"`
	MyHome    int `json:"myhome"`
	WordPress int `json:"wordpress"`
	Others    int `json:"others"`
}

// Add records one observation for tag.
func (t *SourceTally) Add(tag SourceTag) {
	switch tag {
	case SourceDaft:
		t.Daft++
	case SourceMyHome:
		t.MyHome++
	case SourceWordPress:
		t.WordPress++
	default:
		t.Others++
	}
}

// SearchResults is the aggregated answer to one search.
type SearchResults struct {
	Query      string      `json:"query"`
	Agencies   []Agency    `json:"agencies"`
	Properties []Property  `json:"properties"`
	Sources    SourceTally `json:"sources"`
}

// EmptySearchResults returns a valid result with no rows.
func EmptySearchResults(query string) *SearchResults {
	return &SearchResults{
		Query:      query,
		Agencies:   []Agency{},
		Properties: []Property{},
	}
}

// Delta field names.
const (
	DeltaFieldPrice       = "Price"
	DeltaFieldDescription = "Description"
	DeltaFieldLastUpdated = "Last Updated"
	DeltaFieldImageCount  = "Image Count"
)

// DeltaValue is one source's value for a compared field.
// Value holds a float64, int or string depending on the field.
type DeltaValue struct {
	Source SourceTag `json:"source"`
	Value  any       `json:"value"`
}

// PropertyDelta compares one field across a property's sources.
type PropertyDelta struct {
	Field         string       `json:"field"`
	Values        []DeltaValue `json:"values"`
	HasDifference bool         `json:"has_difference"`
}
