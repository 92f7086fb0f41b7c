// Package normalize maps raw store rows onto the canonical listing model.
//
// Every field is resolved through the same chain: the layout's mapped
// column, then a fixed list of column names seen in older feeds, then a
// default. A value that is nil, blank, zero or an empty list counts as
// missing and falls through to the next link. Nothing here returns an error;
// the worst case is a Property made entirely of defaults.
package normalize

import (
	"fmt"

	"github.com/ekaya-inc/ekaya-listings/pkg/jsonutil"
	"github.com/ekaya-inc/ekaya-listings/pkg/models"
)

// Alternate column names tried after the mapped column.
var (
	idAlternates           = []string{"id"}
	titleAlternates        = []string{"title"}
	addressAlternates      = []string{"address1", "address"}
	eircodeAlternates      = []string{"eircode"}
	priceAlternates        = []string{"price", "house_price"}
	bedroomsAlternates     = []string{"house_bedrooms", "bedrooms", "beds"}
	bathroomsAlternates    = []string{"house_bathrooms", "bathrooms", "baths"}
	propertyTypeAlternates = []string{"property_type"}
	descriptionAlternates  = []string{"description"}
	imagesAlternates       = []string{"images"}
	sourcesAlternates      = []string{"sources"}
	agencyNameAlternates   = []string{"agency_name"}
)

// embeddedAgencyKey holds a nested agency object on joined rows.
const embeddedAgencyKey = "agency"

// Property builds a canonical Property from one raw row. A nil candidate is
// treated as a layout that maps nothing.
func Property(row map[string]any, candidate *models.SchemaCandidate) models.Property {
	if candidate == nil {
		candidate = &models.SchemaCandidate{}
	}
	cols := candidate.Columns.Properties

	agency := agencyFor(row, candidate)

	p := models.Property{
		ID:           jsonutil.FlexibleString(firstPresent(row, cols.ID, idAlternates...)),
		Address:      stringField(row, cols.Address, addressAlternates, ""),
		Eircode:      stringField(row, cols.Eircode, eircodeAlternates, ""),
		Price:        jsonutil.FlexibleNumber(resolve(row, cols.Price, priceAlternates...)),
		Bedrooms:     jsonutil.FlexibleNumber(resolve(row, cols.Bedrooms, bedroomsAlternates...)),
		Bathrooms:    jsonutil.FlexibleNumber(resolve(row, cols.Bathrooms, bathroomsAlternates...)),
		PropertyType: stringField(row, cols.PropertyType, propertyTypeAlternates, models.DefaultPropertyType),
		Description:  stringField(row, cols.Description, descriptionAlternates, ""),
		Images:       jsonutil.StringList(resolve(row, cols.Images, imagesAlternates...)),
		Coordinates:  coordinates(row, cols),
		Agency:       agency,
	}

	if candidate.TitleIsAgency() {
		p.Title = fmt.Sprintf("Property by %s", agency.Name)
	} else {
		p.Title = stringField(row, cols.Title, titleAlternates, models.DefaultPropertyTitle)
	}

	p.Sources = Sources(resolve(row, cols.Sources, sourcesAlternates...))
	if len(p.Sources) == 0 && candidate.Feed != "" {
		p.Sources = []models.PropertySource{feedSource(row, candidate, &p)}
	}

	return p
}

// Agency builds a canonical Agency from an agencies-table row.
// Without a native id the weak name slug is used.
func Agency(row map[string]any, cols models.AgencyColumns) models.Agency {
	name := stringField(row, cols.Name, []string{"name", "agency_name"}, models.DefaultAgencyName)
	a := models.Agency{
		ID:      jsonutil.FlexibleString(resolve(row, cols.ID, "id")),
		Name:    name,
		Address: stringField(row, cols.Address, []string{"address"}, ""),
		Phone:   stringField(row, cols.Phone, []string{"phone"}, ""),
		Email:   stringField(row, cols.Email, []string{"email"}, ""),
		Website: stringField(row, cols.Website, []string{"website"}, ""),
		Logo:    stringField(row, cols.Logo, []string{"logo"}, ""),
		Office:  stringField(row, cols.Office, []string{"office"}, ""),
	}
	if a.ID == "" {
		a.ID = models.AgencySlug(name)
	}
	return a
}

// agencyFor prefers an embedded agency object and otherwise synthesizes one
// from the agency reference or title.
func agencyFor(row map[string]any, candidate *models.SchemaCandidate) models.Agency {
	if obj, ok := jsonutil.Object(row[embeddedAgencyKey]); ok && len(obj) > 0 {
		return Agency(obj, candidate.Columns.Agencies)
	}

	cols := candidate.Columns.Properties
	v := resolve(row, cols.AgencyRef)
	if v == nil {
		v = resolve(row, cols.Title)
	}
	if v == nil {
		v = resolve(row, "", agencyNameAlternates...)
	}

	name := models.DefaultAgencyName
	if v != nil {
		name = jsonutil.FlexibleString(v)
	}

	return models.Agency{ID: models.AgencySlug(name), Name: name}
}

// feedSource synthesizes the single observation of a single-origin row.
func feedSource(row map[string]any, candidate *models.SchemaCandidate, p *models.Property) models.PropertySource {
	cols := candidate.Columns.Properties
	src := models.PropertySource{
		Source:      models.ParseSourceTag(candidate.Feed),
		URL:         stringField(row, cols.URL, []string{"url"}, ""),
		Price:       p.Price,
		LastUpdated: stringField(row, cols.UpdatedAt, []string{"last_updated", "updated_at", "updated"}, ""),
		Description: p.Description,
	}
	if resolve(row, cols.Images, imagesAlternates...) != nil {
		src.Images = p.Images
	}
	return src
}

func coordinates(row map[string]any, cols models.PropertyColumns) *models.Coordinates {
	lat := resolve(row, cols.Latitude)
	lng := resolve(row, cols.Longitude)
	if lat == nil || lng == nil {
		lat = resolve(row, "", "latitude")
		lng = resolve(row, "", "longitude")
	}
	if lat == nil || lng == nil {
		return nil
	}
	return &models.Coordinates{
		Lat: jsonutil.FlexibleNumber(lat),
		Lng: jsonutil.FlexibleNumber(lng),
	}
}

// resolve returns the first non-blank value among the mapped column and the
// alternates, or nil.
func resolve(row map[string]any, mapped string, alternates ...string) any {
	if mapped != "" {
		if v, ok := row[mapped]; ok && !jsonutil.IsBlank(v) {
			return v
		}
	}
	for _, column := range alternates {
		if v, ok := row[column]; ok && !jsonutil.IsBlank(v) {
			return v
		}
	}
	return nil
}

// firstPresent is like resolve but accepts zero values; only nil is missing.
func firstPresent(row map[string]any, mapped string, alternates ...string) any {
	if mapped != "" {
		if v := row[mapped]; v != nil {
			return v
		}
	}
	for _, column := range alternates {
		if v := row[column]; v != nil {
			return v
		}
	}
	return nil
}

func stringField(row map[string]any, mapped string, alternates []string, fallback string) string {
	v := resolve(row, mapped, alternates...)
	if v == nil {
		return fallback
	}
	return jsonutil.FlexibleString(v)
}
