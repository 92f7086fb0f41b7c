package models

// PropertyColumns maps canonical property fields to column names.
// An empty string means the layout does not expose that concept.
type PropertyColumns struct {
	ID           string `yaml:"id" json:"id"`
	Title        string `yaml:"title" json:"title"`
	Address      string `yaml:"address" json:"address"`
	Eircode      string `yaml:"eircode" json:"eircode,omitempty"`
	Price        string `yaml:"price" json:"price"`
	Bedrooms     string `yaml:"bedrooms" json:"bedrooms"`
	Bathrooms    string `yaml:"bathrooms" json:"bathrooms"`
	PropertyType string `yaml:"property_type" json:"property_type"`
	Description  string `yaml:"description" json:"description,omitempty"`
	Images       string `yaml:"images" json:"images,omitempty"`
	Latitude     string `yaml:"latitude" json:"latitude,omitempty"`
	Longitude    string `yaml:"longitude" json:"longitude,omitempty"`
	AgencyRef    string `yaml:"agency_ref" json:"agency_ref"`
	Sources      string `yaml:"sources" json:"sources,omitempty"`
	URL          string `yaml:"url" json:"url,omitempty"`
	UpdatedAt    string `yaml:"updated_at" json:"updated_at,omitempty"`
}

// AgencyColumns maps canonical agency fields to column names.
type AgencyColumns struct {
	ID      string `yaml:"id" json:"id"`
	Name    string `yaml:"name" json:"name"`
	Address string `yaml:"address" json:"address,omitempty"`
	Phone   string `yaml:"phone" json:"phone,omitempty"`
	Email   string `yaml:"email" json:"email,omitempty"`
	Website string `yaml:"website" json:"website,omitempty"`
	Logo    string `yaml:"logo" json:"logo,omitempty"`
	Office  string `yaml:"office" json:"office,omitempty"`
}

// ColumnMapping groups the per-entity column maps of a layout.
type ColumnMapping struct {
	Properties PropertyColumns `yaml:"properties" json:"properties"`
	Agencies   AgencyColumns   `yaml:"agencies" json:"agencies"`
}

// SchemaCandidate is one known table/column layout for listing stores.
type SchemaCandidate struct {
	Name            string        `yaml:"name" json:"name"`
	PropertiesTable string        `yaml:"properties_table" json:"properties_table"`
	AgenciesTable   string        `yaml:"agencies_table" json:"agencies_table"`
	Feed            string        `yaml:"feed" json:"feed,omitempty"` // set for single-origin tables
	Columns         ColumnMapping `yaml:"columns" json:"columns"`
}

// TitleIsAgency reports whether the layout has no distinct title column and
// reuses the agency reference for it.
func (c *SchemaCandidate) TitleIsAgency() bool {
	p := c.Columns.Properties
	return p.Title != "" && p.Title == p.AgencyRef
}
