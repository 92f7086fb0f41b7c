package testhelpers

// DaftSeedSQL creates a store in the daft_properties layout with two
// listings and one agency carrying API keys.
const DaftSeedSQL = `
CREATE TABLE agencies (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	address         TEXT,
	phone           TEXT,
	email           TEXT,
	website         TEXT,
	logo            TEXT,
	daft_api_key    TEXT,
	myhome_api_key  TEXT,
	myhome_group_id INTEGER
);

CREATE TABLE daft_properties (
	id              TEXT PRIMARY KEY,
	agency_name     TEXT,
	address1        TEXT,
	eircode         TEXT,
	price           NUMERIC(12, 2),
	house_bedrooms  INTEGER,
	house_bathrooms INTEGER,
	property_type   TEXT,
	description     TEXT,
	images          JSONB
);

INSERT INTO agencies (id, name, address, phone, daft_api_key, myhome_api_key, myhome_group_id) VALUES
	('a1', 'Sherry FitzGerald', '1 Main St, Dublin', '01 555 0100', 'daft-key-1', 'mh-key-1', 42);

INSERT INTO daft_properties (id, agency_name, address1, eircode, price, house_bedrooms, house_bathrooms, property_type, description, images) VALUES
	('d1', 'Sherry FitzGerald', '12 Oak Road, Dublin 6', 'D06 X1Y2', 450000, 3, 2, 'House', 'Bright family home', '["https://img.example/d1.jpg"]'),
	('d2', 'Hooke & MacDonald', '4 Elm Court, Cork', 'T12 A1B2', 295000.50, 2, 1, 'Apartment', NULL, NULL);
`

// DaftRows returns the same listings as DaftSeedSQL in row-map form for
// in-memory stores.
func DaftRows() map[string][]map[string]any {
	return map[string][]map[string]any{
		"agencies": {
			{
				"id": "a1", "name": "Sherry FitzGerald", "address": "1 Main St, Dublin",
				"phone": "01 555 0100", "daft_api_key": "daft-key-1",
				"myhome_api_key": "mh-key-1", "myhome_group_id": 42,
			},
		},
		"daft_properties": {
			{
				"id": "d1", "agency_name": "Sherry FitzGerald", "address1": "12 Oak Road, Dublin 6",
				"eircode": "D06 X1Y2", "price": 450000.0, "house_bedrooms": 3, "house_bathrooms": 2,
				"property_type": "House", "description": "Bright family home",
				"images": `["https://img.example/d1.jpg"]`,
			},
			{
				"id": "d2", "agency_name": "Hooke & MacDonald", "address1": "4 Elm Court, Cork",
				"eircode": "T12 A1B2", "price": 295000.50, "house_bedrooms": 2, "house_bathrooms": 1,
				"property_type": "Apartment", "description": nil, "images": nil,
			},
		},
	}
}

// UnifiedRows returns a store in the properties/agencies layout whose rows
// carry multi-feed sources.
func UnifiedRows() map[string][]map[string]any {
	return map[string][]map[string]any{
		"agencies": {
			{"id": "ag-1", "name": "Lisney", "address": "St Stephen's Green", "email": "info@lisney.example"},
		},
		"properties": {
			{
				"id": "p1", "title": "Seaview Cottage", "address": "Strand Road, Sandymount",
				"eircode": "D04 Z9Z9", "price": "€615,000", "bedrooms": 3, "bathrooms": 2,
				"property_type": "Cottage", "agency_id": "Lisney",
				"sources": []any{
					map[string]any{"source": "daft", "url": "https://daft.example/p1", "price": 615000.0, "last_updated": "2024-05-01"},
					map[string]any{"source": "myhome", "url": "https://myhome.example/p1", "price": 620000.0, "last_updated": "2024-05-03"},
				},
			},
		},
	}
}
