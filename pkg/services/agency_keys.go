package services

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
)

// MyHomeAPI holds an agency's MyHome credentials.
type MyHomeAPI struct {
	APIKey  string `json:"ApiKey"`
	GroupID int    `json:"GroupID"`
}

// AgencyKeyRecord is one entry of the agency key file.
type AgencyKeyRecord struct {
	Key        string     `json:"Key"`
	Name       string     `json:"Name"`
	OfficeName string     `json:"OfficeName"`
	Address1   string     `json:"Address1"`
	Address2   string     `json:"Address2"`
	Logo       *string    `json:"Logo"`
	Site       string     `json:"Site"`
	DaftAPIKey *string    `json:"DaftApiKey"`
	MyHomeAPI  *MyHomeAPI `json:"MyhomeApi"`
	UUID       string     `json:"uuid"`
}

// HasDaftKey reports whether the record carries a non-empty Daft key.
func (r *AgencyKeyRecord) HasDaftKey() bool {
	return r.DaftAPIKey != nil && *r.DaftAPIKey != ""
}

// HasMyHomeKey reports whether the record carries a non-empty MyHome key.
func (r *AgencyKeyRecord) HasMyHomeKey() bool {
	return r.MyHomeAPI != nil && r.MyHomeAPI.APIKey != ""
}

// AgencyKeyDirectory is the read-only, in-memory view of the key file.
// A nil *AgencyKeyDirectory is valid and empty.
type AgencyKeyDirectory struct {
	records []AgencyKeyRecord
}

// NewAgencyKeyDirectory wraps already decoded records.
func NewAgencyKeyDirectory(records []AgencyKeyRecord) *AgencyKeyDirectory {
	return &AgencyKeyDirectory{records: records}
}

// LoadAgencyKeyDirectory reads a JSON array of key records from path.
func LoadAgencyKeyDirectory(path string) (*AgencyKeyDirectory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read agency key file: %w", err)
	}
	var records []AgencyKeyRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse agency key file %s: %w", path, err)
	}
	return NewAgencyKeyDirectory(records), nil
}

// Len returns the number of records.
func (d *AgencyKeyDirectory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.records)
}

// Find matches name against Name and OfficeName, case-insensitively.
// An exact match wins; otherwise the first record where either side
// contains the other. Empty names on either side never match.
func (d *AgencyKeyDirectory) Find(name string) (*AgencyKeyRecord, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if d == nil || needle == "" {
		return nil, false
	}

	for i := range d.records {
		r := &d.records[i]
		if normalizedName(r.Name) == needle || normalizedName(r.OfficeName) == needle {
			return r, true
		}
	}

	for i := range d.records {
		r := &d.records[i]
		for _, candidate := range []string{r.Name, r.OfficeName} {
			c := normalizedName(candidate)
			if c == "" {
				continue
			}
			if strings.Contains(c, needle) || strings.Contains(needle, c) {
				return r, true
			}
		}
	}
	return nil, false
}

// ByUUID returns the record with the given uuid. Input is accepted in any
// of the textual forms uuid.Parse understands.
func (d *AgencyKeyDirectory) ByUUID(id string) (*AgencyKeyRecord, bool) {
	if d == nil {
		return nil, false
	}
	want, err := uuid.Parse(id)
	if err != nil {
		return nil, false
	}
	for i := range d.records {
		got, err := uuid.Parse(d.records[i].UUID)
		if err == nil && got == want {
			return &d.records[i], true
		}
	}
	return nil, false
}

// WithDaftKeys returns the records that carry a Daft key.
func (d *AgencyKeyDirectory) WithDaftKeys() []AgencyKeyRecord {
	return d.filter((*AgencyKeyRecord).HasDaftKey)
}

// WithMyHomeKeys returns the records that carry a MyHome key.
func (d *AgencyKeyDirectory) WithMyHomeKeys() []AgencyKeyRecord {
	return d.filter((*AgencyKeyRecord).HasMyHomeKey)
}

// Names lists every record's Name in file order.
func (d *AgencyKeyDirectory) Names() []string {
	if d == nil {
		return []string{}
	}
	names := make([]string, 0, len(d.records))
	for _, r := range d.records {
		names = append(names, r.Name)
	}
	return names
}

func (d *AgencyKeyDirectory) filter(keep func(*AgencyKeyRecord) bool) []AgencyKeyRecord {
	out := []AgencyKeyRecord{}
	if d == nil {
		return out
	}
	for i := range d.records {
		if keep(&d.records[i]) {
			out = append(out, d.records[i])
		}
	}
	return out
}

func normalizedName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
