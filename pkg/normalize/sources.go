package normalize

import (
	"github.com/ekaya-inc/ekaya-listings/pkg/jsonutil"
	"github.com/ekaya-inc/ekaya-listings/pkg/models"
)

// Sources decodes a sources column: a native list of objects or a JSON
// string holding one. Anything undecodable yields an empty list.
// Entries that are not objects are skipped.
func Sources(raw any) []models.PropertySource {
	entries, ok := jsonutil.ObjectList(raw)
	out := make([]models.PropertySource, 0, len(entries))
	if !ok {
		return out
	}
	for _, entry := range entries {
		out = append(out, Source(entry))
	}
	return out
}

// Source decodes one feed observation. Both camelCase and snake_case keys
// are accepted since feeds were written by different tools.
func Source(entry map[string]any) models.PropertySource {
	src := models.PropertySource{
		Source:      models.ParseSourceTag(jsonutil.FlexibleString(resolve(entry, "source", "feed"))),
		URL:         stringField(entry, "url", []string{"link"}, ""),
		Price:       jsonutil.FlexibleNumber(resolve(entry, "price")),
		LastUpdated: stringField(entry, "lastUpdated", []string{"last_updated", "updated_at"}, ""),
		Description: stringField(entry, "description", nil, ""),
	}
	if images, ok := entry["images"]; ok && images != nil {
		src.Images = jsonutil.StringList(images)
	}
	return src
}
