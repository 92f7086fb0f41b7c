package services

import (
	"github.com/ekaya-inc/ekaya-listings/pkg/models"
)

// CalculatePropertyDeltas compares price, description, last-updated and
// image count across the sources of one property.
//
// Price and Last Updated are always reported. Description is reported only
// when some source has one, and Image Count only when some source supplied an
// image list. Last Updated is informational and never flagged as a difference.
func CalculatePropertyDeltas(sources []models.PropertySource) []models.PropertyDelta {
	deltas := make([]models.PropertyDelta, 0, 4)

	prices := make([]models.DeltaValue, 0, len(sources))
	distinctPrices := make(map[float64]struct{})
	for _, s := range sources {
		prices = append(prices, models.DeltaValue{Source: s.Source, Value: s.Price})
		distinctPrices[s.Price] = struct{}{}
	}
	deltas = append(deltas, models.PropertyDelta{
		Field:         models.DeltaFieldPrice,
		Values:        prices,
		HasDifference: len(distinctPrices) > 1,
	})

	var descriptions []models.DeltaValue
	distinctDescriptions := make(map[string]struct{})
	for _, s := range sources {
		if s.Description == "" {
			continue
		}
		descriptions = append(descriptions, models.DeltaValue{Source: s.Source, Value: s.Description})
		distinctDescriptions[s.Description] = struct{}{}
	}
	if len(descriptions) > 0 {
		deltas = append(deltas, models.PropertyDelta{
			Field:         models.DeltaFieldDescription,
			Values:        descriptions,
			HasDifference: len(distinctDescriptions) > 1,
		})
	}

	updated := make([]models.DeltaValue, 0, len(sources))
	for _, s := range sources {
		updated = append(updated, models.DeltaValue{Source: s.Source, Value: s.LastUpdated})
	}
	deltas = append(deltas, models.PropertyDelta{
		Field:  models.DeltaFieldLastUpdated,
		Values: updated,
	})

	var imageCounts []models.DeltaValue
	distinctCounts := make(map[int]struct{})
	for _, s := range sources {
		if s.Images == nil {
			continue
		}
		imageCounts = append(imageCounts, models.DeltaValue{Source: s.Source, Value: len(s.Images)})
		distinctCounts[len(s.Images)] = struct{}{}
	}
	if len(imageCounts) > 0 {
		deltas = append(deltas, models.PropertyDelta{
			Field:         models.DeltaFieldImageCount,
			Values:        imageCounts,
			HasDifference: len(distinctCounts) > 1,
		})
	}

	return deltas
}
