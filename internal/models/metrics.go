package models

import (
	"time"
)

// DailyMetrics is the rollup record of one UTC day, keyed by Day
type DailyMetrics struct {
	Day             string // YYYY-MM-DD
	DAU             int64
	Posts           int64
	ShortViews      int64
	PurchaseIntents int64
	UpdatedAt       time.Time
}

// ToMap renders the record as document data
func (m DailyMetrics) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"dau":             m.DAU,
		"posts":           m.Posts,
		"shortViews":      m.ShortViews,
		"purchaseIntents": m.PurchaseIntents,
		"updatedAt":       m.UpdatedAt,
	}
}
