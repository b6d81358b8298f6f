package domain

import (
	"strings"
	"time"
)

// EnrichedLocation is a geocoded city. It only exists when the geocoder found
// a match, so Lat and Lon are always finite.
type EnrichedLocation struct {
	City          string   `json:"city"`
	DisplayName   string   `json:"displayName"`
	Lat           float64  `json:"lat"`
	Lon           float64  `json:"lon"`
	Neighborhoods []string `json:"neighborhoods"`
}

// LocationCategory classifies the area names registered for a city.
type LocationCategory string

const (
	CategoryArea     LocationCategory = "area"
	CategoryStreet   LocationCategory = "street"
	CategoryMarket   LocationCategory = "market"
	CategoryJunction LocationCategory = "junction"
	CategoryEstate   LocationCategory = "estate"
	CategorySuburb   LocationCategory = "suburb"
	CategoryLandmark LocationCategory = "landmark"
)

// LocationCategories lists every accepted category in display order.
var LocationCategories = []LocationCategory{
	CategoryArea, CategoryStreet, CategoryMarket, CategoryJunction,
	CategoryEstate, CategorySuburb, CategoryLandmark,
}

// ParseLocationCategory matches s case-insensitively against the known categories.
func ParseLocationCategory(s string) (LocationCategory, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, c := range LocationCategories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// LocationRecord holds the area names registered for one (city, category) pair.
type LocationRecord struct {
	ID        string           `gorm:"type:text;primaryKey" json:"id"`
	City      string           `gorm:"type:text;not null;uniqueIndex:idx_locations_city_category" json:"city"`
	Category  LocationCategory `gorm:"type:text;not null;uniqueIndex:idx_locations_city_category" json:"category"`
	Name      StringArray      `gorm:"type:text" json:"name"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// TableName returns the database table name for LocationRecord.
func (LocationRecord) TableName() string {
	return "locations"
}

// MergeAreas returns existing followed by every new area not already present.
// Blank entries are dropped.
func MergeAreas(existing, areas []string) []string {
	seen := make(map[string]struct{}, len(existing)+len(areas))
	merged := make([]string, 0, len(existing)+len(areas))
	for _, list := range [][]string{existing, areas} {
		for _, a := range list {
			a = strings.TrimSpace(a)
			if a == "" {
				continue
			}
			if _, ok := seen[a]; ok {
				continue
			}
			seen[a] = struct{}{}
			merged = append(merged, a)
		}
	}
	return merged
}
