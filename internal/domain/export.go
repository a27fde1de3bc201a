package domain

import "time"

// ExportRow is a single row in the full-data export: one store, flattened.
// Tags keeps the store's display order; callers that need a joined string
// (e.g. CSV) should join with "|".
type ExportRow struct {
	StoreID     string    `json:"store_id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	Address     string    `json:"address"`
	Lng         float64   `json:"lng"`
	Lat         float64   `json:"lat"`
	Tags        []string  `json:"tags"`
	Photo       string    `json:"photo,omitempty"`
	Created     time.Time `json:"created"`
}

// NewExportRow flattens s into an ExportRow.
func NewExportRow(s Store) ExportRow {
	tags := s.Tags
	if tags == nil {
		tags = []string{}
	}
	return ExportRow{
		StoreID:     s.ID.String(),
		Name:        s.Name,
		Slug:        s.Slug,
		Description: s.Description,
		Address:     s.Location.Address,
		Lng:         s.Location.Coordinates.Lng,
		Lat:         s.Location.Coordinates.Lat,
		Tags:        tags,
		Photo:       s.Photo,
		Created:     s.Created,
	}
}
