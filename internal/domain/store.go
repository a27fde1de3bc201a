// Package domain contains the core data types for the store finder.
// This package has no dependencies beyond uuid and is imported by every other
// internal package (repo, service, photo, handler).
package domain

import (
	"io"
	"time"

	"github.com/google/uuid"
)

// PointType is the only geometry a store location may have.
const PointType = "Point"

// Point is a longitude/latitude pair, in that order.
type Point struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// Location is where a store is. Type is always PointType.
type Location struct {
	Type        string `json:"type"`
	Coordinates Point  `json:"coordinates"`
	Address     string `json:"address"`
}

// Store is a persisted store record.
// Slug is unique across all stores; it is derived from Name on creation and
// re-derived only when Name changes. Photo, when non-empty, is the filename
// of an image that has already been through the photo transcoder.
type Store struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	Tags        []string  `json:"tags"`
	Location    Location  `json:"location"`
	Photo       string    `json:"photo,omitempty"`
	Created     time.Time `json:"created"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StoreInput is the caller-supplied data for a new store.
// Slug, Photo and the timestamps are filled in by the ingestion pipeline
// and the database, never by the caller. Coordinates is a pointer so a
// missing point can be told apart from (0, 0).
type StoreInput struct {
	Name        string
	Description string
	Tags        []string
	Address     string
	Coordinates *Point
}

// StorePatch carries the fields of an update. A nil field leaves the stored
// value untouched.
type StorePatch struct {
	Name        *string
	Description *string
	Tags        *[]string
	Address     *string
	Coordinates *Point
}

// Upload is a file submitted alongside a create or update request.
// It lives only for the duration of one request. Body is not read until the
// media type has been accepted.
type Upload struct {
	Filename  string
	MediaType string
	Body      io.Reader
}
