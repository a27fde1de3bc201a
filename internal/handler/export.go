// Package handler: export.go implements GET /export.
// Returns every store as a flat table.
// Supports content negotiation via ?format=csv (CSV) or default (JSON).
package handler

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/oapi-codegen/runtime"

	"github.com/pkordes/storefinder/internal/domain"
)

// Export formats accepted by ?format=.
const (
	exportFormatJSON = "json"
	exportFormatCSV  = "csv"
)

// csvHeaders defines the column names written as the first row of any CSV export.
var csvHeaders = []string{
	"store_id", "name", "slug", "description", "address",
	"lng", "lat", "tags", "photo", "created",
}

// GetExport handles GET /export.
// It returns a flat table of every store.
// Use ?format=csv to receive CSV; default is JSON.
func (s *Server) GetExport(w http.ResponseWriter, r *http.Request) {
	var format *string
	if err := runtime.BindQueryParameter("form", true, false, "format", r.URL.Query(), &format); err != nil {
		badRequest(w, "invalid format for parameter format: "+err.Error())
		return
	}
	wantCSV := false
	if format != nil {
		switch *format {
		case exportFormatCSV:
			wantCSV = true
		case exportFormatJSON:
		default:
			badRequest(w, "format must be json or csv")
			return
		}
	}

	rows, err := s.export.Export(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	if wantCSV {
		writeCSV(w, rows)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// writeCSV encodes rows as CSV.
// Tags within a row are pipe-separated ("|") to keep each store on a single CSV line.
func writeCSV(w http.ResponseWriter, rows []domain.ExportRow) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	// bytes.Buffer.Write never returns an error.
	_ = cw.Write(csvHeaders)
	for _, r := range rows {
		_ = cw.Write(exportRowToCSVRecord(r))
	}
	cw.Flush()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="stores.csv"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// exportRowToCSVRecord encodes a domain.ExportRow as a flat string slice.
func exportRowToCSVRecord(r domain.ExportRow) []string {
	return []string{
		r.StoreID,
		r.Name,
		r.Slug,
		r.Description,
		r.Address,
		strconv.FormatFloat(r.Lng, 'f', -1, 64),
		strconv.FormatFloat(r.Lat, 'f', -1, 64),
		strings.Join(r.Tags, "|"),
		r.Photo,
		r.Created.UTC().Format(time.RFC3339),
	}
}
