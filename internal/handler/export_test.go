package handler_test

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/storefinder/internal/domain"
	"github.com/pkordes/storefinder/internal/handler"
)

// ---- mock ExportServicer ---------------------------------------------------

type mockExportServicer struct {
	export func(ctx context.Context) ([]domain.ExportRow, error)
}

func (m *mockExportServicer) Export(ctx context.Context) ([]domain.ExportRow, error) {
	return m.export(ctx)
}

// compile-time check: mockExportServicer must satisfy handler.ExportServicer.
var _ handler.ExportServicer = (*mockExportServicer)(nil)

// ---- helpers ---------------------------------------------------------------

func newExportHTTPHandler(exportSvc handler.ExportServicer) http.Handler {
	return newFullHTTPHandler(nil, nil, exportSvc)
}

// exportRowFixture returns a fully-populated domain.ExportRow for testing.
func exportRowFixture() domain.ExportRow {
	return domain.ExportRow{
		StoreID:     uuid.New().String(),
		Name:        "Joe's Pizza",
		Slug:        "joes-pizza",
		Description: "Wood-fired, since 1962",
		Address:     "1 Main St",
		Lng:         -79.38,
		Lat:         43.65,
		Tags:        []string{"Wifi", "Open Late"},
		Photo:       "abc.jpeg",
		Created:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func exportReturning(rows ...domain.ExportRow) *mockExportServicer {
	return &mockExportServicer{
		export: func(context.Context) ([]domain.ExportRow, error) { return rows, nil },
	}
}

// ---- GET /export -----------------------------------------------------------

func TestGetExport_JSON_Default(t *testing.T) {
	fixture := exportRowFixture()

	rec := do(newExportHTTPHandler(exportReturning(fixture)), httptest.NewRequest(http.MethodGet, "/export", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var rows []domain.ExportRow
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&rows))
	require.Len(t, rows, 1)
	assert.Equal(t, fixture.StoreID, rows[0].StoreID)
	assert.Equal(t, fixture.Tags, rows[0].Tags)
}

func TestGetExport_CSV(t *testing.T) {
	fixture := exportRowFixture()

	rec := do(newExportHTTPHandler(exportReturning(fixture)), httptest.NewRequest(http.MethodGet, "/export?format=csv", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))

	records, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2, "header + one row")
	assert.Equal(t, "store_id", records[0][0])
	row := records[1]
	assert.Equal(t, fixture.StoreID, row[0])
	assert.Equal(t, "Wood-fired, since 1962", row[3], "commas are quoted, not split")
	assert.Equal(t, "-79.38", row[5])
	assert.Equal(t, "Wifi|Open Late", row[7])
	assert.Equal(t, "2025-06-01T12:00:00Z", row[9])
}

func TestGetExport_CSV_Empty(t *testing.T) {
	rec := do(newExportHTTPHandler(exportReturning()), httptest.NewRequest(http.MethodGet, "/export?format=csv", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, strings.Count(rec.Body.String(), "\n"), "header only")
}

func TestGetExport_400_UnknownFormat(t *testing.T) {
	rec := do(newExportHTTPHandler(exportReturning()), httptest.NewRequest(http.MethodGet, "/export?format=xml", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetExport_500(t *testing.T) {
	svc := &mockExportServicer{
		export: func(context.Context) ([]domain.ExportRow, error) { return nil, errors.New("db down") },
	}

	rec := do(newExportHTTPHandler(svc), httptest.NewRequest(http.MethodGet, "/export", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
