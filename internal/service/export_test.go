package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/storefinder/internal/domain"
	"github.com/pkordes/storefinder/internal/service"
)

// ---- Export ----------------------------------------------------------------

func TestExportService_Export_Empty(t *testing.T) {
	svc := service.NewExportService(newMemStoreRepo())

	rows, err := svc.Export(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestExportService_Export_FlattensStore(t *testing.T) {
	stores := newMemStoreRepo()
	st := seed(t, newService(stores, &mockTranscoder{}), "Joe's Pizza")
	svc := service.NewExportService(stores)

	rows, err := svc.Export(context.Background())

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, st.ID.String(), rows[0].StoreID)
	assert.Equal(t, "joe-s-pizza", rows[0].Slug)
	assert.Equal(t, "1 Main St, Springfield", rows[0].Address)
	assert.Equal(t, -79.38, rows[0].Lng)
	assert.Equal(t, 43.65, rows[0].Lat)
	assert.Equal(t, []string{"Open Late", "Family Friendly"}, rows[0].Tags)
}

func TestExportService_Export_WalksEveryPage(t *testing.T) {
	stores := newMemStoreRepo()
	svc := newService(stores, &mockTranscoder{})
	n := domain.MaxPageLimit + 5
	for i := range n {
		seed(t, svc, fmt.Sprintf("Store %d", i))
	}

	rows, err := service.NewExportService(stores).Export(context.Background())

	require.NoError(t, err)
	assert.Len(t, rows, n)
	assert.Equal(t, fmt.Sprintf("Store %d", n-1), rows[0].Name, "newest first")
}

// failingListRepo fails every paged listing.
type failingListRepo struct {
	*memStoreRepo
	err error
}

func (f failingListRepo) ListPaged(context.Context, domain.PaginationParams) ([]domain.Store, int64, error) {
	return nil, 0, f.err
}

func TestExportService_Export_PropagatesError(t *testing.T) {
	boom := errors.New("db down")
	svc := service.NewExportService(failingListRepo{memStoreRepo: newMemStoreRepo(), err: boom})

	_, err := svc.Export(context.Background())

	assert.ErrorIs(t, err, boom)
}
