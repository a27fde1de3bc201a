package service

import (
	"context"
	"fmt"

	"github.com/pkordes/storefinder/internal/domain"
	"github.com/pkordes/storefinder/internal/repo"
)

// ExportService assembles a full flat export of all stores.
type ExportService struct {
	stores repo.StoreRepo
}

// NewExportService constructs an ExportService backed by the provided StoreRepo.
func NewExportService(stores repo.StoreRepo) *ExportService {
	return &ExportService{stores: stores}
}

// Export returns one ExportRow per store, newest first.
// It walks the paged listing at the largest page size, so the export is
// consistent only as far as each page is. Always returns a non-nil slice.
func (s *ExportService) Export(ctx context.Context) ([]domain.ExportRow, error) {
	limit := domain.MaxPageLimit
	rows := []domain.ExportRow{}
	for page := 1; ; page++ {
		stores, total, err := s.stores.ListPaged(ctx, domain.NewPaginationParams(&page, &limit))
		if err != nil {
			return nil, fmt.Errorf("service.ExportService.Export: %w", err)
		}
		for _, st := range stores {
			rows = append(rows, domain.NewExportRow(st))
		}
		if len(stores) < limit || int64(len(rows)) >= total {
			return rows, nil
		}
	}
}
