package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pkordes/storefinder/internal/domain"
	"github.com/pkordes/storefinder/internal/repo"
)

// TagService implements the read side of store tags.
type TagService struct {
	stores repo.StoreRepo
}

// NewTagService constructs a TagService backed by the provided StoreRepo.
func NewTagService(stores repo.StoreRepo) *TagService {
	return &TagService{stores: stores}
}

// TagPage returns the tag cloud together with the stores carrying tag.
// An empty tag lists every store that has at least one tag.
// The two queries are independent and run concurrently.
func (s *TagService) TagPage(ctx context.Context, tag string) (domain.TagPage, error) {
	page := domain.TagPage{Tag: strings.TrimSpace(tag)}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		counts, err := s.stores.AggregateTagCounts(gctx)
		if err != nil {
			return err
		}
		page.Tags = counts
		return nil
	})
	g.Go(func() error {
		stores, err := s.stores.ListByTag(gctx, page.Tag)
		if err != nil {
			return err
		}
		page.Stores = stores
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.TagPage{}, fmt.Errorf("service.TagService.TagPage: %w", err)
	}

	if page.Tags == nil {
		page.Tags = []domain.TagCount{}
	}
	if page.Stores == nil {
		page.Stores = []domain.Store{}
	}
	return page, nil
}
