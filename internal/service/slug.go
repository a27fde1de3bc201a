package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pkordes/storefinder/internal/domain"
	"github.com/pkordes/storefinder/internal/repo"
	"github.com/pkordes/storefinder/internal/slug"
)

// SlugPlan is the outcome of resolving a name against the slugs in use:
// the base slug and how many stored slugs already match its pattern.
type SlugPlan struct {
	Base    string
	Matches int
}

// Attempt returns the slug to try on the given attempt. Attempt 0 is what
// slug.Generate picks; each later attempt bumps the numeric suffix by one.
func (p SlugPlan) Attempt(attempt int) string {
	return slug.WithSuffix(p.Base, p.Matches+1+attempt)
}

// SlugResolver looks up the slugs already in use and picks a unique one.
type SlugResolver struct {
	stores repo.StoreRepo
}

// NewSlugResolver constructs a SlugResolver backed by the provided StoreRepo.
func NewSlugResolver(stores repo.StoreRepo) *SlugResolver {
	return &SlugResolver{stores: stores}
}

// Resolve plans the slug for name. Stores with id exclude are ignored, so a
// store being renamed never collides with itself; pass uuid.Nil on create.
//
// The plan is computed from a read that is not atomic with the later write:
// two concurrent requests for the same base can both plan the same slug.
// The unique index on stores.slug rejects the loser with
// domain.ErrSlugTaken and the caller moves on to the next attempt.
//
// Returns a *domain.ValidationError when name has no letters or digits.
func (r *SlugResolver) Resolve(ctx context.Context, name string, exclude uuid.UUID) (SlugPlan, error) {
	base := slug.Make(name)
	if base == "" {
		return SlugPlan{}, domain.NewValidationError("name", domain.ReasonNameNotSluggable)
	}

	existing, err := r.stores.FindSlugsMatching(ctx, slug.Pattern(base), exclude)
	if err != nil {
		return SlugPlan{}, fmt.Errorf("service.SlugResolver.Resolve: %w", err)
	}

	return SlugPlan{Base: base, Matches: slug.Count(base, existing)}, nil
}
