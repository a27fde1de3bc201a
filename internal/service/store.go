// Package service contains the business logic for the store finder.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// No SQL lives here; services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/storefinder/internal/domain"
	"github.com/pkordes/storefinder/internal/metrics"
	"github.com/pkordes/storefinder/internal/photo"
	"github.com/pkordes/storefinder/internal/repo"
	"github.com/pkordes/storefinder/internal/slug"
)

// MaxSlugAttempts bounds how many suffixes are tried when a concurrent
// writer takes the planned slug first.
const MaxSlugAttempts = 5

// Ingestion stages, used in logs when a request stops early.
const (
	stageValidated  = "validated"
	stageTranscoded = "transcoded"
	stageSlugged    = "slugged"
	stagePersisted  = "persisted"
)

// PhotoTranscoder resizes an accepted upload and stores it under a new name.
type PhotoTranscoder interface {
	Transcode(ctx context.Context, up domain.Upload) (photo.Result, error)
}

// StoreService is the ingestion pipeline for stores. Create and Update run
// the same linear sequence of stages:
//
//	validate upload → validate fields → transcode photo → resolve slug → persist
//
// Each stage runs to completion before the next starts and any failure ends
// the request; a store is never written without its photo already on disk.
type StoreService struct {
	stores  repo.StoreRepo
	slugs   *SlugResolver
	photos  PhotoTranscoder
	metrics *metrics.PipelineMetrics
}

// NewStoreService constructs a StoreService. m may be nil.
func NewStoreService(stores repo.StoreRepo, photos PhotoTranscoder, m *metrics.PipelineMetrics) *StoreService {
	return &StoreService{
		stores:  stores,
		slugs:   NewSlugResolver(stores),
		photos:  photos,
		metrics: m,
	}
}

// Create ingests a new store. up is nil when no photo was submitted; the
// store is then created without one.
//
// Errors: *domain.UploadRejectedError for a non-image upload,
// *domain.ValidationError for missing or malformed fields,
// *domain.TranscodeError when the photo cannot be decoded or written.
func (s *StoreService) Create(ctx context.Context, in domain.StoreInput, up *domain.Upload) (domain.Store, error) {
	const op = metrics.OpCreate

	if err := validateUpload(up); err != nil {
		return domain.Store{}, s.fail(ctx, op, stageValidated, metrics.OutcomeRejected, err)
	}

	if strings.TrimSpace(in.Name) == "" {
		err := domain.NewValidationError("name", domain.ReasonNameRequired)
		return domain.Store{}, s.fail(ctx, op, stageValidated, metrics.OutcomeInvalid, err)
	}
	if in.Coordinates == nil {
		err := domain.NewValidationError("location.coordinates", domain.ReasonCoordinatesRequired)
		return domain.Store{}, s.fail(ctx, op, stageValidated, metrics.OutcomeInvalid, err)
	}
	store := domain.Store{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Tags:        normalizeTags(in.Tags),
		Location: domain.Location{
			Type:        domain.PointType,
			Coordinates: *in.Coordinates,
			Address:     strings.TrimSpace(in.Address),
		},
	}
	if err := validateStore(store); err != nil {
		return domain.Store{}, s.fail(ctx, op, stageValidated, metrics.OutcomeInvalid, err)
	}

	if up != nil {
		name, err := s.transcode(ctx, *up)
		if err != nil {
			return domain.Store{}, s.fail(ctx, op, stageTranscoded, metrics.OutcomeFailed, err)
		}
		store.Photo = name
	}

	plan, err := s.slugs.Resolve(ctx, store.Name, uuid.Nil)
	if err != nil {
		return domain.Store{}, s.fail(ctx, op, stageSlugged, outcomeFor(err), err)
	}

	created, err := s.persist(ctx, store, &plan, s.stores.Create)
	if err != nil {
		return domain.Store{}, s.fail(ctx, op, stagePersisted, outcomeFor(err), err)
	}

	s.metrics.RecordIngest(op, metrics.OutcomePersisted)
	slog.InfoContext(ctx, "store created",
		"store_id", created.ID,
		"slug", created.Slug,
		"photo", created.Photo,
	)
	return created, nil
}

// Update applies patch to the store with the given id. up, when non-nil,
// replaces the store's photo.
//
// The slug is recomputed only when the name changes to one whose base slug
// no longer matches the stored slug; renaming "Cafe" to "CAFÉ" keeps
// "cafe", renaming it to "Cafe Bar" moves it to "cafe-bar".
//
// Errors are those of Create plus domain.ErrNotFound.
func (s *StoreService) Update(ctx context.Context, id uuid.UUID, patch domain.StorePatch, up *domain.Upload) (domain.Store, error) {
	const op = metrics.OpUpdate

	if err := validateUpload(up); err != nil {
		return domain.Store{}, s.fail(ctx, op, stageValidated, metrics.OutcomeRejected, err)
	}

	current, err := s.stores.GetByID(ctx, id)
	if err != nil {
		return domain.Store{}, s.fail(ctx, op, stageValidated, outcomeFor(err), err)
	}

	next := applyPatch(current, patch)
	if err := validateStore(next); err != nil {
		return domain.Store{}, s.fail(ctx, op, stageValidated, metrics.OutcomeInvalid, err)
	}

	if up != nil {
		name, err := s.transcode(ctx, *up)
		if err != nil {
			return domain.Store{}, s.fail(ctx, op, stageTranscoded, metrics.OutcomeFailed, err)
		}
		next.Photo = name
	}

	var plan *SlugPlan
	if needsNewSlug(current, next.Name) {
		p, err := s.slugs.Resolve(ctx, next.Name, current.ID)
		if err != nil {
			return domain.Store{}, s.fail(ctx, op, stageSlugged, outcomeFor(err), err)
		}
		plan = &p
	}

	updated, err := s.persist(ctx, next, plan, s.stores.Update)
	if err != nil {
		return domain.Store{}, s.fail(ctx, op, stagePersisted, outcomeFor(err), err)
	}

	s.metrics.RecordIngest(op, metrics.OutcomePersisted)
	slog.InfoContext(ctx, "store updated",
		"store_id", updated.ID,
		"slug", updated.Slug,
		"slug_changed", updated.Slug != current.Slug,
	)
	return updated, nil
}

// GetByID returns a single store by ID.
// Returns domain.ErrNotFound if no store with that ID exists.
func (s *StoreService) GetByID(ctx context.Context, id uuid.UUID) (domain.Store, error) {
	result, err := s.stores.GetByID(ctx, id)
	if err != nil {
		return domain.Store{}, fmt.Errorf("service.StoreService.GetByID: %w", err)
	}
	return result, nil
}

// GetBySlug returns a single store by slug.
// Returns domain.ErrNotFound if no store has that slug.
func (s *StoreService) GetBySlug(ctx context.Context, slug string) (domain.Store, error) {
	result, err := s.stores.GetBySlug(ctx, slug)
	if err != nil {
		return domain.Store{}, fmt.Errorf("service.StoreService.GetBySlug: %w", err)
	}
	return result, nil
}

// ListPaged returns one page of stores, newest first, and the total count.
// Always returns a non-nil slice.
func (s *StoreService) ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Store, int64, error) {
	stores, total, err := s.stores.ListPaged(ctx, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.StoreService.ListPaged: %w", err)
	}
	if stores == nil {
		stores = []domain.Store{}
	}
	return stores, total, nil
}

// transcode runs the photo transcoder and records its cost.
func (s *StoreService) transcode(ctx context.Context, up domain.Upload) (string, error) {
	start := time.Now()
	res, err := s.photos.Transcode(ctx, up)
	if err != nil {
		return "", err
	}
	s.metrics.RecordTranscode(time.Since(start), res.Size)
	return res.Filename, nil
}

// persist writes st with write. With a plan, the slug is taken from it and
// a lost race for that slug moves on to the next suffix, up to
// MaxSlugAttempts writes. Without a plan, st.Slug is written as is.
func (s *StoreService) persist(
	ctx context.Context,
	st domain.Store,
	plan *SlugPlan,
	write func(context.Context, domain.Store) (domain.Store, error),
) (domain.Store, error) {
	if plan == nil {
		return write(ctx, st)
	}

	for attempt := 0; ; attempt++ {
		st.Slug = plan.Attempt(attempt)
		saved, err := write(ctx, st)
		if err == nil {
			return saved, nil
		}
		if !errors.Is(err, domain.ErrSlugTaken) || attempt+1 >= MaxSlugAttempts {
			return domain.Store{}, err
		}
		s.metrics.RecordSlugConflict()
		slog.WarnContext(ctx, "slug taken by concurrent write, retrying",
			"slug", st.Slug,
			"attempt", attempt+1,
		)
	}
}

// fail records a pipeline run that ended early and wraps err with the
// pipeline's name.
func (s *StoreService) fail(ctx context.Context, op, stage, outcome string, err error) error {
	s.metrics.RecordIngest(op, outcome)
	slog.InfoContext(ctx, "store ingest stopped",
		"op", op,
		"stage", stage,
		"outcome", outcome,
		"error", err,
	)
	if op == metrics.OpCreate {
		return fmt.Errorf("service.StoreService.Create: %w", err)
	}
	return fmt.Errorf("service.StoreService.Update: %w", err)
}

// outcomeFor classifies an error from the slug or persist stage.
func outcomeFor(err error) string {
	if errors.Is(err, domain.ErrValidation) {
		return metrics.OutcomeInvalid
	}
	return metrics.OutcomeFailed
}

// validateUpload accepts a nil upload (nothing submitted) and otherwise
// checks only the declared media type.
func validateUpload(up *domain.Upload) error {
	if up == nil {
		return nil
	}
	return photo.Validate(up.MediaType)
}

// needsNewSlug reports whether renaming current to name requires a new slug.
// The stored slug survives only a rename that keeps the same base; matching
// the new base's pattern is not enough ("route-66" matches "route").
func needsNewSlug(current domain.Store, name string) bool {
	if name == current.Name {
		return false
	}
	base := slug.Make(name)
	return base == "" || base != slug.Make(current.Name)
}

// applyPatch returns current with the non-nil fields of patch applied,
// trimmed the same way Create trims its input. The location type is forced
// back to Point.
func applyPatch(current domain.Store, patch domain.StorePatch) domain.Store {
	next := current
	if patch.Name != nil {
		next.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		next.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Tags != nil {
		next.Tags = normalizeTags(*patch.Tags)
	}
	if patch.Address != nil {
		next.Location.Address = strings.TrimSpace(*patch.Address)
	}
	if patch.Coordinates != nil {
		next.Location.Coordinates = *patch.Coordinates
	}
	next.Location.Type = domain.PointType
	return next
}

// normalizeTags trims each tag, drops empty ones and drops repeats, keeping
// the first occurrence so display order is preserved.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// validateStore enforces the field rules common to Create and Update.
// The database enforces the same rules with CHECK constraints; checking
// here first means a bad request never gets as far as writing a photo.
func validateStore(s domain.Store) error {
	if s.Name == "" {
		return domain.NewValidationError("name", domain.ReasonNameRequired)
	}
	if slug.Make(s.Name) == "" {
		return domain.NewValidationError("name", domain.ReasonNameNotSluggable)
	}
	if s.Location.Address == "" {
		return domain.NewValidationError("location.address", domain.ReasonAddressRequired)
	}
	if c := s.Location.Coordinates; c.Lng < -180 || c.Lng > 180 {
		return domain.NewValidationError("location.coordinates", "longitude must be between -180 and 180")
	}
	if c := s.Location.Coordinates; c.Lat < -90 || c.Lat > 90 {
		return domain.NewValidationError("location.coordinates", "latitude must be between -90 and 90")
	}
	return nil
}
