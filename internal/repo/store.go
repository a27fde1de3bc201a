package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/storefinder/internal/domain"
)

// StoreRepo defines the persistence operations for Stores.
// The service layer depends on this interface, not the Postgres implementation,
// so the ingestion pipeline can be unit-tested with a fake.
type StoreRepo interface {
	// FindSlugsMatching returns the slugs of all stores whose slug matches the
	// POSIX regular expression pattern, case-insensitively. The store with id
	// exclude is skipped; pass uuid.Nil to consider every store.
	FindSlugsMatching(ctx context.Context, pattern string, exclude uuid.UUID) ([]string, error)

	// Create inserts a new store and returns the persisted record with the
	// database-generated id and timestamps. Returns a *domain.ValidationError
	// for a constraint violation and domain.ErrSlugTaken if the slug is in use.
	Create(ctx context.Context, store domain.Store) (domain.Store, error)

	// GetByID retrieves a single store. Returns domain.ErrNotFound if absent.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Store, error)

	// GetBySlug retrieves a single store by slug. Returns domain.ErrNotFound if absent.
	GetBySlug(ctx context.Context, slug string) (domain.Store, error)

	// ListPaged returns one page of stores, newest first, and the total count.
	ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Store, int64, error)

	// ListByTag returns the stores carrying tag, ordered by name.
	// An empty tag returns every store that has at least one tag.
	ListByTag(ctx context.Context, tag string) ([]domain.Store, error)

	// Update overwrites every mutable field of the store with the given id.
	// Returns domain.ErrNotFound, a *domain.ValidationError, or
	// domain.ErrSlugTaken under the same rules as Create.
	Update(ctx context.Context, store domain.Store) (domain.Store, error)

	// AggregateTagCounts groups the tags of all stores and counts them,
	// highest count first; ties are ordered by tag.
	AggregateTagCounts(ctx context.Context) ([]domain.TagCount, error)
}

// pgStoreRepo is the Postgres implementation of StoreRepo.
type pgStoreRepo struct {
	db db
}

// NewStoreRepo constructs a StoreRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewStoreRepo(db db) StoreRepo {
	return &pgStoreRepo{db: db}
}

const storeColumns = `id, name, slug, description, tags, location_type, lng, lat, address, photo, created_at, updated_at`

// FindSlugsMatching uses the case-insensitive regex operator ~*.
func (r *pgStoreRepo) FindSlugsMatching(ctx context.Context, pattern string, exclude uuid.UUID) ([]string, error) {
	const q = `
		SELECT slug
		FROM stores
		WHERE slug ~* @pattern
		  AND id <> @exclude`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"pattern": pattern, "exclude": exclude})
	if err != nil {
		return nil, fmt.Errorf("repo.StoreRepo.FindSlugsMatching: %w", err)
	}

	slugs, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("repo.StoreRepo.FindSlugsMatching: rows: %w", err)
	}
	return slugs, nil
}

// Create inserts a new store row and returns the full persisted record.
func (r *pgStoreRepo) Create(ctx context.Context, store domain.Store) (domain.Store, error) {
	const q = `
		INSERT INTO stores (name, slug, description, tags, location_type, lng, lat, address, photo)
		VALUES (@name, @slug, @description, @tags, @location_type, @lng, @lat, @address, @photo)
		RETURNING ` + storeColumns

	row := r.db.QueryRow(ctx, q, storeArgs(store))
	result, err := scanStore(row)
	if err != nil {
		return domain.Store{}, fmt.Errorf("repo.StoreRepo.Create: %w", mapPgError(err))
	}
	return result, nil
}

// GetByID retrieves a store by primary key.
func (r *pgStoreRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Store, error) {
	q := `SELECT ` + storeColumns + ` FROM stores WHERE id = @id`

	result, err := scanStore(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Store{}, fmt.Errorf("repo.StoreRepo.GetByID: %w", mapPgError(err))
	}
	return result, nil
}

// GetBySlug retrieves a store by its unique slug.
func (r *pgStoreRepo) GetBySlug(ctx context.Context, slug string) (domain.Store, error) {
	q := `SELECT ` + storeColumns + ` FROM stores WHERE slug = @slug`

	result, err := scanStore(r.db.QueryRow(ctx, q, pgx.NamedArgs{"slug": slug}))
	if err != nil {
		return domain.Store{}, fmt.Errorf("repo.StoreRepo.GetBySlug: %w", mapPgError(err))
	}
	return result, nil
}

// ListPaged returns stores newest first. id breaks created_at ties so pages
// are stable.
func (r *pgStoreRepo) ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Store, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM stores`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.StoreRepo.ListPaged: count: %w", err)
	}

	q := `SELECT ` + storeColumns + `
		FROM stores
		ORDER BY created_at DESC, id
		LIMIT @limit OFFSET @offset`

	stores, err := r.queryStores(ctx, q, pgx.NamedArgs{"limit": p.Limit, "offset": p.Offset()})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.StoreRepo.ListPaged: %w", err)
	}
	return stores, total, nil
}

// ListByTag returns stores carrying tag, or every tagged store when tag is "".
func (r *pgStoreRepo) ListByTag(ctx context.Context, tag string) ([]domain.Store, error) {
	q := `SELECT ` + storeColumns + `
		FROM stores
		WHERE (@tag = '' AND cardinality(tags) > 0)
		   OR (@tag <> '' AND tags @> ARRAY[@tag]::text[])
		ORDER BY name, id`

	stores, err := r.queryStores(ctx, q, pgx.NamedArgs{"tag": tag})
	if err != nil {
		return nil, fmt.Errorf("repo.StoreRepo.ListByTag: %w", err)
	}
	return stores, nil
}

// Update overwrites the mutable fields of a store and returns the updated record.
func (r *pgStoreRepo) Update(ctx context.Context, store domain.Store) (domain.Store, error) {
	const q = `
		UPDATE stores
		SET name          = @name,
		    slug          = @slug,
		    description   = @description,
		    tags          = @tags,
		    location_type = @location_type,
		    lng           = @lng,
		    lat           = @lat,
		    address       = @address,
		    photo         = @photo,
		    updated_at    = now()
		WHERE id = @id
		RETURNING ` + storeColumns

	args := storeArgs(store)
	args["id"] = store.ID

	result, err := scanStore(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Store{}, fmt.Errorf("repo.StoreRepo.Update: %w", mapPgError(err))
	}
	return result, nil
}

// AggregateTagCounts unnests every store's tags and counts each label.
func (r *pgStoreRepo) AggregateTagCounts(ctx context.Context) ([]domain.TagCount, error) {
	const q = `
		SELECT tag, count(*) AS count
		FROM stores, unnest(tags) AS tag
		GROUP BY tag
		ORDER BY count DESC, tag`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.StoreRepo.AggregateTagCounts: %w", err)
	}
	defer rows.Close()

	counts := []domain.TagCount{}
	for rows.Next() {
		var tc domain.TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, fmt.Errorf("repo.StoreRepo.AggregateTagCounts: scan: %w", err)
		}
		counts = append(counts, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.StoreRepo.AggregateTagCounts: rows: %w", err)
	}
	return counts, nil
}

func (r *pgStoreRepo) queryStores(ctx context.Context, q string, args pgx.NamedArgs) ([]domain.Store, error) {
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stores := []domain.Store{}
	for rows.Next() {
		s, err := scanStore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		stores = append(stores, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return stores, nil
}

// storeArgs builds the named arguments shared by Create and Update.
// Tags are never sent as NULL: a nil slice becomes an empty array.
func storeArgs(s domain.Store) pgx.NamedArgs {
	tags := s.Tags
	if tags == nil {
		tags = []string{}
	}
	locType := s.Location.Type
	if locType == "" {
		locType = domain.PointType
	}
	return pgx.NamedArgs{
		"name":          s.Name,
		"slug":          s.Slug,
		"description":   s.Description,
		"tags":          tags,
		"location_type": locType,
		"lng":           s.Location.Coordinates.Lng,
		"lat":           s.Location.Coordinates.Lat,
		"address":       s.Location.Address,
		"photo":         s.Photo,
	}
}

// scanStore maps a single database row into a domain.Store.
// pgx.ErrNoRows is returned as is; callers pass it through mapPgError.
func scanStore(s scanner) (domain.Store, error) {
	var (
		st domain.Store
		id pgtype.UUID
	)
	err := s.Scan(
		&id, &st.Name, &st.Slug, &st.Description, &st.Tags,
		&st.Location.Type, &st.Location.Coordinates.Lng, &st.Location.Coordinates.Lat, &st.Location.Address,
		&st.Photo, &st.Created, &st.UpdatedAt,
	)
	if err != nil {
		return domain.Store{}, err
	}
	st.ID = uuid.UUID(id.Bytes)
	if st.Tags == nil {
		st.Tags = []string{}
	}
	return st, nil
}
