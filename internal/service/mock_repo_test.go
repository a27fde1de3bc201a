package service_test

import (
	"context"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/storefinder/internal/domain"
	"github.com/pkordes/storefinder/internal/photo"
	"github.com/pkordes/storefinder/internal/repo"
	"github.com/pkordes/storefinder/internal/service"
)

// memStoreRepo is an in-memory repo.StoreRepo. It enforces slug uniqueness
// the way the unique index does and evaluates FindSlugsMatching patterns
// case-insensitively like Postgres ~*, so slug sequences can be tested
// without a database.
//
// The optional hooks run before the matching method and may return an error
// to short-circuit it.
type memStoreRepo struct {
	mu     sync.Mutex
	stores map[uuid.UUID]domain.Store
	clock  time.Time

	beforeCreate func(st domain.Store) error
	beforeUpdate func(st domain.Store) error
	creates      int
	updates      int
}

func newMemStoreRepo() *memStoreRepo {
	return &memStoreRepo{
		stores: map[uuid.UUID]domain.Store{},
		clock:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (m *memStoreRepo) FindSlugsMatching(_ context.Context, pattern string, exclude uuid.UUID) ([]string, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for id, st := range m.stores {
		if id != exclude && re.MatchString(st.Slug) {
			out = append(out, st.Slug)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *memStoreRepo) Create(_ context.Context, st domain.Store) (domain.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if m.beforeCreate != nil {
		if err := m.beforeCreate(st); err != nil {
			return domain.Store{}, err
		}
	}
	if m.slugTaken(st.Slug, uuid.Nil) {
		return domain.Store{}, domain.ErrSlugTaken
	}
	m.clock = m.clock.Add(time.Second)
	st.ID = uuid.New()
	st.Created = m.clock
	st.UpdatedAt = m.clock
	m.stores[st.ID] = st
	return st, nil
}

func (m *memStoreRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.stores[id]
	if !ok {
		return domain.Store{}, domain.ErrNotFound
	}
	return st, nil
}

func (m *memStoreRepo) GetBySlug(_ context.Context, slug string) (domain.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, st := range m.stores {
		if st.Slug == slug {
			return st, nil
		}
	}
	return domain.Store{}, domain.ErrNotFound
}

func (m *memStoreRepo) ListPaged(_ context.Context, p domain.PaginationParams) ([]domain.Store, int64, error) {
	all := m.sorted(func(a, b domain.Store) bool { return a.Created.After(b.Created) })
	total := int64(len(all))
	start := min(p.Offset(), len(all))
	end := min(start+p.Limit, len(all))
	return all[start:end], total, nil
}

func (m *memStoreRepo) ListByTag(_ context.Context, tag string) ([]domain.Store, error) {
	var out []domain.Store
	for _, st := range m.sorted(func(a, b domain.Store) bool { return a.Name < b.Name }) {
		for _, t := range st.Tags {
			if tag == "" || t == tag {
				out = append(out, st)
				break
			}
		}
	}
	return out, nil
}

func (m *memStoreRepo) Update(_ context.Context, st domain.Store) (domain.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates++
	if m.beforeUpdate != nil {
		if err := m.beforeUpdate(st); err != nil {
			return domain.Store{}, err
		}
	}
	if _, ok := m.stores[st.ID]; !ok {
		return domain.Store{}, domain.ErrNotFound
	}
	if m.slugTaken(st.Slug, st.ID) {
		return domain.Store{}, domain.ErrSlugTaken
	}
	m.clock = m.clock.Add(time.Second)
	st.UpdatedAt = m.clock
	m.stores[st.ID] = st
	return st, nil
}

func (m *memStoreRepo) AggregateTagCounts(_ context.Context) ([]domain.TagCount, error) {
	m.mu.Lock()
	counts := map[string]int{}
	for _, st := range m.stores {
		for _, t := range st.Tags {
			counts[t]++
		}
	}
	m.mu.Unlock()

	out := make([]domain.TagCount, 0, len(counts))
	for tag, n := range counts {
		out = append(out, domain.TagCount{Tag: tag, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	return out, nil
}

func (m *memStoreRepo) slugTaken(slug string, self uuid.UUID) bool {
	for id, st := range m.stores {
		if id != self && st.Slug == slug {
			return true
		}
	}
	return false
}

func (m *memStoreRepo) sorted(less func(a, b domain.Store) bool) []domain.Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Store, 0, len(m.stores))
	for _, st := range m.stores {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// compile-time check
var _ repo.StoreRepo = (*memStoreRepo)(nil)

// ---- mock PhotoTranscoder ---------------------------------------------------

// mockTranscoder is a hand-written test double for service.PhotoTranscoder.
// A nil transcode func succeeds with a fixed 800x600 result.
type mockTranscoder struct {
	transcode func(ctx context.Context, up domain.Upload) (photo.Result, error)
	calls     int
}

func (m *mockTranscoder) Transcode(ctx context.Context, up domain.Upload) (photo.Result, error) {
	m.calls++
	if m.transcode == nil {
		return photo.Result{Filename: "photo.jpeg", Width: 800, Height: 600, Size: 1024}, nil
	}
	return m.transcode(ctx, up)
}

var _ service.PhotoTranscoder = (*mockTranscoder)(nil)
