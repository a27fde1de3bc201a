package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/storefinder/internal/domain"
	"github.com/pkordes/storefinder/internal/handler"
)

// mockTagServicer is a test double for handler.TagServicer.
type mockTagServicer struct {
	tagPage func(ctx context.Context, tag string) (domain.TagPage, error)
}

func (m *mockTagServicer) TagPage(ctx context.Context, tag string) (domain.TagPage, error) {
	return m.tagPage(ctx, tag)
}

// compile-time check
var _ handler.TagServicer = (*mockTagServicer)(nil)

// ---- GET /tags -------------------------------------------------------------

func TestGetTagPage_NoTag(t *testing.T) {
	svc := &mockTagServicer{
		tagPage: func(_ context.Context, tag string) (domain.TagPage, error) {
			assert.Empty(t, tag)
			return domain.TagPage{
				Tags:   []domain.TagCount{{Tag: "Wifi", Count: 2}},
				Stores: []domain.Store{storeFixture()},
			}, nil
		},
	}

	rec := do(newHTTPHandler(nil, svc), httptest.NewRequest(http.MethodGet, "/tags", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp domain.TagPage
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, []domain.TagCount{{Tag: "Wifi", Count: 2}}, resp.Tags)
	assert.Len(t, resp.Stores, 1)
}

func TestGetTagPage_WithTag_Unescaped(t *testing.T) {
	svc := &mockTagServicer{
		tagPage: func(_ context.Context, tag string) (domain.TagPage, error) {
			assert.Equal(t, "Open Late", tag)
			return domain.TagPage{Tag: tag, Tags: []domain.TagCount{}, Stores: []domain.Store{}}, nil
		},
	}

	rec := do(newHTTPHandler(nil, svc), httptest.NewRequest(http.MethodGet, "/tags/Open%20Late", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"tag":"Open Late","tags":[],"stores":[]}`, rec.Body.String())
}

func TestGetTagPage_500(t *testing.T) {
	svc := &mockTagServicer{
		tagPage: func(context.Context, string) (domain.TagPage, error) {
			return domain.TagPage{}, errors.New("db down")
		},
	}

	rec := do(newHTTPHandler(nil, svc), httptest.NewRequest(http.MethodGet, "/tags/Wifi", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", decodeError(t, rec).Code)
}
