package handler

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkordes/storefinder/internal/domain"
)

// multipartMemory is how much of a multipart body is held in memory before
// file parts spill to temporary files. The overall body size is capped by
// the MaxBodySize middleware, not here.
const multipartMemory = 8 << 20

// Pagination is the paging block of a list response.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// StoreList is the body of GET /stores.
type StoreList struct {
	Data       []domain.Store `json:"data"`
	Pagination Pagination     `json:"pagination"`
}

// CreateStore handles POST /stores.
// The body is multipart/form-data; the optional file part "photo" goes
// through the upload pipeline before the store is written.
func (s *Server) CreateStore(w http.ResponseWriter, r *http.Request) {
	form, err := parseStoreForm(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer form.cleanup()

	in, err := form.input()
	if err != nil {
		writeError(w, r, err)
		return
	}
	up, closeUpload, err := form.upload()
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer closeUpload()

	created, err := s.stores.Create(r.Context(), in, up)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// ListStores handles GET /stores.
// Supports ?page= and ?limit= query parameters (defaults: page=1, limit=20, max=100).
func (s *Server) ListStores(w http.ResponseWriter, r *http.Request) {
	qp, err := bindListStoresParams(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	params := domain.NewPaginationParams(qp.Page, qp.Limit)
	stores, total, err := s.stores.ListPaged(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, StoreList{
		Data: stores,
		Pagination: Pagination{
			Page:  params.Page,
			Limit: params.Limit,
			Total: int(total),
		},
	})
}

// GetStore handles GET /stores/{id}.
func (s *Server) GetStore(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	store, err := s.stores.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, store)
}

// GetStoreBySlug handles GET /stores/slug/{slug}.
func (s *Server) GetStoreBySlug(w http.ResponseWriter, r *http.Request) {
	slug, err := pathString(r, "slug")
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	store, err := s.stores.GetBySlug(r.Context(), slug)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, store)
}

// UpdateStore handles PUT /stores/{id}.
// Only the form fields present in the request are changed. A new "photo"
// replaces the current one.
func (s *Server) UpdateStore(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	form, err := parseStoreForm(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer form.cleanup()

	patch, err := form.patch()
	if err != nil {
		writeError(w, r, err)
		return
	}
	up, closeUpload, err := form.upload()
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer closeUpload()

	updated, err := s.stores.Update(r.Context(), id, patch, up)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// --- form mapping -----------------------------------------------------------

// storeForm is a parsed multipart store submission.
type storeForm struct {
	mf *multipart.Form
}

// parseStoreForm parses a multipart/form-data body. A body over the size cap
// surfaces as *http.MaxBytesError; any other parse failure is reported as a
// validation error on the body itself.
func parseStoreForm(r *http.Request) (storeForm, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return storeForm{}, err
		}
		return storeForm{}, domain.NewValidationError("body", "request body must be multipart/form-data")
	}
	return storeForm{mf: r.MultipartForm}, nil
}

func (f storeForm) cleanup() {
	if f.mf != nil {
		_ = f.mf.RemoveAll()
	}
}

// text returns the first value of key and whether the key was sent at all.
func (f storeForm) text(key string) (string, bool) {
	vs, ok := f.mf.Value[key]
	if !ok || len(vs) == 0 {
		return "", ok
	}
	return vs[0], true
}

// tags returns every "tags" value, each split on commas, so both
// tags=a&tags=b and tags=a,b are accepted. Cleaning is left to the service.
func (f storeForm) tags() ([]string, bool) {
	vs, ok := f.mf.Value["tags"]
	if !ok {
		return nil, false
	}
	var out []string
	for _, v := range vs {
		out = append(out, strings.Split(v, ",")...)
	}
	return out, true
}

// point parses lng/lat. It returns nil when neither is sent, and a
// validation error when only one is sent or either is not a number.
func (f storeForm) point() (*domain.Point, error) {
	lngRaw, hasLng := f.text("lng")
	latRaw, hasLat := f.text("lat")
	lngRaw, latRaw = strings.TrimSpace(lngRaw), strings.TrimSpace(latRaw)
	if lngRaw == "" && latRaw == "" {
		return nil, nil
	}
	if !hasLng || !hasLat || lngRaw == "" || latRaw == "" {
		return nil, domain.NewValidationError("location.coordinates", domain.ReasonCoordinatesRequired)
	}
	lng, err := strconv.ParseFloat(lngRaw, 64)
	if err != nil {
		return nil, domain.NewValidationError("location.coordinates", fmt.Sprintf("lng %q is not a number", lngRaw))
	}
	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil {
		return nil, domain.NewValidationError("location.coordinates", fmt.Sprintf("lat %q is not a number", latRaw))
	}
	return &domain.Point{Lng: lng, Lat: lat}, nil
}

// input maps the form onto a create request.
func (f storeForm) input() (domain.StoreInput, error) {
	pt, err := f.point()
	if err != nil {
		return domain.StoreInput{}, err
	}
	name, _ := f.text("name")
	description, _ := f.text("description")
	address, _ := f.text("address")
	tags, _ := f.tags()
	return domain.StoreInput{
		Name:        name,
		Description: description,
		Tags:        tags,
		Address:     address,
		Coordinates: pt,
	}, nil
}

// patch maps the form onto an update; absent keys stay nil.
func (f storeForm) patch() (domain.StorePatch, error) {
	pt, err := f.point()
	if err != nil {
		return domain.StorePatch{}, err
	}
	p := domain.StorePatch{Coordinates: pt}
	if v, ok := f.text("name"); ok {
		p.Name = &v
	}
	if v, ok := f.text("description"); ok {
		p.Description = &v
	}
	if v, ok := f.text("address"); ok {
		p.Address = &v
	}
	if v, ok := f.tags(); ok {
		p.Tags = &v
	}
	return p, nil
}

// upload opens the "photo" file part. It returns a nil Upload when no file
// was sent, or when the part is empty (a browser form submitted with no file
// selected). The returned func closes the file and is always safe to call.
func (f storeForm) upload() (*domain.Upload, func(), error) {
	noop := func() {}
	files := f.mf.File["photo"]
	if len(files) == 0 {
		return nil, noop, nil
	}
	fh := files[0]
	if fh.Size == 0 && fh.Filename == "" {
		return nil, noop, nil
	}
	file, err := fh.Open()
	if err != nil {
		return nil, noop, fmt.Errorf("handler.storeForm.upload: %w", err)
	}
	return &domain.Upload{
		Filename:  fh.Filename,
		MediaType: fh.Header.Get("Content-Type"),
		Body:      file,
	}, func() { _ = file.Close() }, nil
}
