package handler

import "net/http"

// GetTagPage handles GET /tags and GET /tags/{tag}.
// It returns the tag cloud with counts and the stores carrying tag. Without
// a tag, every tagged store is listed. An unknown tag is not an error; it
// simply lists no stores.
func (s *Server) GetTagPage(w http.ResponseWriter, r *http.Request) {
	tag, err := pathString(r, "tag")
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	page, err := s.tags.TagPage(r.Context(), tag)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}
