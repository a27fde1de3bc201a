package handler

import (
	"net/http"
	"strings"
)

// UploadsHandler serves transcoded photos from dir. Mount it with the
// prefix already stripped. Directory listings are not served.
func UploadsHandler(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			notFound(w, "file not found")
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
		files.ServeHTTP(w, r)
	})
}
