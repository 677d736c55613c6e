package handlers

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// SPAHandler serves the built front-end. Paths that do not name a file fall
// back to index.html so client-side routes survive a reload.
type SPAHandler struct {
	Dir string
}

// ServeHTTP implements http.Handler.
func (h SPAHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	name := path.Clean("/" + r.URL.Path)
	if strings.HasPrefix(name, "/api/") || name == "/api" {
		respondMessage(r.Context(), w, http.StatusNotFound, "endpoint not found")
		return
	}

	full := filepath.Join(h.Dir, filepath.FromSlash(name))
	if info, err := os.Stat(full); err == nil && !info.IsDir() {
		http.ServeFile(w, r, full)
		return
	}

	index := filepath.Join(h.Dir, "index.html")
	if _, err := os.Stat(index); err != nil {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, index)
}
