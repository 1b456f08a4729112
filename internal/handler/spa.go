// Package handler contains the HTTP request handlers for the auth server.
//
// Handlers parse requests, delegate to the service layer, and shape
// responses — no business rules live here.
package handler

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// SPAHandler serves the built client bundle in production: static assets
// from the dist directory, and index.html for every other path so the
// SPA's client-side router owns deep links like /reset-password/abc.
type SPAHandler struct {
	distDir string
	logger  *slog.Logger
}

// NewSPAHandler creates an SPAHandler over the client build output.
func NewSPAHandler(distDir string, logger *slog.Logger) *SPAHandler {
	return &SPAHandler{distDir: distDir, logger: logger}
}

// ServeHTTP serves the requested file when it exists, index.html otherwise.
func (h *SPAHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Resolve inside distDir only; filepath.Clean strips any ".." the
	// request path smuggled in.
	rel := filepath.Clean("/" + r.URL.Path)
	path := filepath.Join(h.distDir, rel)
	if !strings.HasPrefix(path, filepath.Clean(h.distDir)) {
		http.NotFound(w, r)
		return
	}

	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		http.ServeFile(w, r, path)
		return
	}

	http.ServeFile(w, r, filepath.Join(h.distDir, "index.html"))
}
