package web

import (
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"os"

	"github.com/vitrio/glasses-match/internal/catalog"
)

// maxUploadBytes bounds the total multipart payload.
const maxUploadBytes = 32 << 20

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCatalog lists the reference catalog filenames.
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	refs := catalog.List(s.config.Catalog.Dir)
	if refs == nil {
		refs = []string{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"count":     len(refs),
		"filenames": refs,
	})
}

// handleMatch runs the full pipeline on the uploaded images and returns a
// single result document. The pipeline itself never errors: bad uploads that
// decode to zero images surface as a validation rejection, and deeper
// failures degrade through the matcher's fallback chain.
func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	var images []image.Image
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["images"] {
			file, err := header.Open()
			if err != nil {
				fmt.Fprintf(os.Stderr, "error opening upload %s: %v\n", header.Filename, err)
				continue
			}
			img, _, err := image.Decode(file)
			_ = file.Close()
			if err != nil {
				fmt.Fprintf(os.Stderr, "error decoding upload %s: %v\n", header.Filename, err)
				continue
			}
			images = append(images, img)
		}
	}

	result := s.matcher.MatchImages(r.Context(), images)
	respondJSON(w, http.StatusOK, result)
}
