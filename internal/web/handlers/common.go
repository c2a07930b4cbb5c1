// Package handlers implements the HTTP API endpoints.
package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxUploadSize bounds multipart uploads; a single enrollment photo or
// camera frame never legitimately exceeds this.
const maxUploadSize = 20 << 20 // 20 MiB

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// readImageUpload pulls the named file out of a multipart form. The
// boolean reports whether a usable image was read; on false an error
// response was already written.
func readImageUpload(w http.ResponseWriter, r *http.Request, field string) ([]byte, bool) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return nil, false
	}

	file, _, err := r.FormFile(field)
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("%s file is required", field))
		return nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read uploaded file")
		return nil, false
	}
	if len(data) == 0 {
		respondError(w, http.StatusBadRequest, "uploaded file is empty")
		return nil, false
	}
	return data, true
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
