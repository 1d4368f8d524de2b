package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dgallion1/autopages/internal/analyse"
	"github.com/dgallion1/autopages/internal/deck"
	"github.com/dustin/go-humanize"
)

// handleInspectTemplate reports the layouts of an uploaded template.
func (s *Server) handleInspectTemplate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	fh, err := formFile(r, "template")
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	f, err := fh.Open()
	if err != nil {
		jsonError(w, "failed to open template", http.StatusBadRequest)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read template", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("template exceeds max size (%s)", humanize.IBytes(uint64(s.cfg.MaxUploadBytes))), http.StatusRequestEntityTooLarge)
		return
	}

	name := sanitizeFilename(fh.Filename)
	d, err := deck.Read(data, name)
	if err != nil {
		var tle *deck.TemplateLoadError
		if errors.As(err, &tle) {
			jsonError(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"template": name,
		"layouts":  analyse.Inspect(d),
	})
}
