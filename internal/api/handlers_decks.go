package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/autopages/internal/loader"
	"github.com/dgallion1/autopages/internal/outname"
	"github.com/dgallion1/autopages/internal/pipeline"
	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
)

const defaultOutfile = "output.pptx"

var errTooLarge = errors.New("upload too large")

// deckForm holds the optional switches of a deck request.
type deckForm struct {
	Outfile   string
	Single    bool
	Convert   bool
	Delete    bool
	NoTitles  bool
	FailFast  bool
	StripHTML bool
}

func parseDeckForm(r *http.Request) (deckForm, error) {
	f := deckForm{Outfile: strings.TrimSpace(r.FormValue("outfile"))}
	if f.Outfile == "" {
		f.Outfile = defaultOutfile
	}
	if !filepath.IsLocal(filepath.FromSlash(f.Outfile)) {
		return f, fmt.Errorf("outfile must be a relative path without ..: %q", f.Outfile)
	}
	flags := map[string]*bool{
		"single":     &f.Single,
		"convert":    &f.Convert,
		"delete":     &f.Delete,
		"no_titles":  &f.NoTitles,
		"fail_fast":  &f.FailFast,
		"strip_html": &f.StripHTML,
	}
	for key, dst := range flags {
		v := r.FormValue(key)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, fmt.Errorf("%s: expected a boolean, got %q", key, v)
		}
		*dst = b
	}
	return f, nil
}

func (s *Server) handleCreateDecks(w http.ResponseWriter, r *http.Request) {
	// Two uploads plus form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, 2*s.cfg.MaxUploadBytes+1024*1024)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			jsonError(w, fmt.Sprintf("request exceeds %s", humanize.IBytes(uint64(tooBig.Limit))), http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	dataFH, err := formFile(r, "data")
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	templateFH, err := formFile(r, "template")
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	dataName := sanitizeFilename(dataFH.Filename)
	if !loader.IsSupportedExtension(dataName) {
		jsonError(w, fmt.Sprintf("unsupported data file type: %s", filepath.Ext(dataName)), http.StatusBadRequest)
		return
	}
	templateName := sanitizeFilename(templateFH.Filename)
	if !strings.EqualFold(filepath.Ext(templateName), outname.ExtPPTX) {
		jsonError(w, "template must be a .pptx file", http.StatusBadRequest)
		return
	}
	form, err := parseDeckForm(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	job := pipeline.NewJob(pipeline.Request{})
	dir, err := s.orchestrator.NewWorkspace(job)
	if err != nil {
		s.log.Error("workspace failed", "job_id", job.ID, "error", err)
		jsonError(w, "could not create job workspace", http.StatusInternalServerError)
		return
	}
	inputs := filepath.Join(dir, "in")
	outputs := filepath.Join(dir, "out")
	dataPath := filepath.Join(inputs, dataName)
	templatePath := filepath.Join(inputs, templateName)
	for _, up := range []struct {
		fh   *multipart.FileHeader
		dest string
	}{{dataFH, dataPath}, {templateFH, templatePath}} {
		if err := saveUpload(up.fh, up.dest, s.cfg.MaxUploadBytes); err != nil {
			os.RemoveAll(dir)
			if errors.Is(err, errTooLarge) {
				jsonError(w, fmt.Sprintf("%s exceeds max size (%s)", up.fh.Filename, humanize.IBytes(uint64(s.cfg.MaxUploadBytes))), http.StatusRequestEntityTooLarge)
				return
			}
			s.log.Error("saving upload failed", "job_id", job.ID, "file", up.fh.Filename, "error", err)
			jsonError(w, "failed to store upload", http.StatusInternalServerError)
			return
		}
	}

	job.SetRequest(pipeline.Request{
		DataPath:     dataPath,
		TemplatePath: templatePath,
		Outfile:      filepath.Join(outputs, filepath.FromSlash(form.Outfile)),
		Convert:      form.Convert,
		Delete:       form.Delete,
		Single:       form.Single,
		NoTitles:     form.NoTitles,
		FailFast:     form.FailFast,
		Loader: loader.Options{
			Delimiter:   s.cfg.Delimiter(),
			StripMarkup: s.cfg.StripMarkup || form.StripHTML,
		},
		OutputRoot: outputs,
	})

	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/decks/%s/status", job.ID),
	})
}

// outputView is an Output with paths relative to the job's output directory.
type outputView struct {
	Document int    `json:"document"`
	Deck     string `json:"deck,omitempty"`
	PDF      string `json:"pdf,omitempty"`
	Deleted  bool   `json:"deleted,omitempty"`
	Skipped  bool   `json:"skipped,omitempty"`
	Error    string `json:"error,omitempty"`
}

func (s *Server) handleDeckStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	root := job.Request().OutputRoot

	views := make([]outputView, 0, len(snap.Outputs))
	files := []string{}
	for _, out := range snap.Outputs {
		v := outputView{
			Document: out.Document,
			Deck:     relName(root, out.Deck),
			PDF:      relName(root, out.PDF),
			Deleted:  out.Deleted,
			Skipped:  out.Skipped,
			Error:    out.Error,
		}
		views = append(views, v)
		for _, name := range downloadable(v) {
			files = append(files, fmt.Sprintf("/api/decks/%s/files/%s", snap.ID, name))
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   snap.ID,
		"status":   snap.Status,
		"phase":    snap.Phase,
		"progress": snap.Progress,
		"outputs":  views,
		"files":    files,
	})
}

func (s *Server) handleDeckFile(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	name := chi.URLParam(r, "*")
	root := job.Request().OutputRoot
	if root == "" || !filepath.IsLocal(filepath.FromSlash(name)) || !jobHasFile(job, root, name) {
		jsonError(w, "file not found", http.StatusNotFound)
		return
	}

	path := filepath.Join(root, filepath.FromSlash(name))
	f, err := os.Open(path)
	if err != nil {
		jsonError(w, "file not found", http.StatusNotFound)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		jsonError(w, "file not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// jobHasFile reports whether name is a file the job produced and kept.
func jobHasFile(job *pipeline.Job, root, name string) bool {
	for _, out := range job.Outputs() {
		v := outputView{Deck: relName(root, out.Deck), PDF: relName(root, out.PDF), Deleted: out.Deleted}
		for _, have := range downloadable(v) {
			if have == name {
				return true
			}
		}
	}
	return false
}

func downloadable(v outputView) []string {
	var names []string
	if v.Deck != "" && !v.Deleted {
		names = append(names, v.Deck)
	}
	if v.PDF != "" {
		names = append(names, v.PDF)
	}
	return names
}

// relName returns path relative to root in slash form, or "" when path is
// empty or outside root.
func relName(root, path string) string {
	if path == "" || root == "" {
		return ""
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || !filepath.IsLocal(rel) {
		return ""
	}
	return filepath.ToSlash(rel)
}

func formFile(r *http.Request, key string) (*multipart.FileHeader, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File[key]) == 0 {
		return nil, fmt.Errorf("%s is required", key)
	}
	return r.MultipartForm.File[key][0], nil
}

// saveUpload copies an uploaded file to dest, refusing more than limit bytes.
func saveUpload(fh *multipart.FileHeader, dest string, limit int64) error {
	if fh.Size > limit {
		return errTooLarge
	}
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	if err := os.MkdirAll(filepath.Dir(dest), 0o700); err != nil {
		return err
	}
	dst, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	n, err := io.Copy(dst, io.LimitReader(src, limit+1))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	if n > limit {
		return errTooLarge
	}
	return nil
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
