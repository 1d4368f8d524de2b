package api

import (
	"encoding/json"
	"net/http"

	"github.com/dustin/go-humanize"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]any{
		"jobs":        s.orchestrator.JobCount(),
		"queue_depth": s.orchestrator.QueueDepth(),
		"workers":     s.orchestrator.Workers(),
		"max_upload":  humanize.IBytes(uint64(s.cfg.MaxUploadBytes)),
	}
	if s.converter != nil {
		stats["conversions"] = s.converter.Stats()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(stats)
}
