package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const activityPollInterval = 2 * time.Second

// handleActivityStream pushes journal entries to the browser over SSE.
func (s *Server) handleActivityStream(w http.ResponseWriter, r *http.Request) {
	if s.deps.Activity == nil {
		http.Error(w, "activity journal not available", http.StatusServiceUnavailable)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// comment heartbeat keeps proxies from dropping the connection
	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	pollTicker := time.NewTicker(activityPollInterval)
	defer pollTicker.Stop()

	lastIndex := uint64(0)
	send := func() error {
		records, err := s.deps.Activity.EntriesAfter(lastIndex)
		if err != nil {
			return err
		}
		for _, record := range records {
			payload, err := json.Marshal(record.Entry)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return err
			}
			lastIndex = record.Index
		}
		if len(records) > 0 {
			flusher.Flush()
		}
		return nil
	}

	if err := send(); err != nil {
		s.logger.Warn("activity stream send failed", zap.Error(err))
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case <-pollTicker.C:
			if err := send(); err != nil {
				s.logger.Warn("activity stream send failed", zap.Error(err))
				return
			}
		}
	}
}
