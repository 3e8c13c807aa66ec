package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jonathan/knapsack-search/internal/pipeline"
)

// Tournament stream event names
const (
	eventProgress = "progress"
	eventError    = "error"
	eventComplete = "complete"
)

// eventStream writes tournament progress as server-sent events. Each event
// carries an increasing id so clients can tell how far they got.
type eventStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	nextID  int
}

func newEventStream(w http.ResponseWriter) (*eventStream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &eventStream{w: w, flusher: flusher}, nil
}

func (s *eventStream) send(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event, err)
	}
	s.nextID++
	if _, err := fmt.Fprintf(s.w, "id: %d\nevent: %s\ndata: %s\n\n", s.nextID, event, payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

func (s *eventStream) progress(event pipeline.ProgressEvent) error {
	return s.send(eventProgress, event)
}

func (s *eventStream) fail(err error) error {
	return s.send(eventError, map[string]string{"error": err.Error()})
}

func (s *eventStream) complete(summary *pipeline.Summary) error {
	return s.send(eventComplete, summary)
}
