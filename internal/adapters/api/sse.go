package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"module/internal/core"
)

// handleSSE streams job updates to a connected client. Clients connect to
// /api/events and receive events until they disconnect or the job manager
// shuts down.
func (s *Server) handleSSE(c echo.Context) error {
	w := c.Response()
	flusher, ok := w.Writer.(http.Flusher)
	if !ok {
		return writeError(c, http.StatusInternalServerError, "sse_not_supported", "streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	clientChan := make(chan core.JobUpdateEvent, 100)
	s.addSSEClient(clientChan)
	defer s.removeSSEClient(clientChan)

	sendSSEEvent(w, "connected", map[string]string{"message": "connected to job event stream"})
	flusher.Flush()

	if active := s.jobManager.GetActiveJob(); active != nil {
		sendSSEEvent(w, "job:snapshot", active)
		flusher.Flush()
	}

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-clientChan:
			if !ok {
				return nil
			}

			eventType := "job:update"
			switch event.State {
			case core.JobSucceeded:
				eventType = "job:completed"
			case core.JobFailed:
				eventType = "job:failed"
			case core.JobCanceled:
				eventType = "job:canceled"
			case core.JobHalted:
				eventType = "job:halted"
			}

			if event.LogLine != "" {
				sendSSEEvent(w, "job:log", map[string]interface{}{
					"jobId":   event.JobID,
					"logLine": event.LogLine,
					"seq":     event.Seq,
				})
				flusher.Flush()
			}

			sendSSEEvent(w, eventType, event)
			flusher.Flush()
		}
	}
}

// sendSSEEvent writes a single SSE frame: event: <type>\ndata: <json>\n\n
func sendSSEEvent(w http.ResponseWriter, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
}
