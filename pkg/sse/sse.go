// Package sse writes Server-Sent Events frames.
//
//	stream, err := sse.New(w)
//	if err != nil { ... }
//	stream.Send("notification", payload)
//	stream.Comment("ping")
package sse

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrUnsupported is returned by New when w cannot flush.
var ErrUnsupported = errors.New("sse: streaming not supported")

// Stream is one open event stream. It is owned by the handler goroutine.
type Stream struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

// New writes the event-stream headers and clears the server write deadline
// so the stream can outlive http.Server.WriteTimeout.
func New(w http.ResponseWriter) (*Stream, error) {
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return nil, err
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no") // nginx
	w.WriteHeader(http.StatusOK)

	if err := rc.Flush(); err != nil {
		return nil, ErrUnsupported
	}
	return &Stream{w: w, rc: rc}, nil
}

// Send writes a named event. data must be a single line (compact JSON).
func (s *Stream) Send(event string, data []byte) error {
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	return s.rc.Flush()
}

// Comment writes a comment line, used as a keepalive.
func (s *Stream) Comment(msg string) error {
	if _, err := fmt.Fprintf(s.w, ": %s\n\n", msg); err != nil {
		return err
	}
	return s.rc.Flush()
}
