// Package viewer serves the camera's live view over HTTP.
//
// It implements the liveview Sink interface and exposes the rendered
// frames three ways: a multipart MJPEG stream for browsers, a snapshot
// of the latest frame, and a JSON status endpoint.
package viewer

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/olympuswifi/liveview"
	"github.com/opd-ai/olympuswifi/rtp"
)

// streamBoundary separates frames in the multipart MJPEG stream.
const streamBoundary = "olympusframe"

// clientBufferSize is the per-client frame backlog. A slow client
// skips frames rather than stalling the sink.
const clientBufferSize = 4

// Server is an HTTP liveview display. Register it as the Sink of a
// liveview Consumer and mount Handler on an HTTP server.
type Server struct {
	mu          sync.RWMutex
	sessionID   string
	latest      []byte
	orientation rtp.Orientation
	frames      uint64
	clients     map[string]chan []byte
	title       string
}

// New creates a viewer server. The title is shown in the status
// endpoint, conventionally the camera model.
func New(title string) *Server {
	return &Server{
		sessionID: uuid.NewString(),
		clients:   make(map[string]chan []byte),
		title:     title,
	}
}

// Display implements liveview.Sink. The frame is stored as the latest
// snapshot and fanned out to all connected stream clients.
func (s *Server) Display(f liveview.RenderedFrame) {
	jpeg := make([]byte, len(f.JPEG))
	copy(jpeg, f.JPEG)

	s.mu.Lock()
	s.latest = jpeg
	s.orientation = f.Orientation
	s.frames++
	for id, ch := range s.clients {
		select {
		case ch <- jpeg:
		default:
			logrus.WithFields(logrus.Fields{
				"function": "Server.Display",
				"client":   id,
			}).Debug("Stream client lagging, frame skipped")
		}
	}
	s.mu.Unlock()
}

// Handler returns the HTTP handler serving the viewer routes.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/stream", s.handleStream).Methods(http.MethodGet)
	r.HandleFunc("/frame.jpg", s.handleSnapshot).Methods(http.MethodGet)
	r.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	return r
}

// handleStream serves a multipart/x-mixed-replace MJPEG stream until
// the client disconnects.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	id := uuid.NewString()
	ch := make(chan []byte, clientBufferSize)
	s.mu.Lock()
	s.clients[id] = ch
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "Server.handleStream",
		"client":   id,
		"remote":   r.RemoteAddr,
	}).Info("Stream client connected")

	defer func() {
		s.mu.Lock()
		delete(s.clients, id)
		s.mu.Unlock()
		logrus.WithFields(logrus.Fields{
			"function": "Server.handleStream",
			"client":   id,
		}).Info("Stream client disconnected")
	}()

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+streamBoundary)
	w.WriteHeader(http.StatusOK)
	// Push the headers out now; the first frame may be a long time
	// away and clients block on the response headers.
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case jpeg := <-ch:
			if _, err := fmt.Fprintf(w,
				"--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n",
				streamBoundary, len(jpeg)); err != nil {
				return
			}
			if _, err := w.Write(jpeg); err != nil {
				return
			}
			if _, err := fmt.Fprint(w, "\r\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// handleSnapshot serves the most recent frame.
func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	jpeg := s.latest
	s.mu.RUnlock()

	if jpeg == nil {
		http.Error(w, "no frame received yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	_, _ = w.Write(jpeg)
}

// handleStatus serves viewer statistics.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	status := map[string]interface{}{
		"session":     s.sessionID,
		"title":       s.title,
		"frames":      s.frames,
		"clients":     len(s.clients),
		"orientation": s.orientation.String(),
	}
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(status)
}

// handleIndex serves a minimal page embedding the stream.
func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<!DOCTYPE html><html><head><title>%s</title></head>"+
		"<body style=\"margin:0;background:#000\">"+
		"<img src=\"/stream\" style=\"display:block;margin:auto\">"+
		"</body></html>", s.title)
}
