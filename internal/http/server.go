// Package http exposes the ledger engine as an SMS/WhatsApp webhook that
// answers with TwiML, and serves the rendered chart images.
package http

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"textledger/internal/engine"
	"textledger/internal/log"
)

const (
	maxFormBytes    = 16 << 10
	handlerTimeout  = 15 * time.Second
	requestIDHeader = "X-Request-ID"

	rateLimitedText = "You're sending messages too quickly. Wait a minute and try again."
)

// MessageHandler answers one inbound message.
type MessageHandler interface {
	Handle(ctx context.Context, msg engine.Message) engine.Reply
}

// Options configures NewServer. Zero values disable the related feature.
type Options struct {
	ChartDir           string
	RateLimitPerMinute int
	Logger             *log.Logger
	// Ready reports whether dependencies are usable; nil means always ready.
	Ready func(ctx context.Context) error
}

type Server struct {
	http.Server
	handler     MessageHandler
	logger      *log.Logger
	rateLimiter *rateLimiter
	ready       func(ctx context.Context) error
}

// NewServer configures routes and returns a ready-to-run server.
func NewServer(addr string, h MessageHandler, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		handler:     h,
		logger:      logger,
		rateLimiter: newRateLimiter(opts.RateLimitPerMinute),
		ready:       opts.Ready,
	}

	mux.HandleFunc("/sms", s.handleSMS)
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	if opts.ChartDir != "" {
		mux.Handle("/static/", staticCharts(opts.ChartDir))
	}

	s.Handler = s.withRequestID(log.RequestIDMiddleware(logger, func(r *http.Request) string {
		return r.Header.Get(requestIDHeader)
	})(s.withLogging(mux)))
	return s
}

// Shutdown stops background work and gracefully closes the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.rateLimiter.stop()
	return s.Server.Shutdown(ctx)
}

func (s *Server) handleSMS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	logger := log.FromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		logger.WarnContext(r.Context(), "Invalid webhook form", log.FieldError, err)
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	from := normalizeSender(r.Form.Get("From"))
	if from == "" {
		http.Error(w, "missing From", http.StatusBadRequest)
		return
	}
	body := r.Form.Get("Body")

	if !s.rateLimiter.allow(from) {
		logger.WarnContext(r.Context(), "Rate limit exceeded", log.FieldSender, from)
		if err := writeTwiML(w, rateLimitedText, ""); err != nil {
			logger.ErrorContext(r.Context(), "Failed to write reply", log.FieldError, err)
		}
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	reply := s.handler.Handle(ctx, engine.Message{From: from, Body: body})
	if err := writeTwiML(w, reply.Text, reply.Media); err != nil {
		logger.ErrorContext(ctx, "Failed to write reply", log.FieldError, err)
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// staticCharts serves image files from dir without directory listings.
// Charts are overwritten on every report, so clients must revalidate.
func staticCharts(dir string) http.Handler {
	files := http.StripPrefix("/static/", http.FileServer(http.FS(os.DirFS(dir))))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if strings.HasSuffix(r.URL.Path, "/") || !strings.HasSuffix(r.URL.Path, ".png") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "no-cache")
		files.ServeHTTP(w, r)
	})
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
			r.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		setSecurityHeaders(w.Header())

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		log.FromContext(r.Context()).InfoContext(r.Context(), "Request completed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, time.Since(start).Milliseconds(),
			"client_ip", extractClientIP(r))
	})
}

// responseWriter captures the status code for logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
