// Package server exposes the stamping pipeline over HTTP.
package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	signatureengine "github.com/prathamesonar/signature-engine"
	"github.com/prathamesonar/signature-engine/fields"
	"github.com/prathamesonar/signature-engine/store"
)

// DefaultBodyLimit caps request bodies at 50 MiB.
const DefaultBodyLimit = 50 << 20

// OutputFileName is the attachment name of stamped documents.
const OutputFileName = "signed_document.pdf"

// Response headers carrying integrity data.
const (
	HeaderOriginalHash = "X-Original-Hash"
	HeaderFinalHash    = "X-Final-Hash"
	HeaderRecordID     = "X-Record-ID"
	HeaderSeal         = "X-Document-Seal"
)

// SignRequest is the body of POST /sign-pdf. Keys the editor sends besides
// these are ignored.
type SignRequest struct {
	Signature string             `json:"signature"`
	Fields    []fields.Placement `json:"fields"`
}

// Stamper runs stamping requests.
type Stamper interface {
	Stamp(ctx context.Context, req signatureengine.Request) (*signatureengine.Result, error)
}

// Options configures a Server.
type Options struct {
	BodyLimit      int64
	AllowedOrigins []string
	Logger         *slog.Logger
	// Records serves GET /records/{id} when set.
	Records store.Store
}

// Server routes HTTP requests to the stamper.
type Server struct {
	stamper Stamper
	opts    Options
	logger  *slog.Logger
	router  chi.Router
}

// New builds a server and its routes.
func New(stamper Stamper, opts Options) *Server {
	if opts.BodyLimit <= 0 {
		opts.BodyLimit = DefaultBodyLimit
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{stamper: stamper, opts: opts, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors(opts.AllowedOrigins))

	r.Get("/health", s.handleHealth)
	r.Post("/sign-pdf", s.handleSign)
	r.Get("/records/{id}", s.handleRecord)

	s.router = r
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSign(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.BodyLimit)

	var req SignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	s.logger.InfoContext(r.Context(), "received sign request", "fields", len(req.Fields),
		"request_id", middleware.GetReqID(r.Context()))

	res, err := s.stamper.Stamp(r.Context(), signatureengine.Request{
		Signature: req.Signature,
		Fields:    req.Fields,
	})
	if err != nil {
		status, msg := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.ErrorContext(r.Context(), "sign request failed", "error", err)
		}
		writeError(w, status, msg)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "application/pdf")
	h.Set("Content-Disposition", `attachment; filename="`+OutputFileName+`"`)
	h.Set("Content-Length", strconv.Itoa(len(res.Bytes)))
	h.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	h.Set(HeaderOriginalHash, res.OriginalHash)
	h.Set(HeaderFinalHash, res.FinalHash)
	h.Set(HeaderRecordID, res.Record.ID)
	if len(res.Record.Seal) > 0 {
		h.Set(HeaderSeal, base64.StdEncoding.EncodeToString(res.Record.Seal))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.Bytes); err != nil {
		s.logger.WarnContext(r.Context(), "failed to write response", "error", err)
	}
}

func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	if s.opts.Records == nil {
		writeError(w, http.StatusNotFound, "records are not stored")
		return
	}
	rec, err := s.opts.Records.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.logger.ErrorContext(r.Context(), "record lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// statusFor maps pipeline errors onto an HTTP status and client message.
func statusFor(err error) (int, string) {
	var (
		validation *signatureengine.ValidationError
		notFound   *signatureengine.NotFoundError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, validation.Msg
	case errors.As(err, &notFound):
		return http.StatusBadRequest, notFound.Msg
	case errors.Is(err, context.Canceled):
		// nginx convention for a client that went away
		return 499, err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// RunConfig holds listener settings for Run.
type RunConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Run serves until ctx is cancelled and then shuts down gracefully.
func (s *Server) Run(ctx context.Context, cfg RunConfig) error {
	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	s.logger.Info("listening", "addr", cfg.Addr)

	errChan := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down")
	return httpServer.Shutdown(shutdownCtx)
}
