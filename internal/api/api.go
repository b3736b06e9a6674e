// Package api exposes the nesting engine over HTTP.
//
// Routes:
//
//	POST   /api/nesting/nest         submit a packing request
//	GET    /api/nesting/jobs/{jobID} poll an asynchronous job
//	DELETE /api/nesting/jobs/{jobID} cancel an asynchronous job
//	GET    /healthz                  liveness probe
//
// Small requests return the packed result inline with 200; large ones
// return 202 with a job handle to poll.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/alexkibler/sticker-nester/internal/config"
	"github.com/alexkibler/sticker-nester/pkg/errors"
	"github.com/alexkibler/sticker-nester/pkg/job"
	"github.com/alexkibler/sticker-nester/pkg/nest"
)

// Server holds the API's dependencies.
type Server struct {
	ctrl     *job.Controller
	defaults config.EngineConfig
	logger   *log.Logger
}

// NewServer creates an API server backed by the given job controller.
func NewServer(ctrl *job.Controller, defaults config.EngineConfig, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{ctrl: ctrl, defaults: defaults, logger: logger}
}

// Router builds the chi router with all API routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Route("/api/nesting", func(r chi.Router) {
		r.Post("/nest", s.handleNest)
		r.Get("/jobs/{jobID}", s.handleJobPoll)
		r.Delete("/jobs/{jobID}", s.handleJobCancel)
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return r
}

// nestRequest is the wire shape of a packing request. Parts arrive under
// "stickers"; engine parameters keep their request-level names.
type nestRequest struct {
	Stickers []nest.Part `json:"stickers"`

	SheetWidth  float64  `json:"sheetWidth"`
	SheetHeight float64  `json:"sheetHeight"`
	Spacing     *float64 `json:"spacing,omitempty"`

	Rotations    []float64 `json:"rotations,omitempty"`
	CellsPerInch float64   `json:"cellsPerInch,omitempty"`
	StepSize     float64   `json:"stepSize,omitempty"`

	PackAllItems bool `json:"packAllItems,omitempty"`
	SheetCount   int  `json:"sheetCount,omitempty"`
}

// options maps the request onto engine options, filling omitted fields
// from the server's configured defaults. A present-but-zero spacing is
// honored; only an absent one gets the default.
func (req *nestRequest) options(defaults config.EngineConfig, logger *log.Logger) nest.Options {
	opts := nest.Options{
		Parts:        req.Stickers,
		SheetWidth:   req.SheetWidth,
		SheetHeight:  req.SheetHeight,
		Rotations:    req.Rotations,
		CellsPerUnit: req.CellsPerInch,
		StepSize:     req.StepSize,
		PackAllItems: req.PackAllItems,
		SheetCount:   req.SheetCount,
		Logger:       logger,
	}
	if req.Spacing != nil {
		opts.Spacing = *req.Spacing
	} else {
		opts.Spacing = defaults.Spacing
	}
	if opts.CellsPerUnit == 0 {
		opts.CellsPerUnit = defaults.CellsPerUnit
	}
	if opts.StepSize == 0 {
		opts.StepSize = defaults.StepSize
	}
	return opts
}

func (s *Server) handleNest(w http.ResponseWriter, r *http.Request) {
	var req nestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidRequest, err, "malformed request body"))
		return
	}
	if len(req.Stickers) == 0 {
		writeError(w, errors.New(errors.ErrCodeInvalidRequest, "request contains no stickers"))
		return
	}

	sub, err := s.ctrl.Submit(r.Context(), req.options(s.defaults, s.logger))
	if err != nil {
		writeError(w, err)
		return
	}

	if sub.Async {
		writeJSON(w, http.StatusAccepted, map[string]string{"jobId": sub.JobID})
		return
	}
	writeJSON(w, http.StatusOK, sub.Result)
}

func (s *Server) handleJobPoll(w http.ResponseWriter, r *http.Request) {
	j, err := s.ctrl.Poll(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, j)
}

func (s *Server) handleJobCancel(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if err := s.ctrl.Cancel(r.Context(), jobID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"jobId": jobID, "status": "cancelling"})
}

// errorPayload is the uniform error body.
type errorPayload struct {
	Error struct {
		Code    errors.Code `json:"code"`
		Message string      `json:"message"`
	} `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	var payload errorPayload
	payload.Error.Code = errors.GetCode(err)
	if payload.Error.Code == "" {
		payload.Error.Code = errors.ErrCodeInternal
	}
	payload.Error.Message = errors.UserMessage(err)
	writeJSON(w, statusForCode(payload.Error.Code), payload)
}

func statusForCode(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidConfig, errors.ErrCodeInvalidGeometry, errors.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case errors.ErrCodeJobNotFound:
		return http.StatusNotFound
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeCancelled:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// logRequests logs one line per request with method, path, status, and
// duration.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Microsecond),
			"reqID", middleware.GetReqID(r.Context()))
	})
}
