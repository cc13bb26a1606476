// Package httpapi exposes the translate, preview and batch operations
// over HTTP, plus health and metrics endpoints.
package httpapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/zenitsu0509/bharatwork-tts-backend/internal/assemble"
	"github.com/zenitsu0509/bharatwork-tts-backend/internal/batch"
	"github.com/zenitsu0509/bharatwork-tts-backend/internal/config"
	"github.com/zenitsu0509/bharatwork-tts-backend/internal/fault"
	"github.com/zenitsu0509/bharatwork-tts-backend/internal/protocol"
	"github.com/zenitsu0509/bharatwork-tts-backend/internal/records"
	"github.com/zenitsu0509/bharatwork-tts-backend/internal/script"
)

const previewLimit = 10

// Server holds the handlers for the public API.
type Server struct {
	cfg      config.Config
	resolver *assemble.Resolver
	orch     *batch.Orchestrator
	metrics  http.Handler
	ready    func() bool
	log      *slog.Logger

	srv *http.Server
}

func NewServer(cfg config.Config, resolver *assemble.Resolver, orch *batch.Orchestrator, metrics http.Handler, ready func() bool, log *slog.Logger) *Server {
	return &Server{
		cfg:      cfg,
		resolver: resolver,
		orch:     orch,
		metrics:  metrics,
		ready:    ready,
		log:      log.With(slog.String("component", "httpapi")),
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/readyz", s.handleReadyz)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics)
	}
	mux.HandleFunc("/api/translate", s.handleTranslate)
	mux.HandleFunc("/api/csv/preview", s.handleCSVPreview)
	mux.HandleFunc("/api/batch", s.handleBatch)
	return mux
}

// ListenAndServe starts the API server and blocks until it stops.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.HTTP.Bind, s.cfg.HTTP.Port)
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.log.Info("http api listening", slog.String("addr", addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil && !s.ready() {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req protocol.TranslateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fault.Wrap(fault.Validation, err, "decode request body"))
		return
	}
	translated, encoded, err := s.resolver.TranslateAndSynthesize(r.Context(), req.Text)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, protocol.TranslateResponse{
		HindiText:   translated,
		AudioBase64: base64.StdEncoding.EncodeToString(encoded),
		AudioFormat: "wav",
	})
}

func (s *Server) handleCSVPreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req protocol.CSVPreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fault.Wrap(fault.Validation, err, "decode request body"))
		return
	}
	recs, err := records.ParseFile(req.CSVPath)
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := protocol.CSVPreviewResponse{
		Message: "CSV parsed successfully",
		Records: len(recs),
	}
	for _, rec := range recs {
		if len(resp.Preview) == previewLimit {
			break
		}
		resp.Preview = append(resp.Preview, protocol.RecordPreview{
			Index:       rec.Index,
			Name:        rec.Name,
			CompanyName: rec.CompanyName,
			Salary:      rec.Salary,
			PhoneNumber: rec.PhoneNumber,
		})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req protocol.BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fault.Wrap(fault.Validation, err, "decode request body"))
		return
	}

	mode := batch.OutputInline
	switch req.OutputMode {
	case "", string(batch.OutputInline):
	case string(batch.OutputPath):
		mode = batch.OutputPath
	default:
		s.writeError(w, fault.New(fault.Validation, "output_mode must be inline or path, got %q", req.OutputMode))
		return
	}

	recs, err := records.ParseFile(req.CSVPath)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var sink batch.Sink
	if mode == batch.OutputPath {
		dir := req.OutputFolder
		if dir == "" {
			dir = s.cfg.Batch.OutputDir
		}
		sink = batch.DirSink{Dir: dir}
	}

	pause := time.Duration(s.cfg.Batch.PauseMS) * time.Millisecond
	scr := script.DefaultCallScript(pause)

	result := s.orch.Run(r.Context(), recs, req.SelectedIndices, scr, mode, sink)
	s.writeJSON(w, http.StatusOK, protocol.BatchResponse{
		BatchID:   result.BatchID,
		Total:     len(result.Succeeded) + len(result.Failed),
		Succeeded: result.Succeeded,
		Failed:    result.Failed,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Warn("failed to encode response", slog.String("error", err.Error()))
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps fault kinds to HTTP status codes: caller mistakes get
// 400, upstream translation/synthesis failures get 502, everything else
// is a 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch fault.KindOf(err) {
	case fault.Validation:
		status = http.StatusBadRequest
	case fault.Translation, fault.Synthesis:
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", slog.String("error", err.Error()))
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}
