// Package server exposes the command protocol over HTTP for the frontend.
// Every route translates to one dispatcher request; command failures are
// reported inside the response envelope with HTTP 200, and only an
// undecodable body is a transport-level 400.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/book-expert/logger"
	"github.com/go-chi/chi/v5"

	"github.com/book-expert/voicepro-service/internal/dispatch"
)

// Server timeouts.
const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// maxBodyBytes bounds request bodies; generation params and project records
// are small, but project text can run long.
const maxBodyBytes = 16 * 1024 * 1024

// Server serves the command protocol over HTTP.
type Server struct {
	dispatcher     *dispatch.Dispatcher
	allowedOrigins []string
	log            *logger.Logger
}

// New creates an HTTP transport over the dispatcher.
func New(dispatcher *dispatch.Dispatcher, allowedOrigins []string, log *logger.Logger) *Server {
	return &Server{
		dispatcher:     dispatcher,
		allowedOrigins: allowedOrigins,
		log:            log,
	}
}

// Router builds the HTTP route table.
func (s *Server) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(corsMiddleware(s.allowedOrigins))

	router.Get("/health", s.handleHealth)
	router.Post("/command", s.handleCommand)
	router.Get("/models", s.handleModels)
	router.Get("/conditioners", s.handleConditioners)
	router.Post("/generate", s.handleGenerate)

	return router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errChan := make(chan error, 1)

	go func() {
		serveErr := httpServer.ListenAndServe()
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server failed: %w", serveErr)

			return
		}

		errChan <- nil
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	shutdownErr := httpServer.Shutdown(shutdownCtx)
	if shutdownErr != nil {
		return fmt.Errorf("http server shutdown failed: %w", shutdownErr)
	}

	return <-errChan
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCommand accepts any protocol request object and returns its envelope.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req dispatch.Request

	decodeErr := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req)
	if decodeErr != nil {
		s.log.Error("Malformed command body: %v", decodeErr)
		s.writeResponse(w, http.StatusBadRequest, &dispatch.Response{
			Success: false,
			Data:    nil,
			Error:   "malformed request body",
		})

		return
	}

	s.writeResponse(w, http.StatusOK, s.dispatcher.Dispatch(r.Context(), &req))
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	req := dispatch.Request{Type: dispatch.CmdGetModels}
	s.writeResponse(w, http.StatusOK, s.dispatcher.Dispatch(r.Context(), &req))
}

func (s *Server) handleConditioners(w http.ResponseWriter, r *http.Request) {
	req := dispatch.Request{
		Type:  dispatch.CmdGetConditioners,
		Model: r.URL.Query().Get("model"),
	}
	s.writeResponse(w, http.StatusOK, s.dispatcher.Dispatch(r.Context(), &req))
}

// handleGenerate accepts a bare params object, mirroring the engine-facing
// generate route the frontend historically used.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	body, readErr := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if readErr != nil {
		s.log.Error("Failed to read generate body: %v", readErr)
		s.writeResponse(w, http.StatusBadRequest, &dispatch.Response{
			Success: false,
			Data:    nil,
			Error:   "malformed request body",
		})

		return
	}

	req := dispatch.Request{
		Type:   dispatch.CmdGenerateAudio,
		Params: body,
	}
	s.writeResponse(w, http.StatusOK, s.dispatcher.Dispatch(r.Context(), &req))
}

func (s *Server) writeResponse(w http.ResponseWriter, status int, resp *dispatch.Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.log.Error("Failed to marshal response: %v", err)
		w.WriteHeader(http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_, writeErr := w.Write(data)
	if writeErr != nil {
		s.log.Error("Failed to write response: %v", writeErr)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		s.log.Error("Failed to marshal payload: %v", err)
		w.WriteHeader(http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_, writeErr := w.Write(data)
	if writeErr != nil {
		s.log.Error("Failed to write payload: %v", writeErr)
	}
}
