package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"cineref/internal/config"
	"cineref/internal/logging"
	"cineref/internal/resolve"
	"cineref/internal/services"
)

type apiServer struct {
	bind   string
	token  string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

type resolveRequest struct {
	Reference  string `json:"reference"`
	UploadPath string `json:"upload_path,omitempty"`
	HintTitle  string `json:"hint_title,omitempty"`
}

type refreshRequest struct {
	Handle    string `json:"handle,omitempty"`
	Reference string `json:"reference,omitempty"`
}

type refreshResponse struct {
	PlaybackURL string `json:"playback_url"`
}

type statusResponse struct {
	Running       bool               `json:"running"`
	PID           int                `json:"pid"`
	CatalogDBPath string             `json:"catalog_db_path,omitempty"`
	LockFilePath  string             `json:"lock_file_path"`
	Dependencies  []dependencyStatus `json:"dependencies"`
}

type dependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description,omitempty"`
	Optional    bool   `json:"optional,omitempty"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, errors.New("api bind address required")
	}

	srv := &apiServer{
		bind:   bind,
		token:  strings.TrimSpace(cfg.Paths.APIToken),
		logger: logging.NewComponentLogger(logger, "api-server"),
		daemon: d,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/resolve", srv.authorized(srv.handleResolve))
	mux.HandleFunc("/api/refresh", srv.authorized(srv.handleRefresh))
	mux.HandleFunc("/api/status", srv.authorized(srv.handleStatus))
	mux.HandleFunc("/api/cache", srv.authorized(srv.handleCache))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// authorized enforces the bearer token when one is configured and tags every
// request with a correlation id.
func (s *apiServer) authorized(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" {
			header := r.Header.Get("Authorization")
			if header != "Bearer "+s.token {
				s.writeError(w, http.StatusUnauthorized, "invalid or missing bearer token")
				return
			}
		}
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)
		ctx := services.WithRequestID(r.Context(), requestID)
		next(w, r.WithContext(ctx))
	}
}

func (s *apiServer) handleResolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	resolution, err := s.daemon.resolver.Resolve(r.Context(), resolve.Request{
		Reference:  req.Reference,
		UploadPath: req.UploadPath,
		HintTitle:  req.HintTitle,
	})
	if err != nil {
		s.writeResolverError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resolution)
}

func (s *apiServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	var url string
	var err error
	switch {
	case strings.TrimSpace(req.Handle) != "":
		url, err = s.daemon.resolver.RefreshHandle(r.Context(), req.Handle)
	case strings.TrimSpace(req.Reference) != "":
		url, err = s.daemon.resolver.RefreshURL(r.Context(), req.Reference)
	default:
		s.writeError(w, http.StatusBadRequest, "handle or reference required")
		return
	}
	if err != nil {
		s.writeResolverError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, refreshResponse{PlaybackURL: url})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status()
	payload := statusResponse{
		Running:       status.Running,
		PID:           status.PID,
		CatalogDBPath: status.CatalogDBPath,
		LockFilePath:  status.LockFilePath,
		Dependencies:  make([]dependencyStatus, len(status.Dependencies)),
	}
	for i, dep := range status.Dependencies {
		payload.Dependencies[i] = dependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		}
	}
	s.writeJSON(w, http.StatusOK, payload)
}

type cacheEntry struct {
	Handle    string    `json:"handle"`
	URL       string    `json:"url"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type cacheResponse struct {
	Entries []cacheEntry `json:"entries"`
}

func (s *apiServer) handleCache(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	payload := cacheResponse{Entries: []cacheEntry{}}
	if s.daemon.urlCache != nil {
		for _, entry := range s.daemon.urlCache.Entries() {
			payload.Entries = append(payload.Entries, cacheEntry{
				Handle:    entry.Handle,
				URL:       entry.URL,
				IssuedAt:  entry.IssuedAt,
				ExpiresAt: entry.ExpiresAt,
			})
		}
	}
	s.writeJSON(w, http.StatusOK, payload)
}

// writeResolverError maps the error taxonomy onto HTTP statuses.
func (s *apiServer) writeResolverError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, services.ErrInvalidReference):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrAccessDenied):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, services.ErrTimeout):
		status = http.StatusGatewayTimeout
	}

	requestID, _ := services.RequestIDFromContext(r.Context())
	s.logger.Warn("request failed",
		logging.String(logging.FieldRequestID, requestID),
		logging.String("path", r.URL.Path),
		logging.Error(err))
	s.writeError(w, status, err.Error())
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
