// Package bridge exposes copy requests and feedback state over a local HTTP API.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tyemirov/codecopy/internal/services/clipboard"
	"github.com/tyemirov/codecopy/internal/services/feedback"
)

// DefaultMaxRegions bounds the feedback regions a bridge board keeps for arbitrary request text.
const DefaultMaxRegions = 256

const (
	defaultListenAddress    = "127.0.0.1:0"
	defaultShutdownDuration = 5 * time.Second
	maxRequestBodyBytes     = 64 << 10
	headerContentType       = "Content-Type"
	mimeTypeJSON            = "application/json"
	healthPath              = "/"
	capabilitiesPath        = "/capabilities"
	copyPath                = "/commands/copy"
	statusListPath          = "/status"
	statusPath              = "/status/{target}"
	targetURLParameter      = "target"
	errorFieldName          = "error"
	errorEmptyText          = "text must not be empty"
	errorTargetNotFound     = "target not found"
	healthMessage           = "codecopy bridge running"
)

// Capability describes a feature exposed by the bridge.
type Capability struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CopyResponse reports the outcome of a copy request.
type CopyResponse struct {
	RequestID string `json:"request_id"`
	Target    string `json:"target,omitempty"`
	Outcome   string `json:"outcome"`
	Reason    string `json:"reason,omitempty"`
	Mechanism string `json:"mechanism"`
}

// Deliverer presents a copy result.
type Deliverer interface {
	Deliver(request clipboard.Request, result clipboard.Result)
}

// Config defines runtime options for the bridge.
type Config struct {
	Address         string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
	StatusPrefix    string
	Copier          clipboard.Copier
	Board           *feedback.Board
	Deliverer       Deliverer
	Logger          *zap.Logger
}

// Server serves copy and status endpoints.
type Server struct {
	config Config
}

// NewServer creates a new Server with defaults applied.
func NewServer(config Config) Server {
	normalized := config
	if normalized.Address == "" {
		normalized.Address = defaultListenAddress
	}
	if normalized.ShutdownTimeout <= 0 {
		normalized.ShutdownTimeout = defaultShutdownDuration
	}
	if len(normalized.AllowedOrigins) == 0 {
		normalized.AllowedOrigins = []string{"*"}
	}
	if normalized.Logger == nil {
		normalized.Logger = zap.NewNop()
	}
	return Server{config: normalized}
}

// Capabilities lists the bridge's commands.
func (server Server) Capabilities() []Capability {
	return []Capability{
		{Name: "copy", Description: "copy text to the clipboard and record feedback for its target"},
		{Name: "status", Description: "read the current feedback state of a target"},
		{Name: "status-list", Description: "list every tracked feedback region"},
	}
}

// Handler builds the HTTP routes.
func (server Server) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RealIP)
	router.Use(middleware.RequestID)
	router.Use(server.requestLogger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   server.config.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{headerContentType},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	router.Use(middleware.Recoverer)

	router.Get(healthPath, server.handleHealth)
	router.Get(capabilitiesPath, server.handleCapabilities)
	router.Post(copyPath, server.handleCopy)
	router.Get(statusListPath, server.handleStatusList)
	router.Get(statusPath, server.handleStatus)
	return router
}

// Run starts the bridge and blocks until the provided context is canceled.
// The notify callback receives the bound address once the listener is active.
func (server Server) Run(ctx context.Context, notify func(string)) error {
	listener, listenErr := net.Listen("tcp", server.config.Address)
	if listenErr != nil {
		return fmt.Errorf("listen on %s: %w", server.config.Address, listenErr)
	}
	actualAddress := listener.Addr().String()

	httpServer := &http.Server{
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		serveErr := httpServer.Serve(listener)
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return fmt.Errorf("serve bridge: %w", serveErr)
		}
		return nil
	})

	if notify != nil {
		notify(actualAddress)
	}

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.config.ShutdownTimeout)
		defer cancel()
		shutdownErr := httpServer.Shutdown(shutdownCtx)
		if shutdownErr != nil && !errors.Is(shutdownErr, context.Canceled) && !errors.Is(shutdownErr, http.ErrServerClosed) {
			return fmt.Errorf("shutdown bridge: %w", shutdownErr)
		}
		return nil
	})

	return group.Wait()
}

func (server Server) handleHealth(writer http.ResponseWriter, request *http.Request) {
	writer.Header().Set(headerContentType, "text/plain")
	writer.WriteHeader(http.StatusOK)
	_, _ = writer.Write([]byte(healthMessage))
}

func (server Server) handleCapabilities(writer http.ResponseWriter, request *http.Request) {
	payload := struct {
		Capabilities []Capability `json:"capabilities"`
	}{Capabilities: server.Capabilities()}
	server.writeJSON(writer, http.StatusOK, payload)
}

func (server Server) handleCopy(writer http.ResponseWriter, request *http.Request) {
	body, readErr := io.ReadAll(io.LimitReader(request.Body, maxRequestBodyBytes))
	if readErr != nil {
		server.writeJSON(writer, http.StatusBadRequest, map[string]string{errorFieldName: fmt.Sprintf("read request body: %v", readErr)})
		return
	}
	var copyRequest clipboard.Request
	if decodeErr := json.Unmarshal(body, &copyRequest); decodeErr != nil {
		server.writeJSON(writer, http.StatusBadRequest, map[string]string{errorFieldName: fmt.Sprintf("decode request body: %v", decodeErr)})
		return
	}
	if strings.TrimSpace(copyRequest.Text) == "" {
		server.writeJSON(writer, http.StatusBadRequest, map[string]string{errorFieldName: errorEmptyText})
		return
	}
	if copyRequest.TargetID == "" && server.config.StatusPrefix != "" {
		copyRequest.TargetID = server.config.StatusPrefix + copyRequest.Text
	}
	if server.config.Board != nil {
		if copyRequest.TargetID != "" {
			server.config.Board.Register(copyRequest.TargetID, "")
		}
		if copyRequest.ButtonID != "" {
			server.config.Board.Register(copyRequest.ButtonID, copyRequest.ButtonLabel)
		}
	}

	requestID := uuid.New().String()
	logger := server.config.Logger.With(zap.String("request_id", requestID), zap.String("target", copyRequest.TargetID))

	result := clipboard.Result{Outcome: clipboard.OutcomeFailure, Reason: clipboard.ReasonNotSupported, Mechanism: clipboard.MechanismNone}
	if server.config.Copier != nil {
		result = server.config.Copier.Copy(request.Context(), copyRequest)
	}
	if server.config.Deliverer != nil {
		server.config.Deliverer.Deliver(copyRequest, result)
	}
	logger.Info("copy request handled", zap.String("outcome", result.Outcome.String()), zap.String("mechanism", result.Mechanism))

	server.writeJSON(writer, http.StatusOK, CopyResponse{
		RequestID: requestID,
		Target:    copyRequest.TargetID,
		Outcome:   result.Outcome.String(),
		Reason:    result.Reason,
		Mechanism: result.Mechanism,
	})
}

func (server Server) handleStatus(writer http.ResponseWriter, request *http.Request) {
	targetID := chi.URLParam(request, targetURLParameter)
	if server.config.Board == nil {
		server.writeJSON(writer, http.StatusNotFound, map[string]string{errorFieldName: errorTargetNotFound})
		return
	}
	region, found := server.config.Board.Region(targetID)
	if !found {
		server.writeJSON(writer, http.StatusNotFound, map[string]string{errorFieldName: errorTargetNotFound})
		return
	}
	server.writeJSON(writer, http.StatusOK, region)
}

func (server Server) handleStatusList(writer http.ResponseWriter, request *http.Request) {
	regions := []feedback.Region{}
	if server.config.Board != nil {
		regions = server.config.Board.Regions()
	}
	server.writeJSON(writer, http.StatusOK, struct {
		Regions []feedback.Region `json:"regions"`
	}{Regions: regions})
}

func (server Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		start := time.Now()
		wrapped := middleware.NewWrapResponseWriter(writer, request.ProtoMajor)
		next.ServeHTTP(wrapped, request)
		server.config.Logger.Debug("request",
			zap.String("method", request.Method),
			zap.String("path", request.URL.Path),
			zap.Int("status", wrapped.Status()),
			zap.String("request_id", middleware.GetReqID(request.Context())),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (server Server) writeJSON(writer http.ResponseWriter, statusCode int, payload interface{}) {
	var buffer bytes.Buffer
	if encodeErr := json.NewEncoder(&buffer).Encode(payload); encodeErr != nil {
		fallback := map[string]string{errorFieldName: fmt.Sprintf("encode response: %v", encodeErr)}
		writer.Header().Set(headerContentType, mimeTypeJSON)
		writer.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(writer).Encode(fallback)
		return
	}
	writer.Header().Set(headerContentType, mimeTypeJSON)
	writer.WriteHeader(statusCode)
	_, _ = writer.Write(buffer.Bytes())
}
