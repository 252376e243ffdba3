package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"visca-bridge/internal/bridge"
	"visca-bridge/internal/database/models"
	"visca-bridge/internal/database/repositories"
	"visca-bridge/internal/protocol"
	"visca-bridge/internal/ptz"
	"visca-bridge/internal/pubsub"
	"visca-bridge/internal/visca"
)

const (
	maxBodySize    = 64 * 1024
	commandTimeout = 5 * time.Second
	busBuffer      = 64
)

var errInvalidCommand = errors.New("invalid command")

// BrokerStatus reports the message-bus connection.
type BrokerStatus interface {
	Connected() bool
}

// Config for the server
type Config struct {
	ListenAddr  string
	Development bool
	// SettingDefaults are returned for persisted settings never stored.
	SettingDefaults map[string]string
}

// Deps are the collaborators the server drives. Settings and Broker may
// be nil.
type Deps struct {
	Controller ptz.Controller
	Bus        *pubsub.PubSub
	Settings   *repositories.SettingRepository
	Broker     BrokerStatus
}

// Server is the HTTP and WebSocket control surface
type Server struct {
	cfg       Config
	deps      Deps
	clients   map[*Client]bool
	clientsMu sync.RWMutex
	upgrader  websocket.Upgrader
	staticFS  fs.FS
	moves     *moveThrottle
	router    http.Handler

	httpServer *http.Server
	stopCh     chan struct{}
	stopOnce   sync.Once
}

// New creates a new server instance. staticFS must hold a web/ directory.
func New(cfg Config, deps Deps, staticFS fs.FS) (*Server, error) {
	if deps.Controller == nil || deps.Bus == nil {
		return nil, errors.New("server: controller and bus are required")
	}

	// Extract the web subdirectory from embedded FS
	webFS, err := fs.Sub(staticFS, "web")
	if err != nil {
		return nil, fmt.Errorf("failed to access embedded web files: %w", err)
	}

	s := &Server{
		cfg:      cfg,
		deps:     deps,
		clients:  make(map[*Client]bool),
		staticFS: webFS,
		stopCh:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for local use
			},
		},
	}
	s.moves = newMoveThrottle(minMoveInterval, s.sendMove)
	s.router = s.routes()

	data := deps.Bus.Subscribe(pubsub.TopicData, busBuffer)
	status := deps.Bus.Subscribe(pubsub.TopicStatus, busBuffer)
	go s.broadcast(data, status)

	return s, nil
}

func (s *Server) routes() http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	if s.cfg.Development {
		router.Use(middleware.Logger)
	}
	router.Use(middleware.Recoverer)

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		Debug:          s.cfg.Development,
	})
	router.Use(corsMiddleware.Handler)

	router.Get("/health", s.handleHealth)
	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(15 * time.Second))
		r.Get("/cameras", s.handleCameras)
		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handlePutSettings)
		r.Post("/command/{name}", s.handleCommand)
	})
	router.Get("/ws", s.handleWebSocket)
	router.Handle("/*", http.FileServer(http.FS(s.staticFS)))

	return router
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves HTTP until Shutdown. It returns http.ErrServerClosed after
// a clean shutdown.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:        s.cfg.ListenAddr,
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	log.Printf("Server starting on %s", s.cfg.ListenAddr)
	return s.httpServer.ListenAndServe()
}

// Shutdown stops the HTTP server and disconnects every client.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.moves.Close()

	s.clientsMu.Lock()
	for client := range s.clients {
		client.Close()
	}
	s.clientsMu.Unlock()

	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// broadcast forwards bridge output to every connected client.
func (s *Server) broadcast(data, status *pubsub.Subscriber) {
	defer s.deps.Bus.Unsubscribe(data)
	defer s.deps.Bus.Unsubscribe(status)

	for {
		select {
		case <-s.stopCh:
			return
		case msg := <-data.Channel:
			if reply, ok := msg.(visca.Reply); ok {
				s.sendAll(protocol.TypeReport, protocol.NewReport(reply))
			}
		case msg := <-status.Channel:
			if line, ok := msg.(string); ok {
				s.sendAll(protocol.TypeStatus, s.status(line))
			}
		}
	}
}

func (s *Server) sendAll(msgType string, payload any) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	for client := range s.clients {
		client.sendMessage(msgType, payload)
	}
}

func (s *Server) status(message string) protocol.StatusPayload {
	return protocol.StatusPayload{
		Transport:     s.deps.Controller.Transport(),
		Cameras:       s.deps.Controller.Cameras(),
		MQTTConnected: s.deps.Broker != nil && s.deps.Broker.Connected(),
		Message:       message,
	}
}

// runCommand parses a named command and applies its requests. Relative
// moves from joystick clients go through the move throttle.
func (s *Server) runCommand(ctx context.Context, name string, payload []byte, throttled bool) (int, error) {
	reqs, err := protocol.ParseCommand(name, payload, s.deps.Controller.Cameras())
	if err != nil {
		return 0, fmt.Errorf("%w: %w", errInvalidCommand, err)
	}
	for i, req := range reqs {
		if move, ok := req.(protocol.MoveBy); ok && throttled {
			s.moves.Move(move)
			continue
		}
		if err := s.deps.Controller.Execute(ctx, req); err != nil {
			return i, err
		}
	}
	return len(reqs), nil
}

func (s *Server) sendMove(req protocol.MoveBy) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	if err := s.deps.Controller.Execute(ctx, req); err != nil {
		log.Printf("Move camera %d failed: %v", req.Cam, err)
	}
}

// errorCode maps a command failure onto a WebSocket code and HTTP status.
func errorCode(err error) (string, int) {
	switch {
	case errors.Is(err, errInvalidCommand):
		return protocol.ErrCodeInvalidCommand, http.StatusBadRequest
	case errors.Is(err, bridge.ErrClosed):
		return protocol.ErrCodeLinkDown, http.StatusServiceUnavailable
	default:
		return protocol.ErrCodeVISCA, http.StatusBadGateway
	}
}

type healthResponse struct {
	Status        string `json:"status"`
	Timestamp     string `json:"timestamp"`
	Transport     string `json:"transport"`
	Cameras       int    `json:"cameras"`
	MQTTConnected bool   `json:"mqtt_connected"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.status("")
	writeJSON(w, http.StatusOK, healthResponse{
		Status:        "ok",
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Transport:     st.Transport,
		Cameras:       st.Cameras,
		MQTTConnected: st.MQTTConnected,
	})
}

func (s *Server) handleCameras(w http.ResponseWriter, r *http.Request) {
	positions, err := s.deps.Controller.Positions(r.Context())
	if err != nil {
		code, status := errorCode(err)
		writeError(w, status, code, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, protocol.CamerasPayload{Cameras: positions})
}

type commandResponse struct {
	Command  string `json:"command"`
	Requests int    `json:"requests"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, protocol.ErrCodeInvalidMessage, "failed to read body")
		return
	}

	n, err := s.runCommand(r.Context(), name, body, false)
	if err != nil {
		code, status := errorCode(err)
		writeError(w, status, code, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, commandResponse{Command: name, Requests: n})
}

type settingsResponse struct {
	Settings        map[string]string `json:"settings"`
	RestartRequired bool              `json:"restart_required,omitempty"`
}

// settingKeys are the keys accepted by PUT /api/settings.
var settingKeys = []string{models.SettingMQTTServer, models.SettingMQTTPort}

func (s *Server) currentSettings(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string, len(settingKeys))
	for _, key := range settingKeys {
		v, err := s.deps.Settings.Value(ctx, key, s.cfg.SettingDefaults[key])
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, nil
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	if s.deps.Settings == nil {
		writeError(w, http.StatusServiceUnavailable, protocol.ErrCodeInvalidMessage, "settings store not configured")
		return
	}
	settings, err := s.currentSettings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, protocol.ErrCodeInvalidMessage, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse{Settings: settings})
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	if s.deps.Settings == nil {
		writeError(w, http.StatusServiceUnavailable, protocol.ErrCodeInvalidMessage, "settings store not configured")
		return
	}

	var update map[string]string
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, protocol.ErrCodeInvalidMessage, "expected a JSON object of strings")
		return
	}
	if err := validateSettings(update); err != nil {
		writeError(w, http.StatusBadRequest, protocol.ErrCodeInvalidMessage, err.Error())
		return
	}

	for _, key := range settingKeys {
		v, ok := update[key]
		if !ok {
			continue
		}
		if _, err := s.deps.Settings.Upsert(r.Context(), key, v); err != nil {
			writeError(w, http.StatusInternalServerError, protocol.ErrCodeInvalidMessage, err.Error())
			return
		}
		log.Printf("Setting %s = %q saved", key, v)
	}

	settings, err := s.currentSettings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, protocol.ErrCodeInvalidMessage, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse{Settings: settings, RestartRequired: len(update) > 0})
}

func validateSettings(update map[string]string) error {
	for key, v := range update {
		switch key {
		case models.SettingMQTTServer:
		case models.SettingMQTTPort:
			if v == "" {
				continue
			}
			port, err := strconv.Atoi(v)
			if err != nil || port < 1 || port > 65535 {
				return fmt.Errorf("invalid %s %q", key, v)
			}
		default:
			return fmt.Errorf("unknown setting %q", key)
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, protocol.ErrorPayload{Code: code, Message: message})
}
