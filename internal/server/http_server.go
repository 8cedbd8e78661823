package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/copilot-bot/copilot/internal/bot"
	"github.com/invopop/jsonschema"
)

// Follower is the part of the bot the server drives.
type Follower interface {
	Status() bot.Status
	SetAutopilot(enabled bool) error
	ReloadConfig() error
	ClearQueue() int
}

type HttpServer struct {
	logger    *slog.Logger
	server    *http.Server
	follower  Follower
	templates *template.Template
	wsServer  *WebSocketServer
	schema    []byte
	// interval is the period of the websocket status broadcast.
	interval time.Duration
}

var (
	//go:embed all:templates
	templatesFS embed.FS
)

func New(logger *slog.Logger, follower Follower) (*HttpServer, error) {
	templates, err := template.New("").Funcs(template.FuncMap{
		"distance": func(v float64) string {
			return strconv.FormatFloat(v, 'f', 0, 64)
		},
	}).ParseFS(templatesFS, "templates/*.gohtml")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	schema, err := statusSchema()
	if err != nil {
		return nil, err
	}

	return &HttpServer{
		logger:    logger,
		follower:  follower,
		templates: templates,
		wsServer:  NewWebSocketServer(logger),
		schema:    schema,
		interval:  time.Second,
	}, nil
}

func statusSchema() ([]byte, error) {
	reflector := jsonschema.Reflector{DoNotReference: true}
	schema := reflector.Reflect(&bot.Status{})
	schema.Title = "Follower status"
	schema.Description = "Snapshot published by the follower after every tick."

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling status schema: %w", err)
	}
	return data, nil
}

// Handler returns the routes of the status server.
func (s *HttpServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.index)
	mux.HandleFunc("/status", s.status)
	mux.HandleFunc("/status/schema", s.statusSchema)
	mux.HandleFunc("/ws", s.wsServer.HandleWebSocket)
	mux.HandleFunc("/api/reload-config", s.reloadConfig)
	mux.HandleFunc("/api/queue/clear", s.clearQueue)
	mux.HandleFunc("/api/autopilot/toggle", s.toggleAutopilot)
	return mux
}

// Listen serves until ctx is cancelled.
func (s *HttpServer) Listen(ctx context.Context, port int) error {
	go s.wsServer.Run(ctx)
	go s.BroadcastStatus(ctx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		if err := s.Stop(); err != nil {
			s.logger.Warn("Failed to stop the HTTP server", slog.Any("error", err))
		}
	}()

	s.logger.Info("Status server listening", slog.Int("port", port))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *HttpServer) Stop() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

// BroadcastStatus pushes the follower status to the websocket clients every interval.
func (s *HttpServer) BroadcastStatus(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		jsonData, err := json.Marshal(s.follower.Status())
		if err != nil {
			s.logger.Error("Failed to marshal status data", slog.Any("error", err))
			continue
		}
		if !s.wsServer.Broadcast(ctx, jsonData) {
			return
		}
	}
}

func (s *HttpServer) index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if err := s.templates.ExecuteTemplate(w, "index.gohtml", s.follower.Status()); err != nil {
		s.logger.Error("Failed to render index template", slog.Any("error", err))
	}
}

func (s *HttpServer) status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.follower.Status())
}

func (s *HttpServer) statusSchema(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/schema+json")
	w.Write(s.schema)
}

func (s *HttpServer) reloadConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.follower.ReloadConfig(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.logger.Info("Config reloaded")
	w.WriteHeader(http.StatusOK)
}

func (s *HttpServer) clearQueue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, map[string]int{"removed": s.follower.ClearQueue()})
}

// toggleAutopilot sets the autopilot to the "enabled" form value, or flips it when the value is
// missing.
func (s *HttpServer) toggleAutopilot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	enabled := !s.follower.Status().Enabled
	if v := r.FormValue("enabled"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid enabled value %q", v), http.StatusBadRequest)
			return
		}
		enabled = parsed
	}

	if err := s.follower.SetAutopilot(enabled); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]bool{"enabled": enabled})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
