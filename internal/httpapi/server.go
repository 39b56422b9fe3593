package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"task-manager/internal/model"
	"task-manager/internal/observability/logging"
)

// TaskService is what the handlers need from the task layer.
type TaskService interface {
	Create(ctx context.Context, title, description string) (model.Task, error)
	List(ctx context.Context) ([]model.Task, error)
	Get(ctx context.Context, id string) (model.Task, error)
	Update(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error)
	Delete(ctx context.Context, id string) error
}

type Config struct {
	Logger         *slog.Logger
	StaticDir      string   // served at / when set
	CORSOrigins    []string // defaults to "*"
	RequestTimeout time.Duration
	Now            func() time.Time
}

type Server struct {
	service TaskService
	logger  *slog.Logger
	mux     *http.ServeMux
	handler http.Handler
}

func NewServer(service TaskService, pinger Pinger, cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}

	srv := &Server{
		service: service,
		logger:  cfg.Logger,
		mux:     http.NewServeMux(),
	}

	srv.mux.HandleFunc("GET /health", HealthHandler(pinger, cfg.Now))
	srv.mux.HandleFunc("GET /healthz", HealthzHandler())
	srv.mux.HandleFunc("GET /readyz", ReadyzHandler(pinger))

	srv.mux.HandleFunc("GET /api/tasks", srv.handleListTasks)
	srv.mux.HandleFunc("POST /api/tasks", srv.handleCreateTask)
	srv.mux.HandleFunc("GET /api/tasks/export", srv.handleExportTasks)
	srv.mux.HandleFunc("GET /api/tasks/{id}", srv.handleGetTask)
	srv.mux.HandleFunc("PUT /api/tasks/{id}", srv.handleUpdateTask)
	srv.mux.HandleFunc("DELETE /api/tasks/{id}", srv.handleDeleteTask)

	if cfg.StaticDir != "" {
		srv.mux.Handle("GET /", http.FileServer(http.Dir(cfg.StaticDir)))
	}

	srv.handler = CORS(cfg.CORSOrigins)(
		WithRequestID(
			Logging(cfg.Logger)(
				Recover(cfg.Logger)(
					Timeout(cfg.RequestTimeout)(srv.mux),
				),
			),
		),
	)
	return srv
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}
