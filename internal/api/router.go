package api

import (
	"log/slog"
	"net/http"

	"github.com/St1cky1/task-manager-api/internal/api/handlers"
	apimw "github.com/St1cky1/task-manager-api/internal/api/middleware"
	"github.com/St1cky1/task-manager-api/internal/config"
	"github.com/St1cky1/task-manager-api/internal/docs"
	"github.com/St1cky1/task-manager-api/internal/usecase"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterDeps - зависимости HTTP роутера
type RouterDeps struct {
	TaskService *usecase.TaskService
	Limiter     apimw.Limiter
	CORS        config.CORSConfig
	Logger      *slog.Logger
}

func NewRouter(deps RouterDeps) *chi.Mux {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apimw.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(apimw.SecurityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		MaxAge:         300,
	}))
	r.Use(middleware.Compress(5))
	if deps.Limiter != nil {
		r.Use(apimw.RateLimit(deps.Limiter, logger))
	}

	taskHandler := handlers.NewTaskHandler(deps.TaskService, logger)
	systemHandler := handlers.NewSystemHandler(deps.TaskService, logger)

	// неподдерживаемый метод отвечает так же, как неизвестный путь
	r.NotFound(systemHandler.NotFound)
	r.MethodNotAllowed(systemHandler.NotFound)

	r.Get("/", systemHandler.Welcome)
	r.Get("/health", systemHandler.Health)
	r.Get(docs.BasePath, http.RedirectHandler(docs.IndexPath, http.StatusMovedPermanently).ServeHTTP)
	r.Get(docs.OpenAPIPath, systemHandler.OpenAPI)
	r.Get(docs.BasePath+"/*", systemHandler.SwaggerUI)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", taskHandler.ListTasks)
			r.Post("/", taskHandler.CreateTask)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", taskHandler.GetTask)
				r.Patch("/", taskHandler.UpdateTask)
				r.Delete("/", taskHandler.DeleteTask)
			})
		})
	})

	return r
}
