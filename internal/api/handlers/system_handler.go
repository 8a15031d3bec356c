package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/St1cky1/task-manager-api/internal/api/errmap"
	"github.com/St1cky1/task-manager-api/internal/docs"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

const healthTimeout = 2 * time.Second

// Pinger - проверка доступности хранилища
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler - служебные маршруты: приветствие, health, документация, 404
type SystemHandler struct {
	pinger    Pinger
	logger    *slog.Logger
	swaggerUI http.HandlerFunc
}

func NewSystemHandler(pinger Pinger, logger *slog.Logger) *SystemHandler {
	return &SystemHandler{
		pinger:    pinger,
		logger:    logger.With(slog.String("component", "system_handler")),
		swaggerUI: httpSwagger.Handler(httpSwagger.URL(docs.OpenAPIPath)),
	}
}

type welcomeResponse struct {
	Message       string            `json:"message"`
	Documentation string            `json:"documentation"`
	Endpoints     map[string]string `json:"endpoints"`
}

func (h *SystemHandler) Welcome(w http.ResponseWriter, r *http.Request) {
	errmap.WriteJSON(w, h.logger, http.StatusOK, welcomeResponse{
		Message:       "Welcome to Task Manager API",
		Documentation: docs.BasePath,
		Endpoints: map[string]string{
			"tasks":      "/api/v1/tasks",
			"singleTask": "/api/v1/tasks/:id",
		},
	})
}

func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.pinger.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", slog.String("error", err.Error()))
		errmap.WriteJSON(w, h.logger, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	errmap.WriteJSON(w, h.logger, http.StatusOK, map[string]string{"status": "ok"})
}

// SwaggerUI отдает страницу и статику swagger-ui из-под /api-docs/
func (h *SystemHandler) SwaggerUI(w http.ResponseWriter, r *http.Request) {
	h.swaggerUI(w, r)
}

func (h *SystemHandler) OpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", docs.OpenAPIContentType)
	_, _ = w.Write(docs.OpenAPI)
}

// NotFound отвечает и на неизвестный путь, и на неподдерживаемый метод
func (h *SystemHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	errmap.WriteMessage(w, h.logger, http.StatusNotFound, "Route does not exist")
}
