// Package errmap классифицирует ошибки сервиса в закрытый набор вариантов
// и отображает их в gRPC коды, HTTP статусы и тела ответов.
package errmap

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/St1cky1/task-manager-api/internal/entity"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc/codes"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindInvalidID
	KindDuplicateKey
	KindNotFound
)

const (
	msgValidation = "Validation Error"
	msgInternal   = "An unexpected error occurred on the server. Please try again later."
)

// Problem - результат классификации ошибки
type Problem struct {
	Kind    Kind
	Code    codes.Code
	Message string
	// Details - склеенные сообщения полей, только для KindValidation
	Details string
}

// HTTPStatus выводится из gRPC кода, чтобы оба транспорта отвечали одинаково
func (p Problem) HTTPStatus() int {
	return runtime.HTTPStatusFromCode(p.Code)
}

// ErrorResponse - тело ответа с ошибкой
type ErrorResponse struct {
	Msg    string `json:"msg"`
	Errors string `json:"errors,omitempty"`
}

func (p Problem) Body() ErrorResponse {
	return ErrorResponse{Msg: p.Message, Errors: p.Details}
}

// Classify сопоставляет ошибку одному из вариантов
func Classify(err error) Problem {
	var (
		verr *entity.ValidationError
		ierr *entity.InvalidIDError
		derr *entity.DuplicateKeyError
		nerr *entity.NotFoundError
	)

	switch {
	case errors.As(err, &verr):
		return Problem{
			Kind:    KindValidation,
			Code:    codes.InvalidArgument,
			Message: msgValidation,
			Details: verr.Joined(),
		}
	case errors.As(err, &ierr):
		return Problem{
			Kind:    KindInvalidID,
			Code:    codes.NotFound,
			Message: fmt.Sprintf("No task found with id: %s. Invalid ID format.", ierr.Value),
		}
	case errors.As(err, &derr):
		// FailedPrecondition в grpc-gateway отдается как 400
		return Problem{
			Kind:    KindDuplicateKey,
			Code:    codes.FailedPrecondition,
			Message: fmt.Sprintf("Duplicate value for field '%s'. The value '%s' already exists.", derr.Field, derr.Value),
		}
	case errors.As(err, &nerr):
		return Problem{
			Kind:    KindNotFound,
			Code:    codes.NotFound,
			Message: nerr.Message,
		}
	default:
		return Problem{
			Kind:    KindInternal,
			Code:    codes.Internal,
			Message: msgInternal,
		}
	}
}

// Respond пишет JSON ответ для ошибки. Неклассифицированные ошибки
// логируются на уровне ERROR, остальные на DEBUG.
func Respond(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	p := Classify(err)
	status := p.HTTPStatus()

	attrs := []any{
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
	}
	if p.Kind == KindInternal {
		logger.Error("unhandled error", append(attrs, slog.String("error", err.Error()))...)
	} else {
		logger.Debug("request failed", append(attrs, slog.String("error", err.Error()))...)
	}

	WriteJSON(w, logger, status, p.Body())
}
