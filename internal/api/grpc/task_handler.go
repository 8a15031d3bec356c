package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/St1cky1/task-manager-api/internal/api/errmap"
	"github.com/St1cky1/task-manager-api/internal/docs"
	"github.com/St1cky1/task-manager-api/internal/entity"
	"github.com/St1cky1/task-manager-api/internal/usecase"
	"google.golang.org/genproto/googleapis/api/httpbody"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// TaskServer реализует TaskServiceServer поверх usecase.TaskService
type TaskServer struct {
	taskService *usecase.TaskService
	logger      *slog.Logger
}

var _ TaskServiceServer = (*TaskServer)(nil)

func NewTaskServer(taskService *usecase.TaskService, logger *slog.Logger) *TaskServer {
	return &TaskServer{
		taskService: taskService,
		logger:      logger,
	}
}

// ListTasks - поля запроса completed, priority, sortBy, order как в query string REST
func (s *TaskServer) ListTasks(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	params := url.Values{}
	for k, v := range req.AsMap() {
		if v == nil {
			continue
		}
		params.Set(k, fmt.Sprint(v))
	}

	tasks, err := s.taskService.ListTasks(ctx, entity.ParseListQuery(params))
	if err != nil {
		return nil, s.toStatus(err)
	}

	return toStruct(map[string]any{"tasks": tasks, "count": len(tasks)})
}

func (s *TaskServer) CreateTask(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var createReq entity.CreateTaskRequest
	if err := fromStruct(req, &createReq); err != nil {
		return nil, s.toStatus(err)
	}

	task, err := s.taskService.CreateTask(ctx, &createReq)
	if err != nil {
		return nil, s.toStatus(err)
	}

	return taskResponse(task)
}

func (s *TaskServer) GetTask(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	task, err := s.taskService.GetTask(ctx, idOf(req))
	if err != nil {
		return nil, s.toStatus(err)
	}

	return taskResponse(task)
}

// UpdateTask - id и изменяемые поля в одном сообщении, null сбрасывает поле
func (s *TaskServer) UpdateTask(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var updateReq entity.UpdateTaskRequest
	if err := fromStruct(req, &updateReq); err != nil {
		return nil, s.toStatus(err)
	}

	task, err := s.taskService.UpdateTask(ctx, idOf(req), &updateReq)
	if err != nil {
		return nil, s.toStatus(err)
	}

	return taskResponse(task)
}

func (s *TaskServer) DeleteTask(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	task, err := s.taskService.DeleteTask(ctx, idOf(req))
	if err != nil {
		return nil, s.toStatus(err)
	}

	return taskResponse(task)
}

func (s *TaskServer) GetAPIDocs(context.Context, *emptypb.Empty) (*httpbody.HttpBody, error) {
	return &httpbody.HttpBody{
		ContentType: docs.OpenAPIContentType,
		Data:        docs.OpenAPI,
	}, nil
}

func idOf(req *structpb.Struct) string {
	if v, ok := req.GetFields()["id"]; ok {
		if id, ok := v.GetKind().(*structpb.Value_StringValue); ok {
			return id.StringValue
		}
		// не строка - отдаем как есть, чтобы получить InvalidIDError
		return fmt.Sprint(v.AsInterface())
	}
	return ""
}

// fromStruct переносит Struct в запрос через JSON, сохраняя семантику null
func fromStruct(req *structpb.Struct, dst any) error {
	data, err := req.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return entity.NewValidationError(entity.FieldError{Field: "body", Message: err.Error()})
	}
	return nil
}

func taskResponse(task *entity.Task) (*structpb.Struct, error) {
	return toStruct(map[string]any{"task": task})
}

func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out := &structpb.Struct{}
	if err := out.UnmarshalJSON(data); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

// toStatus - те же варианты ошибок, что и в REST, с кодами gRPC.
// Ошибки валидации дополнительно несут errdetails.BadRequest.
func (s *TaskServer) toStatus(err error) error {
	p := errmap.Classify(err)
	if p.Kind == errmap.KindInternal {
		s.logger.Error("unhandled error", slog.String("error", err.Error()))
	}

	msg := p.Message
	if p.Details != "" {
		msg = p.Message + ": " + p.Details
	}
	st := status.New(p.Code, msg)

	var verr *entity.ValidationError
	if errors.As(err, &verr) {
		br := &errdetails.BadRequest{}
		for _, f := range verr.Fields {
			br.FieldViolations = append(br.FieldViolations, &errdetails.BadRequest_FieldViolation{
				Field:       f.Field,
				Description: f.Message,
			})
		}
		if withDetails, detailErr := st.WithDetails(br); detailErr == nil {
			st = withDetails
		}
	}

	return st.Err()
}
