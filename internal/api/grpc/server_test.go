package grpc

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"

	"github.com/St1cky1/task-manager-api/internal/repository"
	"github.com/St1cky1/task-manager-api/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/api/httpbody"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

func newTestConn(t *testing.T) *grpc.ClientConn {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := usecase.NewTaskService(repository.NewMemoryTaskRepository(), nil, logger)
	srv := NewGRPCServer(service, logger)

	lis := bufconn.Listen(1 << 20)
	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func call(t *testing.T, conn *grpc.ClientConn, method string, req map[string]any) (map[string]any, error) {
	t.Helper()
	in, err := structpb.NewStruct(req)
	require.NoError(t, err)

	out := &structpb.Struct{}
	if err := conn.Invoke(context.Background(), method, in, out); err != nil {
		return nil, err
	}
	return out.AsMap(), nil
}

func TestTaskServiceRoundTrip(t *testing.T) {
	conn := newTestConn(t)

	created, err := call(t, conn, MethodCreateTask, map[string]any{"name": "grpc task", "priority": "high"})
	require.NoError(t, err)
	task := created["task"].(map[string]any)
	assert.Equal(t, "grpc task", task["name"])
	assert.Equal(t, "high", task["priority"])
	assert.Equal(t, false, task["completed"])
	id := task["id"].(string)

	got, err := call(t, conn, MethodGetTask, map[string]any{"id": id})
	require.NoError(t, err)
	assert.Equal(t, id, got["task"].(map[string]any)["id"])

	updated, err := call(t, conn, MethodUpdateTask, map[string]any{"id": id, "completed": true, "priority": nil})
	require.NoError(t, err)
	updatedTask := updated["task"].(map[string]any)
	assert.Equal(t, true, updatedTask["completed"])
	assert.Equal(t, "medium", updatedTask["priority"])
	assert.Equal(t, "grpc task", updatedTask["name"])

	list, err := call(t, conn, MethodListTasks, map[string]any{"completed": true})
	require.NoError(t, err)
	assert.Equal(t, float64(1), list["count"])

	list, err = call(t, conn, MethodListTasks, map[string]any{"completed": "false"})
	require.NoError(t, err)
	assert.Equal(t, float64(0), list["count"])

	_, err = call(t, conn, MethodDeleteTask, map[string]any{"id": id})
	require.NoError(t, err)

	_, err = call(t, conn, MethodGetTask, map[string]any{"id": id})
	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.NotFound, st.Code())
	assert.Equal(t, "No task with id : "+id, st.Message())
}

func TestTaskServiceErrors(t *testing.T) {
	conn := newTestConn(t)

	_, err := call(t, conn, MethodGetTask, map[string]any{"id": "abc"})
	st, _ := status.FromError(err)
	assert.Equal(t, codes.NotFound, st.Code())
	assert.Equal(t, "No task found with id: abc. Invalid ID format.", st.Message())

	_, err = call(t, conn, MethodCreateTask, map[string]any{"priority": "urgent"})
	st, _ = status.FromError(err)
	assert.Equal(t, codes.InvalidArgument, st.Code())
	assert.Contains(t, st.Message(), "Validation Error: must provide name")

	require.Len(t, st.Details(), 1)
	br, ok := st.Details()[0].(*errdetails.BadRequest)
	require.True(t, ok)
	require.Len(t, br.GetFieldViolations(), 2)
	assert.Equal(t, "name", br.GetFieldViolations()[0].GetField())
	assert.Equal(t, "priority", br.GetFieldViolations()[1].GetField())
}

func TestGetAPIDocs(t *testing.T) {
	conn := newTestConn(t)

	out := &httpbody.HttpBody{}
	require.NoError(t, conn.Invoke(context.Background(), MethodGetAPIDocs, &emptypb.Empty{}, out))
	assert.Equal(t, "application/yaml", out.GetContentType())
	assert.Contains(t, string(out.GetData()), "openapi:")
}

func TestRegisteredServices(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := NewGRPCServer(usecase.NewTaskService(repository.NewMemoryTaskRepository(), nil, logger), logger)

	services := srv.Server().GetServiceInfo()
	assert.Contains(t, services, ServiceName)
	assert.Contains(t, services, "grpc.health.v1.Health")
	assert.Contains(t, services, "grpc.reflection.v1.ServerReflection")
}
