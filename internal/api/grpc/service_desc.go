package grpc

import (
	"context"

	"google.golang.org/genproto/googleapis/api/httpbody"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "task.v1.TaskService"

// Полные имена методов
const (
	MethodListTasks  = "/" + ServiceName + "/ListTasks"
	MethodCreateTask = "/" + ServiceName + "/CreateTask"
	MethodGetTask    = "/" + ServiceName + "/GetTask"
	MethodUpdateTask = "/" + ServiceName + "/UpdateTask"
	MethodDeleteTask = "/" + ServiceName + "/DeleteTask"
	MethodGetAPIDocs = "/" + ServiceName + "/GetAPIDocs"
)

// TaskServiceServer - gRPC сервис задач. Сообщения - google.protobuf.Struct
// с теми же именами полей, что и в REST API.
type TaskServiceServer interface {
	ListTasks(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateTask(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetTask(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateTask(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteTask(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetAPIDocs(context.Context, *emptypb.Empty) (*httpbody.HttpBody, error)
}

func RegisterTaskServiceServer(s grpc.ServiceRegistrar, srv TaskServiceServer) {
	s.RegisterService(&TaskServiceDesc, srv)
}

var TaskServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TaskServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListTasks", Handler: unaryHandler(MethodListTasks, TaskServiceServer.ListTasks)},
		{MethodName: "CreateTask", Handler: unaryHandler(MethodCreateTask, TaskServiceServer.CreateTask)},
		{MethodName: "GetTask", Handler: unaryHandler(MethodGetTask, TaskServiceServer.GetTask)},
		{MethodName: "UpdateTask", Handler: unaryHandler(MethodUpdateTask, TaskServiceServer.UpdateTask)},
		{MethodName: "DeleteTask", Handler: unaryHandler(MethodDeleteTask, TaskServiceServer.DeleteTask)},
		{MethodName: "GetAPIDocs", Handler: unaryHandler(MethodGetAPIDocs, TaskServiceServer.GetAPIDocs)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "task/v1/task.proto",
}

// unaryHandler повторяет то, что генерирует protoc-gen-go-grpc для унарного метода
func unaryHandler[Req any, PReq interface {
	*Req
	proto.Message
}, Resp proto.Message](
	fullMethod string,
	call func(TaskServiceServer, context.Context, PReq) (Resp, error),
) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(TaskServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(TaskServiceServer), ctx, req.(PReq))
		}
		return interceptor(ctx, in, info, handler)
	}
}
