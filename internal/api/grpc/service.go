package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const serviceName = "todo.v1.TaskService"

// TaskServiceServer is the server API of todo.v1.TaskService. Requests and
// responses are google.protobuf.Struct values with the same camelCase
// fields as the REST API.
type TaskServiceServer interface {
	ListTasks(context.Context, *structpb.Struct) (*structpb.Struct, error)
	FilterTasks(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetTask(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateTask(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateTask(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ToggleTask(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteTask(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func RegisterTaskServiceServer(s grpc.ServiceRegistrar, srv TaskServiceServer) {
	s.RegisterService(&taskServiceDesc, srv)
}

var taskServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*TaskServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("ListTasks", TaskServiceServer.ListTasks),
		unaryMethod("FilterTasks", TaskServiceServer.FilterTasks),
		unaryMethod("GetTask", TaskServiceServer.GetTask),
		unaryMethod("CreateTask", TaskServiceServer.CreateTask),
		unaryMethod("UpdateTask", TaskServiceServer.UpdateTask),
		unaryMethod("ToggleTask", TaskServiceServer.ToggleTask),
		unaryMethod("DeleteTask", TaskServiceServer.DeleteTask),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "todo/v1/task.proto",
}

type structCall func(TaskServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryMethod(name string, call structCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(TaskServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + serviceName + "/" + name,
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(TaskServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
