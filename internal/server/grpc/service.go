package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName    = "sentivault.FileService"
	DownloadMethod = "/" + ServiceName + "/Download"
	DeleteMethod   = "/" + ServiceName + "/Delete"

	// ContentTypeHeader carries the media type of a download in the response header.
	ContentTypeHeader = "content-type-hint"
	// FileNameHeader carries the original filename of a download.
	FileNameHeader = "file-name"
)

// FileServiceServer is the server API for sentivault.FileService.
//
//	service FileService {
//	  rpc Download(google.protobuf.StringValue) returns (stream google.protobuf.BytesValue);
//	  rpc Delete(google.protobuf.StringValue) returns (google.protobuf.Empty);
//	}
type FileServiceServer interface {
	Download(*wrapperspb.StringValue, grpc.ServerStreamingServer[wrapperspb.BytesValue]) error
	Delete(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
}

func RegisterFileServiceServer(s grpc.ServiceRegistrar, srv FileServiceServer) {
	s.RegisterService(&FileServiceDesc, srv)
}

var FileServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FileServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Delete", Handler: deleteHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Download", Handler: downloadHandler, ServerStreams: true},
	},
	Metadata: "sentivault/file_service.proto",
}

func deleteHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FileServiceServer).Delete(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: DeleteMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(FileServiceServer).Delete(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func downloadHandler(srv any, stream grpc.ServerStream) error {
	in := new(wrapperspb.StringValue)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(FileServiceServer).Download(in, &grpc.GenericServerStream[wrapperspb.StringValue, wrapperspb.BytesValue]{ServerStream: stream})
}

// FileServiceClient calls sentivault.FileService.
type FileServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewFileServiceClient(cc grpc.ClientConnInterface) *FileServiceClient {
	return &FileServiceClient{cc: cc}
}

// Download opens a stream of plaintext chunks for id.
func (c *FileServiceClient) Download(ctx context.Context, id string, opts ...grpc.CallOption) (grpc.ServerStreamingClient[wrapperspb.BytesValue], error) {
	stream, err := c.cc.NewStream(ctx, &FileServiceDesc.Streams[0], DownloadMethod, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[wrapperspb.StringValue, wrapperspb.BytesValue]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(wrapperspb.String(id)); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

func (c *FileServiceClient) Delete(ctx context.Context, id string, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, DeleteMethod, wrapperspb.String(id), new(emptypb.Empty), opts...)
}
