package grpc

// proto.go defines the gRPC server interface derived from bib/guarantee/v1/messaging.proto.
// It stands in for buf-generated code; messages travel with the JSON codec.

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const messagingServiceName = "bib.guarantee.v1.MessagingService"

// MessagingServiceServer is the server API for MessagingService.
type MessagingServiceServer interface {
	SubmitMessage(context.Context, *SubmitMessageRequest) (*SubmitMessageResponse, error)
	ReceiveMessage(context.Context, *ReceiveMessageRequest) (*ReceiveMessageResponse, error)
	ValidateMessage(context.Context, *ValidateMessageRequest) (*ValidateMessageResponse, error)
	GetMessage(context.Context, *GetMessageRequest) (*GetMessageResponse, error)
	QueryMessages(context.Context, *QueryMessagesRequest) (*QueryMessagesResponse, error)
	SearchMessages(context.Context, *SearchMessagesRequest) (*ListMessagesResponse, error)
	ListMessagesByDateRange(context.Context, *ListMessagesByDateRangeRequest) (*ListMessagesResponse, error)
	GetThread(context.Context, *GetThreadRequest) (*GetThreadResponse, error)
	GetRelatedMessages(context.Context, *GetRelatedMessagesRequest) (*ListMessagesResponse, error)
	UpdateMessageStatus(context.Context, *UpdateMessageStatusRequest) (*UpdateMessageStatusResponse, error)
	RunScenario(context.Context, *RunScenarioRequest) (*RunScenarioResponse, error)
	ListScenarios(context.Context, *ListScenariosRequest) (*ListScenariosResponse, error)
	ClearMessages(context.Context, *ClearMessagesRequest) (*ClearMessagesResponse, error)
	GetStatistics(context.Context, *GetStatisticsRequest) (*GetStatisticsResponse, error)
	ListRecentMessages(context.Context, *ListRecentMessagesRequest) (*ListMessagesResponse, error)
	SubscribeEvents(*SubscribeEventsRequest, MessagingService_SubscribeEventsServer) error
	mustEmbedUnimplementedMessagingServiceServer()
}

// MessagingService_SubscribeEventsServer is the server side of the event stream.
type MessagingService_SubscribeEventsServer interface { //nolint:revive // generated-style name
	Send(*Event) error
	grpclib.ServerStream
}

type messagingServiceSubscribeEventsServer struct {
	grpclib.ServerStream
}

func (x *messagingServiceSubscribeEventsServer) Send(m *Event) error {
	return x.ServerStream.SendMsg(m)
}

// UnimplementedMessagingServiceServer provides forward-compatible default implementations.
type UnimplementedMessagingServiceServer struct{}

func unimplemented(method string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", method)
}

func (UnimplementedMessagingServiceServer) SubmitMessage(context.Context, *SubmitMessageRequest) (*SubmitMessageResponse, error) {
	return nil, unimplemented("SubmitMessage")
}
func (UnimplementedMessagingServiceServer) ReceiveMessage(context.Context, *ReceiveMessageRequest) (*ReceiveMessageResponse, error) {
	return nil, unimplemented("ReceiveMessage")
}
func (UnimplementedMessagingServiceServer) ValidateMessage(context.Context, *ValidateMessageRequest) (*ValidateMessageResponse, error) {
	return nil, unimplemented("ValidateMessage")
}
func (UnimplementedMessagingServiceServer) GetMessage(context.Context, *GetMessageRequest) (*GetMessageResponse, error) {
	return nil, unimplemented("GetMessage")
}
func (UnimplementedMessagingServiceServer) QueryMessages(context.Context, *QueryMessagesRequest) (*QueryMessagesResponse, error) {
	return nil, unimplemented("QueryMessages")
}
func (UnimplementedMessagingServiceServer) SearchMessages(context.Context, *SearchMessagesRequest) (*ListMessagesResponse, error) {
	return nil, unimplemented("SearchMessages")
}
func (UnimplementedMessagingServiceServer) ListMessagesByDateRange(context.Context, *ListMessagesByDateRangeRequest) (*ListMessagesResponse, error) {
	return nil, unimplemented("ListMessagesByDateRange")
}
func (UnimplementedMessagingServiceServer) GetThread(context.Context, *GetThreadRequest) (*GetThreadResponse, error) {
	return nil, unimplemented("GetThread")
}
func (UnimplementedMessagingServiceServer) GetRelatedMessages(context.Context, *GetRelatedMessagesRequest) (*ListMessagesResponse, error) {
	return nil, unimplemented("GetRelatedMessages")
}
func (UnimplementedMessagingServiceServer) UpdateMessageStatus(context.Context, *UpdateMessageStatusRequest) (*UpdateMessageStatusResponse, error) {
	return nil, unimplemented("UpdateMessageStatus")
}
func (UnimplementedMessagingServiceServer) RunScenario(context.Context, *RunScenarioRequest) (*RunScenarioResponse, error) {
	return nil, unimplemented("RunScenario")
}
func (UnimplementedMessagingServiceServer) ListScenarios(context.Context, *ListScenariosRequest) (*ListScenariosResponse, error) {
	return nil, unimplemented("ListScenarios")
}
func (UnimplementedMessagingServiceServer) ClearMessages(context.Context, *ClearMessagesRequest) (*ClearMessagesResponse, error) {
	return nil, unimplemented("ClearMessages")
}
func (UnimplementedMessagingServiceServer) GetStatistics(context.Context, *GetStatisticsRequest) (*GetStatisticsResponse, error) {
	return nil, unimplemented("GetStatistics")
}
func (UnimplementedMessagingServiceServer) ListRecentMessages(context.Context, *ListRecentMessagesRequest) (*ListMessagesResponse, error) {
	return nil, unimplemented("ListRecentMessages")
}
func (UnimplementedMessagingServiceServer) SubscribeEvents(*SubscribeEventsRequest, MessagingService_SubscribeEventsServer) error {
	return unimplemented("SubscribeEvents")
}
func (UnimplementedMessagingServiceServer) mustEmbedUnimplementedMessagingServiceServer() {}

// RegisterMessagingServiceServer registers the MessagingServiceServer with the gRPC server.
func RegisterMessagingServiceServer(s grpclib.ServiceRegistrar, srv MessagingServiceServer) {
	s.RegisterService(&_MessagingService_serviceDesc, srv)
}

var _MessagingService_serviceDesc = grpclib.ServiceDesc{ //nolint:revive // gRPC handler registration
	ServiceName: messagingServiceName,
	HandlerType: (*MessagingServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		{MethodName: "SubmitMessage", Handler: unaryHandler("SubmitMessage", MessagingServiceServer.SubmitMessage)},
		{MethodName: "ReceiveMessage", Handler: unaryHandler("ReceiveMessage", MessagingServiceServer.ReceiveMessage)},
		{MethodName: "ValidateMessage", Handler: unaryHandler("ValidateMessage", MessagingServiceServer.ValidateMessage)},
		{MethodName: "GetMessage", Handler: unaryHandler("GetMessage", MessagingServiceServer.GetMessage)},
		{MethodName: "QueryMessages", Handler: unaryHandler("QueryMessages", MessagingServiceServer.QueryMessages)},
		{MethodName: "SearchMessages", Handler: unaryHandler("SearchMessages", MessagingServiceServer.SearchMessages)},
		{MethodName: "ListMessagesByDateRange", Handler: unaryHandler("ListMessagesByDateRange", MessagingServiceServer.ListMessagesByDateRange)},
		{MethodName: "GetThread", Handler: unaryHandler("GetThread", MessagingServiceServer.GetThread)},
		{MethodName: "GetRelatedMessages", Handler: unaryHandler("GetRelatedMessages", MessagingServiceServer.GetRelatedMessages)},
		{MethodName: "UpdateMessageStatus", Handler: unaryHandler("UpdateMessageStatus", MessagingServiceServer.UpdateMessageStatus)},
		{MethodName: "RunScenario", Handler: unaryHandler("RunScenario", MessagingServiceServer.RunScenario)},
		{MethodName: "ListScenarios", Handler: unaryHandler("ListScenarios", MessagingServiceServer.ListScenarios)},
		{MethodName: "ClearMessages", Handler: unaryHandler("ClearMessages", MessagingServiceServer.ClearMessages)},
		{MethodName: "GetStatistics", Handler: unaryHandler("GetStatistics", MessagingServiceServer.GetStatistics)},
		{MethodName: "ListRecentMessages", Handler: unaryHandler("ListRecentMessages", MessagingServiceServer.ListRecentMessages)},
	},
	Streams: []grpclib.StreamDesc{
		{
			StreamName:    "SubscribeEvents",
			Handler:       _MessagingService_SubscribeEvents_Handler,
			ServerStreams: true,
		},
	},
}

// unaryHandler adapts a typed server method to a grpc.MethodHandler.
func unaryHandler[Req, Resp any](
	method string,
	call func(MessagingServiceServer, context.Context, *Req) (*Resp, error),
) grpclib.MethodHandler {
	fullMethod := "/" + messagingServiceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(MessagingServiceServer), ctx, in)
		}
		info := &grpclib.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(MessagingServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func _MessagingService_SubscribeEvents_Handler(srv any, stream grpclib.ServerStream) error { //nolint:revive // gRPC handler registration
	in := new(SubscribeEventsRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(MessagingServiceServer).SubscribeEvents(in, &messagingServiceSubscribeEventsServer{stream})
}
