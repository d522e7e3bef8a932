package grpc

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// Client calls MessagingService over the JSON codec, so no generated stubs
// are needed on the client side either.
type Client struct {
	conn   *grpc.ClientConn
	health healthpb.HealthClient
}

// Dial connects to addr with the given transport credentials.
func Dial(addr string, creds credentials.TransportCredentials, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(creds)}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &Client{conn: conn, health: healthpb.NewHealthClient(conn)}, nil
}

// Close closes the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func invoke[Resp any](ctx context.Context, c *Client, method string, req any) (*Resp, error) {
	if c == nil || c.conn == nil {
		return nil, status.Error(codes.Unavailable, "messaging service not connected")
	}
	resp := new(Resp)
	if err := c.conn.Invoke(ctx, "/"+messagingServiceName+"/"+method, req, resp, CallOption()); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) SubmitMessage(ctx context.Context, req *SubmitMessageRequest) (*SubmitMessageResponse, error) {
	return invoke[SubmitMessageResponse](ctx, c, "SubmitMessage", req)
}

func (c *Client) ReceiveMessage(ctx context.Context, req *ReceiveMessageRequest) (*ReceiveMessageResponse, error) {
	return invoke[ReceiveMessageResponse](ctx, c, "ReceiveMessage", req)
}

func (c *Client) ValidateMessage(ctx context.Context, req *ValidateMessageRequest) (*ValidateMessageResponse, error) {
	return invoke[ValidateMessageResponse](ctx, c, "ValidateMessage", req)
}

func (c *Client) GetMessage(ctx context.Context, req *GetMessageRequest) (*GetMessageResponse, error) {
	return invoke[GetMessageResponse](ctx, c, "GetMessage", req)
}

func (c *Client) QueryMessages(ctx context.Context, req *QueryMessagesRequest) (*QueryMessagesResponse, error) {
	return invoke[QueryMessagesResponse](ctx, c, "QueryMessages", req)
}

func (c *Client) SearchMessages(ctx context.Context, req *SearchMessagesRequest) (*ListMessagesResponse, error) {
	return invoke[ListMessagesResponse](ctx, c, "SearchMessages", req)
}

func (c *Client) ListMessagesByDateRange(ctx context.Context, req *ListMessagesByDateRangeRequest) (*ListMessagesResponse, error) {
	return invoke[ListMessagesResponse](ctx, c, "ListMessagesByDateRange", req)
}

func (c *Client) GetRelatedMessages(ctx context.Context, req *GetRelatedMessagesRequest) (*ListMessagesResponse, error) {
	return invoke[ListMessagesResponse](ctx, c, "GetRelatedMessages", req)
}

func (c *Client) GetThread(ctx context.Context, req *GetThreadRequest) (*GetThreadResponse, error) {
	return invoke[GetThreadResponse](ctx, c, "GetThread", req)
}

func (c *Client) UpdateMessageStatus(ctx context.Context, req *UpdateMessageStatusRequest) (*UpdateMessageStatusResponse, error) {
	return invoke[UpdateMessageStatusResponse](ctx, c, "UpdateMessageStatus", req)
}

func (c *Client) RunScenario(ctx context.Context, req *RunScenarioRequest) (*RunScenarioResponse, error) {
	return invoke[RunScenarioResponse](ctx, c, "RunScenario", req)
}

func (c *Client) ListScenarios(ctx context.Context) (*ListScenariosResponse, error) {
	return invoke[ListScenariosResponse](ctx, c, "ListScenarios", &ListScenariosRequest{})
}

func (c *Client) ClearMessages(ctx context.Context) (*ClearMessagesResponse, error) {
	return invoke[ClearMessagesResponse](ctx, c, "ClearMessages", &ClearMessagesRequest{})
}

func (c *Client) GetStatistics(ctx context.Context) (*GetStatisticsResponse, error) {
	return invoke[GetStatisticsResponse](ctx, c, "GetStatistics", &GetStatisticsRequest{})
}

func (c *Client) ListRecentMessages(ctx context.Context, req *ListRecentMessagesRequest) (*ListMessagesResponse, error) {
	return invoke[ListMessagesResponse](ctx, c, "ListRecentMessages", req)
}

var subscribeEventsStreamDesc = &grpc.StreamDesc{StreamName: "SubscribeEvents", ServerStreams: true}

// SubscribeEvents opens the event stream and calls fn for each event until
// ctx is cancelled, the server ends the stream or fn returns an error.
func (c *Client) SubscribeEvents(ctx context.Context, req *SubscribeEventsRequest, fn func(*Event) error) error {
	stream, err := c.conn.NewStream(ctx, subscribeEventsStreamDesc,
		"/"+messagingServiceName+"/SubscribeEvents", CallOption())
	if err != nil {
		return fmt.Errorf("open event stream: %w", err)
	}
	if err := stream.SendMsg(req); err != nil {
		return fmt.Errorf("send subscription: %w", err)
	}
	if err := stream.CloseSend(); err != nil {
		return fmt.Errorf("close send: %w", err)
	}
	for {
		evt := new(Event)
		if err := stream.RecvMsg(evt); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := fn(evt); err != nil {
			return err
		}
	}
}

// CheckHealth queries the gRPC health service.
func (c *Client) CheckHealth(ctx context.Context) (healthpb.HealthCheckResponse_ServingStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	resp, err := c.health.Check(ctx, &healthpb.HealthCheckRequest{Service: HealthServiceName})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, fmt.Errorf("health check: %w", err)
	}
	return resp.GetStatus(), nil
}
