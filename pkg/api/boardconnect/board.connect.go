// Package boardconnect wires the board service messages to Connect.
//
// It mirrors the layout of protoc-gen-connect-go output, but the messages
// are plain Go structs carried by the JSON codec in codec.go.
package boardconnect

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/humzaiqbal/trash-tracker/pkg/api"
)

// BoardServiceName is the fully-qualified name of the BoardService service.
const BoardServiceName = "trashboard.v1.BoardService"

// These constants are the fully-qualified names of the RPCs defined in this
// package. They're exposed at runtime as Spec.Procedure and as the final two
// segments of the HTTP route.
const (
	BoardServiceLoginProcedure            = "/trashboard.v1.BoardService/Login"
	BoardServiceLogoutProcedure           = "/trashboard.v1.BoardService/Logout"
	BoardServiceListRoutesProcedure       = "/trashboard.v1.BoardService/ListRoutes"
	BoardServiceToggleAssignmentProcedure = "/trashboard.v1.BoardService/ToggleAssignment"
	BoardServiceAdjustGroupSizeProcedure  = "/trashboard.v1.BoardService/AdjustGroupSize"
	BoardServiceClearRouteProcedure       = "/trashboard.v1.BoardService/ClearRoute"
	BoardServiceClearAllProcedure         = "/trashboard.v1.BoardService/ClearAll"
	BoardServiceWatchRoutesProcedure      = "/trashboard.v1.BoardService/WatchRoutes"
)

// BoardServiceClient is a client for the trashboard.v1.BoardService service.
type BoardServiceClient interface {
	Login(context.Context, *connect.Request[api.LoginRequest]) (*connect.Response[api.LoginResponse], error)
	Logout(context.Context, *connect.Request[api.LogoutRequest]) (*connect.Response[api.LogoutResponse], error)
	ListRoutes(context.Context, *connect.Request[api.ListRoutesRequest]) (*connect.Response[api.ListRoutesResponse], error)
	ToggleAssignment(context.Context, *connect.Request[api.ToggleAssignmentRequest]) (*connect.Response[api.ToggleAssignmentResponse], error)
	AdjustGroupSize(context.Context, *connect.Request[api.AdjustGroupSizeRequest]) (*connect.Response[api.AdjustGroupSizeResponse], error)
	ClearRoute(context.Context, *connect.Request[api.ClearRouteRequest]) (*connect.Response[api.ClearRouteResponse], error)
	ClearAll(context.Context, *connect.Request[api.ClearAllRequest]) (*connect.Response[api.ClearAllResponse], error)
	WatchRoutes(context.Context, *connect.Request[api.WatchRoutesRequest]) (*connect.ServerStreamForClient[api.WatchRoutesResponse], error)
}

// NewBoardServiceClient constructs a client for the trashboard.v1.BoardService
// service. The JSON codec is always used; opts may add interceptors and the like.
//
// The URL supplied here should be the base URL for the Connect server (for
// example, http://api.acme.com or https://acme.com/grpc).
func NewBoardServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) BoardServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)
	return &boardServiceClient{
		login:            connect.NewClient[api.LoginRequest, api.LoginResponse](httpClient, baseURL+BoardServiceLoginProcedure, opts...),
		logout:           connect.NewClient[api.LogoutRequest, api.LogoutResponse](httpClient, baseURL+BoardServiceLogoutProcedure, opts...),
		listRoutes:       connect.NewClient[api.ListRoutesRequest, api.ListRoutesResponse](httpClient, baseURL+BoardServiceListRoutesProcedure, opts...),
		toggleAssignment: connect.NewClient[api.ToggleAssignmentRequest, api.ToggleAssignmentResponse](httpClient, baseURL+BoardServiceToggleAssignmentProcedure, opts...),
		adjustGroupSize:  connect.NewClient[api.AdjustGroupSizeRequest, api.AdjustGroupSizeResponse](httpClient, baseURL+BoardServiceAdjustGroupSizeProcedure, opts...),
		clearRoute:       connect.NewClient[api.ClearRouteRequest, api.ClearRouteResponse](httpClient, baseURL+BoardServiceClearRouteProcedure, opts...),
		clearAll:         connect.NewClient[api.ClearAllRequest, api.ClearAllResponse](httpClient, baseURL+BoardServiceClearAllProcedure, opts...),
		watchRoutes:      connect.NewClient[api.WatchRoutesRequest, api.WatchRoutesResponse](httpClient, baseURL+BoardServiceWatchRoutesProcedure, opts...),
	}
}

// boardServiceClient implements BoardServiceClient.
type boardServiceClient struct {
	login            *connect.Client[api.LoginRequest, api.LoginResponse]
	logout           *connect.Client[api.LogoutRequest, api.LogoutResponse]
	listRoutes       *connect.Client[api.ListRoutesRequest, api.ListRoutesResponse]
	toggleAssignment *connect.Client[api.ToggleAssignmentRequest, api.ToggleAssignmentResponse]
	adjustGroupSize  *connect.Client[api.AdjustGroupSizeRequest, api.AdjustGroupSizeResponse]
	clearRoute       *connect.Client[api.ClearRouteRequest, api.ClearRouteResponse]
	clearAll         *connect.Client[api.ClearAllRequest, api.ClearAllResponse]
	watchRoutes      *connect.Client[api.WatchRoutesRequest, api.WatchRoutesResponse]
}

func (c *boardServiceClient) Login(ctx context.Context, req *connect.Request[api.LoginRequest]) (*connect.Response[api.LoginResponse], error) {
	return c.login.CallUnary(ctx, req)
}

func (c *boardServiceClient) Logout(ctx context.Context, req *connect.Request[api.LogoutRequest]) (*connect.Response[api.LogoutResponse], error) {
	return c.logout.CallUnary(ctx, req)
}

func (c *boardServiceClient) ListRoutes(ctx context.Context, req *connect.Request[api.ListRoutesRequest]) (*connect.Response[api.ListRoutesResponse], error) {
	return c.listRoutes.CallUnary(ctx, req)
}

func (c *boardServiceClient) ToggleAssignment(ctx context.Context, req *connect.Request[api.ToggleAssignmentRequest]) (*connect.Response[api.ToggleAssignmentResponse], error) {
	return c.toggleAssignment.CallUnary(ctx, req)
}

func (c *boardServiceClient) AdjustGroupSize(ctx context.Context, req *connect.Request[api.AdjustGroupSizeRequest]) (*connect.Response[api.AdjustGroupSizeResponse], error) {
	return c.adjustGroupSize.CallUnary(ctx, req)
}

func (c *boardServiceClient) ClearRoute(ctx context.Context, req *connect.Request[api.ClearRouteRequest]) (*connect.Response[api.ClearRouteResponse], error) {
	return c.clearRoute.CallUnary(ctx, req)
}

func (c *boardServiceClient) ClearAll(ctx context.Context, req *connect.Request[api.ClearAllRequest]) (*connect.Response[api.ClearAllResponse], error) {
	return c.clearAll.CallUnary(ctx, req)
}

func (c *boardServiceClient) WatchRoutes(ctx context.Context, req *connect.Request[api.WatchRoutesRequest]) (*connect.ServerStreamForClient[api.WatchRoutesResponse], error) {
	return c.watchRoutes.CallServerStream(ctx, req)
}

// BoardServiceHandler is an implementation of the trashboard.v1.BoardService service.
type BoardServiceHandler interface {
	Login(context.Context, *connect.Request[api.LoginRequest]) (*connect.Response[api.LoginResponse], error)
	Logout(context.Context, *connect.Request[api.LogoutRequest]) (*connect.Response[api.LogoutResponse], error)
	ListRoutes(context.Context, *connect.Request[api.ListRoutesRequest]) (*connect.Response[api.ListRoutesResponse], error)
	ToggleAssignment(context.Context, *connect.Request[api.ToggleAssignmentRequest]) (*connect.Response[api.ToggleAssignmentResponse], error)
	AdjustGroupSize(context.Context, *connect.Request[api.AdjustGroupSizeRequest]) (*connect.Response[api.AdjustGroupSizeResponse], error)
	ClearRoute(context.Context, *connect.Request[api.ClearRouteRequest]) (*connect.Response[api.ClearRouteResponse], error)
	ClearAll(context.Context, *connect.Request[api.ClearAllRequest]) (*connect.Response[api.ClearAllResponse], error)
	WatchRoutes(context.Context, *connect.Request[api.WatchRoutesRequest], *connect.ServerStream[api.WatchRoutesResponse]) error
}

// NewBoardServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself.
func NewBoardServiceHandler(svc BoardServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)
	loginHandler := connect.NewUnaryHandler(BoardServiceLoginProcedure, svc.Login, opts...)
	logoutHandler := connect.NewUnaryHandler(BoardServiceLogoutProcedure, svc.Logout, opts...)
	listRoutesHandler := connect.NewUnaryHandler(BoardServiceListRoutesProcedure, svc.ListRoutes, opts...)
	toggleAssignmentHandler := connect.NewUnaryHandler(BoardServiceToggleAssignmentProcedure, svc.ToggleAssignment, opts...)
	adjustGroupSizeHandler := connect.NewUnaryHandler(BoardServiceAdjustGroupSizeProcedure, svc.AdjustGroupSize, opts...)
	clearRouteHandler := connect.NewUnaryHandler(BoardServiceClearRouteProcedure, svc.ClearRoute, opts...)
	clearAllHandler := connect.NewUnaryHandler(BoardServiceClearAllProcedure, svc.ClearAll, opts...)
	watchRoutesHandler := connect.NewServerStreamHandler(BoardServiceWatchRoutesProcedure, svc.WatchRoutes, opts...)
	return "/trashboard.v1.BoardService/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case BoardServiceLoginProcedure:
			loginHandler.ServeHTTP(w, r)
		case BoardServiceLogoutProcedure:
			logoutHandler.ServeHTTP(w, r)
		case BoardServiceListRoutesProcedure:
			listRoutesHandler.ServeHTTP(w, r)
		case BoardServiceToggleAssignmentProcedure:
			toggleAssignmentHandler.ServeHTTP(w, r)
		case BoardServiceAdjustGroupSizeProcedure:
			adjustGroupSizeHandler.ServeHTTP(w, r)
		case BoardServiceClearRouteProcedure:
			clearRouteHandler.ServeHTTP(w, r)
		case BoardServiceClearAllProcedure:
			clearAllHandler.ServeHTTP(w, r)
		case BoardServiceWatchRoutesProcedure:
			watchRoutesHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// UnimplementedBoardServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedBoardServiceHandler struct{}

func (UnimplementedBoardServiceHandler) Login(context.Context, *connect.Request[api.LoginRequest]) (*connect.Response[api.LoginResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("trashboard.v1.BoardService.Login is not implemented"))
}

func (UnimplementedBoardServiceHandler) Logout(context.Context, *connect.Request[api.LogoutRequest]) (*connect.Response[api.LogoutResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("trashboard.v1.BoardService.Logout is not implemented"))
}

func (UnimplementedBoardServiceHandler) ListRoutes(context.Context, *connect.Request[api.ListRoutesRequest]) (*connect.Response[api.ListRoutesResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("trashboard.v1.BoardService.ListRoutes is not implemented"))
}

func (UnimplementedBoardServiceHandler) ToggleAssignment(context.Context, *connect.Request[api.ToggleAssignmentRequest]) (*connect.Response[api.ToggleAssignmentResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("trashboard.v1.BoardService.ToggleAssignment is not implemented"))
}

func (UnimplementedBoardServiceHandler) AdjustGroupSize(context.Context, *connect.Request[api.AdjustGroupSizeRequest]) (*connect.Response[api.AdjustGroupSizeResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("trashboard.v1.BoardService.AdjustGroupSize is not implemented"))
}

func (UnimplementedBoardServiceHandler) ClearRoute(context.Context, *connect.Request[api.ClearRouteRequest]) (*connect.Response[api.ClearRouteResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("trashboard.v1.BoardService.ClearRoute is not implemented"))
}

func (UnimplementedBoardServiceHandler) ClearAll(context.Context, *connect.Request[api.ClearAllRequest]) (*connect.Response[api.ClearAllResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("trashboard.v1.BoardService.ClearAll is not implemented"))
}

func (UnimplementedBoardServiceHandler) WatchRoutes(context.Context, *connect.Request[api.WatchRoutesRequest], *connect.ServerStream[api.WatchRoutesResponse]) error {
	return connect.NewError(connect.CodeUnimplemented, errors.New("trashboard.v1.BoardService.WatchRoutes is not implemented"))
}
