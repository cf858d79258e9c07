package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"connectrpc.com/connect"

	"github.com/humzaiqbal/trash-tracker/internal/auth"
	"github.com/humzaiqbal/trash-tracker/internal/metrics"
	"github.com/humzaiqbal/trash-tracker/internal/middleware"
	"github.com/humzaiqbal/trash-tracker/internal/models"
	"github.com/humzaiqbal/trash-tracker/internal/roster"
	"github.com/humzaiqbal/trash-tracker/internal/syncer"
	"github.com/humzaiqbal/trash-tracker/pkg/api"
	"github.com/humzaiqbal/trash-tracker/pkg/api/boardconnect"
)

var (
	ErrNameRequired = errors.New("please enter your name")
	ErrInvalidEmail = errors.New("please enter a valid email address or leave it blank")
)

// BoardService implements the Connect BoardService.
type BoardService struct {
	boardconnect.UnimplementedBoardServiceHandler
	sync    *syncer.Synchronizer
	mutator *roster.Mutator
	tokens  *auth.TokenManager
	metrics *metrics.Metrics
}

// NewBoardService creates a BoardService. m may be nil.
func NewBoardService(sync *syncer.Synchronizer, mutator *roster.Mutator, tokens *auth.TokenManager, m *metrics.Metrics) *BoardService {
	return &BoardService{
		sync:    sync,
		mutator: mutator,
		tokens:  tokens,
		metrics: m,
	}
}

// Login validates the self-reported identity, records the profile and
// issues a session token.
func (s *BoardService) Login(ctx context.Context, req *connect.Request[api.LoginRequest]) (*connect.Response[api.LoginResponse], error) {
	slog.Info("Login request received", "name", req.Msg.Name)

	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, ErrNameRequired)
	}
	email := strings.TrimSpace(req.Msg.Email)
	if email != "" && !validEmail(email) {
		return nil, connect.NewError(connect.CodeInvalidArgument, ErrInvalidEmail)
	}

	user, created, err := s.sync.RegisterProfile(context.WithoutCancel(ctx), *models.NewUser(name, email))
	if err != nil {
		slog.Error("RegisterProfile failed", "error", err)
		return nil, unavailable("signing in", err)
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		slog.Error("Token generation failed", "user_id", user.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	slog.Info("Login successful", "user_id", user.ID, "new_profile", created)

	return connect.NewResponse(&api.LoginResponse{
		User:  s.userView(user),
		Token: token,
	}), nil
}

// Logout is a no-op on the server; the client drops its token.
func (s *BoardService) Logout(ctx context.Context, req *connect.Request[api.LogoutRequest]) (*connect.Response[api.LogoutResponse], error) {
	slog.Info("Logout request received", "user_id", middleware.GetUserID(ctx))
	return connect.NewResponse(&api.LogoutResponse{}), nil
}

// ListRoutes returns the current board as seen by the caller.
func (s *BoardService) ListRoutes(ctx context.Context, req *connect.Request[api.ListRoutesRequest]) (*connect.Response[api.ListRoutesResponse], error) {
	user, signedIn := middleware.UserFromContext(ctx)

	routes, err := s.sync.Load(ctx)
	if err != nil {
		slog.Error("ListRoutes failed", "error", err)
		return nil, unavailable("loading routes", err)
	}

	resp := &api.ListRoutesResponse{Routes: toRouteViews(routes, user, signedIn)}
	if signedIn {
		if active, ok := roster.FindActiveRoute(routes, user); ok {
			resp.ActiveRouteID = active.ID
		}
	}

	slog.Debug("ListRoutes successful", "count", len(routes))

	return connect.NewResponse(resp), nil
}

// ToggleAssignment signs the caller up for a route or off it. Moving off
// another route needs ConfirmSwitch; without it the caller gets a prompt
// and nothing changes.
func (s *BoardService) ToggleAssignment(ctx context.Context, req *connect.Request[api.ToggleAssignmentRequest]) (*connect.Response[api.ToggleAssignmentResponse], error) {
	user, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("ToggleAssignment request received",
		"user_id", user.ID,
		"route_id", req.Msg.RouteID,
		"confirm_switch", req.Msg.ConfirmSwitch,
	)

	routes, err := s.sync.Load(ctx)
	if err != nil {
		slog.Error("ToggleAssignment failed to load routes", "error", err)
		return nil, unavailable("loading routes", err)
	}

	var prompt *api.SwitchPrompt
	confirm := func(from, to models.Route) bool {
		if req.Msg.ConfirmSwitch {
			return true
		}
		prompt = &api.SwitchPrompt{
			FromRoute: toRouteView(from, user, true, true),
			ToRoute:   toRouteView(to, user, true, true),
			Message:   fmt.Sprintf("You are signed up for %s. Switch to %s?", from.Name, to.Name),
		}
		return false
	}

	result := s.mutator.ToggleAssignment(routes, user, req.Msg.RouteID, confirm)
	outcome := string(result.Outcome)
	if result.Outcome == roster.OutcomeDeclined && prompt != nil {
		outcome = api.OutcomeConfirmationRequired
	}
	if result.Outcome == roster.OutcomeRouteNotFound {
		slog.Warn("ToggleAssignment on unknown route", "user_id", user.ID, "route_id", req.Msg.RouteID)
	}

	if len(result.Changed) > 0 {
		changed := make([]models.Route, 0, len(result.Changed))
		for _, id := range result.Changed {
			if r, ok := roster.RouteByID(result.Routes, id); ok {
				changed = append(changed, r)
			}
		}
		if err := s.sync.PersistRoutes(context.WithoutCancel(ctx), changed...); err != nil {
			slog.Error("ToggleAssignment failed to persist", "user_id", user.ID, "error", err)
			return nil, unavailable("saving your sign-up", err)
		}
	}
	s.metrics.Toggle(outcome)

	slog.Info("ToggleAssignment successful", "user_id", user.ID, "route_id", req.Msg.RouteID, "outcome", outcome)

	return connect.NewResponse(&api.ToggleAssignmentResponse{
		Outcome:      outcome,
		Routes:       toRouteViews(result.Routes, user, true),
		Confirmation: prompt,
	}), nil
}

// AdjustGroupSize changes how many unnamed members the caller brings.
func (s *BoardService) AdjustGroupSize(ctx context.Context, req *connect.Request[api.AdjustGroupSizeRequest]) (*connect.Response[api.AdjustGroupSizeResponse], error) {
	user, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("AdjustGroupSize request received", "user_id", user.ID, "route_id", req.Msg.RouteID, "delta", req.Msg.Delta)

	routes, err := s.sync.Load(ctx)
	if err != nil {
		slog.Error("AdjustGroupSize failed to load routes", "error", err)
		return nil, unavailable("loading routes", err)
	}

	next, err := s.mutator.AdjustGroupSize(routes, user, req.Msg.RouteID, req.Msg.Delta)
	switch {
	case errors.Is(err, roster.ErrInvalidDelta):
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, roster.ErrRouteNotFound):
		slog.Warn("AdjustGroupSize on unknown route", "user_id", user.ID, "route_id", req.Msg.RouteID)
		return nil, connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, roster.ErrNotAssigned):
		slog.Warn("AdjustGroupSize by non-member", "user_id", user.ID, "route_id", req.Msg.RouteID)
		return nil, connect.NewError(connect.CodeFailedPrecondition, err)
	case err != nil:
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	route, _ := roster.RouteByID(next, req.Msg.RouteID)
	if err := s.sync.PersistRoute(context.WithoutCancel(ctx), route); err != nil {
		slog.Error("AdjustGroupSize failed to persist", "user_id", user.ID, "error", err)
		return nil, unavailable("saving your group size", err)
	}
	s.metrics.GroupChange(req.Msg.Delta)

	slog.Info("AdjustGroupSize successful", "user_id", user.ID, "route_id", route.ID, "headcount", roster.Headcount(route))

	return connect.NewResponse(&api.AdjustGroupSizeResponse{
		Route: toRouteView(route, user, true, true),
	}), nil
}

// ClearRoute empties one route. Admins only.
func (s *BoardService) ClearRoute(ctx context.Context, req *connect.Request[api.ClearRouteRequest]) (*connect.Response[api.ClearRouteResponse], error) {
	user, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("ClearRoute request received", "user_id", user.ID, "route_id", req.Msg.RouteID)

	routes, err := s.sync.Load(ctx)
	if err != nil {
		slog.Error("ClearRoute failed to load routes", "error", err)
		return nil, unavailable("loading routes", err)
	}

	next, removed, err := s.mutator.ClearRoute(routes, user, req.Msg.RouteID)
	if err != nil {
		return nil, clearError(user, err)
	}

	route, _ := roster.RouteByID(next, req.Msg.RouteID)
	if err := s.sync.PersistRoute(context.WithoutCancel(ctx), route); err != nil {
		slog.Error("ClearRoute failed to persist", "route_id", route.ID, "error", err)
		return nil, unavailable("clearing the route", err)
	}
	s.metrics.Clear(removed)

	slog.Info("Admin cleared route", "admin_id", user.ID, "route_id", route.ID, "removed", removed)

	return connect.NewResponse(&api.ClearRouteResponse{
		Removed: removed,
		Routes:  toRouteViews(next, user, true),
	}), nil
}

// ClearAll empties every route. Admins only.
func (s *BoardService) ClearAll(ctx context.Context, req *connect.Request[api.ClearAllRequest]) (*connect.Response[api.ClearAllResponse], error) {
	user, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("ClearAll request received", "user_id", user.ID)

	routes, err := s.sync.Load(ctx)
	if err != nil {
		slog.Error("ClearAll failed to load routes", "error", err)
		return nil, unavailable("loading routes", err)
	}

	next, removed, err := s.mutator.ClearAll(routes, user)
	if err != nil {
		return nil, clearError(user, err)
	}

	if err := s.sync.PersistRoutes(context.WithoutCancel(ctx), next...); err != nil {
		slog.Error("ClearAll failed to persist", "error", err)
		return nil, unavailable("clearing all routes", err)
	}
	s.metrics.Clear(removed)

	slog.Info("Admin cleared all routes", "admin_id", user.ID, "routes", len(next), "removed", removed)

	return connect.NewResponse(&api.ClearAllResponse{
		Removed: removed,
		Routes:  toRouteViews(next, user, true),
	}), nil
}

// WatchRoutes streams a full board snapshot now and after every change.
func (s *BoardService) WatchRoutes(ctx context.Context, req *connect.Request[api.WatchRoutesRequest], stream *connect.ServerStream[api.WatchRoutesResponse]) error {
	user, signedIn := middleware.UserFromContext(ctx)
	slog.Info("WatchRoutes request received", "user_id", user.ID)

	snapshots, err := s.sync.Watch(ctx)
	if err != nil {
		slog.Error("WatchRoutes failed to subscribe", "error", err)
		return unavailable("watching routes", err)
	}
	s.metrics.WatchStarted()
	defer s.metrics.WatchEnded()

	for snap := range snapshots {
		if err := stream.Send(&api.WatchRoutesResponse{
			Routes:   toRouteViews(snap.Routes, user, signedIn),
			Revision: snap.Revision,
			Repaired: snap.Repaired,
		}); err != nil {
			slog.Debug("WatchRoutes client went away", "user_id", user.ID, "error", err)
			return nil
		}
	}
	return nil
}

func (s *BoardService) userView(user models.User) api.User {
	return api.User{
		ID:      user.ID,
		Name:    user.Name,
		Email:   user.Email,
		IsAdmin: s.mutator.IsAdmin(user),
	}
}

func requireUser(ctx context.Context) (models.User, error) {
	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		return models.User{}, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return user, nil
}

// validEmail accepts a bare address only, not "Name <addr>".
func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email && addr.Name == ""
}

func clearError(user models.User, err error) error {
	switch {
	case errors.Is(err, roster.ErrNotAdmin):
		slog.Warn("Clear attempted by non-admin", "user_id", user.ID)
		return connect.NewError(connect.CodePermissionDenied, err)
	case errors.Is(err, roster.ErrRouteNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

func unavailable(action string, err error) error {
	return connect.NewError(connect.CodeUnavailable, fmt.Errorf("the board could not be reached while %s, please try again: %w", action, err))
}
