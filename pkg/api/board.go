// Package api holds the request and response messages of the board service.
//
// Messages travel as JSON over Connect; field names follow the camelCase
// used by the stored documents.
package api

// PersonView is a roster entry as other volunteers see it. Person ids are
// derived from emails, so neither is included.
type PersonView struct {
	Name           string `json:"name"`
	AnonymousCount int    `json:"anonymousCount"`
}

// RouteView is a route as rendered for one caller.
type RouteView struct {
	ID           int          `json:"id"`
	Name         string       `json:"name"`
	People       []PersonView `json:"people"`
	Headcount    int          `json:"headcount"`
	AtMaximum    bool         `json:"atMaximum"`
	AssignedToMe bool         `json:"assignedToMe"`
	ActionLabel  string       `json:"actionLabel"`
}

// Action labels shown on a route card.
const (
	ActionAssign   = "Assign Me"
	ActionUnassign = "Unassign Me"
	ActionSwitch   = "Switch Here"
)

// User is the signed-in volunteer.
type User struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	IsAdmin bool   `json:"isAdmin"`
}

type LoginRequest struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type LoginResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

type LogoutRequest struct{}

type LogoutResponse struct{}

type ListRoutesRequest struct{}

type ListRoutesResponse struct {
	Routes []RouteView `json:"routes"`
	// ActiveRouteID is the caller's current route, 0 when none.
	ActiveRouteID int `json:"activeRouteId"`
}

type ToggleAssignmentRequest struct {
	RouteID int `json:"routeId"`
	// ConfirmSwitch approves moving the caller off another route.
	ConfirmSwitch bool `json:"confirmSwitch"`
}

// Toggle outcomes besides the roster outcomes.
const OutcomeConfirmationRequired = "confirmation_required"

// SwitchPrompt asks the caller to confirm leaving FromRoute for ToRoute.
type SwitchPrompt struct {
	FromRoute RouteView `json:"fromRoute"`
	ToRoute   RouteView `json:"toRoute"`
	Message   string    `json:"message"`
}

type ToggleAssignmentResponse struct {
	Outcome      string        `json:"outcome"`
	Routes       []RouteView   `json:"routes"`
	Confirmation *SwitchPrompt `json:"confirmation,omitempty"`
}

type AdjustGroupSizeRequest struct {
	RouteID int `json:"routeId"`
	Delta   int `json:"delta"`
}

type AdjustGroupSizeResponse struct {
	Route RouteView `json:"route"`
}

type ClearRouteRequest struct {
	RouteID int `json:"routeId"`
}

type ClearRouteResponse struct {
	Removed int         `json:"removed"`
	Routes  []RouteView `json:"routes"`
}

type ClearAllRequest struct{}

type ClearAllResponse struct {
	Removed int         `json:"removed"`
	Routes  []RouteView `json:"routes"`
}

type WatchRoutesRequest struct{}

// WatchRoutesResponse is one full snapshot of the board.
type WatchRoutesResponse struct {
	Routes   []RouteView `json:"routes"`
	Revision string      `json:"revision,omitempty"`
	Repaired bool        `json:"repaired,omitempty"`
}
