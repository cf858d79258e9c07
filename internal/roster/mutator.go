package roster

import (
	"errors"
	"strings"

	"github.com/humzaiqbal/trash-tracker/internal/models"
)

var (
	ErrRouteNotFound = errors.New("route not found")
	ErrNotAssigned   = errors.New("not signed up for this route")
	ErrInvalidDelta  = errors.New("group size can only change by +1 or -1")
	ErrNotAdmin      = errors.New("admin privileges required")
)

// Outcome describes what ToggleAssignment did.
type Outcome string

const (
	OutcomeAssigned      Outcome = "assigned"
	OutcomeUnassigned    Outcome = "unassigned"
	OutcomeSwitched      Outcome = "switched"
	OutcomeDeclined      Outcome = "declined"
	OutcomeRouteNotFound Outcome = "route_not_found"
)

// Confirmer is asked before a user signed up for from is moved to to.
// Returning false leaves everything as it was.
type Confirmer func(from, to models.Route) bool

// ToggleResult is the next route list plus the IDs of routes whose rosters
// changed, in the order they should be persisted.
type ToggleResult struct {
	Routes  []models.Route
	Outcome Outcome
	Changed []int
}

// Mutator applies roster changes. It carries the admin allow-list used to
// gate the clearing operations; everything else is the same for every caller.
type Mutator struct {
	admins map[string]struct{}
}

// NewMutator creates a Mutator whose admins are the given emails (case-insensitive).
func NewMutator(adminEmails []string) *Mutator {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, email := range adminEmails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email != "" {
			admins[email] = struct{}{}
		}
	}
	return &Mutator{admins: admins}
}

// IsAdmin reports whether the user's email is on the allow-list.
func (m *Mutator) IsAdmin(user models.User) bool {
	if user.Email == "" {
		return false
	}
	_, ok := m.admins[strings.ToLower(strings.TrimSpace(user.Email))]
	return ok
}

// ToggleAssignment signs the user up for the target route, or off it if
// they are already on it.
//
// A user signed up elsewhere is only moved when confirm approves; the move
// carries their AnonymousCount across. An unknown target is a no-op.
func (m *Mutator) ToggleAssignment(routes []models.Route, user models.User, targetID int, confirm Confirmer) ToggleResult {
	next := models.CloneRoutes(routes)
	target := indexOfRoute(next, targetID)
	if target < 0 {
		return ToggleResult{Routes: next, Outcome: OutcomeRouteNotFound}
	}
	me := user.AsPerson()

	if IsAssigned(next[target], user) {
		next[target].People = withoutPerson(next[target].People, me)
		return ToggleResult{Routes: next, Outcome: OutcomeUnassigned, Changed: []int{targetID}}
	}

	var (
		previous []int
		carried  int
		found    bool
	)
	for i := range next {
		if i == target {
			continue
		}
		if idx := indexOfPerson(next[i].People, me); idx >= 0 {
			if !found {
				carried = next[i].People[idx].AnonymousCount
				found = true
			}
			previous = append(previous, i)
		}
	}

	if len(previous) > 0 {
		from := next[previous[0]]
		if confirm == nil || !confirm(from.Clone(), next[target].Clone()) {
			return ToggleResult{Routes: models.CloneRoutes(routes), Outcome: OutcomeDeclined}
		}
		changed := make([]int, 0, len(previous)+1)
		for _, i := range previous {
			next[i].People = withoutPerson(next[i].People, me)
			changed = append(changed, next[i].ID)
		}
		me.AnonymousCount = carried
		next[target].People = append(next[target].People, me)
		return ToggleResult{Routes: next, Outcome: OutcomeSwitched, Changed: append(changed, targetID)}
	}

	next[target].People = append(next[target].People, me)
	return ToggleResult{Routes: next, Outcome: OutcomeAssigned, Changed: []int{targetID}}
}

// AdjustGroupSize changes the user's AnonymousCount on a route by delta
// (+1 or -1), never going below zero. The user must already be signed up.
func (m *Mutator) AdjustGroupSize(routes []models.Route, user models.User, routeID, delta int) ([]models.Route, error) {
	if delta != 1 && delta != -1 {
		return nil, ErrInvalidDelta
	}
	next := models.CloneRoutes(routes)
	ri := indexOfRoute(next, routeID)
	if ri < 0 {
		return nil, ErrRouteNotFound
	}
	pi := indexOfPerson(next[ri].People, user.AsPerson())
	if pi < 0 {
		return nil, ErrNotAssigned
	}
	count := next[ri].People[pi].AnonymousCount + delta
	if count < 0 {
		count = 0
	}
	next[ri].People[pi].AnonymousCount = count
	return next, nil
}

// ClearRoute empties one route's roster and reports how many entries were removed.
func (m *Mutator) ClearRoute(routes []models.Route, caller models.User, routeID int) ([]models.Route, int, error) {
	if !m.IsAdmin(caller) {
		return nil, 0, ErrNotAdmin
	}
	next := models.CloneRoutes(routes)
	ri := indexOfRoute(next, routeID)
	if ri < 0 {
		return nil, 0, ErrRouteNotFound
	}
	removed := len(next[ri].People)
	next[ri].People = []models.Person{}
	return next, removed, nil
}

// ClearAll empties every roster and reports how many entries were removed.
func (m *Mutator) ClearAll(routes []models.Route, caller models.User) ([]models.Route, int, error) {
	if !m.IsAdmin(caller) {
		return nil, 0, ErrNotAdmin
	}
	next := models.CloneRoutes(routes)
	removed := 0
	for i := range next {
		removed += len(next[i].People)
		next[i].People = []models.Person{}
	}
	return next, removed, nil
}

// RouteByID returns the route with the given ID.
func RouteByID(routes []models.Route, id int) (models.Route, bool) {
	if i := indexOfRoute(routes, id); i >= 0 {
		return routes[i], true
	}
	return models.Route{}, false
}

func indexOfRoute(routes []models.Route, id int) int {
	for i, r := range routes {
		if r.ID == id {
			return i
		}
	}
	return -1
}
