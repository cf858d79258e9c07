package roster

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/humzaiqbal/trash-tracker/internal/models"
)

func threeRoutes() []models.Route {
	return []models.Route{
		{ID: 1, Name: "Main Street", People: []models.Person{}},
		{ID: 2, Name: "Riverside Path", People: []models.Person{}},
		{ID: 3, Name: "Library Loop", People: []models.Person{}},
	}
}

func bob() models.User {
	return models.User{Name: "Bob", Email: "b@x.com", ID: "bx_bob"}
}

func alwaysConfirm(from, to models.Route) bool { return true }

func never(from, to models.Route) bool { return false }

func TestMatches(t *testing.T) {
	tests := []struct {
		name string
		a, b models.Person
		want bool
	}{
		{"same id", models.Person{ID: "x", Name: "A"}, models.Person{ID: "x", Name: "B"}, true},
		{"different id same name", models.Person{ID: "x", Name: "A"}, models.Person{ID: "y", Name: "A"}, false},
		{"email ignores case", models.Person{Email: "A@X.com", Name: "A"}, models.Person{Email: "a@x.COM", Name: "B"}, true},
		{"one id falls to email", models.Person{ID: "x", Email: "a@x.com"}, models.Person{Email: "a@x.com"}, true},
		{"different email", models.Person{Email: "a@x.com", Name: "A"}, models.Person{Email: "b@x.com", Name: "A"}, false},
		{"name fallback", models.Person{Name: "Carol"}, models.Person{ID: "carol", Name: "Carol"}, true},
		{"name is case sensitive", models.Person{Name: "carol"}, models.Person{Name: "Carol"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(tt.a, tt.b); got != tt.want {
				t.Errorf("Matches(a, b) = %v, want %v", got, tt.want)
			}
			if got := Matches(tt.b, tt.a); got != tt.want {
				t.Errorf("Matches(b, a) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestToggleAssignUnassign(t *testing.T) {
	m := NewMutator(nil)
	routes := threeRoutes()

	res := m.ToggleAssignment(routes, bob(), 1, nil)
	if res.Outcome != OutcomeAssigned {
		t.Fatalf("outcome = %s, want assigned", res.Outcome)
	}
	want := []models.Person{{Name: "Bob", Email: "b@x.com", ID: "bx_bob", AnonymousCount: 0}}
	if diff := cmp.Diff(want, res.Routes[0].People); diff != "" {
		t.Errorf("route 1 people (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1}, res.Changed); diff != "" {
		t.Errorf("changed (-want +got):\n%s", diff)
	}
	if len(routes[0].People) != 0 {
		t.Error("input routes were modified")
	}

	res = m.ToggleAssignment(res.Routes, bob(), 1, nil)
	if res.Outcome != OutcomeUnassigned {
		t.Fatalf("outcome = %s, want unassigned", res.Outcome)
	}
	if len(res.Routes[0].People) != 0 {
		t.Errorf("expected empty roster, got %+v", res.Routes[0].People)
	}
}

func TestToggleSwitchCarriesGroupSize(t *testing.T) {
	m := NewMutator(nil)
	routes := threeRoutes()
	routes[0].People = []models.Person{{Name: "Bob", Email: "b@x.com", ID: "bx_bob", AnonymousCount: 2}}

	var asked []string
	confirm := func(from, to models.Route) bool {
		asked = append(asked, from.Name, to.Name)
		return true
	}
	res := m.ToggleAssignment(routes, bob(), 2, confirm)
	if res.Outcome != OutcomeSwitched {
		t.Fatalf("outcome = %s, want switched", res.Outcome)
	}
	if diff := cmp.Diff([]string{"Main Street", "Riverside Path"}, asked); diff != "" {
		t.Errorf("confirmation routes (-want +got):\n%s", diff)
	}
	if len(res.Routes[0].People) != 0 {
		t.Errorf("route 1 should be empty, got %+v", res.Routes[0].People)
	}
	want := []models.Person{{Name: "Bob", Email: "b@x.com", ID: "bx_bob", AnonymousCount: 2}}
	if diff := cmp.Diff(want, res.Routes[1].People); diff != "" {
		t.Errorf("route 2 people (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1, 2}, res.Changed); diff != "" {
		t.Errorf("changed (-want +got):\n%s", diff)
	}
}

func TestToggleSwitchDeclined(t *testing.T) {
	m := NewMutator(nil)
	routes := threeRoutes()
	routes[0].People = []models.Person{bob().AsPerson()}

	res := m.ToggleAssignment(routes, bob(), 2, never)
	if res.Outcome != OutcomeDeclined {
		t.Fatalf("outcome = %s, want declined", res.Outcome)
	}
	if len(res.Changed) != 0 {
		t.Errorf("declined switch reported changes: %v", res.Changed)
	}
	if diff := cmp.Diff(routes, res.Routes); diff != "" {
		t.Errorf("routes changed after decline (-want +got):\n%s", diff)
	}

	res = m.ToggleAssignment(routes, bob(), 2, nil)
	if res.Outcome != OutcomeDeclined {
		t.Errorf("nil confirmer should decline, got %s", res.Outcome)
	}
}

func TestToggleUnknownRouteIsNoop(t *testing.T) {
	m := NewMutator(nil)
	routes := threeRoutes()
	res := m.ToggleAssignment(routes, bob(), 99, alwaysConfirm)
	if res.Outcome != OutcomeRouteNotFound {
		t.Fatalf("outcome = %s, want route_not_found", res.Outcome)
	}
	if diff := cmp.Diff(routes, res.Routes); diff != "" {
		t.Errorf("routes changed (-want +got):\n%s", diff)
	}
}

func TestToggleKeepsSingleActiveRoute(t *testing.T) {
	m := NewMutator(nil)
	routes := threeRoutes()
	user := bob()
	sequence := []int{1, 2, 2, 3, 1, 1, 3, 2, 99, 3}

	for step, target := range sequence {
		routes = m.ToggleAssignment(routes, user, target, alwaysConfirm).Routes
		active := 0
		for _, r := range routes {
			if IsAssigned(r, user) {
				active++
			}
		}
		if active > 1 {
			t.Fatalf("step %d (target %d): user on %d routes", step, target, active)
		}
	}
}

func TestToggleSwitchRepairsDoubleSignup(t *testing.T) {
	m := NewMutator(nil)
	routes := threeRoutes()
	routes[0].People = []models.Person{bob().AsPerson()}
	routes[1].People = []models.Person{bob().AsPerson()}

	res := m.ToggleAssignment(routes, bob(), 3, alwaysConfirm)
	if diff := cmp.Diff([]int{1, 2, 3}, res.Changed); diff != "" {
		t.Errorf("changed (-want +got):\n%s", diff)
	}
	for _, r := range res.Routes[:2] {
		if len(r.People) != 0 {
			t.Errorf("route %d still has %+v", r.ID, r.People)
		}
	}
}

func TestLegacyRecordMatchesByName(t *testing.T) {
	people := NormalizePeople([]byte(`["Carol"]`))
	route := models.Route{ID: 1, Name: "Main Street", People: people}

	if !IsAssigned(route, models.User{Name: "Carol"}) {
		t.Error("expected name fallback to match legacy record")
	}
	if !IsAssigned(route, *models.NewUser("Carol", "")) {
		t.Error("expected derived id to match legacy record")
	}
	if IsAssigned(route, models.User{Name: "carol"}) {
		t.Error("name fallback must be case sensitive")
	}

	res := NewMutator(nil).ToggleAssignment([]models.Route{route}, models.User{Name: "Carol"}, 1, nil)
	if res.Outcome != OutcomeUnassigned || len(res.Routes[0].People) != 0 {
		t.Errorf("expected Carol to be removed, got %s %+v", res.Outcome, res.Routes[0].People)
	}
}

func TestFindActiveRoute(t *testing.T) {
	routes := threeRoutes()
	if _, ok := FindActiveRoute(routes, bob()); ok {
		t.Fatal("expected no active route")
	}
	routes[2].People = []models.Person{bob().AsPerson()}
	got, ok := FindActiveRoute(routes, bob())
	if !ok || got.ID != 3 {
		t.Errorf("FindActiveRoute() = %d, %v; want 3, true", got.ID, ok)
	}
}

func TestAdjustGroupSize(t *testing.T) {
	m := NewMutator(nil)
	routes := threeRoutes()
	routes[0].People = []models.Person{bob().AsPerson()}

	next, err := m.AdjustGroupSize(routes, bob(), 1, 1)
	if err != nil {
		t.Fatalf("AdjustGroupSize(+1): %v", err)
	}
	if got := next[0].People[0].AnonymousCount; got != 1 {
		t.Errorf("count = %d, want 1", got)
	}
	if routes[0].People[0].AnonymousCount != 0 {
		t.Error("input routes were modified")
	}

	for i := 0; i < 5; i++ {
		next, err = m.AdjustGroupSize(next, bob(), 1, -1)
		if err != nil {
			t.Fatalf("AdjustGroupSize(-1): %v", err)
		}
		if got := next[0].People[0].AnonymousCount; got < 0 {
			t.Fatalf("count went negative: %d", got)
		}
	}
	if got := next[0].People[0].AnonymousCount; got != 0 {
		t.Errorf("count = %d, want 0", got)
	}
}

func TestAdjustGroupSizeErrors(t *testing.T) {
	m := NewMutator(nil)
	routes := threeRoutes()
	routes[0].People = []models.Person{bob().AsPerson()}

	tests := []struct {
		name    string
		routeID int
		delta   int
		wantErr error
	}{
		{"not a member", 2, 1, ErrNotAssigned},
		{"unknown route", 42, 1, ErrRouteNotFound},
		{"bad delta", 1, 2, ErrInvalidDelta},
		{"zero delta", 1, 0, ErrInvalidDelta},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.AdjustGroupSize(routes, bob(), tt.routeID, tt.delta)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestClearRequiresAdmin(t *testing.T) {
	m := NewMutator([]string{" Admin@Example.com "})
	admin := models.User{Name: "Ada", Email: "admin@example.com"}
	routes := threeRoutes()
	routes[0].People = []models.Person{bob().AsPerson(), {ID: "carol", Name: "Carol"}}
	routes[2].People = []models.Person{{ID: "dave", Name: "Dave"}}

	if _, _, err := m.ClearRoute(routes, bob(), 1); !errors.Is(err, ErrNotAdmin) {
		t.Errorf("ClearRoute by non-admin: err = %v, want ErrNotAdmin", err)
	}
	if _, _, err := m.ClearAll(routes, models.User{Name: "Ada"}); !errors.Is(err, ErrNotAdmin) {
		t.Errorf("ClearAll without email: err = %v, want ErrNotAdmin", err)
	}

	next, removed, err := m.ClearRoute(routes, admin, 1)
	if err != nil {
		t.Fatalf("ClearRoute: %v", err)
	}
	if removed != 2 || len(next[0].People) != 0 || len(next[2].People) != 1 {
		t.Errorf("ClearRoute removed %d, routes %+v", removed, next)
	}
	if _, _, err := m.ClearRoute(routes, admin, 77); !errors.Is(err, ErrRouteNotFound) {
		t.Errorf("ClearRoute unknown route: err = %v", err)
	}

	next, removed, err = m.ClearAll(routes, admin)
	if err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	if removed != 3 {
		t.Errorf("ClearAll removed %d, want 3", removed)
	}
	for _, r := range next {
		if r.People == nil || len(r.People) != 0 {
			t.Errorf("route %d people = %#v, want empty", r.ID, r.People)
		}
	}
}

func TestHeadcountCountsGroups(t *testing.T) {
	route := models.Route{ID: 1, People: []models.Person{
		{ID: "a", AnonymousCount: 2},
		{ID: "b", AnonymousCount: 1},
	}}
	if got := Headcount(route); got != 5 {
		t.Errorf("Headcount() = %d, want 5", got)
	}
	if !AtMaximum(route) {
		t.Error("expected route at maximum")
	}
	route.People[0].AnonymousCount = 0
	if AtMaximum(route) {
		t.Error("expected route below maximum")
	}
}
