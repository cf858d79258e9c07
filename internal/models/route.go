package models

import "fmt"

// Route is one cleanup segment and the people signed up for it.
type Route struct {
	// ID is 1-based, assigned once, and doubles as the storage index (ID-1).
	ID int `json:"id"`

	// Name is the display label shown on the route card.
	Name string `json:"name"`

	// People is the roster in sign-up order.
	People []Person `json:"people"`
}

// Person is the canonical roster entry.
type Person struct {
	// ID is derived from email+name (or name alone) with DeriveID.
	ID string `json:"id"`

	// Name is the display name.
	Name string `json:"name"`

	// Email is private to the person and the store; views must not expose it.
	Email string `json:"email,omitempty"`

	// AnonymousCount is the number of extra unnamed group members. Never negative.
	AnonymousCount int `json:"anonymousCount"`
}

// Clone returns a deep copy of the route.
func (r Route) Clone() Route {
	out := r
	out.People = make([]Person, len(r.People))
	copy(out.People, r.People)
	return out
}

// CloneRoutes deep-copies a route list.
func CloneRoutes(routes []Route) []Route {
	out := make([]Route, len(routes))
	for i, r := range routes {
		out[i] = r.Clone()
	}
	return out
}

// PlaceholderName is the label given to a route that arrived without one.
func PlaceholderName(id int) string {
	return fmt.Sprintf("Route %d", id)
}

// DefaultCatalog is the built-in route catalog used when no catalog file
// is configured.
func DefaultCatalog() []Route {
	names := []string{
		"Main Street",
		"Riverside Path",
		"Library Loop",
		"Market Square",
		"Park Avenue",
		"School Lane",
		"Station Road",
		"Harbor Walk",
		"Church Street",
		"Mill Creek Trail",
	}
	routes := make([]Route, len(names))
	for i, name := range names {
		routes[i] = Route{ID: i + 1, Name: name, People: []Person{}}
	}
	return routes
}
