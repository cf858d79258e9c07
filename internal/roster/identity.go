package roster

import (
	"strings"

	"github.com/humzaiqbal/trash-tracker/internal/models"
)

// Matches reports whether a and b denote the same participant.
//
// The first rule that applies decides:
//  1. both IDs set: IDs must be equal
//  2. both emails set: emails must be equal, ignoring case
//  3. otherwise: names must be equal, case-sensitively
func Matches(a, b models.Person) bool {
	if a.ID != "" && b.ID != "" {
		return a.ID == b.ID
	}
	if a.Email != "" && b.Email != "" {
		return strings.EqualFold(a.Email, b.Email)
	}
	return a.Name == b.Name
}

// IsAssigned reports whether user appears in the route's roster.
func IsAssigned(route models.Route, user models.User) bool {
	return indexOfPerson(route.People, user.AsPerson()) >= 0
}

// FindActiveRoute returns the first route the user is signed up for.
func FindActiveRoute(routes []models.Route, user models.User) (models.Route, bool) {
	for _, r := range routes {
		if IsAssigned(r, user) {
			return r, true
		}
	}
	return models.Route{}, false
}

func indexOfPerson(people []models.Person, p models.Person) int {
	for i, existing := range people {
		if Matches(existing, p) {
			return i
		}
	}
	return -1
}

// withoutPerson returns people minus every entry matching p.
func withoutPerson(people []models.Person, p models.Person) []models.Person {
	out := make([]models.Person, 0, len(people))
	for _, existing := range people {
		if !Matches(existing, p) {
			out = append(out, existing)
		}
	}
	return out
}
