package roster

import "github.com/humzaiqbal/trash-tracker/internal/models"

// MaxHeadcount is the advisory group size at which a route shows as full.
// It never blocks a sign-up.
const MaxHeadcount = 5

// Headcount counts named participants plus the unnamed members they bring.
func Headcount(route models.Route) int {
	total := len(route.People)
	for _, p := range route.People {
		total += p.AnonymousCount
	}
	return total
}

// AtMaximum reports whether the route has reached MaxHeadcount.
func AtMaximum(route models.Route) bool {
	return Headcount(route) >= MaxHeadcount
}
