package service

import (
	"github.com/humzaiqbal/trash-tracker/internal/models"
	"github.com/humzaiqbal/trash-tracker/internal/roster"
	"github.com/humzaiqbal/trash-tracker/pkg/api"
)

// toRouteViews renders routes for viewer. Emails are dropped.
func toRouteViews(routes []models.Route, viewer models.User, signedIn bool) []api.RouteView {
	hasActive := false
	if signedIn {
		_, hasActive = roster.FindActiveRoute(routes, viewer)
	}
	views := make([]api.RouteView, len(routes))
	for i, r := range routes {
		views[i] = toRouteView(r, viewer, signedIn, hasActive)
	}
	return views
}

func toRouteView(route models.Route, viewer models.User, signedIn, hasActive bool) api.RouteView {
	people := make([]api.PersonView, len(route.People))
	for i, p := range route.People {
		people[i] = api.PersonView{Name: p.Name, AnonymousCount: p.AnonymousCount}
	}

	mine := signedIn && roster.IsAssigned(route, viewer)
	label := api.ActionAssign
	switch {
	case mine:
		label = api.ActionUnassign
	case hasActive:
		label = api.ActionSwitch
	}

	return api.RouteView{
		ID:           route.ID,
		Name:         route.Name,
		People:       people,
		Headcount:    roster.Headcount(route),
		AtMaximum:    roster.AtMaximum(route),
		AssignedToMe: mine,
		ActionLabel:  label,
	}
}
