// Package syncer keeps the route list in step with the shared store.
//
// The store holds the whole route list as one document. Writers patch a
// single route by reading the latest document, replacing that route's slot
// and writing the whole array back. Two writers touching different routes
// no longer clobber each other, but two writers touching the same route
// inside one read-merge-write window still lose one update; the last write
// wins.
package syncer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/humzaiqbal/trash-tracker/internal/metrics"
	"github.com/humzaiqbal/trash-tracker/internal/models"
	"github.com/humzaiqbal/trash-tracker/internal/roster"
	"github.com/humzaiqbal/trash-tracker/internal/storage"
)

// Snapshot is one full view of the route list delivered by Watch.
type Snapshot struct {
	Routes   []models.Route
	Revision string
	// Repaired is set when the stored document was corrupt and Routes is
	// the in-memory repair of it.
	Repaired bool
}

// Option customizes a Synchronizer.
type Option func(*Synchronizer)

// WithMetrics records repairs and writes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Synchronizer) {
		s.metrics = m
	}
}

// Synchronizer reconciles route lists with the shared store.
type Synchronizer struct {
	store   storage.Store
	catalog []models.Route
	metrics *metrics.Metrics
}

// New creates a Synchronizer over store. catalog is the canonical route
// set; its rosters are ignored.
func New(store storage.Store, catalog []models.Route, opts ...Option) *Synchronizer {
	canonical := make([]models.Route, len(catalog))
	for i, r := range catalog {
		canonical[i] = models.Route{ID: r.ID, Name: r.Name, People: []models.Person{}}
	}
	sort.Slice(canonical, func(i, j int) bool { return canonical[i].ID < canonical[j].ID })

	s := &Synchronizer{store: store, catalog: canonical}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Catalog returns the canonical route set with empty rosters, laid out by
// id. Gaps between catalog ids hold placeholder routes.
func (s *Synchronizer) Catalog() []models.Route {
	return s.layout(models.CloneRoutes(s.catalog))
}

// InitializeIfAbsent seeds the store with the catalog when no route
// document exists yet. It reports whether it wrote anything.
func (s *Synchronizer) InitializeIfAbsent(ctx context.Context) (bool, error) {
	_, err := s.store.Get(ctx, storage.RoutesKey)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return false, fmt.Errorf("read routes: %w", err)
	}
	if err := s.write(ctx, s.Catalog()); err != nil {
		return false, err
	}
	slog.Info("Seeded route catalog", "routes", len(s.catalog))
	return true, nil
}

// DetectCorruption reports whether a stored route document needs repair.
// A sound document is an array, or an object keyed by index, with a route
// object in every slot. Each route has a people array and, when it states
// an id, sits at position id-1. Every catalog id must have a slot.
func (s *Synchronizer) DetectCorruption(raw json.RawMessage) bool {
	slots, ok := positionalSlots(raw)
	if !ok {
		return true
	}
	for i, slot := range slots {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(slot, &fields); err != nil || fields == nil {
			return true
		}
		people := bytes.TrimSpace(fields["people"])
		if len(people) == 0 || people[0] != '[' {
			return true
		}
		if stated := fields["id"]; !isNull(stated) {
			if id, ok := roster.StoredRouteID(stated); !ok || id != i+1 {
				return true
			}
		}
	}
	return len(slots) < s.maxCatalogID()
}

// Repair rebuilds the catalog from a corrupt document, re-attaching every
// roster it can still read. Unreadable entries are dropped, as are later
// sign-ups of a person already placed on another route. Readable routes
// outside the catalog are kept at their own positions. The result is laid
// out by id, as it will be stored.
func (s *Synchronizer) Repair(raw json.RawMessage) []models.Route {
	salvaged := map[int][]models.Person{}
	var extras []models.Route

	elems, ok := positionalSlots(raw)
	if !ok {
		elems, ok = roster.Elements(raw)
	}
	if !ok {
		slog.Warn("Route document unreadable, rebuilding catalog with empty rosters")
	}
	for i, elem := range elems {
		if isNull(elem) {
			continue
		}
		route := roster.NormalizeRoute(elem, i)
		if _, seen := salvaged[route.ID]; seen {
			slog.Warn("Duplicate route id in stored document, keeping first", "route_id", route.ID)
			continue
		}
		salvaged[route.ID] = route.People
		if !s.inCatalog(route.ID) {
			extras = append(extras, route)
		}
	}

	placed := []models.Person{}
	keep := func(routeID int, people []models.Person) []models.Person {
		out := []models.Person{}
		for _, p := range people {
			if p.ID == roster.UnknownID {
				slog.Warn("Dropping unreadable roster entry during repair", "route_id", routeID)
				continue
			}
			if containsIdentity(placed, p) {
				slog.Warn("Dropping second sign-up during repair", "route_id", routeID, "person_id", p.ID)
				continue
			}
			placed = append(placed, p)
			out = append(out, p)
		}
		return out
	}

	repaired := models.CloneRoutes(s.catalog)
	for i := range repaired {
		repaired[i].People = keep(repaired[i].ID, salvaged[repaired[i].ID])
	}
	sort.Slice(extras, func(i, j int) bool { return extras[i].ID < extras[j].ID })
	for _, r := range extras {
		r.People = keep(r.ID, r.People)
		repaired = append(repaired, r)
	}
	return s.layout(repaired)
}

// Load returns the current route list. A missing document yields the
// catalog; a corrupt one is repaired and the repair written back.
func (s *Synchronizer) Load(ctx context.Context) ([]models.Route, error) {
	raw, err := s.store.Get(ctx, storage.RoutesKey)
	if errors.Is(err, storage.ErrNotFound) {
		return s.Catalog(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read routes: %w", err)
	}
	if !s.DetectCorruption(raw) {
		return s.normalize(raw), nil
	}

	routes := s.Repair(raw)
	s.metrics.Repair("load")
	if err := s.write(ctx, routes); err != nil {
		slog.Error("Failed to write repaired route document", "error", err)
	} else {
		slog.Warn("Repaired corrupt route document", "routes", len(routes))
	}
	return routes, nil
}

// PersistRoute writes one route into the latest stored document, leaving
// every other route as it was found.
func (s *Synchronizer) PersistRoute(ctx context.Context, route models.Route) error {
	return s.PersistRoutes(ctx, route)
}

// PersistRoutes writes routes into the latest stored document with a single
// read-merge-write. Each route replaces the slot at its id; every other
// slot keeps what was found.
func (s *Synchronizer) PersistRoutes(ctx context.Context, routes ...models.Route) error {
	if len(routes) == 0 {
		return nil
	}
	ids := make([]int, len(routes))
	for i, r := range routes {
		if r.ID < 1 {
			return fmt.Errorf("cannot persist route with id %d", r.ID)
		}
		ids[i] = r.ID
	}
	start := time.Now()
	defer func() { s.metrics.ObserveMerge(time.Since(start).Seconds()) }()

	raw, err := s.store.Get(ctx, storage.RoutesKey)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("read routes: %w", err)
	}

	var slots []json.RawMessage
	switch {
	case raw == nil:
	case s.DetectCorruption(raw):
		slog.Warn("Stored route document corrupt during update, merging into repair", "route_ids", ids)
		s.metrics.Repair("merge")
		for _, r := range s.Repair(raw) {
			slots = setSlot(slots, r.ID, mustMarshal(r))
		}
	default:
		slots, _ = positionalSlots(raw)
	}

	for _, route := range routes {
		encoded, err := json.Marshal(route)
		if err != nil {
			return fmt.Errorf("marshal route %d: %w", route.ID, err)
		}
		slots = setSlot(slots, route.ID, encoded)
	}
	for i, slot := range slots {
		if isNull(slot) {
			slots[i] = mustMarshal(s.placeholder(i + 1))
		}
	}

	doc, err := json.Marshal(slots)
	if err != nil {
		return fmt.Errorf("marshal routes: %w", err)
	}
	err = s.store.Set(ctx, storage.RoutesKey, doc)
	s.metrics.StoreWrite(err)
	if err != nil {
		return fmt.Errorf("write routes: %w", err)
	}
	slog.Debug("Persisted routes", "route_ids", ids)
	return nil
}

// SyncMissingRoutes adds every catalog route absent from local, sorted by
// id, and persists the added routes. changed reports whether any were added.
func (s *Synchronizer) SyncMissingRoutes(ctx context.Context, local []models.Route) ([]models.Route, bool, error) {
	have := make(map[int]struct{}, len(local))
	for _, r := range local {
		have[r.ID] = struct{}{}
	}
	next := models.CloneRoutes(local)
	var added []models.Route
	for _, c := range s.catalog {
		if _, ok := have[c.ID]; !ok {
			added = append(added, c.Clone())
		}
	}
	if len(added) == 0 {
		return next, false, nil
	}
	next = append(next, added...)
	sort.Slice(next, func(i, j int) bool { return next[i].ID < next[j].ID })

	slog.Info("Adding missing catalog routes", "count", len(added))
	if err := s.PersistRoutes(ctx, added...); err != nil {
		return next, true, err
	}
	return next, true, nil
}

// Rebuild forces a repair of whatever is stored and writes the result.
func (s *Synchronizer) Rebuild(ctx context.Context) ([]models.Route, error) {
	raw, err := s.store.Get(ctx, storage.RoutesKey)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("read routes: %w", err)
	}
	routes := s.Repair(raw)
	s.metrics.Repair("manual")
	if err := s.write(ctx, routes); err != nil {
		return nil, err
	}
	slog.Info("Rebuilt route document", "routes", len(routes))
	return routes, nil
}

// Dump returns the stored route document exactly as it is.
func (s *Synchronizer) Dump(ctx context.Context) (json.RawMessage, error) {
	raw, err := s.store.Get(ctx, storage.RoutesKey)
	if err != nil {
		return nil, fmt.Errorf("read routes: %w", err)
	}
	return raw, nil
}

// RegisterProfile stores the user's profile under users/<id> unless one
// already exists, and returns the stored profile.
func (s *Synchronizer) RegisterProfile(ctx context.Context, user models.User) (models.User, bool, error) {
	key := storage.UserKey(user.ID)
	raw, err := s.store.Get(ctx, key)
	if err == nil {
		var existing models.User
		if err := json.Unmarshal(raw, &existing); err == nil && existing.ID == user.ID {
			return existing, false, nil
		}
		slog.Warn("Replacing unreadable user profile", "user_id", user.ID)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return models.User{}, false, fmt.Errorf("read profile: %w", err)
	}

	doc, err := json.Marshal(user)
	if err != nil {
		return models.User{}, false, fmt.Errorf("marshal profile: %w", err)
	}
	if err := s.store.Set(ctx, key, doc); err != nil {
		return models.User{}, false, fmt.Errorf("write profile: %w", err)
	}
	return user, true, nil
}

// write stores routes as the whole document, laid out by id.
func (s *Synchronizer) write(ctx context.Context, routes []models.Route) error {
	doc, err := json.Marshal(s.layout(routes))
	if err != nil {
		return fmt.Errorf("marshal routes: %w", err)
	}
	err = s.store.Set(ctx, storage.RoutesKey, doc)
	s.metrics.StoreWrite(err)
	if err != nil {
		return fmt.Errorf("write routes: %w", err)
	}
	return nil
}

// normalize decodes a sound document and orders it by route id.
func (s *Synchronizer) normalize(raw json.RawMessage) []models.Route {
	routes := roster.NormalizeRoutes(raw)
	sort.SliceStable(routes, func(i, j int) bool { return routes[i].ID < routes[j].ID })
	return routes
}

func (s *Synchronizer) inCatalog(id int) bool {
	for _, c := range s.catalog {
		if c.ID == id {
			return true
		}
	}
	return false
}

// layout places each route at position id-1 and fills the gaps with
// placeholders. Of two routes sharing an id the later one wins.
func (s *Synchronizer) layout(routes []models.Route) []models.Route {
	size := 0
	for _, r := range routes {
		if r.ID > size {
			size = r.ID
		}
	}
	out := make([]models.Route, size)
	filled := make([]bool, size)
	for _, r := range routes {
		if r.ID < 1 {
			slog.Warn("Dropping route without a storage position", "route_id", r.ID, "name", r.Name)
			continue
		}
		out[r.ID-1] = r
		filled[r.ID-1] = true
	}
	for i := range out {
		if !filled[i] {
			out[i] = s.placeholder(i + 1)
		}
	}
	return out
}

func (s *Synchronizer) maxCatalogID() int {
	if len(s.catalog) == 0 {
		return 0
	}
	return s.catalog[len(s.catalog)-1].ID
}

// placeholder is the empty route written into a slot nobody has filled.
func (s *Synchronizer) placeholder(id int) models.Route {
	for _, c := range s.catalog {
		if c.ID == id {
			return c.Clone()
		}
	}
	return models.Route{ID: id, Name: models.PlaceholderName(id), People: []models.Person{}}
}

// positionalSlots lays a stored document out by storage position: arrays
// as they are, objects by their numeric keys with nil in unused positions.
// ok is false for any other value, for non-numeric or negative keys, and
// for two keys naming the same position.
func positionalSlots(raw json.RawMessage) ([]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, false
	}
	if trimmed[0] == '[' {
		return roster.Elements(trimmed)
	}
	if trimmed[0] != '{' {
		return nil, false
	}
	var members map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &members); err != nil {
		return nil, false
	}
	var slots []json.RawMessage
	seen := make(map[int]struct{}, len(members))
	for k, v := range members {
		idx, err := strconv.Atoi(k)
		if err != nil || idx < 0 {
			return nil, false
		}
		if _, dup := seen[idx]; dup {
			return nil, false
		}
		seen[idx] = struct{}{}
		slots = setSlot(slots, idx+1, v)
	}
	return slots, true
}

// setSlot stores value at the slot for route id, growing slots as needed.
func setSlot(slots []json.RawMessage, id int, value json.RawMessage) []json.RawMessage {
	for len(slots) < id {
		slots = append(slots, nil)
	}
	slots[id-1] = value
	return slots
}

func containsIdentity(people []models.Person, p models.Person) bool {
	for _, existing := range people {
		if roster.Matches(existing, p) {
			return true
		}
	}
	return false
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func mustMarshal(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("syncer: marshal %T: %v", v, err))
	}
	return b
}
