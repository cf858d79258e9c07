// Package roster holds the pure route-roster logic: normalizing stored
// records, matching identities, and applying sign-up changes.
//
// Nothing in this package talks to the store. Every operation takes a route
// list and returns a new one; callers persist the result.
package roster

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/humzaiqbal/trash-tracker/internal/models"
)

const (
	// UnknownName and UnknownID form the fallback record for entries that
	// cannot be read at all.
	UnknownName = "Unknown"
	UnknownID   = "unknown"
)

type storedKind int

const (
	kindInvalid storedKind = iota
	kindLegacy
	kindObject
)

// StoredPerson is a roster entry exactly as it was found in the store: a
// bare legacy name string, a (possibly partial) object, or something
// unreadable. Normalize turns any of them into a models.Person.
type StoredPerson struct {
	kind   storedKind
	legacy string

	id      string
	name    string
	email   string
	count   int
	coerced bool
}

// LegacyPerson returns the stored form of a bare name string.
func LegacyPerson(name string) StoredPerson {
	return StoredPerson{kind: kindLegacy, legacy: name}
}

// UnmarshalJSON never fails; shapes it cannot use are recorded as invalid.
func (p *StoredPerson) UnmarshalJSON(data []byte) error {
	*p = decodeStoredPerson(data)
	return nil
}

func decodeStoredPerson(data []byte) StoredPerson {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return StoredPerson{}
	}
	switch t := v.(type) {
	case string:
		if strings.TrimSpace(t) == "" {
			return StoredPerson{}
		}
		return StoredPerson{kind: kindLegacy, legacy: t}
	case map[string]any:
		p := StoredPerson{
			kind:  kindObject,
			id:    stringField(t, "id"),
			name:  stringField(t, "name"),
			email: stringField(t, "email"),
		}
		p.count, p.coerced = countField(t["anonymousCount"])
		if p.id == "" && p.name == "" {
			p.kind = kindInvalid
		}
		return p
	default:
		return StoredPerson{}
	}
}

// Normalize returns the canonical record and whether the stored entry was
// already canonical.
func (p StoredPerson) Normalize() (models.Person, bool) {
	switch p.kind {
	case kindLegacy:
		return models.Person{Name: p.legacy, ID: models.Slugify(p.legacy)}, false
	case kindObject:
		person := models.Person{
			ID:             p.id,
			Name:           p.name,
			Email:          p.email,
			AnonymousCount: p.count,
		}
		if person.ID != "" {
			return person, !p.coerced
		}
		person.ID = models.DeriveID(p.name, p.email)
		return person, false
	default:
		return models.Person{Name: UnknownName, ID: UnknownID}, false
	}
}

// NormalizePeople decodes a stored people value into canonical records.
//
// It never fails: a missing or non-sequence value yields an empty slice,
// unreadable entries become the Unknown record, and duplicate identities
// keep only their first entry. Anything that was not already canonical is
// logged.
func NormalizePeople(raw json.RawMessage) []models.Person {
	people := []models.Person{}
	if isAbsent(raw) {
		return people
	}
	elems, ok := Elements(raw)
	if !ok {
		slog.Warn("Roster people is not a sequence, treating as empty", "raw", truncate(raw))
		return people
	}
	for i, elem := range elems {
		person, canonical := decodeStoredPerson(elem).Normalize()
		if !canonical {
			if person.ID == UnknownID {
				slog.Warn("Unreadable roster entry replaced with fallback", "index", i, "raw", truncate(elem))
			} else {
				slog.Debug("Upgraded roster entry to canonical shape", "index", i, "person_id", person.ID)
			}
		}
		if containsIdentity(people, person) {
			slog.Warn("Dropping duplicate roster entry", "index", i, "person_id", person.ID)
			continue
		}
		people = append(people, person)
	}
	return people
}

// NormalizeRoute decodes one stored route. index is its position in the
// document and supplies the ID and name when those are missing.
func NormalizeRoute(raw json.RawMessage, index int) models.Route {
	route := models.Route{ID: index + 1, People: []models.Person{}}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		slog.Warn("Stored route is not an object, using placeholder", "index", index, "raw", truncate(raw))
		route.Name = models.PlaceholderName(route.ID)
		return route
	}
	if id, ok := StoredRouteID(fields["id"]); ok && id > 0 {
		route.ID = id
	} else {
		slog.Warn("Stored route has no usable id", "index", index, "assigned_id", route.ID)
	}
	var name string
	if err := json.Unmarshal(fields["name"], &name); err != nil || strings.TrimSpace(name) == "" {
		name = models.PlaceholderName(route.ID)
	}
	route.Name = name
	route.People = NormalizePeople(fields["people"])
	return route
}

// NormalizeRoutes decodes a whole stored route document, which may be an
// array of routes or an object keyed by index.
func NormalizeRoutes(raw json.RawMessage) []models.Route {
	elems, ok := Elements(raw)
	if !ok {
		slog.Warn("Route document is not a sequence", "raw", truncate(raw))
		return []models.Route{}
	}
	routes := make([]models.Route, 0, len(elems))
	for i, elem := range elems {
		if isAbsent(elem) {
			// Sparse slots left by index-keyed writers.
			continue
		}
		routes = append(routes, NormalizeRoute(elem, i))
	}
	return routes
}

// Elements splits a JSON array, or the values of a JSON object, into its
// raw members. Object members are ordered by numeric key where possible.
// ok is false for any other JSON value.
func Elements(raw json.RawMessage) ([]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, false
	}
	switch trimmed[0] {
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(trimmed, &elems); err != nil {
			return nil, false
		}
		return elems, true
	case '{':
		var members map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &members); err != nil {
			return nil, false
		}
		keys := make([]string, 0, len(members))
		for k := range members {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return keyLess(keys[i], keys[j]) })
		elems := make([]json.RawMessage, len(keys))
		for i, k := range keys {
			elems[i] = members[k]
		}
		return elems, true
	default:
		return nil, false
	}
}

func keyLess(a, b string) bool {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	switch {
	case aerr == nil && berr == nil:
		return ai < bi
	case aerr == nil:
		return true
	case berr == nil:
		return false
	default:
		return a < b
	}
}

func containsIdentity(people []models.Person, p models.Person) bool {
	for _, existing := range people {
		if Matches(existing, p) {
			return true
		}
	}
	return false
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// countField reads an anonymousCount value. coerced reports that the value
// was present but had to be changed to fit (negative, fractional, or not a number).
func countField(v any) (count int, coerced bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		if t < 0 || math.IsNaN(t) {
			return 0, true
		}
		if t != math.Trunc(t) {
			return int(t), true
		}
		return int(t), false
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil || n < 0 {
			return 0, true
		}
		return n, true
	default:
		return 0, true
	}
}

// StoredRouteID reads a stored route id, written either as a whole number
// or as a numeric string.
func StoredRouteID(raw json.RawMessage) (int, bool) {
	if isAbsent(raw) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		if f != math.Trunc(f) {
			return 0, false
		}
		return int(f), true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		return n, err == nil
	}
	return 0, false
}

func truncate(raw json.RawMessage) string {
	const max = 120
	s := string(raw)
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
