// Package models defines the core domain models for the route board.
//
// # Models
//
//   - Route: one cleanup segment from the fixed catalog, with its roster
//   - Person: one signed-up participant, possibly bringing a group
//   - User: the session identity of whoever is using the board
//
// Users are not accounts. A user is whatever name (and optional email)
// they typed at login, hashed into a stable ID with DeriveID so that the
// session identity and the stored roster entries compare equal.
//
// # Storage shape
//
// The shared store holds the whole route list as one JSON document. Older
// writers stored people as bare name strings; those are upgraded to Person
// by the roster normalizer, never here. Types in this package always hold
// the canonical shape.
package models
