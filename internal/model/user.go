// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents one registered participant and their exercise history.
//
// Two identifiers on purpose: ID is the internal primary key (xid, sortable,
// never shown to clients), PublicID is the short identifier clients pass in
// query strings and form bodies. Keeping them separate means the public
// surface never leaks storage details, and the public format can stay short
// enough for a human to type.
//
// The Client* fields are provenance metadata copied verbatim from request
// headers at creation time. They are untrusted, opaque strings, stored for
// audit value only, never parsed and never used for any decision.
type User struct {
	ID             string     `json:"-"`
	PublicID       string     `json:"id"`
	Username       string     `json:"username"`
	Exercises      []Exercise `json:"exercises"`
	ClientIP       string     `json:"-"`
	ClientLanguage string     `json:"-"`
	ClientSoftware string     `json:"-"`
	CreatedAt      time.Time  `json:"-"`
}

// Exercise is one logged activity, owned by exactly one user. Entries are
// append-only: created via the add operation, never updated or deleted, and
// they live exactly as long as their owning user.
//
// Done is not set by any operation; it exists in stored records from the
// system this replaces, so it is kept for wire compatibility and is always
// false.
type Exercise struct {
	Description string    `json:"description"`
	Duration    float64   `json:"duration"` // minutes
	Date        time.Time `json:"date"`
	Done        bool      `json:"done"`
}

// UserSummary is the projection returned by the user listing endpoint.
// The capitalised "ID" JSON key matches the published API shape.
type UserSummary struct {
	Username string `json:"username"`
	PublicID string `json:"ID"`
}
