// Package user defines the user record in its storage and wire shapes and
// the conversions between them.
package user

import "time"

// User is the storage representation persisted by the stores.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Request is the wire representation exchanged over HTTP. Values are
// immutable once built; conversions return new instances.
type Request struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Empty returns the sentinel value meaning "not found / not created".
// Callers distinguish it by field identity via IsEmpty, never by type.
func Empty() Request {
	return Request{}
}

// IsEmpty reports whether r is the sentinel value.
func (r Request) IsEmpty() bool {
	return r.ID == "" && r.Email == "" && r.Name == ""
}

// FromUser converts a storage record into its wire representation.
func FromUser(u User) Request {
	return Request{ID: u.ID, Email: u.Email, Name: u.Name}
}

// ToUser converts the wire representation into a storage record. Timestamps
// are owned by the store and left zero here.
func (r Request) ToUser() User {
	return User{ID: r.ID, Email: r.Email, Name: r.Name}
}
