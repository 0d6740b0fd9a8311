package models

import "time"

// UserUpdate is a partial update to a user record. Nil fields are left
// untouched by the merge.
type UserUpdate struct {
	Email        *string
	Name         *string
	LastSignedIn *time.Time
}

// ApplyUserUpdate merges a partial update into an existing user record and
// returns the next value. The input is not mutated.
func ApplyUserUpdate(existing User, upd UserUpdate) User {
	next := existing
	if upd.Email != nil {
		next.Email = *upd.Email
	}
	if upd.Name != nil {
		next.Name = *upd.Name
	}
	if upd.LastSignedIn != nil {
		next.LastSignedIn = *upd.LastSignedIn
	}
	return next
}
