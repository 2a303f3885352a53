// Package activityapi implements the activities HTTP API consumed by the
// board: a directory of activities that participants can sign up for and be
// removed from.
//
// Rosters live in a Store. MemoryStore keeps them in memory only; DiskStore
// additionally writes them to a JSON state file after every change.
package activityapi

import (
	"errors"
	"fmt"

	"github.com/nomis52/activityboard/directory"
)

var (
	ErrActivityNotFound = errors.New("activity not found")
	ErrAlreadySignedUp  = errors.New("student already signed up")
	ErrActivityFull     = errors.New("activity is full")
	ErrNotRegistered    = errors.New("student not registered")
)

// Store holds the activity directory.
type Store interface {
	// Activities returns a copy of the current directory.
	Activities() directory.Directory
	// Signup adds email to the named activity.
	Signup(activity, email string) error
	// Unregister removes email from the named activity.
	Unregister(activity, email string) error
}

// signup returns d with email added to activity.
func signup(d directory.Directory, activity, email string) (directory.Directory, error) {
	a, ok := d.Get(activity)
	if !ok {
		return d, fmt.Errorf("%w: %q", ErrActivityNotFound, activity)
	}
	if a.HasParticipant(email) {
		return d, ErrAlreadySignedUp
	}
	if a.Full() {
		return d, ErrActivityFull
	}
	return d.WithParticipant(activity, email), nil
}

// unregister returns d with email removed from activity.
func unregister(d directory.Directory, activity, email string) (directory.Directory, error) {
	a, ok := d.Get(activity)
	if !ok {
		return d, fmt.Errorf("%w: %q", ErrActivityNotFound, activity)
	}
	if !a.HasParticipant(email) {
		return d, ErrNotRegistered
	}
	return d.WithoutParticipant(activity, email), nil
}
