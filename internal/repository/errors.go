// Package repository implements all database queries for the community
// events API. It uses pgx directly (no ORM) for transparency and
// performance.
package repository

import "errors"

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrUserNotFound is returned when a referenced user account does not exist.
var ErrUserNotFound = errors.New("user not found")

// ErrEventNotPublished is returned when registering for an unpublished event.
var ErrEventNotPublished = errors.New("event is not published")

// ErrAlreadyRegistered is returned when a (event, user) pair already has a
// registration row.
var ErrAlreadyRegistered = errors.New("already registered for this event")
