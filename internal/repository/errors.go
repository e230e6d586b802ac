// Package repository contains the MySQL data access layer.  This file
// defines sentinel errors shared across repositories so handlers can
// map failure scenarios to HTTP responses: ErrForbidden becomes 403,
// ErrConflict becomes 409, the *NotFound values become 404.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource owned by someone else.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot proceed
// because of dependent records, such as removing a facility that
// still has scheduled events.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned by user creation when the email is
// already registered.
var ErrEmailExists = errors.New("email already exists")

// ErrUserNotFound indicates no user matched the lookup.
var ErrUserNotFound = errors.New("user not found")

// ErrFacilityNotFound indicates no facility matched the lookup.
var ErrFacilityNotFound = errors.New("facility not found")

// ErrEventNotFound indicates no event matched the lookup.
var ErrEventNotFound = errors.New("event not found")

// ErrTokenInvalid indicates a refresh token that is unknown, revoked
// or expired.
var ErrTokenInvalid = errors.New("invalid refresh token")
