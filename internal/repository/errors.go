// Package repository holds the MySQL implementation of booking persistence.
package repository

import "errors"

// ErrConflict is returned when the stored row no longer matches the state a
// write was based on, such as a status change whose previous status differs
// from the database.  The booking service rolls the in-memory change back.
var ErrConflict = errors.New("conflict")
