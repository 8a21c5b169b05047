package domain

import "errors"

var ErrNotFound = errors.New("not found")
var ErrConflict = errors.New("conflict")
var ErrInvalid = errors.New("invalid input")
var ErrForbidden = errors.New("forbidden")
var ErrUnauthenticated = errors.New("unauthenticated")
var ErrGone = errors.New("no longer available")
