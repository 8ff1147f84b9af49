package types

import "errors"

var ErrNotFound = errors.New("requested item not found")
var ErrConflict = errors.New("item already exists or conflict")
var ErrUnauthenticated = errors.New("authentication required or invalid credentials")
var ErrForbidden = errors.New("action forbidden")

// ErrMailUnavailable marks a failure reported by the SMTP transport, as
// opposed to a failure building the message itself.
var ErrMailUnavailable = errors.New("mail transport unavailable")
