package store

import "errors"

// ErrDuplicateAccount is returned when seeding collides on an ID or
// username.
var ErrDuplicateAccount = errors.New("account already exists")
