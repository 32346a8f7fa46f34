package domain

import "errors"

// ErrUserExists is returned by the credential store when an insert collides
// with an existing username or email.
var ErrUserExists = errors.New("user already exists")
