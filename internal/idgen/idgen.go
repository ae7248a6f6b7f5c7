package idgen

import "github.com/google/uuid"

// NewFunc returns a new globally unique job identifier.
var NewFunc = func() string { return uuid.New().String() }

// New returns a new job identifier.
func New() string { return NewFunc() }
