package idgen

import "github.com/google/uuid"

// NewFunc produces globally unique identifiers. Tests swap it for a
// deterministic sequence.
var NewFunc = func() string { return uuid.New().String() }

// New returns a new unique identifier via NewFunc.
func New() string { return NewFunc() }
