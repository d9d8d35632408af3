// README: Identifier generators for newly created records.
package idgen

import "github.com/google/uuid"

type Generator interface {
	Generate() string
}

// UUID generates random (version 4) UUIDs.
type UUID struct{}

func (UUID) Generate() string {
	return uuid.NewString()
}

// Func adapts a plain function to Generator.
type Func func() string

func (f Func) Generate() string { return f() }
