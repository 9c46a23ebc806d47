// Package entity defines the opaque entity identifier shared with the host
// application, and the transform lookup the input core needs from it.
package entity

import "gonum.org/v1/gonum/mat"

// ID identifies an entity owned by the host application's entity system.
type ID uint32

// Nil is the null entity.
const Nil ID = 0

// TransformProvider resolves an entity to its world-from-entity matrix.
// The second return is false when the entity has no transform; callers treat
// that as a handled outcome, not an error.
type TransformProvider interface {
	WorldFromEntity(e ID) (*mat.Dense, bool)
}
