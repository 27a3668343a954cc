package session

import (
	"fmt"
	"math/rand"
)

// NewID mints a short numeric session identifier, easy to read out loud or
// type on a scanner terminal. There is no collision check against live
// sessions; a colliding create overwrites the older session.
func NewID() string {
	return fmt.Sprintf("%06d", rand.Intn(1_000_000))
}
