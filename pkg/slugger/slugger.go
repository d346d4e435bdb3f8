// Package slugger generates URL slugs for directory entities.
package slugger

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/gosimple/slug"
)

const suffixBytes = 4

// Make returns the plain slug for a name, used for categories where the slug
// is the identity of the lazily-created row.
func Make(name string) string {
	return slug.Make(name)
}

// Unique returns slugify(name) plus a random hex suffix. Business slugs must
// be globally unique even when two businesses share a name.
func Unique(name string) string {
	buf := make([]byte, suffixBytes)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the process is in a bad way; fall back to
		// the bare slug and let the unique constraint catch collisions.
		return slug.Make(name)
	}
	return slug.Make(name) + "-" + hex.EncodeToString(buf)
}
