// Package slugpair models the (truncated, full) slug pairs looked up in the
// archive and derives their checkpoint identifiers.
package slugpair

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"strings"
)

// suffixSegments is the number of trailing hyphen-delimited segments that
// distinguish headline variants of the same page.
const suffixSegments = 2

// Pair is one unit of enrichment work.
type Pair struct {
	Truncated string `json:"truncated_slug"`
	Full      string `json:"full_slug"`
}

// ID is the checkpoint key of a Pair: 32 lowercase hex characters.
type ID string

// FromSlug builds the pair for a full slug.
func FromSlug(slug string) Pair {
	return Pair{Truncated: Truncate(slug), Full: slug}
}

// Truncate removes the last two hyphen-delimited segments of slug. Slugs with
// two or fewer segments truncate to the empty string.
func Truncate(slug string) string {
	parts := strings.Split(slug, "-")
	if len(parts) <= suffixSegments {
		return ""
	}
	return strings.Join(parts[:len(parts)-suffixSegments], "-")
}

// ID returns the pair's checkpoint identifier.
func (p Pair) ID() ID {
	return Identify(p.Truncated, p.Full)
}

// Identify derives the identifier for a (truncated, full) slug pair. The
// digest covers "<len(truncated)>:<truncated>_<full>", where the byte length
// prefix keeps ("a", "b_c") and ("a_b", "c") apart.
func Identify(truncated, full string) ID {
	var b strings.Builder
	b.Grow(len(truncated) + len(full) + 8)
	b.WriteString(strconv.Itoa(len(truncated)))
	b.WriteByte(':')
	b.WriteString(truncated)
	b.WriteByte('_')
	b.WriteString(full)
	sum := md5.Sum([]byte(b.String()))
	return ID(hex.EncodeToString(sum[:]))
}

// Valid reports whether id has the shape Identify produces.
func (id ID) Valid() bool {
	if len(id) != md5.Size*2 {
		return false
	}
	for _, r := range id {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}

func (id ID) String() string {
	return string(id)
}
