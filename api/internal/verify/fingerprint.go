package verify

import (
	"strings"

	"github.com/jasmere27/verifact/api/internal/util"
)

// Fingerprint is the content identity of a canonical text, used only as a
// cache key.
type Fingerprint string

// MakeFingerprint lowercases, collapses whitespace runs and hashes, so
// reformatted copies of the same text map to the same key.
func MakeFingerprint(canonicalText string) Fingerprint {
	norm := strings.ToLower(util.CollapseWhitespace(canonicalText))
	return Fingerprint(util.SHA256Hex([]byte(norm)))
}
