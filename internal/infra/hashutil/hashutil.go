// Package hashutil provides content digests for installed wrapper scripts.
package hashutil

import (
	"crypto/sha256"
	"encoding/hex"
)

// ScriptDigest returns the hex sha256 of a wrapper script. The installer
// records it so callers can tell whether a reinstall actually changed the
// wrapper's content.
func ScriptDigest(script string) string {
	sum := sha256.Sum256([]byte(script))
	return hex.EncodeToString(sum[:])
}
