package baseline

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"

	"implint/internal/rule"
)

// Fingerprint derives a stable identity for a violation from its rule,
// file, module, and message. Byte offsets and line numbers are left out
// on purpose: a finding accepted into the baseline stays accepted when
// unrelated edits move it around the file.
func Fingerprint(v rule.Violation) string {
	h, _ := blake2b.New256(nil)
	for _, part := range []string{v.Rule, v.Location.Path, v.Module, v.Message} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
