package acl

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// GrantKey derives the deterministic identifier of a grant from the
// (grantee, resource) pair: 0x-prefixed Keccak-256 of "webid,resource".
// Repeated grants to the same pair share one identifier, which is what makes
// renewal last-write-wins.
func GrantKey(granteeWebID, resourceURL string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(granteeWebID + "," + resourceURL))
	return "0x" + hex.EncodeToString(h.Sum(nil))
}
