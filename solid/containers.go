package solid

import "strings"

// profileSuffix is the conventional WebID document path on a pod.
const profileSuffix = "/profile/card#me"

// Well-known container segments under a pod root.
const (
	InboxSegment   = "/inbox/"
	OfferSegment   = "/payable/"
	PrivateSegment = "/private/"
)

// DeriveContainer maps an owner WebID to one of the pod's well-known
// containers, e.g. https://alice.pod/profile/card#me -> https://alice.pod/inbox/.
// Falls back to trimming the fragment if the WebID does not follow the
// conventional profile path.
func DeriveContainer(webID, segment string) string {
	if strings.Contains(webID, profileSuffix) {
		return strings.Replace(webID, profileSuffix, segment, 1)
	}
	base := webID
	if i := strings.IndexByte(base, '#'); i >= 0 {
		base = base[:i]
	}
	return strings.TrimSuffix(base, "/") + segment
}
