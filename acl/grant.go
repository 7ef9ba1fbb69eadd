// Package acl mutates permission documents: it appends time-bounded read
// grants after a verified payment and removes grants whose window has
// elapsed. Owner/control entries in the same document are never touched; only
// entries carrying an explicit end instant are revocation candidates.
package acl

import (
	"time"

	graphkit "github.com/open-rails/paykit/graph"
)

// Grant is one time-bounded read authorization as written into a permission
// document.
type Grant struct {
	// ID is the GrantKey fragment identifier within the document.
	ID           string
	GranteeWebID string
	ResourceURL  string
	ValidFrom    time.Time
	ValidUntil   time.Time
}

// instantFormat is how validity bounds are written: RFC 3339 UTC, matching
// the xsd:dateTimeStamp datatype on the literal.
const instantFormat = time.RFC3339

// Add appends a read grant for granteeWebID on resourceURL to the permission
// document, valid from now until now + duration. A previous grant with the
// same identifier is replaced (last-write-wins), which is how renewals extend
// an existing window.
func Add(doc *graphkit.Doc, granteeWebID, resourceURL string, now time.Time, durationMinutes int) Grant {
	g := Grant{
		ID:           GrantKey(granteeWebID, resourceURL),
		GranteeWebID: granteeWebID,
		ResourceURL:  resourceURL,
		ValidFrom:    now.UTC(),
		ValidUntil:   now.UTC().Add(time.Duration(durationMinutes) * time.Minute),
	}
	frag := "#" + g.ID
	startFrag := frag + "-start"
	endFrag := frag + "-end"

	// Renewal: drop the previous incarnation before writing the new window.
	doc.RemoveAbout(frag)
	doc.RemoveAbout(startFrag)
	doc.RemoveAbout(endFrag)

	doc.AddResource(frag, graphkit.RDFType, graphkit.ACLAuthorization)
	doc.AddResource(frag, graphkit.RDFType, graphkit.TimeTemporalEntity)
	doc.AddResource(frag, graphkit.ACLAccessTo, resourceURL)
	doc.AddResource(frag, graphkit.ACLAgent, granteeWebID)
	doc.AddResource(frag, graphkit.ACLMode, graphkit.ACLRead)
	doc.AddResource(frag, graphkit.TimeHasBeginning, startFrag)
	doc.AddResource(frag, graphkit.TimeHasEnd, endFrag)

	doc.AddResource(startFrag, graphkit.RDFType, graphkit.TimeInstant)
	doc.AddLiteral(startFrag, graphkit.TimeInXSDDateTime, g.ValidFrom.Format(instantFormat), graphkit.XSDDateTimeStamp)
	doc.AddResource(endFrag, graphkit.RDFType, graphkit.TimeInstant)
	doc.AddLiteral(endFrag, graphkit.TimeInXSDDateTime, g.ValidUntil.Format(instantFormat), graphkit.XSDDateTimeStamp)

	return g
}

// RevokeExpired removes every grant whose end instant is at or before now,
// together with its two temporal sub-entities, and returns the number of
// grants removed. Entries with no time:hasEnd relation (the owner's permanent
// grants) are never candidates. Calling it again with the same now is a
// no-op.
func RevokeExpired(doc *graphkit.Doc, now time.Time) int {
	type expired struct {
		grant, start, end string
	}
	var victims []expired

	for grant, end := range doc.Links(graphkit.TimeHasEnd) {
		raw, ok := doc.Literal(end, graphkit.TimeInXSDDateTime)
		if !ok {
			continue
		}
		until, err := time.Parse(instantFormat, raw)
		if err != nil {
			// An unparseable bound is owner-managed or corrupt; leave it.
			continue
		}
		if until.After(now) {
			continue
		}
		v := expired{grant: grant, end: end}
		if start, ok := doc.Object(grant, graphkit.TimeHasBeginning); ok {
			v.start = start
		}
		victims = append(victims, v)
	}

	for _, v := range victims {
		doc.RemoveAbout(v.grant)
		doc.RemoveAbout(v.end)
		if v.start != "" {
			doc.RemoveAbout(v.start)
		}
	}
	return len(victims)
}
