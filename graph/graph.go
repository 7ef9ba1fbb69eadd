// Package graphkit is a typed accessor layer over the rdf2go triple store.
// The underlying store treats every node as a loosely-typed term; this package
// centralizes literal decoding and fragment resolution so call sites work with
// plain strings and never touch term internals.
package graphkit

import (
	"fmt"
	"sort"
	"strings"

	rdf "github.com/deiu/rdf2go"
)

// Turtle is the serialization format used for every document exchanged with
// the pod.
const Turtle = "text/turtle"

// Doc is one RDF document, addressed by the URL it was fetched from (or will
// be written to). Relative fragment identifiers ("#grant") resolve against
// that URL.
type Doc struct {
	uri string
	g   *rdf.Graph
}

// New returns an empty document addressed by uri.
func New(uri string) *Doc {
	return &Doc{uri: uri, g: rdf.NewGraph(uri)}
}

// Parse decodes a Turtle body into a document addressed by uri.
func Parse(uri, body string) (*Doc, error) {
	d := New(uri)
	if err := d.g.Parse(strings.NewReader(body), Turtle); err != nil {
		return nil, fmt.Errorf("graph: parse %s: %w", uri, err)
	}
	return d, nil
}

// URI returns the document address.
func (d *Doc) URI() string { return d.uri }

// Len returns the number of triples in the document.
func (d *Doc) Len() int { return d.g.Len() }

// Serialize encodes the document as Turtle.
func (d *Doc) Serialize() (string, error) {
	var out strings.Builder
	if err := d.g.Serialize(&out, Turtle); err != nil {
		return "", fmt.Errorf("graph: serialize %s: %w", d.uri, err)
	}
	return out.String(), nil
}

// Resolve expands a fragment reference against the document address.
// Absolute IRIs pass through unchanged.
func (d *Doc) Resolve(ref string) string {
	if strings.HasPrefix(ref, "#") {
		return d.uri + ref
	}
	return ref
}

func (d *Doc) term(s string) rdf.Term {
	if s == "" {
		return nil
	}
	return rdf.NewResource(d.Resolve(s))
}

// AddResource adds a triple whose object is an IRI.
func (d *Doc) AddResource(subject, predicate, object string) {
	d.g.AddTriple(d.term(subject), rdf.NewResource(predicate), d.term(object))
}

// AddLiteral adds a triple whose object is a typed literal. An empty datatype
// produces a plain string literal.
func (d *Doc) AddLiteral(subject, predicate, value, datatype string) {
	var o rdf.Term
	if datatype == "" {
		o = rdf.NewLiteral(value)
	} else {
		o = rdf.NewLiteralWithDatatype(value, rdf.NewResource(datatype))
	}
	d.g.AddTriple(d.term(subject), rdf.NewResource(predicate), o)
}

// Objects returns the raw values of all objects matching (subject, predicate).
// An empty subject matches any subject. Literal quoting and datatype tags are
// already stripped.
func (d *Doc) Objects(subject, predicate string) []string {
	var out []string
	for _, t := range d.g.All(d.term(subject), rdf.NewResource(predicate), nil) {
		out = append(out, t.Object.RawValue())
	}
	return out
}

// Object returns the first object matching (subject, predicate).
func (d *Doc) Object(subject, predicate string) (string, bool) {
	vals := d.Objects(subject, predicate)
	if len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

// Literal returns the decoded value of the first literal object for
// (subject, predicate). Non-literal objects are skipped.
func (d *Doc) Literal(subject, predicate string) (string, bool) {
	for _, t := range d.g.All(d.term(subject), rdf.NewResource(predicate), nil) {
		if _, ok := t.Object.(*rdf.Literal); ok {
			return t.Object.RawValue(), true
		}
	}
	return "", false
}

// Subjects returns the raw values of all subjects holding predicate, with the
// object unconstrained.
func (d *Doc) Subjects(predicate string) []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range d.g.All(nil, rdf.NewResource(predicate), nil) {
		v := t.Subject.RawValue()
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// SubjectOf returns the subject of the first triple matching
// (?, predicate, object).
func (d *Doc) SubjectOf(predicate, object string) (string, bool) {
	t := d.g.One(nil, rdf.NewResource(predicate), d.term(object))
	if t == nil {
		return "", false
	}
	return t.Subject.RawValue(), true
}

// Links returns subject→object raw-value pairs for every triple carrying the
// given predicate. When a subject holds the predicate more than once the first
// object wins.
func (d *Doc) Links(predicate string) map[string]string {
	out := map[string]string{}
	for _, t := range d.g.All(nil, rdf.NewResource(predicate), nil) {
		s := t.Subject.RawValue()
		if _, ok := out[s]; !ok {
			out[s] = t.Object.RawValue()
		}
	}
	return out
}

// Has reports whether any triple has the given subject.
func (d *Doc) Has(subject string) bool {
	return d.g.One(d.term(subject), nil, nil) != nil
}

// RemoveAbout removes every triple whose subject is the given node and
// returns the number removed.
func (d *Doc) RemoveAbout(subject string) int {
	matches := d.g.All(d.term(subject), nil, nil)
	for _, t := range matches {
		d.g.Remove(t)
	}
	return len(matches)
}

// Equal reports whether two documents contain the same triple set, regardless
// of insertion order.
func Equal(a, b *Doc) bool {
	return strings.Join(tripleKeys(a), "\n") == strings.Join(tripleKeys(b), "\n")
}

func tripleKeys(d *Doc) []string {
	var keys []string
	for _, t := range d.g.All(nil, nil, nil) {
		keys = append(keys, t.String())
	}
	sort.Strings(keys)
	return keys
}
