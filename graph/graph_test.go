package graphkit

import (
	"testing"
)

const aclFixture = `@prefix acl: <http://www.w3.org/ns/auth/acl#> .
@prefix time: <http://www.w3.org/2006/time#> .
@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .

<#owner> a acl:Authorization ;
    acl:accessTo <f.txt> ;
    acl:agent <https://owner.example/profile/card#me> ;
    acl:mode acl:Read, acl:Write .

<#grant1> a acl:Authorization ;
    time:hasEnd <#grant1-end> .

<#grant1-end> a time:Instant ;
    time:inXSDDateTimeStamp "2026-01-01T00:00:00Z"^^xsd:dateTimeStamp .
`

func TestParseAndAccessors(t *testing.T) {
	doc, err := Parse("https://pod.example/private/f.txt.acl", aclFixture)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	agent, ok := doc.Object("#owner", ACLAgent)
	if !ok {
		t.Fatal("missing agent")
	}
	if agent != "https://owner.example/profile/card#me" {
		t.Errorf("agent mismatch: got %s", agent)
	}

	modes := doc.Objects("#owner", ACLMode)
	if len(modes) != 2 {
		t.Errorf("want 2 modes, got %d", len(modes))
	}

	v, ok := doc.Literal("#grant1-end", TimeInXSDDateTime)
	if !ok {
		t.Fatal("missing end instant literal")
	}
	if v != "2026-01-01T00:00:00Z" {
		t.Errorf("literal decode mismatch: got %q", v)
	}

	if !doc.Has("#grant1") {
		t.Error("Has(#grant1) = false")
	}
	if doc.Has("#nope") {
		t.Error("Has(#nope) = true")
	}
}

func TestLinks(t *testing.T) {
	doc, err := Parse("https://pod.example/private/f.txt.acl", aclFixture)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	links := doc.Links(TimeHasEnd)
	if len(links) != 1 {
		t.Fatalf("want 1 hasEnd link, got %d", len(links))
	}
	for subject, end := range links {
		if subject != doc.Resolve("#grant1") {
			t.Errorf("subject mismatch: got %s", subject)
		}
		if end != doc.Resolve("#grant1-end") {
			t.Errorf("object mismatch: got %s", end)
		}
	}
}

func TestRemoveAbout(t *testing.T) {
	doc, err := Parse("https://pod.example/private/f.txt.acl", aclFixture)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	before := doc.Len()
	removed := doc.RemoveAbout("#grant1")
	if removed != 2 {
		t.Errorf("want 2 triples removed, got %d", removed)
	}
	if doc.Len() != before-2 {
		t.Errorf("length mismatch after removal: %d -> %d", before, doc.Len())
	}
	if doc.Has("#grant1") {
		t.Error("subject still present after RemoveAbout")
	}
	// Unrelated entries untouched.
	if !doc.Has("#owner") {
		t.Error("owner entry removed")
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	doc, err := Parse("https://pod.example/private/f.txt.acl", aclFixture)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	out, err := doc.Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	again, err := Parse("https://pod.example/private/f.txt.acl", out)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if !Equal(doc, again) {
		t.Error("round trip lost triples")
	}
}

func TestAddTyped(t *testing.T) {
	doc := New("https://pod.example/doc")
	doc.AddResource("#g", RDFType, ACLAuthorization)
	doc.AddLiteral("#g-end", TimeInXSDDateTime, "2026-01-01T00:00:00Z", XSDDateTimeStamp)

	if kind, ok := doc.Object("#g", RDFType); !ok || kind != ACLAuthorization {
		t.Errorf("type triple missing or wrong: %q", kind)
	}
	if v, ok := doc.Literal("#g-end", TimeInXSDDateTime); !ok || v != "2026-01-01T00:00:00Z" {
		t.Errorf("literal missing or wrong: %q", v)
	}
}
