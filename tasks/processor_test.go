package tasks

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/open-rails/paykit/acl"
	graphkit "github.com/open-rails/paykit/graph"
	"github.com/open-rails/paykit/ledger"
	memoryledger "github.com/open-rails/paykit/ledger/memory"
	"github.com/open-rails/paykit/market"
	"github.com/open-rails/paykit/solid"
	podtest "github.com/open-rails/paykit/testing"
)

const (
	buyerWebID = "https://buyer.example/profile/card#me"
	buyerAddr  = "0x742d35Cc6634C0532925a3b844Bc454e4438f44e"
	ownerAddr  = "0x5AEDA56215b167893e80B4fE645BA6d5Bab767DE"
	txHash     = "0x8f4e67c30983f4df30d3d54e93b8a8d0e97d5bd5f0b6c58e9f2e64a5f93c1a11"
)

func quietLog() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

// fixture is a pod pre-seeded with an owner profile, one offer for
// /private/f.txt (0.01 ETH, 5 minutes) and the resource's permission
// document.
type fixture struct {
	pod      *podtest.TestPod
	client   *solid.Client
	ledger   *memoryledger.Ledger
	owner    string
	resource string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	pod := podtest.NewTestPod()
	t.Cleanup(pod.Close)

	f := &fixture{
		pod:      pod,
		client:   solid.NewClient(nil, quietLog()),
		ledger:   memoryledger.New(),
		owner:    pod.URL("/profile/card") + "#me",
		resource: pod.URL("/private/f.txt"),
	}

	pod.AddTurtle("/profile/card", fmt.Sprintf(`@prefix ethon: <http://ethon.consensys.net/> .
<#me> ethon:address "%s" .`, ownerAddr))

	pod.AddTurtle("/payable/offer1", fmt.Sprintf(`@prefix schema: <https://schema.org/> .
@prefix time: <http://www.w3.org/2006/time#> .
<> schema:url <%s> ;
   schema:price "0.01" ;
   schema:priceCurrency "ETH" ;
   time:numericDuration "5" .`, f.resource))

	pod.AddTurtle("/private/f.txt", "<> <https://schema.org/name> \"payload\" .")
	pod.AddTurtle("/private/f.txt.acl", fmt.Sprintf(`@prefix acl: <http://www.w3.org/ns/auth/acl#> .
<#owner> a acl:Authorization ;
    acl:accessTo <%s> ;
    acl:agent <%s> ;
    acl:mode acl:Read, acl:Write, acl:Control .`, f.resource, f.owner))

	return f
}

func (f *fixture) addNotification(path, priceWei, payloadHex string) {
	f.pod.AddTurtle(path, fmt.Sprintf(`@prefix ethon: <http://ethon.consensys.net/> .
@prefix solid: <http://www.w3.org/ns/solid/terms#> .
<#Sender> ethon:address "%s" ;
    solid:account <%s> .
<#Receiver> ethon:address "%s" .
<#Transaction> ethon:txHash "%s" ;
    ethon:value "%s" ;
    ethon:msgPayload "%s" .`, buyerAddr, buyerWebID, ownerAddr, txHash, priceWei, payloadHex))
}

func (f *fixture) addMinedPayment(t *testing.T) {
	t.Helper()
	value, err := ledger.EtherToWei("0.01")
	if err != nil {
		t.Fatal(err)
	}
	f.ledger.Put(&ledger.Transaction{
		Hash:  txHash,
		From:  buyerAddr,
		To:    ownerAddr,
		Value: value,
		Input: []byte("PAY," + f.resource + "," + buyerWebID + ",0.01,5"),
	})
}

func (f *fixture) storedACL(t *testing.T) *graphkit.Doc {
	t.Helper()
	body, ok := f.pod.Turtle("/private/f.txt.acl")
	if !ok {
		t.Fatal("permission document missing from pod")
	}
	doc, err := graphkit.Parse(solid.ACLURL(f.resource), body)
	if err != nil {
		t.Fatalf("parse stored acl: %v", err)
	}
	return doc
}

func newTestProcessor(f *fixture) *Processor {
	return NewProcessor(f.client, f.ledger, f.owner, "", "", quietLog())
}

func TestTickGrantsVerifiedPayment(t *testing.T) {
	f := newFixture(t)
	f.addMinedPayment(t)
	f.addNotification("/inbox/n1", "10000000000000000", market.EncodeMsgPayload(f.resource, 5))

	p := newTestProcessor(f)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	if err := p.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}

	if f.pod.Has("/inbox/n1") {
		t.Error("processed notification left in inbox")
	}

	doc := f.storedACL(t)
	frag := "#" + acl.GrantKey(buyerWebID, f.resource)
	if agent, ok := doc.Object(frag, graphkit.ACLAgent); !ok || agent != buyerWebID {
		t.Errorf("grant agent = %q, want buyer", agent)
	}
	end, ok := doc.Object(frag, graphkit.TimeHasEnd)
	if !ok {
		t.Fatal("grant has no end bound")
	}
	raw, _ := doc.Literal(end, graphkit.TimeInXSDDateTime)
	if raw != "2026-03-01T12:05:00Z" {
		t.Errorf("grant end = %q, want offer duration after now", raw)
	}

	if s := p.Stats().Snapshot(); s.Ticks != 1 || s.LastItems != 1 {
		t.Errorf("stats = %+v", s)
	}
}

func TestTickDeletesUnknownResourceClaim(t *testing.T) {
	f := newFixture(t)
	f.addMinedPayment(t)
	bogus := f.pod.URL("/private/other.txt")
	f.addNotification("/inbox/n1", "10000000000000000", market.EncodeMsgPayload(bogus, 5))

	p := newTestProcessor(f)
	if err := p.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}

	if f.pod.Has("/inbox/n1") {
		t.Error("bogus notification left in inbox")
	}
	doc := f.storedACL(t)
	if doc.Has("#" + acl.GrantKey(buyerWebID, bogus)) {
		t.Error("grant written for unknown resource")
	}
	if doc.Has("#" + acl.GrantKey(buyerWebID, f.resource)) {
		t.Error("grant written despite rejection")
	}
}

func TestTickDeletesForgedClaim(t *testing.T) {
	f := newFixture(t)
	// Mined payment carries the right price but the claim overstates the
	// paid amount relative to the offer: rejected before the ledger, and
	// still deleted.
	value, _ := ledger.EtherToWei("0.01")
	f.ledger.Put(&ledger.Transaction{
		Hash: txHash, From: buyerAddr, To: ownerAddr, Value: value,
		Input: []byte("PAY," + f.resource + "," + buyerWebID + ",0.01,5"),
	})
	f.addNotification("/inbox/n1", "20000000000000000", market.EncodeMsgPayload(f.resource, 5))

	p := newTestProcessor(f)
	if err := p.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if f.pod.Has("/inbox/n1") {
		t.Error("mismatched notification left in inbox")
	}
	if f.storedACL(t).Has("#" + acl.GrantKey(buyerWebID, f.resource)) {
		t.Error("grant written for mismatched claim")
	}
}

func TestTickDeletesUnminedClaim(t *testing.T) {
	f := newFixture(t)
	// No transaction in the ledger: TransactionNotFound is terminal per the
	// rejection policy, so the claim is removed.
	f.addNotification("/inbox/n1", "10000000000000000", market.EncodeMsgPayload(f.resource, 5))

	p := newTestProcessor(f)
	if err := p.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if f.pod.Has("/inbox/n1") {
		t.Error("notification without mined transaction left in inbox")
	}
}

func TestTickLeavesForeignNotificationsAlone(t *testing.T) {
	f := newFixture(t)
	f.pod.AddTurtle("/inbox/hello", `@prefix as: <https://www.w3.org/ns/activitystreams#> .
<> a as:Announce .`)

	p := newTestProcessor(f)
	if err := p.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if !f.pod.Has("/inbox/hello") {
		t.Error("foreign notification deleted")
	}
}

func TestTickEmptyInbox(t *testing.T) {
	f := newFixture(t)
	p := newTestProcessor(f)
	if err := p.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if s := p.Stats().Snapshot(); s.Ticks != 1 || s.LastItems != 0 {
		t.Errorf("stats = %+v", s)
	}
}

func TestTickProcessesIndependentNotifications(t *testing.T) {
	f := newFixture(t)
	f.addMinedPayment(t)
	f.addNotification("/inbox/good", "10000000000000000", market.EncodeMsgPayload(f.resource, 5))
	f.addNotification("/inbox/bad", "10000000000000000", market.EncodeMsgPayload(f.pod.URL("/private/other.txt"), 5))

	p := newTestProcessor(f)
	if err := p.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}

	// The bad claim must not poison the good one.
	if f.pod.Has("/inbox/good") || f.pod.Has("/inbox/bad") {
		t.Error("notifications left in inbox")
	}
	if !f.storedACL(t).Has("#" + acl.GrantKey(buyerWebID, f.resource)) {
		t.Error("valid claim was not granted")
	}
}
