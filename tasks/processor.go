package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/open-rails/paykit/acl"
	"github.com/open-rails/paykit/ledger"
	"github.com/open-rails/paykit/market"
	"github.com/open-rails/paykit/solid"
	"github.com/open-rails/paykit/verify"
)

// Processor turns verified payment notifications into grants. On each tick it
// lists the owner's inbox, verifies every payment claim against the offer
// catalog and the ledger, writes a time-bounded grant for each verified
// claim, and deletes the notification. A processed notification never remains
// in the inbox, whether it verified or was rejected; only transient I/O
// failures leave one behind for the next tick.
type Processor struct {
	pod    *solid.Client
	ledger ledger.Ledger

	ownerWebID        string
	inboxURL          string
	offerContainerURL string

	now   func() time.Time
	log   *logrus.Entry
	stats Stats
}

// NewProcessor wires a processor for the given owner. Inbox and offer
// container default to the pod's conventional locations when empty.
func NewProcessor(pod *solid.Client, l ledger.Ledger, ownerWebID, inboxURL, offerContainerURL string, log *logrus.Logger) *Processor {
	if inboxURL == "" {
		inboxURL = solid.DeriveContainer(ownerWebID, solid.InboxSegment)
	}
	if offerContainerURL == "" {
		offerContainerURL = solid.DeriveContainer(ownerWebID, solid.OfferSegment)
	}
	return &Processor{
		pod:               pod,
		ledger:            l,
		ownerWebID:        ownerWebID,
		inboxURL:          inboxURL,
		offerContainerURL: offerContainerURL,
		now:               time.Now,
		log:               log.WithField("task", "processor"),
	}
}

// Name implements Task.
func (p *Processor) Name() string { return "processor" }

// Stats implements Task.
func (p *Processor) Stats() *Stats { return &p.stats }

// outcome tags the result of one notification: granted, skipped (not ours /
// already gone), rejected (deleted), or failed (retried next tick).
type outcome struct {
	granted  bool
	rejected bool
	failed   bool
}

// Tick implements Task. Notifications are independent: each is attempted in
// its own goroutine and an individual failure never aborts the batch.
func (p *Processor) Tick(ctx context.Context) error {
	start := p.now()

	notifications, err := p.pod.ListContainer(ctx, p.inboxURL)
	if err != nil {
		return fmt.Errorf("tasks: list inbox: %w", err)
	}
	if len(notifications) == 0 {
		p.log.Debug("inbox empty")
		p.stats.recordTick(start, 0, 0)
		return nil
	}

	catalog, err := market.LoadOffers(ctx, p.pod, p.offerContainerURL, p.log)
	if err != nil {
		return fmt.Errorf("tasks: load offer catalog: %w", err)
	}
	ownerAddr, err := p.pod.AgentEthAddress(ctx, p.ownerWebID)
	if err != nil {
		return fmt.Errorf("tasks: resolve owner address: %w", err)
	}
	verifier := verify.New(p.ledger, ownerAddr)

	outcomes := make([]outcome, len(notifications))
	var wg sync.WaitGroup
	for i, url := range notifications {
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			outcomes[i] = p.processOne(ctx, verifier, catalog, url)
		}(i, url)
	}
	wg.Wait()

	var granted, rejected, failed int
	for _, o := range outcomes {
		switch {
		case o.granted:
			granted++
		case o.rejected:
			rejected++
		case o.failed:
			failed++
		}
	}
	if granted == 0 && rejected == 0 {
		p.log.Debug("no access requests this tick")
	} else {
		p.log.WithFields(logrus.Fields{
			"granted":  granted,
			"rejected": rejected,
			"failed":   failed,
		}).Info("processed access requests")
	}
	p.stats.recordTick(start, granted, failed)
	return nil
}

func (p *Processor) processOne(ctx context.Context, verifier *verify.Verifier, catalog market.Catalog, url string) outcome {
	log := p.log.WithField("notification", url)

	doc, err := p.pod.GetGraph(ctx, url)
	if errors.Is(err, solid.ErrNotFound) {
		return outcome{} // raced with a concurrent delete
	}
	if err != nil {
		log.WithError(err).Warn("fetch failed, will retry next tick")
		return outcome{failed: true}
	}

	n, err := market.ParseNotification(doc)
	if errors.Is(err, market.ErrNotPayment) {
		// Someone else's notification; leave it alone.
		return outcome{}
	}
	if err != nil {
		// Claims to be a payment but does not parse: discard it.
		p.audit(log, "malformed", err)
		if err := p.pod.Delete(ctx, url); err != nil {
			log.WithError(err).Warn("delete failed, will retry next tick")
			return outcome{failed: true}
		}
		return outcome{rejected: true}
	}

	req, err := verifier.Verify(ctx, n, catalog)
	if err != nil {
		if rej, ok := verify.AsRejection(err); ok {
			p.audit(log.WithField("grantee", n.SenderWebID), string(rej.Reason), err)
			if err := p.pod.Delete(ctx, url); err != nil {
				log.WithError(err).Warn("delete failed, will retry next tick")
				return outcome{failed: true}
			}
			return outcome{rejected: true}
		}
		log.WithError(err).Warn("verification hit transient failure, will retry next tick")
		return outcome{failed: true}
	}

	if err := p.issueGrant(ctx, req); err != nil {
		log.WithError(err).Warn("grant failed, will retry next tick")
		return outcome{failed: true}
	}

	// The grant is durable; now the claim may leave the inbox. If this
	// delete fails the next tick re-verifies and re-grants idempotently.
	if err := p.pod.Delete(ctx, url); err != nil {
		log.WithError(err).Warn("delete after grant failed, will retry next tick")
		return outcome{failed: true}
	}

	log.WithFields(logrus.Fields{
		"resource": req.ResourceURL,
		"grantee":  req.GranteeWebID,
		"minutes":  req.DurationMinutes,
	}).Info("access granted")
	return outcome{granted: true}
}

// issueGrant appends the grant to the resource's permission document and
// writes it back. A resource without a permission document cannot be granted
// on; its ACL bootstrap is owned elsewhere.
func (p *Processor) issueGrant(ctx context.Context, req *verify.GrantRequest) error {
	doc, err := p.pod.GetACL(ctx, req.ResourceURL)
	if errors.Is(err, solid.ErrNotFound) {
		return fmt.Errorf("tasks: resource %s has no permission document", req.ResourceURL)
	}
	if err != nil {
		return err
	}
	acl.Add(doc, req.GranteeWebID, req.ResourceURL, p.now(), req.DurationMinutes)
	return p.pod.PutACL(ctx, req.ResourceURL, doc)
}

// audit emits the structured rejection record operators alert on.
func (p *Processor) audit(log *logrus.Entry, reason string, err error) {
	log.WithFields(logrus.Fields{
		"event_id": uuid.NewString(),
		"reason":   reason,
	}).WithError(err).Warn("notification rejected and deleted")
}
