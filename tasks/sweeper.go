package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/open-rails/paykit/acl"
	"github.com/open-rails/paykit/solid"
)

// Sweeper revokes elapsed grants. On each tick it walks every resource under
// the owner's private area, prunes expired entries from each permission
// document, and writes back only the documents that changed. Staleness
// between ticks is an accepted bound: a grant may outlive its window by at
// most one sweep interval.
type Sweeper struct {
	pod                 *solid.Client
	privateContainerURL string

	now   func() time.Time
	log   *logrus.Entry
	stats Stats
}

// NewSweeper wires a sweeper over the owner's private container, defaulting
// to the pod's conventional location when empty.
func NewSweeper(pod *solid.Client, ownerWebID, privateContainerURL string, log *logrus.Logger) *Sweeper {
	if privateContainerURL == "" {
		privateContainerURL = solid.DeriveContainer(ownerWebID, solid.PrivateSegment)
	}
	return &Sweeper{
		pod:                 pod,
		privateContainerURL: privateContainerURL,
		now:                 time.Now,
		log:                 log.WithField("task", "sweeper"),
	}
}

// Name implements Task.
func (s *Sweeper) Name() string { return "sweeper" }

// Stats implements Task.
func (s *Sweeper) Stats() *Stats { return &s.stats }

// Tick implements Task. Resources are independent; a failure on one is
// logged and the rest of the batch continues.
func (s *Sweeper) Tick(ctx context.Context) error {
	start := s.now()

	resources, err := s.pod.ListContainer(ctx, s.privateContainerURL)
	if err != nil {
		return fmt.Errorf("tasks: list private container: %w", err)
	}

	revoked := make([]int, len(resources))
	failed := make([]bool, len(resources))
	var wg sync.WaitGroup
	for i, resource := range resources {
		if strings.HasSuffix(resource, solid.ACLSuffix) {
			continue // a listed permission document is not itself swept
		}
		wg.Add(1)
		go func(i int, resource string) {
			defer wg.Done()
			n, err := s.sweepOne(ctx, resource)
			if err != nil {
				failed[i] = true
				s.log.WithError(err).WithField("resource", resource).Warn("sweep failed, will retry next tick")
				return
			}
			revoked[i] = n
		}(i, resource)
	}
	wg.Wait()

	var total, failures int
	for i := range resources {
		total += revoked[i]
		if failed[i] {
			failures++
		}
	}
	s.log.WithField("revoked", total).Info("expired grants removed")
	s.stats.recordTick(start, total, failures)
	return nil
}

// sweepOne prunes one resource's permission document. A resource without a
// document is skipped; the write-back only happens when something was
// actually removed.
func (s *Sweeper) sweepOne(ctx context.Context, resourceURL string) (int, error) {
	doc, err := s.pod.GetACL(ctx, resourceURL)
	if errors.Is(err, solid.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n := acl.RevokeExpired(doc, s.now())
	if n == 0 {
		return 0, nil
	}
	if err := s.pod.PutACL(ctx, resourceURL, doc); err != nil {
		return 0, err
	}
	return n, nil
}
