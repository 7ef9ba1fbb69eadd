// Package market holds the marketplace documents exchanged between buyer and
// owner: published offers and the payment notifications buyers drop into the
// owner's inbox.
package market

import (
	"context"
	"fmt"
	"math/big"
	"strconv"

	"github.com/sirupsen/logrus"

	graphkit "github.com/open-rails/paykit/graph"
	"github.com/open-rails/paykit/ledger"
	"github.com/open-rails/paykit/solid"
)

// Offer is an owner-published advertisement: read access to ResourceURL for
// DurationMinutes at Price (decimal ether). Offers are immutable once
// published; the catalog keys them by resource URL, one offer per resource.
type Offer struct {
	ResourceURL     string
	Price           string
	Currency        string
	DurationMinutes int
}

// PriceWei returns the offer price in the ledger's base unit.
func (o Offer) PriceWei() (*big.Int, error) {
	return ledger.EtherToWei(o.Price)
}

// Catalog indexes offers by resource URL.
type Catalog map[string]Offer

// LoadOffers lists the offer documents in containerURL and parses each into
// an Offer. A document missing a required field is dropped with a warning,
// not fatal to the batch.
func LoadOffers(ctx context.Context, pod *solid.Client, containerURL string, log *logrus.Entry) (Catalog, error) {
	urls, err := pod.ListContainer(ctx, containerURL)
	if err != nil {
		return nil, fmt.Errorf("market: list offers in %s: %w", containerURL, err)
	}
	catalog := make(Catalog, len(urls))
	for _, u := range urls {
		doc, err := pod.GetGraph(ctx, u)
		if err != nil {
			log.WithError(err).WithField("offer", u).Warn("skipping unreadable offer document")
			continue
		}
		offer, err := parseOffer(doc)
		if err != nil {
			log.WithError(err).WithField("offer", u).Warn("skipping malformed offer document")
			continue
		}
		catalog[offer.ResourceURL] = offer
	}
	return catalog, nil
}

func parseOffer(doc *graphkit.Doc) (Offer, error) {
	resourceURL, ok := doc.Object("", graphkit.SchemaURL)
	if !ok {
		return Offer{}, fmt.Errorf("market: offer %s: missing resource url", doc.URI())
	}
	price, ok := doc.Literal("", graphkit.SchemaPrice)
	if !ok {
		return Offer{}, fmt.Errorf("market: offer %s: missing price", doc.URI())
	}
	rawDuration, ok := doc.Literal("", graphkit.TimeNumericDur)
	if !ok {
		return Offer{}, fmt.Errorf("market: offer %s: missing duration", doc.URI())
	}
	duration, err := strconv.Atoi(rawDuration)
	if err != nil || duration < 0 {
		return Offer{}, fmt.Errorf("market: offer %s: bad duration %q", doc.URI(), rawDuration)
	}
	currency, _ := doc.Literal("", graphkit.SchemaPriceCurrency)
	return Offer{
		ResourceURL:     resourceURL,
		Price:           price,
		Currency:        currency,
		DurationMinutes: duration,
	}, nil
}
