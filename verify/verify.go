// Package verify is the trust core: it decides whether a payment notification
// represents a genuine, paid, matching access request by reconciling three
// independent sources — the owner's published offer, the buyer's off-chain
// claim, and the mined on-chain transaction.
package verify

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/open-rails/paykit/ledger"
	"github.com/open-rails/paykit/market"
)

// GrantRequest is the verified outcome: issue a read grant to GranteeWebID on
// ResourceURL for DurationMinutes.
type GrantRequest struct {
	ResourceURL     string
	GranteeWebID    string
	DurationMinutes int
}

// Verifier checks notifications against a ledger and the owner's receiving
// address.
type Verifier struct {
	ledger ledger.Ledger
	// ownerEthAddress is the address payments must be directed to, resolved
	// from the owner's WebID profile.
	ownerEthAddress string
}

// New builds a verifier for the owner receiving payments at ownerEthAddress.
func New(l ledger.Ledger, ownerEthAddress string) *Verifier {
	return &Verifier{ledger: l, ownerEthAddress: ownerEthAddress}
}

// Verify runs the ordered, fail-fast check chain. The catalog lookup comes
// first so bogus resource claims never cost a ledger call, and the on-chain
// payload is compared field-by-field against the off-chain claim so a buyer
// cannot pay for resource A while claiming resource B.
//
// A *RejectionError return is terminal for this notification. Any other
// error is transient and the notification should be retried next tick.
func (v *Verifier) Verify(ctx context.Context, n *market.Notification, catalog market.Catalog) (*GrantRequest, error) {
	// 1. Catalog match.
	offer, ok := catalog[n.ResourceURL]
	if !ok {
		return nil, reject(ReasonUnknownResource, "no offer published for %s", n.ResourceURL)
	}

	// 2. Offer / claim cross-check.
	offerWei, err := offer.PriceWei()
	if err != nil {
		return nil, reject(ReasonOfferMismatch, "offer for %s has unusable price %q", offer.ResourceURL, offer.Price)
	}
	switch {
	case offer.ResourceURL != n.ResourceURL:
		return nil, reject(ReasonOfferMismatch, "offer resource %s != claimed %s", offer.ResourceURL, n.ResourceURL)
	case offerWei.Cmp(n.PriceWei) != 0:
		return nil, reject(ReasonOfferMismatch, "offer price %s wei != claimed %s wei", offerWei, n.PriceWei)
	case offer.DurationMinutes != n.DurationMinutes:
		return nil, reject(ReasonOfferMismatch, "offer duration %d != claimed %d", offer.DurationMinutes, n.DurationMinutes)
	}

	// 3. Ledger lookup.
	tx, err := v.ledger.TransactionByHash(ctx, n.TransactionHash)
	if errors.Is(err, ledger.ErrTxNotFound) {
		return nil, reject(ReasonTransactionNotFound, "transaction %s not mined", n.TransactionHash)
	}
	if err != nil {
		return nil, fmt.Errorf("verify: ledger lookup %s: %w", n.TransactionHash, err)
	}

	// 4. Payload decode.
	payload, err := ledger.DecodePayload(tx.Input)
	if err != nil {
		return nil, reject(ReasonMalformedPayload, "%v", err)
	}
	payloadWei, err := ledger.EtherToWei(payload.Price)
	if err != nil {
		return nil, reject(ReasonMalformedPayload, "payload price: %v", err)
	}
	payloadDuration, err := strconv.Atoi(payload.Duration)
	if err != nil {
		return nil, reject(ReasonMalformedPayload, "payload duration %q", payload.Duration)
	}

	// 5. Five-way equality between transaction, claim, owner and payload.
	switch {
	case !equalAddr(tx.From, n.SenderEthAddress):
		return nil, reject(ReasonTransactionMismatch, "tx sender %s != claimed %s", tx.From, n.SenderEthAddress)
	case !equalAddr(tx.To, n.ReceiverEthAddress):
		return nil, reject(ReasonTransactionMismatch, "tx receiver %s != claimed %s", tx.To, n.ReceiverEthAddress)
	case !equalAddr(n.ReceiverEthAddress, v.ownerEthAddress):
		return nil, reject(ReasonTransactionMismatch, "claimed receiver %s is not the owner address", n.ReceiverEthAddress)
	case tx.Value == nil || tx.Value.Cmp(n.PriceWei) != 0:
		return nil, reject(ReasonTransactionMismatch, "tx value %s != claimed %s wei", tx.Value, n.PriceWei)
	case tx.Value.Cmp(payloadWei) != 0:
		return nil, reject(ReasonTransactionMismatch, "tx value %s != payload %s wei", tx.Value, payloadWei)
	case payloadDuration != n.DurationMinutes:
		return nil, reject(ReasonTransactionMismatch, "payload duration %d != claimed %d", payloadDuration, n.DurationMinutes)
	case payload.BuyerWebID != n.SenderWebID:
		return nil, reject(ReasonTransactionMismatch, "payload buyer %s != claimed %s", payload.BuyerWebID, n.SenderWebID)
	case payload.ResourceURL != n.ResourceURL:
		return nil, reject(ReasonTransactionMismatch, "payload resource %s != claimed %s", payload.ResourceURL, n.ResourceURL)
	}

	return &GrantRequest{
		ResourceURL:     n.ResourceURL,
		GranteeWebID:    n.SenderWebID,
		DurationMinutes: n.DurationMinutes,
	}, nil
}

// equalAddr compares hex addresses ignoring checksum casing.
func equalAddr(a, b string) bool {
	return strings.EqualFold(a, b)
}
