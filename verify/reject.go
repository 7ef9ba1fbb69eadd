package verify

import (
	"errors"
	"fmt"
)

// Reason classifies why a notification was rejected. Every reason is terminal
// for that notification; the processor deletes it and records an audit entry.
type Reason string

const (
	// ReasonUnknownResource: the claimed resource has no published offer.
	ReasonUnknownResource Reason = "unknown_resource"
	// ReasonOfferMismatch: the claim's price or duration disagrees with the
	// published offer.
	ReasonOfferMismatch Reason = "offer_mismatch"
	// ReasonTransactionNotFound: the named transaction is absent or unmined.
	ReasonTransactionNotFound Reason = "transaction_not_found"
	// ReasonMalformedPayload: the on-chain calldata does not decode to an
	// announcement record.
	ReasonMalformedPayload Reason = "malformed_payload"
	// ReasonTransactionMismatch: the mined transaction disagrees with the
	// claim; a forged or misdirected notification.
	ReasonTransactionMismatch Reason = "transaction_mismatch"
)

// RejectionError is a terminal verification failure with its classified
// reason. Transient faults (storage or ledger I/O) are returned as ordinary
// errors instead and retried on the next tick.
type RejectionError struct {
	Reason Reason
	Detail string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("verify: rejected (%s): %s", e.Reason, e.Detail)
}

func reject(reason Reason, format string, args ...any) error {
	return &RejectionError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// AsRejection unwraps a RejectionError if err carries one.
func AsRejection(err error) (*RejectionError, bool) {
	var r *RejectionError
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}
