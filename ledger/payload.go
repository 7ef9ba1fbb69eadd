package ledger

import (
	"fmt"
	"strings"
)

// Payload is the announcement a buyer embeds in the transaction calldata at
// send time: a comma-separated ASCII record. It is the on-chain attestation of
// intent, checked against the off-chain notification.
type Payload struct {
	// Marker tags the transaction as an access purchase. Carried but not
	// validated; the notification cross-check is what establishes trust.
	Marker      string
	ResourceURL string
	BuyerWebID  string
	// Price is the decimal ether amount as written by the buyer.
	Price    string
	Duration string
}

// DecodePayload decodes transaction calldata into a Payload. The encoding is
// plain byte-to-character ASCII, no compression.
func DecodePayload(input []byte) (Payload, error) {
	fields := strings.Split(string(input), ",")
	if len(fields) != 5 {
		return Payload{}, fmt.Errorf("ledger: malformed payload: want 5 fields, got %d", len(fields))
	}
	return Payload{
		Marker:      fields[0],
		ResourceURL: fields[1],
		BuyerWebID:  fields[2],
		Price:       fields[3],
		Duration:    fields[4],
	}, nil
}
