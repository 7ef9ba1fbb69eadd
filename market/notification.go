package market

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	graphkit "github.com/open-rails/paykit/graph"
	"github.com/open-rails/paykit/ledger"
)

// ErrNotPayment marks an inbox entry that is not a payment announcement.
// The inbox is shared with other notification senders; such entries are
// skipped, never deleted.
var ErrNotPayment = errors.New("market: notification is not a payment announcement")

// Notification is a buyer's claim of payment: "transaction T paid the
// advertised price for resource R, grant my WebID access". Every field is
// untrusted until the verifier has cross-checked it against the offer catalog
// and the ledger.
type Notification struct {
	// URL is the inbox document this claim was read from.
	URL string

	SenderEthAddress   string
	ReceiverEthAddress string
	TransactionHash    string
	// PriceWei is the claimed payment amount in the ledger base unit.
	PriceWei *big.Int
	// SenderWebID is the account the buyer wants the grant issued to.
	SenderWebID     string
	ResourceURL     string
	DurationMinutes int
}

// Fragment subjects of a payment notification document.
const (
	senderFrag      = "#Sender"
	receiverFrag    = "#Receiver"
	transactionFrag = "#Transaction"
)

// ParseNotification decodes a payment notification document. Returns
// ErrNotPayment if the document carries no #Transaction subject; any other
// failure means the document claims to be a payment but is malformed.
func ParseNotification(doc *graphkit.Doc) (*Notification, error) {
	if !doc.Has(transactionFrag) {
		return nil, ErrNotPayment
	}
	n := &Notification{URL: doc.URI()}

	var ok bool
	if n.SenderEthAddress, ok = doc.Literal(senderFrag, graphkit.EthOnAddress); !ok {
		return nil, fmt.Errorf("market: notification %s: missing sender address", doc.URI())
	}
	if n.ReceiverEthAddress, ok = doc.Literal(receiverFrag, graphkit.EthOnAddress); !ok {
		return nil, fmt.Errorf("market: notification %s: missing receiver address", doc.URI())
	}
	if n.TransactionHash, ok = doc.Literal(transactionFrag, graphkit.EthOnTxHash); !ok {
		return nil, fmt.Errorf("market: notification %s: missing transaction hash", doc.URI())
	}
	rawValue, ok := doc.Literal(transactionFrag, graphkit.EthOnValue)
	if !ok {
		return nil, fmt.Errorf("market: notification %s: missing value", doc.URI())
	}
	wei, err := ledger.ParseWei(rawValue)
	if err != nil {
		return nil, fmt.Errorf("market: notification %s: %w", doc.URI(), err)
	}
	n.PriceWei = wei

	if n.SenderWebID, ok = doc.Object(senderFrag, graphkit.SolidAccount); !ok {
		return nil, fmt.Errorf("market: notification %s: missing sender account", doc.URI())
	}

	payloadHex, ok := doc.Literal(transactionFrag, graphkit.EthOnMsgPayload)
	if !ok {
		return nil, fmt.Errorf("market: notification %s: missing message payload", doc.URI())
	}
	resourceURL, duration, err := decodeMsgPayload(payloadHex)
	if err != nil {
		return nil, fmt.Errorf("market: notification %s: %w", doc.URI(), err)
	}
	n.ResourceURL = resourceURL
	n.DurationMinutes = duration
	return n, nil
}

// decodeMsgPayload decodes the hex-encoded "resourceURL,durationMinutes"
// record the buyer's client attached to the notification.
func decodeMsgPayload(payloadHex string) (string, int, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(payloadHex, "0x"))
	if err != nil {
		return "", 0, fmt.Errorf("market: bad payload hex: %w", err)
	}
	parts := strings.Split(string(raw), ",")
	if len(parts) != 2 {
		return "", 0, fmt.Errorf("market: bad payload: want 2 fields, got %d", len(parts))
	}
	duration, err := strconv.Atoi(parts[1])
	if err != nil || duration < 0 {
		return "", 0, fmt.Errorf("market: bad payload duration %q", parts[1])
	}
	return parts[0], duration, nil
}

// EncodeMsgPayload is the inverse of the notification payload decode; the
// test pod and buyer-side tooling use it to author notifications.
func EncodeMsgPayload(resourceURL string, durationMinutes int) string {
	return "0x" + hex.EncodeToString([]byte(fmt.Sprintf("%s,%d", resourceURL, durationMinutes)))
}
