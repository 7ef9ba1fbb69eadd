package ledger

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

var weiPerEther = decimal.New(1, 18)

// EtherToWei converts a decimal ether amount ("0.01") to wei. Amounts with
// more than 18 fractional digits are rejected rather than truncated.
func EtherToWei(ether string) (*big.Int, error) {
	d, err := decimal.NewFromString(ether)
	if err != nil {
		return nil, fmt.Errorf("ledger: bad ether amount %q: %w", ether, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("ledger: negative ether amount %q", ether)
	}
	wei := d.Mul(weiPerEther)
	if !wei.IsInteger() {
		return nil, fmt.Errorf("ledger: ether amount %q is below 1 wei resolution", ether)
	}
	return wei.BigInt(), nil
}

// WeiToEther converts a wei amount to a decimal ether string, for logs.
func WeiToEther(wei *big.Int) string {
	return decimal.NewFromBigInt(wei, -18).String()
}

// ParseWei parses a base-10 wei amount as carried in notification documents.
func ParseWei(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("ledger: bad wei amount %q", s)
	}
	return v, nil
}
