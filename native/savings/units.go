package savings

import (
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// TokenDecimals is the number of fractional digits carried by the stable
// token on chain.
const TokenDecimals = 18

// FromWei converts an on-chain integer amount into token units.
func FromWei(amount *uint256.Int) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amount.ToBig(), -TokenDecimals)
}

// ToWei converts token units into the on-chain integer representation.
// Negative amounts, amounts finer than one wei and values beyond 256 bits
// are rejected.
func ToWei(amount decimal.Decimal) (*uint256.Int, error) {
	if amount.IsNegative() {
		return nil, invalidArgument("amount %s is negative", amount)
	}
	scaled := amount.Shift(TokenDecimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, invalidArgument("amount %s has more than %d decimals", amount, TokenDecimals)
	}
	wei, overflow := uint256.FromBig(scaled.BigInt())
	if overflow {
		return nil, invalidArgument("amount %s overflows 256 bits", amount)
	}
	return wei, nil
}
