package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Amounts are held as decimal dollars; cents is the smallest unit we keep.
const centsPlaces = 2

// Decoded amounts keep their exponent, and rounding a value like 1e200000000
// materializes every digit. Anything outside this window is refused first.
const (
	minAmountExponent = -18
	maxAmountExponent = 12
)

// MaxAmount caps any single amount and any operator-set balance.
var MaxAmount = decimal.New(1, 12)

var errAmountRange = errors.New("amount is out of range")

func checkRange(d decimal.Decimal) error {
	if exp := d.Exponent(); exp < minAmountExponent || exp > maxAmountExponent {
		return errAmountRange
	}
	if d.Abs().GreaterThan(MaxAmount) {
		return errAmountRange
	}
	return nil
}

// NormalizeAmount rounds an amount to cents.
func NormalizeAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(centsPlaces)
}

// ValidateAmount ensures a money-movement amount is strictly positive after
// rounding to cents.
func ValidateAmount(d decimal.Decimal) (decimal.Decimal, error) {
	if err := checkRange(d); err != nil {
		return decimal.Zero, err
	}
	n := NormalizeAmount(d)
	if !n.IsPositive() {
		return decimal.Zero, errors.New("amount must be greater than zero")
	}
	return n, nil
}

// ValidateBalance accepts an operator-set balance: zero or more, in range.
func ValidateBalance(d decimal.Decimal) (decimal.Decimal, error) {
	if err := checkRange(d); err != nil {
		return decimal.Zero, err
	}
	n := NormalizeAmount(d)
	if n.IsNegative() {
		return decimal.Zero, errors.New("balance cannot be negative")
	}
	return n, nil
}

// SignedEffect returns how a successful transaction of the given type moves
// its owner's balance.
func SignedEffect(txType string, amount decimal.Decimal) decimal.Decimal {
	switch txType {
	case TxTypeDeposit, TxTypeAdminDeposit, TxTypeTransferIn, TxTypeAdminBalanceEdit:
		return amount
	case TxTypeWithdrawal, TxTypeTransferOut:
		return amount.Neg()
	default:
		return decimal.Zero
	}
}

// FormatUSD renders an amount as $1,234.50 style text for descriptions and logs.
func FormatUSD(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	fixed := d.StringFixed(centsPlaces)
	whole, frac := fixed[:len(fixed)-centsPlaces-1], fixed[len(fixed)-centsPlaces:]

	grouped := make([]byte, 0, len(whole)+len(whole)/3)
	for i := range len(whole) {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped = append(grouped, ',')
		}
		grouped = append(grouped, whole[i])
	}
	return fmt.Sprintf("%s$%s.%s", sign, grouped, frac)
}
