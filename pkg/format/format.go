// Package format renders counts, percentages and addresses for display.
package format

import (
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

const maxFractionDigits = 6

var txIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{43}$`)

// Count formats an amount with thousands separators and at most six fraction digits.
// Trailing fraction zeros are dropped.
func Count(amount decimal.Decimal) string {
	neg := amount.IsNegative()
	s := amount.Abs().Truncate(maxFractionDigits).String()

	intPart, fracPart, _ := strings.Cut(s, ".")
	fracPart = strings.TrimRight(fracPart, "0")

	var b strings.Builder
	if neg && (intPart != "0" || fracPart != "") {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if fracPart != "" {
		b.WriteByte('.')
		b.WriteString(fracPart)
	}

	return b.String()
}

// Percentage renders a fraction in [0, 1] as a percent string.
// Whole percentages have no fraction digits, otherwise the value keeps
// digits up to the first significant one.
func Percentage(fraction decimal.Decimal) string {
	pct := fraction.Mul(decimal.NewFromInt(100))
	if pct.IsZero() {
		return "0%"
	}
	if pct.Equal(pct.Truncate(0)) {
		return pct.StringFixed(0) + "%"
	}

	_, frac, _ := strings.Cut(pct.Abs().String(), ".")
	places := int32(strings.IndexFunc(frac, func(r rune) bool { return r != '0' }) + 1)
	if pct.Abs().GreaterThanOrEqual(decimal.NewFromInt(1)) && places < 2 {
		places = 2
	}

	out := strings.TrimRight(pct.Truncate(places).StringFixed(places), "0")
	out = strings.TrimSuffix(out, ".")

	return out + "%"
}

// Address shortens an address to its first and last five characters.
// When wrap is true the result is enclosed in parentheses.
func Address(address string, wrap bool) string {
	if address == "" {
		return ""
	}

	short := address
	if len(address) > 10 {
		short = address[:5] + "..." + address[len(address)-5:]
	}
	if wrap {
		return "(" + short + ")"
	}

	return short
}

// ValidTxID reports whether id is a 43 character base64url transaction or process id.
func ValidTxID(id string) bool {
	return txIDPattern.MatchString(id)
}

// ValidAddress reports whether address is a wallet address the marketplace can resolve.
// Both native ids and EVM hex addresses are accepted.
func ValidAddress(address string) bool {
	if address == "" {
		return false
	}

	return ValidTxID(address) || common.IsHexAddress(address)
}

// Denominate divides a raw integer amount by 10^denomination.
func Denominate(amount decimal.Decimal, denomination int) decimal.Decimal {
	if denomination <= 0 {
		return amount
	}

	return amount.Shift(int32(-denomination))
}
