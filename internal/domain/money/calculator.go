// Package money provides pure monetary calculations for documents.
// All arithmetic uses fixed-point decimals; rounding is half away from
// zero to two fractional digits, matching the accounting rules the
// documents must reconcile under.
package money

import (
	"github.com/shopspring/decimal"

	"fakturo/internal/core/apperror"
	"fakturo/internal/core/types"
)

var hundred = decimal.NewFromInt(100)

// LineAmounts holds the three derived amounts of a single line.
type LineAmounts struct {
	// Net is quantity × unit price.
	Net types.Money

	// VAT is Net × rate / 100, rounded to cents.
	VAT types.Money

	// Gross is Net + VAT.
	Gross types.Money
}

// Totals holds document-level aggregates.
type Totals struct {
	Subtotal types.Money
	VAT      types.Money
	Total    types.Money
}

// ComputeLine derives the line amounts from quantity, unit price and
// VAT rate (percentage). Quantity may be negative for credit notes;
// the sign flows through all three amounts.
func ComputeLine(quantity, unitPrice, vatRatePercent types.Money) LineAmounts {
	net := types.RoundMoney(quantity.Mul(unitPrice))
	vat := types.RoundMoney(net.Mul(vatRatePercent).Div(hundred))
	return LineAmounts{
		Net:   net,
		VAT:   vat,
		Gross: net.Add(vat),
	}
}

// Aggregate sums line amounts into document totals.
// With fixed-point decimals the summation order does not affect the result.
func Aggregate(lines []LineAmounts) Totals {
	subtotal := types.Zero()
	vat := types.Zero()
	for _, line := range lines {
		subtotal = subtotal.Add(line.Net)
		vat = vat.Add(line.VAT)
	}
	return Totals{
		Subtotal: subtotal,
		VAT:      vat,
		Total:    subtotal.Add(vat),
	}
}

// ConvertToBase converts an amount to the base currency: amount ÷ rate,
// rounded half-up to cents. The rate follows the ECB convention: units
// of document currency per one unit of base currency, so rate 1 is the
// identity.
func ConvertToBase(amount, rate types.Money) (types.Money, error) {
	if rate.Sign() <= 0 {
		return types.Zero(), apperror.NewValidation("exchange rate must be positive").
			WithDetail("rate", rate.String())
	}
	return amount.DivRound(rate, types.MoneyScale), nil
}

// ConvertTotals converts subtotal, VAT and total independently.
// Each is converted from the document-currency aggregate, never derived
// by re-summing converted lines, so drift does not accumulate across
// many lines. convertedSubtotal + convertedVAT may differ from
// convertedTotal by at most one cent; callers treat that as tolerance,
// not as an inconsistency.
func ConvertTotals(t Totals, rate types.Money) (Totals, error) {
	subtotal, err := ConvertToBase(t.Subtotal, rate)
	if err != nil {
		return Totals{}, err
	}
	vat, err := ConvertToBase(t.VAT, rate)
	if err != nil {
		return Totals{}, err
	}
	total, err := ConvertToBase(t.Total, rate)
	if err != nil {
		return Totals{}, err
	}
	return Totals{Subtotal: subtotal, VAT: vat, Total: total}, nil
}
