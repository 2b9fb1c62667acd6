package service

import (
	"math"
	"strings"

	"github.com/fishryanie/GC-sub000/internal/model"

	"github.com/shopspring/decimal"
)

var (
	maxDiscountPercent = decimal.NewFromInt(90)
	hundred            = decimal.NewFromInt(100)
)

// DiscountInput is the discount part of an order intent.
type DiscountInput struct {
	Percent float64 `json:"percent"`
	Reason  string  `json:"reason"`
}

// Requested reports whether a non-zero discount was asked for.
func (d DiscountInput) Requested() bool {
	return d.Percent > 0
}

// DiscountQuote is the top-down figure of a discount against a base amount.
type DiscountQuote struct {
	Percent             decimal.Decimal
	RequestedSaleAmount decimal.Decimal
	RequestedAmount     decimal.Decimal
}

// DiscountedLines is a redistributed line set with its bottom-up totals.
type DiscountedLines struct {
	Lines             []model.OrderLine
	TotalSaleAmount   decimal.Decimal
	TotalProfitAmount decimal.Decimal
}

// ValidateDiscount rounds the percent to 2 decimals and checks range, reason and ownership.
func ValidateDiscount(in DiscountInput, policy OrderPolicy) (decimal.Decimal, error) {
	if math.IsNaN(in.Percent) || math.IsInf(in.Percent, 0) {
		return decimal.Zero, ErrInvalidDiscountPercent
	}
	// the column keeps two decimals, so quote with the value the review will read back
	percent := decimal.NewFromFloat(in.Percent).Round(2)
	if percent.IsNegative() || percent.GreaterThan(maxDiscountPercent) {
		return decimal.Zero, newError(CodeInvalidDiscountPercent, percent.String())
	}
	if !percent.IsPositive() {
		return decimal.Zero, nil
	}
	if strings.TrimSpace(in.Reason) == "" {
		return decimal.Zero, ErrDiscountReasonRequired
	}
	if !policy.CanRequestDiscount {
		return decimal.Zero, ErrDiscountRequiresSystemProfile
	}
	return percent, nil
}

// QuoteDiscount computes requestedSaleAmount and requestedAmount for percent of base.
func QuoteDiscount(base, percent decimal.Decimal) DiscountQuote {
	factor := decimal.NewFromInt(1).Sub(percent.Div(hundred))
	requestedSale := clampZero(roundMoney(base.Mul(factor)))
	amount := clampZero(roundMoney(base.Sub(requestedSale)))
	return DiscountQuote{Percent: percent, RequestedSaleAmount: requestedSale, RequestedAmount: amount}
}

// ApplyDiscount scales every line from its base fields by requestedSale/base. The returned
// total is the sum of rounded line totals and may drift from the quoted figure.
func ApplyDiscount(set LineSet, quote DiscountQuote) DiscountedLines {
	ratio := decimal.NewFromInt(1)
	if set.BaseSaleSum.IsPositive() {
		ratio = quote.RequestedSaleAmount.Div(set.BaseSaleSum)
	}

	out := DiscountedLines{Lines: make([]model.OrderLine, len(set.Lines))}
	for i, line := range set.Lines {
		line.SalePricePerKg = roundMoney(line.BaseSalePricePerKg.Mul(ratio))
		line.LineSaleTotal = roundMoney(line.BaseLineSaleTotal.Mul(ratio))
		line.LineProfit = line.LineSaleTotal.Sub(line.LineCostTotal)
		out.Lines[i] = line
		out.TotalSaleAmount = out.TotalSaleAmount.Add(line.LineSaleTotal)
	}
	out.TotalProfitAmount = out.TotalSaleAmount.Sub(roundMoney(set.TotalCostSum))
	return out
}

// RevertDiscount restores every line to its base price and total.
func RevertDiscount(set LineSet) DiscountedLines {
	out := DiscountedLines{Lines: make([]model.OrderLine, len(set.Lines))}
	for i, line := range set.Lines {
		line.SalePricePerKg = line.BaseSalePricePerKg
		line.LineSaleTotal = line.BaseLineSaleTotal
		line.LineProfit = line.BaseLineSaleTotal.Sub(line.LineCostTotal)
		out.Lines[i] = line
		out.TotalSaleAmount = out.TotalSaleAmount.Add(roundMoney(line.BaseLineSaleTotal))
	}
	out.TotalProfitAmount = out.TotalSaleAmount.Sub(roundMoney(set.TotalCostSum))
	return out
}

func clampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
