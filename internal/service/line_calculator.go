package service

import (
	"math"

	"github.com/fishryanie/GC-sub000/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartLine is a raw cart entry as submitted; duplicates and bad weights are allowed here.
type CartLine struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	WeightKg  float64   `json:"weight_kg"`
}

// LineSet is a priced set of order lines with unrounded aggregates.
type LineSet struct {
	Lines          []model.OrderLine
	TotalWeightKg  decimal.Decimal
	TotalCostSum   decimal.Decimal
	BaseSaleSum    decimal.Decimal
	CurrentSaleSum decimal.Decimal
}

type groupedLine struct {
	productID uuid.UUID
	weight    decimal.Decimal
}

func roundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(0)
}

// GroupCart merges duplicate products, drops non-finite or non-positive weights and
// rounds each merged weight to 3 decimals. First-seen order is kept.
func GroupCart(cart []CartLine) []groupedLine {
	index := make(map[uuid.UUID]int, len(cart))
	grouped := make([]groupedLine, 0, len(cart))
	for _, line := range cart {
		if line.ProductID == uuid.Nil {
			continue
		}
		if math.IsNaN(line.WeightKg) || math.IsInf(line.WeightKg, 0) || line.WeightKg <= 0 {
			continue
		}
		w := decimal.NewFromFloat(line.WeightKg)
		if i, ok := index[line.ProductID]; ok {
			grouped[i].weight = grouped[i].weight.Add(w)
			continue
		}
		index[line.ProductID] = len(grouped)
		grouped = append(grouped, groupedLine{productID: line.ProductID, weight: w})
	}

	out := grouped[:0]
	for _, g := range grouped {
		g.weight = g.weight.Round(3)
		if g.weight.IsPositive() {
			out = append(out, g)
		}
	}
	return out
}

// CalculateLines prices a cart. names overrides product names from the catalog; products
// missing from names fall back to the sale list entry name.
func CalculateLines(cart []CartLine, cost, sale PriceMap, names map[uuid.UUID]string) (LineSet, error) {
	grouped := GroupCart(cart)
	if len(grouped) == 0 {
		return LineSet{}, ErrEmptyCart
	}

	set := LineSet{Lines: make([]model.OrderLine, 0, len(grouped))}
	for i, g := range grouped {
		salePrice, okSale := sale[g.productID]
		costPrice, okCost := cost[g.productID]
		name := productName(g.productID, names, sale, cost)
		if !okSale || !okCost {
			return LineSet{}, newError(CodeMissingPriceForProduct, name)
		}

		costTotal := g.weight.Mul(costPrice.PricePerKg)
		saleTotal := g.weight.Mul(salePrice.PricePerKg)
		set.Lines = append(set.Lines, model.OrderLine{
			Position:           i,
			ProductID:          g.productID,
			ProductName:        name,
			WeightKg:           g.weight,
			CostPricePerKg:     costPrice.PricePerKg,
			SalePricePerKg:     salePrice.PricePerKg,
			BaseSalePricePerKg: salePrice.PricePerKg,
			LineCostTotal:      costTotal,
			LineSaleTotal:      saleTotal,
			BaseLineSaleTotal:  saleTotal,
			LineProfit:         saleTotal.Sub(costTotal),
		})
		set.TotalWeightKg = set.TotalWeightKg.Add(g.weight)
		set.TotalCostSum = set.TotalCostSum.Add(costTotal)
		set.BaseSaleSum = set.BaseSaleSum.Add(saleTotal)
	}
	set.TotalWeightKg = set.TotalWeightKg.Round(3)
	set.CurrentSaleSum = set.BaseSaleSum
	return set, nil
}

// LineSetFromOrder rebuilds the aggregates of stored lines.
func LineSetFromOrder(lines []model.OrderLine) LineSet {
	set := LineSet{Lines: make([]model.OrderLine, len(lines))}
	copy(set.Lines, lines)
	for _, l := range lines {
		set.TotalWeightKg = set.TotalWeightKg.Add(l.WeightKg)
		set.TotalCostSum = set.TotalCostSum.Add(l.LineCostTotal)
		set.BaseSaleSum = set.BaseSaleSum.Add(l.BaseLineSaleTotal)
		set.CurrentSaleSum = set.CurrentSaleSum.Add(l.LineSaleTotal)
	}
	return set
}

// ApplyTotals writes the undiscounted order totals, rounding only the stored amounts.
func ApplyTotals(order *model.Order, set LineSet) {
	order.Lines = set.Lines
	order.TotalWeightKg = set.TotalWeightKg
	order.TotalCostAmount = roundMoney(set.TotalCostSum)
	order.BaseSaleAmount = roundMoney(set.BaseSaleSum)
	order.TotalSaleAmount = roundMoney(set.CurrentSaleSum)
	order.TotalProfitAmount = order.TotalSaleAmount.Sub(order.TotalCostAmount)
}

func productName(id uuid.UUID, names map[uuid.UUID]string, sale, cost PriceMap) string {
	if n, ok := names[id]; ok && n != "" {
		return n
	}
	if e, ok := sale[id]; ok && e.ProductName != "" {
		return e.ProductName
	}
	if e, ok := cost[id]; ok && e.ProductName != "" {
		return e.ProductName
	}
	return id.String()
}
