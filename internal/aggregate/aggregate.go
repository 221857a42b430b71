// Package aggregate is the single source of truth for every financial
// rollup. Every screen-facing consumer calls into it rather than repeating
// the profit formula; the numbers shown for a day are identical no matter
// which stored generation the record came from.
package aggregate

import "github.com/katwe/bakeledger/internal/domain/models"

// ComputeDailyTotals derives the daily financial rollup from the record's
// raw fields. The price list is consulted only for legacy quantity-based
// sales; records from newer generations carry monetary amounts directly.
//
// Profit is sales minus ingredient cost minus replacements and bonuses.
// Debts are money owed to the bakery, not an expense, and never reduce
// profit. A day with zero sales has a margin of zero, never NaN.
func ComputeDailyTotals(rec *models.DailyRecord, prices *models.PriceList) models.Totals {
	var totals models.Totals
	if rec == nil {
		return totals
	}

	for _, entry := range rec.Production {
		totals.ProductionValue += entry.ProductionValue
		totals.IngredientCost += entry.IngredientCost
	}
	for _, amount := range rec.Sales {
		totals.SalesTotal += amount
	}
	// Legacy generation: unit counts priced through the site price list.
	// Ingredient cost is unknown for these records and stays zero.
	for productID, qty := range rec.SaleQuantities {
		totals.SalesTotal += qty * prices.UnitPrice(productID)
	}

	othersDeductions := rec.Adjustments.Replacements + rec.Adjustments.Bonuses
	totals.Profit = totals.SalesTotal - totals.IngredientCost - othersDeductions
	if totals.SalesTotal > 0 {
		totals.MarginPercent = totals.Profit / totals.SalesTotal * 100
	}

	return totals
}

// DailyTotals returns the record's cached totals when present, otherwise
// recomputing them. The cache is trusted for display but must always be
// reproducible from the raw fields.
func DailyTotals(rec *models.DailyRecord, prices *models.PriceList) models.Totals {
	if rec != nil && rec.Totals != nil {
		return *rec.Totals
	}
	return ComputeDailyTotals(rec, prices)
}

// ComputeRangeSummary rolls up sales and profit over the records actually
// present. Missing days are not interpolated or zero-filled; averages are
// over the record count, and a day counts as profitable only when its
// profit is strictly positive.
func ComputeRangeSummary(records []*models.DailyRecord, prices *models.PriceList) models.RangeSummary {
	var summary models.RangeSummary

	for _, rec := range records {
		totals := DailyTotals(rec, prices)
		summary.TotalSales += totals.SalesTotal
		summary.TotalProfit += totals.Profit
		if totals.Profit > 0 {
			summary.ProfitableDays++
		}
		summary.TotalDays++
	}

	if summary.TotalDays > 0 {
		summary.AvgDailySales = summary.TotalSales / float64(summary.TotalDays)
		summary.AvgDailyProfit = summary.TotalProfit / float64(summary.TotalDays)
	}

	return summary
}
