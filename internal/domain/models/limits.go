package models

import "fmt"

// Limits bounds operator input. Out-of-range values are clamped to the
// nearest bound and reported as warnings, never rejected.
type Limits struct {
	MaxFlourKgPerProduct float64
	MaxSaleUGX           float64
	MaxAdjustmentUGX     float64
}

// DefaultLimits are generous enough for any single-site day while still
// catching fat-finger entries like an extra trailing zero.
func DefaultLimits() Limits {
	return Limits{
		MaxFlourKgPerProduct: 500,
		MaxSaleUGX:           10_000_000,
		MaxAdjustmentUGX:     5_000_000,
	}
}

// ClampWarning records a single clamped input field.
type ClampWarning struct {
	Field   string  `json:"field"`
	Entered float64 `json:"entered"`
	Applied float64 `json:"applied"`
}

func (w ClampWarning) String() string {
	return fmt.Sprintf("%s clamped from %.0f to %.0f", w.Field, w.Entered, w.Applied)
}

// Apply clamps every mutable monetary and flour quantity on the record into
// [0, max] and returns one warning per adjusted field. The record is
// modified in place.
func (l Limits) Apply(rec *DailyRecord) []ClampWarning {
	if rec == nil {
		return nil
	}

	var warnings []ClampWarning

	clamp := func(field string, value, max float64) float64 {
		applied := value
		if applied < 0 {
			applied = 0
		}
		if max > 0 && applied > max {
			applied = max
		}
		if applied != value {
			warnings = append(warnings, ClampWarning{Field: field, Entered: value, Applied: applied})
		}
		return applied
	}

	for id, entry := range rec.Production {
		entry.FlourKg = clamp("production."+id+".kgFlour", entry.FlourKg, l.MaxFlourKgPerProduct)
		entry.ProductionValue = clamp("production."+id+".productionValueUGX", entry.ProductionValue, l.MaxSaleUGX)
		entry.IngredientCost = clamp("production."+id+".ingredientCostUGX", entry.IngredientCost, l.MaxSaleUGX)
		rec.Production[id] = entry
	}
	for id, amount := range rec.Sales {
		rec.Sales[id] = clamp("sales."+id, amount, l.MaxSaleUGX)
	}

	rec.Adjustments.Replacements = clamp("adjustments.replacements", rec.Adjustments.Replacements, l.MaxAdjustmentUGX)
	rec.Adjustments.Bonuses = clamp("adjustments.bonuses", rec.Adjustments.Bonuses, l.MaxAdjustmentUGX)
	rec.Adjustments.Debts = clamp("adjustments.debts", rec.Adjustments.Debts, l.MaxAdjustmentUGX)

	return warnings
}
