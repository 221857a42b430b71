package models

import "testing"

func TestApplyClampsToExactBounds(t *testing.T) {
	limits := DefaultLimits()
	rec := NewDailyRecord("morulem", "2025-06-02")
	rec.Production["bread"] = ProductionEntry{FlourKg: 750, ProductionValue: 93000, IngredientCost: 52000}
	rec.Sales["bread"] = 25_000_000
	rec.Adjustments = Adjustments{Replacements: 6_000_000, Bonuses: 5000, Debts: -100}

	warnings := limits.Apply(rec)

	if got := rec.Production["bread"].FlourKg; got != limits.MaxFlourKgPerProduct {
		t.Errorf("FlourKg = %f, want clamped to %f", got, limits.MaxFlourKgPerProduct)
	}
	if rec.Sales["bread"] != limits.MaxSaleUGX {
		t.Errorf("Sales = %f, want clamped to %f", rec.Sales["bread"], limits.MaxSaleUGX)
	}
	if rec.Adjustments.Replacements != limits.MaxAdjustmentUGX {
		t.Errorf("Replacements = %f, want clamped to %f", rec.Adjustments.Replacements, limits.MaxAdjustmentUGX)
	}
	if rec.Adjustments.Debts != 0 {
		t.Errorf("Negative debts must clamp to zero, got %f", rec.Adjustments.Debts)
	}
	if len(warnings) != 4 {
		t.Fatalf("Expected 4 warnings, got %d: %v", len(warnings), warnings)
	}
}

func TestApplyLeavesInBoundValuesAlone(t *testing.T) {
	limits := DefaultLimits()
	rec := NewDailyRecord("morulem", "2025-06-02")
	rec.Production["bread"] = ProductionEntry{FlourKg: 50, ProductionValue: 93000, IngredientCost: 52000}
	rec.Sales["bread"] = 80000
	rec.Adjustments = Adjustments{Replacements: 10000, Bonuses: 5000}

	if warnings := limits.Apply(rec); len(warnings) != 0 {
		t.Fatalf("In-bound record must produce no warnings, got %v", warnings)
	}
	if rec.Sales["bread"] != 80000 {
		t.Errorf("In-bound sale modified: %f", rec.Sales["bread"])
	}
}

func TestValueAtBoundIsNotAWarning(t *testing.T) {
	limits := DefaultLimits()
	rec := NewDailyRecord("morulem", "2025-06-02")
	rec.Sales["bread"] = limits.MaxSaleUGX

	if warnings := limits.Apply(rec); len(warnings) != 0 {
		t.Errorf("A value exactly at the bound is legal, got %v", warnings)
	}
}

func TestApplyNilRecord(t *testing.T) {
	if warnings := DefaultLimits().Apply(nil); warnings != nil {
		t.Errorf("Nil record must be a no-op, got %v", warnings)
	}
}
