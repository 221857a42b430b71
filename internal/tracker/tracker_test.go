package tracker

import (
	"testing"
	"time"

	"github.com/katwe/bakeledger/internal/domain/models"
)

func loadedRecord() *models.DailyRecord {
	rec := models.NewDailyRecord("morulem", "2025-06-02")
	rec.Production["p1"] = models.ProductionEntry{FlourKg: 10, ProductionValue: 93000, IngredientCost: 52000}
	rec.Sales["p1"] = 80000
	rec.Adjustments = models.Adjustments{Replacements: 5000, Bonuses: 10000}
	return rec
}

func TestSnapshotThenCleanAndRevert(t *testing.T) {
	rec := loadedRecord()
	tr := New()
	tr.Snapshot(rec)

	if tr.IsDirty(rec) {
		t.Fatal("Freshly snapshotted record must be clean")
	}

	rec.Sales["p1"] = 85000
	if !tr.IsDirty(rec) {
		t.Fatal("Mutated sales must mark the record dirty")
	}

	rec.Sales["p1"] = 80000
	if tr.IsDirty(rec) {
		t.Fatal("Reverting the field must return the record to clean")
	}
}

func TestEachSectionTriggersDirty(t *testing.T) {
	tr := New()

	rec := loadedRecord()
	tr.Snapshot(rec)
	rec.Production["p1"] = models.ProductionEntry{FlourKg: 11, ProductionValue: 93000, IngredientCost: 52000}
	if !tr.IsDirty(rec) {
		t.Error("Production change must mark dirty")
	}

	rec = loadedRecord()
	tr.Snapshot(rec)
	rec.Adjustments.Bonuses = 0
	if !tr.IsDirty(rec) {
		t.Error("Adjustment change must mark dirty")
	}

	rec = loadedRecord()
	tr.Snapshot(rec)
	rec.Sales["p2"] = 1
	if !tr.IsDirty(rec) {
		t.Error("New sales entry must mark dirty")
	}
}

func TestDerivedFieldsNeverDirty(t *testing.T) {
	rec := loadedRecord()
	tr := New()
	tr.Snapshot(rec)

	totals := models.Totals{SalesTotal: 80000, Profit: 13000, MarginPercent: 16.25}
	rec.Totals = &totals
	rec.UpdatedAt = time.Now()

	if tr.IsDirty(rec) {
		t.Error("Totals and updatedAt are volatile and must not flip the dirty flag")
	}
}

func TestAllZeroEqualsEmptyBaseline(t *testing.T) {
	empty := models.NewDailyRecord("morulem", "2025-06-02")
	tr := New()
	tr.Snapshot(empty)

	zeroed := models.NewDailyRecord("morulem", "2025-06-02")
	zeroed.Production["p1"] = models.ProductionEntry{}
	zeroed.Sales["p1"] = 0

	if tr.IsDirty(zeroed) {
		t.Error("All-zero fields must compare clean against an empty baseline")
	}
}

func TestBaselineIsDeepCloned(t *testing.T) {
	rec := loadedRecord()
	tr := New()
	tr.Snapshot(rec)

	// Mutating the live map must not leak into the baseline.
	rec.Production["p1"] = models.ProductionEntry{FlourKg: 99}
	if !tr.IsDirty(rec) {
		t.Error("Baseline aliased the live record instead of cloning it")
	}
}
