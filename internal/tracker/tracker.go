// Package tracker detects unsaved changes against a baseline snapshot of a
// daily record. The dirty flag gates destructive navigation: switching
// dates while dirty requires an explicit confirmation before the baseline
// is replaced.
package tracker

import "github.com/katwe/bakeledger/internal/domain/models"

// Tracker holds the deep-cloned baseline for one active (site, date)
// editing session. It is replaced wholesale on date switch, never merged.
type Tracker struct {
	baseline *models.DailyRecord
}

// New returns a tracker with an empty baseline; any entered value reads as
// dirty until the first snapshot.
func New() *Tracker {
	return &Tracker{}
}

// Snapshot resets the baseline to a deep clone of the record. Called after
// every successful load and after every successful explicit save.
func (t *Tracker) Snapshot(rec *models.DailyRecord) {
	t.baseline = rec.Clone()
}

// IsDirty deep-compares the working record against the baseline over
// production, sales and adjustments only. Derived and volatile fields
// (totals, updatedAt) never flip the flag, and zero-valued entries compare
// equal to absent ones so an untouched empty form stays clean.
func (t *Tracker) IsDirty(current *models.DailyRecord) bool {
	base := t.baseline
	if !productionEqual(base, current) {
		return true
	}
	if !salesEqual(base, current) {
		return true
	}
	return !adjustmentsEqual(base, current)
}

func productionEqual(a, b *models.DailyRecord) bool {
	var am, bm map[string]models.ProductionEntry
	if a != nil {
		am = a.Production
	}
	if b != nil {
		bm = b.Production
	}
	// Absent keys read as the zero entry, so an all-zero row compares
	// equal to a missing one.
	for id, entry := range am {
		if bm[id] != entry {
			return false
		}
	}
	for id, entry := range bm {
		if am[id] != entry {
			return false
		}
	}
	return true
}

func salesEqual(a, b *models.DailyRecord) bool {
	var am, bm map[string]float64
	if a != nil {
		am = a.Sales
	}
	if b != nil {
		bm = b.Sales
	}
	for id, amount := range am {
		if bm[id] != amount {
			return false
		}
	}
	for id, amount := range bm {
		if am[id] != amount {
			return false
		}
	}
	return true
}

func adjustmentsEqual(a, b *models.DailyRecord) bool {
	var aa, ba models.Adjustments
	if a != nil {
		aa = a.Adjustments
	}
	if b != nil {
		ba = b.Adjustments
	}
	return aa == ba
}
