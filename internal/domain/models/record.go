package models

import "time"

// DateLayout is the ISO calendar-date format used as the record identity
// and as every storage key component.
const DateLayout = "2006-01-02"

// ProductionEntry captures one product's production figures for a day.
type ProductionEntry struct {
	FlourKg         float64 `json:"kgFlour"`
	ProductionValue float64 `json:"productionValueUGX"`
	IngredientCost  float64 `json:"ingredientCostUGX"`
}

// Adjustments holds the miscellaneous daily financial adjustments.
// Debts represent money owed to the bakery and are not an expense;
// they never reduce profit.
type Adjustments struct {
	Replacements float64 `json:"replacements"`
	Bonuses      float64 `json:"bonuses"`
	Debts        float64 `json:"debts"`
}

// Totals is the derived financial rollup for a single day. When persisted it
// is a cache only; the same numbers must always be recomputable from the raw
// production, sales and adjustments fields.
type Totals struct {
	ProductionValue float64 `json:"productionValue"`
	IngredientCost  float64 `json:"ingredientCost"`
	SalesTotal      float64 `json:"salesTotal"`
	Profit          float64 `json:"profit"`
	MarginPercent   float64 `json:"marginPercent"`
}

// DailyRecord is the canonical in-memory shape all storage generations
// decode into. One record exists per (SiteID, Date).
type DailyRecord struct {
	SiteID string `json:"siteId"`
	Date   string `json:"date"`

	Production  map[string]ProductionEntry `json:"production,omitempty"`
	Sales       map[string]float64         `json:"sales,omitempty"`
	Adjustments Adjustments                `json:"adjustments"`

	// SaleQuantities carries per-product unit counts for records decoded
	// from the legacy quantity+price generation. Revenue for these is
	// quantity times the site price list; ingredient cost is unknown and
	// stays zero for the record.
	SaleQuantities map[string]float64 `json:"saleQuantities,omitempty"`

	Totals    *Totals   `json:"totals,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewDailyRecord returns an empty record for the given identity.
func NewDailyRecord(siteID, date string) *DailyRecord {
	return &DailyRecord{
		SiteID:     siteID,
		Date:       date,
		Production: make(map[string]ProductionEntry),
		Sales:      make(map[string]float64),
	}
}

// HasData reports whether the record carries at least one of production,
// sales or cached totals. A read that produces none of these is treated as
// an empty tier by the persistence resolver.
func (r *DailyRecord) HasData() bool {
	if r == nil {
		return false
	}
	return len(r.Production) > 0 || len(r.Sales) > 0 || len(r.SaleQuantities) > 0 || r.Totals != nil
}

// Clone returns a deep copy of the record. Baselines and drafts must never
// alias the live working maps.
func (r *DailyRecord) Clone() *DailyRecord {
	if r == nil {
		return nil
	}
	out := *r
	if r.Production != nil {
		out.Production = make(map[string]ProductionEntry, len(r.Production))
		for id, entry := range r.Production {
			out.Production[id] = entry
		}
	}
	if r.Sales != nil {
		out.Sales = make(map[string]float64, len(r.Sales))
		for id, amount := range r.Sales {
			out.Sales[id] = amount
		}
	}
	if r.SaleQuantities != nil {
		out.SaleQuantities = make(map[string]float64, len(r.SaleQuantities))
		for id, qty := range r.SaleQuantities {
			out.SaleQuantities[id] = qty
		}
	}
	if r.Totals != nil {
		totals := *r.Totals
		out.Totals = &totals
	}
	return &out
}

// StoredDoc is one raw remote document: an encoded daily record payload
// keyed by its date. Decoding is deferred to the codec so a corrupt remote
// document can be skipped without failing a whole range query.
type StoredDoc struct {
	Date    string
	Payload []byte
}

// RangeSummary is the derived rollup over an ordered sequence of daily
// records. It is never persisted.
type RangeSummary struct {
	TotalSales     float64 `json:"totalSales"`
	TotalProfit    float64 `json:"totalProfit"`
	ProfitableDays int     `json:"profitableDays"`
	TotalDays      int     `json:"totalDays"`
	AvgDailySales  float64 `json:"avgDailySales"`
	AvgDailyProfit float64 `json:"avgDailyProfit"`
}

// SyncStatus reports which durability tiers a write reached.
type SyncStatus string

const (
	// StatusSynced means both the durable local store and the remote store
	// accepted the record.
	StatusSynced SyncStatus = "synced"
	// StatusLocalOnly means the record is durable locally but the remote
	// write timed out or failed; it will sync when the remote is reachable.
	StatusLocalOnly SyncStatus = "local_only"
	// StatusFailed means the durable local write itself failed. This is the
	// only write outcome surfaced as an error to the operator.
	StatusFailed SyncStatus = "failed"
)

// WriteResult describes the outcome of an explicit save.
type WriteResult struct {
	Status SyncStatus `json:"status"`
	Err    error      `json:"-"`
}
