// Package codec converts between the stored representations of a daily
// record and the canonical in-memory shape. Three schema generations exist
// in the wild; none carries a version tag, so the generation is inferred
// from structure and exposed as an explicit enum.
package codec

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/katwe/bakeledger/internal/domain/models"
)

// Generation identifies which historical stored shape a record decoded from.
type Generation int

const (
	// GenUnknown matches no known shape; decoding fails closed.
	GenUnknown Generation = iota
	// GenTotalsFirst carries a totals cache alongside the raw fields.
	GenTotalsFirst
	// GenRawFields carries production and/or sales maps without totals.
	GenRawFields
	// GenLegacyQuantity carries per-product unit counts only; revenue is
	// quantity times price and ingredient cost is unknown.
	GenLegacyQuantity
)

func (g Generation) String() string {
	switch g {
	case GenTotalsFirst:
		return "totals-first"
	case GenRawFields:
		return "raw-fields"
	case GenLegacyQuantity:
		return "legacy-quantity"
	default:
		return "unknown"
	}
}

// DecodeError reports stored data that matches no known generation.
// Callers treat it as "no usable record for this key"; a partially
// populated record is never returned alongside it.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode daily record: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decode daily record: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }

type storedQuantities struct {
	Sales map[string]float64 `json:"sales,omitempty"`
}

// storedRecord is the union of every field any generation may carry.
type storedRecord struct {
	SiteID      string                            `json:"siteId,omitempty"`
	Date        string                            `json:"date,omitempty"`
	Production  map[string]models.ProductionEntry `json:"production,omitempty"`
	Sales       map[string]float64                `json:"sales,omitempty"`
	Adjustments *models.Adjustments               `json:"adjustments,omitempty"`
	Totals      *models.Totals                    `json:"totals,omitempty"`
	Quantities  *storedQuantities                 `json:"quantities,omitempty"`
	UpdatedAt   string                            `json:"updatedAt,omitempty"`
}

// Decode parses one stored payload into the canonical record shape. The
// returned generation tells the caller which shape matched; GenUnknown is
// only ever returned together with a *DecodeError.
func Decode(payload []byte) (*models.DailyRecord, Generation, error) {
	var stored storedRecord
	if err := json.Unmarshal(payload, &stored); err != nil {
		return nil, GenUnknown, &DecodeError{Reason: "malformed json", Err: err}
	}

	gen := detect(&stored)
	if gen == GenUnknown {
		return nil, GenUnknown, &DecodeError{Reason: "no known generation matches"}
	}

	rec := models.NewDailyRecord(stored.SiteID, stored.Date)
	if stored.Adjustments != nil {
		rec.Adjustments = *stored.Adjustments
	}
	clampAdjustments(&rec.Adjustments)
	if stored.UpdatedAt != "" {
		if ts, err := time.Parse(time.RFC3339, stored.UpdatedAt); err == nil {
			rec.UpdatedAt = ts
		}
	}

	for id, entry := range stored.Production {
		rec.Production[id] = models.ProductionEntry{
			FlourKg:         nonNegative(entry.FlourKg),
			ProductionValue: nonNegative(entry.ProductionValue),
			IngredientCost:  nonNegative(entry.IngredientCost),
		}
	}
	for id, amount := range stored.Sales {
		rec.Sales[id] = nonNegative(amount)
	}
	if stored.Quantities != nil && len(stored.Quantities.Sales) > 0 {
		rec.SaleQuantities = make(map[string]float64, len(stored.Quantities.Sales))
		for id, qty := range stored.Quantities.Sales {
			rec.SaleQuantities[id] = nonNegative(qty)
		}
	}
	if gen == GenTotalsFirst {
		totals := *stored.Totals
		rec.Totals = &totals
	}

	return rec, gen, nil
}

// Encode serializes a canonical record into the current on-disk shape,
// which is the totals-first generation when the record carries a totals
// cache and the raw-fields shape otherwise. Legacy unit counts survive the
// round trip so that repriced history can still be re-derived.
func Encode(rec *models.DailyRecord) ([]byte, error) {
	if rec == nil {
		return nil, fmt.Errorf("encode daily record: nil record")
	}

	stored := storedRecord{
		SiteID:     rec.SiteID,
		Date:       rec.Date,
		Production: rec.Production,
		Sales:      rec.Sales,
		Totals:     rec.Totals,
	}
	adjustments := rec.Adjustments
	stored.Adjustments = &adjustments
	if len(rec.SaleQuantities) > 0 {
		stored.Quantities = &storedQuantities{Sales: rec.SaleQuantities}
	}
	if !rec.UpdatedAt.IsZero() {
		stored.UpdatedAt = rec.UpdatedAt.UTC().Format(time.RFC3339)
	}

	payload, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("encode daily record: %w", err)
	}
	return payload, nil
}

func detect(stored *storedRecord) Generation {
	switch {
	case stored.Totals != nil:
		return GenTotalsFirst
	case len(stored.Production) > 0 || len(stored.Sales) > 0:
		return GenRawFields
	case stored.Quantities != nil && len(stored.Quantities.Sales) > 0:
		return GenLegacyQuantity
	default:
		return GenUnknown
	}
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func clampAdjustments(a *models.Adjustments) {
	a.Replacements = nonNegative(a.Replacements)
	a.Bonuses = nonNegative(a.Bonuses)
	a.Debts = nonNegative(a.Debts)
}
