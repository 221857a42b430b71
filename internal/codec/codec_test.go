package codec

import (
	"errors"
	"testing"

	"github.com/katwe/bakeledger/internal/domain/models"
)

func TestDecodeTotalsFirstGeneration(t *testing.T) {
	payload := []byte(`{
		"siteId": "morulem",
		"date": "2025-06-02",
		"production": {"p1": {"kgFlour": 10, "productionValueUGX": 93000, "ingredientCostUGX": 52000}},
		"sales": {"p1": 80000},
		"adjustments": {"replacements": 5000, "bonuses": 10000, "debts": 0},
		"totals": {"productionValue": 93000, "ingredientCost": 52000, "salesTotal": 80000, "profit": 13000, "marginPercent": 16.25}
	}`)

	rec, gen, err := Decode(payload)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if gen != GenTotalsFirst {
		t.Errorf("Expected generation %s, got %s", GenTotalsFirst, gen)
	}
	if rec.Totals == nil {
		t.Fatal("Expected totals cache to be present")
	}
	if rec.Totals.Profit != 13000 {
		t.Errorf("Expected cached profit 13000, got %f", rec.Totals.Profit)
	}
	if rec.Production["p1"].FlourKg != 10 {
		t.Errorf("Expected 10 kg flour, got %f", rec.Production["p1"].FlourKg)
	}
}

func TestDecodeRawFieldsGeneration(t *testing.T) {
	payload := []byte(`{
		"siteId": "morulem",
		"date": "2025-06-02",
		"production": {"p1": {"kgFlour": 10, "productionValueUGX": 93000, "ingredientCostUGX": 52000}},
		"sales": {"p1": 80000}
	}`)

	rec, gen, err := Decode(payload)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if gen != GenRawFields {
		t.Errorf("Expected generation %s, got %s", GenRawFields, gen)
	}
	if rec.Totals != nil {
		t.Error("Expected no totals cache on raw-fields generation")
	}
	if rec.Sales["p1"] != 80000 {
		t.Errorf("Expected sales 80000, got %f", rec.Sales["p1"])
	}
}

func TestDecodeLegacyQuantityGeneration(t *testing.T) {
	payload := []byte(`{"siteId": "morulem", "date": "2024-11-20", "quantities": {"sales": {"p1": 20}}}`)

	rec, gen, err := Decode(payload)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if gen != GenLegacyQuantity {
		t.Errorf("Expected generation %s, got %s", GenLegacyQuantity, gen)
	}
	if rec.SaleQuantities["p1"] != 20 {
		t.Errorf("Expected quantity 20, got %f", rec.SaleQuantities["p1"])
	}
	if len(rec.Sales) != 0 {
		t.Error("Legacy generation must not fabricate monetary sales")
	}
}

func TestDecodeFailsClosed(t *testing.T) {
	cases := map[string][]byte{
		"malformed json":   []byte(`{"siteId": "morulem",`),
		"empty object":     []byte(`{}`),
		"unrelated shape":  []byte(`{"foo": "bar", "count": 3}`),
		"empty quantities": []byte(`{"quantities": {"sales": {}}}`),
	}

	for name, payload := range cases {
		rec, gen, err := Decode(payload)
		if err == nil {
			t.Errorf("%s: expected DecodeError, got record %+v", name, rec)
			continue
		}
		var decodeErr *DecodeError
		if !errors.As(err, &decodeErr) {
			t.Errorf("%s: expected *DecodeError, got %T", name, err)
		}
		if rec != nil {
			t.Errorf("%s: a failed decode must never return a partial record", name)
		}
		if gen != GenUnknown {
			t.Errorf("%s: expected GenUnknown, got %s", name, gen)
		}
	}
}

func TestDecodeClampsNegatives(t *testing.T) {
	payload := []byte(`{
		"production": {"p1": {"kgFlour": -3, "productionValueUGX": 1000, "ingredientCostUGX": -50}},
		"sales": {"p1": -200},
		"adjustments": {"replacements": -1, "bonuses": 0, "debts": 0}
	}`)

	rec, _, err := Decode(payload)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if rec.Production["p1"].FlourKg != 0 {
		t.Errorf("Expected negative flour clamped to 0, got %f", rec.Production["p1"].FlourKg)
	}
	if rec.Sales["p1"] != 0 {
		t.Errorf("Expected negative sale clamped to 0, got %f", rec.Sales["p1"])
	}
	if rec.Adjustments.Replacements != 0 {
		t.Errorf("Expected negative replacement clamped to 0, got %f", rec.Adjustments.Replacements)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	rec := models.NewDailyRecord("morulem", "2025-06-02")
	rec.Production["p1"] = models.ProductionEntry{FlourKg: 10, ProductionValue: 93000, IngredientCost: 52000}
	rec.Sales["p1"] = 80000
	rec.Adjustments = models.Adjustments{Replacements: 5000, Bonuses: 10000}

	payload, err := Encode(rec)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	decoded, gen, err := Decode(payload)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if gen != GenRawFields {
		t.Errorf("Record without totals should round-trip as raw-fields, got %s", gen)
	}
	if decoded.SiteID != rec.SiteID || decoded.Date != rec.Date {
		t.Errorf("Identity lost: got %s/%s", decoded.SiteID, decoded.Date)
	}
	if decoded.Production["p1"] != rec.Production["p1"] {
		t.Errorf("Production entry changed: %+v", decoded.Production["p1"])
	}
	if decoded.Sales["p1"] != rec.Sales["p1"] {
		t.Errorf("Sales changed: %f", decoded.Sales["p1"])
	}
	if decoded.Adjustments != rec.Adjustments {
		t.Errorf("Adjustments changed: %+v", decoded.Adjustments)
	}
	if decoded.Totals != nil {
		t.Error("Round trip must not invent a totals cache")
	}
}

func TestEncodePreservesLegacyQuantities(t *testing.T) {
	payload := []byte(`{"quantities": {"sales": {"p1": 20}}}`)
	rec, _, err := Decode(payload)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	reencoded, err := Encode(rec)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	again, gen, err := Decode(reencoded)
	if err != nil {
		t.Fatalf("Second decode failed: %v", err)
	}
	if gen != GenLegacyQuantity {
		t.Errorf("Expected legacy generation after round trip, got %s", gen)
	}
	if again.SaleQuantities["p1"] != 20 {
		t.Errorf("Legacy quantities lost: %f", again.SaleQuantities["p1"])
	}
}
