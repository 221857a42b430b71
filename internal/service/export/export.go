// Package export renders canonical daily records into the supervisor
// roll-up format: one row per product per day plus a trailing summary
// block, appended to the configured spreadsheet tab.
package export

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/katwe/bakeledger/internal/aggregate"
	"github.com/katwe/bakeledger/internal/domain/models"
	"github.com/katwe/bakeledger/internal/repository/sheets"
	"github.com/katwe/bakeledger/internal/service/rangereader"
)

const exportRange = "Rollup!A:G"

var header = []interface{}{"date", "product", "kgFlour", "productionValueUGX", "ingredientCostUGX", "salesUGX", "profitUGX"}

// Service pushes range exports to the spreadsheet sink.
type Service struct {
	ranges  *rangereader.Service
	sink    sheets.Repository
	catalog *models.Catalog
	logger  *zap.Logger
}

// NewService wires the export service.
func NewService(ranges *rangereader.Service, sink sheets.Repository, catalog *models.Catalog, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{ranges: ranges, sink: sink, catalog: catalog, logger: logger}
}

// ExportRange loads the date range, renders it and appends the rows plus a
// summary block to the roll-up sheet. It returns the number of data rows
// exported.
func (s *Service) ExportRange(ctx context.Context, siteID, startDate, endDate string) (int, error) {
	summary, records, err := s.ranges.Summary(ctx, siteID, startDate, endDate)
	if err != nil {
		return 0, err
	}

	rows := [][]interface{}{header}
	dataRows := 0
	// Records arrive newest first; the roll-up reads oldest first.
	prices := s.catalog.ForSite(siteID)
	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		for _, row := range s.recordRows(rec, prices) {
			rows = append(rows, row)
			dataRows++
		}
	}
	rows = append(rows, s.summaryBlock(siteID, startDate, endDate, summary)...)

	if err := s.sink.AppendRows(ctx, exportRange, rows); err != nil {
		return 0, err
	}

	s.logger.Info("range exported", zap.String("site", siteID),
		zap.String("start", startDate), zap.String("end", endDate), zap.Int("rows", dataRows))
	return dataRows, nil
}

// recordRows flattens one day into per-product rows. A product appears when
// it has production or sales that day; daily profit is attributed to the
// row carrying the day's figures proportionally by sales.
func (s *Service) recordRows(rec *models.DailyRecord, prices *models.PriceList) [][]interface{} {
	totals := aggregate.DailyTotals(rec, prices)

	productIDs := make(map[string]struct{})
	for id := range rec.Production {
		productIDs[id] = struct{}{}
	}
	for id := range rec.Sales {
		productIDs[id] = struct{}{}
	}
	for id := range rec.SaleQuantities {
		productIDs[id] = struct{}{}
	}

	ids := make([]string, 0, len(productIDs))
	for id := range productIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rows := make([][]interface{}, 0, len(ids))
	for _, id := range ids {
		entry := rec.Production[id]
		salesUGX := rec.Sales[id] + rec.SaleQuantities[id]*prices.UnitPrice(id)

		var profit float64
		if totals.SalesTotal > 0 {
			profit = totals.Profit * (salesUGX / totals.SalesTotal)
		}

		rows = append(rows, []interface{}{
			rec.Date,
			prices.ProductName(id),
			entry.FlourKg,
			entry.ProductionValue,
			entry.IngredientCost,
			salesUGX,
			profit,
		})
	}
	return rows
}

func (s *Service) summaryBlock(siteID, startDate, endDate string, summary models.RangeSummary) [][]interface{} {
	return [][]interface{}{
		{},
		{fmt.Sprintf("Summary %s (%s to %s)", siteID, startDate, endDate)},
		{"total sales", summary.TotalSales},
		{"total profit", summary.TotalProfit},
		{"profitable days", summary.ProfitableDays, "of", summary.TotalDays},
		{"avg daily sales", summary.AvgDailySales},
		{"avg daily profit", summary.AvgDailyProfit},
	}
}
