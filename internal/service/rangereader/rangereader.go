// Package rangereader loads daily records over a date range and rolls
// them up for the summary, history and supervisor screens. It prefers a
// single bulk remote query and falls back to walking the durable-local
// tiers per date when the remote is unreachable.
package rangereader

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/katwe/bakeledger/internal/aggregate"
	"github.com/katwe/bakeledger/internal/codec"
	"github.com/katwe/bakeledger/internal/domain/models"
	"github.com/katwe/bakeledger/internal/resolver"
)

// Service reads ranges of daily records through the persistence resolver.
type Service struct {
	resolver *resolver.Resolver
	catalog  *models.Catalog
	logger   *zap.Logger
}

// NewService wires a range reader.
func NewService(res *resolver.Resolver, catalog *models.Catalog, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{resolver: res, catalog: catalog, logger: logger}
}

// LoadRange returns the records present for the site between startDate and
// endDate inclusive, newest first. Absent dates are omitted, never
// synthesized as zero records.
func (s *Service) LoadRange(ctx context.Context, siteID, startDate, endDate string) ([]*models.DailyRecord, error) {
	start, err := time.Parse(models.DateLayout, startDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", startDate, err)
	}
	end, err := time.Parse(models.DateLayout, endDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end date %q: %w", endDate, err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("end date %s precedes start date %s", endDate, startDate)
	}

	docs, err := s.resolver.QueryRemoteRange(ctx, siteID, startDate, endDate)
	if err == nil {
		return s.decodeDocs(siteID, docs), nil
	}
	s.logger.Warn("bulk remote range failed, walking local tiers",
		zap.String("site", siteID), zap.String("start", startDate),
		zap.String("end", endDate), zap.Error(err))

	// Remote already failed once; per-date reads stay on the local tiers.
	var records []*models.DailyRecord
	for day := end; !day.Before(start); day = day.AddDate(0, 0, -1) {
		rec, _ := s.resolver.ReadLocal(siteID, day.Format(models.DateLayout))
		if rec != nil {
			records = append(records, rec)
		}
	}
	return records, nil
}

// Summary rolls the range up into the dashboard aggregate.
func (s *Service) Summary(ctx context.Context, siteID, startDate, endDate string) (models.RangeSummary, []*models.DailyRecord, error) {
	records, err := s.LoadRange(ctx, siteID, startDate, endDate)
	if err != nil {
		return models.RangeSummary{}, nil, err
	}
	return aggregate.ComputeRangeSummary(records, s.catalog.ForSite(siteID)), records, nil
}

// WeekSummary rolls up the calendar week containing ref, Monday through
// ref's date.
func (s *Service) WeekSummary(ctx context.Context, siteID string, ref time.Time) (models.RangeSummary, []*models.DailyRecord, error) {
	start := mondayStart(ref)
	return s.Summary(ctx, siteID, start.Format(models.DateLayout), ref.Format(models.DateLayout))
}

// WeeklySalesHistory groups the last `weeks` weeks of sales by week label
// and product name, the shape the insight generator consumes.
func (s *Service) WeeklySalesHistory(ctx context.Context, siteID string, ref time.Time, weeks int) ([]models.WeeklySales, error) {
	if weeks <= 0 {
		weeks = 4
	}
	start := mondayStart(ref).AddDate(0, 0, -7*(weeks-1))
	records, err := s.LoadRange(ctx, siteID, start.Format(models.DateLayout), ref.Format(models.DateLayout))
	if err != nil {
		return nil, err
	}

	prices := s.catalog.ForSite(siteID)
	byWeek := make(map[string]map[string]float64)
	for _, rec := range records {
		day, err := time.Parse(models.DateLayout, rec.Date)
		if err != nil {
			continue
		}
		week := mondayStart(day).Format(models.DateLayout)
		if byWeek[week] == nil {
			byWeek[week] = make(map[string]float64)
		}
		for productID, amount := range rec.Sales {
			byWeek[week][prices.ProductName(productID)] += amount
		}
		for productID, qty := range rec.SaleQuantities {
			byWeek[week][prices.ProductName(productID)] += qty * prices.UnitPrice(productID)
		}
	}

	history := make([]models.WeeklySales, 0, len(byWeek))
	for week, sales := range byWeek {
		history = append(history, models.WeeklySales{Week: week, Sales: sales})
	}
	sort.Slice(history, func(i, j int) bool { return history[i].Week < history[j].Week })
	return history, nil
}

func (s *Service) decodeDocs(siteID string, docs []models.StoredDoc) []*models.DailyRecord {
	records := make([]*models.DailyRecord, 0, len(docs))
	for _, doc := range docs {
		rec, _, err := codec.Decode(doc.Payload)
		if err != nil {
			s.logger.Warn("skipping undecodable remote document",
				zap.String("site", siteID), zap.String("date", doc.Date), zap.Error(err))
			continue
		}
		if !rec.HasData() {
			continue
		}
		if rec.Date == "" {
			rec.Date = doc.Date
		}
		if rec.SiteID == "" {
			rec.SiteID = siteID
		}
		records = append(records, rec)
	}
	// Backends sort their own output but the newest-first contract is ours.
	sort.Slice(records, func(i, j int) bool { return records[i].Date > records[j].Date })
	return records
}

func mondayStart(ref time.Time) time.Time {
	day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
