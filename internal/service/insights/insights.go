// Package insights feeds serialized sales history to the generative
// insight endpoint and tolerates anything it gets back. An empty or failed
// response renders as no insights, never as an error to the operator.
package insights

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/katwe/bakeledger/internal/domain/models"
	"github.com/katwe/bakeledger/internal/service/rangereader"
	"github.com/katwe/bakeledger/pkg/clients/anthropic"
)

const historyWeeks = 4

// Service generates sales insights and offer suggestions for a site.
type Service struct {
	ranges *rangereader.Service
	ai     anthropic.Client
	logger *zap.Logger
}

// NewService wires the insight service. The AI client may be nil when no
// API key is configured; every call then returns empty results.
func NewService(ranges *rangereader.Service, ai anthropic.Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{ranges: ranges, ai: ai, logger: logger}
}

// SalesInsights returns up to three generated insights over the last four
// weeks of sales. Failures degrade to an empty slice.
func (s *Service) SalesInsights(ctx context.Context, siteID string) []models.Insight {
	payload, ok := s.historyJSON(ctx, siteID)
	if !ok || s.ai == nil {
		return nil
	}

	generated, err := s.ai.GenerateInsights(ctx, payload)
	if err != nil {
		s.logger.Warn("insight generation failed", zap.String("site", siteID), zap.Error(err))
		return nil
	}

	insights := make([]models.Insight, 0, len(generated))
	for _, item := range generated {
		insights = append(insights, models.Insight{
			Title:   item.Title,
			Insight: item.Insight,
			Emoji:   item.Emoji,
		})
	}
	return insights
}

// OfferSuggestion returns one generated promotional offer, or "" when the
// generator is unavailable or has nothing to say.
func (s *Service) OfferSuggestion(ctx context.Context, siteID string) string {
	payload, ok := s.historyJSON(ctx, siteID)
	if !ok || s.ai == nil {
		return ""
	}

	offer, err := s.ai.GenerateOffer(ctx, payload)
	if err != nil {
		s.logger.Warn("offer generation failed", zap.String("site", siteID), zap.Error(err))
		return ""
	}
	return offer
}

func (s *Service) historyJSON(ctx context.Context, siteID string) (string, bool) {
	history, err := s.ranges.WeeklySalesHistory(ctx, siteID, time.Now().UTC(), historyWeeks)
	if err != nil {
		s.logger.Warn("sales history load failed", zap.String("site", siteID), zap.Error(err))
		return "", false
	}
	if len(history) == 0 {
		return "", false
	}
	payload, err := json.Marshal(history)
	if err != nil {
		return "", false
	}
	return string(payload), true
}
