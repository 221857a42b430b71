package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/katwe/bakeledger/internal/service/export"
	"github.com/katwe/bakeledger/internal/service/insights"
	"github.com/katwe/bakeledger/internal/service/rangereader"
)

// SummaryHandler serves the dashboard, history and supervisor screens.
type SummaryHandler struct {
	ranges   *rangereader.Service
	insights *insights.Service
	exporter *export.Service
	logger   *zap.Logger
}

// NewSummaryHandler constructs the summary HTTP adapter. The insight and
// export services may be nil when their backends are not configured.
func NewSummaryHandler(ranges *rangereader.Service, ins *insights.Service, exporter *export.Service, logger *zap.Logger) *SummaryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummaryHandler{ranges: ranges, insights: ins, exporter: exporter, logger: logger}
}

// Records lists the records present in the range, newest first.
func (h *SummaryHandler) Records(c *gin.Context) {
	siteID := c.Param("site")
	start := c.Query("start")
	end := c.Query("end")

	records, err := h.ranges.LoadRange(c.Request.Context(), siteID, start, end)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records, "count": len(records)})
}

// Summary rolls an arbitrary range up into the dashboard aggregate.
func (h *SummaryHandler) Summary(c *gin.Context) {
	siteID := c.Param("site")
	start := c.Query("start")
	end := c.Query("end")

	summary, _, err := h.ranges.Summary(c.Request.Context(), siteID, start, end)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// WeekSummary rolls up the current calendar week.
func (h *SummaryHandler) WeekSummary(c *gin.Context) {
	siteID := c.Param("site")

	summary, records, err := h.ranges.WeekSummary(c.Request.Context(), siteID, time.Now().UTC())
	if err != nil {
		h.logger.Error("week summary failed", zap.String("site", siteID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute week summary"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary, "days": len(records)})
}

// Insights returns generated sales insights and an offer suggestion.
// Generator failures degrade to empty results, never to an error.
func (h *SummaryHandler) Insights(c *gin.Context) {
	siteID := c.Param("site")

	response := gin.H{"insights": []any{}, "offers": ""}
	if h.insights != nil {
		ctx := c.Request.Context()
		if items := h.insights.SalesInsights(ctx, siteID); len(items) > 0 {
			response["insights"] = items
		}
		response["offers"] = h.insights.OfferSuggestion(ctx, siteID)
	}
	c.JSON(http.StatusOK, response)
}

// Export appends the range roll-up to the supervisor spreadsheet.
func (h *SummaryHandler) Export(c *gin.Context) {
	if h.exporter == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "export sink not configured"})
		return
	}
	siteID := c.Param("site")
	start := c.Query("start")
	end := c.Query("end")

	rows, err := h.exporter.ExportRange(c.Request.Context(), siteID, start, end)
	if err != nil {
		h.logger.Error("export failed", zap.String("site", siteID), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "export failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows})
}
