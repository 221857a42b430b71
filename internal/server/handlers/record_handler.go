package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/katwe/bakeledger/internal/domain/models"
	"github.com/katwe/bakeledger/internal/resolver"
	"github.com/katwe/bakeledger/internal/session"
)

// RecordHandler exposes the daily record entry flow: open, stage, save.
type RecordHandler struct {
	sessions *session.Manager
	logger   *zap.Logger
}

// NewRecordHandler constructs the record HTTP adapter.
func NewRecordHandler(sessions *session.Manager, logger *zap.Logger) *RecordHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordHandler{sessions: sessions, logger: logger}
}

// Open loads the record for (site, date) and starts an editing session.
// ?confirm=true discards unsaved work on another date.
func (h *RecordHandler) Open(c *gin.Context) {
	siteID := c.Param("site")
	date := c.Param("date")
	confirm := c.Query("confirm") == "true"

	sess, err := h.sessions.Open(c.Request.Context(), siteID, date, confirm)
	switch {
	case errors.Is(err, session.ErrFutureDate):
		c.JSON(http.StatusBadRequest, gin.H{"error": "records cannot be created for future dates"})
		return
	case errors.Is(err, session.ErrUnsavedChanges):
		c.JSON(http.StatusConflict, gin.H{"error": "unsaved changes on active date", "confirmRequired": true})
		return
	case err != nil:
		h.logger.Warn("open failed", zap.String("site", siteID), zap.String("date", date), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"record":    sess.Record,
		"source":    sess.Source,
		"recovered": sess.Source == resolver.SourceDraft,
	})
}

type stageRequest struct {
	Production  map[string]models.ProductionEntry `json:"production"`
	Sales       map[string]float64                `json:"sales"`
	Adjustments models.Adjustments                `json:"adjustments"`
}

// Stage replaces the working state with the submitted input. Out-of-bound
// values are clamped and reported as warnings, never rejected.
func (h *RecordHandler) Stage(c *gin.Context) {
	siteID := c.Param("site")
	date := c.Param("date")

	var req stageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid stage payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	warnings, dirty, err := h.sessions.Stage(siteID, date, req.Production, req.Sales, req.Adjustments)
	if errors.Is(err, session.ErrNoSession) {
		c.JSON(http.StatusConflict, gin.H{"error": "no editing session open for this date"})
		return
	}

	if warnings == nil {
		warnings = []models.ClampWarning{}
	}
	c.JSON(http.StatusOK, gin.H{"dirty": dirty, "warnings": warnings})
}

// Save writes the staged record through the persistence resolver. A remote
// failure is reported as an informational sync status, not an error; only
// a failed durable-local write surfaces as one.
func (h *RecordHandler) Save(c *gin.Context) {
	siteID := c.Param("site")
	date := c.Param("date")

	result, err := h.sessions.Save(c.Request.Context(), siteID, date)
	if errors.Is(err, session.ErrNoSession) {
		c.JSON(http.StatusConflict, gin.H{"error": "no editing session open for this date"})
		return
	}

	switch result.Status {
	case models.StatusFailed:
		h.logger.Error("save failed", zap.String("site", siteID), zap.String("date", date), zap.Error(result.Err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed, your entries are still on screen"})
	case models.StatusLocalOnly:
		c.JSON(http.StatusOK, gin.H{"status": result.Status, "message": "saved locally, will sync when online"})
	default:
		c.JSON(http.StatusOK, gin.H{"status": result.Status})
	}
}

// CloseSession tears down the site's editing session. ?confirm=true
// discards unsaved changes.
func (h *RecordHandler) CloseSession(c *gin.Context) {
	siteID := c.Param("site")
	confirm := c.Query("confirm") == "true"

	if err := h.sessions.Close(siteID, confirm); errors.Is(err, session.ErrUnsavedChanges) {
		c.JSON(http.StatusConflict, gin.H{"error": "unsaved changes on active date", "confirmRequired": true})
		return
	}
	c.Status(http.StatusNoContent)
}
