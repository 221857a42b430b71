// Package session owns the active editing state per site: the working
// record, its change-tracking baseline and the autosave draft lifecycle.
// A session is torn down wholesale on date switch; an in-flight dirty
// state must be confirmed away before the switch discards it.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/katwe/bakeledger/internal/aggregate"
	"github.com/katwe/bakeledger/internal/domain/models"
	"github.com/katwe/bakeledger/internal/resolver"
	"github.com/katwe/bakeledger/internal/tracker"
)

// ErrUnsavedChanges reports a dirty working record blocking a destructive
// navigation. Callers retry with confirm once the operator approves.
var ErrUnsavedChanges = errors.New("unsaved changes on active date")

// ErrFutureDate rejects creating or opening records for dates after today.
var ErrFutureDate = errors.New("records cannot be created for future dates")

// ErrNoSession reports an operation against a site with no open session.
var ErrNoSession = errors.New("no active editing session for site")

// Session is the live editing state for one (site, date).
type Session struct {
	SiteID string
	Date   string
	Record *models.DailyRecord
	Source resolver.ReadSource

	tracker *tracker.Tracker
	saving  bool
}

// Manager tracks one session per site and drives autosave ticks.
type Manager struct {
	resolver *resolver.Resolver
	catalog  *models.Catalog
	limits   models.Limits
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager wires a session manager.
func NewManager(res *resolver.Resolver, catalog *models.Catalog, limits models.Limits, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		resolver: res,
		catalog:  catalog,
		limits:   limits,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Open loads the record for (site, date) through the resolver tiers and
// starts an editing session with a fresh baseline. When a session for the
// site is already open on another date and dirty, the switch is refused
// with ErrUnsavedChanges unless confirm is set; confirming discards the
// unsaved work. Future dates are never openable.
func (m *Manager) Open(ctx context.Context, siteID, date string, confirm bool) (*Session, error) {
	parsed, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return nil, err
	}
	today := m.now().UTC().Truncate(24 * time.Hour)
	if parsed.After(today) {
		return nil, ErrFutureDate
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.sessions[siteID]; ok && existing.Date != date {
		if existing.tracker.IsDirty(existing.Record) && !confirm {
			return nil, ErrUnsavedChanges
		}
		// The discarded draft must not resurrect the abandoned edits.
		m.resolver.ClearDraft(existing.SiteID, existing.Date)
	}

	rec, source, err := m.resolver.Read(ctx, siteID, date)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = models.NewDailyRecord(siteID, date)
		source = resolver.SourceNone
	}

	sess := &Session{
		SiteID:  siteID,
		Date:    date,
		Record:  rec,
		Source:  source,
		tracker: tracker.New(),
	}
	sess.tracker.Snapshot(rec)
	m.sessions[siteID] = sess

	m.logger.Debug("session opened", zap.String("site", siteID), zap.String("date", date),
		zap.String("source", string(source)))
	return sess, nil
}

// Stage replaces the working production, sales and adjustments with the
// operator's input, clamping out-of-bound values. It returns the clamp
// warnings and the resulting dirty flag; nothing is persisted until an
// explicit save (the autosave timer may write a draft meanwhile).
func (m *Manager) Stage(siteID, date string, production map[string]models.ProductionEntry,
	sales map[string]float64, adjustments models.Adjustments) ([]models.ClampWarning, bool, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[siteID]
	if !ok || sess.Date != date {
		return nil, false, ErrNoSession
	}

	if production != nil {
		sess.Record.Production = production
	}
	if sales != nil {
		sess.Record.Sales = sales
	}
	sess.Record.Adjustments = adjustments
	warnings := m.limits.Apply(sess.Record)

	// Staged edits invalidate any cached totals.
	sess.Record.Totals = nil

	return warnings, sess.tracker.IsDirty(sess.Record), nil
}

// Save computes totals through the aggregator and writes the record
// through the resolver. The baseline is only advanced when the durable
// local write succeeded; a failed save leaves the working state intact
// and still dirty.
func (m *Manager) Save(ctx context.Context, siteID, date string) (models.WriteResult, error) {
	m.mu.Lock()
	sess, ok := m.sessions[siteID]
	if ok && sess.Date != date {
		ok = false
	}
	if !ok {
		m.mu.Unlock()
		return models.WriteResult{Status: models.StatusFailed, Err: ErrNoSession}, ErrNoSession
	}
	sess.saving = true
	totals := aggregate.ComputeDailyTotals(sess.Record, m.catalog.ForSite(siteID))
	sess.Record.Totals = &totals
	rec := sess.Record
	m.mu.Unlock()

	result := m.resolver.Write(ctx, rec)

	m.mu.Lock()
	sess.saving = false
	if result.Status != models.StatusFailed {
		sess.tracker.Snapshot(sess.Record)
	}
	m.mu.Unlock()

	return result, result.Err
}

// AutosaveTick writes a recovery draft for every dirty session. Sessions
// mid-save are skipped so the draft timer and the explicit save path stay
// mutually exclusive.
func (m *Manager) AutosaveTick() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, sess := range m.sessions {
		if sess.saving || !sess.tracker.IsDirty(sess.Record) {
			continue
		}
		m.resolver.SaveDraft(sess.Record.Clone())
		m.logger.Debug("draft autosaved", zap.String("site", sess.SiteID), zap.String("date", sess.Date))
	}
}

// Close tears a session down. A dirty session is refused unless confirm is
// set; confirming also drops the recovery draft.
func (m *Manager) Close(siteID string, confirm bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[siteID]
	if !ok {
		return nil
	}
	if sess.tracker.IsDirty(sess.Record) && !confirm {
		return ErrUnsavedChanges
	}
	m.resolver.ClearDraft(sess.SiteID, sess.Date)
	delete(m.sessions, siteID)
	return nil
}

// IsDirty reports the current dirty flag for the site's session.
func (m *Manager) IsDirty(siteID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[siteID]
	return ok && sess.tracker.IsDirty(sess.Record)
}
