// Package resolver decides, per (site, date), which stored representation
// of a daily record is authoritative, and writes changes local-first with a
// best-effort, timeboxed remote mirror. Every read tier fails independently;
// an unreachable remote is never more than a fallthrough.
package resolver

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/katwe/bakeledger/internal/codec"
	"github.com/katwe/bakeledger/internal/domain/models"
)

// DefaultRemoteTimeout bounds every remote attempt issued by the resolver.
const DefaultRemoteTimeout = 5 * time.Second

// ErrRemoteUnavailable indicates no remote store is configured or the bulk
// query could not reach it; callers fall back to the durable-local tiers.
var ErrRemoteUnavailable = errors.New("remote store unavailable")

// RemoteStore is the three-method remote contract. Both the document and
// the relational backend satisfy it; the resolver treats them identically.
type RemoteStore interface {
	GetByKey(ctx context.Context, siteID, date string) ([]byte, error)
	Upsert(ctx context.Context, siteID, date string, payload []byte) error
	QueryRange(ctx context.Context, siteID, startDate, endDate string) ([]models.StoredDoc, error)
}

// LocalStore is the synchronous durable key-value tier. It is exclusively
// owned by the resolver; no other component touches its keys.
type LocalStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
	Keys(prefix string) ([]string, error)
}

// ReadSource identifies which tier produced a record, so callers can
// surface a distinguishable "recovered from draft" state.
type ReadSource string

const (
	SourceRemote       ReadSource = "remote"
	SourceLocalPrimary ReadSource = "local"
	SourceLocalLegacy  ReadSource = "local_legacy"
	SourceDraft        ReadSource = "draft"
	SourceNone         ReadSource = "none"
)

// Resolver is the single owner of the durable-local and draft stores.
type Resolver struct {
	remote        RemoteStore
	local         LocalStore
	remoteTimeout time.Duration
	logger        *zap.Logger
}

// New wires a resolver. The remote store may be nil, in which case every
// write is local-only and reads start at the durable-local tier.
func New(remote RemoteStore, local LocalStore, remoteTimeout time.Duration, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if remoteTimeout <= 0 {
		remoteTimeout = DefaultRemoteTimeout
	}
	return &Resolver{
		remote:        remote,
		local:         local,
		remoteTimeout: remoteTimeout,
		logger:        logger,
	}
}

// Read walks the tier order — remote, local primary key, local legacy key,
// recovery draft — and returns the first decodable record carrying data.
// Tier failures never propagate; exhausting every tier returns (nil,
// SourceNone, nil) meaning "no usable record for this key".
func (r *Resolver) Read(ctx context.Context, siteID, date string) (*models.DailyRecord, ReadSource, error) {
	if r.remote != nil {
		remoteCtx, cancel := context.WithTimeout(ctx, r.remoteTimeout)
		payload, err := r.remote.GetByKey(remoteCtx, siteID, date)
		cancel()
		switch {
		case err != nil:
			r.logger.Warn("remote read failed, falling back to local",
				zap.String("site", siteID), zap.String("date", date), zap.Error(err))
		case payload != nil:
			if rec := r.decodeTier(payload, siteID, date, SourceRemote); rec != nil {
				return rec, SourceRemote, nil
			}
		}
	}

	if rec, source := r.readLocal(siteID, date); rec != nil {
		return rec, source, nil
	}

	if rec := r.readDraft(siteID, date); rec != nil {
		return rec, SourceDraft, nil
	}

	return nil, SourceNone, nil
}

// ReadLocal consults only the durable-local key chain, skipping remote and
// draft tiers. The range reader uses it once a bulk remote query has
// already failed.
func (r *Resolver) ReadLocal(siteID, date string) (*models.DailyRecord, ReadSource) {
	return r.readLocal(siteID, date)
}

func (r *Resolver) readLocal(siteID, date string) (*models.DailyRecord, ReadSource) {
	sources := []ReadSource{SourceLocalPrimary, SourceLocalLegacy}
	for i, strategy := range localReadKeys {
		value, err := r.local.Get(strategy(siteID, date))
		if err != nil {
			r.logger.Warn("local read failed", zap.String("site", siteID),
				zap.String("date", date), zap.Error(err))
			continue
		}
		if value == "" {
			continue
		}
		if rec := r.decodeTier([]byte(value), siteID, date, sources[i]); rec != nil {
			return rec, sources[i]
		}
	}
	return nil, SourceNone
}

func (r *Resolver) readDraft(siteID, date string) *models.DailyRecord {
	value, err := r.local.Get(draftKey(siteID, date))
	if err != nil || value == "" {
		return nil
	}
	// A corrupt draft is ignored, never fatal to the load path.
	return r.decodeTier([]byte(value), siteID, date, SourceDraft)
}

func (r *Resolver) decodeTier(payload []byte, siteID, date string, source ReadSource) *models.DailyRecord {
	rec, gen, err := codec.Decode(payload)
	if err != nil {
		r.logger.Warn("undecodable record skipped", zap.String("site", siteID),
			zap.String("date", date), zap.String("tier", string(source)), zap.Error(err))
		return nil
	}
	if !rec.HasData() {
		return nil
	}
	// Stored payloads predating site/date identity fields inherit the key.
	if rec.SiteID == "" {
		rec.SiteID = siteID
	}
	if rec.Date == "" {
		rec.Date = date
	}
	r.logger.Debug("record resolved", zap.String("site", siteID), zap.String("date", date),
		zap.String("tier", string(source)), zap.String("generation", gen.String()))
	return rec
}

// Write persists the record durable-local first, then mirrors it to the
// remote store within the configured bound. The local write is the
// durability boundary: its failure is the only one surfaced as an error.
// A remote timeout or failure downgrades the result to StatusLocalOnly and
// marks the key for the re-sync job; the user is never blocked on it.
func (r *Resolver) Write(ctx context.Context, rec *models.DailyRecord) models.WriteResult {
	rec.UpdatedAt = time.Now().UTC()
	payload, err := codec.Encode(rec)
	if err != nil {
		return models.WriteResult{Status: models.StatusFailed, Err: err}
	}

	if err := r.local.Set(primaryKey(rec.SiteID, rec.Date), string(payload)); err != nil {
		// No fallback tier exists below local; this is a visible failure.
		r.logger.Error("durable local write failed", zap.String("site", rec.SiteID),
			zap.String("date", rec.Date), zap.Error(err))
		return models.WriteResult{Status: models.StatusFailed, Err: err}
	}

	// The explicit save supersedes any autosaved draft.
	r.ClearDraft(rec.SiteID, rec.Date)

	if r.remote == nil {
		r.markPending(rec.SiteID, rec.Date)
		return models.WriteResult{Status: models.StatusLocalOnly}
	}

	if err := r.remoteUpsert(ctx, rec.SiteID, rec.Date, payload); err != nil {
		r.logger.Warn("remote write failed, saved locally",
			zap.String("site", rec.SiteID), zap.String("date", rec.Date), zap.Error(err))
		r.markPending(rec.SiteID, rec.Date)
		return models.WriteResult{Status: models.StatusLocalOnly}
	}

	r.clearPending(rec.SiteID, rec.Date)
	return models.WriteResult{Status: models.StatusSynced}
}

// remoteUpsert races the remote write against the timeout. On expiry the
// attempt is abandoned; a late completion is ignored.
func (r *Resolver) remoteUpsert(ctx context.Context, siteID, date string, payload []byte) error {
	remoteCtx, cancel := context.WithTimeout(ctx, r.remoteTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- r.remote.Upsert(remoteCtx, siteID, date, payload)
	}()

	select {
	case err := <-done:
		return err
	case <-remoteCtx.Done():
		return remoteCtx.Err()
	}
}

// SaveDraft autosaves a working copy under the recovery key. Drafts are
// best effort: encode or storage failures are logged and swallowed.
func (r *Resolver) SaveDraft(rec *models.DailyRecord) {
	payload, err := codec.Encode(rec)
	if err != nil {
		r.logger.Debug("draft encode failed", zap.String("site", rec.SiteID), zap.Error(err))
		return
	}
	if err := r.local.Set(draftKey(rec.SiteID, rec.Date), string(payload)); err != nil {
		r.logger.Debug("draft write failed", zap.String("site", rec.SiteID),
			zap.String("date", rec.Date), zap.Error(err))
	}
}

// ClearDraft removes the recovery draft for the key, best effort.
func (r *Resolver) ClearDraft(siteID, date string) {
	if err := r.local.Remove(draftKey(siteID, date)); err != nil {
		r.logger.Debug("draft remove failed", zap.String("site", siteID),
			zap.String("date", date), zap.Error(err))
	}
}

// QueryRemoteRange exposes the bulk remote query to the range reader while
// keeping store ownership inside the resolver.
func (r *Resolver) QueryRemoteRange(ctx context.Context, siteID, startDate, endDate string) ([]models.StoredDoc, error) {
	if r.remote == nil {
		return nil, ErrRemoteUnavailable
	}
	remoteCtx, cancel := context.WithTimeout(ctx, r.remoteTimeout)
	defer cancel()
	return r.remote.QueryRange(remoteCtx, siteID, startDate, endDate)
}

// ResyncPending re-pushes every record whose last remote write failed.
// Invoked by the nightly scheduler job; individual failures stay pending.
func (r *Resolver) ResyncPending(ctx context.Context) {
	if r.remote == nil {
		return
	}
	keys, err := r.local.Keys(pendingPrefix)
	if err != nil {
		r.logger.Warn("pending scan failed", zap.Error(err))
		return
	}
	for _, key := range keys {
		parts := strings.SplitN(strings.TrimPrefix(key, pendingPrefix), ":", 2)
		if len(parts) != 2 {
			continue
		}
		siteID, date := parts[0], parts[1]
		value, err := r.local.Get(primaryKey(siteID, date))
		if err != nil || value == "" {
			continue
		}
		if err := r.remoteUpsert(ctx, siteID, date, []byte(value)); err != nil {
			r.logger.Debug("resync attempt failed", zap.String("site", siteID),
				zap.String("date", date), zap.Error(err))
			continue
		}
		r.clearPending(siteID, date)
		r.logger.Info("pending record synced", zap.String("site", siteID), zap.String("date", date))
	}
}

func (r *Resolver) markPending(siteID, date string) {
	if err := r.local.Set(pendingKey(siteID, date), "1"); err != nil {
		r.logger.Debug("pending mark failed", zap.Error(err))
	}
}

func (r *Resolver) clearPending(siteID, date string) {
	if err := r.local.Remove(pendingKey(siteID, date)); err != nil {
		r.logger.Debug("pending clear failed", zap.Error(err))
	}
}
