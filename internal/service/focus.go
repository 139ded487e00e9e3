package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/nexh/focus/internal/domain"
	"github.com/nexh/focus/internal/focus"
	"github.com/nexh/focus/internal/llm"
	"github.com/nexh/focus/internal/metrics"
	"github.com/nexh/focus/internal/store"
	"go.uber.org/zap"
)

const (
	draftTimeout = 20 * time.Second
	// cacheGrace keeps a list readable for a while after its day ends.
	cacheGrace = time.Hour
)

type GenerateOpts struct {
	// Drafts asks for an outreach draft on every entry.
	Drafts bool
	// Refresh bypasses the report cache.
	Refresh bool
}

// FocusService loads a tenant's data, runs focus.Compute and caches the result.
type FocusService struct {
	tenantStore domain.TenantStore
	snapshots   domain.SnapshotReader
	cache       domain.ReportCache
	drafts      domain.DraftGenerator
	logger      *zap.Logger
	now         func() time.Time
}

func NewFocusService(ts domain.TenantStore, sr domain.SnapshotReader, logger *zap.Logger) *FocusService {
	return &FocusService{
		tenantStore: ts,
		snapshots:   sr,
		logger:      logger,
		now:         time.Now,
	}
}

// SetReportCache enables caching of computed lists.
func (s *FocusService) SetReportCache(c domain.ReportCache) {
	s.cache = c
}

// SetDraftGenerator enables draft generation.
func (s *FocusService) SetDraftGenerator(g domain.DraftGenerator) {
	s.drafts = g
}

// Generate returns the focus list of tenantID for the calendar day of date.
func (s *FocusService) Generate(ctx context.Context, tenantID uuid.UUID, date time.Time, opts GenerateOpts) (*domain.FocusList, error) {
	asOf := domain.StartOfDay(date)
	dateStr := domain.FormatDate(asOf)
	log := s.logger.With(zap.String("tenant_id", tenantID.String()), zap.String("date", dateStr))

	tenant, err := s.tenantStore.GetByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.FocusComputations.WithLabelValues("not_found").Inc()
			return nil, &domain.NotFoundError{Resource: "tenant", ID: tenantID.String()}
		}
		metrics.FocusComputations.WithLabelValues("data_error").Inc()
		return nil, &domain.DataAccessError{Op: "get tenant", Err: err}
	}

	if !opts.Refresh {
		if list := s.cached(ctx, tenantID, dateStr, log); list != nil {
			metrics.FocusComputations.WithLabelValues("cached").Inc()
			if opts.Drafts && s.fillDrafts(ctx, tenant, list) {
				s.store(ctx, list, asOf, log)
			}
			return list, nil
		}
	}

	cfg, err := domain.NormalizeConfig(tenant.Industry, tenant.Config)
	if err != nil {
		var cfgErr *domain.ConfigurationError
		if errors.As(err, &cfgErr) {
			cfgErr.TenantID = tenantID
		}
		metrics.FocusComputations.WithLabelValues("config_error").Inc()
		return nil, err
	}
	if len(cfg.Defaulted) > 0 {
		log.Warn("using default configuration values",
			zap.String("industry", tenant.Industry),
			zap.Strings("settings", cfg.Defaulted))
	}

	logFrom, logTo := focus.FatigueWindow(asOf, cfg.CooldownDays)
	candidates, actions, err := s.snapshots.ReadSnapshot(ctx, tenantID,
		focus.CandidateCutoff(asOf, cfg.Threshold()), logFrom, logTo)
	if err != nil {
		metrics.FocusComputations.WithLabelValues("data_error").Inc()
		return nil, &domain.DataAccessError{Op: "read snapshot", Err: err}
	}

	entries, err := focus.Compute(focus.Input{
		TenantID:   tenantID,
		AsOf:       asOf,
		Config:     cfg,
		Candidates: candidates,
		ActionLog:  actions,
	})
	if err != nil {
		metrics.FocusComputations.WithLabelValues("config_error").Inc()
		return nil, err
	}

	list := &domain.FocusList{
		TenantID:    tenantID,
		Date:        dateStr,
		Entries:     entries,
		GeneratedAt: s.now().UTC(),
	}

	metrics.FocusComputations.WithLabelValues("computed").Inc()
	metrics.FocusListSize.Observe(float64(len(entries)))
	log.Info("focus list computed",
		zap.Int("candidates", len(candidates)),
		zap.Int("fatigue_entries", len(actions)),
		zap.Int("count", len(entries)))

	if opts.Drafts {
		s.fillDrafts(ctx, tenant, list)
	}
	s.store(ctx, list, asOf, log)

	return list, nil
}

// Invalidate drops the cached list for tenantID and date.
func (s *FocusService) Invalidate(ctx context.Context, tenantID uuid.UUID, date time.Time) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, tenantID, domain.FormatDate(date)); err != nil {
		s.logger.Warn("failed to invalidate cached focus list",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err))
	}
}

func (s *FocusService) cached(ctx context.Context, tenantID uuid.UUID, date string, log *zap.Logger) *domain.FocusList {
	if s.cache == nil {
		return nil
	}
	list, err := s.cache.Get(ctx, tenantID, date)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Warn("report cache read failed", zap.Error(err))
		}
		return nil
	}
	return list
}

func (s *FocusService) store(ctx context.Context, list *domain.FocusList, asOf time.Time, log *zap.Logger) {
	if s.cache == nil {
		return
	}
	ttl := asOf.AddDate(0, 0, 1).Add(cacheGrace).Sub(s.now())
	if err := s.cache.Set(ctx, list, ttl); err != nil {
		log.Warn("report cache write failed", zap.Error(err))
	}
}

// fillDrafts sets a draft on every entry that lacks one and reports whether
// anything changed. A failed generation falls back to the template text.
func (s *FocusService) fillDrafts(ctx context.Context, tenant *domain.Tenant, list *domain.FocusList) bool {
	changed := false
	for i := range list.Entries {
		e := &list.Entries[i]
		if e.Draft != "" {
			continue
		}
		e.Draft = s.draft(ctx, tenant, list.Date, *e)
		changed = true
	}
	return changed
}

func (s *FocusService) draft(ctx context.Context, tenant *domain.Tenant, date string, e domain.FocusEntry) string {
	if s.drafts == nil {
		return llm.FallbackDraft(e.Name)
	}

	dctx, cancel := context.WithTimeout(ctx, draftTimeout)
	defer cancel()

	text, err := s.drafts.Draft(dctx, domain.DraftRequest{
		Industry: tenant.Industry,
		Language: tenant.OutputLanguage(),
		Date:     date,
		Entry:    e,
	})
	if err != nil {
		metrics.DraftFailures.Inc()
		s.logger.Warn("draft generation failed, using template",
			zap.String("tenant_id", tenant.ID.String()),
			zap.String("candidate_id", e.CandidateID.String()),
			zap.String("error", llm.MaskPII(err.Error())))
		return llm.FallbackDraft(e.Name)
	}
	return text
}
