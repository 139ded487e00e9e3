package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nexh/focus/internal/domain"
	"github.com/nexh/focus/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultBriefingInterval    = 24 * time.Hour
	defaultBriefingConcurrency = 8
	defaultBriefingOffset      = 5 * time.Minute
	briefingTenantTimeout      = 2 * time.Minute
)

type TenantFailure struct {
	TenantID uuid.UUID `json:"tenant_id"`
	Error    string    `json:"error"`
}

type BatchResult struct {
	Date      string          `json:"date"`
	Tenants   int             `json:"tenants"`
	Succeeded int             `json:"succeeded"`
	Entries   int             `json:"entries"`
	Failures  []TenantFailure `json:"failures,omitempty"`
}

type listGenerator interface {
	Generate(ctx context.Context, tenantID uuid.UUID, date time.Time, opts GenerateOpts) (*domain.FocusList, error)
}

// BriefingService precomputes every tenant's focus list once per interval.
type BriefingService struct {
	tenantStore domain.TenantStore
	generator   listGenerator
	logger      *zap.Logger

	interval    time.Duration
	offset      time.Duration
	concurrency int
	drafts      bool
	now         func() time.Time
	stopCh      chan struct{}
	wg          sync.WaitGroup
}

func NewBriefingService(ts domain.TenantStore, gen listGenerator, logger *zap.Logger) *BriefingService {
	return &BriefingService{
		tenantStore: ts,
		generator:   gen,
		logger:      logger,
		interval:    defaultBriefingInterval,
		offset:      defaultBriefingOffset,
		concurrency: defaultBriefingConcurrency,
		now:         time.Now,
		stopCh:      make(chan struct{}),
	}
}

func (s *BriefingService) SetInterval(d time.Duration) {
	if d > 0 {
		s.interval = d
	}
}

// SetOffset sets how long after each interval boundary a run starts.
func (s *BriefingService) SetOffset(d time.Duration) {
	if d >= 0 {
		s.offset = d
	}
}

// nextBriefingRun returns the first run strictly after now. Runs sit on
// 00:00 UTC plus offset plus a whole number of intervals, so the schedule
// does not drift with process restarts.
func nextBriefingRun(now time.Time, interval, offset time.Duration) time.Time {
	next := domain.StartOfDay(now).Add(offset)
	if !next.After(now) {
		next = next.Add((now.Sub(next)/interval + 1) * interval)
	}
	return next
}

func (s *BriefingService) SetConcurrency(n int) {
	if n > 0 {
		s.concurrency = n
	}
}

// SetDrafts makes the batch generate drafts along with the lists.
func (s *BriefingService) SetDrafts(enabled bool) {
	s.drafts = enabled
}

// Start runs the batch once immediately and then at every scheduled run.
func (s *BriefingService) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		s.logger.Info("briefing worker started",
			zap.Duration("interval", s.interval),
			zap.Duration("offset", s.offset),
			zap.Int("concurrency", s.concurrency))

		s.tick()
		for {
			now := s.now()
			next := nextBriefingRun(now, s.interval, s.offset)
			s.logger.Debug("next briefing scheduled", zap.Time("at", next))

			timer := time.NewTimer(next.Sub(now))
			select {
			case <-timer.C:
				s.tick()
			case <-s.stopCh:
				timer.Stop()
				s.logger.Info("briefing worker stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the worker.
func (s *BriefingService) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

func (s *BriefingService) tick() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-s.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()
	s.RunOnce(ctx, s.now())
}

// RunOnce computes the focus list of every tenant for date. A tenant's
// failure is recorded in the result and never stops the others.
func (s *BriefingService) RunOnce(ctx context.Context, date time.Time) *BatchResult {
	start := time.Now()
	result := &BatchResult{Date: domain.FormatDate(date)}

	tenantIDs, err := s.tenantStore.ListIDs(ctx)
	if err != nil {
		s.logger.Error("failed to list tenants for briefing", zap.Error(err))
		return result
	}
	result.Tenants = len(tenantIDs)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, tenantID := range tenantIDs {
		tenantID := tenantID
		g.Go(func() error {
			tctx, cancel := context.WithTimeout(gctx, briefingTenantTimeout)
			defer cancel()

			list, err := s.generator.Generate(tctx, tenantID, date, GenerateOpts{Drafts: s.drafts, Refresh: true})

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				metrics.BatchTenants.WithLabelValues("failed").Inc()
				result.Failures = append(result.Failures, TenantFailure{TenantID: tenantID, Error: err.Error()})
				s.logger.Error("briefing failed for tenant",
					zap.String("tenant_id", tenantID.String()),
					zap.Error(err))
				return nil
			}
			metrics.BatchTenants.WithLabelValues("succeeded").Inc()
			result.Succeeded++
			result.Entries += len(list.Entries)
			return nil
		})
	}
	_ = g.Wait()

	metrics.BatchDuration.Observe(time.Since(start).Seconds())
	s.logger.Info("briefing complete",
		zap.String("date", result.Date),
		zap.Int("tenants", result.Tenants),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", len(result.Failures)),
		zap.Int("entries", result.Entries),
		zap.Duration("duration", time.Since(start)))

	return result
}
