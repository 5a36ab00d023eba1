package sched

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"docchat-service/internal/config"
	"docchat-service/internal/domain/ports/repository"
	"docchat-service/internal/infra/metrics"
)

// ErrDegraded is returned by Run once the reaper has given up after too many
// consecutive failed cycles. The process keeps serving requests; only the
// background sweep is gone, and health reporting reflects it.
var ErrDegraded = errors.New("reaper stopped after repeated failures")

const (
	maxConsecutiveFailures = 5
	backoffStep            = 60 * time.Second
	backoffCap             = 300 * time.Second
	evictFraction          = 0.40
)

// Reaper periodically sweeps expired sessions and relieves memory pressure
// by evicting the oldest records once the heap crosses the high-water mark.
type Reaper struct {
	table       repository.SessionTable
	interval    time.Duration
	memLimitMB  int
	backoffStep time.Duration
	backoffCap  time.Duration
	busy        atomic.Bool
	healthy     atomic.Bool
	log         *zerolog.Logger
}

func NewReaper(cfg config.SessionConfig, table repository.SessionTable, logger *zerolog.Logger) *Reaper {
	l := logger.With().Str("component", "Reaper").Logger()
	r := &Reaper{
		table:       table,
		interval:    cfg.CleanupInterval(),
		memLimitMB:  cfg.MemoryLimitMB,
		backoffStep: backoffStep,
		backoffCap:  backoffCap,
		log:         &l,
	}
	r.healthy.Store(true)
	return r
}

// Healthy reports whether the sweep loop is still running. Flips to false
// permanently once the reaper stops itself.
func (r *Reaper) Healthy() bool { return r.healthy.Load() }

// Run drives the sweep loop until ctx is cancelled or the failure budget is
// exhausted. After an error the next cycle is delayed by
// min(60s x consecutive errors, 300s) instead of the normal interval.
func (r *Reaper) Run(ctx context.Context) error {
	r.log.Info().Dur("interval", r.interval).Int("memory_limit_mb", r.memLimitMB).Msg("starting session reaper")
	metrics.SetReaperHealthy(true)

	consecutive := 0
	timer := time.NewTimer(r.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("stopping session reaper")
			return ctx.Err()
		case <-timer.C:
		}

		if err := r.RunCycle(ctx); err != nil {
			consecutive++
			metrics.SetReaperFailures(consecutive)
			metrics.IncReaperCycle("failed")
			r.log.Error().Err(err).Int("consecutive", consecutive).Msg("reaper cycle failed")
			if consecutive >= maxConsecutiveFailures {
				r.healthy.Store(false)
				metrics.SetReaperHealthy(false)
				r.log.Error().Int("failures", consecutive).Msg("reaper giving up")
				return ErrDegraded
			}
			timer.Reset(r.backoff(consecutive))
			continue
		}
		consecutive = 0
		metrics.SetReaperFailures(0)
		timer.Reset(r.interval)
	}
}

// RunCycle performs one sweep: expired sessions first, then the memory
// pressure check. Non-reentrant; a cycle that finds another one in flight
// skips without error.
func (r *Reaper) RunCycle(ctx context.Context) error {
	if !r.busy.CompareAndSwap(false, true) {
		metrics.IncReaperCycle("skipped")
		r.log.Debug().Msg("sweep already running, skipping cycle")
		return nil
	}
	defer r.busy.Store(false)

	removed, err := r.table.CleanupExpired(ctx)
	if err != nil {
		return err
	}
	if removed > 0 {
		r.log.Info().Int("count", removed).Msg("expired sessions swept")
	}

	if mb := heapAllocMB(); mb > float64(r.memLimitMB) {
		r.log.Warn().Float64("heap_mb", mb).Int("limit_mb", r.memLimitMB).Msg("memory high-water mark crossed")
		evicted, err := r.table.EvictOldest(ctx, evictFraction)
		if err != nil {
			return err
		}
		metrics.AddMemoryPressureEvictions(evicted)
		reclaimMemory()
		r.log.Info().Int("evicted", evicted).Float64("heap_mb_after", heapAllocMB()).Msg("memory pressure relieved")
	}

	metrics.IncReaperCycle("ok")
	return nil
}

func (r *Reaper) backoff(consecutive int) time.Duration {
	d := time.Duration(consecutive) * r.backoffStep
	if d > r.backoffCap {
		d = r.backoffCap
	}
	return d
}
