package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/clock"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/model"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/repository"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/service"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/sse"
)

const sweepTimeout = 30 * time.Second

type PanelSessionStore interface {
	DeleteExpired() int
}

type HistoryPruner interface {
	Prune(ctx context.Context, before time.Time) (int64, error)
}

type MetricsSource interface {
	Metrics() model.Metrics
}

type SweepDeps struct {
	Sessions  repository.SessionRepository
	Panel     PanelSessionStore
	Profiles  repository.ProfileRepository
	Archive   repository.ArchiveRepository
	History   HistoryPruner
	Metrics   MetricsSource
	Publisher service.Publisher
	Clock     clock.Clock
}

// SweepJob expires idle conversations and stale quotes, drops expired panel
// logins, flushes profile counters to the archive, applies history retention
// and pushes a metrics snapshot to the panel.
type SweepJob struct {
	deps      SweepDeps
	retention time.Duration
	interval  time.Duration
	done      chan struct{}
}

func NewSweepJob(deps SweepDeps, retention, interval time.Duration) *SweepJob {
	if deps.Clock == nil {
		deps.Clock = clock.SystemClock{}
	}
	return &SweepJob{
		deps:      deps,
		retention: retention,
		interval:  interval,
		done:      make(chan struct{}),
	}
}

func (j *SweepJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("sweep job started")
}

// Stop flushes pending profile counters one last time.
func (j *SweepJob) Stop() {
	close(j.done)

	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()
	j.flushProfiles(ctx)

	log.Info().Msg("sweep job stopped")
}

func (j *SweepJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.sweep()
		}
	}
}

func (j *SweepJob) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	now := j.deps.Clock.Now()

	if j.deps.Sessions != nil {
		res := j.deps.Sessions.SweepExpired(now)
		if res.Sessions > 0 || res.Quotes > 0 {
			log.Info().
				Int("sessions", res.Sessions).
				Int("quotes", res.Quotes).
				Msg("expired conversations swept")
		}
	}

	if j.deps.Panel != nil {
		j.runCleanup(ctx, "panel sessions", func(context.Context) (int64, error) {
			return int64(j.deps.Panel.DeleteExpired()), nil
		})
	}

	j.flushProfiles(ctx)

	if j.deps.History != nil && j.retention > 0 {
		j.runCleanup(ctx, "archived messages", func(ctx context.Context) (int64, error) {
			return j.deps.History.Prune(ctx, now.Add(-j.retention))
		})
	}

	if j.deps.Metrics != nil && j.deps.Publisher != nil {
		j.deps.Publisher.Emit(ctx, sse.EventMetrics, j.deps.Metrics.Metrics())
	}
}

// flushProfiles writes changed profiles to the archive. Failed batches are
// marked dirty again so the next sweep retries them.
func (j *SweepJob) flushProfiles(ctx context.Context) {
	if j.deps.Archive == nil || j.deps.Profiles == nil {
		return
	}

	dirty := j.deps.Profiles.Dirty()
	if len(dirty) == 0 {
		return
	}

	if err := j.deps.Archive.UpsertProfiles(ctx, dirty); err != nil {
		log.Error().Err(err).Int("count", len(dirty)).Msg("failed to flush contact profiles")
		for _, p := range dirty {
			j.deps.Profiles.Record(p.ContactKey, p.LastSeenAt, nil)
		}
		return
	}
	log.Debug().Int("count", len(dirty)).Msg("flushed contact profiles")
}

func (j *SweepJob) runCleanup(ctx context.Context, name string, fn func(context.Context) (int64, error)) {
	count, err := fn(ctx)
	if err != nil {
		log.Error().Err(err).Msgf("failed to cleanup %s", name)
	} else if count > 0 {
		log.Info().Int64("count", count).Msgf("cleaned up %s", name)
	}
}
