package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/rustyeddy/tradeguard/discipline"
	"github.com/rustyeddy/tradeguard/metrics"
)

// Runner runs jobs on standard five-field cron specs in UTC.
type Runner struct {
	cron    *cron.Cron
	baseCtx context.Context
}

func New(baseCtx context.Context) *Runner {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	return &Runner{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		baseCtx: baseCtx,
	}
}

func (r *Runner) Add(spec string, job func(context.Context)) (cron.EntryID, error) {
	return r.cron.AddFunc(spec, func() {
		job(r.baseCtx)
	})
}

func (r *Runner) Entries() []cron.Entry {
	return r.cron.Entries()
}

func (r *Runner) Start() {
	log.Info().Int("jobs", len(r.cron.Entries())).Msg("scheduler started")
	r.cron.Start()
}

// Stop waits for running jobs to finish.
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	log.Info().Msg("scheduler stopped")
}

// DailyScores scores the previous UTC day for every account. One account
// failing does not stop the others. Only these configured accounts feed the
// discipline gauge.
type DailyScores struct {
	Service  *discipline.Service
	Accounts []string
	Metrics  *metrics.Collector
	Now      func() time.Time
}

// Run returns the number of accounts scored.
func (d DailyScores) Run(ctx context.Context) int {
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	day := discipline.Day(now()).AddDate(0, 0, -1)

	scored := 0
	for _, acct := range d.Accounts {
		if ctx.Err() != nil {
			break
		}
		r, err := d.Service.ScoreDay(ctx, acct, day)
		if err != nil {
			log.Error().Err(err).Str("account", acct).Str("day", day.Format(time.DateOnly)).Msg("daily discipline score")
			continue
		}
		d.Metrics.ObserveDiscipline(acct, r.Total)
		log.Debug().Str("account", acct).Str("grade", r.Grade).Msg("daily discipline job")
		scored++
	}
	return scored
}

// Schedule registers the job on r.
func (d DailyScores) Schedule(r *Runner, spec string) (cron.EntryID, error) {
	return r.Add(spec, func(ctx context.Context) { d.Run(ctx) })
}
