package cronrunner

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Runner runs jobs on six-field (with seconds) cron schedules.
type Runner struct {
	cron    *cron.Cron
	logger  *zap.Logger
	baseCtx context.Context
}

func New(logger *zap.Logger, baseCtx context.Context) *Runner {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cron:    cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:  logger,
		baseCtx: baseCtx,
	}
}

func (r *Runner) Add(spec string, job func(context.Context)) (cron.EntryID, error) {
	return r.cron.AddFunc(spec, func() {
		if r.baseCtx.Err() != nil {
			return
		}
		job(r.baseCtx)
	})
}

// AddReload schedules reload and logs each outcome. A failing reload leaves
// the serving snapshot untouched, so errors are logged and not retried.
func (r *Runner) AddReload(spec string, reload func() error) (cron.EntryID, error) {
	return r.Add(spec, func(ctx context.Context) {
		if err := reload(); err != nil {
			r.logger.Warn("scheduled reload failed", zap.String("schedule", spec), zap.Error(err))
			return
		}
		r.logger.Info("scheduled reload done", zap.String("schedule", spec))
	})
}

func (r *Runner) Start() {
	r.logger.Info("cron started")
	r.cron.Start()
}

func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.logger.Info("cron stopped")
}
