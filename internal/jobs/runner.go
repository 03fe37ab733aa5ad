package jobs

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/mindurmind/internal/ctxutil"
	"github.com/Spok95/mindurmind/internal/observability"
)

type Job func(ctx context.Context) error

type Runner struct {
	ctx context.Context
	log *zap.SugaredLogger
}

func New(ctx context.Context, log *zap.SugaredLogger) *Runner {
	return &Runner{ctx: ctx, log: log}
}

// Every запускает джобу по тикеру до отмены контекста.
// Паника внутри джобы не валит процесс — уходит в sentry.
func (r *Runner) Every(interval time.Duration, name string, fn Job) {
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-r.ctx.Done():
				return
			case <-t.C:
				start := time.Now()
				if err := r.run(name, fn); err != nil {
					jobErrors.WithLabelValues(name).Inc()
					r.log.Errorw("джоба завершилась с ошибкой", "job", name, "err", err)
				}
				jobRuns.WithLabelValues(name).Inc()
				jobDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
			}
		}
	}()
}

func (r *Runner) run(name string, fn Job) (err error) {
	ctx := ctxutil.WithOp(r.ctx, name)
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic in job %s: %v", name, rec)
			observability.CaptureErr(ctx, err)
		}
	}()
	return fn(ctx)
}
