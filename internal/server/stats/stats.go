// Package stats runs the periodic entity statistics worker.
package stats

import (
	"context"

	"github.com/zhenzou/executors"
	"go.uber.org/fx"

	"github.com/tenantguard/tenantguard/internal/authz"
	"github.com/tenantguard/tenantguard/internal/log"
	"github.com/tenantguard/tenantguard/internal/metrics"
	"github.com/tenantguard/tenantguard/internal/securedb"
)

type Config struct {
	Enabled bool   `conf:"enabled" yaml:"enabled" json:"enabled"`
	CRON    string `conf:"cron" yaml:"cron" json:"cron"`
}

// Worker periodically counts stored rows per entity and publishes them as
// gauges. Counts run across tenants through the audited unscoped path under
// a root system context; nothing row-level ever leaves the process.
type Worker struct {
	DB       *securedb.Client
	Executor executors.ScheduledExecutor
	Config   Config
}

type Params struct {
	fx.In

	Config   Config
	DB       *securedb.Client
	Executor executors.ScheduledExecutor
}

func NewWorker(params Params) *Worker {
	return &Worker{
		DB:       params.DB,
		Executor: params.Executor,
		Config:   params.Config,
	}
}

func (w *Worker) Start(ctx context.Context) error {
	if !w.Config.Enabled {
		return nil
	}

	cron := w.Config.CRON
	if cron == "" {
		cron = "* * * * *"
	}

	_, err := w.Executor.ScheduleFuncAtCronRate(
		w.collect,
		executors.CRONRule{Expr: cron},
	)
	if err != nil {
		return err
	}

	log.Info(ctx, "stats worker started", log.String("cron", cron))

	return nil
}

// Stop is a no-op; the shared executor is shut down by its own lifecycle hook.
func (w *Worker) Stop(ctx context.Context) error {
	return nil
}

func (w *Worker) collect(ctx context.Context) {
	ctx = authz.NewRootContext(ctx)

	for _, table := range []securedb.Table{
		securedb.TableUsers,
		securedb.TableCities,
		securedb.TableAddresses,
	} {
		count, err := authz.RunUnscoped(ctx, "collect entity statistics", func(ctx context.Context) (int64, error) {
			return w.DB.CountSystem(ctx, table)
		})
		if err != nil {
			log.Error(ctx, "count entity rows", log.String("entity", table.Name), log.Cause(err))
			continue
		}

		metrics.RecordEntityCount(ctx, table.Name, count)
	}
}
