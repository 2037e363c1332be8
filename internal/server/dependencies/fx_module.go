package dependencies

import (
	"context"

	"github.com/zhenzou/executors"
	"go.uber.org/fx"

	"github.com/tenantguard/tenantguard/internal/log"
	"github.com/tenantguard/tenantguard/internal/policy"
	"github.com/tenantguard/tenantguard/internal/securedb"
)

var Module = fx.Module("dependencies",
	fx.Provide(log.New),
	fx.Provide(securedb.Open),
	fx.Provide(policy.NewClient),
	fx.Provide(NewExecutors),
	fx.Invoke(func(lc fx.Lifecycle, client *securedb.Client) {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return client.Close()
			},
		})
	}),
	fx.Invoke(func(lc fx.Lifecycle, executor executors.ScheduledExecutor) {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return executor.Shutdown(ctx)
			},
		})
	}),
)
