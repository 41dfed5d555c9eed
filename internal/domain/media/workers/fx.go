// Package workers contains background workers of the media domain
package workers

import (
	"context"

	"go.uber.org/fx"
)

// Module provides media workers for fx DI
var Module = fx.Module("media-workers",
	fx.Provide(NewRetentionSweeper),
	fx.Invoke(registerLifecycle),
)

// registerLifecycle registers retention sweeper with fx.Lifecycle
func registerLifecycle(lc fx.Lifecycle, s *RetentionSweeper) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			s.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			s.Stop()
			return nil
		},
	})
}
