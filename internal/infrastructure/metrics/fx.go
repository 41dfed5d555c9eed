package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// Module provides metrics for fx DI
var Module = fx.Module("metrics",
	fx.Provide(provideRegistry),
	fx.Provide(NewMetrics),
)

// RegistryResult exposes one registry as both registerer and gatherer
type RegistryResult struct {
	fx.Out

	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

func provideRegistry() RegistryResult {
	reg := NewRegistry()
	return RegistryResult{
		Registerer: reg,
		Gatherer:   reg,
	}
}
