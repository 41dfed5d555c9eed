// Package infrastructure contains infrastructure layer components
package infrastructure

import (
	"go.uber.org/fx"

	"github.com/Conte777/MediaFlow/internal/infrastructure/http"
	"github.com/Conte777/MediaFlow/internal/infrastructure/logger"
	"github.com/Conte777/MediaFlow/internal/infrastructure/metrics"
	"github.com/Conte777/MediaFlow/internal/infrastructure/storage"
	"github.com/Conte777/MediaFlow/internal/infrastructure/telegram"
	"github.com/Conte777/MediaFlow/internal/infrastructure/ytdlp"
)

// Module provides all infrastructure components for fx dependency injection
var Module = fx.Module("infrastructure",
	logger.Module,
	storage.Module,
	metrics.Module,
	http.Module,
	telegram.Module,
	ytdlp.Module,
)
