// Package http contains ops HTTP delivery of the media domain
package http

import (
	"fmt"
	"os/exec"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/valyala/fasthttp"

	"github.com/Conte777/MediaFlow/config"
	"github.com/Conte777/MediaFlow/internal/domain/media/admission"
	"github.com/Conte777/MediaFlow/internal/domain/media/dto"
	"github.com/Conte777/MediaFlow/pkg/httputil"
)

// Overall health statuses
const (
	HealthStatusHealthy   = "healthy"
	HealthStatusDegraded  = "degraded"
	HealthStatusUnhealthy = "unhealthy"
)

// HealthHandler handles HTTP health check requests
type HealthHandler struct {
	gate        *admission.Gate
	fs          afero.Fs
	downloadCfg *config.DownloadConfig
	serviceName string
	lookPath    func(file string) (string, error)
	now         func() time.Time
	logger      zerolog.Logger
}

// NewHealthHandler creates a new health check handler
func NewHealthHandler(
	gate *admission.Gate,
	fs afero.Fs,
	downloadCfg *config.DownloadConfig,
	serviceCfg *config.ServiceConfig,
	logger zerolog.Logger,
) *HealthHandler {
	return &HealthHandler{
		gate:        gate,
		fs:          fs,
		downloadCfg: downloadCfg,
		serviceName: serviceCfg.Name,
		lookPath:    exec.LookPath,
		now:         time.Now,
		logger:      logger,
	}
}

// Handle handles the health check request for fasthttp
func (h *HealthHandler) Handle(ctx *fasthttp.RequestCtx) {
	state := h.gate.Snapshot()

	storage := h.checkStorage()
	extractor := h.checkExtractor()
	components := []dto.ComponentHealth{
		storage,
		extractor,
		{
			Name:    "admission",
			Healthy: true,
			Message: fmt.Sprintf("%d/%d slots busy", state.InFlight, state.MaxConcurrent),
		},
	}

	status := HealthStatusHealthy
	switch {
	case !storage.Healthy:
		status = HealthStatusUnhealthy
	case !extractor.Healthy:
		status = HealthStatusDegraded
	}

	response := dto.HealthResponse{
		Status:         status,
		Service:        h.serviceName,
		Timestamp:      h.now().UTC(),
		MaxConcurrent:  state.MaxConcurrent,
		InFlight:       state.InFlight,
		TotalCompleted: state.TotalCompleted,
		Components:     components,
	}

	statusCode := fasthttp.StatusOK
	if status == HealthStatusUnhealthy {
		statusCode = fasthttp.StatusServiceUnavailable
	}

	h.logger.Debug().
		Str("status", status).
		Int("in_flight", state.InFlight).
		Msg("Health check completed")

	httputil.WriteJSON(ctx, response, statusCode)
}

func (h *HealthHandler) checkStorage() dto.ComponentHealth {
	component := dto.ComponentHealth{Name: "downloads_dir"}

	exists, err := afero.DirExists(h.fs, h.downloadCfg.Dir)
	switch {
	case err != nil:
		component.Message = err.Error()
	case !exists:
		component.Message = "directory does not exist"
	default:
		component.Healthy = true
	}

	return component
}

func (h *HealthHandler) checkExtractor() dto.ComponentHealth {
	component := dto.ComponentHealth{Name: "yt-dlp"}

	path, err := h.lookPath(h.downloadCfg.YtDlpPath)
	if err != nil {
		component.Message = err.Error()
		return component
	}

	component.Healthy = true
	component.Message = path
	return component
}
