// Package errors contains domain-specific errors for the media domain
package errors

import (
	pkgerrors "github.com/Conte777/MediaFlow/pkg/errors"
)

// Domain errors for media operations
var (
	ErrUnsupportedURL     = pkgerrors.NewValidationError("unsupported link")
	ErrUnsupportedContent = pkgerrors.NewUnsupportedError("unsupported photo content")
	ErrNoMetadata         = pkgerrors.NewNotFoundError("media metadata unavailable")
	ErrTooLong            = pkgerrors.NewPolicyError("media duration exceeds limit")
	ErrTooLarge           = pkgerrors.NewPolicyError("media size exceeds limit")
	ErrDownloadTimeout    = pkgerrors.NewTimeoutError("download timed out")
	ErrFileNotFound       = pkgerrors.NewNotFoundError("downloaded file not found")
	ErrNoImageFound       = pkgerrors.NewNotFoundError("no image url found")
	ErrTelegramAPI        = pkgerrors.NewInternalError("telegram API error")
)
