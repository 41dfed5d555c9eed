// Package storage provides the filesystem used for downloads
package storage

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// DirPerm is the permission used for the downloads directory
const DirPerm = 0o755

// EnsureDir creates dir on fs if it is missing
func EnsureDir(fs afero.Fs, dir string, logger zerolog.Logger) error {
	exists, err := afero.DirExists(fs, dir)
	if err != nil {
		return fmt.Errorf("failed to stat downloads directory: %w", err)
	}
	if exists {
		return nil
	}

	if err := fs.MkdirAll(dir, DirPerm); err != nil {
		return fmt.Errorf("failed to create downloads directory: %w", err)
	}

	logger.Info().Str("dir", dir).Msg("Downloads directory created")
	return nil
}
