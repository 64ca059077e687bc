// Package scrub is the single entry point the job manager uses to clean a
// file. It owns the decision of what counts as an unsupported input and is
// the only source of truth for output format and size.
package scrub

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ankit-chaubey/picscrub/core"
	"github.com/ankit-chaubey/picscrub/core/image"
)

// Cleaner adapts the cleaning engine. It performs no retries.
type Cleaner struct {
	logger *slog.Logger
	remove func([]byte, core.Options) (*core.Result, error)
}

// NewCleaner returns a Cleaner backed by the image package.
func NewCleaner(logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{logger: logger, remove: image.Remove}
}

// Clean strips metadata from data. Only known option keys reach the engine.
func (c *Cleaner) Clean(ctx context.Context, data []byte, opts core.Options) (*core.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, core.ErrEmptyInput
	}
	format := core.DetectFormat(data)
	if format == core.FmtUnknown {
		return nil, core.NewAppError("FORMAT_UNSUPPORTED", "could not detect image format", core.ErrFormatUnsupported)
	}

	res, err := c.remove(data, opts.Sanitize())
	if err != nil {
		if errors.Is(err, core.ErrFormatUnsupported) {
			return nil, core.NewAppError("FORMAT_UNSUPPORTED", "format not supported by the cleaner", err)
		}
		c.logger.Warn("clean failed", "format", format, "error", err)
		return nil, core.NewAppError("CLEAN_FAILED", "could not remove metadata", err)
	}

	c.logger.Debug("cleaned",
		"format", res.OriginalFormat,
		"output_format", res.OutputFormat,
		"original_size", res.OriginalSize,
		"cleaned_size", res.CleanedSize,
		"removed", len(res.Removed),
	)
	return res, nil
}
