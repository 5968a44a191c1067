package cmd

import (
	"context"
	"io"

	"github.com/jimezsa/jobfinder/internal/config"
	"github.com/jimezsa/jobfinder/internal/render"
	"github.com/jimezsa/jobfinder/internal/ui"
	"github.com/rs/zerolog"
)

// SurfaceOpener builds the render surface for one run.
type SurfaceOpener func(ctx context.Context, cfg config.Config, proxies []string) (render.Surface, error)

type Context struct {
	Out        io.Writer
	Err        io.Writer
	UI         *ui.UI
	Config     config.Config
	ConfigDir  string
	Logger     zerolog.Logger
	Verbose    bool
	JSONOutput bool
	PlainText  bool
	Version    string
	ColorMode  ui.ColorMode
	// OpenSurface overrides the engine selected by the config.
	OpenSurface SurfaceOpener
}
