package main

import (
	"log/slog"
	"os"

	"github.com/KimMachineGun/automemlimit/memlimit"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/xakep666/asynccopy-go/internal/logutil"
)

type LogOptions struct {
	Debug   bool `help:"Enable debug log messages." env:"ASYNCCOPY_DEBUG"`
	JSONLog bool `help:"Output log messages in json format." env:"ASYNCCOPY_JSON_LOG"`
}

// setupLogger writes to stderr because stdout may be a copy target.
func (o *LogOptions) setupLogger() {
	level := slog.LevelInfo
	if o.Debug {
		level = slog.LevelDebug
	}

	var slogHandler slog.Handler
	if o.JSONLog {
		slogHandler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		slogHandler = tint.NewHandler(colorable.NewColorableStderr(), &tint.Options{
			Level:   level,
			NoColor: !isatty.IsTerminal(os.Stderr.Fd()),
		})
	}

	slogHandler = &logutil.ContextHandler{Handler: slogHandler}

	slog.SetDefault(slog.New(slogHandler))
}

func (o *LogOptions) setupRuntime() {
	_, err := memlimit.SetGoMemLimitWithOpts(memlimit.WithLogger(slog.Default()))
	if err != nil {
		slog.Warn("memlimit setup failed", logutil.ErrorAttr(err))
	}
}
