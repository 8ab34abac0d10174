package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/djherbis/times"
	"github.com/pierrec/lz4/v4"

	"github.com/xakep666/asynccopy-go/internal/logutil"
)

type copyApp struct {
	Source *os.File `arg:"" help:"Path to source file, '-' for stdin."`
	Target *os.File `arg:"" help:"Path to target file, '-' for stdout. Must not exist." type:"outputfile"`

	TransferOptions `embed:""`

	Compress      bool `help:"Compress target with LZ4." xor:"codec"`
	Decompress    bool `help:"Decompress LZ4 source." xor:"codec"`
	PreserveTimes bool `help:"Set access and modification times of target to ones of source."`
}

func (a *copyApp) Run(ctx context.Context) (err error) {
	defer func() {
		err = errors.Join(err, a.closeFiles())
	}()

	// unblocks pending read if interrupted
	stop := context.AfterFunc(ctx, func() { _ = a.Source.Close() })
	defer stop()

	total := prepareSource(ctx, a.Source)

	var (
		src io.Reader = a.Source
		dst io.Writer = a.Target
		zw  *lz4.Writer
	)

	switch {
	case a.Compress:
		zw = lz4.NewWriter(a.Target)
		dst = zw
	case a.Decompress:
		src = lz4.NewReader(a.Source)
		total = -1
	}

	written, err := a.transfer(ctx, a.Source.Name(), total, dst, src)
	if err != nil {
		return fmt.Errorf("copy failed: %w", err)
	}

	if zw != nil {
		if err := zw.Close(); err != nil {
			return fmt.Errorf("lz4 stream finalization failed: %w", err)
		}
	}

	if a.PreserveTimes {
		if err := a.preserveTimes(); err != nil {
			return fmt.Errorf("preserve times failed: %w", err)
		}
	}

	slog.InfoContext(ctx, "Copy done",
		slog.String("source", a.Source.Name()),
		slog.String("target", a.Target.Name()),
		logutil.BytesAttr("written", written),
	)

	return nil
}

func (a *copyApp) preserveTimes() error {
	if a.Source == os.Stdin || a.Target == os.Stdout {
		slog.Warn("Times can't be preserved for standard streams")
		return nil
	}

	spec, err := times.StatFile(a.Source)
	if err != nil {
		return err
	}

	return os.Chtimes(a.Target.Name(), spec.AccessTime(), spec.ModTime())
}

func (a *copyApp) closeFiles() error {
	var errs []error

	if a.Source != os.Stdin {
		if err := a.Source.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			errs = append(errs, fmt.Errorf("source close failed: %w", err))
		}
	}

	if a.Target != os.Stdout {
		if err := a.Target.Close(); err != nil {
			errs = append(errs, fmt.Errorf("target close failed: %w", err))
		}
	}

	return errors.Join(errs...)
}
