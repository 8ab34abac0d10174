package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/xakep666/asynccopy-go/internal/fadvise"
	"github.com/xakep666/asynccopy-go/internal/logutil"
	"github.com/xakep666/asynccopy-go/pkg/copier"
)

const (
	progressAuto = "auto"
	progressBar  = "bar"
	progressLog  = "log"
	progressNone = "none"

	progressLogInterval = 5 * time.Second
)

type TransferOptions struct {
	// default value is a common filesystem read-ahead window
	BufferSize  int    `help:"Size of each copy buffer." type:"binsize" default:"64k" env:"ASYNCCOPY_BUFFER_SIZE"`
	BufferCount int    `help:"Number of copy buffers, 2 is enough to overlap reads with writes." default:"2" env:"ASYNCCOPY_BUFFER_COUNT"`
	Progress    string `help:"Progress display: auto, bar, log, none." enum:"auto,bar,log,none" default:"auto" env:"ASYNCCOPY_PROGRESS"`
}

func (o *TransferOptions) copier() *copier.Copier {
	return &copier.Copier{
		BufferSize:  o.BufferSize,
		BufferCount: o.BufferCount,
	}
}

func (o *TransferOptions) progressMode() string {
	if o.Progress != progressAuto {
		return o.Progress
	}

	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		return progressBar
	}

	return progressLog
}

// transfer copies src to dst displaying progress. Negative total means unknown size.
func (o *TransferOptions) transfer(ctx context.Context, name string, total int64, dst io.Writer, src io.Reader) (int64, error) {
	c := o.copier()

	switch o.progressMode() {
	case progressBar:
		return copyWithBar(ctx, c, name, total, dst, src)
	case progressLog:
		return copyWithLog(ctx, c, name, total, dst, src)
	default:
		return c.Copy(ctx, dst, src, nil)
	}
}

func copyWithBar(ctx context.Context, c *copier.Copier, name string, total int64, dst io.Writer, src io.Reader) (int64, error) {
	p := mpb.NewWithContext(ctx, mpb.WithOutput(colorable.NewColorableStderr()), mpb.WithWidth(64))

	bar := p.New(max(total, 0), mpb.BarStyle(),
		mpb.PrependDecorators(
			decor.Name(name, decor.WCSyncSpaceR),
			decor.CountersKibiByte("% .1f / % .1f", decor.WCSyncSpace),
		),
		mpb.AppendDecorators(
			decor.AverageSpeed(decor.SizeB1024(0), "% .1f", decor.WCSyncSpace),
			decor.Percentage(decor.WCSyncSpace),
		),
	)

	n, err := c.Copy(ctx, dst, src, copier.ProgressFunc(bar.SetCurrent))
	if err != nil {
		bar.Abort(false)
	} else {
		bar.SetTotal(-1, true) // current value becomes total
	}

	p.Wait()

	return n, err
}

func copyWithLog(ctx context.Context, c *copier.Copier, name string, total int64, dst io.Writer, src io.Reader) (int64, error) {
	log := slog.With(slog.String("name", name))
	if total >= 0 {
		log = log.With(logutil.BytesAttr("total", total))
	}

	task := c.Start(ctx, dst, src, nil)

	ticker := time.NewTicker(progressLogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-task.Done():
			return task.Wait()
		case <-ticker.C:
			log.InfoContext(ctx, "Copying...", logutil.BytesAttr("written", task.Written()))
		}
	}
}

// prepareSource returns size of regular file (-1 otherwise) and hints kernel about sequential access.
func prepareSource(ctx context.Context, f *os.File) int64 {
	if err := fadvise.Sequential(f); err != nil {
		slog.DebugContext(ctx, "fadvise failed", slog.String("name", f.Name()), logutil.ErrorAttr(err))
	}

	st, err := f.Stat()
	if err != nil || !st.Mode().IsRegular() {
		return -1
	}

	return st.Size()
}
