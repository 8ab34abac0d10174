package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/xakep666/asynccopy-go/internal/logutil"
)

type sendApp struct {
	Source      *os.File      `arg:"" help:"Path to file to send, '-' for stdin."`
	Addr        string        `arg:"" help:"Receiver address (host:port)."`
	DialTimeout time.Duration `help:"Timeout for connection establishment." default:"10s" env:"ASYNCCOPY_DIAL_TIMEOUT"`

	TransferOptions `embed:""`
}

func (a *sendApp) Run(ctx context.Context) error {
	if a.Source != os.Stdin {
		defer a.Source.Close()
	}

	dialer := net.Dialer{Timeout: a.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", a.Addr)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
		_ = a.Source.Close()
	})
	defer stop()

	ctx = logutil.WithAttrs(ctx, logutil.StringerAttr("remote", conn.RemoteAddr()))

	total := prepareSource(ctx, a.Source)

	written, err := a.transfer(ctx, a.Source.Name(), total, conn, a.Source)
	if err != nil {
		return fmt.Errorf("send failed: %w", err)
	}

	// receiver treats EOF as end of file
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		if err := tcpConn.CloseWrite(); err != nil {
			return fmt.Errorf("close write failed: %w", err)
		}
	}

	slog.InfoContext(ctx, "Send done", slog.String("source", a.Source.Name()), logutil.BytesAttr("written", written))

	return nil
}
