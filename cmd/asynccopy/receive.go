package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"os"
	"sync"
	"time"

	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"

	"github.com/xakep666/asynccopy-go/internal/isroot"
	"github.com/xakep666/asynccopy-go/internal/logutil"
)

type receiveApp struct {
	Root        string        `help:"Directory to store received files." type:"existingdir" default:"." env:"ASYNCCOPY_ROOT"`
	ListenAddr  string        `help:"Listen address." default:"0.0.0.0:38009" env:"ASYNCCOPY_LISTEN_ADDR"`
	MaxClients  int           `help:"Limit amount of concurrent senders. Negative or zero means no limit." env:"ASYNCCOPY_MAX_CLIENTS"`
	IdleTimeout time.Duration `help:"Connection will be closed if no data received within this time." default:"1m" env:"ASYNCCOPY_IDLE_TIMEOUT"`

	TransferOptions `embed:""`
}

func (a *receiveApp) Run(ctx context.Context) error {
	if isroot.IsRoot() {
		slog.Warn("Running as root/administrator is not recommended! Received files will be owned by root.")
	}

	socket, err := listenTCP(a.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen failed: %w", err)
	}

	slog.Info("Listening...", "addr", logutil.ListenAddressValue(socket.Addr()), "root", a.Root)

	if a.MaxClients > 0 {
		socket = netutil.LimitListener(socket, a.MaxClients)
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		<-egCtx.Done()
		return socket.Close()
	})
	eg.Go(func() error {
		return a.serve(egCtx, socket)
	})

	err = eg.Wait()
	if errors.Is(err, net.ErrClosed) && ctx.Err() != nil {
		return nil
	}

	return err
}

func (a *receiveApp) serve(ctx context.Context, ln net.Listener) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			return fmt.Errorf("accept failed: %w", err)
		}

		wg.Go(func() {
			a.serveConn(ctx, conn)
		})
	}
}

func (a *receiveApp) serveConn(ctx context.Context, conn net.Conn) {
	ctx = logutil.WithAttrs(ctx, logutil.StringerAttr("remote", conn.RemoteAddr()))

	slog.InfoContext(ctx, "Sender connected")

	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	f, err := os.CreateTemp(a.Root, "received-*.bin")
	if err != nil {
		slog.ErrorContext(ctx, "Create file failed", logutil.ErrorAttr(err))
		return
	}

	log := slog.With(slog.String("file", f.Name()))

	written, err := a.copier().Copy(ctx, f, &idleTimeoutReader{conn: conn, timeout: a.IdleTimeout}, nil)
	if closeErr := f.Close(); closeErr != nil {
		err = errors.Join(err, fmt.Errorf("file close failed: %w", closeErr))
	}

	if err != nil {
		log.ErrorContext(ctx, "Receive failed", logutil.BytesAttr("written", written), logutil.ErrorAttr(err))
		return
	}

	log.InfoContext(ctx, "Received", logutil.BytesAttr("written", written))
}

// idleTimeoutReader extends read deadline before each read.
type idleTimeoutReader struct {
	conn    net.Conn
	timeout time.Duration
}

func (r *idleTimeoutReader) Read(p []byte) (int, error) {
	if r.timeout > 0 {
		if err := r.conn.SetReadDeadline(time.Now().Add(r.timeout)); err != nil {
			return 0, err
		}
	}

	return r.conn.Read(p)
}

func listenTCP(addr string) (net.Listener, error) {
	// if address is ipv4 we should pass "tcp4" net to listen only on ipv4 addresses

	host, _, err := net.SplitHostPort(addr)
	if err != nil || host == "" {
		return net.Listen("tcp", addr)
	}

	ipAddr, err := netip.ParseAddr(host)
	if err != nil {
		return net.Listen("tcp", addr)
	}

	if ipAddr.Is4() {
		return net.Listen("tcp4", addr)
	}

	return net.Listen("tcp", addr)
}
