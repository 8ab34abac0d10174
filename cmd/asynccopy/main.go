package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/xakep666/asynccopy-go/internal/kongutil"
	"github.com/xakep666/asynccopy-go/pkg/kongini"
)

const (
	appConfigDir  = "asynccopy-go"
	appConfigFile = "config.ini"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	builtBy = "unknown"
)

type app struct {
	CopyApp    copyApp    `cmd:"" name:"copy" help:"Copy file reading and writing concurrently."`
	SendApp    sendApp    `cmd:"" name:"send" help:"Send file to receiver over TCP."`
	ReceiveApp receiveApp `cmd:"" name:"receive" help:"Receive files over TCP."`

	LogOptions `embed:""`

	Version kong.VersionFlag `help:"Show application version info."`
	Config  kong.ConfigFlag  `help:"Load configuration from file." env:"ASYNCCOPY_CONFIG_FILE"`
}

func main() {
	var app app
	k := kong.Must(&app,
		kong.Name("asynccopy"),
		kong.Description("Copy data between files and network overlapping reads with writes."),
		kong.Configuration(kongini.Loader, configLocations()...),
		kong.Vars{
			"version": fmt.Sprintf("%s (commit '%s' at '%s' build by '%s')", version, commit, date, builtBy),
		},
		kong.UsageOnError(),
		kongutil.OutputFileMapper,
		kongutil.BinSizeMapper,
	)
	kctx, err := k.Parse(os.Args[1:])
	k.FatalIfErrorf(err)

	app.setupLogger()
	app.setupRuntime()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kctx.BindTo(ctx, (*context.Context)(nil))
	k.FatalIfErrorf(kctx.Run())
}

func configLocations() []string {
	var ret []string
	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		ret = append(ret, filepath.Join(userConfigDir, appConfigDir, appConfigFile))
	}

	ret = append(ret, appConfigFile) // search in current workdir
	return ret
}
