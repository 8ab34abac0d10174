package kongutil

import (
	"errors"
	"fmt"
	"os"
	"reflect"

	"github.com/alecthomas/kong"
)

// OutputFileMapper creates a new file for writing, "-" means stdout.
// Existing files are never overwritten.
var OutputFileMapper = kong.NamedMapper("outputfile", kong.MapperFunc(outputFileMapper))

var ErrTargetExists = errors.New("target file already exists")

func outputFileMapper(dctx *kong.DecodeContext, target reflect.Value) error {
	if _, ok := target.Interface().(*os.File); !ok {
		return fmt.Errorf("\"outputfile\" can only be used with *os.File")
	}

	var path string
	if err := dctx.Scan.PopValueInto("file", &path); err != nil {
		return err
	}

	if path == "-" {
		target.Set(reflect.ValueOf(os.Stdout))
		return nil
	}

	f, err := os.OpenFile(kong.ExpandPath(path), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	switch {
	case errors.Is(err, nil):
		// pass
	case errors.Is(err, os.ErrExist):
		return fmt.Errorf("%w: %s", ErrTargetExists, path)
	default:
		return err
	}

	target.Set(reflect.ValueOf(f))

	return nil
}
