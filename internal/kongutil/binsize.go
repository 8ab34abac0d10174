package kongutil

import (
	"errors"
	"fmt"
	"math"
	"reflect"

	"github.com/alecthomas/kong"
	"github.com/docker/go-units"
)

// BinSizeMapper parses human-readable sizes with binary multipliers ("64k" = 65536) into integer flags.
var BinSizeMapper = kong.NamedMapper("binsize", kong.MapperFunc(binSizeMapper))

var ErrSizeOutOfRange = errors.New("size out of range")

func binSizeMapper(dctx *kong.DecodeContext, target reflect.Value) error {
	maxValue, ok := maxIntValue(target.Kind())
	if !ok {
		return fmt.Errorf("\"binsize\" can only be used with integer types")
	}

	var rawSize string
	if err := dctx.Scan.PopValueInto("size", &rawSize); err != nil {
		return err
	}

	size, err := units.RAMInBytes(rawSize)
	if err != nil {
		return err
	}

	if size < 0 || uint64(size) > maxValue {
		return fmt.Errorf("%w: %s", ErrSizeOutOfRange, rawSize)
	}

	target.Set(reflect.ValueOf(size).Convert(target.Type()))

	return nil
}

func maxIntValue(kind reflect.Kind) (uint64, bool) {
	switch kind {
	case reflect.Int, reflect.Int64:
		return math.MaxInt64, true
	case reflect.Int8:
		return math.MaxInt8, true
	case reflect.Int16:
		return math.MaxInt16, true
	case reflect.Int32:
		return math.MaxInt32, true
	case reflect.Uint, reflect.Uint64, reflect.Uintptr:
		return math.MaxUint64, true
	case reflect.Uint8:
		return math.MaxUint8, true
	case reflect.Uint16:
		return math.MaxUint16, true
	case reflect.Uint32:
		return math.MaxUint32, true
	default:
		return 0, false
	}
}
