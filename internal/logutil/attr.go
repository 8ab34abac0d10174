package logutil

import (
	"fmt"
	"log/slog"

	"github.com/docker/go-units"
	"github.com/lmittmann/tint"
)

func ErrorAttr(err error) slog.Attr {
	return tint.Err(err)
}

func StringerAttr(key string, value fmt.Stringer) slog.Attr {
	return slog.Attr{
		Key:   key,
		Value: slog.AnyValue(stringerToValuer{value}),
	}
}

// BytesAttr prints byte count in human-readable form, i.e. "1.5MiB".
func BytesAttr(key string, n int64) slog.Attr {
	return slog.Attr{
		Key:   key,
		Value: slog.AnyValue(bytesValuer(n)),
	}
}

type stringerToValuer struct {
	fmt.Stringer
}

var _ slog.LogValuer = (*stringerToValuer)(nil)

func (sv stringerToValuer) LogValue() slog.Value {
	return slog.StringValue(sv.String())
}

type bytesValuer int64

func (bv bytesValuer) LogValue() slog.Value {
	return slog.StringValue(units.BytesSize(float64(bv)))
}
