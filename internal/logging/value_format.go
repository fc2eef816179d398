package logging

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// timestampLayout keeps millisecond precision so chunk timings line up
// across console and JSON output.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// formatValue renders an attribute for the console handler. Header fields
// such as the component are written bare; key=value pairs set quote so
// values with spaces stay one token.
func formatValue(v slog.Value, quote bool) string {
	var s string
	switch v = v.Resolve(); v.Kind() {
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindDuration:
		return durationMillis(v.Duration())
	case slog.KindTime:
		return v.Time().UTC().Format(timestampLayout)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			s = err.Error()
		} else {
			s = fmt.Sprint(v.Any())
		}
	default:
		s = v.String()
	}
	if quote && needsQuotes(s) {
		return strconv.Quote(s)
	}
	return s
}

// durationMillis prints whole milliseconds, which is the unit chunk and
// request timings are reported in everywhere else.
func durationMillis(d time.Duration) string {
	return strconv.FormatInt(d.Milliseconds(), 10) + "ms"
}

func needsQuotes(s string) bool {
	return s == "" || strings.ContainsFunc(s, func(r rune) bool {
		return r <= ' ' || r == '=' || r == '"'
	})
}
