package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"medgemma/internal/telemetry"
)

// zlog is the HTTP layer logger. It discards output until SetLogger is called.
var zlog = zerolog.Nop()

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = l.With().Str("component", "http").Logger() }

// LogLevel controls per-request logging behavior.
type LogLevel int

const (
	LevelOff LogLevel = iota
	LevelError
	LevelInfo
	LevelDebug
)

func parseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "":
		return LevelOff
	case "error":
		return LevelError
	case "info":
		return LevelInfo
	case "debug":
		return LevelDebug
	default:
		return LevelInfo
	}
}

var defaultLogLevel = LevelInfo

// SetRequestLogLevel sets the default per-request verbosity (off, error, info, debug).
func SetRequestLogLevel(s string) { defaultLogLevel = parseLevel(s) }

func requestLogLevel(r *http.Request) LogLevel {
	if v := r.URL.Query().Get("log"); v != "" {
		if v == "1" {
			return LevelDebug
		}
		return parseLevel(v)
	}
	if v := r.Header.Get("X-Log-Level"); v != "" {
		return parseLevel(v)
	}
	return defaultLogLevel
}

// logAnalyzeEnd writes the completion line for an /analyze request at the
// verbosity requested for it. Server errors are always logged.
func logAnalyzeEnd(r *http.Request, lvl LogLevel, status int, start time.Time, err error) {
	if status < http.StatusInternalServerError && lvl < LevelInfo {
		return
	}
	ev := zlog.Info()
	if status >= http.StatusInternalServerError {
		ev = zlog.Error()
	}
	ev = ev.Int("status", status).Dur("dur", time.Since(start))
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		ev = ev.Str("request_id", rid)
	}
	if tid := telemetry.TraceID(r.Context()); tid != "" {
		ev = ev.Str("trace_id", tid)
	}
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg("analyze end")
}
