package logging

import (
	"context"
	"os"
	"strings"
	"time"

	"tenant-fanout-pipeline/internal/config"

	"github.com/rs/zerolog"
)

// New creates a zerolog logger configured from config.
// Supports "trace" | "debug" | "info" | "warn" | "error" levels
// and "json" | "console" formats. Sampling can be enabled to reduce noise in prod.
func New(cfg config.LogConfig, dev bool) *zerolog.Logger {
	level, _ := zerolog.ParseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	var base zerolog.Logger
	if strings.ToLower(cfg.Format) == "console" || dev {
		out := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		base = zerolog.New(out).With().Timestamp().Logger()
	} else {
		base = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	if cfg.Sampling && !dev {
		sampled := base.Sample(&zerolog.BasicSampler{N: 100})
		return &sampled
	}
	return &base
}

type ctxKey string

const (
	ctxTenantID  ctxKey = "tenant_id"
	ctxJobKey    ctxKey = "job_key"
	ctxMessageID ctxKey = "message_id"
)

// With attaches pipeline context fields (tenant, job key, message) when they
// are present on the context.
func With(ctx context.Context, base *zerolog.Logger) *zerolog.Logger {
	l := base.With()
	if v := ctx.Value(ctxTenantID); v != nil {
		l = l.Str("tenant_id", v.(string))
	}
	if v := ctx.Value(ctxJobKey); v != nil {
		l = l.Str("job_key", v.(string))
	}
	if v := ctx.Value(ctxMessageID); v != nil {
		l = l.Str("message_id", v.(string))
	}
	logger := l.Logger()
	return &logger
}

func WithTenantID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxTenantID, id)
}
func WithJobKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, ctxJobKey, key)
}
func WithMessageID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxMessageID, id)
}
