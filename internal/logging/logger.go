package logging

import (
	"context"
	"log/slog"
	"os"

	"payment-platform/internal/config"
	"payment-platform/internal/logcontext"

	"github.com/grafana/loki-client-go/loki"
	slogloki "github.com/samber/slog-loki/v3"
)

// GetLogger returns a JSON stdout logger, or a Loki-backed one when a logs
// URL is configured.
func GetLogger(cfg config.Logs, service string) *slog.Logger {
	if cfg.URL == "" {
		return localLogger(service)
	}

	return remoteLogger(cfg.URL, service)
}

func localLogger(service string) *slog.Logger {
	handler := &logcontext.ContextHandler{Handler: slog.NewJSONHandler(os.Stdout, nil)}
	return slog.New(handler).With("service", service)
}

func remoteLogger(url, service string) *slog.Logger {
	lokiConfig, _ := loki.NewDefaultConfig(url)
	client, _ := loki.New(lokiConfig)

	return slog.New(slogloki.Option{
		Level:  slog.LevelInfo,
		Client: client,
		AttrFromContext: []func(ctx context.Context) []slog.Attr{
			func(ctx context.Context) []slog.Attr {
				return logcontext.FromCtx(ctx)
			},
		},
	}.NewLokiHandler()).With("service", service)
}
