// Package logger provides a structured, levelled logger built on log/slog.
//
// WithCtx returns the request-scoped logger installed by the access log
// middleware, so every line from a handler or service carries the
// request_id:
//
//	log := logger.WithCtx(ctx)
//	log.Info("order placed", "order_id", order.ID, "total", order.TotalAmount)
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/farmchain/farmchain/config"
)

var L *slog.Logger

func init() {
	L = New(os.Stdout, config.AppEnv())
	slog.SetDefault(L)
}

// New builds the base logger for env: JSON at info level in production,
// human-readable text at debug level otherwise.
func New(w io.Writer, env string) *slog.Logger {
	switch env {
	case "production", "prod":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	case "testing", "test":
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelWarn}))
	default:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

// Use replaces the base logger, e.g. to fan out to an extra handler.
func Use(l *slog.Logger) {
	L = l
	slog.SetDefault(l)
}

// AttachMongo adds a MongoDB sink next to the current handler. The returned
// func flushes and disconnects it.
func AttachMongo(uri string) (func(), error) {
	h, err := NewMongoHandler(uri, config.Get("LOG_MONGO_DB", "farmchain"), config.Get("LOG_MONGO_COLLECTION", "logs"))
	if err != nil {
		return nil, err
	}
	Use(slog.New(NewMultiHandler(L.Handler(), h)))
	return h.Close, nil
}

type ctxKey struct{}

// WithCtx returns the logger stored in ctx, or the base logger.
func WithCtx(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return L
	}
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// InjectLogger stores a request-scoped logger in ctx.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

func Debug(msg string, args ...any) { L.Debug(msg, args...) }
func Info(msg string, args ...any)  { L.Info(msg, args...) }
func Warn(msg string, args ...any)  { L.Warn(msg, args...) }
func Error(msg string, args ...any) { L.Error(msg, args...) }

// LevelFor picks the access log level for an HTTP status.
func LevelFor(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
