// Package bridge dispatches host commands to the Parquet components. A
// command is a word plus positional arguments; everything else (selected
// columns and row groups, row bounds, type codes, tuning knobs) is read from
// named scalars and matrices in the host environment, and results are written
// back the same way.
//
//	check
//	shape     <file> [multi]
//	colnames  <file> <namesFile> [multi]
//	coltypes  <file> [multi]
//	read      <file> [lowlevel] [multi]
//	write     <file> <namesFile> [lowlevel] [fixedlen] [if]
//
// In multi mode <file> is a manifest listing one Parquet file per line.
package bridge

import (
	"context"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/sparquet/pkg/config"
	sperrors "github.com/ajitpratap0/sparquet/pkg/errors"
	"github.com/ajitpratap0/sparquet/pkg/host"
	"github.com/ajitpratap0/sparquet/pkg/logger"
	"github.com/ajitpratap0/sparquet/pkg/metrics"
	"github.com/ajitpratap0/sparquet/pkg/observability"
)

// Bridge runs commands against a host environment.
type Bridge struct {
	Config *config.Config
	Logger *zap.Logger
}

// New returns a bridge with cfg, or the default configuration when cfg is
// nil.
func New(cfg *config.Config, l *zap.Logger) *Bridge {
	return &Bridge{Config: cfg, Logger: l}
}

func (b *Bridge) config() *config.Config {
	if b.Config == nil {
		return config.Default()
	}
	return b.Config
}

func (b *Bridge) logger(ctx context.Context) *zap.Logger {
	l := b.Logger
	if l == nil {
		return logger.WithContext(ctx)
	}
	if cmd, ok := ctx.Value(logger.CommandKey).(string); ok {
		l = l.With(zap.String("command", cmd))
	}
	return l
}

// Dispatch runs command. The error, if any, is a *errors.Error whose Code is
// the host return code.
func (b *Bridge) Dispatch(ctx context.Context, env host.Environment, command string, args []string) (err error) {
	ctx = logger.WithCommand(ctx, command)
	ctx, span := observability.StartCommand(ctx, command, args)
	timer := metrics.NewTimer(command)
	l := b.logger(ctx)
	start := time.Now()
	defer func() {
		timer.ObserveDuration()
		observability.End(span, err)
		if err != nil {
			metrics.Errors.WithLabelValues(command, string(sperrors.TypeOf(err))).Inc()
			l.Error("command failed", zap.Error(err), zap.Int("code", sperrors.Code(err)))
			return
		}
		l.Debug("command finished", zap.Duration("elapsed", time.Since(start)))
	}()

	switch command {
	case "check":
		return b.check(args)
	case "shape":
		return b.shape(ctx, env, args)
	case "colnames":
		return b.colnames(ctx, env, args)
	case "coltypes":
		return b.coltypes(ctx, env, args)
	case "read":
		return b.read(ctx, env, args)
	case "write":
		return b.write(ctx, env, args)
	default:
		return sperrors.Newf(sperrors.ErrorTypeInvalidArgument, "unknown command %q", command)
	}
}

// Code is the host return code of err; 0 for nil.
func Code(err error) int {
	return sperrors.Code(err)
}

// options splits args into positional arguments and known option words.
func options(args []string, positional int, allowed ...string) ([]string, map[string]bool, error) {
	if len(args) < positional {
		return nil, nil, sperrors.Newf(sperrors.ErrorTypeInvalidArgument,
			"expected %d arguments, got %d", positional, len(args))
	}
	opts := make(map[string]bool)
	for _, a := range args[positional:] {
		if !slices.Contains(allowed, a) {
			return nil, nil, sperrors.Newf(sperrors.ErrorTypeInvalidArgument, "unknown option %q", a)
		}
		opts[a] = true
	}
	return args[:positional], opts, nil
}
