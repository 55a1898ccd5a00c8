package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects how a process logs
type Options struct {
	// Env is the deployment environment; "production" switches to JSON
	Env string
	// Level is a zap level name. Empty means info in production and debug
	// everywhere else.
	Level   string
	Service string
}

func (o Options) production() bool {
	return o.Env == "production"
}

func (o Options) level() (zapcore.Level, error) {
	if o.Level == "" {
		if o.production() {
			return zapcore.InfoLevel, nil
		}
		return zapcore.DebugLevel, nil
	}
	lvl, err := zapcore.ParseLevel(o.Level)
	if err != nil {
		return lvl, fmt.Errorf("invalid log level %q: %w", o.Level, err)
	}
	return lvl, nil
}

// New builds the process logger. Every entry is tagged with the service name
// and written to stdout; internal zap errors go to stderr.
func New(opts Options) (*zap.Logger, error) {
	lvl, err := opts.level()
	if err != nil {
		return nil, err
	}

	var encoder zapcore.Encoder
	if opts.production() {
		encoder = zapcore.NewJSONEncoder(encoderConfig())
	} else {
		devCfg := zap.NewDevelopmentEncoderConfig()
		devCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(devCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), lvl)
	zapOpts := []zap.Option{
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.ErrorOutput(zapcore.Lock(os.Stderr)),
		zap.Fields(zap.String("service", opts.Service)),
	}
	if !opts.production() {
		zapOpts = append(zapOpts, zap.Development())
	}

	return zap.New(core, zapOpts...), nil
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.MessageKey = "message"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeDuration = zapcore.SecondsDurationEncoder
	return cfg
}
