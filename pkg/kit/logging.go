package kit

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the JSON production logger every service uses. level is a
// zap level name ("debug", "info", "warn", "error"); empty means info.
func NewLogger(service, level string) (*zap.Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	cfg.InitialFields = map[string]any{"service": service}
	return cfg.Build()
}

// NewConsoleLogger writes human readable entries to stderr, for interactive
// tools whose stdout belongs to the user.
func NewConsoleLogger(level string) (*zap.Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = lvl
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func parseLevel(level string) (zap.AtomicLevel, error) {
	if level == "" {
		return zap.NewAtomicLevelAt(zap.InfoLevel), nil
	}
	return zap.ParseAtomicLevel(level)
}
