package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a JSON logger writing to stderr at the given level. The
// AtomicLevel allows changing the level at runtime.
func New(atomicLevel zap.AtomicLevel) *zap.Logger {
	return newLogger(atomicLevel)
}

func newLogger(levelEnabler zapcore.LevelEnabler, additionalCores ...zapcore.Core) *zap.Logger {
	encoder := getZapEncoder()

	defaultCore := zapcore.NewCore(
		encoder,
		zapcore.Lock(os.Stderr),
		levelEnabler,
	)
	cores := append(additionalCores, defaultCore)

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller())
}

func getZapEncoder() zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.MessageKey = "message"

	return zapcore.NewJSONEncoder(encoderConfig)
}
