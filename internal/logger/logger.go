package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/llm-d-incubation/homgp/internal/constants"
)

var (
	zapLogger *zap.Logger
	level     = zap.NewAtomicLevel()
)

// Log is usable before InitLogger; it discards everything until then.
var Log = zap.NewNop().Sugar()

func InitLogger() (*zap.SugaredLogger, error) {
	if zapLogger != nil {
		Log = zapLogger.Sugar()
		return Log, nil
	}

	level.SetLevel(GetZapLevelFromEnv())
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.LevelKey = "level"
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(os.Stderr),
		level,
	)

	zapLogger = zap.New(core)
	Log = zapLogger.Sugar()
	return Log, nil
}

// SetLevel changes the level of an initialized logger.
func SetLevel(name string) {
	level.SetLevel(ParseLevel(name))
}

// Level reports the current level.
func Level() zapcore.Level {
	return level.Level()
}

func GetZapLevelFromEnv() zapcore.Level {
	return ParseLevel(os.Getenv(constants.LogLevelEnvName))
}

// ParseLevel maps a level name to a zap level, defaulting to info.
func ParseLevel(s string) zapcore.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// SyncLogger ensures the logger is properly synced
func SyncLogger() {
	if Log != nil {
		_ = Log.Sync()
	}
}
