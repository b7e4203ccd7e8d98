package utils

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig конфигурация логгера
type LogConfig struct {
	Level       string // debug, info, warn, error, fatal
	Format      string // json, text
	Output      string // путь к файлу; пусто = stderr
	Development bool   // режим разработки (stacktrace на warn)
}

// Logger обёртка над zap с доменными конструкторами полей
type Logger struct {
	*zap.Logger
}

// ============================================================
// Инициализация
// ============================================================

// parseLevel разбирает строковый уровень логирования.
// Неизвестные значения дают InfoLevel.
func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// InitLogger создаёт логгер по конфигурации. Никогда не возвращает nil:
// при недоступном файле вывода откатывается на stderr.
func InitLogger(config LogConfig) *Logger {
	level := parseLevel(config.Level)

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	if strings.ToLower(config.Format) == "text" {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	var sink zapcore.WriteSyncer = zapcore.AddSync(os.Stderr)
	if config.Output != "" {
		file, err := os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			sink = zapcore.AddSync(file)
		}
		// При ошибке открытия остаёмся на stderr
	}

	core := zapcore.NewCore(encoder, sink, level)

	opts := []zap.Option{zap.AddCaller()}
	if config.Development {
		opts = append(opts, zap.Development(), zap.AddStacktrace(zapcore.WarnLevel))
	} else {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	return &Logger{Logger: zap.New(core, opts...)}
}

// ============================================================
// Глобальный логгер
// ============================================================

var (
	globalMu     sync.Mutex
	globalLogger *Logger
)

// InitGlobalLogger инициализирует глобальный логгер по конфигурации
func InitGlobalLogger(config LogConfig) *Logger {
	logger := InitLogger(config)
	SetGlobalLogger(logger)
	return logger
}

// SetGlobalLogger устанавливает глобальный логгер
func SetGlobalLogger(logger *Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = logger
}

// GetGlobalLogger возвращает глобальный логгер, создавая дефолтный при необходимости
func GetGlobalLogger() *Logger {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		globalLogger = InitLogger(LogConfig{})
	}
	return globalLogger
}

// L короткий алиас для GetGlobalLogger
func L() *Logger {
	return GetGlobalLogger()
}

// ============================================================
// Методы Logger
// ============================================================

// With возвращает новый логгер с добавленными полями
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{Logger: l.Logger.With(fields...)}
}

// WithComponent возвращает логгер с полем component
func (l *Logger) WithComponent(component string) *Logger {
	return l.With(Component(component))
}

// ============================================================
// Глобальные функции логирования
// ============================================================

func Debug(msg string, fields ...zap.Field) { GetGlobalLogger().Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { GetGlobalLogger().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { GetGlobalLogger().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { GetGlobalLogger().Error(msg, fields...) }
func Fatal(msg string, fields ...zap.Field) { GetGlobalLogger().Fatal(msg, fields...) }

// ============================================================
// Доменные конструкторы полей
// ============================================================

func Symbol(symbol string) zap.Field       { return zap.String("symbol", symbol) }
func PairID(pairID string) zap.Field       { return zap.String("pair_id", pairID) }
func OrderID(orderID string) zap.Field     { return zap.String("order_id", orderID) }
func Price(price float64) zap.Field        { return zap.Float64("price", price) }
func Volume(volume float64) zap.Field      { return zap.Float64("volume", volume) }
func Spread(spread float64) zap.Field      { return zap.Float64("spread", spread) }
func PNL(pnl float64) zap.Field            { return zap.Float64("pnl", pnl) }
func Side(side string) zap.Field           { return zap.String("side", side) }
func State(state string) zap.Field         { return zap.String("state", state) }
func Latency(ms float64) zap.Field         { return zap.Float64("latency_ms", ms) }
func Component(component string) zap.Field { return zap.String("component", component) }

// Переэкспорт стандартных конструкторов zap
var (
	String  = zap.String
	Int     = zap.Int
	Int64   = zap.Int64
	Float64 = zap.Float64
	Bool    = zap.Bool
	Err     = zap.Error
	Any     = zap.Any
)
