// Package log 提供了基于zap的日志接口实现
// 支持控制台与文件双输出、日志级别控制以及基于lumberjack的日志轮转
package log

import (
	"os"
	"strings"
	"sync"

	logiface "github.com/weisyn/zkvc/pkg/interfaces/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config 日志配置
type Config struct {
	// Level 日志级别：debug | info | warn | error
	Level string

	// FilePath 日志文件路径；为空时仅输出到控制台
	FilePath string

	// MaxSizeMB 单个日志文件最大尺寸（MB），超过后轮转
	MaxSizeMB int

	// MaxBackups 保留的轮转文件数量
	MaxBackups int

	// MaxAgeDays 轮转文件最长保留天数
	MaxAgeDays int

	// Console 是否输出到控制台
	Console bool
}

// DefaultConfig 返回默认日志配置（info级别，仅控制台输出）
func DefaultConfig() *Config {
	return &Config{
		Level:      "info",
		MaxSizeMB:  100,
		MaxBackups: 5,
		MaxAgeDays: 30,
		Console:    true,
	}
}

var (
	// 全局日志实例
	globalLogger logiface.Logger
	mu           sync.RWMutex
)

// Logger 是日志记录器的结构体，实现了log.Logger接口
type Logger struct {
	zapLogger *zap.Logger
	sugar     *zap.SugaredLogger
}

func init() {
	logger, err := New(DefaultConfig())
	if err != nil {
		// 默认配置构建失败时退化到zap的生产配置
		fallback, _ := zap.NewProduction()
		logger = wrap(fallback)
	}
	SetLogger(logger)
}

// New 根据配置创建日志记录器
func New(cfg *Config) (logiface.Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	level := parseLevel(cfg.Level)

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var cores []zapcore.Core

	if cfg.Console {
		consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)
		cores = append(cores, zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stdout), level))
	}

	if cfg.FilePath != "" {
		// 文件输出走lumberjack轮转
		rotator := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		fileEncoder := zapcore.NewJSONEncoder(encoderCfg)
		cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.AddSync(rotator), level))
	}

	if len(cores) == 0 {
		// 所有输出都被关闭时仍保留控制台，避免日志完全丢失
		consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)
		cores = append(cores, zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stdout), level))
	}

	zapLogger := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
	return wrap(zapLogger), nil
}

// NewNop 返回丢弃所有输出的日志记录器（测试用）
func NewNop() logiface.Logger {
	return wrap(zap.NewNop())
}

func wrap(zapLogger *zap.Logger) *Logger {
	return &Logger{
		zapLogger: zapLogger,
		sugar:     zapLogger.Sugar(),
	}
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "info", "":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// SetLogger 设置全局日志记录器
func SetLogger(logger logiface.Logger) {
	mu.Lock()
	defer mu.Unlock()
	globalLogger = logger
}

// GetLogger 获取全局日志记录器
func GetLogger() logiface.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return globalLogger
}

// Debug 记录调试级别的日志
func (l *Logger) Debug(msg string) { l.zapLogger.Debug(msg) }

// Debugf 记录格式化的调试级别日志
func (l *Logger) Debugf(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }

// Info 记录信息级别的日志
func (l *Logger) Info(msg string) { l.zapLogger.Info(msg) }

// Infof 记录格式化的信息级别日志
func (l *Logger) Infof(format string, args ...interface{}) { l.sugar.Infof(format, args...) }

// Warn 记录警告级别的日志
func (l *Logger) Warn(msg string) { l.zapLogger.Warn(msg) }

// Warnf 记录格式化的警告级别日志
func (l *Logger) Warnf(format string, args ...interface{}) { l.sugar.Warnf(format, args...) }

// Error 记录错误级别的日志
func (l *Logger) Error(msg string) { l.zapLogger.Error(msg) }

// Errorf 记录格式化的错误级别日志
func (l *Logger) Errorf(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }

// Fatal 记录致命错误日志并退出进程
func (l *Logger) Fatal(msg string) { l.zapLogger.Fatal(msg) }

// Fatalf 记录格式化的致命错误日志并退出进程
func (l *Logger) Fatalf(format string, args ...interface{}) { l.sugar.Fatalf(format, args...) }

// With 附加结构化字段，返回新的日志记录器
func (l *Logger) With(fields ...zap.Field) logiface.Logger {
	return wrap(l.zapLogger.With(fields...))
}

// GetZapLogger 获取原始的zap日志记录器
func (l *Logger) GetZapLogger() *zap.Logger {
	return l.zapLogger
}
