// Package log 提供zkvc框架的核心日志接口定义
//
// 📋 **日志系统核心接口 (Core Logging Interface)**
//
// 本文件定义了zkvc框架统一的日志接口，专注于：
// - 统一的日志记录接口，供客户端/服务端编排器及核心组件使用
// - 多级别日志的统一管理
// - 结构化字段附加能力
//
// 🎯 **设计原则**
// - 统一接口：为所有模块提供统一的日志接口
// - 可替换性：底层实现可替换（默认基于zap）
// - 高性能：格式化延迟到确认级别启用之后
package log

import "go.uber.org/zap"

// Logger 定义日志记录器接口
type Logger interface {
	// Debug 记录调试级别的日志
	Debug(msg string)

	// Debugf 记录格式化的调试级别日志
	Debugf(format string, args ...interface{})

	// Info 记录信息级别的日志
	Info(msg string)

	// Infof 记录格式化的信息级别日志
	Infof(format string, args ...interface{})

	// Warn 记录警告级别的日志
	Warn(msg string)

	// Warnf 记录格式化的警告级别日志
	Warnf(format string, args ...interface{})

	// Error 记录错误级别的日志
	Error(msg string)

	// Errorf 记录格式化的错误级别日志
	Errorf(format string, args ...interface{})

	// Fatal 记录致命错误日志并退出进程
	Fatal(msg string)

	// Fatalf 记录格式化的致命错误日志并退出进程
	Fatalf(format string, args ...interface{})

	// With 附加结构化字段，返回新的日志记录器
	With(fields ...zap.Field) Logger

	// GetZapLogger 获取原始的zap日志记录器
	GetZapLogger() *zap.Logger
}
