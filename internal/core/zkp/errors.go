// Package zkp provides error definitions for the proof exchange pipeline.
package zkp

import (
	"errors"
	"fmt"
)

// ============================================================================
//                            证明交换错误定义
// ============================================================================

var (
	// ErrKeyMissing 密钥文件不存在错误
	ErrKeyMissing = errors.New("key material not found")

	// ErrKeyFormat 密钥格式错误（字节无法反序列化或形状不匹配）
	ErrKeyFormat = errors.New("key material malformed")

	// ErrBadEncoding 域元素字符串编码错误
	ErrBadEncoding = errors.New("field value malformed")

	// ErrShapeMismatch 电路形状不匹配错误（变量数量/顺序/公私分类不一致）
	ErrShapeMismatch = errors.New("circuit shape mismatch")

	// ErrTransport 网络传输错误（连接失败、超时）
	ErrTransport = errors.New("transport failure")

	// ErrProtocol 协议错误（对端响应无法解析）
	ErrProtocol = errors.New("protocol violation")

	// ErrBackend 证明后端内部错误（证明字节损坏、输入数量不匹配等）
	ErrBackend = errors.New("proof backend failure")

	// ErrHandler 反应回调执行失败错误
	ErrHandler = errors.New("reaction handler failure")

	// ErrVerificationRejected 证明格式合法但密码学验证为假
	ErrVerificationRejected = errors.New("proof verification failed")

	// ErrQueueFull 验证任务队列已满错误
	ErrQueueFull = errors.New("verification queue full")
)

// ============================================================================
//                               错误包装函数
// ============================================================================

// WrapKeyMissingError 包装密钥缺失错误
func WrapKeyMissingError(path string) error {
	return fmt.Errorf("%w: path=%s", ErrKeyMissing, path)
}

// WrapKeyFormatError 包装密钥格式错误
func WrapKeyFormatError(path string, err error) error {
	return fmt.Errorf("%w: path=%s, cause=%v", ErrKeyFormat, path, err)
}

// WrapBadEncodingError 包装域元素编码错误
func WrapBadEncodingError(index int, value string) error {
	return fmt.Errorf("%w: index=%d, value=%q", ErrBadEncoding, index, value)
}

// WrapShapeMismatchError 包装电路形状不匹配错误
func WrapShapeMismatchError(kind string, expected, actual int) error {
	return fmt.Errorf("%w: %s expected=%d, actual=%d", ErrShapeMismatch, kind, expected, actual)
}

// WrapTransportError 包装传输错误
func WrapTransportError(endpoint string, err error) error {
	return fmt.Errorf("%w: endpoint=%s, cause=%v", ErrTransport, endpoint, err)
}

// WrapProtocolError 包装协议错误
func WrapProtocolError(reason string, err error) error {
	return fmt.Errorf("%w: %s, cause=%v", ErrProtocol, reason, err)
}

// WrapBackendError 包装后端错误
func WrapBackendError(stage string, err error) error {
	return fmt.Errorf("%w: stage=%s, cause=%v", ErrBackend, stage, err)
}

// WrapHandlerError 包装反应回调错误
func WrapHandlerError(outcome string, err error) error {
	return fmt.Errorf("%w: outcome=%s, cause=%v", ErrHandler, outcome, err)
}
