package embedding

import (
	"errors"
	"fmt"
)

// Error 嵌入错误类型
type Error struct {
	Code    int    // 错误码
	Message string // 错误消息
}

// Error 实现error接口
func (e *Error) Error() string {
	return fmt.Sprintf("embedding error (code=%d): %s", e.Code, e.Message)
}

// 错误码常量
const (
	ErrCodeInvalidAPIKey  = 1001 // 无效的API密钥
	ErrCodeInvalidRequest = 1002 // 无效的请求
	ErrCodeNetworkError   = 1003 // 网络连接错误
	ErrCodeRateLimited    = 1004 // 请求频率超限
	ErrCodeServerError    = 1005 // 服务器错误
	ErrCodeTimeout        = 1006 // 请求超时
	ErrCodeEmptyInput     = 1007 // 输入为空
)

// 错误消息常量
const (
	ErrMsgInvalidAPIKey  = "invalid API key"
	ErrMsgInvalidRequest = "invalid request parameters"
	ErrMsgRateLimited    = "too many requests, rate limit exceeded"
	ErrMsgServerError    = "server error occurred"
	ErrMsgTimeout        = "request timed out"
	ErrMsgEmptyInput     = "input text cannot be empty"
	ErrMsgNetworkError   = "network connection error"
)

// NewEmbeddingError 创建新的嵌入错误
func NewEmbeddingError(code int, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Retryable 判断错误是否可重试
// 网络、限流、超时和服务端错误属于暂时性故障
func (e *Error) Retryable() bool {
	switch e.Code {
	case ErrCodeNetworkError, ErrCodeRateLimited, ErrCodeServerError, ErrCodeTimeout:
		return true
	default:
		return false
	}
}

// IsRetryable 判断任意错误是否是可重试的嵌入服务故障
func IsRetryable(err error) bool {
	var embErr *Error
	if errors.As(err, &embErr) {
		return embErr.Retryable()
	}
	return false
}
