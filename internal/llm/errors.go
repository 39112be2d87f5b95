package llm

import "fmt"

// Error 大模型错误类型
type Error struct {
	Code    int    // 错误码
	Message string // 错误消息
}

// Error 实现error接口
func (e *Error) Error() string {
	return fmt.Sprintf("llm error (code=%d): %s", e.Code, e.Message)
}

// 错误码常量
const (
	ErrCodeInvalidAPIKey  = 2001 // 无效的API密钥
	ErrCodeInvalidRequest = 2002 // 无效的请求
	ErrCodeNetworkError   = 2003 // 网络连接错误
	ErrCodeRateLimited    = 2004 // 请求频率超限
	ErrCodeServerError    = 2005 // 服务器错误
	ErrCodeTimeout        = 2006 // 请求超时
	ErrCodeEmptyResponse  = 2007 // 模型返回空结果
)

// NewLLMError 创建新的大模型错误
func NewLLMError(code int, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}
