package compare

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidThreshold 相似度阈值不在(0,1]区间内
	ErrInvalidThreshold = errors.New("similarity threshold must be in (0, 1]")
)

// DimensionMismatchError 向量维度不一致错误
// 属于配置漂移，必须硬失败，绝不截断或填充向量
type DimensionMismatchError struct {
	Expected int // 期望维度
	Actual   int // 实际维度
}

// Error 实现error接口
func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// SectionError 单个章节语义计算失败
// 不中止整个比较，按章节上报
type SectionError struct {
	SectionKey string // 失败的章节标识
	Err        error  // 底层错误
}

// Error 实现error接口
func (e *SectionError) Error() string {
	return fmt.Sprintf("section %s: %v", e.SectionKey, e.Err)
}

// Unwrap 支持errors.Is/As链式匹配
func (e *SectionError) Unwrap() error {
	return e.Err
}

// ValidateThreshold 校验相似度阈值，必须在任何计算开始前调用
func ValidateThreshold(threshold float64) error {
	if threshold <= 0 || threshold > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidThreshold, threshold)
	}
	return nil
}
