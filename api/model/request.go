package model

import (
	"github.com/go-playground/validator/v10"
)

// RegisterValidations 注册请求级的自定义校验规则
func RegisterValidations(v *validator.Validate) error {
	return v.RegisterValidation("similarity_threshold", validThreshold)
}

// validThreshold 相似度阈值必须在(0,1]区间内，0表示使用默认阈值
func validThreshold(fl validator.FieldLevel) bool {
	value := fl.Field().Float()
	return value == 0 || (value > 0 && value <= 1)
}

// LexicalCompareRequest 词法比较请求
type LexicalCompareRequest struct {
	SourceDocumentID string `json:"source_document_id" binding:"required"` // 源文档ID
	TargetDocumentID string `json:"target_document_id" binding:"required"` // 目标文档ID
	SectionKey       string `json:"section_key"`                           // 可选，指定单个章节
}

// SemanticCompareRequest 语义比较请求
type SemanticCompareRequest struct {
	SourceDocumentID    string  `json:"source_document_id" binding:"required"`               // 源文档ID
	TargetDocumentID    string  `json:"target_document_id" binding:"required"`               // 目标文档ID
	SectionKey          string  `json:"section_key"`                                         // 可选，指定单个章节
	SimilarityThreshold float64 `json:"similarity_threshold" binding:"similarity_threshold"` // 可选，0表示使用默认阈值
}

// ExplainRequest 差异解释请求
type ExplainRequest struct {
	SourceDocumentID string `json:"source_document_id" binding:"required"` // 源文档ID
	TargetDocumentID string `json:"target_document_id" binding:"required"` // 目标文档ID
	SectionKey       string `json:"section_key" binding:"required"`        // 待解释的章节
}

// ReportRequest 异步比较报告请求
type ReportRequest struct {
	SourceDocumentID    string  `json:"source_document_id" binding:"required"`               // 源文档ID
	TargetDocumentID    string  `json:"target_document_id" binding:"required"`               // 目标文档ID
	SectionKey          string  `json:"section_key"`                                         // 可选，指定单个章节
	SimilarityThreshold float64 `json:"similarity_threshold" binding:"similarity_threshold"` // 可选，0表示使用默认阈值
}
