package model

import (
	"time"

	"github.com/fyerfyer/label-compare-system/internal/models"
)

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`               // 响应状态码，0表示成功
	Message string      `json:"message"`            // 响应消息
	Data    interface{} `json:"data,omitempty"`     // 响应数据，可能为空
	TraceID string      `json:"trace_id,omitempty"` // 调用链追踪ID
}

// NewSuccessResponse 创建成功响应
func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(code int, message string) *Response {
	return &Response{
		Code:    code,
		Message: message,
	}
}

// DocumentInfo 文档列表项
type DocumentInfo struct {
	ID           string    `json:"id"`            // 文档ID
	Name         string    `json:"name"`          // 药品名称
	GenericName  string    `json:"generic_name"`  // 通用名
	Manufacturer string    `json:"manufacturer"`  // 生产厂商
	Version      int       `json:"version"`       // 标签版本
	Status       string    `json:"status"`        // 文档状态
	SectionCount int       `json:"section_count"` // 章节数量
	CreatedAt    time.Time `json:"created_at"`    // 创建时间
}

// DocumentListResponse 文档列表响应
type DocumentListResponse struct {
	Documents []DocumentInfo `json:"documents"` // 文档列表
	Total     int64          `json:"total"`     // 总数
	Offset    int            `json:"offset"`    // 偏移量
	Limit     int            `json:"limit"`     // 每页数量
}

// SectionInfo 章节信息
type SectionInfo struct {
	Key   string `json:"key"`   // 章节标识码
	Title string `json:"title"` // 章节标题
	Text  string `json:"text"`  // 章节正文
	Order int    `json:"order"` // 章节顺序
}

// DocumentDetailResponse 文档详情响应
type DocumentDetailResponse struct {
	DocumentInfo
	Sections []SectionInfo `json:"sections"` // 章节列表
}

// ReportCreateResponse 报告创建响应
type ReportCreateResponse struct {
	ReportID string `json:"report_id"` // 报告ID
	Status   string `json:"status"`    // 初始状态
}

// ConvertToDocumentInfo 从数据模型构造文档信息
func ConvertToDocumentInfo(doc *models.Document) DocumentInfo {
	return DocumentInfo{
		ID:           doc.ID,
		Name:         doc.Name,
		GenericName:  doc.GenericName,
		Manufacturer: doc.Manufacturer,
		Version:      doc.Version,
		Status:       doc.Status,
		SectionCount: len(doc.Sections),
		CreatedAt:    doc.CreatedAt,
	}
}

// ConvertToDocumentDetail 从数据模型构造文档详情
func ConvertToDocumentDetail(doc *models.Document) DocumentDetailResponse {
	detail := DocumentDetailResponse{
		DocumentInfo: ConvertToDocumentInfo(doc),
		Sections:     make([]SectionInfo, 0, len(doc.Sections)),
	}
	for _, s := range doc.Sections {
		detail.Sections = append(detail.Sections, SectionInfo{
			Key:   s.Key,
			Title: s.Title,
			Text:  s.Text,
			Order: s.Order,
		})
	}
	return detail
}
