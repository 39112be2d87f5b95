package repository

import (
	"context"

	"github.com/fyerfyer/label-compare-system/internal/models"
)

// DocumentStore 文档存储接口
type DocumentStore interface {
	// CreateDocument 创建文档及其章节
	CreateDocument(ctx context.Context, doc *models.Document) error

	// GetDocumentWithSections 根据ID获取文档及其全部章节
	// 文档不存在时返回models.ErrDocumentNotFound
	GetDocumentWithSections(ctx context.Context, id string) (*models.Document, error)

	// ListDocuments 分页列出文档（不加载章节内容）
	ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, int64, error)

	// DeleteDocument 删除文档及其章节
	DeleteDocument(ctx context.Context, id string) error
}
