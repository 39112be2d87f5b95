package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/fyerfyer/label-compare-system/internal/models"
	"gorm.io/gorm"
)

// DocumentRepository 基于gorm的文档存储实现
type DocumentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository 创建文档存储实例
func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// CreateDocument 创建文档及其章节
func (r *DocumentRepository) CreateDocument(ctx context.Context, doc *models.Document) error {
	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		return fmt.Errorf("failed to create document: %v", err)
	}
	return nil
}

// GetDocumentWithSections 根据ID获取文档及其全部章节
func (r *DocumentRepository) GetDocumentWithSections(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	err := r.db.WithContext(ctx).
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		First(&doc, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to get document %s: %v", id, err)
	}
	return &doc, nil
}

// ListDocuments 分页列出文档
func (r *DocumentRepository) ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Document{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count documents: %v", err)
	}

	var docs []*models.Document
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&docs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list documents: %v", err)
	}
	return docs, total, nil
}

// DeleteDocument 删除文档及其章节
func (r *DocumentRepository) DeleteDocument(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Document{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete document: %v", res.Error)
		}
		if res.RowsAffected == 0 {
			return models.ErrDocumentNotFound
		}
		if err := tx.Delete(&models.Section{}, "document_id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete document sections: %v", err)
		}
		return nil
	})
}
