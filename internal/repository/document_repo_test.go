package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/fyerfyer/label-compare-system/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestRepo 创建基于内存sqlite的文档存储
func newTestRepo(t *testing.T) *DocumentRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Document{}, &models.Section{}))
	return NewDocumentRepository(db)
}

// seedDocument 写入一个带章节的测试文档
func seedDocument(t *testing.T, repo *DocumentRepository, id string) *models.Document {
	t.Helper()

	doc := &models.Document{
		ID:           id,
		Name:         "DrugA 10mg Tablets",
		GenericName:  "druganib",
		Manufacturer: "Acme Pharma",
		Version:      1,
		Sections: []models.Section{
			{Key: "warnings", Title: "Warnings", Text: "Do not exceed the dose.", Order: 2},
			{Key: "indications", Title: "Indications", Text: "Treatment of condition X.", Order: 1},
			{Key: "dosage", Title: "Dosage", Text: "Take one tablet daily.", Order: 3},
		},
	}
	require.NoError(t, repo.CreateDocument(context.Background(), doc))
	return doc
}

// TestGetDocumentWithSections 测试按ID读取文档及排好序的章节
func TestGetDocumentWithSections(t *testing.T) {
	repo := newTestRepo(t)
	seedDocument(t, repo, "doc-1")

	doc, err := repo.GetDocumentWithSections(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "DrugA 10mg Tablets", doc.Name)
	require.Len(t, doc.Sections, 3)

	// 章节按sort_order升序
	assert.Equal(t, "indications", doc.Sections[0].Key)
	assert.Equal(t, "warnings", doc.Sections[1].Key)
	assert.Equal(t, "dosage", doc.Sections[2].Key)

	// 创建时间由钩子填充
	assert.False(t, doc.CreatedAt.IsZero())
}

// TestGetDocumentNotFound 测试文档不存在时返回哨兵错误
func TestGetDocumentNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetDocumentWithSections(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrDocumentNotFound)
}

// TestSectionByKey 测试按章节标识码查找
func TestSectionByKey(t *testing.T) {
	repo := newTestRepo(t)
	seedDocument(t, repo, "doc-1")

	doc, err := repo.GetDocumentWithSections(context.Background(), "doc-1")
	require.NoError(t, err)

	section := doc.SectionByKey("warnings")
	require.NotNil(t, section)
	assert.Equal(t, "Do not exceed the dose.", section.Text)

	assert.Nil(t, doc.SectionByKey("overdosage"))
}

// TestListDocuments 测试分页列表
func TestListDocuments(t *testing.T) {
	repo := newTestRepo(t)
	for i := 0; i < 5; i++ {
		doc := &models.Document{
			ID:   fmt.Sprintf("doc-%d", i),
			Name: fmt.Sprintf("Drug %d", i),
			// created_at影响排序，错开写入时间
			CreatedAt: time.Now().Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, repo.CreateDocument(context.Background(), doc))
	}

	docs, total, err := repo.ListDocuments(context.Background(), 0, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, docs, 3)

	// 最新的文档排在最前
	assert.Equal(t, "doc-4", docs[0].ID)

	// 第二页
	docs, total, err = repo.ListDocuments(context.Background(), 3, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, docs, 2)
}

// TestDeleteDocument 测试删除文档及其章节
func TestDeleteDocument(t *testing.T) {
	repo := newTestRepo(t)
	seedDocument(t, repo, "doc-1")

	require.NoError(t, repo.DeleteDocument(context.Background(), "doc-1"))

	_, err := repo.GetDocumentWithSections(context.Background(), "doc-1")
	assert.ErrorIs(t, err, models.ErrDocumentNotFound)

	// 章节一并删除
	var count int64
	require.NoError(t, repo.db.Model(&models.Section{}).
		Where("document_id = ?", "doc-1").Count(&count).Error)
	assert.Zero(t, count)
}

// TestDeleteDocumentNotFound 测试删除不存在的文档
func TestDeleteDocumentNotFound(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.DeleteDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrDocumentNotFound)
}
