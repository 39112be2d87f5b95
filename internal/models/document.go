package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Document 标签文档数据模型
// 由外部ETL流程写入，比较引擎只读
type Document struct {
	ID           string         `gorm:"primaryKey"`                          // 文档ID，主键
	Name         string         `gorm:"not null;index"`                      // 产品名称
	GenericName  string         `gorm:"size:255"`                            // 通用名
	Manufacturer string         `gorm:"size:255"`                            // 生产厂商
	SetID        string         `gorm:"size:64;index"`                       // 标签集合ID
	Version      int            `gorm:"not null;default:1"`                  // 标签版本号
	Status       string         `gorm:"size:20;default:'active'"`            // 文档状态
	Metadata     datatypes.JSON `gorm:"type:json"`                           // 元数据，JSON格式
	UpdatedAt    time.Time      `gorm:"not null;index"`                      // 更新时间
	CreatedAt    time.Time      `gorm:"not null"`                            // 创建时间
	Sections     []Section      `gorm:"foreignKey:DocumentID;references:ID"` // 文档章节
}

// BeforeCreate GORM的钩子函数，创建记录前自动设置时间
func (d *Document) BeforeCreate(tx *gorm.DB) (err error) {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	d.UpdatedAt = time.Now()
	return nil
}

// BeforeUpdate GORM的钩子函数，更新记录前自动设置更新时间
func (d *Document) BeforeUpdate(tx *gorm.DB) (err error) {
	d.UpdatedAt = time.Now()
	return nil
}

// TableName 明确指定表名
func (Document) TableName() string {
	return "documents"
}

// Section 文档章节数据模型
// Key是稳定的章节标识码（例如标准化的LOINC编码），在单个文档内唯一
type Section struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`                 // 主键ID
	DocumentID string    `gorm:"not null;index;uniqueIndex:idx_doc_key"`   // 所属文档ID
	Key        string    `gorm:"not null;size:64;uniqueIndex:idx_doc_key"` // 章节标识码
	Title      string    `gorm:"size:255"`                                 // 章节标题
	Text       string    `gorm:"type:text"`                                // 章节正文
	Order      int       `gorm:"column:sort_order;not null;default:0"`     // 章节顺序
	CreatedAt  time.Time `gorm:"not null"`                                 // 创建时间
	UpdatedAt  time.Time `gorm:"not null"`                                 // 更新时间
}

// BeforeCreate GORM的钩子函数，创建记录前自动设置时间
func (s *Section) BeforeCreate(tx *gorm.DB) (err error) {
	now := time.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	return nil
}

// TableName 明确指定表名
func (Section) TableName() string {
	return "document_sections"
}

// SectionByKey 按章节标识码查找章节
// 未找到时返回nil
func (d *Document) SectionByKey(key string) *Section {
	for i := range d.Sections {
		if d.Sections[i].Key == key {
			return &d.Sections[i]
		}
	}
	return nil
}
