package models

import "errors"

var (
	// ErrDocumentNotFound 文档不存在错误
	ErrDocumentNotFound = errors.New("document not found")

	// ErrSectionNotFound 指定的章节标识码在文档中不存在错误
	ErrSectionNotFound = errors.New("section not found")
)
