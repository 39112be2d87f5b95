package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/label-compare-system/api/middleware"
	"github.com/fyerfyer/label-compare-system/api/model"
	"github.com/fyerfyer/label-compare-system/internal/models"
	"github.com/fyerfyer/label-compare-system/internal/repository"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// DocumentHandler 处理文档相关的API请求
type DocumentHandler struct {
	store  repository.DocumentStore // 文档存储
	logger *logrus.Logger           // 日志记录器
}

// NewDocumentHandler 创建新的文档处理器
func NewDocumentHandler(store repository.DocumentStore) *DocumentHandler {
	return &DocumentHandler{
		store:  store,
		logger: middleware.GetLogger(),
	}
}

// ListDocuments 获取文档列表
// GET /api/documents
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageLimit)))

	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > maxPageLimit {
		limit = defaultPageLimit
	}

	docs, total, err := h.store.ListDocuments(c.Request.Context(), offset, limit)
	if err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to list documents")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"failed to list documents",
		))
		return
	}

	resp := model.DocumentListResponse{
		Documents: make([]model.DocumentInfo, 0, len(docs)),
		Total:     total,
		Offset:    offset,
		Limit:     limit,
	}
	for _, doc := range docs {
		resp.Documents = append(resp.Documents, model.ConvertToDocumentInfo(doc))
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// GetDocument 获取文档详情及其章节
// GET /api/documents/:id
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	id := c.Param("id")

	doc, err := h.store.GetDocumentWithSections(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrDocumentNotFound) {
			c.JSON(http.StatusNotFound, model.NewErrorResponse(
				http.StatusNotFound,
				"document not found",
			))
			return
		}
		h.logger.WithFields(logrus.Fields{
			"document_id": id,
			"error":       err.Error(),
		}).Error("Failed to get document")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"failed to get document",
		))
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.ConvertToDocumentDetail(doc)))
}

// DeleteDocument 删除文档
// DELETE /api/documents/:id
func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	id := c.Param("id")

	if err := h.store.DeleteDocument(c.Request.Context(), id); err != nil {
		if errors.Is(err, models.ErrDocumentNotFound) {
			c.JSON(http.StatusNotFound, model.NewErrorResponse(
				http.StatusNotFound,
				"document not found",
			))
			return
		}
		h.logger.WithFields(logrus.Fields{
			"document_id": id,
			"error":       err.Error(),
		}).Error("Failed to delete document")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"failed to delete document",
		))
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(gin.H{"id": id}))
}
