package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/label-compare-system/api/middleware"
	"github.com/fyerfyer/label-compare-system/api/model"
	"github.com/fyerfyer/label-compare-system/internal/compare"
	"github.com/fyerfyer/label-compare-system/internal/models"
	"github.com/fyerfyer/label-compare-system/internal/services"
)

// CompareHandler 处理文档比较相关的API请求
type CompareHandler struct {
	compareService *services.CompareService // 比较服务
	explainService *services.ExplainService // 解释服务
	logger         *logrus.Logger           // 日志记录器
}

// NewCompareHandler 创建新的比较处理器
func NewCompareHandler(compareService *services.CompareService, explainService *services.ExplainService) *CompareHandler {
	return &CompareHandler{
		compareService: compareService,
		explainService: explainService,
		logger:         middleware.GetLogger(),
	}
}

// LexicalCompare 处理词法比较请求
// POST /api/compare/lexical
func (h *CompareHandler) LexicalCompare(c *gin.Context) {
	var req model.LexicalCompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithField("error", err.Error()).Warn("Invalid lexical compare request")
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"invalid request parameters",
		))
		return
	}

	h.logger.WithFields(logrus.Fields{
		"source_id":   req.SourceDocumentID,
		"target_id":   req.TargetDocumentID,
		"section_key": req.SectionKey,
	}).Info("Lexical compare request")

	result, err := h.compareService.LexicalCompare(c.Request.Context(), req.SourceDocumentID, req.TargetDocumentID, req.SectionKey)
	if err != nil {
		respondCompareError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(result))
}

// SemanticCompare 处理语义比较请求
// POST /api/compare/semantic
func (h *CompareHandler) SemanticCompare(c *gin.Context) {
	var req model.SemanticCompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithField("error", err.Error()).Warn("Invalid semantic compare request")
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"invalid request parameters",
		))
		return
	}

	h.logger.WithFields(logrus.Fields{
		"source_id":   req.SourceDocumentID,
		"target_id":   req.TargetDocumentID,
		"section_key": req.SectionKey,
		"threshold":   req.SimilarityThreshold,
	}).Info("Semantic compare request")

	result, err := h.compareService.SemanticCompare(c.Request.Context(), req.SourceDocumentID, req.TargetDocumentID, req.SectionKey, req.SimilarityThreshold)
	if err != nil {
		respondCompareError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(result))
}

// Explain 处理差异解释请求
// POST /api/compare/explain
func (h *CompareHandler) Explain(c *gin.Context) {
	var req model.ExplainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithField("error", err.Error()).Warn("Invalid explain request")
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"invalid request parameters",
		))
		return
	}

	explanation, err := h.explainService.Explain(c.Request.Context(), req.SourceDocumentID, req.TargetDocumentID, req.SectionKey)
	if err != nil {
		respondCompareError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(explanation))
}

// respondCompareError 将服务层错误映射为HTTP响应
func respondCompareError(c *gin.Context, logger *logrus.Logger, err error) {
	switch {
	case errors.Is(err, models.ErrDocumentNotFound):
		c.JSON(http.StatusNotFound, model.NewErrorResponse(
			http.StatusNotFound,
			err.Error(),
		))
	case errors.Is(err, models.ErrSectionNotFound):
		c.JSON(http.StatusNotFound, model.NewErrorResponse(
			http.StatusNotFound,
			err.Error(),
		))
	case errors.Is(err, compare.ErrInvalidThreshold):
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			err.Error(),
		))
	default:
		logger.WithField("error", err.Error()).Error("Compare request failed")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"comparison failed",
		))
	}
}
