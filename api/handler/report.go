package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/label-compare-system/api/middleware"
	"github.com/fyerfyer/label-compare-system/api/model"
	"github.com/fyerfyer/label-compare-system/internal/compare"
	"github.com/fyerfyer/label-compare-system/internal/services"
	"github.com/fyerfyer/label-compare-system/pkg/taskqueue"
)

// ReportHandler 处理异步比较报告的API请求
type ReportHandler struct {
	reportService *services.ReportService // 报告服务
	logger        *logrus.Logger          // 日志记录器
}

// NewReportHandler 创建新的报告处理器
func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		logger:        middleware.GetLogger(),
	}
}

// CreateReport 提交报告生成任务
// POST /api/compare/reports
func (h *ReportHandler) CreateReport(c *gin.Context) {
	var req model.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithField("error", err.Error()).Warn("Invalid report request")
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"invalid request parameters",
		))
		return
	}

	payload := taskqueue.ReportPayload{
		SourceDocumentID:    req.SourceDocumentID,
		TargetDocumentID:    req.TargetDocumentID,
		SectionKey:          req.SectionKey,
		SimilarityThreshold: req.SimilarityThreshold,
	}

	reportID, err := h.reportService.CreateReport(c.Request.Context(), payload)
	if err != nil {
		if errors.Is(err, compare.ErrInvalidThreshold) {
			c.JSON(http.StatusBadRequest, model.NewErrorResponse(
				http.StatusBadRequest,
				err.Error(),
			))
			return
		}
		h.logger.WithField("error", err.Error()).Error("Failed to create report")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"failed to create report",
		))
		return
	}

	c.JSON(http.StatusAccepted, model.NewSuccessResponse(model.ReportCreateResponse{
		ReportID: reportID,
		Status:   string(taskqueue.StatusPending),
	}))
}

// GetReport 查询报告状态和结果
// GET /api/compare/reports/:id
func (h *ReportHandler) GetReport(c *gin.Context) {
	id := c.Param("id")

	report, err := h.reportService.GetReport(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, taskqueue.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, model.NewErrorResponse(
				http.StatusNotFound,
				"report not found",
			))
			return
		}
		h.logger.WithFields(logrus.Fields{
			"report_id": id,
			"error":     err.Error(),
		}).Error("Failed to get report")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"failed to get report",
		))
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(report))
}
