package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/label-compare-system/internal/compare"
	"github.com/fyerfyer/label-compare-system/pkg/taskqueue"
)

// Report 异步比较报告
type Report struct {
	ID          string               `json:"id"`               // 报告ID
	Status      taskqueue.TaskStatus `json:"status"`           // 报告状态
	Error       string               `json:"error,omitempty"`  // 错误信息
	Result      *SemanticResult      `json:"result,omitempty"` // 完成后的比较结果
	CreatedAt   time.Time            `json:"created_at"`
	StartedAt   *time.Time           `json:"started_at,omitempty"`
	CompletedAt *time.Time           `json:"completed_at,omitempty"`
}

// ReportService 异步比较报告服务
// 把完整语义比较放入任务队列后台执行，客户端轮询报告状态
type ReportService struct {
	queue   taskqueue.Queue
	compare *CompareService
	logger  *logrus.Logger
}

// NewReportService 创建报告服务实例
func NewReportService(queue taskqueue.Queue, compareService *CompareService, logger *logrus.Logger) *ReportService {
	if logger == nil {
		logger = logrus.New()
	}
	return &ReportService{
		queue:   queue,
		compare: compareService,
		logger:  logger,
	}
}

// CreateReport 提交报告生成任务，返回报告ID
// 阈值非法时同步返回ErrInvalidThreshold，不入队
func (s *ReportService) CreateReport(ctx context.Context, payload taskqueue.ReportPayload) (string, error) {
	if payload.SimilarityThreshold != 0 {
		if err := compare.ValidateThreshold(payload.SimilarityThreshold); err != nil {
			return "", err
		}
	}

	reportID, err := s.queue.Enqueue(ctx, taskqueue.TaskReportGenerate, payload)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue report task: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"report_id": reportID,
		"source_id": payload.SourceDocumentID,
		"target_id": payload.TargetDocumentID,
	}).Info("report task created")

	return reportID, nil
}

// GetReport 查询报告状态和结果
// 报告不存在时返回taskqueue.ErrTaskNotFound
func (s *ReportService) GetReport(ctx context.Context, reportID string) (*Report, error) {
	task, err := s.queue.GetTask(ctx, reportID)
	if err != nil {
		return nil, err
	}

	report := &Report{
		ID:          task.ID,
		Status:      task.Status,
		Error:       task.Error,
		CreatedAt:   task.CreatedAt,
		StartedAt:   task.StartedAt,
		CompletedAt: task.CompletedAt,
	}

	if task.Status == taskqueue.StatusCompleted && len(task.Result) > 0 {
		var result SemanticResult
		if err := taskqueue.UnmarshalPayload(task.Result, &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal report result: %w", err)
		}
		report.Result = &result
	}

	return report, nil
}

// ReportHandler 报告生成任务处理器
type ReportHandler struct {
	queue   taskqueue.Queue
	compare *CompareService
	logger  *logrus.Logger
}

// NewReportHandler 创建报告任务处理器
func NewReportHandler(queue taskqueue.Queue, compareService *CompareService, logger *logrus.Logger) *ReportHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &ReportHandler{
		queue:   queue,
		compare: compareService,
		logger:  logger,
	}
}

// GetTaskTypes 返回此处理器支持的任务类型
func (h *ReportHandler) GetTaskTypes() []taskqueue.TaskType {
	return []taskqueue.TaskType{taskqueue.TaskReportGenerate}
}

// ProcessTask 执行报告生成任务
func (h *ReportHandler) ProcessTask(ctx context.Context, task *taskqueue.Task) error {
	var payload taskqueue.ReportPayload
	if err := taskqueue.UnmarshalPayload(task.Payload, &payload); err != nil {
		return fmt.Errorf("%w: %v", taskqueue.ErrInvalidPayload, err)
	}

	result, err := h.compare.SemanticCompare(ctx, payload.SourceDocumentID, payload.TargetDocumentID, payload.SectionKey, payload.SimilarityThreshold)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"report_id": task.ID,
			"error":     err.Error(),
		}).Error("report generation failed")
		return err
	}

	if err := h.queue.UpdateTaskStatus(ctx, task.ID, taskqueue.StatusCompleted, result, ""); err != nil {
		return fmt.Errorf("failed to store report result: %w", err)
	}

	return nil
}
