package taskqueue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupRedisQueue 启动miniredis并创建队列实例
func setupRedisQueue(t *testing.T) Queue {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	queue, err := NewRedisQueue(&Config{
		RedisAddr:   mr.Addr(),
		Concurrency: 2,
		RetryLimit:  2,
		RetryDelay:  time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { queue.Close() })
	return queue
}

// TestRedisQueueEnqueue 测试任务入队和读取
func TestRedisQueueEnqueue(t *testing.T) {
	queue := setupRedisQueue(t)
	ctx := context.Background()

	payload := ReportPayload{
		SourceDocumentID:    "src-1",
		TargetDocumentID:    "tgt-1",
		SimilarityThreshold: 0.7,
	}

	taskID, err := queue.Enqueue(ctx, TaskReportGenerate, payload)
	require.NoError(t, err)
	require.NotEmpty(t, taskID)

	task, err := queue.GetTask(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, taskID, task.ID)
	assert.Equal(t, TaskReportGenerate, task.Type)
	assert.Equal(t, StatusPending, task.Status)

	var decoded ReportPayload
	require.NoError(t, UnmarshalPayload(task.Payload, &decoded))
	assert.Equal(t, "src-1", decoded.SourceDocumentID)
	assert.Equal(t, 0.7, decoded.SimilarityThreshold)
}

// TestRedisQueueGetTaskNotFound 测试读取不存在的任务
func TestRedisQueueGetTaskNotFound(t *testing.T) {
	queue := setupRedisQueue(t)

	_, err := queue.GetTask(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

// TestRedisQueueUpdateTaskStatus 测试状态流转和结果存储
func TestRedisQueueUpdateTaskStatus(t *testing.T) {
	queue := setupRedisQueue(t)
	ctx := context.Background()

	taskID, err := queue.Enqueue(ctx, TaskReportGenerate, ReportPayload{
		SourceDocumentID: "src-1",
		TargetDocumentID: "tgt-1",
	})
	require.NoError(t, err)

	// 进入处理中
	require.NoError(t, queue.UpdateTaskStatus(ctx, taskID, StatusProcessing, nil, ""))
	task, err := queue.GetTask(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, task.Status)
	assert.NotNil(t, task.StartedAt)
	assert.Nil(t, task.CompletedAt)

	// 完成并写入结果
	result := map[string]interface{}{"total_matches": 3}
	require.NoError(t, queue.UpdateTaskStatus(ctx, taskID, StatusCompleted, result, ""))
	task, err = queue.GetTask(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, task.Status)
	assert.NotNil(t, task.CompletedAt)
	assert.NotEmpty(t, task.Result)
}

// TestRedisQueueUpdateFailedStatus 测试失败状态记录错误信息
func TestRedisQueueUpdateFailedStatus(t *testing.T) {
	queue := setupRedisQueue(t)
	ctx := context.Background()

	taskID, err := queue.Enqueue(ctx, TaskReportGenerate, ReportPayload{
		SourceDocumentID: "src-1",
		TargetDocumentID: "tgt-1",
	})
	require.NoError(t, err)

	require.NoError(t, queue.UpdateTaskStatus(ctx, taskID, StatusFailed, nil, "document not found"))

	task, err := queue.GetTask(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, task.Status)
	assert.Equal(t, "document not found", task.Error)
}

// TestRedisQueueDeleteTask 测试删除任务
func TestRedisQueueDeleteTask(t *testing.T) {
	queue := setupRedisQueue(t)
	ctx := context.Background()

	taskID, err := queue.Enqueue(ctx, TaskReportGenerate, ReportPayload{
		SourceDocumentID: "src-1",
		TargetDocumentID: "tgt-1",
	})
	require.NoError(t, err)

	require.NoError(t, queue.DeleteTask(ctx, taskID))

	_, err = queue.GetTask(ctx, taskID)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

// TestRedisQueueWaitForTask 测试等待任务完成
func TestRedisQueueWaitForTask(t *testing.T) {
	queue := setupRedisQueue(t)
	ctx := context.Background()

	taskID, err := queue.Enqueue(ctx, TaskReportGenerate, ReportPayload{
		SourceDocumentID: "src-1",
		TargetDocumentID: "tgt-1",
	})
	require.NoError(t, err)

	// 后台完成任务
	go func() {
		time.Sleep(100 * time.Millisecond)
		_ = queue.UpdateTaskStatus(context.Background(), taskID, StatusCompleted, nil, "")
	}()

	task, err := queue.WaitForTask(ctx, taskID, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, task.Status)
}

// TestRedisQueueWaitForTaskTimeout 测试等待超时
func TestRedisQueueWaitForTaskTimeout(t *testing.T) {
	queue := setupRedisQueue(t)
	ctx := context.Background()

	taskID, err := queue.Enqueue(ctx, TaskReportGenerate, ReportPayload{
		SourceDocumentID: "src-1",
		TargetDocumentID: "tgt-1",
	})
	require.NoError(t, err)

	_, err = queue.WaitForTask(ctx, taskID, 200*time.Millisecond)
	assert.ErrorIs(t, err, ErrTaskTimeout)
}
