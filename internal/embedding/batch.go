package embedding

import (
	"context"
	"fmt"
	"sync"

	"github.com/gammazero/workerpool"
)

// BatchProcessor 批处理器接口
// 把大量文本分批并行送入嵌入客户端，结果顺序与输入一致
type BatchProcessor interface {
	Process(ctx context.Context, texts []string) ([][]float32, error)
}

// DefaultBatchProcessor 默认批处理器实现
// 按客户端的批量上限切分文本，用工作池并行发请求
type DefaultBatchProcessor struct {
	client     Client // 嵌入客户端
	batchSize  int    // 每批处理的文本数量
	maxWorkers int    // 最大并行工作协程数
}

// NewBatchProcessor 创建新的批处理器
func NewBatchProcessor(client Client, batchSize int, maxWorkers int) *DefaultBatchProcessor {
	if batchSize <= 0 {
		batchSize = 16
	}
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	return &DefaultBatchProcessor{
		client:     client,
		batchSize:  batchSize,
		maxWorkers: maxWorkers,
	}
}

// Process 处理一批文本
// 空文本不发给客户端，对应位置返回nil向量
func (p *DefaultBatchProcessor) Process(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	// 过滤空文本，记录非空文本的原始位置
	filtered := make([]string, 0, len(texts))
	positions := make([]int, 0, len(texts))
	for i, text := range texts {
		if text != "" {
			filtered = append(filtered, text)
			positions = append(positions, i)
		}
	}

	if len(filtered) == 0 {
		return make([][]float32, len(texts)), nil
	}

	batches := splitIntoBatches(filtered, p.batchSize)

	wp := workerpool.New(p.maxWorkers)
	var mu sync.Mutex
	batchVectors := make([][][]float32, len(batches))
	var processErr error

	for i, batch := range batches {
		i, batch := i, batch
		wp.Submit(func() {
			// 上下文取消后不再发出新的嵌入请求
			select {
			case <-ctx.Done():
				mu.Lock()
				if processErr == nil {
					processErr = ctx.Err()
				}
				mu.Unlock()
				return
			default:
			}

			vectors, err := p.client.EmbedBatch(ctx, batch)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if processErr == nil {
					processErr = fmt.Errorf("embedding batch %d: %w", i, err)
				}
				return
			}
			if len(vectors) != len(batch) {
				if processErr == nil {
					processErr = NewEmbeddingError(ErrCodeServerError,
						fmt.Sprintf("batch %d: got %d vectors for %d texts", i, len(vectors), len(batch)))
				}
				return
			}
			batchVectors[i] = vectors
		})
	}

	wp.StopWait()

	if processErr != nil {
		return nil, processErr
	}

	// 按原始位置重组结果
	results := make([][]float32, len(texts))
	idx := 0
	for _, vectors := range batchVectors {
		for _, v := range vectors {
			results[positions[idx]] = v
			idx++
		}
	}

	return results, nil
}

// splitIntoBatches 把文本列表切分成多个批次
func splitIntoBatches(texts []string, batchSize int) [][]string {
	if batchSize <= 0 {
		batchSize = 1
	}

	batches := make([][]string, 0, (len(texts)+batchSize-1)/batchSize)
	for i := 0; i < len(texts); i += batchSize {
		end := i + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batches = append(batches, texts[i:end])
	}
	return batches
}
