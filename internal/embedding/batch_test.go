package embedding

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient 把文本长度编码进向量的假嵌入客户端
type mockClient struct {
	mu        sync.Mutex
	batches   [][]string
	failAfter int // 处理这么多批之后开始报错，0表示不报错
	err       error
}

func (m *mockClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (m *mockClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil && len(m.batches) >= m.failAfter {
		return nil, m.err
	}
	m.batches = append(m.batches, texts)

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = []float32{float32(len(text)), 1}
	}
	return vectors, nil
}

func (m *mockClient) Name() string    { return "mock" }
func (m *mockClient) Dimensions() int { return 2 }

// TestBatchProcessorOrder 测试结果顺序与输入一致
func TestBatchProcessorOrder(t *testing.T) {
	client := &mockClient{}
	processor := NewBatchProcessor(client, 2, 4)

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	vectors, err := processor.Process(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, len(texts))

	// 向量编码了文本长度，可以校验顺序
	for i, text := range texts {
		require.NotNil(t, vectors[i])
		assert.Equal(t, float32(len(text)), vectors[i][0], "vector %d out of order", i)
	}

	// 按batchSize=2切分成3批
	assert.Len(t, client.batches, 3)
}

// TestBatchProcessorEmptyTexts 测试空文本的处理
func TestBatchProcessorEmptyTexts(t *testing.T) {
	client := &mockClient{}
	processor := NewBatchProcessor(client, 16, 2)

	// 空输入
	vectors, err := processor.Process(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)

	// 夹杂空文本：空位返回nil向量，不发给客户端
	vectors, err = processor.Process(context.Background(), []string{"aa", "", "cccc"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, float32(2), vectors[0][0])
	assert.Nil(t, vectors[1])
	assert.Equal(t, float32(4), vectors[2][0])

	// 全部为空：不发任何请求
	client2 := &mockClient{}
	processor2 := NewBatchProcessor(client2, 16, 2)
	vectors, err = processor2.Process(context.Background(), []string{"", ""})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Empty(t, client2.batches)
}

// TestBatchProcessorClientError 测试客户端错误向上传递
func TestBatchProcessorClientError(t *testing.T) {
	client := &mockClient{err: fmt.Errorf("rate limited"), failAfter: 0}
	processor := NewBatchProcessor(client, 2, 2)

	_, err := processor.Process(context.Background(), []string{"a", "b", "c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

// countMismatchClient 返回的向量数量与输入文本数量不一致
type countMismatchClient struct{ mockClient }

func (c *countMismatchClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return [][]float32{{1, 1}}, nil
}

// TestBatchProcessorCountMismatch 测试向量数量不匹配时报错
func TestBatchProcessorCountMismatch(t *testing.T) {
	processor := NewBatchProcessor(&countMismatchClient{}, 16, 2)

	_, err := processor.Process(context.Background(), []string{"a", "b"})
	require.Error(t, err)

	var embErr *Error
	require.ErrorAs(t, err, &embErr)
	assert.Equal(t, ErrCodeServerError, embErr.Code)
}

// TestBatchProcessorContextCancel 测试上下文取消后返回错误
func TestBatchProcessorContextCancel(t *testing.T) {
	client := &mockClient{}
	processor := NewBatchProcessor(client, 1, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := processor.Process(ctx, []string{"a", "b"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

// TestSplitIntoBatches 测试批次切分
func TestSplitIntoBatches(t *testing.T) {
	batches := splitIntoBatches([]string{"a", "b", "c", "d", "e"}, 2)
	require.Len(t, batches, 3)
	assert.Equal(t, []string{"a", "b"}, batches[0])
	assert.Equal(t, []string{"e"}, batches[2])

	batches = splitIntoBatches([]string{"a"}, 10)
	require.Len(t, batches, 1)

	assert.Empty(t, splitIntoBatches(nil, 3))
}
