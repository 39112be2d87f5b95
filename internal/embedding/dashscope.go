package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// 默认DashScope嵌入端点
	defaultDashScopeEndpoint = "https://dashscope.aliyuncs.com/api/v1/services/embeddings/text-embedding/text-embedding"

	// DashScope单次请求的文本数量上限
	dashScopeMaxBatch = 25
)

func init() {
	RegisterClient("dashscope", NewDashScopeClient)
}

// dashScopeRequest DashScope嵌入API请求结构
type dashScopeRequest struct {
	Model      string               `json:"model"`
	Input      dashScopeInput       `json:"input"`
	Parameters *dashScopeParameters `json:"parameters,omitempty"`
}

type dashScopeInput struct {
	Texts []string `json:"texts"`
}

type dashScopeParameters struct {
	Dimension  int    `json:"dimension,omitempty"`
	OutputType string `json:"output_type,omitempty"`
}

// dashScopeResponse DashScope嵌入API响应结构
type dashScopeResponse struct {
	RequestID string `json:"request_id"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message,omitempty"`
	Output    struct {
		Embeddings []struct {
			Embedding []float32 `json:"embedding"`
			TextIndex int       `json:"text_index"`
		} `json:"embeddings"`
	} `json:"output"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// DashScopeClient DashScope嵌入API客户端
type DashScopeClient struct {
	apiKey     string
	endpoint   string
	model      string
	httpClient *http.Client
	maxRetries int
	dimensions int
}

// NewDashScopeClient 创建DashScope嵌入客户端
func NewDashScopeClient(opts ...Option) (Client, error) {
	cfg := NewConfig(opts...)

	if cfg.APIKey == "" {
		return nil, NewEmbeddingError(ErrCodeInvalidAPIKey, ErrMsgInvalidAPIKey)
	}

	endpoint := cfg.BaseURL
	if endpoint == "" {
		endpoint = defaultDashScopeEndpoint
	}

	return &DashScopeClient{
		apiKey:     cfg.APIKey,
		endpoint:   endpoint,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		maxRetries: cfg.MaxRetries,
		dimensions: cfg.Dimensions,
	}, nil
}

// Name 返回模型名称
func (c *DashScopeClient) Name() string {
	return c.model
}

// Dimensions 返回配置的向量维度
func (c *DashScopeClient) Dimensions() int {
	return c.dimensions
}

// Embed 生成单条文本的向量表示
func (c *DashScopeClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, NewEmbeddingError(ErrCodeEmptyInput, ErrMsgEmptyInput)
	}

	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, NewEmbeddingError(ErrCodeServerError, "no embedding vectors returned")
	}
	return vectors[0], nil
}

// EmbedBatch 批量生成文本的向量表示
func (c *DashScopeClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if len(texts) > dashScopeMaxBatch {
		return nil, NewEmbeddingError(ErrCodeInvalidRequest,
			fmt.Sprintf("maximum %d texts per batch", dashScopeMaxBatch))
	}

	reqData := dashScopeRequest{
		Model: c.model,
		Input: dashScopeInput{Texts: texts},
		Parameters: &dashScopeParameters{
			Dimension:  c.dimensions,
			OutputType: "dense",
		},
	}

	var resp dashScopeResponse
	if err := c.sendRequest(ctx, reqData, &resp); err != nil {
		return nil, err
	}

	if resp.Code != "" {
		return nil, NewEmbeddingError(ErrCodeServerError,
			fmt.Sprintf("API error: %s (%s)", resp.Message, resp.Code))
	}

	if len(resp.Output.Embeddings) == 0 {
		return nil, NewEmbeddingError(ErrCodeServerError, "no embeddings returned")
	}

	// 按原始文本顺序重组结果
	result := make([][]float32, len(texts))
	for _, emb := range resp.Output.Embeddings {
		if emb.TextIndex < 0 || emb.TextIndex >= len(texts) {
			continue
		}
		result[emb.TextIndex] = emb.Embedding
	}

	return result, nil
}

// sendRequest 发送HTTP请求，暂时性故障按指数退避重试
func (c *DashScopeClient) sendRequest(ctx context.Context, reqData interface{}, respData interface{}) error {
	body, err := json.Marshal(reqData)
	if err != nil {
		return NewEmbeddingError(ErrCodeInvalidRequest, err.Error())
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * 500 * time.Millisecond
			select {
			case <-ctx.Done():
				return NewEmbeddingError(ErrCodeTimeout, ctx.Err().Error())
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return NewEmbeddingError(ErrCodeInvalidRequest, err.Error())
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		httpResp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return NewEmbeddingError(ErrCodeTimeout, err.Error())
			}
			lastErr = NewEmbeddingError(ErrCodeNetworkError, err.Error())
			continue
		}

		respBody, err := io.ReadAll(httpResp.Body)
		httpResp.Body.Close()
		if err != nil {
			lastErr = NewEmbeddingError(ErrCodeNetworkError, err.Error())
			continue
		}

		switch {
		case httpResp.StatusCode == http.StatusOK:
			if err := json.Unmarshal(respBody, respData); err != nil {
				return NewEmbeddingError(ErrCodeServerError, "invalid response body: "+err.Error())
			}
			return nil
		case httpResp.StatusCode == http.StatusUnauthorized:
			return NewEmbeddingError(ErrCodeInvalidAPIKey, ErrMsgInvalidAPIKey)
		case httpResp.StatusCode == http.StatusTooManyRequests:
			lastErr = NewEmbeddingError(ErrCodeRateLimited, ErrMsgRateLimited)
		case httpResp.StatusCode >= 500:
			lastErr = NewEmbeddingError(ErrCodeServerError,
				fmt.Sprintf("%s: status %d", ErrMsgServerError, httpResp.StatusCode))
		default:
			return NewEmbeddingError(ErrCodeInvalidRequest,
				fmt.Sprintf("unexpected status %d: %s", httpResp.StatusCode, string(respBody)))
		}
	}

	return lastErr
}
