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
	// 默认OpenAI兼容嵌入端点
	defaultOpenAIEndpoint = "https://api.openai.com/v1/embeddings"
)

func init() {
	RegisterClient("openai", NewOpenAIClient)
}

// openAIRequest OpenAI嵌入API请求结构
type openAIRequest struct {
	Model          string   `json:"model"`
	Input          []string `json:"input"`
	Dimensions     int      `json:"dimensions,omitempty"`
	EncodingFormat string   `json:"encoding_format"`
}

// openAIResponse OpenAI嵌入API响应结构
type openAIResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
	Usage struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

// OpenAIClient OpenAI兼容嵌入API客户端
// 兼容所有实现/v1/embeddings接口的服务
type OpenAIClient struct {
	apiKey     string
	endpoint   string
	model      string
	httpClient *http.Client
	maxRetries int
	dimensions int
}

// NewOpenAIClient 创建OpenAI兼容嵌入客户端
func NewOpenAIClient(opts ...Option) (Client, error) {
	cfg := NewConfig(opts...)

	if cfg.APIKey == "" {
		return nil, NewEmbeddingError(ErrCodeInvalidAPIKey, ErrMsgInvalidAPIKey)
	}

	endpoint := cfg.BaseURL
	if endpoint == "" {
		endpoint = defaultOpenAIEndpoint
	}

	return &OpenAIClient{
		apiKey:     cfg.APIKey,
		endpoint:   endpoint,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		maxRetries: cfg.MaxRetries,
		dimensions: cfg.Dimensions,
	}, nil
}

// Name 返回模型名称
func (c *OpenAIClient) Name() string {
	return c.model
}

// Dimensions 返回配置的向量维度
func (c *OpenAIClient) Dimensions() int {
	return c.dimensions
}

// Embed 生成单条文本的向量表示
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
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
func (c *OpenAIClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	reqData := openAIRequest{
		Model:          c.model,
		Input:          texts,
		Dimensions:     c.dimensions,
		EncodingFormat: "float",
	}

	var resp openAIResponse
	if err := c.sendRequest(ctx, reqData, &resp); err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 {
		return nil, NewEmbeddingError(ErrCodeServerError, "no embeddings returned")
	}

	result := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(texts) {
			continue
		}
		result[item.Index] = item.Embedding
	}

	return result, nil
}

// sendRequest 发送HTTP请求，暂时性故障按指数退避重试
func (c *OpenAIClient) sendRequest(ctx context.Context, reqData interface{}, respData interface{}) error {
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
